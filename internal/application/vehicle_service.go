package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yatrafleet/service-booking/internal/domain"
	vehicleDomain "github.com/yatrafleet/service-booking/internal/domain/vehicle"
)

// CreateVehicleRequest holds the data needed to register a new vehicle.
type CreateVehicleRequest struct {
	RegistrationNumber string `json:"registration_number" binding:"required"`
	VehicleType        string `json:"vehicle_type" binding:"required"`
	Name               string `json:"name"`
	SeatingCapacity    int    `json:"seating_capacity" binding:"required"`
	Notes              string `json:"notes"`
}

// UpdateVehicleRequest holds a partial vehicle update. Empty fields are
// left unchanged.
type UpdateVehicleRequest struct {
	RegistrationNumber string `json:"registration_number"`
	VehicleType        string `json:"vehicle_type"`
	Name               string `json:"name"`
	SeatingCapacity    int    `json:"seating_capacity"`
	Status             string `json:"status"`
	Notes              string `json:"notes"`
}

// VehicleDTO is the response representation of a vehicle.
type VehicleDTO struct {
	ID                 uuid.UUID `json:"id"`
	RegistrationNumber string    `json:"registration_number"`
	VehicleType        string    `json:"vehicle_type"`
	Name               string    `json:"name"`
	SeatingCapacity    int       `json:"seating_capacity"`
	Status             string    `json:"status"`
	Notes              string    `json:"notes,omitempty"`
	Version            int64     `json:"version"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// VehicleService is the application service for fleet management.
type VehicleService struct {
	vehicles vehicleDomain.VehicleRepository
	logger   *zap.Logger
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(vehicles vehicleDomain.VehicleRepository, logger *zap.Logger) *VehicleService {
	return &VehicleService{
		vehicles: vehicles,
		logger:   logger,
	}
}

// CreateVehicle registers a new fleet vehicle.
func (s *VehicleService) CreateVehicle(ctx context.Context, req CreateVehicleRequest) (*VehicleDTO, error) {
	// Registration numbers are unique; reject a duplicate up front so
	// the caller gets a conflict rather than a raw constraint error.
	existing, err := s.vehicles.FindByRegistration(ctx, req.RegistrationNumber)
	if err == nil && existing != nil {
		return nil, domain.NewConflictError("vehicle with this registration number already exists")
	}
	var notFound *domain.NotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return nil, err
	}

	v, err := vehicleDomain.NewVehicle(
		req.RegistrationNumber,
		vehicleDomain.VehicleType(req.VehicleType),
		req.Name,
		req.SeatingCapacity,
		req.Notes,
	)
	if err != nil {
		return nil, err
	}

	if err := s.vehicles.Save(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info("vehicle registered",
		zap.String("vehicle_id", v.ID().String()),
		zap.String("registration", v.RegistrationNumber()),
	)

	result := toVehicleDTO(v)
	return &result, nil
}

// UpdateVehicle applies a partial update to a vehicle record.
func (s *VehicleService) UpdateVehicle(ctx context.Context, vehicleID uuid.UUID, req UpdateVehicleRequest) (*VehicleDTO, error) {
	v, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	// A re-registration must not take another vehicle's plate. Same
	// guard as on create, skipping the vehicle's own record.
	if req.RegistrationNumber != "" &&
		vehicleDomain.NormalizeRegistration(req.RegistrationNumber) != v.RegistrationNumber() {
		existing, err := s.vehicles.FindByRegistration(ctx, req.RegistrationNumber)
		if err == nil && existing != nil {
			return nil, domain.NewConflictError("vehicle with this registration number already exists")
		}
		var notFound *domain.NotFoundError
		if err != nil && !errors.As(err, &notFound) {
			return nil, err
		}
	}

	if err := v.Update(
		req.RegistrationNumber,
		vehicleDomain.VehicleType(req.VehicleType),
		req.Name,
		req.SeatingCapacity,
		req.Notes,
	); err != nil {
		return nil, err
	}
	if req.Status != "" {
		if err := v.ChangeStatus(vehicleDomain.VehicleStatus(req.Status)); err != nil {
			return nil, err
		}
	}

	if err := s.vehicles.Update(ctx, v); err != nil {
		return nil, err
	}

	result := toVehicleDTO(v)
	return &result, nil
}

// ApplyStatusChange sets a vehicle's operational status. Used by the
// fleet events consumer when an external system reports the change.
func (s *VehicleService) ApplyStatusChange(ctx context.Context, vehicleID uuid.UUID, status string) error {
	v, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return err
	}

	if err := v.ChangeStatus(vehicleDomain.VehicleStatus(status)); err != nil {
		return err
	}

	if err := s.vehicles.Update(ctx, v); err != nil {
		return err
	}

	s.logger.Info("vehicle status changed",
		zap.String("vehicle_id", vehicleID.String()),
		zap.String("status", status),
	)
	return nil
}

// GetVehicle retrieves a single vehicle by ID.
func (s *VehicleService) GetVehicle(ctx context.Context, vehicleID uuid.UUID) (*VehicleDTO, error) {
	v, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	result := toVehicleDTO(v)
	return &result, nil
}

// ListVehicles retrieves all vehicles regardless of status.
func (s *VehicleService) ListVehicles(ctx context.Context) ([]VehicleDTO, error) {
	fleet, err := s.vehicles.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]VehicleDTO, len(fleet))
	for i, v := range fleet {
		dtos[i] = toVehicleDTO(v)
	}
	return dtos, nil
}

// DeleteVehicle removes a vehicle permanently (admin).
func (s *VehicleService) DeleteVehicle(ctx context.Context, vehicleID uuid.UUID) error {
	return s.vehicles.Delete(ctx, vehicleID)
}

// --- Helpers ---

func toVehicleDTO(v *vehicleDomain.Vehicle) VehicleDTO {
	return VehicleDTO{
		ID:                 v.ID(),
		RegistrationNumber: v.RegistrationNumber(),
		VehicleType:        string(v.VehicleType()),
		Name:               v.Name(),
		SeatingCapacity:    v.SeatingCapacity(),
		Status:             string(v.Status()),
		Notes:              v.Notes(),
		Version:            v.Version(),
		CreatedAt:          v.CreatedAt(),
		UpdatedAt:          v.UpdatedAt(),
	}
}
