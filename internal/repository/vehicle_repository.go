package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yatrafleet/service-booking/internal/domain"
	vehicleDomain "github.com/yatrafleet/service-booking/internal/domain/vehicle"
)

// VehicleModel is the GORM model for the vehicles table.
type VehicleModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	RegistrationNumber string    `gorm:"uniqueIndex;not null;size:20"`
	VehicleType        string    `gorm:"not null;size:30"`
	Name               string    `gorm:"not null;size:120"`
	SeatingCapacity    int       `gorm:"not null"`
	Status             string    `gorm:"not null;size:20;index"`
	Notes              string    `gorm:"size:1000"`
	Version            int64     `gorm:"not null;default:1"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (VehicleModel) TableName() string {
	return "vehicles"
}

// GormVehicleRepository is the GORM-based implementation of VehicleRepository.
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewGormVehicleRepository creates a new GormVehicleRepository.
func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

// FindByID retrieves a vehicle by its unique identifier.
func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	var model VehicleModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Vehicle", id.String())
		}
		return nil, fmt.Errorf("failed to find vehicle by ID: %w", err)
	}
	return toDomainVehicle(&model), nil
}

// FindByRegistration retrieves a vehicle by its normalized registration number.
func (r *GormVehicleRepository) FindByRegistration(ctx context.Context, registration string) (*vehicleDomain.Vehicle, error) {
	reg := vehicleDomain.NormalizeRegistration(registration)
	var model VehicleModel
	if err := r.db.WithContext(ctx).Where("registration_number = ?", reg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Vehicle", reg)
		}
		return nil, fmt.Errorf("failed to find vehicle by registration: %w", err)
	}
	return toDomainVehicle(&model), nil
}

// ListSchedulable retrieves all vehicles that participate in availability
// computation (every status except inactive).
func (r *GormVehicleRepository) ListSchedulable(ctx context.Context) ([]*vehicleDomain.Vehicle, error) {
	var models []VehicleModel
	if err := r.db.WithContext(ctx).
		Where("status <> ?", string(vehicleDomain.StatusInactive)).
		Order("registration_number ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list schedulable vehicles: %w", err)
	}

	vehicles := make([]*vehicleDomain.Vehicle, len(models))
	for i, m := range models {
		vehicles[i] = toDomainVehicle(&m)
	}
	return vehicles, nil
}

// ListAll retrieves every vehicle regardless of status.
func (r *GormVehicleRepository) ListAll(ctx context.Context) ([]*vehicleDomain.Vehicle, error) {
	var models []VehicleModel
	if err := r.db.WithContext(ctx).
		Order("registration_number ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}

	vehicles := make([]*vehicleDomain.Vehicle, len(models))
	for i, m := range models {
		vehicles[i] = toDomainVehicle(&m)
	}
	return vehicles, nil
}

// Save persists a new vehicle.
func (r *GormVehicleRepository) Save(ctx context.Context, v *vehicleDomain.Vehicle) error {
	model := toVehicleModel(v)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError(fmt.Sprintf("vehicle with registration %s already exists", v.RegistrationNumber()))
		}
		return fmt.Errorf("failed to save vehicle: %w", err)
	}
	return nil
}

// Update persists changes to an existing vehicle with optimistic locking.
func (r *GormVehicleRepository) Update(ctx context.Context, v *vehicleDomain.Vehicle) error {
	model := toVehicleModel(v)

	expectedVersion := v.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&VehicleModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"registration_number": model.RegistrationNumber,
			"vehicle_type":        model.VehicleType,
			"name":                model.Name,
			"seating_capacity":    model.SeatingCapacity,
			"status":              model.Status,
			"notes":               model.Notes,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError(fmt.Sprintf("vehicle with registration %s already exists", v.RegistrationNumber()))
		}
		return fmt.Errorf("failed to update vehicle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("vehicle was modified by another transaction")
	}
	return nil
}

// Delete removes a vehicle permanently.
func (r *GormVehicleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&VehicleModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete vehicle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Vehicle", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toVehicleModel(v *vehicleDomain.Vehicle) *VehicleModel {
	return &VehicleModel{
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

func toDomainVehicle(m *VehicleModel) *vehicleDomain.Vehicle {
	return vehicleDomain.Reconstruct(
		m.ID,
		m.RegistrationNumber,
		vehicleDomain.VehicleType(m.VehicleType),
		m.Name,
		m.SeatingCapacity,
		vehicleDomain.VehicleStatus(m.Status),
		m.Notes,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
