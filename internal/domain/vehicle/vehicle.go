package vehicle

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yatrafleet/service-booking/internal/domain"
)

// VehicleType represents the class of a fleet vehicle.
type VehicleType string

const (
	TypeSedan          VehicleType = "sedan"
	TypeSUV            VehicleType = "suv"
	TypeTempoTraveller VehicleType = "tempo_traveller"
	TypeMinibus        VehicleType = "minibus"
	TypeBus            VehicleType = "bus"
)

// IsValid returns true if the vehicle type is recognized.
func (t VehicleType) IsValid() bool {
	switch t {
	case TypeSedan, TypeSUV, TypeTempoTraveller, TypeMinibus, TypeBus:
		return true
	}
	return false
}

// VehicleStatus represents the operational state of a vehicle.
//
// Only StatusInactive removes a vehicle from availability computation.
// A vehicle in maintenance is still schedulable by date and travel-buffer
// logic alone; whether that should change is an open product question.
type VehicleStatus string

const (
	StatusAvailable   VehicleStatus = "available"
	StatusBooked      VehicleStatus = "booked"
	StatusMaintenance VehicleStatus = "maintenance"
	StatusInactive    VehicleStatus = "inactive"
)

// IsValid returns true if the status is a recognized vehicle status.
func (s VehicleStatus) IsValid() bool {
	switch s {
	case StatusAvailable, StatusBooked, StatusMaintenance, StatusInactive:
		return true
	}
	return false
}

// Vehicle is the aggregate root for a fleet vehicle.
type Vehicle struct {
	id                 uuid.UUID
	registrationNumber string
	vehicleType        VehicleType
	name               string
	seatingCapacity    int
	status             VehicleStatus
	notes              string
	version            int64
	createdAt          time.Time
	updatedAt          time.Time
}

// NormalizeRegistration canonicalizes a registration number for storage
// and uniqueness comparison.
func NormalizeRegistration(reg string) string {
	return strings.ToUpper(strings.TrimSpace(reg))
}

// NewVehicle creates a new vehicle with status=available.
func NewVehicle(registrationNumber string, vehicleType VehicleType, name string, seatingCapacity int, notes string) (*Vehicle, error) {
	reg := NormalizeRegistration(registrationNumber)
	if reg == "" {
		return nil, domain.NewValidationError("registration number is required")
	}
	if !vehicleType.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid vehicle type: %s", vehicleType))
	}
	if seatingCapacity <= 0 {
		return nil, domain.NewValidationError("seating capacity must be positive")
	}

	now := time.Now().UTC()
	return &Vehicle{
		id:                 uuid.New(),
		registrationNumber: reg,
		vehicleType:        vehicleType,
		name:               name,
		seatingCapacity:    seatingCapacity,
		status:             StatusAvailable,
		notes:              notes,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// Reconstruct rebuilds a Vehicle from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	registrationNumber string,
	vehicleType VehicleType,
	name string,
	seatingCapacity int,
	status VehicleStatus,
	notes string,
	version int64,
	createdAt, updatedAt time.Time,
) *Vehicle {
	return &Vehicle{
		id:                 id,
		registrationNumber: registrationNumber,
		vehicleType:        vehicleType,
		name:               name,
		seatingCapacity:    seatingCapacity,
		status:             status,
		notes:              notes,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// --- Getters ---

func (v *Vehicle) ID() uuid.UUID               { return v.id }
func (v *Vehicle) RegistrationNumber() string  { return v.registrationNumber }
func (v *Vehicle) VehicleType() VehicleType    { return v.vehicleType }
func (v *Vehicle) Name() string                { return v.name }
func (v *Vehicle) SeatingCapacity() int        { return v.seatingCapacity }
func (v *Vehicle) Status() VehicleStatus       { return v.status }
func (v *Vehicle) Notes() string               { return v.notes }
func (v *Vehicle) Version() int64              { return v.version }
func (v *Vehicle) CreatedAt() time.Time        { return v.createdAt }
func (v *Vehicle) UpdatedAt() time.Time        { return v.updatedAt }

// --- Behavior ---

// IsSchedulable reports whether the vehicle participates in availability
// computation at all.
func (v *Vehicle) IsSchedulable() bool {
	return v.status != StatusInactive
}

// Update applies partial updates to the vehicle record.
func (v *Vehicle) Update(registrationNumber string, vehicleType VehicleType, name string, seatingCapacity int, notes string) error {
	if registrationNumber != "" {
		v.registrationNumber = NormalizeRegistration(registrationNumber)
	}
	if vehicleType != "" {
		if !vehicleType.IsValid() {
			return domain.NewValidationError(fmt.Sprintf("invalid vehicle type: %s", vehicleType))
		}
		v.vehicleType = vehicleType
	}
	if name != "" {
		v.name = name
	}
	if seatingCapacity > 0 {
		v.seatingCapacity = seatingCapacity
	}
	if notes != "" {
		v.notes = notes
	}
	v.version++
	v.updatedAt = time.Now().UTC()
	return nil
}

// ChangeStatus sets the operational status.
func (v *Vehicle) ChangeStatus(status VehicleStatus) error {
	if !status.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid vehicle status: %s", status))
	}
	v.status = status
	v.version++
	v.updatedAt = time.Now().UTC()
	return nil
}
