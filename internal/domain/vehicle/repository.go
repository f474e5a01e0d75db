package vehicle

import (
	"context"

	"github.com/google/uuid"
)

// VehicleRepository defines persistence operations for fleet vehicles.
type VehicleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	FindByRegistration(ctx context.Context, registrationNumber string) (*Vehicle, error)

	// ListSchedulable retrieves every vehicle whose status is not inactive,
	// the population considered by fleet availability checks.
	ListSchedulable(ctx context.Context) ([]*Vehicle, error)

	// ListAll retrieves all vehicles regardless of status.
	ListAll(ctx context.Context) ([]*Vehicle, error)

	Save(ctx context.Context, v *Vehicle) error
	Update(ctx context.Context, v *Vehicle) error
	Delete(ctx context.Context, id uuid.UUID) error
}
