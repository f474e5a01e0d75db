package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/yatrafleet/service-booking/internal/domain/booking"
)

// ConflictChecker detects direct date-range overlaps between a candidate
// window and a vehicle's confirmed bookings.
type ConflictChecker struct {
	bookings bookingDomain.BookingRepository
}

// NewConflictChecker creates a new ConflictChecker.
func NewConflictChecker(bookings bookingDomain.BookingRepository) *ConflictChecker {
	return &ConflictChecker{bookings: bookings}
}

// FirstConflict returns the booking number of the first confirmed booking
// for the vehicle whose window overlaps [start, end] inclusively, or an
// empty string if none does. Any one conflict is sufficient to deny, so no
// ordering among multiple conflicts is needed. excludeID lets updates skip
// the booking being edited.
func (c *ConflictChecker) FirstConflict(ctx context.Context, vehicleID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (string, error) {
	bk, err := c.bookings.FirstConfirmedOverlapping(ctx, vehicleID, start, end, excludeID)
	if err != nil {
		return "", fmt.Errorf("failed to check booking conflicts: %w", err)
	}
	if bk == nil {
		return "", nil
	}
	return bk.BookingNumber(), nil
}
