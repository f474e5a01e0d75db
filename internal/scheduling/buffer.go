package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/yatrafleet/service-booking/internal/domain/booking"
)

// Time-of-day defaults applied when a booking omits pickup/drop times.
// The candidate window defaults make the overlap check conservative: a
// booking without explicit times spans nearly the full day. Adjacent
// bookings' missing times fall back to midnight.
const (
	DefaultPickupTime = "00:00"
	DefaultDropTime   = "23:59"

	midnight = "00:00"
)

// CombineDateAndTime folds an "HH:MM" time of day into a date. An empty
// or malformed time falls back to the given default.
func CombineDateAndTime(date time.Time, hhmm, fallback string) time.Time {
	if hhmm == "" {
		hhmm = fallback
	}
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		t, _ = time.Parse("15:04", fallback)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
}

// BufferViolation describes a failed travel-time check: the human-readable
// message and the number of the adjacent booking that caused it.
type BufferViolation struct {
	Message       string
	BookingNumber string
}

// BufferValidator checks that a candidate trip leaves enough travel time
// relative to the vehicle's nearest preceding and following bookings.
type BufferValidator struct {
	bookings bookingDomain.BookingRepository
	travel   TravelTimeEstimator
}

// NewBufferValidator creates a new BufferValidator.
func NewBufferValidator(bookings bookingDomain.BookingRepository, travel TravelTimeEstimator) *BufferValidator {
	return &BufferValidator{bookings: bookings, travel: travel}
}

// Check validates both adjacencies and returns the first violation found,
// or nil if the candidate leaves sufficient buffer on both sides. A gap
// exactly equal to the required buffer is sufficient; the comparison is
// strict less-than.
func (v *BufferValidator) Check(ctx context.Context, vehicleID uuid.UUID, start, end time.Time, pickupLocation, dropLocation string, excludeID *uuid.UUID) (*BufferViolation, error) {
	prev, err := v.bookings.NearestEndingBefore(ctx, vehicleID, start, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find preceding booking: %w", err)
	}
	if prev != nil {
		prevEnd := CombineDateAndTime(prev.EndDate(), prev.DropTime(), midnight)
		required := v.travel.BufferHours(ctx, prev.DropLocation(), pickupLocation)
		if start.Sub(prevEnd).Hours() < float64(required) {
			return &BufferViolation{
				Message:       fmt.Sprintf("vehicle needs %d hour(s) to travel from %s before this pickup", required, prev.DropLocation()),
				BookingNumber: prev.BookingNumber(),
			}, nil
		}
	}

	next, err := v.bookings.NearestStartingAfter(ctx, vehicleID, end, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find following booking: %w", err)
	}
	if next != nil {
		nextStart := CombineDateAndTime(next.StartDate(), next.PickupTime(), midnight)
		required := v.travel.BufferHours(ctx, dropLocation, next.PickupLocation())
		if nextStart.Sub(end).Hours() < float64(required) {
			return &BufferViolation{
				Message:       fmt.Sprintf("vehicle needs %d hour(s) to reach %s for its next booking", required, next.PickupLocation()),
				BookingNumber: next.BookingNumber(),
			}, nil
		}
	}

	return nil, nil
}
