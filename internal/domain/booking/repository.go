package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates,
// including the scheduling queries the availability engine depends on.
//
// The three scheduling queries return (nil, nil) when no booking matches;
// absence is a normal answer there, not an error.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByNumber retrieves a booking by its human-readable booking number.
	FindByNumber(ctx context.Context, number string) (*Booking, error)

	// ListAll retrieves bookings with pagination, optionally filtered by
	// status (empty status means all).
	ListAll(ctx context.Context, status BookingStatus, page, limit int) ([]*Booking, int64, error)

	// CountAll returns the total number of bookings ever created, the input
	// to booking number generation.
	CountAll(ctx context.Context) (int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// FirstConfirmedOverlapping returns the first confirmed booking for the
	// vehicle whose [start_date, end_date] window overlaps the candidate
	// window inclusively (start <= candidateEnd AND end >= candidateStart).
	// excludeID, when non-nil, skips that booking so updates do not conflict
	// with themselves.
	FirstConfirmedOverlapping(ctx context.Context, vehicleID uuid.UUID, candidateStart, candidateEnd time.Time, excludeID *uuid.UUID) (*Booking, error)

	// NearestEndingBefore returns the vehicle's booking with status confirmed
	// or completed whose end date is <= the given instant, nearest first
	// (end date descending). Completed trips still count: they occupy the
	// vehicle's recent travel history. Cancelled ones do not.
	NearestEndingBefore(ctx context.Context, vehicleID uuid.UUID, instant time.Time, excludeID *uuid.UUID) (*Booking, error)

	// NearestStartingAfter returns the vehicle's confirmed booking whose
	// start date is >= the given instant, nearest first (start date
	// ascending).
	NearestStartingAfter(ctx context.Context, vehicleID uuid.UUID, instant time.Time, excludeID *uuid.UUID) (*Booking, error)

	// FindConfirmedStartingBetween returns confirmed bookings whose start
	// date falls in [from, to), used by the daily reminder sweep.
	FindConfirmedStartingBetween(ctx context.Context, from, to time.Time) ([]*Booking, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// Delete removes a booking permanently.
	Delete(ctx context.Context, id uuid.UUID) error
}
