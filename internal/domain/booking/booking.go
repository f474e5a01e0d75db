package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yatrafleet/service-booking/internal/domain"
)

// timeOfDayLayout is the layout for the optional pickup/drop times.
const timeOfDayLayout = "15:04"

// Customer is a value object identifying who the trip is for.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// Booking is the aggregate root for a vehicle tour booking.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	vehicleID     uuid.UUID
	customer      Customer
	status        BookingStatus

	startDate      time.Time
	endDate        time.Time
	pickupLocation string
	pickupTime     string // "HH:MM", empty when unspecified
	dropLocation   string
	dropTime       string // "HH:MM", empty when unspecified

	totalAmount   int64
	advanceAmount int64
	notes         string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// FormatBookingNumber builds a booking number as BK<year><5-digit sequence>.
//
// The sequence is the running total of bookings ever created plus one, not
// a per-year counter; the year prefix changes while the counter keeps
// counting. That matches the deployed behavior and is kept as-is.
func FormatBookingNumber(year int, sequence int64) string {
	return fmt.Sprintf("BK%d%05d", year, sequence)
}

// ValidateTimeOfDay checks an optional "HH:MM" string.
func ValidateTimeOfDay(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(timeOfDayLayout, value); err != nil {
		return domain.NewValidationError(fmt.Sprintf("%s must be in HH:MM format", field))
	}
	return nil
}

// NewBooking creates a new Booking aggregate with status=confirmed.
func NewBooking(
	bookingNumber string,
	vehicleID uuid.UUID,
	customer Customer,
	startDate, endDate time.Time,
	pickupLocation, pickupTime, dropLocation, dropTime string,
	totalAmount, advanceAmount int64,
	notes string,
) (*Booking, error) {
	if vehicleID == uuid.Nil {
		return nil, domain.NewValidationError("vehicle ID is required")
	}
	if customer.Name == "" {
		return nil, domain.NewValidationError("customer name is required")
	}
	if customer.Phone == "" {
		return nil, domain.NewValidationError("customer phone is required")
	}
	if pickupLocation == "" {
		return nil, domain.NewValidationError("pickup location is required")
	}
	if endDate.Before(startDate) {
		return nil, domain.NewValidationError("end date must be on or after start date")
	}
	if err := ValidateTimeOfDay("pickup time", pickupTime); err != nil {
		return nil, err
	}
	if err := ValidateTimeOfDay("drop time", dropTime); err != nil {
		return nil, err
	}
	if totalAmount < 0 || advanceAmount < 0 {
		return nil, domain.NewValidationError("amounts cannot be negative")
	}

	now := time.Now().UTC()
	return &Booking{
		id:             uuid.New(),
		bookingNumber:  bookingNumber,
		vehicleID:      vehicleID,
		customer:       customer,
		status:         StatusConfirmed,
		startDate:      startDate,
		endDate:        endDate,
		pickupLocation: pickupLocation,
		pickupTime:     pickupTime,
		dropLocation:   dropLocation,
		dropTime:       dropTime,
		totalAmount:    totalAmount,
		advanceAmount:  advanceAmount,
		notes:          notes,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Reconstruct rebuilds a Booking from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	bookingNumber string,
	vehicleID uuid.UUID,
	customer Customer,
	status BookingStatus,
	startDate, endDate time.Time,
	pickupLocation, pickupTime, dropLocation, dropTime string,
	totalAmount, advanceAmount int64,
	notes string,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:             id,
		bookingNumber:  bookingNumber,
		vehicleID:      vehicleID,
		customer:       customer,
		status:         status,
		startDate:      startDate,
		endDate:        endDate,
		pickupLocation: pickupLocation,
		pickupTime:     pickupTime,
		dropLocation:   dropLocation,
		dropTime:       dropTime,
		totalAmount:    totalAmount,
		advanceAmount:  advanceAmount,
		notes:          notes,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// --- Getters ---

func (b *Booking) ID() uuid.UUID          { return b.id }
func (b *Booking) BookingNumber() string  { return b.bookingNumber }
func (b *Booking) VehicleID() uuid.UUID   { return b.vehicleID }
func (b *Booking) Customer() Customer     { return b.customer }
func (b *Booking) Status() BookingStatus  { return b.status }
func (b *Booking) StartDate() time.Time   { return b.startDate }
func (b *Booking) EndDate() time.Time     { return b.endDate }
func (b *Booking) PickupLocation() string { return b.pickupLocation }
func (b *Booking) PickupTime() string     { return b.pickupTime }
func (b *Booking) DropLocation() string   { return b.dropLocation }
func (b *Booking) DropTime() string       { return b.dropTime }
func (b *Booking) TotalAmount() int64     { return b.totalAmount }
func (b *Booking) AdvanceAmount() int64   { return b.advanceAmount }
func (b *Booking) Notes() string          { return b.notes }
func (b *Booking) Version() int64         { return b.version }
func (b *Booking) CreatedAt() time.Time   { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time   { return b.updatedAt }

// --- Behavior ---

// TripChange holds the fields whose modification requires the booking
// to be re-validated against the fleet schedule.
type TripChange struct {
	VehicleID      *uuid.UUID
	StartDate      *time.Time
	EndDate        *time.Time
	PickupLocation *string
	PickupTime     *string
	DropLocation   *string
	DropTime       *string
}

// IsEmpty reports whether no scheduling-relevant field is changing.
func (c TripChange) IsEmpty() bool {
	return c.VehicleID == nil && c.StartDate == nil && c.EndDate == nil &&
		c.PickupLocation == nil && c.PickupTime == nil &&
		c.DropLocation == nil && c.DropTime == nil
}

// ApplyTripChange rewrites the trip fields after re-validation passed.
func (b *Booking) ApplyTripChange(c TripChange) error {
	start, end := b.startDate, b.endDate
	if c.StartDate != nil {
		start = *c.StartDate
	}
	if c.EndDate != nil {
		end = *c.EndDate
	}
	if end.Before(start) {
		return domain.NewValidationError("end date must be on or after start date")
	}
	if c.PickupTime != nil {
		if err := ValidateTimeOfDay("pickup time", *c.PickupTime); err != nil {
			return err
		}
		b.pickupTime = *c.PickupTime
	}
	if c.DropTime != nil {
		if err := ValidateTimeOfDay("drop time", *c.DropTime); err != nil {
			return err
		}
		b.dropTime = *c.DropTime
	}
	if c.VehicleID != nil {
		b.vehicleID = *c.VehicleID
	}
	if c.PickupLocation != nil {
		b.pickupLocation = *c.PickupLocation
	}
	if c.DropLocation != nil {
		b.dropLocation = *c.DropLocation
	}
	b.startDate = start
	b.endDate = end
	b.updatedAt = time.Now().UTC()
	return nil
}

// UpdateDetails rewrites non-scheduling fields; none of these require
// re-running the availability check.
func (b *Booking) UpdateDetails(customer *Customer, totalAmount, advanceAmount *int64, notes *string) {
	if customer != nil {
		b.customer = *customer
	}
	if totalAmount != nil {
		b.totalAmount = *totalAmount
	}
	if advanceAmount != nil {
		b.advanceAmount = *advanceAmount
	}
	if notes != nil {
		b.notes = *notes
	}
	b.updatedAt = time.Now().UTC()
}

// Complete transitions the booking from confirmed to completed.
func (b *Booking) Complete() error {
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	b.status = StatusCompleted
	b.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions the booking from confirmed to cancelled.
func (b *Booking) Cancel() error {
	if !b.status.CanTransitionTo(StatusCancelled) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	b.status = StatusCancelled
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
