package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yatrafleet/service-booking/internal/domain"
	bookingDomain "github.com/yatrafleet/service-booking/internal/domain/booking"
	vehicleDomain "github.com/yatrafleet/service-booking/internal/domain/vehicle"
	"github.com/yatrafleet/service-booking/internal/events"
	"github.com/yatrafleet/service-booking/internal/scheduling"
)

// dateLayout is the wire format of booking dates.
const dateLayout = "2006-01-02"

// EventPublisher abstracts the Kafka producer so tests can capture
// published events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType, key string, data interface{}) error
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	VehicleID      uuid.UUID `json:"vehicle_id" binding:"required"`
	CustomerName   string    `json:"customer_name" binding:"required"`
	CustomerPhone  string    `json:"customer_phone" binding:"required"`
	CustomerEmail  string    `json:"customer_email"`
	StartDate      string    `json:"start_date" binding:"required"`
	EndDate        string    `json:"end_date" binding:"required"`
	PickupLocation string    `json:"pickup_location" binding:"required"`
	PickupTime     string    `json:"pickup_time"`
	DropLocation   string    `json:"drop_location"`
	DropTime       string    `json:"drop_time"`
	TotalAmount    int64     `json:"total_amount"`
	AdvanceAmount  int64     `json:"advance_amount"`
	Notes          string    `json:"notes"`
}

// UpdateBookingRequest holds a partial update. Scheduling fields trigger
// a fresh availability check; detail fields do not.
type UpdateBookingRequest struct {
	VehicleID      *uuid.UUID `json:"vehicle_id"`
	StartDate      *string    `json:"start_date"`
	EndDate        *string    `json:"end_date"`
	PickupLocation *string    `json:"pickup_location"`
	PickupTime     *string    `json:"pickup_time"`
	DropLocation   *string    `json:"drop_location"`
	DropTime       *string    `json:"drop_time"`

	CustomerName  *string `json:"customer_name"`
	CustomerPhone *string `json:"customer_phone"`
	CustomerEmail *string `json:"customer_email"`
	TotalAmount   *int64  `json:"total_amount"`
	AdvanceAmount *int64  `json:"advance_amount"`
	Notes         *string `json:"notes"`
}

// AvailabilityRequest describes a proposed window to evaluate against
// the whole fleet.
type AvailabilityRequest struct {
	StartDate      string `json:"start_date" binding:"required"`
	EndDate        string `json:"end_date" binding:"required"`
	PickupTime     string `json:"pickup_time"`
	DropTime       string `json:"drop_time"`
	PickupLocation string `json:"pickup_location"`
	DropLocation   string `json:"drop_location"`

	// ExcludeBookingID lets an update flow re-check the fleet without
	// colliding with the booking being edited.
	ExcludeBookingID *uuid.UUID `json:"exclude_booking_id"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID             uuid.UUID `json:"id"`
	BookingNumber  string    `json:"booking_number"`
	VehicleID      uuid.UUID `json:"vehicle_id"`
	CustomerName   string    `json:"customer_name"`
	CustomerPhone  string    `json:"customer_phone"`
	CustomerEmail  string    `json:"customer_email,omitempty"`
	Status         string    `json:"status"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date"`
	PickupLocation string    `json:"pickup_location"`
	PickupTime     string    `json:"pickup_time,omitempty"`
	DropLocation   string    `json:"drop_location,omitempty"`
	DropTime       string    `json:"drop_time,omitempty"`
	TotalAmount    int64     `json:"total_amount"`
	AdvanceAmount  int64     `json:"advance_amount"`
	Notes          string    `json:"notes,omitempty"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	bookings bookingDomain.BookingRepository
	vehicles vehicleDomain.VehicleRepository
	engine   *scheduling.Engine
	producer EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.BookingRepository,
	vehicles vehicleDomain.VehicleRepository,
	engine *scheduling.Engine,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		vehicles: vehicles,
		engine:   engine,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateBooking validates the window against the target vehicle's
// schedule and, if available, creates a confirmed booking.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingDTO, error) {
	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	vehicle, err := s.vehicles.FindByID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if !vehicle.IsSchedulable() {
		return nil, domain.NewValidationError("vehicle is inactive and cannot be booked")
	}

	verdict, err := s.engine.CheckVehicle(ctx, vehicle, scheduling.FleetRequest{
		StartDate:      startDate,
		EndDate:        endDate,
		PickupTime:     req.PickupTime,
		DropTime:       req.DropTime,
		PickupLocation: req.PickupLocation,
		DropLocation:   req.DropLocation,
	})
	if err != nil {
		return nil, err
	}
	if !verdict.Available {
		return nil, domain.NewUnavailableError(verdict.Reason, verdict.Message, verdict.BookingNumber)
	}

	number, err := s.nextBookingNumber(ctx)
	if err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(
		number,
		req.VehicleID,
		bookingDomain.Customer{Name: req.CustomerName, Phone: req.CustomerPhone, Email: req.CustomerEmail},
		startDate,
		endDate,
		req.PickupLocation,
		req.PickupTime,
		req.DropLocation,
		req.DropTime,
		req.TotalAmount,
		req.AdvanceAmount,
		req.Notes,
	)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.publishBookingEvent(ctx, events.BookingCreated, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// UpdateBooking applies a partial update. If any scheduling field
// changes, the new window is re-validated against the fleet with the
// booking itself excluded so it does not conflict with its own dates.
func (s *BookingService) UpdateBooking(ctx context.Context, bookingID uuid.UUID, req UpdateBookingRequest) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.Status().IsTerminal() {
		return nil, domain.NewValidationError(fmt.Sprintf("cannot update a %s booking", bk.Status()))
	}

	change, err := buildTripChange(req)
	if err != nil {
		return nil, err
	}

	if !change.IsEmpty() {
		if err := s.revalidateTrip(ctx, bk, change); err != nil {
			return nil, err
		}
		if err := bk.ApplyTripChange(change); err != nil {
			return nil, err
		}
	}

	var customer *bookingDomain.Customer
	if req.CustomerName != nil || req.CustomerPhone != nil || req.CustomerEmail != nil {
		updated := bk.Customer()
		if req.CustomerName != nil {
			updated.Name = *req.CustomerName
		}
		if req.CustomerPhone != nil {
			updated.Phone = *req.CustomerPhone
		}
		if req.CustomerEmail != nil {
			updated.Email = *req.CustomerEmail
		}
		customer = &updated
	}
	bk.UpdateDetails(customer, req.TotalAmount, req.AdvanceAmount, req.Notes)

	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.publishBookingEvent(ctx, events.BookingUpdated, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking transitions a confirmed booking to cancelled.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := bk.Cancel(); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.publishBookingEvent(ctx, events.BookingCancelled, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// CompleteBooking transitions a confirmed booking to completed.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := bk.Complete(); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.publishBookingEvent(ctx, events.BookingCompleted, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// DeleteBooking removes a booking permanently (admin).
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID uuid.UUID) error {
	return s.bookings.Delete(ctx, bookingID)
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetBookingByNumber retrieves a single booking by its booking number.
func (s *BookingService) GetBookingByNumber(ctx context.Context, number string) (*BookingDTO, error) {
	bk, err := s.bookings.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookings returns a paginated list of bookings, optionally filtered
// by status.
func (s *BookingService) ListBookings(ctx context.Context, status string, page, limit int) ([]BookingDTO, int64, error) {
	var statusFilter bookingDomain.BookingStatus
	if status != "" {
		parsed, err := bookingDomain.ParseBookingStatus(status)
		if err != nil {
			return nil, 0, domain.NewValidationError(err.Error())
		}
		statusFilter = parsed
	}

	bookings, total, err := s.bookings.ListAll(ctx, statusFilter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, total, nil
}

// CheckAvailability evaluates the proposed window against every
// schedulable vehicle and returns one verdict per vehicle.
func (s *BookingService) CheckAvailability(ctx context.Context, req AvailabilityRequest) ([]scheduling.VehicleVerdict, error) {
	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	return s.engine.CheckFleet(ctx, scheduling.FleetRequest{
		StartDate:        startDate,
		EndDate:          endDate,
		PickupTime:       req.PickupTime,
		DropTime:         req.DropTime,
		PickupLocation:   req.PickupLocation,
		DropLocation:     req.DropLocation,
		ExcludeBookingID: req.ExcludeBookingID,
	})
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

// nextBookingNumber derives the next number from the running total of
// bookings ever created, stamped with the year the booking is created
// in, not the year the trip takes place. Two concurrent creates can
// observe the same count; the unique index on booking_number turns that
// into a write error rather than a duplicate number.
func (s *BookingService) nextBookingNumber(ctx context.Context) (string, error) {
	count, err := s.bookings.CountAll(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to count bookings: %w", err)
	}
	return bookingDomain.FormatBookingNumber(s.now().UTC().Year(), count+1), nil
}

// revalidateTrip runs the availability check for the booking's post-change
// window, excluding the booking itself from every scheduling query.
func (s *BookingService) revalidateTrip(ctx context.Context, bk *bookingDomain.Booking, change bookingDomain.TripChange) error {
	vehicleID := bk.VehicleID()
	if change.VehicleID != nil {
		vehicleID = *change.VehicleID
	}
	vehicle, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return err
	}
	if !vehicle.IsSchedulable() {
		return domain.NewValidationError("vehicle is inactive and cannot be booked")
	}

	startDate := bk.StartDate()
	if change.StartDate != nil {
		startDate = *change.StartDate
	}
	endDate := bk.EndDate()
	if change.EndDate != nil {
		endDate = *change.EndDate
	}
	pickupTime := bk.PickupTime()
	if change.PickupTime != nil {
		pickupTime = *change.PickupTime
	}
	dropTime := bk.DropTime()
	if change.DropTime != nil {
		dropTime = *change.DropTime
	}
	pickupLocation := bk.PickupLocation()
	if change.PickupLocation != nil {
		pickupLocation = *change.PickupLocation
	}
	dropLocation := bk.DropLocation()
	if change.DropLocation != nil {
		dropLocation = *change.DropLocation
	}

	excludeID := bk.ID()
	verdict, err := s.engine.CheckVehicle(ctx, vehicle, scheduling.FleetRequest{
		StartDate:        startDate,
		EndDate:          endDate,
		PickupTime:       pickupTime,
		DropTime:         dropTime,
		PickupLocation:   pickupLocation,
		DropLocation:     dropLocation,
		ExcludeBookingID: &excludeID,
	})
	if err != nil {
		return err
	}
	if !verdict.Available {
		return domain.NewUnavailableError(verdict.Reason, verdict.Message, verdict.BookingNumber)
	}
	return nil
}

func buildTripChange(req UpdateBookingRequest) (bookingDomain.TripChange, error) {
	change := bookingDomain.TripChange{
		VehicleID:      req.VehicleID,
		PickupLocation: req.PickupLocation,
		PickupTime:     req.PickupTime,
		DropLocation:   req.DropLocation,
		DropTime:       req.DropTime,
	}
	if req.StartDate != nil {
		parsed, err := parseDate("start date", *req.StartDate)
		if err != nil {
			return bookingDomain.TripChange{}, err
		}
		change.StartDate = &parsed
	}
	if req.EndDate != nil {
		parsed, err := parseDate("end date", *req.EndDate)
		if err != nil {
			return bookingDomain.TripChange{}, err
		}
		change.EndDate = &parsed
	}
	return change, nil
}

func parseDate(field, value string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, domain.NewValidationError(fmt.Sprintf("%s must be in YYYY-MM-DD format", field))
	}
	return parsed.UTC(), nil
}

// parseDateRange parses both dates and rejects an inverted range before
// any repository or oracle work happens.
func parseDateRange(start, end string) (time.Time, time.Time, error) {
	startDate, err := parseDate("start date", start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endDate, err := parseDate("end date", end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, domain.NewValidationError("end date must be on or after start date")
	}
	return startDate, endDate, nil
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:             bk.ID(),
		BookingNumber:  bk.BookingNumber(),
		VehicleID:      bk.VehicleID(),
		CustomerName:   bk.Customer().Name,
		CustomerPhone:  bk.Customer().Phone,
		CustomerEmail:  bk.Customer().Email,
		Status:         string(bk.Status()),
		StartDate:      bk.StartDate().Format(dateLayout),
		EndDate:        bk.EndDate().Format(dateLayout),
		PickupLocation: bk.PickupLocation(),
		PickupTime:     bk.PickupTime(),
		DropLocation:   bk.DropLocation(),
		DropTime:       bk.DropTime(),
		TotalAmount:    bk.TotalAmount(),
		AdvanceAmount:  bk.AdvanceAmount(),
		Notes:          bk.Notes(),
		Version:        bk.Version(),
		CreatedAt:      bk.CreatedAt(),
		UpdatedAt:      bk.UpdatedAt(),
	}
}

func (s *BookingService) publishBookingEvent(ctx context.Context, eventType string, bk *bookingDomain.Booking) {
	if s.producer == nil {
		return
	}
	evt := events.BookingEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		VehicleID:     bk.VehicleID(),
		CustomerName:  bk.Customer().Name,
		CustomerPhone: bk.Customer().Phone,
		Status:        string(bk.Status()),
		StartDate:     bk.StartDate(),
		EndDate:       bk.EndDate(),
	}
	if err := s.producer.PublishEvent(ctx, eventType, bk.ID().String(), evt); err != nil {
		s.logger.Error("failed to publish booking event",
			zap.String("event_type", eventType),
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
	}
}
