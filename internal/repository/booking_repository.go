package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yatrafleet/service-booking/internal/domain"
	bookingDomain "github.com/yatrafleet/service-booking/internal/domain/booking"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingNumber string    `gorm:"uniqueIndex;not null;size:20"`
	VehicleID     uuid.UUID `gorm:"type:uuid;index;not null"`

	CustomerName  string `gorm:"not null;size:120"`
	CustomerPhone string `gorm:"not null;size:20"`
	CustomerEmail string `gorm:"size:254"`

	Status string `gorm:"not null;size:20;index"`

	StartDate      time.Time `gorm:"not null;index"`
	EndDate        time.Time `gorm:"not null;index"`
	PickupLocation string    `gorm:"not null;size:255"`
	PickupTime     string    `gorm:"size:5"`
	DropLocation   string    `gorm:"size:255"`
	DropTime       string    `gorm:"size:5"`

	TotalAmount   int64
	AdvanceAmount int64
	Notes         string `gorm:"size:1000"`

	Version   int64     `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", number)
		}
		return nil, fmt.Errorf("failed to find booking by number: %w", err)
	}
	return toDomainBooking(&model)
}

// ListAll retrieves bookings with pagination, optionally filtered by status.
func (r *GormBookingRepository) ListAll(ctx context.Context, status bookingDomain.BookingStatus, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	query := r.db.WithContext(ctx).Model(&BookingModel{})
	if status != "" {
		query = query.Where("status = ?", string(status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := query.
		Order("start_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}
	return bookings, total, nil
}

// CountAll returns the total number of bookings ever created.
func (r *GormBookingRepository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// FirstConfirmedOverlapping returns the first confirmed booking whose
// window overlaps the candidate window inclusively, or nil if none.
func (r *GormBookingRepository) FirstConfirmedOverlapping(ctx context.Context, vehicleID uuid.UUID, candidateStart, candidateEnd time.Time, excludeID *uuid.UUID) (*bookingDomain.Booking, error) {
	query := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND status = ?", vehicleID, string(bookingDomain.StatusConfirmed)).
		Where("start_date <= ? AND end_date >= ?", candidateEnd, candidateStart)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var model BookingModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query overlapping bookings: %w", err)
	}
	return toDomainBooking(&model)
}

// NearestEndingBefore returns the nearest prior booking (confirmed or
// completed) ending at or before the given instant, or nil if none.
func (r *GormBookingRepository) NearestEndingBefore(ctx context.Context, vehicleID uuid.UUID, instant time.Time, excludeID *uuid.UUID) (*bookingDomain.Booking, error) {
	query := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND status IN ? AND end_date <= ?",
			vehicleID,
			[]string{string(bookingDomain.StatusConfirmed), string(bookingDomain.StatusCompleted)},
			instant).
		Order("end_date DESC")
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var model BookingModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query preceding booking: %w", err)
	}
	return toDomainBooking(&model)
}

// NearestStartingAfter returns the nearest confirmed booking starting at
// or after the given instant, or nil if none.
func (r *GormBookingRepository) NearestStartingAfter(ctx context.Context, vehicleID uuid.UUID, instant time.Time, excludeID *uuid.UUID) (*bookingDomain.Booking, error) {
	query := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND status = ? AND start_date >= ?",
			vehicleID, string(bookingDomain.StatusConfirmed), instant).
		Order("start_date ASC")
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var model BookingModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query following booking: %w", err)
	}
	return toDomainBooking(&model)
}

// FindConfirmedStartingBetween returns confirmed bookings starting in [from, to).
func (r *GormBookingRepository) FindConfirmedStartingBetween(ctx context.Context, from, to time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND start_date >= ? AND start_date < ?",
			string(bookingDomain.StatusConfirmed), from, to).
		Order("start_date ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query upcoming bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// Only update if the version matches (current version - 1, since
	// IncrementVersion was called before persisting).
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"vehicle_id":      model.VehicleID,
			"customer_name":   model.CustomerName,
			"customer_phone":  model.CustomerPhone,
			"customer_email":  model.CustomerEmail,
			"status":          model.Status,
			"start_date":      model.StartDate,
			"end_date":        model.EndDate,
			"pickup_location": model.PickupLocation,
			"pickup_time":     model.PickupTime,
			"drop_location":   model.DropLocation,
			"drop_time":       model.DropTime,
			"total_amount":    model.TotalAmount,
			"advance_amount":  model.AdvanceAmount,
			"notes":           model.Notes,
			"version":         model.Version,
			"updated_at":      model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// Delete removes a booking permanently.
func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:             bk.ID(),
		BookingNumber:  bk.BookingNumber(),
		VehicleID:      bk.VehicleID(),
		CustomerName:   bk.Customer().Name,
		CustomerPhone:  bk.Customer().Phone,
		CustomerEmail:  bk.Customer().Email,
		Status:         string(bk.Status()),
		StartDate:      bk.StartDate(),
		EndDate:        bk.EndDate(),
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

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.Reconstruct(
		m.ID,
		m.BookingNumber,
		m.VehicleID,
		bookingDomain.Customer{Name: m.CustomerName, Phone: m.CustomerPhone, Email: m.CustomerEmail},
		status,
		m.StartDate,
		m.EndDate,
		m.PickupLocation,
		m.PickupTime,
		m.DropLocation,
		m.DropTime,
		m.TotalAmount,
		m.AdvanceAmount,
		m.Notes,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
