package events

import (
	"time"

	"github.com/google/uuid"
)

// Event source identifier for CloudEvents published by this service.
const SourceBookingService = "service-booking"

// Booking event types published to booking.events.
const (
	BookingCreated     = "booking.created"
	BookingUpdated     = "booking.updated"
	BookingCancelled   = "booking.cancelled"
	BookingCompleted   = "booking.completed"
	BookingReminderDue = "booking.reminder.due"
)

// Fleet event types consumed from fleet.events.
const (
	VehicleStatusChanged = "vehicle.status.changed"
)

// BookingEvent is the payload carried by all booking lifecycle events.
type BookingEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	VehicleID     uuid.UUID `json:"vehicle_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	Status        string    `json:"status"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
}

// ReminderDueEvent is published when a confirmed booking starts soon and
// the customer should be reminded.
type ReminderDueEvent struct {
	BookingID      uuid.UUID `json:"booking_id"`
	BookingNumber  string    `json:"booking_number"`
	VehicleID      uuid.UUID `json:"vehicle_id"`
	CustomerName   string    `json:"customer_name"`
	CustomerPhone  string    `json:"customer_phone"`
	StartDate      time.Time `json:"start_date"`
	PickupLocation string    `json:"pickup_location"`
	PickupTime     string    `json:"pickup_time"`
}

// VehicleStatusChangedEvent is consumed from the fleet topic when an
// external system changes a vehicle's operational status.
type VehicleStatusChangedEvent struct {
	VehicleID uuid.UUID `json:"vehicle_id"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
}
