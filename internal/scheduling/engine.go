package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yatrafleet/service-booking/internal/domain"
	vehicleDomain "github.com/yatrafleet/service-booking/internal/domain/vehicle"
)

// FleetRequest describes one proposed booking window to be evaluated
// against the whole fleet.
type FleetRequest struct {
	StartDate      time.Time
	EndDate        time.Time
	PickupTime     string // "HH:MM", optional
	DropTime       string // "HH:MM", optional
	PickupLocation string
	DropLocation   string

	// ExcludeBookingID, when set, is skipped in every query so a booking
	// being updated does not conflict with itself.
	ExcludeBookingID *uuid.UUID
}

// VehicleVerdict is the per-vehicle outcome of a fleet availability check.
type VehicleVerdict struct {
	VehicleID          uuid.UUID                `json:"vehicle_id"`
	RegistrationNumber string                   `json:"registration_number"`
	Available          bool                     `json:"available"`
	Reason             domain.UnavailableReason `json:"reason,omitempty"`
	Message            string                   `json:"message,omitempty"`
	BookingNumber      string                   `json:"conflicting_booking_number,omitempty"`
}

// Engine evaluates a proposed booking window against every schedulable
// vehicle in the fleet.
type Engine struct {
	vehicles  vehicleDomain.VehicleRepository
	conflicts *ConflictChecker
	buffers   *BufferValidator
	logger    *zap.Logger
}

// NewEngine creates a new fleet availability engine.
func NewEngine(vehicles vehicleDomain.VehicleRepository, conflicts *ConflictChecker, buffers *BufferValidator, logger *zap.Logger) *Engine {
	return &Engine{
		vehicles:  vehicles,
		conflicts: conflicts,
		buffers:   buffers,
		logger:    logger,
	}
}

// CheckFleet returns one verdict per non-inactive vehicle. Vehicles are
// evaluated concurrently; each writes its own slot of the result slice, so
// there is no shared mutable state across them. A store error on any
// vehicle fails the whole call: availability must never be reported from
// partial data.
func (e *Engine) CheckFleet(ctx context.Context, req FleetRequest) ([]VehicleVerdict, error) {
	if req.EndDate.Before(req.StartDate) {
		return nil, domain.NewValidationError("end date must be on or after start date")
	}

	fleet, err := e.vehicles.ListSchedulable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load fleet: %w", err)
	}

	start := CombineDateAndTime(req.StartDate, req.PickupTime, DefaultPickupTime)
	end := CombineDateAndTime(req.EndDate, req.DropTime, DefaultDropTime)

	verdicts := make([]VehicleVerdict, len(fleet))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range fleet {
		g.Go(func() error {
			verdict, err := e.checkVehicle(gctx, v, start, end, req)
			if err != nil {
				return err
			}
			verdicts[i] = verdict
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug("fleet availability evaluated",
		zap.Int("vehicles", len(fleet)),
		zap.Time("start", start),
		zap.Time("end", end),
	)
	return verdicts, nil
}

// checkVehicle applies the direct-overlap check first; a conflict skips
// the buffer checks entirely.
func (e *Engine) checkVehicle(ctx context.Context, v *vehicleDomain.Vehicle, start, end time.Time, req FleetRequest) (VehicleVerdict, error) {
	verdict := VehicleVerdict{
		VehicleID:          v.ID(),
		RegistrationNumber: v.RegistrationNumber(),
	}

	conflictNumber, err := e.conflicts.FirstConflict(ctx, v.ID(), start, end, req.ExcludeBookingID)
	if err != nil {
		return verdict, err
	}
	if conflictNumber != "" {
		verdict.Reason = domain.ReasonBooked
		verdict.Message = fmt.Sprintf("vehicle is already booked (%s)", conflictNumber)
		verdict.BookingNumber = conflictNumber
		return verdict, nil
	}

	violation, err := e.buffers.Check(ctx, v.ID(), start, end, req.PickupLocation, req.DropLocation, req.ExcludeBookingID)
	if err != nil {
		return verdict, err
	}
	if violation != nil {
		verdict.Reason = domain.ReasonTravelTimeBuffer
		verdict.Message = violation.Message
		verdict.BookingNumber = violation.BookingNumber
		return verdict, nil
	}

	verdict.Available = true
	return verdict, nil
}

// CheckVehicle evaluates the window for one specific vehicle. It is used
// when a booking targets a known vehicle rather than the whole fleet.
func (e *Engine) CheckVehicle(ctx context.Context, v *vehicleDomain.Vehicle, req FleetRequest) (VehicleVerdict, error) {
	if req.EndDate.Before(req.StartDate) {
		return VehicleVerdict{}, domain.NewValidationError("end date must be on or after start date")
	}

	start := CombineDateAndTime(req.StartDate, req.PickupTime, DefaultPickupTime)
	end := CombineDateAndTime(req.EndDate, req.DropTime, DefaultDropTime)

	return e.checkVehicle(ctx, v, start, end, req)
}
