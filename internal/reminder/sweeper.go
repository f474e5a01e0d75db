package reminder

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	bookingDomain "github.com/yatrafleet/service-booking/internal/domain/booking"
	"github.com/yatrafleet/service-booking/internal/events"
)

// eventPublisher matches the producer surface the sweeper needs.
type eventPublisher interface {
	PublishEvent(ctx context.Context, eventType, key string, data interface{}) error
}

// Sweeper periodically finds confirmed bookings starting the next day
// and publishes a reminder event for each. Notification delivery itself
// is another service's job.
type Sweeper struct {
	bookings bookingDomain.BookingRepository
	producer eventPublisher
	cron     *cron.Cron
	logger   *zap.Logger
}

// NewSweeper creates a Sweeper. Call Start to schedule it.
func NewSweeper(bookings bookingDomain.BookingRepository, producer eventPublisher, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		bookings: bookings,
		producer: producer,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start schedules the sweep on the given cron spec and starts the cron
// scheduler.
func (s *Sweeper) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.Sweep(ctx)
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("reminder sweeper started", zap.String("cron", spec))
	return nil
}

// Stop halts the cron scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep publishes one reminder event per confirmed booking starting
// tomorrow. Publish failures are logged and skipped so one broken
// booking does not block the rest.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	to := from.AddDate(0, 0, 1)

	upcoming, err := s.bookings.FindConfirmedStartingBetween(ctx, from, to)
	if err != nil {
		s.logger.Error("reminder sweep failed to load bookings", zap.Error(err))
		return
	}

	for _, bk := range upcoming {
		evt := events.ReminderDueEvent{
			BookingID:      bk.ID(),
			BookingNumber:  bk.BookingNumber(),
			VehicleID:      bk.VehicleID(),
			CustomerName:   bk.Customer().Name,
			CustomerPhone:  bk.Customer().Phone,
			StartDate:      bk.StartDate(),
			PickupLocation: bk.PickupLocation(),
			PickupTime:     bk.PickupTime(),
		}
		if err := s.producer.PublishEvent(ctx, events.BookingReminderDue, bk.ID().String(), evt); err != nil {
			s.logger.Error("failed to publish reminder",
				zap.String("booking_number", bk.BookingNumber()),
				zap.Error(err),
			)
			continue
		}
	}

	s.logger.Info("reminder sweep completed",
		zap.Int("bookings", len(upcoming)),
		zap.Time("window_start", from),
	)
}
