package scheduling_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yatrafleet/service-booking/internal/domain"
	bookingDomain "github.com/yatrafleet/service-booking/internal/domain/booking"
	vehicleDomain "github.com/yatrafleet/service-booking/internal/domain/vehicle"
	"github.com/yatrafleet/service-booking/internal/repository"
	"github.com/yatrafleet/service-booking/internal/scheduling"
)

// stubEstimator returns fixed buffers per route and never performs I/O.
type stubEstimator struct {
	hours       map[string]int
	defaultHour int
}

func (s *stubEstimator) BufferHours(_ context.Context, from, to string) int {
	if h, ok := s.hours[from+"->"+to]; ok {
		return h
	}
	return s.defaultHour
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	// Each pool connection to ":memory:" is a separate empty database;
	// cap the pool at one so concurrent queries see the migrated schema.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&repository.VehicleModel{}, &repository.BookingModel{}))
	return db
}

func newTestEngine(t *testing.T, db *gorm.DB, travel scheduling.TravelTimeEstimator) *scheduling.Engine {
	t.Helper()
	bookingRepo := repository.NewGormBookingRepository(db)
	vehicleRepo := repository.NewGormVehicleRepository(db)
	conflicts := scheduling.NewConflictChecker(bookingRepo)
	buffers := scheduling.NewBufferValidator(bookingRepo, travel)
	return scheduling.NewEngine(vehicleRepo, conflicts, buffers, zap.NewNop())
}

func seedVehicle(t *testing.T, db *gorm.DB, registration string, status vehicleDomain.VehicleStatus) *vehicleDomain.Vehicle {
	t.Helper()
	v, err := vehicleDomain.NewVehicle(registration, vehicleDomain.TypeTempoTraveller, "Test Traveller", 12, "")
	require.NoError(t, err)
	if status != vehicleDomain.StatusAvailable {
		require.NoError(t, v.ChangeStatus(status))
	}
	require.NoError(t, repository.NewGormVehicleRepository(db).Save(context.Background(), v))
	return v
}

func seedBooking(t *testing.T, db *gorm.DB, vehicleID uuid.UUID, number string, start, end time.Time, pickupLoc, pickupTime, dropLoc, dropTime string) *bookingDomain.Booking {
	t.Helper()
	bk, err := bookingDomain.NewBooking(
		number,
		vehicleID,
		bookingDomain.Customer{Name: "Asha Rao", Phone: "9876543210"},
		start,
		end,
		pickupLoc,
		pickupTime,
		dropLoc,
		dropTime,
		25000,
		5000,
		"",
	)
	require.NoError(t, err)
	require.NoError(t, repository.NewGormBookingRepository(db).Save(context.Background(), bk))
	return bk
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCheckFleet_DirectOverlapOnSharedBoundaryDay(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(t, db, &stubEstimator{defaultHour: 1})
	v := seedVehicle(t, db, "MH12AB1234", vehicleDomain.StatusAvailable)

	// Existing trip Mar 10-12. A candidate starting on the 12th shares
	// the boundary day, and overlap is inclusive on both ends.
	seedBooking(t, db, v.ID(), "BK202600001",
		date(2026, time.March, 10), date(2026, time.March, 12),
		"Pune", "", "Pune", "")

	verdicts, err := engine.CheckFleet(context.Background(), scheduling.FleetRequest{
		StartDate:      date(2026, time.March, 12),
		EndDate:        date(2026, time.March, 14),
		PickupLocation: "Pune",
		DropLocation:   "Pune",
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 1)

	assert.False(t, verdicts[0].Available)
	assert.Equal(t, domain.ReasonBooked, verdicts[0].Reason)
	assert.Equal(t, "BK202600001", verdicts[0].BookingNumber)
	assert.Contains(t, verdicts[0].Message, "already booked")
}

func TestCheckFleet_InsufficientTravelBufferBeforePickup(t *testing.T) {
	db := openTestDB(t)
	// Pune -> Mumbai needs 4 hours.
	engine := newTestEngine(t, db, &stubEstimator{
		hours:       map[string]int{"Pune->Mumbai": 4},
		defaultHour: 1,
	})
	v := seedVehicle(t, db, "MH12AB1234", vehicleDomain.StatusAvailable)

	// Previous trip drops in Pune at 10:00 on the 10th. The candidate
	// picks up in Mumbai at 12:00 the same day: only 2 hours to cover a
	// 4 hour drive.
	seedBooking(t, db, v.ID(), "BK202600001",
		date(2026, time.March, 8), date(2026, time.March, 10),
		"Nashik", "", "Pune", "10:00")

	verdicts, err := engine.CheckFleet(context.Background(), scheduling.FleetRequest{
		StartDate:      date(2026, time.March, 10),
		EndDate:        date(2026, time.March, 12),
		PickupTime:     "12:00",
		PickupLocation: "Mumbai",
		DropLocation:   "Mumbai",
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 1)

	assert.False(t, verdicts[0].Available)
	assert.Equal(t, domain.ReasonTravelTimeBuffer, verdicts[0].Reason)
	assert.Equal(t, "BK202600001", verdicts[0].BookingNumber)
	assert.Contains(t, verdicts[0].Message, "4 hour(s)")
}

func TestCheckFleet_SufficientTravelBufferBeforePickup(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(t, db, &stubEstimator{
		hours:       map[string]int{"Pune->Mumbai": 4},
		defaultHour: 1,
	})
	v := seedVehicle(t, db, "MH12AB1234", vehicleDomain.StatusAvailable)

	seedBooking(t, db, v.ID(), "BK202600001",
		date(2026, time.March, 8), date(2026, time.March, 10),
		"Nashik", "", "Pune", "10:00")

	// 5 hours of slack against a 4 hour requirement.
	verdicts, err := engine.CheckFleet(context.Background(), scheduling.FleetRequest{
		StartDate:      date(2026, time.March, 10),
		EndDate:        date(2026, time.March, 12),
		PickupTime:     "15:00",
		PickupLocation: "Mumbai",
		DropLocation:   "Mumbai",
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.True(t, verdicts[0].Available)
}

func TestCheckFleet_ExactGapIsSufficient(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(t, db, &stubEstimator{
		hours:       map[string]int{"Pune->Mumbai": 4},
		defaultHour: 1,
	})
	v := seedVehicle(t, db, "MH12AB1234", vehicleDomain.StatusAvailable)

	seedBooking(t, db, v.ID(), "BK202600001",
		date(2026, time.March, 8), date(2026, time.March, 10),
		"Nashik", "", "Pune", "10:00")

	// The gap equals the requirement exactly; the comparison is strict
	// less-than, so this passes.
	verdicts, err := engine.CheckFleet(context.Background(), scheduling.FleetRequest{
		StartDate:      date(2026, time.March, 10),
		EndDate:        date(2026, time.March, 12),
		PickupTime:     "14:00",
		PickupLocation: "Mumbai",
		DropLocation:   "Mumbai",
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.True(t, verdicts[0].Available)
}

func TestCheckFleet_InsufficientBufferBeforeNextBooking(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(t, db, &stubEstimator{
		hours:       map[string]int{"Mumbai->Nagpur": 12},
		defaultHour: 1,
	})
	v := seedVehicle(t, db, "MH12AB1234", vehicleDomain.StatusAvailable)

	// Next trip picks up in Nagpur at 06:00 on the 13th. Candidate drops
	// in Mumbai at 23:59 on the 12th: ~6 hours for a 12 hour drive.
	seedBooking(t, db, v.ID(), "BK202600002",
		date(2026, time.March, 13), date(2026, time.March, 15),
		"Nagpur", "06:00", "Nagpur", "")

	verdicts, err := engine.CheckFleet(context.Background(), scheduling.FleetRequest{
		StartDate:      date(2026, time.March, 10),
		EndDate:        date(2026, time.March, 12),
		PickupLocation: "Mumbai",
		DropLocation:   "Mumbai",
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 1)

	assert.False(t, verdicts[0].Available)
	assert.Equal(t, domain.ReasonTravelTimeBuffer, verdicts[0].Reason)
	assert.Equal(t, "BK202600002", verdicts[0].BookingNumber)
	assert.Contains(t, verdicts[0].Message, "Nagpur")
}

func TestCheckFleet_CancelledBookingsDoNotBlock(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(t, db, &stubEstimator{defaultHour: 1})
	v := seedVehicle(t, db, "MH12AB1234", vehicleDomain.StatusAvailable)

	bk := seedBooking(t, db, v.ID(), "BK202600001",
		date(2026, time.March, 10), date(2026, time.March, 12),
		"Pune", "", "Pune", "")
	require.NoError(t, bk.Cancel())
	bk.IncrementVersion()
	require.NoError(t, repository.NewGormBookingRepository(db).Update(context.Background(), bk))

	verdicts, err := engine.CheckFleet(context.Background(), scheduling.FleetRequest{
		StartDate:      date(2026, time.March, 10),
		EndDate:        date(2026, time.March, 12),
		PickupLocation: "Pune",
		DropLocation:   "Pune",
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.True(t, verdicts[0].Available)
}

func TestCheckFleet_CompletedBookingStillOccupiesTravelHistory(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(t, db, &stubEstimator{
		hours:       map[string]int{"Pune->Mumbai": 4},
		defaultHour: 1,
	})
	v := seedVehicle(t, db, "MH12AB1234", vehicleDomain.StatusAvailable)

	// A completed trip no longer collides on dates but its drop location
	// still constrains how soon the vehicle can be elsewhere.
	bk := seedBooking(t, db, v.ID(), "BK202600001",
		date(2026, time.March, 8), date(2026, time.March, 10),
		"Nashik", "", "Pune", "10:00")
	require.NoError(t, bk.Complete())
	bk.IncrementVersion()
	require.NoError(t, repository.NewGormBookingRepository(db).Update(context.Background(), bk))

	verdicts, err := engine.CheckFleet(context.Background(), scheduling.FleetRequest{
		StartDate:      date(2026, time.March, 10),
		EndDate:        date(2026, time.March, 12),
		PickupTime:     "12:00",
		PickupLocation: "Mumbai",
		DropLocation:   "Mumbai",
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 1)

	assert.False(t, verdicts[0].Available)
	assert.Equal(t, domain.ReasonTravelTimeBuffer, verdicts[0].Reason)
}

func TestCheckFleet_InactiveVehiclesExcluded(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(t, db, &stubEstimator{defaultHour: 1})

	active := seedVehicle(t, db, "MH12AB1234", vehicleDomain.StatusAvailable)
	seedVehicle(t, db, "MH12ZZ9999", vehicleDomain.StatusInactive)
	// Maintenance keeps the vehicle in the schedulable set.
	inMaintenance := seedVehicle(t, db, "MH14CD5678", vehicleDomain.StatusMaintenance)

	verdicts, err := engine.CheckFleet(context.Background(), scheduling.FleetRequest{
		StartDate:      date(2026, time.March, 10),
		EndDate:        date(2026, time.March, 12),
		PickupLocation: "Pune",
		DropLocation:   "Pune",
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 2)

	ids := []uuid.UUID{verdicts[0].VehicleID, verdicts[1].VehicleID}
	assert.Contains(t, ids, active.ID())
	assert.Contains(t, ids, inMaintenance.ID())
}

func TestCheckFleet_RejectsInvertedDateRange(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(t, db, &stubEstimator{defaultHour: 1})
	seedVehicle(t, db, "MH12AB1234", vehicleDomain.StatusAvailable)

	_, err := engine.CheckFleet(context.Background(), scheduling.FleetRequest{
		StartDate: date(2026, time.March, 12),
		EndDate:   date(2026, time.March, 10),
	})

	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestCheckFleet_ExcludeSkipsOwnBooking(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(t, db, &stubEstimator{defaultHour: 1})
	v := seedVehicle(t, db, "MH12AB1234", vehicleDomain.StatusAvailable)

	bk := seedBooking(t, db, v.ID(), "BK202600001",
		date(2026, time.March, 10), date(2026, time.March, 12),
		"Pune", "", "Pune", "")

	// Re-checking the booking's own window with itself excluded must not
	// report a conflict.
	excludeID := bk.ID()
	verdicts, err := engine.CheckFleet(context.Background(), scheduling.FleetRequest{
		StartDate:        date(2026, time.March, 10),
		EndDate:          date(2026, time.March, 12),
		PickupLocation:   "Pune",
		DropLocation:     "Pune",
		ExcludeBookingID: &excludeID,
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.True(t, verdicts[0].Available)
}

func TestCheckFleet_OneVerdictPerVehicle(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(t, db, &stubEstimator{defaultHour: 1})

	registrations := []string{
		"MH12AA0001", "MH12AA0002", "MH12AA0003", "MH12AA0004", "MH12AA0005",
		"MH12AA0006", "MH12AA0007", "MH12AA0008", "MH12AA0009", "MH12AA0010",
	}
	seeded := make(map[uuid.UUID]bool, len(registrations))
	for _, reg := range registrations {
		v := seedVehicle(t, db, reg, vehicleDomain.StatusAvailable)
		seeded[v.ID()] = true
	}

	verdicts, err := engine.CheckFleet(context.Background(), scheduling.FleetRequest{
		StartDate:      date(2026, time.March, 10),
		EndDate:        date(2026, time.March, 12),
		PickupLocation: "Pune",
		DropLocation:   "Pune",
	})
	require.NoError(t, err)
	require.Len(t, verdicts, len(registrations))

	for _, verdict := range verdicts {
		assert.True(t, seeded[verdict.VehicleID], "verdict for unknown vehicle")
		assert.True(t, verdict.Available)
		delete(seeded, verdict.VehicleID)
	}
	assert.Empty(t, seeded, "every vehicle gets exactly one verdict")
}
