package reservation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"classbook/internal/domain/entitlement"
	"classbook/internal/domain/schedule"

	_ "modernc.org/sqlite"
)

// recurringEnv wires the real repositories and the real entitlement ledger
// over in-memory SQLite, so expansion runs against the same semantics as
// production.
type recurringEnv struct {
	db     *gorm.DB
	svc    *Service
	repo   Repository
	slots  schedule.Repository
	ledger *entitlement.Service
	sub    *entitlement.Subscription
}

const (
	envUserID    int64 = 10
	envCompanyID int64 = 1
)

func setupRecurringEnv(t *testing.T, slotCapacity int) *recurringEnv {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:recurring_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true},
	)
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(
		&schedule.ScheduleConfig{}, &schedule.ScheduleException{}, &schedule.Slot{},
		&entitlement.Plan{}, &entitlement.Subscription{}, &entitlement.ClassUsage{},
		&entitlement.Payment{}, &entitlement.Suspension{},
		&Reservation{}, &RecurringReservation{},
	); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Create(&entitlement.Plan{
		ID:                  "flex-30",
		Name:                "Flex 30",
		ClassesPerWeek:      7,
		MaxClassesPerPeriod: 30,
		IsActive:            true,
	}).Error)

	ledger := entitlement.NewService(db)
	paidAt := time.Now().UTC()
	sub, err := ledger.ApplyRenewal(ctx, envUserID, envCompanyID, "flex-30", paidAt)
	require.NoError(t, err)
	require.NoError(t, ledger.RecordPayment(ctx, &entitlement.Payment{
		SubscriptionID: sub.ID,
		UserID:         envUserID,
		CompanyID:      envCompanyID,
		PlanID:         "flex-30",
		Status:         entitlement.PaymentPaid,
		PaidAt:         paidAt,
		PeriodStart:    sub.PeriodStartDate,
		PeriodEnd:      sub.PeriodEndDate,
	}))

	slots := schedule.NewRepository(db)
	schedSvc := schedule.NewService(slots)
	for dow := 0; dow <= 6; dow++ {
		require.NoError(t, db.Create(&schedule.ScheduleConfig{
			CompanyID:           envCompanyID,
			DayOfWeek:           dow,
			OpenTime:            "09:00",
			CloseTime:           "12:00",
			Capacity:            slotCapacity,
			SlotDurationMinutes: 60,
			IsActive:            true,
		}).Error)
	}
	today := schedule.DateOnly(time.Now().UTC())
	_, err = schedSvc.GenerateSlots(ctx, envCompanyID, today, today.AddDate(0, 0, 13))
	require.NoError(t, err)

	repo := NewRepository(db)
	return &recurringEnv{
		db:     db,
		svc:    NewService(repo, slots, ledger, 2*time.Hour),
		repo:   repo,
		slots:  slots,
		ledger: ledger,
		sub:    sub,
	}
}

func dailyRule(startDate time.Time) *RecurringReservation {
	return &RecurringReservation{
		UserID:     envUserID,
		CompanyID:  envCompanyID,
		DaysOfWeek: DaysCSV([]int{0, 1, 2, 3, 4, 5, 6}),
		StartTime:  "09:00",
		EndTime:    "10:00",
		StartDate:  startDate,
	}
}

func tomorrow() time.Time {
	return schedule.DateOnly(time.Now().UTC()).AddDate(0, 0, 1)
}

func TestCreateRule_Validation(t *testing.T) {
	env := setupRecurringEnv(t, 2)
	ctx := context.Background()

	rule := dailyRule(tomorrow())
	rule.EndTime = "08:00" // before start
	rule.EndType = EndNever
	_, err := env.svc.CreateRule(ctx, rule)
	assert.ErrorIs(t, err, ErrValidation)

	rule = dailyRule(tomorrow())
	rule.EndType = EndByCount // missing max_occurrences
	_, err = env.svc.CreateRule(ctx, rule)
	assert.ErrorIs(t, err, ErrValidation)

	rule = dailyRule(tomorrow())
	rule.EndType = EndByDate // missing end_date
	_, err = env.svc.CreateRule(ctx, rule)
	assert.ErrorIs(t, err, ErrValidation)

	rule = dailyRule(tomorrow())
	rule.EndType = EndType("weird")
	_, err = env.svc.CreateRule(ctx, rule)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestExpand_CountBoundStopsAtLimit(t *testing.T) {
	env := setupRecurringEnv(t, 2)
	ctx := context.Background()

	rule := dailyRule(tomorrow())
	rule.EndType = EndByCount
	rule.MaxOccurrences = 3

	summary, err := env.svc.CreateRule(ctx, rule)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Created)
	assert.NotEmpty(t, summary.LimitReached)

	stored, err := env.repo.GetRuleByID(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.CurrentOccurrences)
	require.NotNil(t, stored.LastGeneratedDate)
	assert.Equal(t, tomorrow().AddDate(0, 0, 2), schedule.DateOnly(*stored.LastGeneratedDate))

	// The limit is already reached, so a second run generates nothing.
	again, err := env.svc.Expand(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)

	mine, err := env.svc.ListMyReservations(ctx, envUserID, 50, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}

func TestExpand_RunCapReportsRemainingDates(t *testing.T) {
	old := maxGeneratedPerRun
	maxGeneratedPerRun = 2
	defer func() { maxGeneratedPerRun = old }()

	env := setupRecurringEnv(t, 2)
	ctx := context.Background()

	rule := dailyRule(tomorrow())
	rule.EndType = EndByDate
	endDate := tomorrow().AddDate(0, 0, 3)
	rule.EndDate = &endDate

	summary, err := env.svc.CreateRule(ctx, rule)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, []string{
		tomorrow().AddDate(0, 0, 2).Format("2006-01-02"),
		tomorrow().AddDate(0, 0, 3).Format("2006-01-02"),
	}, summary.LimitReached)

	// The next run picks up exactly where the cap stopped.
	again, err := env.svc.Expand(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Created)
	assert.Empty(t, again.LimitReached)

	mine, err := env.svc.ListMyReservations(ctx, envUserID, 50, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 4)
}

func TestExpand_SkipsDuplicates(t *testing.T) {
	env := setupRecurringEnv(t, 2)
	ctx := context.Background()

	// Book one rule date by hand before the rule exists.
	start := tomorrow().Add(9 * time.Hour)
	slot, err := env.slots.FindSlotByTime(ctx, envCompanyID, start, start.Add(time.Hour))
	require.NoError(t, err)
	_, err = env.svc.Book(ctx, envUserID, slot.ID)
	require.NoError(t, err)

	rule := dailyRule(tomorrow())
	rule.EndType = EndByDate
	endDate := tomorrow().AddDate(0, 0, 4)
	rule.EndDate = &endDate

	summary, err := env.svc.CreateRule(ctx, rule)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Created)
	assert.Equal(t, []string{tomorrow().Format("2006-01-02")}, summary.Duplicates)
}

func TestExpand_ReportsNoCapacity(t *testing.T) {
	env := setupRecurringEnv(t, 1)
	ctx := context.Background()

	// Another member fills the only seat on one rule date.
	start := tomorrow().Add(9 * time.Hour)
	slot, err := env.slots.FindSlotByTime(ctx, envCompanyID, start, start.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, env.slots.Reserve(ctx, slot.ID))

	rule := dailyRule(tomorrow())
	rule.EndType = EndByDate
	endDate := tomorrow().AddDate(0, 0, 2)
	rule.EndDate = &endDate

	summary, err := env.svc.CreateRule(ctx, rule)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, []string{tomorrow().Format("2006-01-02")}, summary.NoCapacity)
}

func TestExpand_ReportsMissingTimeSlots(t *testing.T) {
	env := setupRecurringEnv(t, 2)
	ctx := context.Background()

	rule := dailyRule(tomorrow())
	rule.StartTime = "13:00" // outside generated hours
	rule.EndTime = "14:00"
	rule.EndType = EndByDate
	endDate := tomorrow().AddDate(0, 0, 2)
	rule.EndDate = &endDate

	summary, err := env.svc.CreateRule(ctx, rule)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Created)
	assert.Len(t, summary.MissingTimeSlots, 3)
}

func TestExpand_ReportsCannotBookOnSuspendedDates(t *testing.T) {
	env := setupRecurringEnv(t, 2)
	ctx := context.Background()

	suspended := tomorrow().AddDate(0, 0, 1)
	require.NoError(t, env.ledger.CreateSuspension(ctx, &entitlement.Suspension{
		UserID:    envUserID,
		CompanyID: envCompanyID,
		StartDate: suspended,
		EndDate:   suspended,
		Reason:    "travel",
	}))

	rule := dailyRule(tomorrow())
	rule.EndType = EndByDate
	endDate := tomorrow().AddDate(0, 0, 2)
	rule.EndDate = &endDate

	summary, err := env.svc.CreateRule(ctx, rule)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, []string{suspended.Format("2006-01-02")}, summary.CannotBook)
}

func TestExpand_OnlyEnabledWeekdays(t *testing.T) {
	env := setupRecurringEnv(t, 2)
	ctx := context.Background()

	target := tomorrow()
	rule := dailyRule(target)
	rule.DaysOfWeek = DaysCSV([]int{int(target.Weekday())})
	rule.EndType = EndByDate
	endDate := target.AddDate(0, 0, 6)
	rule.EndDate = &endDate

	summary, err := env.svc.CreateRule(ctx, rule)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)

	mine, err := env.svc.ListMyReservations(ctx, envUserID, 50, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	slot, err := env.slots.GetSlotByID(ctx, mine[0].SlotID)
	require.NoError(t, err)
	assert.Equal(t, target.Weekday(), slot.Date.Weekday())
}

func TestPauseAndResume(t *testing.T) {
	env := setupRecurringEnv(t, 2)
	ctx := context.Background()

	rule := dailyRule(tomorrow())
	rule.EndType = EndByCount
	rule.MaxOccurrences = 2
	_, err := env.svc.CreateRule(ctx, rule)
	require.NoError(t, err)

	require.NoError(t, env.svc.PauseRule(ctx, rule.ID, envUserID))

	_, err = env.svc.Expand(ctx, rule.ID)
	assert.ErrorIs(t, err, ErrRuleNotActive)

	// Pausing keeps everything already generated.
	mine, err := env.svc.ListMyReservations(ctx, envUserID, 50, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	// Resume re-expands; the count bound is already met so nothing new.
	summary, err := env.svc.ResumeRule(ctx, rule.ID, envUserID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Created)
}

func TestPauseRule_OwnershipEnforced(t *testing.T) {
	env := setupRecurringEnv(t, 2)
	ctx := context.Background()

	rule := dailyRule(tomorrow())
	rule.EndType = EndByCount
	rule.MaxOccurrences = 1
	_, err := env.svc.CreateRule(ctx, rule)
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.PauseRule(ctx, rule.ID, envUserID+1), ErrForbidden)
}

func TestCancelRule_KeepsReservationsByDefault(t *testing.T) {
	env := setupRecurringEnv(t, 2)
	ctx := context.Background()

	rule := dailyRule(tomorrow())
	rule.EndType = EndByCount
	rule.MaxOccurrences = 2
	_, err := env.svc.CreateRule(ctx, rule)
	require.NoError(t, err)

	require.NoError(t, env.svc.CancelRule(ctx, rule.ID, envUserID, false))

	stored, err := env.repo.GetRuleByID(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, RuleCancelled, stored.Status)

	mine, err := env.svc.ListMyReservations(ctx, envUserID, 50, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestCancelRule_TeardownCreditsAndCleansUp(t *testing.T) {
	env := setupRecurringEnv(t, 2)
	ctx := context.Background()

	// StartDate today so the generated slots fall inside the teardown's
	// created_at window.
	rule := dailyRule(schedule.DateOnly(time.Now().UTC()))
	rule.EndType = EndByCount
	rule.MaxOccurrences = 2
	_, err := env.svc.CreateRule(ctx, rule)
	require.NoError(t, err)

	mine, err := env.svc.ListMyReservations(ctx, envUserID, 50, 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	slotIDs := []int64{mine[0].SlotID, mine[1].SlotID}

	require.NoError(t, env.svc.CancelRule(ctx, rule.ID, envUserID, true))

	mine, err = env.svc.ListMyReservations(ctx, envUserID, 50, 0)
	require.NoError(t, err)
	assert.Empty(t, mine)

	var usages int64
	require.NoError(t, env.db.Model(&entitlement.ClassUsage{}).Count(&usages).Error)
	assert.EqualValues(t, 0, usages)

	// The quota debits were compensated.
	sub, err := env.ledger.ActiveSubscription(ctx, envUserID, envCompanyID)
	require.NoError(t, err)
	assert.Equal(t, 0, sub.ClassesUsedThisPeriod)
	assert.Equal(t, 30, sub.ClassesRemainingThisPeriod)

	// The slots the rule generated into are deleted once empty.
	for _, id := range slotIDs {
		_, err := env.slots.GetSlotByID(ctx, id)
		assert.ErrorIs(t, err, schedule.ErrSlotNotFound)
	}
}

func TestCancelRule_TeardownSparesForeignReservations(t *testing.T) {
	env := setupRecurringEnv(t, 2)
	ctx := context.Background()

	rule := dailyRule(schedule.DateOnly(time.Now().UTC()))
	rule.EndType = EndByCount
	rule.MaxOccurrences = 1
	_, err := env.svc.CreateRule(ctx, rule)
	require.NoError(t, err)

	mine, err := env.svc.ListMyReservations(ctx, envUserID, 50, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	slotID := mine[0].SlotID

	// A second member shares the slot, so teardown must release but not
	// delete it.
	require.NoError(t, env.slots.Reserve(ctx, slotID))
	require.NoError(t, env.repo.Create(ctx, &Reservation{
		UserID: envUserID + 1, CompanyID: envCompanyID, SlotID: slotID,
	}))

	require.NoError(t, env.svc.CancelRule(ctx, rule.ID, envUserID, true))

	slot, err := env.slots.GetSlotByID(ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, 1, slot.ReservedCount)
}

func TestExpand_UnknownRule(t *testing.T) {
	env := setupRecurringEnv(t, 2)
	_, err := env.svc.Expand(context.Background(), 424242)
	assert.ErrorIs(t, err, ErrRuleNotFound)
}
