package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"classbook/internal/database"
	"classbook/internal/domain/auth"
	"classbook/internal/domain/company"
	"classbook/internal/domain/entitlement"
	"classbook/internal/domain/reservation"
	"classbook/internal/domain/schedule"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "classbook.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(
		&company.Company{},
		&auth.User{},
		&schedule.ScheduleConfig{},
		&schedule.ScheduleException{},
		&schedule.Slot{},
		&entitlement.Plan{},
		&entitlement.Subscription{},
		&entitlement.ClassUsage{},
		&entitlement.Payment{},
		&entitlement.Suspension{},
		&reservation.Reservation{},
		&reservation.RecurringReservation{},
	); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM class_usages")
	db.Exec("DELETE FROM payments")
	db.Exec("DELETE FROM suspensions")
	db.Exec("DELETE FROM recurring_reservations")
	db.Exec("DELETE FROM reservations")
	db.Exec("DELETE FROM subscriptions")
	db.Exec("DELETE FROM slots")
	db.Exec("DELETE FROM schedule_exceptions")
	db.Exec("DELETE FROM schedule_configs")
	db.Exec("DELETE FROM plans")
	db.Exec("DELETE FROM users")
	db.Exec("DELETE FROM companies")

	log.Println("Creating company...")
	studio := company.Company{
		Name:     "Riverside Pilates",
		City:     "Almaty",
		Address:  "12 Dostyk Ave",
		IsActive: true,
	}
	db.Create(&studio)

	log.Println("Creating users...")
	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := auth.User{
		Email:        "admin@classbook.local",
		PasswordHash: string(adminHash),
		Name:         "Studio Admin",
		Role:         auth.RoleAdmin,
		CompanyID:    studio.ID,
	}
	db.Create(&admin)

	memberHash, _ := bcrypt.GenerateFromPassword([]byte("member123"), bcrypt.DefaultCost)
	member := auth.User{
		Email:        "member@classbook.local",
		PasswordHash: string(memberHash),
		Name:         "First Member",
		Role:         auth.RoleMember,
		CompanyID:    studio.ID,
	}
	db.Create(&member)

	log.Println("Creating plans...")
	db.Create(&entitlement.Plan{
		ID:                  "basic-4",
		Name:                "Basic 4",
		PriceMonthly:        18000,
		ClassesPerWeek:      1,
		MaxClassesPerPeriod: 4,
		IsActive:            true,
	})
	db.Create(&entitlement.Plan{
		ID:                  "standard-8",
		Name:                "Standard 8",
		PriceMonthly:        32000,
		ClassesPerWeek:      2,
		MaxClassesPerPeriod: 8,
		AllowClassRollover:  true,
		MaxRolloverClasses:  2,
		IsActive:            true,
	})
	db.Create(&entitlement.Plan{
		ID:                  "unlimited-16",
		Name:                "Unlimited 16",
		PriceMonthly:        52000,
		ClassesPerWeek:      4,
		MaxClassesPerPeriod: 16,
		AllowClassRollover:  true,
		MaxRolloverClasses:  4,
		IsActive:            true,
	})

	log.Println("Creating schedule configs (Mon-Sat)...")
	for dow := 1; dow <= 6; dow++ {
		closeTime := "21:00"
		if dow == 6 {
			closeTime = "15:00"
		}
		db.Create(&schedule.ScheduleConfig{
			CompanyID:              studio.ID,
			DayOfWeek:              dow,
			OpenTime:               "09:00",
			CloseTime:              closeTime,
			Capacity:               8,
			SlotDurationMinutes:    60,
			AllowIntermediateSlots: dow <= 5,
			IntermediateCapacity:   4,
			IsActive:               true,
		})
	}

	ctx := context.Background()

	log.Println("Renewing member subscription...")
	entService := entitlement.NewService(db)
	sub, err := entService.ApplyRenewal(ctx, member.ID, studio.ID, "standard-8", time.Now().UTC())
	if err != nil {
		log.Fatal("renewal failed:", err)
	}
	if err := entService.RecordPayment(ctx, &entitlement.Payment{
		SubscriptionID: sub.ID,
		UserID:         member.ID,
		CompanyID:      studio.ID,
		PlanID:         "standard-8",
		Amount:         32000,
		Status:         entitlement.PaymentPaid,
		PaidAt:         time.Now().UTC(),
		PeriodStart:    sub.PeriodStartDate,
		PeriodEnd:      sub.PeriodEndDate,
	}); err != nil {
		log.Fatal("payment record failed:", err)
	}

	log.Println("Generating slots for the subscription period...")
	schedService := schedule.NewService(schedule.NewRepository(db))
	report, err := schedService.GenerateSlots(ctx, studio.ID, sub.PeriodStartDate, sub.PeriodEndDate)
	if err != nil {
		log.Fatal("slot generation failed:", err)
	}
	log.Printf("Slots created: %d", report.CreatedSlots)

	log.Println("Seed completed.")
	log.Println("Admin:  admin@classbook.local / admin123")
	log.Println("Member: member@classbook.local / member123")
}
