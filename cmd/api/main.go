package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"classbook/internal/config"
	"classbook/internal/database"
	"classbook/internal/domain/auth"
	"classbook/internal/domain/company"
	"classbook/internal/domain/entitlement"
	"classbook/internal/domain/payment"
	"classbook/internal/domain/reservation"
	"classbook/internal/domain/schedule"
	"classbook/internal/middleware"
	jwtsvc "classbook/internal/pkg/jwt"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

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
		log.Fatal(err)
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	companyRepo := company.NewRepository(db)
	companyHandler := company.NewHandler(companyRepo)

	authService := auth.NewService(db, companyRepo, j)
	authHandler := auth.NewHandler(authService)

	scheduleRepo := schedule.NewRepository(db)
	scheduleService := schedule.NewService(scheduleRepo)
	scheduleHandler := schedule.NewHandler(scheduleService)

	entitlementService := entitlement.NewService(db)
	entitlementHandler := entitlement.NewHandler(entitlementService)

	reservationRepo := reservation.NewRepository(db)
	reservationService := reservation.NewService(reservationRepo, scheduleRepo, entitlementService, cfg.CancelCutoff)
	reservationHandler := reservation.NewHandler(reservationService)

	paymentService := payment.NewService(entitlementService, reservationService)
	paymentHandler := payment.NewHandler(paymentService)

	r := gin.Default()

	v1 := r.Group("/api/v1")
	{
		auth.RegisterRoutes(v1, authHandler)
		company.RegisterPublicRoutes(v1, companyHandler)
		entitlement.RegisterPublicRoutes(v1, entitlementHandler)

		protected := v1.Group("/")
		protected.Use(middleware.Auth(j))
		{
			schedule.RegisterMemberRoutes(protected, scheduleHandler)
			entitlement.RegisterMemberRoutes(protected, entitlementHandler)
			reservation.RegisterRoutes(protected, reservationHandler)

			admin := protected.Group("/")
			admin.Use(middleware.RequireRole(string(auth.RoleAdmin)))
			{
				company.RegisterAdminRoutes(admin, companyHandler)
				schedule.RegisterAdminRoutes(admin, scheduleHandler)
				entitlement.RegisterAdminRoutes(admin, entitlementHandler)
				payment.RegisterAdminRoutes(admin, paymentHandler)
			}
		}
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
