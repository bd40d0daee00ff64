package main

import (
	"context"
	"log"
	"time"

	router "github.com/timmyblive/customheroes-storybook-sub000/internal/app"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/database"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/logger"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/services"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/utils"
)

func main() {
	ctx := context.Background()
	config := NewConfig()

	if err := logger.Initialize(config.logLevel, config.env); err != nil {
		log.Fatalf("Logger wasn't initialized due to %s", err)
	}

	db, err := database.New(ctx, config.dsn)

	if err != nil {
		log.Fatalf("Database wasn't initialized due to %s", err)
	}

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Migrations weren't run due to %s", err)
	}

	log.Printf("Running server on %s\n", config.endpoint)

	jobQueueService := services.NewJobQueueService(ctx, 100, 2)

	notifyService := services.NewNotifyService(db, jobQueueService, config.notifyEndpoint, 5*time.Second)
	if err := notifyService.Start(ctx); err != nil {
		log.Fatalf("Starting notification dispatcher was failed due to %s", err)
	}

	sweepService := services.NewSweepService(db, jobQueueService, time.Minute)
	if err := sweepService.Start(ctx); err != nil {
		log.Fatalf("Starting sweeper was failed due to %s", err)
	}

	utils.HandleTerminationProcess(func() {
		jobQueueService.Shutdown()
		db.Close()
	})

	ledgerService := services.NewLedgerService(db, config.reservationTTL)
	orderService := services.NewOrderService(db)
	paymentService := services.NewPaymentService(config.paymentEndpoint, config.paymentSecretKey)

	router.New(
		router.Config{Endpoint: config.endpoint},
		services.NewAuthService(db),
		services.NewJWTService(config.authSecretKey),
		ledgerService,
		orderService,
		services.NewProofService(db, config.revisionLimit),
		services.NewCheckoutService(db, ledgerService, orderService, paymentService, config.draftTTL),
	).Run()
}
