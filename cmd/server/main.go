package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking/internal/booking"
	"github.com/iliyamo/travel-booking/internal/config"
	"github.com/iliyamo/travel-booking/internal/database"
	"github.com/iliyamo/travel-booking/internal/flightgw"
	"github.com/iliyamo/travel-booking/internal/handler"
	"github.com/iliyamo/travel-booking/internal/inventory"
	"github.com/iliyamo/travel-booking/internal/middleware"
	"github.com/iliyamo/travel-booking/internal/queue"
	"github.com/iliyamo/travel-booking/internal/repository"
	"github.com/iliyamo/travel-booking/internal/router"
	"github.com/iliyamo/travel-booking/internal/service"
)

func main() {
	// A missing .env is fine; real deployments set the environment.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	hotels := repository.NewHotelRepo(db)
	roomTypes := repository.NewRoomTypeRepo(db)
	avail := repository.NewAvailabilityRepo(db)
	bookings := repository.NewBookingRepo(db)
	notifications := repository.NewNotificationRepo(db)

	ledger := inventory.NewLedger(avail, bookings)
	gateway := flightgw.NewClient(cfg.FlightAPIURL, cfg.FlightAPIKey, cfg.FlightAPITimeout)

	var publisher booking.Publisher
	if cfg.AMQPURL != "" {
		publisher = service.NewAMQPPublisher(cfg.AMQPURL)
		go func() {
			if err := queue.StartBookingConsumer(cfg.AMQPURL); err != nil {
				log.Printf("booking consumer not started: %v", err)
			}
		}()
	} else {
		log.Println("no broker configured; booking events disabled")
	}

	workflows := booking.NewService(
		db, hotels, roomTypes, bookings, notifications, users,
		ledger, gateway, publisher,
		booking.SimpleCardValidator{},
		booking.URLInvoiceGenerator{BaseURL: cfg.InvoiceBaseURL},
	)

	e := echo.New()

	// Redis-backed rate limiting and response caching degrade to
	// no-ops when Redis is unreachable at startup.
	if rdb := config.NewRedisClient(); rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	} else {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewPublicHandler(hotels, roomTypes, ledger))
	router.RegisterOwner(e, handler.NewOwnerHandler(hotels, roomTypes, bookings, workflows), cfg.JWTSecret)
	router.RegisterCustomer(e, handler.NewBookingHandler(workflows, bookings), cfg.JWTSecret)
	router.RegisterNotifications(e, handler.NewNotificationHandler(notifications), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
