package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"routeboard/internal/api"
	"routeboard/internal/config"
	"routeboard/internal/modules/orders"
	"routeboard/internal/modules/segments"
	"routeboard/internal/modules/updates"
	"routeboard/internal/modules/waypoints"
	"routeboard/pkg/email"
	"routeboard/pkg/maps"
	"routeboard/pkg/ws"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	e := echo.New()

	// 2. --- Middleware ---
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:5173", cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// 3. --- Database Connection ---
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database configuration: %v", err)
	}

	dbPool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v\n", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}
	e.Logger.Info("Successfully connected to the database!")

	// 4. --- Redis (optimistic-update ledger persistence) ---
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	var ledgerStore updates.StoreInterface
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Printf("Redis unavailable at %s, ledger falls back to memory: %v", cfg.RedisAddr, err)
		ledgerStore = updates.NewMemoryStore()
	} else {
		ledgerStore = updates.NewRedisStore(redisClient)
	}

	// 5. --- Dependency Injection (Wiring everything up) ---
	// --- Live Segment Feed ---
	hub := ws.NewHub()

	// --- Directions Provider ---
	var directions segments.DirectionsProvider
	if cfg.GoogleMapsAPIKey != "" {
		google, err := maps.NewGoogleDirections(cfg.GoogleMapsAPIKey)
		if err != nil {
			log.Fatalf("Unable to create Google Maps client: %v", err)
		}
		directions = google
	} else {
		log.Println("No Google Maps API key configured, using straight-line estimates")
		directions = &maps.MockDirections{}
	}

	// --- Segments Module ---
	segmentManager := segments.NewManager(
		segments.NewBackend(directions, hub),
		segments.WithCallTimeout(cfg.SegmentCallTimeout),
	)
	segmentHandler := segments.NewHandler(segmentManager)

	// --- Orders Module ---
	orderRepo := orders.NewRepository(dbPool)
	orderService := orders.NewService(orderRepo)
	orderHandler := orders.NewHandler(orderService)

	// --- Updates Module ---
	ledger := updates.NewLedger(ledgerStore)
	updateHandler := updates.NewHandler(ledger)

	// --- Email Notifications ---
	var emailService email.ServiceInterface
	var templates *email.TemplateManager
	if cfg.EmailFrom != "" {
		sender, err := email.NewSESV2Sender(context.Background(), cfg.AWSRegion, cfg.EmailFrom)
		if err != nil {
			log.Fatalf("Unable to create SES client: %v", err)
		}
		emailService = sender
		templates, err = email.NewTemplateManager()
		if err != nil {
			log.Fatalf("Unable to parse email templates: %v", err)
		}
	} else {
		log.Println("No sender address configured, delivery notifications disabled")
	}

	// --- Waypoints Module ---
	waypointRepo := waypoints.NewRepository(dbPool)
	if err := waypointRepo.InitSchema(context.Background()); err != nil {
		log.Fatalf("Unable to initialize waypoint schema: %v", err)
	}
	waypointService := waypoints.NewService(
		waypoints.NewStore(),
		waypointRepo,
		ledger,
		segmentManager,
		orderService,
		emailService,
		templates,
	)
	if err := waypointService.Load(context.Background()); err != nil {
		log.Fatalf("Unable to seed waypoint store: %v", err)
	}
	waypointHandler := waypoints.NewHandler(waypointService)

	// 6. --- Initialize Router ---
	api.SetupRoutes(e,
		waypointHandler,
		segmentHandler,
		updateHandler,
		orderHandler,
		hub,
	)

	// 7. --- Start Server with graceful shutdown logic ---
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server an error occurred:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal("Server forced to shutdown:", err)
	}

	// Let in-flight segment calculations land before exiting.
	segmentManager.Wait()
	log.Println("Server exiting")
}
