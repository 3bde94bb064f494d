package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"famhealth-backend/config"
	"famhealth-backend/controllers"
	"famhealth-backend/models"
	"famhealth-backend/notify"
	"famhealth-backend/repository"
	"famhealth-backend/routes"
	"famhealth-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/jmhodges/clock"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	settings, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger, err := config.NewLogger(settings)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(settings, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(settings *config.Settings, logger *zap.Logger) error {
	loc, err := settings.Location()
	if err != nil {
		return err
	}
	clk := clock.New()

	var (
		store repository.Store
		dir   interface {
			repository.Directory
			repository.Households
		}
	)
	if settings.DBURL != "" {
		db, err := config.ConnectDB(settings.DBURL, logger)
		if err != nil {
			return err
		}
		store = repository.NewGormStore(db, clk, settings.GraceWindow)
		dir = repository.NewGormDirectory(db, loc)
	} else {
		logger.Warn("DB_URL not set, reminders are kept in memory only")
		store = repository.NewMemoryStore(clk, settings.GraceWindow)
		dir = repository.NewMemoryDirectory(loc)
	}

	sink := buildSink(settings, logger)

	reminderService := services.NewReminderService(store, dir, clk, settings.GraceWindow, logger)
	selector := services.NewDueSelector(store, dir, loc)
	scheduler := services.NewScheduler(selector, store, dir, sink, clk, logger, services.SchedulerConfig{
		Schedule:         settings.SweepSchedule,
		Location:         loc,
		Workers:          settings.SweepWorkers,
		MaxDailyAttempts: settings.MaxDailyAttempts,
		RunOnStart:       settings.RunSweepOnStart,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()

	if settings.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := routes.SetupRouter(routes.Deps{
		Reminders:      &controllers.ReminderController{Service: reminderService, Location: loc},
		Families:       &controllers.FamilyController{Households: dir},
		Dispatch:       &controllers.DispatchController{Scheduler: scheduler},
		AllowedOrigins: settings.AllowedOrigins(),
		Logger:         logger,
	})
	printRoutes(r)

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildSink wires one provider per channel. Sends on a channel without
// credentials fail, so its reminders end up exhausted rather than dispatched.
func buildSink(settings *config.Settings, logger *zap.Logger) notify.Sink {
	breaker := func(name string, next notify.Sink) notify.Sink {
		cfg := notify.DefaultBreakerConfig(name)
		cfg.FailureThreshold = settings.BreakerFailureRatio
		cfg.MinRequests = settings.BreakerMinRequests
		cfg.Timeout = settings.BreakerOpenTimeout
		return notify.NewBreaker(next, cfg, logger)
	}

	fallback := notify.NewLogSink(logger)
	sinks := map[string]notify.Sink{
		models.ChannelEmail:    fallback,
		models.ChannelSMS:      fallback,
		models.ChannelWhatsApp: fallback,
	}

	if settings.TwilioEnabled() {
		twilio := notify.NewTwilioSink(
			settings.TwilioAccountSID,
			settings.TwilioAuthToken,
			settings.TwilioPhoneNumber,
			settings.TwilioWhatsAppNumber,
			logger,
		)
		sinks[models.ChannelSMS] = breaker("twilio-sms", twilio)
		sinks[models.ChannelWhatsApp] = breaker("twilio-whatsapp", twilio)
	} else {
		logger.Warn("Twilio credentials not set, SMS and WhatsApp reminders cannot be delivered")
	}

	if settings.SMTPEnabled() {
		email := notify.NewEmailSink(
			settings.SMTPHost,
			settings.SMTPPort,
			settings.SMTPUsername,
			settings.SMTPPassword,
			settings.SMTPFrom,
			settings.SendTimeout,
		)
		sinks[models.ChannelEmail] = breaker("smtp", email)
	} else {
		logger.Warn("SMTP sender not set, email reminders cannot be delivered")
	}

	return notify.NewRouter(settings.SendTimeout, sinks)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
