package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/config"
	httptransport "github.com/example/campus-scheduler/internal/http"
	"github.com/example/campus-scheduler/internal/logging"
	"github.com/example/campus-scheduler/internal/persistence/sqlite"
	"github.com/example/campus-scheduler/internal/recurrence"
)

var (
	logger zerolog.Logger
	cfg    config.Config
)

var rootCmd = &cobra.Command{
	Use:   "campus-scheduler",
	Short: "Campus scheduler - room reservation and timetable conflict engine",
	Long:  "Campus scheduler manages the room catalog, ad-hoc reservation requests, weekly course templates, and per-occurrence schedule changes, with conflict checking at every decision point.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scheduler API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and initialises logging for commands that
// need them.
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

// services bundles the wired application layer plus the storage cleanup.
type services struct {
	rooms        *application.RoomService
	bookings     *application.BookingService
	templates    *application.TemplateService
	materializer *application.MaterializerService
	changes      *application.ScheduleChangeService
	conflicts    *application.ConflictService
	close        func() error
}

func buildServices() (*services, error) {
	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	idGenerator := uuid.NewString
	now := time.Now

	roomRepo := sqlite.NewRoomRepository(pool)
	bookingRepo := sqlite.NewBookingRepository(pool)
	templateRepo := sqlite.NewTemplateRepository(pool)
	occurrenceRepo := sqlite.NewOccurrenceRepository(pool)
	changeRepo := sqlite.NewChangeRequestRepository(pool)
	slots := sqlite.NewSlotStore(pool)

	conflicts := application.NewConflictService(slots, roomRepo, logger,
		application.WithWarningCacheTTL(cfg.WarningCacheTTL))
	engine := recurrence.NewEngine(cfg.Location())

	return &services{
		rooms:        application.NewRoomService(roomRepo, idGenerator, now, logger),
		bookings:     application.NewBookingService(bookingRepo, roomRepo, conflicts, idGenerator, now, logger),
		templates:    application.NewTemplateService(templateRepo, roomRepo, idGenerator, now, logger),
		materializer: application.NewMaterializerService(templateRepo, roomRepo, occurrenceRepo, conflicts, engine, idGenerator, now, logger),
		changes:      application.NewScheduleChangeService(changeRepo, occurrenceRepo, roomRepo, conflicts, idGenerator, now, logger),
		conflicts:    conflicts,
		close:        pool.Close,
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Msg("campus scheduler starting")

	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.close(); cerr != nil {
			logger.Error().Err(cerr).Msg("failed to close storage")
		}
	}()

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Rooms:     httptransport.NewRoomHandler(svc.rooms, logger),
		Bookings:  httptransport.NewBookingHandler(svc.bookings, logger),
		Templates: httptransport.NewTemplateHandler(svc.templates, logger),
		Schedules: httptransport.NewScheduleHandler(svc.materializer, logger),
		Changes:   httptransport.NewChangeHandler(svc.changes, logger),
		Conflicts: httptransport.NewConflictHandler(svc.conflicts, logger),
		Logger:    logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down gracefully")

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("campus scheduler stopped")
	return nil
}
