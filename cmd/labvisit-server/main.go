package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/labvisit/labvisit/internal/config"
	"github.com/labvisit/labvisit/internal/domain/booking"
	"github.com/labvisit/labvisit/internal/platform/auth"
	"github.com/labvisit/labvisit/internal/platform/db"
	"github.com/labvisit/labvisit/internal/platform/middleware"
	"github.com/labvisit/labvisit/internal/platform/notification"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "labvisit-server",
		Short: "Lab home collection booking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(remindCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the booking API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// remindCmd runs one reminder batch and exits. Intended for cron.
func remindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Send next-day visit reminders and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc, _, err := buildBookingService(cfg, pool, logger)
			if err != nil {
				return err
			}

			stats, err := svc.SendNextDayReminders(ctx)
			if err != nil {
				return fmt.Errorf("reminder run failed: %w", err)
			}
			fmt.Printf("Processed %d booking(s), sent %d reminder(s).\n", stats.Processed, stats.Sent)
			return nil
		},
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

// buildBookingService wires senders, dispatcher and the booking service from
// config. Channels without credentials get disabled senders so the rest of
// the system keeps working.
func buildBookingService(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (*booking.Service, *notification.Dispatcher, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	var email notification.EmailSender = notification.DisabledEmailSender{}
	if cfg.SMTPHost != "" {
		sender, err := notification.NewSMTPSender(notification.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			FromName:  cfg.SMTPFromName,
			FromEmail: cfg.SMTPFromEmail,
		})
		if err != nil {
			return nil, nil, err
		}
		email = sender
		logger.Info().Str("host", cfg.SMTPHost).Msg("email channel enabled")
	} else {
		logger.Warn().Msg("SMTP_HOST not set; email channel disabled")
	}

	var sms notification.SMSSender = notification.DisabledSMSSender{}
	if cfg.SMSAPIURL != "" {
		sender, err := notification.NewGatewaySMSSender(notification.GatewaySMSConfig{
			APIURL:     cfg.SMSAPIURL,
			APIKey:     cfg.SMSAPIKey,
			SenderName: cfg.SMSSenderName,
		})
		if err != nil {
			return nil, nil, err
		}
		sms = sender
		logger.Info().Msg("sms channel enabled")
	} else {
		logger.Warn().Msg("SMS_API_URL not set; sms channel disabled")
	}

	dispatcher := notification.NewDispatcher(email, sms, notification.NewTemplateEngine(), logger, cfg.AdminEmail, cfg.AdminPhone)

	repo := booking.NewRepoPG(pool)
	svc := booking.NewService(repo, dispatcher, validator.New(), logger, loc)
	return svc, dispatcher, nil
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	svc, dispatcher, err := buildBookingService(cfg, pool, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to wire booking service")
	}

	adminAuth := auth.NewAdminAuthenticator(cfg.AdminPassword)
	if !adminAuth.Configured() {
		logger.Warn().Msg("ADMIN_PASSWORD not set; admin surface is locked")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowHeaders: []string{"Content-Type", "X-Request-ID", auth.PasswordHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")
	adminGroup := e.Group("/api/v1/admin", auth.RequireAdmin(adminAuth))

	handler := booking.NewHandler(svc, adminAuth)
	handler.RegisterRoutes(apiV1, adminGroup)

	adminGroup.GET("/notifications/stats", func(c echo.Context) error {
		return c.JSON(http.StatusOK, dispatcher.Stats())
	})

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	return nil
}
