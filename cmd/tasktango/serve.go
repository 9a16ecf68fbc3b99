package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/tasktango/tasktango/internal/activity"
	"github.com/tasktango/tasktango/internal/api"
	"github.com/tasktango/tasktango/internal/config"
	"github.com/tasktango/tasktango/internal/metrics"
	"github.com/tasktango/tasktango/internal/notification"
	"github.com/tasktango/tasktango/internal/ratelimit"
	"github.com/tasktango/tasktango/internal/task"
	"github.com/tasktango/tasktango/internal/team"
	"github.com/tasktango/tasktango/internal/user"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the TaskTango server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	slog.Info("connected to database")

	userStore := user.NewStore(pool, cfg.Auth.SessionDuration)
	teamStore := team.NewStore(pool)
	taskStore := task.NewStore(pool)
	activityStore := activity.NewStore(pool)
	notificationStore := notification.NewStore(pool)

	dispatcher := notification.NewDispatcher(notificationStore, userStore)
	recorder := activity.NewRecorder(activityStore, userStore)

	teamService := team.NewService(teamStore, userStore, dispatcher, notificationStore, taskStore, logger)
	taskService := task.NewService(taskStore, teamStore, recorder, dispatcher, activityStore, logger)

	m := metrics.New()
	m.RegisterDBPoolCollector(func() (int32, int32, int32) {
		stat := pool.Stat()
		return stat.TotalConns(), stat.IdleConns(), stat.AcquiredConns()
	})

	janitor := user.NewJanitor(userStore, cfg.Auth.SessionCleanupInterval)
	janitor.OnSwept(m.AddSessionsSwept)
	go janitor.Start(ctx)

	limiter := ratelimit.New(cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)

	router := api.NewRouter(api.RouterDeps{
		Tasks:          taskService,
		Teams:          teamService,
		Users:          userStore,
		Notifications:  notificationStore,
		Sessions:       user.NewAuthAdapter(userStore),
		DBPool:         pool,
		Metrics:        m,
		LoginLimiter:   limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	janitor.Stop()

	return srv.Shutdown(shutdownCtx)
}
