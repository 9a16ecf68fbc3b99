package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/tasktango/tasktango/internal/activity"
	"github.com/tasktango/tasktango/internal/auth"
	"github.com/tasktango/tasktango/internal/config"
	"github.com/tasktango/tasktango/internal/notification"
	"github.com/tasktango/tasktango/internal/task"
	"github.com/tasktango/tasktango/internal/team"
	"github.com/tasktango/tasktango/internal/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo users, a team, and tasks",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

const demoPassword = "tasktango-demo"

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	logger := slog.Default()

	userStore := user.NewStore(pool, cfg.Auth.SessionDuration)
	teamStore := team.NewStore(pool)
	taskStore := task.NewStore(pool)
	activityStore := activity.NewStore(pool)
	notificationStore := notification.NewStore(pool)
	dispatcher := notification.NewDispatcher(notificationStore, userStore)
	recorder := activity.NewRecorder(activityStore, userStore)
	teamService := team.NewService(teamStore, userStore, dispatcher, notificationStore, taskStore, logger)
	taskService := task.NewService(taskStore, teamStore, recorder, dispatcher, activityStore, logger)

	// Check if seed has already run.
	if _, err := userStore.GetByEmail(ctx, "alice@tasktango.dev"); err == nil {
		slog.Info("demo data already exists, skipping seed")
		return nil
	}

	alice, err := userStore.Create(ctx, user.CreateUserInput{
		Email:    "alice@tasktango.dev",
		Password: demoPassword,
		Name:     "Alice",
		Role:     "user",
	})
	if err != nil {
		return fmt.Errorf("creating demo user alice: %w", err)
	}
	slog.Info("created user", "email", alice.Email, "id", alice.ID)

	bob, err := userStore.Create(ctx, user.CreateUserInput{
		Email:    "bob@tasktango.dev",
		Password: demoPassword,
		Name:     "Bob",
		Role:     "user",
	})
	if err != nil {
		return fmt.Errorf("creating demo user bob: %w", err)
	}
	slog.Info("created user", "email", bob.Email, "id", bob.ID)

	asAlice := asAuthUser(alice)
	asBob := asAuthUser(bob)

	crew, err := teamService.Create(ctx, "Design Crew", asAlice)
	if err != nil {
		return fmt.Errorf("creating demo team: %w", err)
	}
	slog.Info("created team", "name", crew.Name, "code", crew.Code)

	// Bob joins by code and Alice accepts, so the demo data walks through
	// the full request-then-approve flow.
	if _, err := teamService.JoinByCode(ctx, crew.Code, asBob); err != nil {
		return fmt.Errorf("requesting team join: %w", err)
	}
	if _, err := teamService.RespondToJoinRequest(ctx, crew.ID, bob.ID, "accept", asAlice); err != nil {
		return fmt.Errorf("accepting team join: %w", err)
	}
	slog.Info("added member", "team", crew.Name, "user", bob.Email)

	due := time.Now().Add(72 * time.Hour)
	demoTasks := []task.CreateTaskInput{
		{
			Title:    "Draft the onboarding flow",
			Notes:    "Sketch the first-run experience before the Thursday review.",
			Category: "design",
			Priority: "high",
			Status:   "in-progress",
			DueDate:  &due,
			Teams:    []string{crew.ID},
		},
		{
			Title:      "Review color palette",
			Category:   "design",
			Priority:   "medium",
			AssignedTo: []string{bob.ID},
			Teams:      []string{crew.ID},
		},
		{
			Title:    "Book the team offsite",
			Priority: "low",
		},
	}

	for _, input := range demoTasks {
		t, err := taskService.Create(ctx, input, asAlice)
		if err != nil {
			return fmt.Errorf("creating task %q: %w", input.Title, err)
		}
		slog.Info("created task", "title", t.Title, "id", t.ID)
	}

	fmt.Printf("\n=== Demo Data Seeded ===\n")
	fmt.Printf("Users:     alice@tasktango.dev / bob@tasktango.dev (password: %s)\n", demoPassword)
	fmt.Printf("Team:      %s (join code %s)\n", crew.Name, crew.Code)
	fmt.Printf("Tasks:     %d created\n", len(demoTasks))
	fmt.Printf("\nTry it:\n")
	fmt.Printf("  curl -X POST http://localhost:8080/api/v1/auth/login -d '{\"email\":\"alice@tasktango.dev\",\"password\":\"%s\"}'\n", demoPassword)
	fmt.Printf("  curl -H 'Authorization: Bearer <token>' http://localhost:8080/api/v1/tasks\n")

	return nil
}

func asAuthUser(u *user.User) *auth.User {
	return &auth.User{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}
