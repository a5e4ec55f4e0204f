package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"eventhive/internal/analytics"
	"eventhive/internal/auth"
	"eventhive/internal/config"
	"eventhive/internal/database"
	"eventhive/internal/models"
	"eventhive/internal/repository"
)

var (
	adminUser     = flag.String("admin", "admin", "Admin username to create or reset")
	adminPassword = flag.String("admin-password", "admin123", "Admin password")
	eventCount    = flag.Int("events", 12, "Number of demo events to create")
	reviewCount   = flag.Int("reviews", 6, "Reviews per demo event")
	seed          = flag.Int64("seed", 0, "Random seed (0 = current time)")
	dryRun        = flag.Bool("dry-run", false, "Show what would be generated without making changes")
)

var (
	titles     = []string{"Jazz Night", "Startup Pitch", "Go Meetup", "Food Festival", "Photography Walk", "Charity Run", "Board Games Evening", "Design Workshop"}
	categories = []string{"music", "business", "tech", "food", "art", "sports", "community"}
	locations  = []string{"Central Park", "Tech Hub, Floor 3", "City Hall", "Riverside Pavilion", "Old Town Square"}
	reviewText = map[int][]string{
		1: {"Terrible organisation, would not come again.", "Much worse than advertised."},
		2: {"Not great, the venue was too crowded.", "Sound was bad and it started late."},
		3: {"It was okay, nothing special.", "Decent event but a bit long."},
		4: {"Really good, enjoyed the talks.", "Nice atmosphere and friendly staff."},
		5: {"Amazing event, loved every minute!", "Best evening this year, thank you!"},
	}
)

type Generator struct {
	repos  *repository.Repositories
	tokens *auth.TokenManager
	rnd    *rand.Rand
}

func main() {
	flag.Parse()

	slog.Info("Starting demo data generator...")

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	if *dryRun {
		slog.Info("Dry run: nothing will be written",
			"admin", *adminUser, "events", *eventCount, "reviews_per_event", *reviewCount, "seed", *seed)
		return
	}

	cfg := config.Load()
	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	g := &Generator{
		repos:  repository.NewRepositories(db),
		tokens: auth.NewTokenManager(cfg.Auth),
		rnd:    rand.New(rand.NewSource(*seed)),
	}

	if err := g.Run(context.Background()); err != nil {
		slog.Error("Failed to generate demo data", "error", err)
		os.Exit(1)
	}

	slog.Info("Demo data generated successfully!")
}

func (g *Generator) Run(ctx context.Context) error {
	admin, err := g.upsertUser(ctx, *adminUser, *adminPassword, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	slog.Info("Admin ready", "username", admin.Username, "id", admin.ID)

	reviewers := make([]*models.User, 0, 3)
	for i := 1; i <= 3; i++ {
		u, err := g.upsertUser(ctx, fmt.Sprintf("attendee%d", i), "attendee123", models.RoleUser)
		if err != nil {
			return fmt.Errorf("failed to create attendee: %w", err)
		}
		reviewers = append(reviewers, u)
	}

	for i := 0; i < *eventCount; i++ {
		event := g.event(i, admin.ID)
		if err := g.repos.Events.Create(ctx, event); err != nil {
			return fmt.Errorf("failed to create event %q: %w", event.Title, err)
		}

		for j := 0; j < *reviewCount; j++ {
			if err := g.review(ctx, event, reviewers[j%len(reviewers)]); err != nil {
				slog.Error("Failed to create review", "event_id", event.ID, "error", err)
			}
		}
		slog.Info("Generated event", "event_id", event.ID, "title", event.Title, "date", event.Date)
	}

	return nil
}

func (g *Generator) upsertUser(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	hash, err := g.tokens.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Username: username, PasswordHash: hash, Role: role}
	if err := g.repos.Users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (g *Generator) event(i int, organizerID int64) *models.Event {
	date := time.Now().UTC().AddDate(0, 0, g.rnd.Intn(60)-14)
	deadline := date.Add(-24 * time.Hour)
	paid := g.rnd.Intn(2) == 0

	event := &models.Event{
		Title:                fmt.Sprintf("%s #%d", titles[i%len(titles)], i+1),
		Location:             locations[g.rnd.Intn(len(locations))],
		Description:          "Demo event generated for local development.",
		Date:                 date.Format(analytics.DateLayout),
		Time:                 fmt.Sprintf("%02d:00", 10+g.rnd.Intn(10)),
		Category:             categories[g.rnd.Intn(len(categories))],
		TicketsAvailable:     20 + g.rnd.Intn(180),
		RegistrationDeadline: &deadline,
		Status:               models.EventStatusActive,
		OrganizerID:          &organizerID,
	}
	if paid {
		event.IsPaid = true
		event.Price = float64(5 + g.rnd.Intn(46))
	}
	if date.Before(time.Now().UTC()) {
		event.Status = models.EventStatusCompleted
	}
	return event
}

func (g *Generator) review(ctx context.Context, event *models.Event, user *models.User) error {
	rating := 1 + g.rnd.Intn(5)
	texts := reviewText[rating]

	return g.repos.Reviews.Create(ctx, &models.Review{
		EventID:    event.ID,
		UserID:     user.ID,
		Username:   user.Username,
		ReviewText: texts[g.rnd.Intn(len(texts))],
		Rating:     rating,
	})
}
