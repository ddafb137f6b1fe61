package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ms-calendar/internal/calendar/client"
	"ms-calendar/internal/config"
	"ms-calendar/internal/database/migrations"
	"ms-calendar/internal/events/db"
	"ms-calendar/internal/events/mongostore"
	"ms-calendar/internal/events/service"
	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.NewLogger(cfg.Log.Dir, "calendar-migrate")
	defer log.Close()

	app := &cli.App{
		Name:  "calendar-migrate",
		Usage: "Manage the calendar event store schema and sample data.",
		Commands: []*cli.Command{
			upCommand(cfg, log),
			downCommand(cfg, log),
			seedCommand(cfg, log),
			remindCommand(cfg, log),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error("MIGRATE", err.Error())
		log.Close()
		os.Exit(1)
	}
}

func upCommand(cfg *config.Config, log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "up",
		Usage: "Create or upgrade the events schema.",
		Action: func(c *cli.Context) error {
			return withStore(c.Context, cfg.Database, log, func(s *target) error {
				return s.up(c.Context)
			})
		},
	}
}

func downCommand(cfg *config.Config, log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "down",
		Usage: "Roll back every PostgreSQL migration.",
		Action: func(c *cli.Context) error {
			if cfg.Database.Driver != "postgres" {
				return errors.New("down is only supported for STORE_DRIVER=postgres")
			}
			return withStore(c.Context, cfg.Database, log, func(s *target) error {
				runner := migrations.NewRunner(s.bun, log)
				defer runner.Close()
				if err := runner.MigrateDown(); err != nil {
					return err
				}
				log.Info("MIGRATE", "✅ Rolled back all migrations")
				return nil
			})
		},
	}
}

func seedCommand(cfg *config.Config, log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Insert sample bookings around today.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "reset", Usage: "Delete every existing event first."},
		},
		Action: func(c *cli.Context) error {
			return withStore(c.Context, cfg.Database, log, func(s *target) error {
				if err := s.up(c.Context); err != nil {
					return err
				}
				svc := service.NewEventService(s.store, nil, nil, log)
				today := models.DateOf(time.Now().In(cfg.Reminder.Location()))
				n, err := seed(c.Context, svc, today, c.Bool("reset"))
				if err != nil {
					return err
				}
				log.Info("MIGRATE", fmt.Sprintf("✅ Seeded %d bookings", n))
				return nil
			})
		},
	}
}

func remindCommand(cfg *config.Config, log *logger.Logger) *cli.Command {
	base := cfg.Server.EventsAPIURL
	if base == "" {
		base = cfg.Server.PublicBaseURL
	}
	return &cli.Command{
		Name:  "remind",
		Usage: "Trigger today's reminder run on a running calendar service.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: base, Usage: "Base URL of the calendar service."},
		},
		Action: func(c *cli.Context) error {
			return remind(c.Context, client.New(c.String("url"), nil), log)
		},
	}
}

type reminderTrigger interface {
	RunReminders(ctx context.Context) (map[string]interface{}, error)
}

func remind(ctx context.Context, trigger reminderTrigger, log *logger.Logger) error {
	summary, err := trigger.RunReminders(ctx)
	if err != nil {
		return fmt.Errorf("reminder run failed: %w", err)
	}
	if msg, ok := summary["message"].(string); ok {
		log.Info("REMINDER", msg)
		return nil
	}
	log.Info("REMINDER", fmt.Sprintf("✅ Reminders for %v: sent=%v failed=%v skipped=%v",
		summary["date"], summary["sent"], summary["failed"], summary["skipped"]))
	return nil
}

// target is an opened store. bun is nil for mongo.
type target struct {
	driver string
	bun    *bun.DB
	mongo  *mongostore.Store
	store  service.EventDBLayer
	log    *logger.Logger
}

func (t *target) up(ctx context.Context) error {
	switch t.driver {
	case "postgres":
		// Runner.Close would close t.bun, which withStore still owns
		if err := migrations.NewRunner(t.bun, t.log).MigrateUp(); err != nil {
			return err
		}
	case "sqlite":
		if err := db.New(t.bun).Migrate(ctx); err != nil {
			return err
		}
	case "mongo":
		if err := t.mongo.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	t.log.Info("MIGRATE", fmt.Sprintf("✅ %s schema is up to date", t.driver))
	return nil
}

func withStore(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger, fn func(*target) error) error {
	t := &target{driver: cfg.Driver, log: log}
	switch cfg.Driver {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN not set")
		}
		bunDB, err := db.OpenPostgres(cfg.PostgresDSN, db.PoolOptions{MaxOpenConns: 2, MaxIdleConns: 2, MaxLifetime: time.Minute})
		if err != nil {
			return err
		}
		defer bunDB.Close()
		t.bun, t.store = bunDB, db.New(bunDB)
	case "sqlite":
		bunDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer bunDB.Close()
		t.bun, t.store = bunDB, db.New(bunDB)
	case "mongo":
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		defer mongoClient.Disconnect(context.Background())
		t.mongo = mongostore.NewStore(mongoClient.Database(cfg.MongoDatabase))
		t.store = t.mongo
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", cfg.Driver)
	}
	return fn(t)
}

type eventCreator interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	CreateEvent(ctx context.Context, req models.CreateEventRequest) (string, error)
	DeleteEvent(ctx context.Context, id string) (int64, error)
}

func seed(ctx context.Context, svc eventCreator, today models.Date, reset bool) (int, error) {
	if reset {
		existing, err := svc.ListEvents(ctx)
		if err != nil {
			return 0, err
		}
		for _, ev := range existing {
			if _, err := svc.DeleteEvent(ctx, ev.ID); err != nil {
				return 0, err
			}
		}
	}

	bookings := sampleBookings(today)
	for i, req := range bookings {
		if _, err := svc.CreateEvent(ctx, req); err != nil {
			return i, fmt.Errorf("failed to seed %q: %w", req.Title, err)
		}
	}
	return len(bookings), nil
}

// sampleBookings covers every status, a booking today and one tomorrow with an email.
func sampleBookings(today models.Date) []models.CreateEventRequest {
	return []models.CreateEventRequest{
		{Title: "Wedding Shoot", Date: today, Status: models.StatusConfirmed, CustomerName: "Asha Rao", CustomerPhone: "+91 98450 11223", Location: "Lakeview Palace"},
		{Title: "Engagement Session", Date: today.AddDays(1), Status: models.StatusConfirmed, CustomerName: "Ravi Kumar", CustomerEmail: "ravi@example.com", Location: "Cubbon Park"},
		{Title: "Baby Portraits", Date: today.AddDays(1), Status: models.StatusPending, CustomerName: "Meera Iyer"},
		{Title: "Product Launch", Date: today.AddDays(7), Status: models.StatusPending, CustomerName: "Nila Studios", CustomerEmail: "events@nila.example.com"},
		{Title: "Birthday Party", Date: today.AddDays(-3), Status: models.StatusCompleted, CustomerName: "Karthik S", Location: "Indiranagar"},
		{Title: "Corporate Headshots", Date: today.AddDays(12), Status: models.StatusCancelled, CustomerName: "Acme Corp"},
	}
}
