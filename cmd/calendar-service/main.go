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
	_ "time/tzdata"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"ms-calendar/internal/calendar"
	"ms-calendar/internal/calendar/client"
	"ms-calendar/internal/calendar/web"
	"ms-calendar/internal/config"
	"ms-calendar/internal/database/migrations"
	"ms-calendar/internal/events/db"
	"ms-calendar/internal/events/event_api"
	"ms-calendar/internal/events/mongostore"
	rediswrap "ms-calendar/internal/events/redis"
	"ms-calendar/internal/events/service"
	"ms-calendar/internal/feed"
	"ms-calendar/internal/kafka"
	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
	"ms-calendar/internal/reminder"
	"ms-calendar/internal/sse"
)

const reminderRunTimeout = 5 * time.Minute

// openStore connects the configured event store. The returned func releases it.
func openStore(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (service.EventDBLayer, func(), error) {
	switch cfg.Driver {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, nil, errors.New("POSTGRES_DSN not set")
		}
		bunDB, err := db.OpenPostgres(cfg.PostgresDSN, db.PoolOptions{
			MaxOpenConns: cfg.MaxOpenConns,
			MaxIdleConns: cfg.MaxIdleConns,
			MaxLifetime:  cfg.MaxLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("DATABASE", "✅ PostgreSQL connection successful")
		if cfg.AutoMigrate {
			// the runner is not closed here: closing it would close bunDB as well
			if err := migrations.NewRunner(bunDB, log).MigrateUp(); err != nil {
				bunDB.Close()
				return nil, nil, err
			}
		}
		return db.New(bunDB), func() { bunDB.Close() }, nil

	case "sqlite":
		bunDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store := db.New(bunDB)
		if err := store.Migrate(ctx); err != nil {
			bunDB.Close()
			return nil, nil, err
		}
		log.Info("DATABASE", fmt.Sprintf("✅ SQLite store ready at %s", cfg.SQLitePath))
		return store, func() { bunDB.Close() }, nil

	case "mongo":
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		closeFn := func() { mongoClient.Disconnect(context.Background()) }
		if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
		}
		store := mongostore.NewStore(mongoClient.Database(cfg.MongoDatabase))
		if err := store.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		log.Info("DATABASE", fmt.Sprintf("✅ MongoDB connection successful (database %s)", cfg.MongoDatabase))
		return store, closeFn, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Driver)
	}
}

// connectRedis returns nil when redis is disabled or unreachable; the service
// then runs without the list cache and the reminder run lock.
func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if !cfg.Enabled {
		log.Info("REDIS", "Redis disabled, running without cache and reminder lock")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("REDIS", fmt.Sprintf("Redis connection error, continuing without it: %v", err))
		rdb.Close()
		return nil
	}
	log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Addr))
	return rdb
}

func startAudit(ctx context.Context, cfg config.KafkaConfig, log *logger.Logger) *kafka.Consumer {
	if cfg.AuditGroup == "" {
		return nil
	}
	consumer := kafka.NewConsumer(cfg.Brokers, cfg.Topics.Changes(), cfg.AuditGroup, log)
	go func() {
		err := consumer.Start(ctx, func(change models.EventChange) {
			log.LogEvent(string(change.Action), change.EventID, "change recorded")
		})
		if err != nil {
			log.Error("KAFKA", fmt.Sprintf("Audit consumer stopped: %v", err))
		}
	}()
	log.Info("KAFKA", fmt.Sprintf("Audit consumer started (group %s)", cfg.AuditGroup))
	return consumer
}

// pageAPI is the Events API behind the admin page: the in-process service, or a
// remote deployment when EVENTS_API_URL is set.
func pageAPI(cfg config.ServerConfig, svc *service.EventService, log *logger.Logger) calendar.EventsAPI {
	if cfg.EventsAPIURL == "" {
		return svc
	}
	log.Info("CALENDAR", fmt.Sprintf("Admin calendar uses the Events API at %s", cfg.EventsAPIURL))
	return client.New(cfg.EventsAPIURL, nil)
}

func newRouter(cfg *config.Config, svc *service.EventService, job *reminder.Job, emitter *sse.ChangeEmitter, log *logger.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(log.Middleware)

	event_api.NewHandler(svc, log).RegisterRoutes(r)
	log.Info("ROUTER", "Event routes registered under /events and /api/calendar-events")

	reminder.NewHandler(job, log).RegisterRoutes(r)
	log.Info("ROUTER", "Reminder routes registered under /reminders and /api/calendar-reminder")

	feedHandler := feed.NewHandler(svc, log, cfg.Server.PublicBaseURL, cfg.Email.FromName)
	feedHandler.RegisterRoutes(r)

	sse.NewHandler(emitter, log).RegisterRoutes(r)

	page := web.NewHandler(pageAPI(cfg.Server, svc, log), log, cfg.Reminder.Location(), feed.FeedPath)
	page.StreamURL = sse.StreamPath
	page.RegisterRoutes(r)
	log.Info("ROUTER", "Admin calendar registered at /admin/calendar")
	return r
}

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log := logger.NewLogger(cfg.Log.Dir, "calendar-service")
	defer log.Close()
	log.SetLevel(logger.ParseLevel(cfg.Log.Level))

	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	log.Info("APP", "Starting Calendar Service initialization")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open %s store: %v", cfg.Database.Driver, err))
	}
	defer closeStore()

	emitter := sse.NewChangeEmitter()
	publishers := service.Publishers{emitter}
	svc := service.NewEventService(store, nil, nil, log)
	job := reminder.NewJob(svc, reminder.NewSMTPMailer(cfg.Email), log, cfg.Reminder.Location())

	if redisClient := connectRedis(ctx, cfg.Redis, log); redisClient != nil {
		defer redisClient.Close()
		svc.Cache = rediswrap.NewCache(redisClient, cfg.Redis.CacheTTL, log)
		job.Lock = rediswrap.NewRunLock(redisClient, cfg.Redis.LockTTL)
	}

	if cfg.Kafka.Enabled {
		log.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Kafka.Brokers))
		if err := kafka.EnsureTopicsExist(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topics.All(), log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics, log)
		defer producer.Close()
		publishers = append(publishers, producer)
		job.Publisher = producer

		if consumer := startAudit(ctx, cfg.Kafka, log); consumer != nil {
			defer consumer.Close()
		}
	}

	svc.Publisher = publishers

	var scheduler *cron.Cron
	if cfg.Reminder.Cron != "" {
		scheduler, err = reminder.Schedule(cfg.Reminder.Cron, job, cfg.Reminder.Location(), reminderRunTimeout)
		if err != nil {
			log.Fatal("REMINDER", err.Error())
		}
	}

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      newRouter(cfg, svc, job, emitter, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Calendar Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Calendar Service shutdown complete")
	}
}
