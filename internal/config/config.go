package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Email    EmailConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Database DatabaseConfig
	Reminder ReminderConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port          string
	PublicBaseURL string
	// EventsAPIURL points the admin page at a remote Events API instead of the in-process service.
	EventsAPIURL  string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
}

type RedisConfig struct {
	Addr     string
	Enabled  bool
	CacheTTL time.Duration
	LockTTL  time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Enabled bool
	Topics  TopicConfig
	// AuditGroup starts a change-log consumer under this group id when set.
	AuditGroup string
}

type TopicConfig struct {
	EventCreated string
	EventUpdated string
	EventDeleted string
	RemindersRun string
}

// DatabaseConfig selects the event store. Driver is one of postgres, sqlite or mongo.
type DatabaseConfig struct {
	Driver        string
	PostgresDSN   string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string
	MaxOpenConns  int
	MaxIdleConns  int
	MaxLifetime   time.Duration
	AutoMigrate   bool
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromName     string
}

type ReminderConfig struct {
	// Cron enables the in-process trigger when non-empty, e.g. "0 9 * * *".
	Cron     string
	Timezone string
}

type LogConfig struct {
	Dir   string
	Level string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", ":8080"),
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
			EventsAPIURL:  strings.TrimRight(getEnv("EVENTS_API_URL", ""), "/"),
			ReadTimeout:   15 * time.Second,
			WriteTimeout:  15 * time.Second,
			IdleTimeout:   60 * time.Second,
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", getEnv("EMAIL_USER", "")),
			SMTPPassword: getEnv("SMTP_PASSWORD", getEnv("EMAIL_PASS", "")),
			FromName:     getEnv("EMAIL_FROM_NAME", "Kalakruthi Photography"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			CacheTTL: time.Duration(getEnvInt("CACHE_TTL_SECONDS", 60)) * time.Second,
			LockTTL:  time.Duration(getEnvInt("REMINDER_LOCK_TTL_SECONDS", 300)) * time.Second,
		},
		Database: DatabaseConfig{
			Driver:        strings.ToLower(getEnv("STORE_DRIVER", "sqlite")),
			PostgresDSN:   getEnv("POSTGRES_DSN", ""),
			SQLitePath:    getEnv("SQLITE_PATH", "file:calendar.db?cache=shared"),
			MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase: getEnv("MONGO_DATABASE", "kalakruthi"),
			MaxOpenConns:  getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:   time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			AutoMigrate:   getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Enabled:    getEnvBool("KAFKA_ENABLED", false),
			AuditGroup: getEnv("KAFKA_AUDIT_GROUP", ""),
			Topics: TopicConfig{
				EventCreated: getEnv("KAFKA_TOPIC_EVENT_CREATED", "calendar.events.created"),
				EventUpdated: getEnv("KAFKA_TOPIC_EVENT_UPDATED", "calendar.events.updated"),
				EventDeleted: getEnv("KAFKA_TOPIC_EVENT_DELETED", "calendar.events.deleted"),
				RemindersRun: getEnv("KAFKA_TOPIC_REMINDERS", "calendar.reminders.sent"),
			},
		},
		Reminder: ReminderConfig{
			Cron:     getEnv("REMINDER_CRON", ""),
			Timezone: getEnv("REMINDER_TIMEZONE", "UTC"),
		},
		Log: LogConfig{
			Dir:   getEnv("LOG_DIR", "logs"),
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
	}
}

// Location resolves the reminder timezone, falling back to UTC.
func (c ReminderConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Changes returns the event change topics.
func (t TopicConfig) Changes() []string {
	return []string{t.EventCreated, t.EventUpdated, t.EventDeleted}
}

// All returns every configured topic, for topic provisioning.
func (t TopicConfig) All() []string {
	return []string{t.EventCreated, t.EventUpdated, t.EventDeleted, t.RemindersRun}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
