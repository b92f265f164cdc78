package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppHost  string
	HTTPPort string
	AppEnv   string
	LogLevel string

	// Discord surface.
	BotToken string
	AppID    string
	GuildID  string

	// AdminIDs is the allowlist of Discord user ids permitted to run
	// administrative commands.
	AdminIDs []string

	// StaffRoleNames are matched case-insensitively as substrings against
	// guild role names when granting staff access to ticket channels.
	StaffRoleNames []string

	// JWTSecret signs session tokens; WebhookSecret authenticates the
	// package-selection callback from the website.
	JWTSecret     string
	WebhookSecret string

	// WebsiteURL is the base URL of the external package-selection page.
	WebsiteURL string

	// KafkaBrokers and KafkaTopicTicket enable best-effort publishing of
	// ticket lifecycle events when both are set.
	KafkaBrokers     []string
	KafkaTopicTicket string

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		AppHost:          getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:         firstEnv("APP_PORT", "HTTP_PORT", "3001"),
		AppEnv:           getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		BotToken:         getEnv("DISCORD_BOT_TOKEN", ""),
		AppID:            getEnv("CLIENT_ID", ""),
		GuildID:          getEnv("GUILD_ID", ""),
		AdminIDs:         splitList(getEnv("ADMIN_IDS", "")),
		StaffRoleNames:   splitList(getEnv("STAFF_ROLE_NAMES", "Staff,Admin,Moderator,Event Manager")),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		WebhookSecret:    getEnv("WEBHOOK_SECRET", ""),
		WebsiteURL:       strings.TrimRight(getEnv("WEBSITE_URL", ""), "/"),
		KafkaBrokers:     splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopicTicket: getEnv("KAFKA_TOPIC_TICKET", ""),
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "ticketbot")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return errors.New("config: DISCORD_BOT_TOKEN is required")
	}
	if c.AppID == "" || c.GuildID == "" {
		return errors.New("config: CLIENT_ID and GUILD_ID are required")
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.WebhookSecret == "" {
		return errors.New("config: WEBHOOK_SECRET is required")
	}
	if c.WebsiteURL == "" {
		return errors.New("config: WEBSITE_URL is required")
	}
	if c.DB.Host == "" || c.DB.Database == "" {
		return errors.New("config: DB_HOST and DB_DATABASE are required")
	}
	if c.AppEnv == "production" && c.DB.Password == "" {
		return errors.New("config: in production DB_PASSWORD is required")
	}
	return nil
}

// IsAdmin reports whether userID is on the admin allowlist.
func (c *Config) IsAdmin(userID string) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func splitList(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
