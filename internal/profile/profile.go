package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// Telegram bot configuration
	BotToken       string   // Telegram bot token
	WebhookSecret  string   // Path secret appended to the webhook URL
	AllowedUserIDs []string // Telegram user IDs allowed to talk to the bot

	// Admin panel configuration
	PanelBaseURL      string // Base URL of the admin panel, used in bot replies
	AdminPasswordHash string // bcrypt hash of the admin panel password
	Secret            string // Secret for signing admin API tokens

	// Server configuration
	Mode    string
	Addr    string
	Data    string
	DSN     string
	Driver  string
	Version string
	Port    int
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsBotEnabled returns true if a Telegram bot token is configured.
func (p *Profile) IsBotEnabled() bool {
	return p.BotToken != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.BotToken = getEnvOrDefault("TIREBOT_TELEGRAM_TOKEN", "")
	p.WebhookSecret = getEnvOrDefault("TIREBOT_WEBHOOK_SECRET", "")
	p.PanelBaseURL = strings.TrimRight(getEnvOrDefault("TIREBOT_PANEL_BASE_URL", ""), "/")
	p.AdminPasswordHash = getEnvOrDefault("TIREBOT_ADMIN_PASSWORD_HASH", "")
	p.Secret = getEnvOrDefault("TIREBOT_SECRET", "")

	// Comma-separated list of Telegram user IDs allowed to use the bot.
	// An empty list means the bot answers nobody; this is intentional for a
	// single-company warehouse bot.
	p.AllowedUserIDs = p.AllowedUserIDs[:0]
	for _, id := range strings.Split(getEnvOrDefault("TIREBOT_ALLOWED_USERS", ""), ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			p.AllowedUserIDs = append(p.AllowedUserIDs, id)
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies.
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver %q", p.Driver)
	}

	if p.Mode == "prod" && p.Data == "" {
		p.Data = "/var/opt/tirebot"
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("tirebot_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a DSN")
	}

	return nil
}
