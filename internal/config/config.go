// /internal/config/config.go
package config

import (
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

type Config struct {
	DiscordToken      string `env:"DISCORD_TOKEN,required"`
	StoragePath       string `env:"STORAGE_PATH" envDefault:"datastore.json"`
	CatalogBaseURL    string `env:"CATALOG_BASE_URL" envDefault:"https://api.spotmirror.app"`
	CatalogAPIKey     string `env:"CATALOG_API_KEY"`
	PublicStorageURL  string `env:"PUBLIC_STORAGE_URL" envDefault:"https://api.spotmirror.app/storage"`
	RelayWebhookURL   string `env:"RELAY_WEBHOOK_URL"`
	LogFile           string `env:"LOG_FILE"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	InitSlashCommands bool   `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
}

// New parses the process environment into a Config. A missing required
// variable (the bot token) is returned as an error so main can abort
// startup with a non-zero exit.
func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
