package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Debug     bool      `yaml:"debug"`
	Limiter   Limiter   `yaml:"limiter"`
	Server    Server    `yaml:"server"`
	Session   Session   `yaml:"session"`
	UserStore UserStore `yaml:"user_store"`
	Notion    Notion    `yaml:"notion"`
	TMDB      TMDB      `yaml:"tmdb"`
}

type Limiter struct {
	Enabled bool    `yaml:"enabled"`
	Rps     float64 `yaml:"rps" env-default:"20"`
	Burst   int     `yaml:"burst" env-default:"5"`
}

type Server struct {
	Port string `yaml:"port" env-default:"8000"`
	Host string `yaml:"host" env-default:"localhost"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

type Session struct {
	Secret string        `yaml:"secret" env:"SESSION_SECRET" env-required:"true"`
	TTL    time.Duration `yaml:"ttl" env-default:"24h"`
}

const (
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
)

type UserStore struct {
	Backend string   `yaml:"backend" env-default:"sheets"`
	Sheets  Sheets   `yaml:"sheets"`
	DB      Postgres `yaml:"db"`
}

type Sheets struct {
	BaseURL       string        `yaml:"base_url" env-default:"https://sheets.googleapis.com"`
	SpreadsheetID string        `yaml:"spreadsheet_id" env:"SHEETS_SPREADSHEET_ID"`
	Sheet         string        `yaml:"sheet" env-default:"UserCredentials"`
	Token         string        `yaml:"token" env:"SHEETS_TOKEN"`
	Timeout       time.Duration `yaml:"timeout" env-default:"10s"`
}

type Postgres struct {
	Dsn             string        `yaml:"dsn" env:"USERSTORE_DSN"`
	MaxConns        int           `yaml:"max_conns" env-default:"25"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env-default:"10m"`
}

type Notion struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

type TMDB struct {
	BaseURL      string        `yaml:"base_url"`
	ImageBaseURL string        `yaml:"image_base_url"`
	Language     string        `yaml:"language" env-default:"pt-BR"`
	Timeout      time.Duration `yaml:"timeout" env-default:"10s"`
}

func MustLoad(configPath string) *Config {
	var cfg Config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic(fmt.Errorf("config file %s not found", configPath))
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic(err)
	}
	// The selected user store must be fully configured at startup.
	switch cfg.UserStore.Backend {
	case BackendSheets:
		if cfg.UserStore.Sheets.SpreadsheetID == "" || cfg.UserStore.Sheets.Token == "" {
			panic(fmt.Errorf("user store %q requires spreadsheet_id and token", cfg.UserStore.Backend))
		}
	case BackendPostgres:
		if cfg.UserStore.DB.Dsn == "" {
			panic(fmt.Errorf("user store %q requires a dsn", cfg.UserStore.Backend))
		}
	default:
		panic(fmt.Errorf("unknown user store backend %q", cfg.UserStore.Backend))
	}
	return &cfg
}
