package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"true"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI    string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB     string `env:"MONGO_DB" envDefault:"wanderlist"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret      string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"12h"`
	GoogleClientID string        `env:"GOOGLE_CLIENT_ID"`

	UnsplashKey string  `env:"UNSPLASH_ACCESS_KEY"`
	UnsplashURL string  `env:"UNSPLASH_URL" envDefault:"https://api.unsplash.com/search/photos"`
	PhotoRate   float64 `env:"PHOTO_RATE" envDefault:"1"`

	MapsKey    string `env:"GOOGLE_MAPS_API_KEY"`
	GeocodeURL string `env:"GEOCODE_URL" envDefault:"https://maps.googleapis.com/maps/api/geocode/json"`

	SearchDebounce time.Duration `env:"SEARCH_DEBOUNCE" envDefault:"300ms"`
	SearchLimit    int           `env:"SEARCH_LIMIT" envDefault:"8"`

	TopPicksSize     int    `env:"TOPPICKS_SIZE" envDefault:"5"`
	TopPicksPageSize int    `env:"TOPPICKS_PAGE_SIZE" envDefault:"100"`
	Timezone         string `env:"TIMEZONE" envDefault:"Local"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	UploadDir   string   `env:"UPLOAD_DIR" envDefault:"static"`
	PublicURL   string   `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`

	RateLimit float64 `env:"RATE_LIMIT" envDefault:"5"`
	RateBurst int     `env:"RATE_BURST" envDefault:"10"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	switch c.StoreDriver {
	case "mongo", "memory":
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be mongo or memory, got %q", c.StoreDriver))
	}
	if c.SearchLimit < 5 || c.SearchLimit > 10 {
		errs = append(errs, fmt.Errorf("SEARCH_LIMIT must be between 5 and 10, got %d", c.SearchLimit))
	}
	if c.SearchDebounce <= 0 {
		errs = append(errs, errors.New("SEARCH_DEBOUNCE must be positive"))
	}
	if c.TopPicksSize <= 0 || c.TopPicksPageSize <= 0 {
		errs = append(errs, errors.New("TOPPICKS_SIZE and TOPPICKS_PAGE_SIZE must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Addr is the listen address derived from Port.
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// Location resolves Timezone, used to decide calendar-day freshness.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	return loc, nil
}
