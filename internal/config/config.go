package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the process configuration, decoded from the environment.
type Config struct {
	Port      string `env:"CHORELY_PORT,default=8080"`
	DBPath    string `env:"CHORELY_DB_PATH,default=chorely.db"`
	LogLevel  string `env:"CHORELY_LOG_LEVEL,default=info"`
	LogFormat string `env:"CHORELY_LOG_FORMAT,default=text"`

	JWTSecret string        `env:"CHORELY_JWT_SECRET"`
	TokenTTL  time.Duration `env:"CHORELY_TOKEN_TTL,default=168h"`

	// CORSOrigins is a comma separated list of allowed origins.
	CORSOrigins string `env:"CHORELY_CORS_ORIGINS,default=http://localhost:5173"`

	AuthRateLimit float64 `env:"CHORELY_AUTH_RATE_LIMIT,default=0.2"`
	AuthRateBurst int     `env:"CHORELY_AUTH_RATE_BURST,default=10"`

	RejectReasonMin int `env:"CHORELY_REJECT_REASON_MIN,default=3"`

	CatalogPath string `env:"CHORELY_CATALOG_PATH"`

	Catalog Catalog `env:"-"`
}

// Load reads an optional .env file, decodes the environment and loads the
// catalog file if one is configured.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode env: %w", err)
	}

	cfg.Catalog = DefaultCatalog()
	if cfg.CatalogPath != "" {
		cat, err := LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		cfg.Catalog = *cat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("CHORELY_JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("CHORELY_TOKEN_TTL must be positive")
	}
	if c.RejectReasonMin < 0 {
		return errors.New("CHORELY_REJECT_REASON_MIN must be >= 0")
	}
	return c.Catalog.Validate()
}

// Origins splits CORSOrigins into its entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Features toggles optional surfaces of the API.
type Features struct {
	Templates   bool `yaml:"templates" json:"templates"`
	Leaderboard bool `yaml:"leaderboard" json:"leaderboard"`
	Realtime    bool `yaml:"realtime" json:"realtime"`
}

// ChoreTemplate is a suggested chore definition parents can start from.
// Amounts are decimal strings.
type ChoreTemplate struct {
	Title        string `yaml:"title" json:"title"`
	Description  string `yaml:"description" json:"description"`
	RewardKind   string `yaml:"reward_kind" json:"reward_kind"`
	RewardAmount string `yaml:"reward_amount,omitempty" json:"reward_amount,omitempty"`
	RewardMin    string `yaml:"reward_min,omitempty" json:"reward_min,omitempty"`
	RewardMax    string `yaml:"reward_max,omitempty" json:"reward_max,omitempty"`
	Recurring    bool   `yaml:"recurring" json:"recurring"`
	CooldownDays int    `yaml:"cooldown_days" json:"cooldown_days"`
}

// Catalog holds the lookup tables that are swapped per deployment.
type Catalog struct {
	Features  Features        `yaml:"features" json:"features"`
	Templates []ChoreTemplate `yaml:"templates" json:"templates"`
}

func DefaultCatalog() Catalog {
	return Catalog{
		Features: Features{Templates: true, Leaderboard: true, Realtime: true},
		Templates: []ChoreTemplate{
			{Title: "Make bed", RewardKind: "fixed", RewardAmount: "0.50", Recurring: true, CooldownDays: 1},
			{Title: "Feed the pet", RewardKind: "fixed", RewardAmount: "1.00", Recurring: true, CooldownDays: 1},
			{Title: "Take out trash", RewardKind: "fixed", RewardAmount: "1.00", Recurring: true, CooldownDays: 3},
			{Title: "Mow lawn", RewardKind: "fixed", RewardAmount: "10.00", Recurring: true, CooldownDays: 7},
			{Title: "Wash the car", RewardKind: "range", RewardMin: "3.00", RewardMax: "10.00"},
		},
	}
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c Catalog) Validate() error {
	for i, t := range c.Templates {
		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("template %d: title is required", i)
		}
		if t.CooldownDays < 0 {
			return fmt.Errorf("template %q: cooldown_days must be >= 0", t.Title)
		}
		switch t.RewardKind {
		case "fixed":
			amt, err := decimal.NewFromString(t.RewardAmount)
			if err != nil {
				return fmt.Errorf("template %q: reward_amount: %w", t.Title, err)
			}
			if amt.IsNegative() {
				return fmt.Errorf("template %q: reward_amount must be >= 0", t.Title)
			}
		case "range":
			lo, err := decimal.NewFromString(t.RewardMin)
			if err != nil {
				return fmt.Errorf("template %q: reward_min: %w", t.Title, err)
			}
			hi, err := decimal.NewFromString(t.RewardMax)
			if err != nil {
				return fmt.Errorf("template %q: reward_max: %w", t.Title, err)
			}
			if !lo.LessThan(hi) {
				return fmt.Errorf("template %q: reward_min must be less than reward_max", t.Title)
			}
		default:
			return fmt.Errorf("template %q: unknown reward_kind %q", t.Title, t.RewardKind)
		}
	}
	return nil
}
