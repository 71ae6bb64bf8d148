package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIKey      string
	BaseURL     string
	Percent     float64
	BatchSize   int
	BatchDelay  time.Duration
	DBPath      string
	DatabaseURL string
	AuditDir    string
	Web         WebConfig
	Scheduler   SchedulerConfig
	Archive     ArchiveConfig
	Profiles    map[string]*PMSProfile
}

type WebConfig struct {
	Addr     string
	Password string
}

type SchedulerConfig struct {
	Cron      string
	Interval  time.Duration
	Direction string
	DryRun    bool
}

type ArchiveConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	Interval        time.Duration
}

// PMSProfile carries per-PMS defaults applied when the API omits a
// field on an override.
type PMSProfile struct {
	ID             string `yaml:"id"`
	Name           string `yaml:"name"`
	Currency       string `yaml:"currency"`
	MinStay        int    `yaml:"min_stay"`
	UpdateChildren bool   `yaml:"update_children"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIKey:      os.Getenv("PRICELABS_API_KEY"),
		BaseURL:     getEnv("API_BASE_URL", "https://api.pricelabs.co/v1"),
		Percent:     getEnvFloat("ADJUSTMENT_PERCENTAGE", 5),
		BatchSize:   getEnvInt("BATCH_SIZE", 20),
		BatchDelay:  getEnvDuration("BATCH_DELAY", 2*time.Second),
		DBPath:      getEnv("DB_PATH", "adjuster.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AuditDir:    getEnv("AUDIT_DIR", "logs"),
		Web: WebConfig{
			Addr:     getEnv("WEB_ADDR", ":5001"),
			Password: os.Getenv("ADJUST_WEB_PASSWORD"),
		},
		Scheduler: SchedulerConfig{
			Cron:      os.Getenv("ADJUST_CRON"),
			Interval:  getEnvDuration("ADJUST_INTERVAL", 0),
			Direction: getEnv("ADJUST_CRON_DIRECTION", "increase"),
			DryRun:    os.Getenv("ADJUST_CRON_DRY_RUN") == "true",
		},
		Archive: ArchiveConfig{
			Bucket:          os.Getenv("ARCHIVE_S3_BUCKET"),
			Region:          getEnv("ARCHIVE_S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("ARCHIVE_S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("ARCHIVE_S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("ARCHIVE_S3_SECRET_ACCESS_KEY"),
			Prefix:          getEnv("ARCHIVE_S3_PREFIX", "audit"),
			Interval:        getEnvDuration("ARCHIVE_INTERVAL", 30*time.Minute),
		},
		Profiles: make(map[string]*PMSProfile),
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("PRICELABS_API_KEY environment variable is required")
	}

	if err := cfg.loadProfiles(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Profile returns the profile for a PMS, or a zero-value profile so
// callers never nil-check.
func (c *Config) Profile(pms string) *PMSProfile {
	if p, ok := c.Profiles[pms]; ok {
		return p
	}
	return &PMSProfile{ID: pms}
}

func (c *Config) loadProfiles() error {
	profileDir := "config/pms"
	entries, err := os.ReadDir(profileDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(profileDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var profile PMSProfile
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		c.Profiles[profile.ID] = &profile
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
