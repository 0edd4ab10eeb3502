package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"credo_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"credo_password" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"credo" description:"Database name"`

	// Application configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount  int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for fact-check processing"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Fact-check service configuration
	FactCheckURL        string `long:"fact-check-url" env:"FACT_CHECK_URL" default:"http://localhost:9000" description:"Base URL of the external fact-check service"`
	FactCheckAPIKey     string `long:"fact-check-api-key" env:"FACT_CHECK_API_KEY" description:"Bearer token for the fact-check service (optional)"`
	FactCheckMode       string `long:"fact-check-mode" env:"FACT_CHECK_MODE" default:"standard" description:"Default verification mode (standard, thorough, summary)"`
	PollIntervalSeconds int    `long:"poll-interval" env:"POLL_INTERVAL" default:"5" description:"Seconds between job status polls"`
	MaxPollAttempts     int    `long:"max-poll-attempts" env:"MAX_POLL_ATTEMPTS" default:"60" description:"Poll attempts before a job is marked timed out"`

	// Scheduling configuration
	SchedulerInterval   int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Unchecked-article sweep interval in seconds"`
	AggregationSchedule string `long:"aggregation-schedule" env:"AGGREGATION_SCHEDULE" default:"30 2 * * *" description:"Cron schedule for source credibility aggregation"`

	// Optional integrations
	RedisAddr      string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for source credibility caching (optional)"`
	ScoringProfile string `long:"scoring-profile" env:"SCORING_PROFILE" description:"Path to a YAML scoring profile (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Credo/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:              raw.DBHost,
		DBPort:              raw.DBPort,
		DBUser:              raw.DBUser,
		DBPassword:          raw.DBPassword,
		DBName:              raw.DBName,
		Port:                raw.Port,
		WorkerCount:         raw.WorkerCount,
		APIAccessKey:        raw.APIAccessKey,
		FactCheckURL:        raw.FactCheckURL,
		FactCheckAPIKey:     raw.FactCheckAPIKey,
		FactCheckMode:       raw.FactCheckMode,
		PollIntervalSeconds: raw.PollIntervalSeconds,
		MaxPollAttempts:     raw.MaxPollAttempts,
		SchedulerInterval:   raw.SchedulerInterval,
		AggregationSchedule: raw.AggregationSchedule,
		RedisAddr:           raw.RedisAddr,
		ScoringProfile:      raw.ScoringProfile,
		UserAgent:           raw.UserAgent,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set installs a configuration directly, bypassing flag parsing. Intended
// for tests.
func Set(cfg *Cfg) {
	globalCfg = cfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
