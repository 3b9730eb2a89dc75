package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds everything the backend reads from the environment.
// A .env file in the working directory is honored but optional.
type Settings struct {
	Addr       string // listen address, e.g. ":8080"
	APIBaseURL string // how the sync job reaches our own API
	DBPath     string

	SmsURL      string
	SmsLogin    string
	SmsPassword string
	SmsSender   string

	ReferralSiteURL string

	RootToken  string // secret part of the "0:<secret>" bootstrap token
	TasksToken string // shared secret for /tasks endpoints

	SheetsAPIURL  string
	SpreadsheetID string
	SyncInterval  time.Duration

	ItemsPerPage int
}

var (
	once     sync.Once
	settings *Settings
)

// Load reads the environment (and .env, if present) exactly once.
func Load() *Settings {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("config: no .env file, using process environment")
		}
		settings = &Settings{
			Addr:            getEnv("ADDR", ":8080"),
			APIBaseURL:      getEnv("API_BASE_URL", "http://127.0.0.1:8080"),
			DBPath:          getEnv("DB_PATH", "refprog.db"),
			SmsURL:          os.Getenv("SMS_REQUEST_URL"),
			SmsLogin:        os.Getenv("SMS_REQUEST_LOGIN"),
			SmsPassword:     os.Getenv("SMS_REQUEST_PASSWORD"),
			SmsSender:       os.Getenv("SMS_REQUEST_SENDER"),
			ReferralSiteURL: getEnv("REFERRAL_SITE_URL", "https://example.invalid"),
			RootToken:       os.Getenv("ROOT_TOKEN"),
			TasksToken:      os.Getenv("TASKS_TOKEN"),
			SheetsAPIURL:    os.Getenv("SHEETS_API_URL"),
			SpreadsheetID:   os.Getenv("SYNC_SPREADSHEET_ID"),
			SyncInterval:    getEnvDuration("SYNC_INTERVAL", 10*time.Minute),
			ItemsPerPage:    getEnvInt("ITEMS_PER_PAGE", 10),
		}
	})
	return settings
}

// Get returns the loaded settings, loading them on first use.
func Get() *Settings {
	return Load()
}

// SetForTest replaces the settings; tests use it to inject tokens.
func SetForTest(s *Settings) {
	once.Do(func() {})
	settings = s
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
