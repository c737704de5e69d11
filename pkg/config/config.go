package config

import (
	"os"
	"strconv"
	"time"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultBrowser    = "chrome"
	DefaultDomainName = "about.me"
	DefaultSchema     = "http"
	DefaultResultsDir = "harness_test_results"
	DefaultSaveDelay  = 4 * time.Second
)

// Settings holds the static harness configuration. Values come from the
// environment with code defaults, same as the service entrypoints.
type Settings struct {
	// Browser selects the launcher profile ("chrome" or "chrome-headless").
	Browser string

	// DomainName is the target domain the session navigates against.
	DomainName string

	// Schema is the URL scheme used for domain-relative navigation.
	Schema string

	// Screenshots enables capturing a screenshot when an ordered step fails.
	Screenshots bool

	// ResultsDir is the base directory for on-disk artifacts (screenshots).
	ResultsDir string

	// SaveDelay is the settle delay applied before polling for pending
	// async requests after a save-style interaction.
	SaveDelay time.Duration

	// WindowX/WindowY position the browser window when non-zero.
	WindowX int
	WindowY int

	// ChromeBin overrides the browser binary (Docker environments).
	ChromeBin string

	// MySQLDSN is the results store DSN. Empty disables persistence.
	MySQLDSN string

	// Port is the dashboard API listen port.
	Port string
}

// Load reads Settings from the environment, falling back to defaults.
func Load() Settings {
	return Settings{
		Browser:     getEnvOrDefault("HARNESS_BROWSER", DefaultBrowser),
		DomainName:  getEnvOrDefault("DOMAIN_NAME", DefaultDomainName),
		Schema:      getEnvOrDefault("HARNESS_SCHEMA", DefaultSchema),
		Screenshots: getEnvBool("HARNESS_SCREENSHOTS", false),
		ResultsDir:  getEnvOrDefault("HARNESS_RESULTS_DIR", DefaultResultsDir),
		SaveDelay:   getEnvDuration("HARNESS_SAVE_DELAY", DefaultSaveDelay),
		WindowX:     getEnvInt("HARNESS_WINDOW_X", 0),
		WindowY:     getEnvInt("HARNESS_WINDOW_Y", 0),
		ChromeBin:   os.Getenv("CHROME_BIN"),
		MySQLDSN:    os.Getenv("MYSQL_DSN"),
		Port:        getEnvOrDefault("PORT", "8080"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
