package harvest

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every knob of a harvest run. All fields have defaults; the
// environment variable names match the original collection pipeline so
// existing deployments keep working.
type Config struct {
	// Session.
	MSToken     string `yaml:"ms_token"`
	Browser     string `yaml:"browser"` // browser binary override, "" = bundled
	Headless    bool   `yaml:"headless"`
	Proxy       string `yaml:"proxy"`
	CookiesPath string `yaml:"cookies_path"`

	// Outputs.
	DownloadDir string `yaml:"download_dir"`
	CSVPath     string `yaml:"csv_path"`
	JSONLPath   string `yaml:"jsonl_path"`

	// Paging.
	TargetCount int `yaml:"target_count"`
	PageSize    int `yaml:"page_size"`
	MaxLoops    int `yaml:"max_loops"` // outer safety valve, not an error condition

	// Backoff / stability.
	ResetSessionAfterErrors int           `yaml:"reset_session_after_errors"`
	BackoffBase             time.Duration `yaml:"backoff_base"`
	BackoffMax              time.Duration `yaml:"backoff_max"`
	BackoffJitter           time.Duration `yaml:"backoff_jitter"`

	// Enrichment.
	PopularSoundMinUses int `yaml:"popular_sound_min_uses"`

	// Logging.
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Headless:                true,
		DownloadDir:             "downloads",
		CSVPath:                 "tiktok_trending_dataset.csv",
		JSONLPath:               "tiktok_trending_dataset.jsonl",
		TargetCount:             1000,
		PageSize:                20, // small pages trigger throttling far less often
		MaxLoops:                999999,
		ResetSessionAfterErrors: 3,
		BackoffBase:             2 * time.Second,
		BackoffMax:              30 * time.Second,
		BackoffJitter:           800 * time.Millisecond,
		PopularSoundMinUses:     1000,
		LogLevel:                "info",
	}
}

// LoadFile overlays values from a YAML config file.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// LoadEnv overlays values from the environment. Unset or malformed values
// leave the current value in place.
func (c *Config) LoadEnv() {
	envStr(&c.MSToken, "ms_token")
	envStr(&c.Browser, "TIKTOK_BROWSER")
	envBool(&c.Headless, "HEADLESS")
	envStr(&c.Proxy, "PROXY")
	envStr(&c.CookiesPath, "COOKIES_PATH")

	envStr(&c.DownloadDir, "DOWNLOAD_DIR")
	envStr(&c.CSVPath, "DATA_CSV_PATH")
	envStr(&c.JSONLPath, "DATA_JSONL")

	envInt(&c.TargetCount, "COUNT")
	envInt(&c.PageSize, "PAGE_SIZE")
	envInt(&c.MaxLoops, "MAX_LOOPS")

	envInt(&c.ResetSessionAfterErrors, "RESET_SESSION_AFTER_ERRORS")
	envSeconds(&c.BackoffBase, "BACKOFF_BASE_SEC")
	envSeconds(&c.BackoffMax, "BACKOFF_MAX_SEC")
	envSeconds(&c.BackoffJitter, "JITTER_SEC")

	envInt(&c.PopularSoundMinUses, "POPULAR_SOUND_MIN_USES")
	envStr(&c.LogLevel, "LOG_LEVEL")
}

// Validate rejects configurations the loop cannot run with.
func (c *Config) Validate() error {
	if c.TargetCount <= 0 {
		return fmt.Errorf("config: target count must be positive, got %d", c.TargetCount)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("config: page size must be positive, got %d", c.PageSize)
	}
	if c.MaxLoops <= 0 {
		return fmt.Errorf("config: max loops must be positive, got %d", c.MaxLoops)
	}
	if c.ResetSessionAfterErrors <= 0 {
		return fmt.Errorf("config: reset threshold must be positive, got %d", c.ResetSessionAfterErrors)
	}
	if c.BackoffBase <= 0 || c.BackoffMax < c.BackoffBase {
		return fmt.Errorf("config: backoff base/max invalid (%v/%v)", c.BackoffBase, c.BackoffMax)
	}
	return nil
}

func envStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes":
			*dst = true
		default:
			*dst = false
		}
	}
}

func envSeconds(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			*dst = time.Duration(f * float64(time.Second))
		}
	}
}
