package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "neurocal/internal/platform/errors"
)

// Failure policies for the final report.
const (
	OnFailureLog   = "log"
	OnFailureAlert = "alert"
)

// Unload policies.
const (
	UnloadNotify        = "notify"
	UnloadConfirm       = "confirm"
	UnloadNotifyConfirm = "notify+confirm"
)

// FocusPollInterval is the cadence of the focus monitor preset.
const FocusPollInterval = 500 * time.Millisecond

type Collection struct {
	Begin bool `yaml:"begin"`
	Stop  bool `yaml:"stop"`
}

type CogloadConfig struct {
	PlanFile         string     `yaml:"plan_file"`
	Clips            int        `yaml:"clips"`
	ClipSeconds      int        `yaml:"clip_seconds"`
	CountdownSeconds int        `yaml:"countdown_seconds"`
	GapSeconds       int        `yaml:"gap_seconds"`
	Answers          []string   `yaml:"answers"`
	Unload           string     `yaml:"unload"`
	ReportOnFailure  string     `yaml:"report_on_failure"`
	Collection       Collection `yaml:"collection"`
}

type FocusConfig struct {
	PlanFile         string        `yaml:"plan_file"`
	CountdownSeconds int           `yaml:"countdown_seconds"`
	FocusSeconds     int           `yaml:"focus_seconds"`
	UnfocusSeconds   int           `yaml:"unfocus_seconds"`
	TargetEvery      time.Duration `yaml:"target_every"`
	Unload           string        `yaml:"unload"`
	ReportOnFailure  string        `yaml:"report_on_failure"`
	Collection       Collection    `yaml:"collection"`
}

type MonitorConfig struct {
	Metric         string        `yaml:"metric"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	RenderInterval time.Duration `yaml:"render_interval"`
	BaseRate       float64       `yaml:"base_rate"`
}

type ServeConfig struct {
	Addr      string `yaml:"addr"`
	VideosDir string `yaml:"videos_dir"`
	DBPath    string `yaml:"db_path"`
	Seed      int64  `yaml:"seed"`
}

// Config covers process level configuration: defaults, then the YAML file,
// then NEUROCAL_* environment variables. Flags are applied by the caller.
type Config struct {
	Environment    string        `yaml:"environment"`
	BackendURL     string        `yaml:"backend_url"`
	LogFile        string        `yaml:"log_file"`
	HTTPTimeout    time.Duration `yaml:"http_timeout"`
	LaunchStimulus bool          `yaml:"launch_stimulus"`
	// ArchiveDir holds finished run notes. Empty disables the archive.
	ArchiveDir string `yaml:"archive_dir"`

	Cogload CogloadConfig `yaml:"cogload"`
	Focus   FocusConfig   `yaml:"focus"`
	Monitor MonitorConfig `yaml:"monitor"`
	Serve   ServeConfig   `yaml:"serve"`
}

func Default() Config {
	return Config{
		Environment: "production",
		BackendURL:  "http://localhost:8080",
		LogFile:     filepath.Join(".neurocal", "neurocal.log"),
		HTTPTimeout: 10 * time.Second,
		ArchiveDir:  filepath.Join(".neurocal", "runs"),
		Cogload: CogloadConfig{
			Clips:            3,
			ClipSeconds:      30,
			CountdownSeconds: 3,
			GapSeconds:       2,
			Answers:          []string{"stay", "faster", "slower", "explain"},
			Unload:           UnloadConfirm,
			ReportOnFailure:  OnFailureLog,
		},
		Focus: FocusConfig{
			CountdownSeconds: 3,
			FocusSeconds:     40,
			UnfocusSeconds:   40,
			TargetEvery:      2 * time.Second,
			Unload:           UnloadNotifyConfirm,
			ReportOnFailure:  OnFailureAlert,
			Collection:       Collection{Begin: true, Stop: true},
		},
		Monitor: MonitorConfig{
			Metric:         "cogload",
			PollInterval:   2 * time.Second,
			RenderInterval: 100 * time.Millisecond,
			BaseRate:       1,
		},
		Serve: ServeConfig{
			Addr:      ":8080",
			VideosDir: filepath.Join("static", "videos"),
			DBPath:    filepath.Join(".neurocal", "backend.db"),
			Seed:      1,
		},
	}
}

// Load resolves configuration. An empty path skips the YAML file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: decode config %s: %v", apperrors.ErrInvalidInput, path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.SelectMetric(cfg.Monitor.Metric)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SelectMetric switches the monitor metric. Focus left on the default poll
// interval gets the focus preset.
func (c *Config) SelectMetric(metric string) {
	c.Monitor.Metric = metric
	if metric == "focus" && c.Monitor.PollInterval == Default().Monitor.PollInterval {
		c.Monitor.PollInterval = FocusPollInterval
	}
}

// LoadDotEnv loads .env from the working directory when present.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BackendURL) == "" {
		return fmt.Errorf("%w: backend url is required", apperrors.ErrInvalidInput)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%w: http timeout must be positive", apperrors.ErrInvalidInput)
	}
	for name, policy := range map[string]string{"cogload": c.Cogload.Unload, "focus": c.Focus.Unload} {
		switch policy {
		case UnloadNotify, UnloadConfirm, UnloadNotifyConfirm:
		default:
			return fmt.Errorf("%w: %s unload policy %q", apperrors.ErrInvalidInput, name, policy)
		}
	}
	for name, policy := range map[string]string{"cogload": c.Cogload.ReportOnFailure, "focus": c.Focus.ReportOnFailure} {
		if policy != OnFailureLog && policy != OnFailureAlert {
			return fmt.Errorf("%w: %s report_on_failure %q", apperrors.ErrInvalidInput, name, policy)
		}
	}
	if c.Monitor.Metric != "focus" && c.Monitor.Metric != "cogload" {
		return fmt.Errorf("%w: monitor metric must be focus or cogload, got %q", apperrors.ErrInvalidInput, c.Monitor.Metric)
	}
	if c.Monitor.PollInterval <= 0 || c.Monitor.RenderInterval <= 0 {
		return fmt.Errorf("%w: monitor intervals must be positive", apperrors.ErrInvalidInput)
	}
	if c.Monitor.RenderInterval > c.Monitor.PollInterval {
		return fmt.Errorf("%w: render interval must not exceed poll interval", apperrors.ErrInvalidInput)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Environment = envStr("NEUROCAL_ENV", cfg.Environment)
	cfg.BackendURL = envStr("NEUROCAL_BACKEND_URL", cfg.BackendURL)
	cfg.LogFile = envStr("NEUROCAL_LOG_FILE", cfg.LogFile)
	cfg.ArchiveDir = envStr("NEUROCAL_ARCHIVE_DIR", cfg.ArchiveDir)
	cfg.Serve.Addr = envStr("NEUROCAL_SERVE_ADDR", cfg.Serve.Addr)
	cfg.Serve.VideosDir = envStr("NEUROCAL_VIDEOS_DIR", cfg.Serve.VideosDir)
	cfg.Serve.DBPath = envStr("NEUROCAL_DB_PATH", cfg.Serve.DBPath)
	cfg.Monitor.Metric = envStr("NEUROCAL_MONITOR_METRIC", cfg.Monitor.Metric)

	var err error
	if cfg.HTTPTimeout, err = envDuration("NEUROCAL_HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return err
	}
	if cfg.Monitor.PollInterval, err = envDuration("NEUROCAL_POLL_INTERVAL", cfg.Monitor.PollInterval); err != nil {
		return err
	}
	if cfg.Monitor.RenderInterval, err = envDuration("NEUROCAL_RENDER_INTERVAL", cfg.Monitor.RenderInterval); err != nil {
		return err
	}
	if cfg.LaunchStimulus, err = envBool("NEUROCAL_LAUNCH_STIMULUS", cfg.LaunchStimulus); err != nil {
		return err
	}
	return nil
}

func envStr(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", apperrors.ErrInvalidInput, key, err)
	}
	return d, nil
}

func envBool(key string, fallback bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", apperrors.ErrInvalidInput, key, err)
	}
	return b, nil
}
