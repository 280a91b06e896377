package platform

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/quill/pkg/adapters/fs"
)

// DefaultSystemDir is the hidden directory holding lock files.
const DefaultSystemDir = fs.DefaultSystemDir

// Config is the content of quill.yaml. Environment variables override the file.
type Config struct {
	Root      string    `yaml:"root,omitempty" env:"QUILL_ROOT"`
	ReadOnly  bool      `yaml:"read_only" env:"QUILL_READ_ONLY"`
	Locks     bool      `yaml:"locks" env:"QUILL_LOCKS"`
	SystemDir string    `yaml:"system_dir" env:"QUILL_SYSTEM_DIR" env-default:".quill"`
	Log       LogConfig `yaml:"log"`

	// LockStaleAfter expires lock files of writers that hang. Zero keeps a
	// lock until its owner exits.
	LockStaleAfter time.Duration `yaml:"lock_stale_after,omitempty" env:"QUILL_LOCK_STALE_AFTER"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" env:"QUILL_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"QUILL_LOG_FORMAT" env-default:"text"` // text or json
}

// DefaultConfig returns the configuration written by Init.
func DefaultConfig() Config {
	return Config{
		Locks:     true,
		SystemDir: DefaultSystemDir,
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig reads the quill.yaml at path, if any, and applies the environment on top.
// Fields missing from both keep their DefaultConfig value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
			}
			return cfg, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to stat config %s: %w", path, err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return cfg, nil
}

// Options maps the configuration onto store options.
func (c Config) Options() []Option {
	opts := []Option{
		WithReadOnly(c.ReadOnly),
		WithEntityLocks(c.Locks),
		WithLockStaleAfter(c.LockStaleAfter),
	}
	if c.SystemDir != "" {
		opts = append(opts, WithSystemDir(c.SystemDir))
	}
	return opts
}

// writeMarker writes cfg as the quill.yaml of root unless one already exists.
func writeMarker(root string, cfg Config) error {
	path := MarkerPath(root)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	cfg.Root = ""
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", MarkerFile, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", MarkerFile, err)
	}
	return nil
}
