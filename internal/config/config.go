package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"arkeep/internal/model"
)

// Config represents the main configuration for arkeep.
type Config struct {
	Label     string          `toml:"label"` // archive name prefix, usually the host or repo name
	BaseDir   string          `toml:"base_dir"`
	LogDir    string          `toml:"log_dir"`
	Paranoid  bool            `toml:"paranoid"`
	Mode      string          `toml:"mode"` // "per-file" (default) or "metadata"
	Sources   []string        `toml:"sources"`
	Store     StoreConfig     `toml:"store"`
	Journal   JournalConfig   `toml:"journal"`
	Retention RetentionConfig `toml:"retention"`
}

// BackupMode returns the configured mode, defaulting to per-file.
func (c *Config) BackupMode() model.BackupMode {
	if c.Mode == string(model.ModeMetadata) {
		return model.ModeMetadata
	}
	return model.ModePerFile
}

// StoreConfig represents configuration for an archive store backend.
// This uses a tagged union pattern - the Type field determines which other
// fields are relevant.
type StoreConfig struct {
	Type string `toml:"type"` // "memory", "filesystem", "exec", or "s3"
	Name string `toml:"name"`

	// Filesystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// Exec-specific fields (only used when Type == "exec"): the external
	// borg-style tool and the repository it operates on.
	ExecBinary     string `toml:"exec_binary,omitempty"`
	ExecRepository string `toml:"exec_repository,omitempty"`
	PassphraseFile string `toml:"passphrase_file,omitempty"` // plaintext or age-encrypted

	// S3-specific fields (only used when Type == "s3")
	S3Bucket    string `toml:"s3_bucket,omitempty"`
	S3Prefix    string `toml:"s3_prefix,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3AccessKey string `toml:"s3_access_key,omitempty"` // optional; ambient AWS config otherwise
	S3SecretKey string `toml:"s3_secret_key,omitempty"`
}

// JournalConfig represents configuration for the local run journal.
// This uses a tagged union pattern - the Type field determines which other
// fields are relevant.
type JournalConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// RetentionConfig is the declarative retention policy as written in the
// config file. Counts of zero and empty durations disable the rule.
type RetentionConfig struct {
	Hourly  int `toml:"keep_hourly"`
	Daily   int `toml:"keep_daily"`
	Weekly  int `toml:"keep_weekly"`
	Monthly int `toml:"keep_monthly"`
	Yearly  int `toml:"keep_yearly"`

	Within              string `toml:"keep_within"`
	Last                string `toml:"keep_last"`
	FilesModifiedWithin string `toml:"keep_files_modified_within"`
}

// Policy converts the config section into the model policy.
func (r RetentionConfig) Policy() model.RetentionPolicy {
	return model.RetentionPolicy{
		KeepHourly:              r.Hourly,
		KeepDaily:               r.Daily,
		KeepWeekly:              r.Weekly,
		KeepMonthly:             r.Monthly,
		KeepYearly:              r.Yearly,
		KeepWithin:              r.Within,
		KeepLast:                r.Last,
		KeepFilesModifiedWithin: r.FilesModifiedWithin,
	}
}

// NewConfig creates a new Config with the provided values and defaults.
func NewConfig(label, baseDir string) *Config {
	return &Config{
		Label:   label,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Mode:    string(model.ModePerFile),
		Store: StoreConfig{
			Type:   "filesystem",
			FSRoot: filepath.Join(baseDir, "store"),
		},
		Journal: JournalConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "journal"),
		},
		Retention: RetentionConfig{
			Daily:   7,
			Weekly:  4,
			Monthly: 6,
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
