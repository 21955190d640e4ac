package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownReportFormat = errors.New("unknown report format")
	ErrUnknownLogFormat    = errors.New("unknown log format")
	ErrUnknownKey          = errors.New("unknown config key")
)

// ReportFormats lists the accepted values for report_format.
var ReportFormats = []string{"table", "markdown", "yaml", "json"}

// Global configuration structure.
type Global struct {
	EntryPath string `mapstructure:"entry_path" yaml:"entry_path"`
	BBoxPath  string `mapstructure:"bbox_path" yaml:"bbox_path"`
	// OutputDir, when empty, means <runs_dir>/<run-id>.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	RunsDir   string `mapstructure:"runs_dir" yaml:"runs_dir"`

	// Source reading
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	Sheet     string `mapstructure:"sheet" yaml:"sheet"`

	ExtraGarbageLabels []string `mapstructure:"extra_garbage_labels" yaml:"extra_garbage_labels"`

	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat    string `mapstructure:"log_format" yaml:"log_format"`
	ReportFormat string `mapstructure:"report_format" yaml:"report_format"`
}

// Default returns the built-in configuration used when no file is present.
func Default() *Global {
	return &Global{
		EntryPath:    "Data_Entry.csv",
		BBoxPath:     "BBox_List.csv",
		LogLevel:     "info",
		LogFormat:    "console",
		ReportFormat: "table",
	}
}

// Validate checks enumerated values.
func (c *Global) Validate() error {
	if err := CheckReportFormat(c.ReportFormat); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: %s (use console or json)", ErrUnknownLogFormat, c.LogFormat)
	}
	return nil
}

// CheckReportFormat reports whether f is one of ReportFormats.
func CheckReportFormat(f string) error {
	for _, v := range ReportFormats {
		if strings.EqualFold(f, v) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s (use %s)", ErrUnknownReportFormat, f, strings.Join(ReportFormats, ", "))
}

// Set assigns one key from its textual value. List values are comma-separated.
func (c *Global) Set(key, val string) error {
	switch key {
	case "entry_path":
		c.EntryPath = val
	case "bbox_path":
		c.BBoxPath = val
	case "output_dir":
		c.OutputDir = val
	case "runs_dir":
		c.RunsDir = val
	case "delimiter":
		c.Delimiter = val
	case "sheet":
		c.Sheet = val
	case "extra_garbage_labels":
		c.ExtraGarbageLabels = nil
		for _, p := range strings.Split(val, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.ExtraGarbageLabels = append(c.ExtraGarbageLabels, p)
			}
		}
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_format":
		c.LogFormat = strings.ToLower(val)
	case "report_format":
		if err := CheckReportFormat(val); err != nil {
			return err
		}
		c.ReportFormat = strings.ToLower(val)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return c.Validate()
}

// Dir returns ~/.medclean.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".medclean"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.medclean/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("MEDCLEAN")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("entry_path", d.EntryPath)
	v.SetDefault("bbox_path", d.BBoxPath)
	v.SetDefault("output_dir", "")
	v.SetDefault("runs_dir", "")
	v.SetDefault("delimiter", "")
	v.SetDefault("sheet", "")
	v.SetDefault("extra_garbage_labels", []string{})
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("report_format", d.ReportFormat)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve runs_dir default: ~/.medclean/runs
	if c.RunsDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.RunsDir = filepath.Join(dir, "runs")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
