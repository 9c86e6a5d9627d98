package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"docbind/internal/schema"
)

// EnvConfig names the configuration file when --config is not given.
const EnvConfig = "DOCBIND_CONFIG"

// DefaultFile is read when neither --config nor EnvConfig is set. Its
// absence is not an error.
const DefaultFile = "docbind.yaml"

// Environment overrides applied after the file is read.
const (
	EnvDatabase = "DOCBIND_DATABASE"
	EnvCatalog  = "DOCBIND_CATALOG"
	EnvLogLevel = "DOCBIND_LOG_LEVEL"
)

// Config is the docbind configuration file.
type Config struct {
	// Database is the SQLite file holding templates.
	Database string `yaml:"database" validate:"required"`
	// Catalog is the YAML model catalog used for introspection.
	Catalog string `yaml:"catalog" validate:"required"`
	// Packages are Go package patterns. When set, models are the exported
	// structs of these packages instead of catalog entries.
	Packages       []string  `yaml:"packages,omitempty" validate:"dive,required"`
	MaxDepth       int       `yaml:"max_depth" validate:"gte=0,lte=5"`
	IncludeRelated bool      `yaml:"include_related"`
	Extensions     []string  `yaml:"extensions" validate:"min=1,dive,startswith=."`
	Log            LogConfig `yaml:"log"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns the configuration used for absent keys.
func Default() Config {
	return Config{
		Database:       "docbind.db",
		Catalog:        "models.yaml",
		MaxDepth:       schema.DefaultMaxDepth,
		IncludeRelated: true,
		Extensions:     []string{".docx"},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the configuration from path, or from EnvConfig, or from
// DefaultFile. Relative database and catalog paths are resolved against the
// file's directory. Environment overrides are applied last.
func Load(path string) (Config, error) {
	explicit := path != ""

	if !explicit {
		if env, ok := os.LookupEnv(EnvConfig); ok && env != "" {
			path, explicit = env, true
		} else {
			path = DefaultFile
		}
	}

	cfg := Default()

	data, err := os.ReadFile(path)

	switch {
	case err == nil:
		cfg, err = Parse(data)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}

		cfg.resolve(filepath.Dir(path))
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDatabase); ok && v != "" {
		c.Database = v
	}

	if v, ok := lookup(EnvCatalog); ok && v != "" {
		c.Catalog = v
	}

	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var valErr validator.ValidationErrors
	if errors.As(err, &valErr) {
		var lists []string
		for _, fe := range valErr {
			lists = append(lists, fe.Namespace()+" ("+fe.Tag()+")")
		}

		return fmt.Errorf("invalid config: validation failed on %s", strings.Join(lists, ", "))
	}

	return fmt.Errorf("invalid config: %w", err)
}

func (c *Config) resolve(base string) {
	if c.Database != ":memory:" && !filepath.IsAbs(c.Database) {
		c.Database = filepath.Join(base, c.Database)
	}

	if !filepath.IsAbs(c.Catalog) {
		c.Catalog = filepath.Join(base, c.Catalog)
	}
}

// Depth is the introspection depth, zero when relations are not included.
func (c Config) Depth() int {
	if !c.IncludeRelated {
		return 0
	}

	return c.MaxDepth
}
