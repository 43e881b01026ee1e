package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-drawing-fields/internal/fields"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Output formats for one-shot extraction
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultOCRLanguage = "eng"
	DefaultMinText     = 30
	DefaultMinWidth    = 1600

	envPrefix = "MCP_DRAWING"
)

// ErrVersionRequested is returned when --version is on the command line
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the drawing fields server and CLI
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// DrawingDirectory is the sandbox root for every file operation
	DrawingDirectory string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum drawing file size in bytes

	// OCR configuration
	OCR         bool
	OCRLanguage string
	MinText     int // pages with fewer native characters are OCR'd
	MinWidth    int // scans narrower than this are upscaled before OCR

	// One-shot extraction
	Files      []string // drawings named on the command line
	Format     string
	Tokens     bool // dump tokens instead of fields
	ConfigFile string

	// Fields is the field configuration, built-in defaults merged with the
	// "fields" section of the config file
	Fields []fields.Spec
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:             ModeStdio,
		Host:             DefaultHost,
		Port:             DefaultPort,
		DrawingDirectory: currentDir,
		Version:          "1.0.0",
		ServerName:       "mcp-drawing-fields",
		LogLevel:         DefaultLogLevel,
		MaxFileSize:      DefaultMaxFileSize,
		OCRLanguage:      DefaultOCRLanguage,
		MinText:          DefaultMinText,
		MinWidth:         DefaultMinWidth,
		Format:           FormatText,
		Fields:           fields.DefaultSpecs(),
	}
}

// LoadFromFlags parses os.Args and the environment into a configuration
func LoadFromFlags() (*Config, error) {
	return Load(os.Args[1:])
}

// Load parses args, MCP_DRAWING_* environment variables and the optional
// config file, in decreasing order of precedence
func Load(args []string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	flags := pflag.NewFlagSet("drawing-fields", pflag.ContinueOnError)

	setupViperEnvironment(v, cfg)
	defineCommandLineFlags(flags, cfg)
	setupUsageMessage(flags, os.Stderr)

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if version, _ := flags.GetBool("version"); version {
		return nil, ErrVersionRequested
	}
	if err := bindFlagsToViper(v, flags); err != nil {
		return nil, err
	}

	if err := readConfigFile(v); err != nil {
		return nil, err
	}
	if err := populateConfigFromViper(v, cfg); err != nil {
		return nil, err
	}
	cfg.Files = flags.Args()

	if cfg.DrawingDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.DrawingDirectory); err == nil {
			cfg.DrawingDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("dir", cfg.DrawingDirectory)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("ocr", cfg.OCR)
	v.SetDefault("ocrlang", cfg.OCRLanguage)
	v.SetDefault("mintext", cfg.MinText)
	v.SetDefault("minwidth", cfg.MinWidth)
	v.SetDefault("format", cfg.Format)
	v.SetDefault("tokens", cfg.Tokens)
	v.SetDefault("config", "")
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	flags.String("host", cfg.Host, "Server host address (server mode only)")
	flags.Int("port", cfg.Port, "Server port (server mode only)")
	flags.String("dir", cfg.DrawingDirectory, "Directory containing drawings")
	flags.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.Int64("maxfilesize", cfg.MaxFileSize, "Maximum drawing file size in bytes")
	flags.Bool("ocr", cfg.OCR, "OCR scanned pages and raster drawings (needs a build with -tags ocr)")
	flags.String("ocrlang", cfg.OCRLanguage, "Tesseract language")
	flags.Int("mintext", cfg.MinText, "Pages with fewer native text characters are OCR'd")
	flags.Int("minwidth", cfg.MinWidth, "Scans narrower than this many pixels are upscaled before OCR")
	flags.String("format", cfg.Format, "Output format for file arguments: text, json or yaml")
	flags.Bool("tokens", cfg.Tokens, "Print the positioned tokens of each file instead of its fields")
	flags.String("config", "", "Config file (YAML or JSON) with a 'fields' section")
	flags.BoolP("version", "v", false, "Print version and exit")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range []string{
		"mode", "host", "port", "dir", "loglevel", "maxfilesize",
		"ocr", "ocrlang", "mintext", "minwidth", "format", "tokens", "config",
	} {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", key, err)
		}
	}
	return nil
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(flags *pflag.FlagSet, w io.Writer) {
	name := filepath.Base(os.Args[0])
	flags.Usage = func() {
		fmt.Fprintf(w, "Usage of %s:\n", name)
		fmt.Fprintf(w, "\nDrawing Fields - find title block fields in engineering drawings\n\n")
		fmt.Fprintf(w, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(w, "\nExamples:\n")
		fmt.Fprintf(w, "  %s                                      # MCP stdio mode, current directory\n", name)
		fmt.Fprintf(w, "  %s --mode=server --dir=/srv/drawings    # MCP HTTP server with /metrics\n", name)
		fmt.Fprintf(w, "  %s A-101.pdf S-201.pdf                  # print fields of each drawing\n", name)
		fmt.Fprintf(w, "  %s --format=json --ocr scan.tif         # OCR a scan, JSON output\n", name)
		fmt.Fprintf(w, "  %s --tokens --config=fields.yaml A.pdf  # dump tokens\n", name)
		fmt.Fprintf(w, "\nEnvironment Variables:\n")
		for _, key := range []string{"MODE", "HOST", "PORT", "DIR", "LOGLEVEL", "MAXFILESIZE", "OCR", "OCRLANG", "MINTEXT", "FORMAT", "CONFIG"} {
			fmt.Fprintf(w, "  %s_%s\n", envPrefix, key)
		}
	}
}

// readConfigFile loads the file named by the config key, if any
func readConfigFile(v *viper.Viper) error {
	path := v.GetString("config")
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) error {
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.DrawingDirectory = v.GetString("dir")
	cfg.LogLevel = strings.ToLower(v.GetString("loglevel"))
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.OCR = v.GetBool("ocr")
	cfg.OCRLanguage = v.GetString("ocrlang")
	cfg.MinText = v.GetInt("mintext")
	cfg.MinWidth = v.GetInt("minwidth")
	cfg.Format = strings.ToLower(v.GetString("format"))
	cfg.Tokens = v.GetBool("tokens")
	cfg.ConfigFile = v.GetString("config")

	if v.IsSet("fields") {
		var overrides []FieldOverride
		if err := v.UnmarshalKey("fields", &overrides); err != nil {
			return fmt.Errorf("failed to decode fields: %w", err)
		}
		cfg.Fields = MergeFields(cfg.Fields, overrides)
	}
	return nil
}

// FieldOverride is one entry of the fields key of a config file. Keys left
// out of the entry keep their current value, while keys that are present are
// applied even when zero, so "max_length: 0" or "pattern: ''" clear a default.
type FieldOverride struct {
	Field            fields.Field     `mapstructure:"field"`
	Synonyms         []string         `mapstructure:"synonyms"`
	DX               *float64         `mapstructure:"dx"`
	DY               *float64         `mapstructure:"dy"`
	RequiredResults  *int             `mapstructure:"required"`
	MaxIterations    *int             `mapstructure:"max_iterations"`
	Pattern          *string          `mapstructure:"pattern"`
	MaxLength        *int             `mapstructure:"max_length"`
	Strategy         *fields.Strategy `mapstructure:"strategy"`
	FallbackSynonyms []string         `mapstructure:"fallback_synonyms"`
	FallbackPrefix   *string          `mapstructure:"fallback_prefix"`
	JoinCount        *int             `mapstructure:"join_count"`
}

// MergeFields applies each override to the spec with the same field name.
// Overrides for unknown fields become new specs using the first strategy
// unless they name one.
func MergeFields(base []fields.Spec, overrides []FieldOverride) []fields.Spec {
	out := append([]fields.Spec(nil), base...)
	for _, o := range overrides {
		i := indexOf(out, o.Field)
		if i < 0 {
			out = append(out, o.apply(fields.Spec{Field: o.Field, Strategy: fields.StrategyFirst}))
			continue
		}
		out[i] = o.apply(out[i])
	}
	return out
}

func indexOf(specs []fields.Spec, f fields.Field) int {
	for i, s := range specs {
		if s.Field == f {
			return i
		}
	}
	return -1
}

func (o FieldOverride) apply(s fields.Spec) fields.Spec {
	if o.Synonyms != nil {
		s.Synonyms = o.Synonyms
	}
	if o.FallbackSynonyms != nil {
		s.FallbackSynonyms = o.FallbackSynonyms
	}
	set(&s.DX, o.DX)
	set(&s.DY, o.DY)
	set(&s.RequiredResults, o.RequiredResults)
	set(&s.MaxIterations, o.MaxIterations)
	set(&s.Pattern, o.Pattern)
	set(&s.MaxLength, o.MaxLength)
	set(&s.Strategy, o.Strategy)
	set(&s.FallbackPrefix, o.FallbackPrefix)
	set(&s.JoinCount, o.JoinCount)
	return s
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.DrawingDirectory == "" {
		return errors.New("drawing directory cannot be empty")
	}

	// A missing directory is allowed so placeholders like ${workspaceRoot}
	// can be configured before the folder exists
	info, err := os.Stat(c.DrawingDirectory)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return fmt.Errorf("cannot access drawing directory %s: %w", c.DrawingDirectory, err)
	case !info.IsDir():
		return fmt.Errorf("drawing directory is not a directory: %s", c.DrawingDirectory)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("invalid format: %s (must be one of: text, json, yaml)", c.Format)
	}

	if c.MinText < 0 || c.MinWidth < 0 {
		return errors.New("mintext and minwidth must not be negative")
	}
	if c.OCR && c.OCRLanguage == "" {
		return errors.New("OCR language cannot be empty when OCR is enabled")
	}

	if len(c.Fields) == 0 {
		return errors.New("at least one field must be configured")
	}
	seen := make(map[fields.Field]bool, len(c.Fields))
	for _, s := range c.Fields {
		if seen[s.Field] {
			return fmt.Errorf("duplicate field %q", s.Field)
		}
		seen[s.Field] = true
		if err := s.Validate(); err != nil {
			return fmt.Errorf("invalid field configuration: %w", err)
		}
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, DrawingDirectory: %s, LogLevel: %s, MaxFileSize: %d, OCR: %t, Fields: %d}",
		c.Mode, c.Host, c.Port, c.DrawingDirectory, c.LogLevel, c.MaxFileSize, c.OCR, len(c.Fields))
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer && !c.IsCLIMode()
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio && !c.IsCLIMode()
}

// IsCLIMode returns true when drawings were named on the command line and
// the program should print their fields and exit
func (c *Config) IsCLIMode() bool {
	return len(c.Files) > 0
}
