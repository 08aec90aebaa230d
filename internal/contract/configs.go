package contract

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/corpusmetrics/schema"
	"github.com/jackc/pgx/v5"
	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultConcurrency is the default admission limit for crawl, read and shard I/O.
var DefaultConcurrency = runtime.GOMAXPROCS(0) * 4

// MaxConcurrency bounds the admission limit.
const MaxConcurrency = 4096

// Config holds the runtime configuration for collect, merge and compress.
// This struct remains the "final, validated" config.
type Config struct {
	CorpusRoot    string
	Extensions    []string
	Excludes      []string
	Ignore        *ignore.GitIgnore // compiled from Excludes, nil when there are none
	Concurrency   int
	MetricName    string
	Keyword       string
	StripComments bool
	OnFileError   schema.FileErrorPolicy

	Output     schema.OutputMode
	OutputFile string

	WidePath     string
	NarrowPaths  []string
	ShardRoot    string
	ShardSuffix  string
	Fill         string
	Duplicates   schema.DuplicatePolicy
	KeyLayout    schema.KeyLayout
	NarrowLayout schema.KeyLayout
	ColumnNames  []string
	HasHeader    bool
	DropColumns  int
	CompressFrom string

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	MetricsFile string
	Quiet       bool
	UseColors   bool
}

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	CorpusRootStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Concurrency    int      `mapstructure:"concurrency"`
	Ext            []string `mapstructure:"ext"`
	Exclude        []string `mapstructure:"exclude"`
	Metric         string   `mapstructure:"metric"`
	Keyword        string   `mapstructure:"keyword"`
	StripComments  bool     `mapstructure:"strip-comments"`
	OnFileError    string   `mapstructure:"on-file-error"`
	Output         string   `mapstructure:"output"`
	OutputFile     string   `mapstructure:"output-file"`
	StoreBackend   string   `mapstructure:"store-backend"`
	StoreDBConnect string   `mapstructure:"store-db-connect"`
	MetricsFile    string   `mapstructure:"metrics-file"`
	Quiet          bool     `mapstructure:"quiet"`
	Color          string   `mapstructure:"color"`

	// --- Fields from mergeCmd.Flags() ---
	Wide         string   `mapstructure:"wide"`
	Narrow       []string `mapstructure:"narrow"`
	ShardRoot    string   `mapstructure:"shard-root"`
	ShardSuffix  string   `mapstructure:"shard-suffix"`
	Fill         string   `mapstructure:"fill"`
	Duplicates   string   `mapstructure:"duplicates"`
	KeyLayout    string   `mapstructure:"key-layout"`
	NarrowLayout string   `mapstructure:"narrow-layout"`
	Name         []string `mapstructure:"name"`
	NoHeader     bool     `mapstructure:"no-header"`

	// --- Fields from compressCmd.Flags() ---
	Input string `mapstructure:"input"`
	Drop  int    `mapstructure:"drop"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processMergeInputs(cfg, input); err != nil {
		return err
	}
	if err := processExcludes(cfg, input); err != nil {
		return err
	}
	return resolveCorpusRoot(cfg, input)
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// ValidateDatabaseConnectionString validates connection strings for the
// MySQL and PostgreSQL backends by parsing them with the drivers themselves.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		dsn, err := mysql.ParseDSN(connStr)
		if err != nil {
			return fmt.Errorf("invalid MySQL connection string: %w", err)
		}
		if dsn.DBName == "" {
			return errors.New("MySQL connection string must name a database after '/'")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		pc, err := pgx.ParseConfig(connStr)
		if err != nil {
			return fmt.Errorf("invalid PostgreSQL connection string: %w", err)
		}
		if pc.Database == "" {
			return errors.New("PostgreSQL connection string must contain a 'dbname' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the collect-related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.StripComments = input.StripComments
	cfg.MetricsFile = input.MetricsFile
	cfg.Quiet = input.Quiet

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Concurrency <= 0 || input.Concurrency > MaxConcurrency {
		return fmt.Errorf("concurrency must be greater than 0 and cannot exceed %d (received %d)", MaxConcurrency, input.Concurrency)
	}
	cfg.Concurrency = input.Concurrency

	cfg.MetricName = strings.TrimSpace(input.Metric)
	if cfg.MetricName == "" {
		cfg.MetricName = schema.DefaultMetricName
	}
	if strings.ContainsAny(cfg.MetricName, ",\n") {
		return fmt.Errorf("metric name %q must not contain commas or newlines", cfg.MetricName)
	}

	cfg.Keyword = input.Keyword
	if cfg.Keyword == "" {
		cfg.Keyword = schema.DefaultKeyword
	}

	cfg.Extensions = cfg.Extensions[:0]
	for _, ext := range input.Ext {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Extensions = append(cfg.Extensions, ext)
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{schema.DefaultExtension}
	}

	cfg.OnFileError = schema.FileErrorPolicy(strings.ToLower(input.OnFileError))
	if cfg.OnFileError == "" {
		cfg.OnFileError = schema.AbortOnFileError
	}
	if _, ok := schema.ValidFileErrorPolicies[cfg.OnFileError]; !ok {
		return fmt.Errorf("invalid on-file-error policy '%s'. must be abort, skip", input.OnFileError)
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.CSVOut
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be csv, parquet, json", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return errors.New("parquet output requires --output-file")
	}
	return nil
}

// validateBackendConfigs validates the run store backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	return ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect)
}

// processMergeInputs validates the merge and compress fields. Whether a wide
// table is actually required is up to the command that runs the merge.
func processMergeInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.WidePath = input.Wide
	cfg.NarrowPaths = append([]string(nil), input.Narrow...)
	cfg.ShardRoot = input.ShardRoot
	cfg.ShardSuffix = input.ShardSuffix
	if cfg.ShardSuffix == "" {
		cfg.ShardSuffix = schema.DefaultShardName
	}
	cfg.ColumnNames = append([]string(nil), input.Name...)
	cfg.HasHeader = !input.NoHeader
	cfg.CompressFrom = input.Input

	cfg.Fill = input.Fill
	if cfg.Fill == "" {
		cfg.Fill = schema.DefaultFill
	}
	if strings.Contains(cfg.Fill, "\n") {
		return errors.New("fill value must not contain a newline")
	}

	cfg.Duplicates = schema.DuplicatePolicy(strings.ToLower(input.Duplicates))
	if cfg.Duplicates == "" {
		cfg.Duplicates = schema.WarnOnDuplicate
	}
	if _, ok := schema.ValidDuplicatePolicies[cfg.Duplicates]; !ok {
		return fmt.Errorf("invalid duplicates policy '%s'. must be warn, fail", input.Duplicates)
	}

	cfg.KeyLayout = schema.KeyLayout(strings.ToLower(input.KeyLayout))
	if cfg.KeyLayout == "" {
		cfg.KeyLayout = schema.ColumnsLayout
	}
	if _, ok := schema.ValidKeyLayouts[cfg.KeyLayout]; !ok {
		return fmt.Errorf("invalid key layout '%s'. must be columns, path", input.KeyLayout)
	}

	cfg.NarrowLayout = schema.KeyLayout(strings.ToLower(input.NarrowLayout))
	if cfg.NarrowLayout == "" {
		cfg.NarrowLayout = schema.ColumnsLayout
	}
	if _, ok := schema.ValidKeyLayouts[cfg.NarrowLayout]; !ok {
		return fmt.Errorf("invalid narrow layout '%s'. must be columns, path", input.NarrowLayout)
	}

	if input.Drop < 0 {
		return fmt.Errorf("drop must not be negative (received %d)", input.Drop)
	}
	cfg.DropColumns = input.Drop
	if cfg.DropColumns == 0 {
		cfg.DropColumns = cfg.KeyLayout.KeyColumns()
	}
	return nil
}

// processExcludes trims the exclude patterns and compiles them into a gitignore matcher.
func processExcludes(cfg *Config, input *ConfigRawInput) error {
	cfg.Excludes = cfg.Excludes[:0]
	for _, ex := range input.Exclude {
		if trimmed := strings.TrimSpace(ex); trimmed != "" {
			cfg.Excludes = append(cfg.Excludes, trimmed)
		}
	}
	cfg.Ignore = BuildIgnore(cfg.Excludes)
	return nil
}

// resolveCorpusRoot turns the positional corpus root into an absolute path.
func resolveCorpusRoot(cfg *Config, input *ConfigRawInput) error {
	if input.CorpusRootStr == "" {
		cfg.CorpusRoot = ""
		return nil
	}
	abs, err := filepath.Abs(input.CorpusRootStr)
	if err != nil {
		return fmt.Errorf("failed to resolve corpus root %s: %w", input.CorpusRootStr, err)
	}
	cfg.CorpusRoot = abs
	return nil
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Extensions = append([]string(nil), c.Extensions...)
	clone.Excludes = append([]string(nil), c.Excludes...)
	clone.NarrowPaths = append([]string(nil), c.NarrowPaths...)
	clone.ColumnNames = append([]string(nil), c.ColumnNames...)
	return &clone
}
