// Package config loads n5ls settings. Later sources override earlier ones:
// defaults, the TOML file, the environment (including a .env file), flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	n5 "github.com/TuSKan/n5-multiscale"
	"github.com/TuSKan/n5-multiscale/discovery"
	"github.com/TuSKan/n5-multiscale/multiscale"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "N5LS_"

type Config struct {
	// Root is the bucket URL of the container, e.g. "file:///data/em.n5".
	Root        string   `toml:"root"`
	Base        string   `toml:"base"`
	Conventions []string `toml:"conventions"`
	Parallelism int      `toml:"parallelism"`
	CacheSize   int      `toml:"cache_size"`
	// Output receives the catalog; a ".zst" suffix compresses it.
	Output string    `toml:"output"`
	Log    LogConfig `toml:"log"`
}

type LogConfig struct {
	File    string `toml:"file"`
	MaxSize int    `toml:"max_log_size"` // megabytes
	MaxAge  int    `toml:"max_log_age"`  // days
	Level   string `toml:"level"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Parallelism: discovery.DefaultParallelism,
		CacheSize:   n5.DefaultCacheSize,
		Log: LogConfig{
			MaxSize: 100,
			MaxAge:  28,
			Level:   "info",
		},
	}
}

// LoadFile decodes a TOML file over c. Unknown keys are an error.
func (c *Config) LoadFile(filename string) error {
	md, err := toml.DecodeFile(filename, c)
	if err != nil {
		return fmt.Errorf("could not decode TOML config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown keys in %s: %v", filename, undecoded)
	}
	return nil
}

// ApplyEnv overrides c with the N5LS_* variables that are set.
func (c *Config) ApplyEnv() error {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(EnvPrefix + name)); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v := strings.TrimSpace(os.Getenv(EnvPrefix + name))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("ROOT", &c.Root)
	str("BASE", &c.Base)
	str("OUTPUT", &c.Output)
	str("LOG_FILE", &c.Log.File)
	str("LOG_LEVEL", &c.Log.Level)
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "CONVENTIONS")); v != "" {
		c.Conventions = splitList(v)
	}
	return errors.Join(
		num("PARALLELISM", &c.Parallelism),
		num("CACHE_SIZE", &c.CacheSize),
	)
}

// Validate checks settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New("no container root given")
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be positive, got %d", c.Parallelism)
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("cache_size must be positive, got %d", c.CacheSize)
	}
	if _, err := multiscale.ChainFor(c.Conventions...); err != nil {
		return err
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	return level, nil
}

// Load builds the configuration from command-line args (without the program
// name). The container root is the single positional argument.
func Load(args []string, output io.Writer) (*Config, error) {
	fset := flag.NewFlagSet("n5ls", flag.ContinueOnError)
	fset.SetOutput(output)
	fset.Usage = func() {
		fmt.Fprintf(output, "usage: n5ls [flags] <container-url>\n")
		fset.PrintDefaults()
	}

	var (
		configFile  = fset.String("config", "", "TOML configuration file")
		envFile     = fset.String("env", ".env", "dotenv file read before the environment")
		base        = fset.String("base", "", "node path to start discovery from")
		conventions = fset.String("conventions", "", "comma-separated multiscale conventions, in the order tried")
		parallelism = fset.Int("parallelism", 0, "number of nodes listed concurrently")
		cacheSize   = fset.Int("cache-size", 0, "attribute documents kept in memory")
		out         = fset.String("output", "", "write the catalog to this file (.zst compresses)")
		logFile     = fset.String("log-file", "", "rotating log file")
		logLevel    = fset.String("log-level", "", "debug, info, warn or error")
	)
	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	if fset.NArg() > 1 {
		return nil, fmt.Errorf("expected one container url, got %d arguments", fset.NArg())
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", *envFile, err)
	}

	c := Default()
	if *configFile != "" {
		if err := c.LoadFile(*configFile); err != nil {
			return nil, err
		}
	}
	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}

	if fset.NArg() == 1 {
		c.Root = fset.Arg(0)
	}
	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base":
			c.Base = *base
		case "conventions":
			c.Conventions = splitList(*conventions)
		case "parallelism":
			c.Parallelism = *parallelism
		case "cache-size":
			c.CacheSize = *cacheSize
		case "output":
			c.Output = *out
		case "log-file":
			c.Log.File = *logFile
		case "log-level":
			c.Log.Level = *logLevel
		}
	})

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
