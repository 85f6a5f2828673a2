package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/structkit/schemaloc/pkg/errors"
	"github.com/structkit/schemaloc/pkg/schema"
)

// configFileName is the config file discovered in the working directory or
// passed explicitly via --config.
const configFileName = ".schemaloc.toml"

// Config holds the effective CLI configuration, merged from the config file
// and command-line flags. Flags win over file values.
type Config struct {
	// SearchPaths are the ordered directories schema documents are
	// discovered in.
	SearchPaths []string `toml:"search_paths"`

	// Match is the default match type name for requests that do not specify
	// one (default "latest-write-compatible").
	Match string `toml:"match"`

	// Formats lists the enabled document formats in locater precedence
	// order. Valid entries are "json" and "xml" (default both, json first).
	Formats []string `toml:"formats"`
}

// defaults fills unset fields with their default values.
func (c *Config) defaults() {
	if c.Match == "" {
		c.Match = schema.MatchLatestWriteCompatible.String()
	}
	if len(c.Formats) == 0 {
		c.Formats = []string{"json", "xml"}
	}
}

// validate checks the configuration after merging.
func (c *Config) validate() error {
	if _, err := schema.ParseMatchType(c.Match); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidMatchType, err, "config match type")
	}
	for _, f := range c.Formats {
		if f != "json" && f != "xml" {
			return errInvalidFormat(f)
		}
	}
	return nil
}

// MatchType returns the parsed default match type. validate must have
// succeeded first.
func (c *Config) MatchType() schema.MatchType {
	mt, _ := schema.ParseMatchType(c.Match)
	return mt
}

// loadConfig reads the config file at path, or discovers .schemaloc.toml in
// the working directory when path is empty. A missing discovered file is not
// an error; a missing explicit file is.
func loadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = configFileName
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			cfg.defaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// Search paths in the file are relative to the file's directory.
	base := filepath.Dir(path)
	for i, p := range cfg.SearchPaths {
		if !filepath.IsAbs(p) {
			cfg.SearchPaths[i] = filepath.Join(base, p)
		}
	}

	cfg.defaults()
	return cfg, nil
}

// mergeFlags overlays flag values onto the file config. Explicit flags win.
func (c *Config) mergeFlags(paths []string, match string, formats []string) {
	if len(paths) > 0 {
		c.SearchPaths = paths
	}
	if match != "" {
		c.Match = match
	}
	if len(formats) > 0 {
		c.Formats = formats
	}
}

func errInvalidFormat(format string) error {
	return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (available: json, xml)", format)
}
