// Package cli implements the schemaloc command-line interface.
//
// This package provides commands for resolving versioned schemas from
// file-backed search paths, exporting reference graphs, and serving
// resolution over HTTP. The CLI is built using cobra and supports verbose
// logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - resolve: Resolve a schema and print its reference tree
//   - graph: Export a resolved schema's reference graph as DOT or SVG
//   - serve: Expose schema resolution over HTTP
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/structkit/schemaloc/pkg/buildinfo"
	"github.com/structkit/schemaloc/pkg/locater"
	"github.com/structkit/schemaloc/pkg/locater/ecjson"
	"github.com/structkit/schemaloc/pkg/locater/ecxml"
	"github.com/structkit/schemaloc/pkg/resolver"
)

// appName is the application name used for config discovery and display.
const appName = "schemaloc"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Schemaloc resolves versioned schema graphs from file-backed sources",
		Long:         `Schemaloc locates semantically-versioned schema documents across ordered search paths, assembles their reference graphs with shared-instance identity, and exports the result for inspection.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newContext assembles a resolution context from the effective configuration:
// one locater per configured format, each carrying the full search path list,
// registered in the config's format order.
func (c *CLI) newContext(cfg *Config) (*resolver.Context, error) {
	rc := resolver.NewContext(resolver.Options{
		Logger: func(format string, args ...any) {
			c.Logger.Debugf(format, args...)
		},
	})

	for _, format := range cfg.Formats {
		var l *locater.FileLocater
		switch format {
		case "json":
			l = ecjson.NewLocater()
		case "xml":
			l = ecxml.NewLocater()
		default:
			return nil, errInvalidFormat(format)
		}
		for _, dir := range cfg.SearchPaths {
			if err := l.AddSearchPath(dir); err != nil {
				return nil, err
			}
		}
		rc.AddLocater(l)
	}

	c.Logger.Debug("created resolution context", "session", rc.ID(), "paths", len(cfg.SearchPaths))
	return rc, nil
}
