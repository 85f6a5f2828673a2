package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/structkit/schemaloc/pkg/schema"
)

// resolveFlags are shared by the resolve and graph commands.
type resolveFlags struct {
	configPath  string
	searchPaths []string
	match       string
	formats     []string
}

func (f *resolveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "config file (default: ./"+configFileName+")")
	cmd.Flags().StringSliceVarP(&f.searchPaths, "path", "p", nil, "schema search path (repeatable, ordered)")
	cmd.Flags().StringVarP(&f.match, "match", "m", "", "match type: exact, latest, latest-write-compatible, latest-read-compatible")
	cmd.Flags().StringSliceVarP(&f.formats, "format", "f", nil, "document formats in precedence order: json, xml")
}

func (f *resolveFlags) config() (*Config, error) {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return nil, err
	}
	cfg.mergeFlags(f.searchPaths, f.match, f.formats)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	flags := &resolveFlags{}

	cmd := &cobra.Command{
		Use:   "resolve <Name.read.write.minor>",
		Short: "Resolve a schema and print its reference tree",
		Long: `Resolve a schema by key and print the assembled reference graph.

The key names a schema and a three-part version, e.g. BisCore.1.0.2. How the
version is matched against on-disk candidates is controlled by --match; the
default accepts any candidate with the same read.write and an equal or newer
minor.

Search paths come from --path flags or the search_paths list in
.schemaloc.toml, consulted in order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := schema.ParseKey(args[0])
			if err != nil {
				return err
			}
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			return c.runResolve(cmd.Context(), key, cfg)
		},
	}

	flags.register(cmd)
	return cmd
}

func (c *CLI) runResolve(ctx context.Context, key schema.Key, cfg *Config) error {
	rc, err := c.newContext(cfg)
	if err != nil {
		return err
	}

	s, found, err := rc.GetSchema(ctx, key, cfg.MatchType())
	if err != nil {
		return err
	}
	if !found {
		printError("schema %s not found (%s)", StyleHighlight.Render(key.String()), cfg.Match)
		return nil
	}

	printSuccess("resolved %s (%d schemas in session)", StyleHighlight.Render(s.Key.String()), rc.SchemaCount())
	printTree(s, "", make(map[string]bool))
	return nil
}

// printTree prints the reference tree depth-first in declared order. Nodes
// already printed higher up are marked shared instead of re-expanded.
func printTree(s *schema.Schema, indent string, seen map[string]bool) {
	ck := s.Key.CacheKey()
	if seen[ck] {
		fmt.Println(indent + "  " + StyleDim.Render(iconArrow+" "+s.Key.String()+" (shared)"))
		return
	}
	seen[ck] = true

	if indent != "" {
		fmt.Println(indent + "  " + iconArrow + " " + s.Key.String())
	}
	for _, ref := range s.References {
		printTree(ref, indent+strings.Repeat(" ", 2), seen)
	}
}
