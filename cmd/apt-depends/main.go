package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/etnz/apt-resolver/apt"
	"github.com/etnz/apt-resolver/deb"
	"github.com/etnz/apt-resolver/resolve"
)

var (
	configPath string
	repoDirs   []string
	fieldNames []string
	showWhy    bool
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "apt-depends",
		Short: "Dependency queries over local APT repository snapshots",
		Long: "apt-depends loads Packages indices and .deb files from local snapshot " +
			"directories and answers dependency queries against them: which packages " +
			"satisfy a relationship field, directly or transitively.",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringArrayVarP(&repoDirs, "repo", "r", nil, "Snapshot directory (repeatable)")
	rootCmd.PersistentFlags().StringArrayVarP(&fieldNames, "field", "f", nil, "Relationship field to resolve (repeatable, default Depends)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print loading events")

	dependsCmd := &cobra.Command{
		Use:   "depends <package>",
		Short: "Resolve the direct requirements of a package",
		Args:  cobra.ExactArgs(1),
		RunE:  runDepends,
	}

	closureCmd := &cobra.Command{
		Use:   "closure <package>",
		Short: "Compute the transitive dependency closure of a package",
		Args:  cobra.ExactArgs(1),
		RunE:  runClosure,
	}
	closureCmd.Flags().BoolVar(&showWhy, "why", false, "Print which packages pulled each one in")

	rootCmd.AddCommand(dependsCmd, closureCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Config is a business object holding the application's configuration.
type Config struct {
	// Repos is the list of snapshot directories to load.
	Repos []string
	// Fields is the list of relationship fields to resolve.
	Fields []deb.ControlField
}

func decodeConfig(path string) (*Config, error) {
	// DTO structs to decouple the YAML file structure from the business objects.
	type yamlConfig struct {
		Repos  []string `yaml:"repos"`
		Fields []string `yaml:"fields"`
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var dto yamlConfig
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg := &Config{Repos: dto.Repos}
	for _, f := range dto.Fields {
		cfg.Fields = append(cfg.Fields, deb.ControlField(f))
	}
	return cfg, nil
}

// resolveConfig merges the config file with the command line flags; flags
// extend the file's lists.
func resolveConfig() (*Config, error) {
	cfg := &Config{}
	if configPath != "" {
		fileCfg, err := decodeConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	cfg.Repos = append(cfg.Repos, repoDirs...)
	for _, f := range fieldNames {
		cfg.Fields = append(cfg.Fields, deb.ControlField(f))
	}

	if len(cfg.Repos) == 0 {
		return nil, fmt.Errorf("no snapshot directory given (use --repo or a config file)")
	}
	if len(cfg.Fields) == 0 {
		cfg.Fields = []deb.ControlField{deb.FieldDepends}
	}
	for _, f := range cfg.Fields {
		if !deb.IsRelationField(f) {
			return nil, fmt.Errorf("%s is not a relationship field", f)
		}
	}
	return cfg, nil
}

// loadIndex loads every configured snapshot and builds the query index.
func loadIndex(cfg *Config) (*resolve.Index, error) {
	var listener apt.Listener
	if verbose {
		listener = func(e fmt.Stringer) { fmt.Fprintln(os.Stderr, e) }
	}

	var metas []*deb.Metadata
	for _, dir := range cfg.Repos {
		snap, err := apt.LoadDir(dir, listener)
		if err != nil {
			return nil, err
		}
		metas = append(metas, snap.Packages...)
	}
	return resolve.Load(metas)
}

func runDepends(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	idx, err := loadIndex(cfg)
	if err != nil {
		return err
	}

	entries := idx.Packages(args[0])
	if len(entries) == 0 {
		return fmt.Errorf("package %s not found", args[0])
	}

	for _, e := range entries {
		fmt.Println(e)
		for _, f := range cfg.Fields {
			res := idx.FindDirect(e, f)
			if len(res.Groups) == 0 {
				continue
			}
			fmt.Printf("  %s:\n", f)
			for _, g := range res.Groups {
				printGroup(g)
			}
		}
	}
	return nil
}

func printGroup(g resolve.Group) {
	status := ""
	if g.Empty() {
		status = "  [unsatisfied]"
	}
	fmt.Printf("    %s%s\n", g, status)
	for _, cand := range g.Alternatives {
		for _, p := range cand.Packages {
			fmt.Printf("      -> %s\n", p)
		}
	}
}

func runClosure(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	idx, err := loadIndex(cfg)
	if err != nil {
		return err
	}

	entries := idx.Packages(args[0])
	if len(entries) == 0 {
		return fmt.Errorf("package %s not found", args[0])
	}

	cl := idx.FindTransitive(entries[0], cfg.Fields...)
	for _, p := range cl.Packages {
		fmt.Println(p)
		if showWhy {
			for _, prov := range cl.ReverseDepends[p] {
				fmt.Printf("  <- %s (%s: %s)\n", prov.Depender, prov.Field, prov.Constraint)
			}
		}
	}

	if len(cl.Unsatisfied) > 0 {
		var lines []string
		for _, res := range cl.Unsatisfied {
			for _, g := range res.Unsatisfied() {
				lines = append(lines, fmt.Sprintf("%s: %s: %s", res.Package, res.Field, g))
			}
		}
		return fmt.Errorf("unsatisfied requirements:\n  %s", strings.Join(lines, "\n  "))
	}
	return nil
}
