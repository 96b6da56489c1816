package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configKeys are the settings the build pipeline understands, with help text.
// The builds list is file-only: its nested structure does not fit a
// key=value setter.
var configKeys = map[string]string{
	"release":      "release version string (e.g. v38)",
	"output_dir":   "directory for emitted artifacts",
	"tag":          "annotation tag marking representative transcripts",
	"chain_dir":    "directory containing liftover chain files",
	"liftover_bin": "path to the UCSC liftOver binary",
	"duckdb":       "also write per-build DuckDB transcript stores (true/false)",
	"builds":       "build variant list (edit the config file directly)",
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage spliceannot configuration",
		Long:  "Show, get, or set build pipeline settings. Config is stored in ~/.spliceannot.yaml.",
		Example: `  spliceannot config                       # show all settings
  spliceannot config set tag basic         # set the representative tag
  spliceannot config set duckdb true       # enable the DuckDB store
  spliceannot config get output_dir        # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(os.Stdout)
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a build pipeline setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a build pipeline setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(args[0])
		},
	}
}

// sortedConfigKeys returns the known setting names in ascending order.
func sortedConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for key := range configKeys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// validateConfigKey rejects settings the build pipeline does not read, so a
// typo like "chaindir" fails loudly instead of being silently ignored.
func validateConfigKey(key string) error {
	if _, ok := configKeys[key]; !ok {
		return fmt.Errorf("unknown config key %q (known keys: %s)", key, strings.Join(sortedConfigKeys(), ", "))
	}
	return nil
}

// parseConfigValue coerces a setting's string form to its typed value.
func parseConfigValue(key, value string) (any, error) {
	if key == "duckdb" {
		switch value {
		case "true", "yes", "on":
			return true, nil
		case "false", "no", "off":
			return false, nil
		default:
			return nil, fmt.Errorf("duckdb must be true or false, got %q", value)
		}
	}
	return value, nil
}

// renderSettings writes the known settings in key order, expanding the builds
// list per variant. Returns the number of settings rendered.
func renderSettings(w io.Writer, settings map[string]any) (int, error) {
	rendered := 0
	for _, key := range sortedConfigKeys() {
		val, ok := settings[key]
		if !ok || val == nil {
			continue
		}

		if key == "builds" {
			var builds []buildEntry
			if err := decodeBuilds(val, &builds); err != nil {
				return rendered, fmt.Errorf("parsing builds list: %w", err)
			}
			fmt.Fprintf(w, "builds: (%d configured)\n", len(builds))
			for _, b := range builds {
				if b.Liftover != "" {
					fmt.Fprintf(w, "  - %s: %s (liftover %s)\n", b.Name, b.GTF, b.Liftover)
				} else {
					fmt.Fprintf(w, "  - %s: %s\n", b.Name, b.GTF)
				}
			}
		} else {
			fmt.Fprintf(w, "%s: %v\n", key, val)
		}
		rendered++
	}
	return rendered, nil
}

// decodeBuilds converts the loosely-typed builds value from the config file
// into buildEntry values, via a yaml round trip.
func decodeBuilds(val any, builds *[]buildEntry) error {
	raw, err := yaml.Marshal(val)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, builds)
}

func runConfigShow(w io.Writer) error {
	rendered, err := renderSettings(w, viper.AllSettings())
	if err != nil {
		return err
	}
	if rendered == 0 {
		fmt.Fprintln(w, "# No configuration set. Config file: ~/.spliceannot.yaml")
	}
	return nil
}

func runConfigSet(key, value string) error {
	if err := validateConfigKey(key); err != nil {
		return err
	}
	if key == "builds" {
		return fmt.Errorf("the builds list is a nested structure; edit the config file directly")
	}

	typed, err := parseConfigValue(key, value)
	if err != nil {
		return err
	}
	viper.Set(key, typed)

	// Ensure config file exists
	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".spliceannot.yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Set %s = %v in %s\n", key, typed, cfgFile)
	return nil
}

func runConfigGet(key string) error {
	if err := validateConfigKey(key); err != nil {
		return err
	}
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Println(val)
	return nil
}
