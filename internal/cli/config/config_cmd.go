// Package config provides the 'profilesync config' commands: showing the
// effective configuration, creating config files, and editing single keys.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/profilesync/profilesync/internal/cli/shared"
	"github.com/profilesync/profilesync/internal/config"
	clierrors "github.com/profilesync/profilesync/internal/errors"
)

var (
	cGreen  = color.New(color.FgGreen).SprintFunc()
	cYellow = color.New(color.FgYellow).SprintFunc()
	cCyan   = color.New(color.FgCyan).SprintFunc()
	cDim    = color.New(color.Faint).SprintFunc()
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage profilesync configuration",
	Long: `Manage profilesync configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (PROFILESYNC_*)
  2. Project config (.profilesync/config.yml)
  3. User config (~/.config/profilesync/config.yml)
  4. Built-in defaults`,
	Example: `  # Show the effective configuration
  profilesync config show

  # Create a project config with defaults
  profilesync config init --project

  # Protect extra keys during apply
  profilesync config set protected_keys "editor.fontSize,terminal.integrated.fontSize" --project`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration and where it comes from",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the user and project config file paths",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		userPath, err := config.UserConfigPath()
		if err != nil {
			return fmt.Errorf("locating user config: %w", err)
		}
		fmt.Fprintf(out, "user:    %s%s\n", userPath, existsSuffix(userPath))
		project := projectPath(cmd)
		fmt.Fprintf(out, "project: %s%s\n", project, existsSuffix(project))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default values",
	Long: `Write a commented config file with the default values. The user config is
created unless --project is given. An existing file is left unchanged unless
--force is given.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value, keeping the comments of the config file.
Run 'profilesync config keys' for the list of keys and their types.`,
	Example: `  profilesync config set safe_preset true
  profilesync config set git.auto_commit true --project`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show a configuration value and the file it is set in",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the known configuration keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, key := range config.SortedKeys() {
			schema := config.KnownKeys[key]
			typ := schema.Type.String()
			if len(schema.AllowedValues) > 0 {
				typ = strings.Join(schema.AllowedValues, "|")
			}
			fmt.Fprintf(out, "%-22s %-14s %s\n", key, cDim(typ), schema.Description)
		}
		return nil
	},
}

// Register adds the config command tree to root.
func Register(root *cobra.Command) {
	configCmd.GroupID = shared.GroupConfiguration
	root.AddCommand(configCmd)
}

func init() {
	configShowCmd.Flags().Bool("json", false, "Output in JSON format")
	configInitCmd.Flags().BoolP("project", "p", false, "Create the project config (.profilesync/config.yml)")
	configInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing config file")
	configSetCmd.Flags().BoolP("project", "p", false, "Write to the project config instead of the user config")

	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd, configSetCmd, configGetCmd, configKeysCmd)
}

// projectPath returns the --config flag value or the default project path.
func projectPath(cmd *cobra.Command) string {
	if path, err := cmd.Flags().GetString("config"); err == nil && path != "" {
		if abs, err := ResolvePath(path); err == nil {
			return abs
		}
		return path
	}
	return config.ProjectConfigPath()
}

func existsSuffix(path string) string {
	if _, err := os.Stat(path); err == nil {
		return " " + cGreen("(exists)")
	}
	return " " + cDim("(not found)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	asJSON, _ := cmd.Flags().GetBool("json")

	path := projectPath(cmd)
	cfg, err := config.LoadWithOptions(config.LoadOptions{ProjectConfigPath: path, WarningWriter: cmd.ErrOrStderr()})
	if err != nil {
		return clierrors.ConfigParseError(path, err)
	}

	userPath, _ := config.UserConfigPath()
	fmt.Fprintln(out, cCyan("Configuration Sources:"))
	fmt.Fprintf(out, "  user:    %s%s\n", userPath, existsSuffix(userPath))
	fmt.Fprintf(out, "  project: %s%s\n", path, existsSuffix(path))
	fmt.Fprintf(out, "  env:     %s*\n\n", config.EnvPrefix)

	if asJSON {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	return writeYAML(out, cfg)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}

// targetPath returns the config file a write command operates on.
func targetPath(cmd *cobra.Command) (path, label string, err error) {
	if project, _ := cmd.Flags().GetBool("project"); project {
		return projectPath(cmd), "project config", nil
	}
	path, err = config.UserConfigPath()
	if err != nil {
		return "", "", fmt.Errorf("locating user config: %w", err)
	}
	return path, "user config", nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	force, _ := cmd.Flags().GetBool("force")

	path, label, err := targetPath(cmd)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !force {
		fmt.Fprintf(out, "%s %s already exists at %s (use --force to overwrite)\n", cYellow("⚠"), label, path)
		return nil
	}
	if err := writeTemplate(path); err != nil {
		return clierrors.FileNotWritable(path, err)
	}
	fmt.Fprintf(out, "%s Created %s at %s\n", cGreen("✓"), label, path)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	path, label, err := targetPath(cmd)
	if err != nil {
		return err
	}
	if project, _ := cmd.Flags().GetBool("project"); project {
		if _, err := os.Stat(config.ProjectConfigDir()); err != nil && path == config.ProjectConfigPath() {
			return clierrors.NewConfigError("not in a project directory: "+config.ProjectConfigDir()+" not found",
				"Run 'profilesync config init --project' first")
		}
	}

	if err := config.SetConfigValue(path, key, value); err != nil {
		return clierrors.NewArgumentError(err.Error(), "Run 'profilesync config keys' to list valid keys")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Set %s = %s in %s\n", cGreen("✓"), key, value, label)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	key := args[0]
	if _, err := config.GetKeySchema(key); err != nil {
		return clierrors.NewArgumentError(err.Error(), "Run 'profilesync config keys' to list valid keys")
	}
	keyPath, err := config.ParseKeyPath(key)
	if err != nil {
		return clierrors.NewArgumentError(err.Error())
	}

	userPath, _ := config.UserConfigPath()
	sources := []struct{ label, path string }{
		{"project config", projectPath(cmd)},
		{"user config", userPath},
	}
	for _, src := range sources {
		node, err := readNode(src.path, keyPath)
		if err != nil {
			return clierrors.ConfigParseError(src.path, err)
		}
		if node != nil {
			fmt.Fprintf(out, "%s: %s %s\n", key, nodeValue(node), cDim("("+src.label+")"))
			return nil
		}
	}
	fmt.Fprintf(out, "%s: %v %s\n", key, config.KnownKeys[key].Default, cDim("(default, not set)"))
	return nil
}

// readNode returns the YAML node at keyPath in the file at path, or nil when
// the file or key is absent.
func readNode(path string, keyPath []string) (*yaml.Node, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return config.GetNestedValue(&root, keyPath), nil
}

func nodeValue(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}
	var items []string
	for _, c := range n.Content {
		items = append(items, c.Value)
	}
	return "[" + strings.Join(items, ", ") + "]"
}
