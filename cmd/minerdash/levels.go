package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/minerdash/minerdash/internal/levels"
	"github.com/minerdash/minerdash/internal/ui"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List subsystems and their configured log levels",
	Long: `List every backend subsystem with its default level and the level the
config file sets for it.

Configured levels are the dashboard's starting values and seed a backend
that has no state file yet.`,
	Args: cobra.NoArgs,
	RunE: runLevels,
}

var levelsSetCmd = &cobra.Command{
	Use:   "set <subsystem> <level>",
	Short: "Configure the level of one subsystem",
	Example: `  # By name
  minerdash levels set plotReader debug

  # By ordinal
  minerdash levels set socket 0`,
	Args: cobra.ExactArgs(2),
	RunE: runLevelsSet,
}

var levelsUnsetCmd = &cobra.Command{
	Use:   "unset <subsystem>",
	Short: "Drop a configured level so the default applies",
	Args:  cobra.ExactArgs(1),
	RunE:  runLevelsUnset,
}

func init() {
	levelsCmd.AddCommand(levelsSetCmd)
	levelsCmd.AddCommand(levelsUnsetCmd)
}

func runLevels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	state, err := cfg.LevelState()
	if err != nil {
		return err
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintHeader("Log levels", levelScale())
	p.Println(levelTable(state, cfg.Levels))
	return nil
}

// levelTable renders the catalog in rendering order, marking the
// subsystems the config file overrides
func levelTable(state levels.State, configured map[string]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ui.MutedColor)).
		Headers("SUBSYSTEM", "NAME", "DEFAULT", "LEVEL").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Foreground(ui.MutedColor).Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, s := range levels.Subsystems() {
		level := state[s.Key].String()
		if _, ok := configured[s.Key]; ok {
			level = ui.LevelStyle(state[s.Key]).Render(level + " *")
		}
		t.Row(s.Key, s.DisplayName, s.Default.String(), level)
	}
	return t.String()
}

func levelScale() string {
	names := make([]string, 0, levels.Count)
	for _, l := range levels.Levels() {
		names = append(names, l.String())
	}
	return strings.Join(names, " < ")
}

func runLevelsSet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.SetLevel(args[0], args[1]); err != nil {
		return err
	}
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s set to %s\n", args[0], cfg.Levels[args[0]])
	return nil
}

func runLevelsUnset(cmd *cobra.Command, args []string) error {
	s, ok := levels.Lookup(args[0])
	if !ok {
		return fmt.Errorf("%w: %q", levels.ErrUnknownSubsystem, args[0])
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	delete(cfg.Levels, s.Key)
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s back to its default (%s)\n", s.Key, s.Default)
	return nil
}
