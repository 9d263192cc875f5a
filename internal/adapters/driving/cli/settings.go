package cli

import (
	"bufio"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

var errNoSettings = errors.New("settings service not configured")

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage client settings",
	Long: `View and change the backend address and search defaults.

Settings are stored in ~/.sercha-ask/config.toml. Environment variables
such as SERCHA_ASK_BACKEND_URL take precedence over stored values.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Change one setting and save it.

Run 'sercha-ask settings show' to list the available keys.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the backend and search defaults.`,
	RunE:  runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if services.Settings == nil {
		return errNoSettings
	}

	values, err := services.Settings.Values()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w (run 'sercha-ask settings wizard' to fix)", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Current Settings")
	fmt.Fprintln(w, "================")

	section := ""
	for _, key := range services.Settings.Keys() {
		group, _, _ := strings.Cut(key, ".")
		if group != section {
			section = group
			fmt.Fprintf(w, "\n[%s]\n", section)
		}
		fmt.Fprintf(w, "  %-32s %s\n", key, values[key])
	}
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if services.Settings == nil {
		return errNoSettings
	}

	values, err := services.Settings.Values()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	value, ok := values[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, args[0])
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if services.Settings == nil {
		return errNoSettings
	}

	if err := services.Settings.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s set to %s\n", args[0], args[1])
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if services.Settings == nil {
		return errNoSettings
	}

	settings := currentSettings()
	w := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	fmt.Fprintln(w, "Sercha Ask Settings Wizard")
	fmt.Fprintln(w, "==========================")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Step 1: Backend")
	fmt.Fprintln(w, "---------------")
	fmt.Fprintf(w, "Enter backend URL [%s]: ", settings.Backend.URL)
	if url := readLine(reader); url != "" {
		settings.Backend.URL = url
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Step 2: Search Mode")
	fmt.Fprintln(w, "-------------------")
	modes := domain.SearchModes()
	current := slices.Index(modes, settings.Search.Mode) + 1
	for i, mode := range modes {
		fmt.Fprintf(w, "  %d. %s\n", i+1, mode.Description())
	}
	fmt.Fprintf(w, "\nEnter choice [%d]: ", current)
	settings.Search.Mode = modes[parseChoice(readLine(reader), len(modes), current)-1]
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Step 3: Answers")
	fmt.Fprintln(w, "---------------")
	fmt.Fprintf(w, "Stream answers as they are generated? [%s]: ", yesNo(settings.RAG.Stream))
	settings.RAG.Stream = parseYesNo(readLine(reader), settings.RAG.Stream)
	fmt.Fprintln(w)

	if err := services.Settings.Save(&settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	fmt.Fprintln(w, "Configuration Complete!")
	fmt.Fprintf(w, "Backend: %s\n", settings.Backend.URL)
	fmt.Fprintf(w, "Search mode: %s\n", settings.Search.Mode.Description())

	if services.CheckBackend != nil {
		if err := services.CheckBackend(cmd.Context(), settings.Backend); err != nil {
			fmt.Fprintf(w, "Warning: backend not reachable: %v\n", err)
		} else {
			fmt.Fprintln(w, "Backend reachable.")
		}
	}
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if defaultVal < 1 {
		defaultVal = 1
	}
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func parseYesNo(input string, defaultVal bool) bool {
	switch strings.ToLower(input) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return defaultVal
	}
}

func yesNo(b bool) string {
	if b {
		return "Y/n"
	}
	return "y/N"
}
