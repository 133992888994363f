package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/meili"
)

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change index settings",
		Long: "Settings are addressed by concern: " + concernNames() + `.
"settings" is the whole bundle and is merged on update; every other
concern replaces the stored value.`,
	}

	var wait bool

	get := &cobra.Command{
		Use:   "get <uid> [concern]",
		Short: "Print a settings concern as JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := concernArg(args)
			if err != nil {
				return err
			}
			raw, err := a.client.Index(args[0]).GetSetting(cmd.Context(), c)
			if err != nil {
				return fmt.Errorf("failed to get %s: %w", c.Name, err)
			}
			return a.print(cmd, raw, nil)
		},
	}

	set := &cobra.Command{
		Use:   "set <uid> <concern> <json>",
		Short: "Replace a concern, or merge into the settings bundle",
		Example: `  meili settings set movies stop-words '["the","a"]'
  meili settings set movies settings '{"distinctAttribute":"sku"}'`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := concernArg(args[:2])
			if err != nil {
				return err
			}
			value := json.RawMessage(args[2])
			if !json.Valid(value) {
				return fmt.Errorf("value for %s is not valid JSON", c.Name)
			}
			idx := a.client.Index(args[0])
			up, err := idx.UpdateSetting(cmd.Context(), c, value)
			if err != nil {
				return fmt.Errorf("failed to update %s: %w", c.Name, err)
			}
			return a.finish(cmd, idx, up, wait)
		},
	}
	set.Flags().BoolVar(&wait, "wait", false, "wait until the update is processed")

	reset := &cobra.Command{
		Use:   "reset <uid> [concern]",
		Short: "Restore a concern to its server default",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := concernArg(args)
			if err != nil {
				return err
			}
			idx := a.client.Index(args[0])
			up, err := idx.ResetSetting(cmd.Context(), c)
			if err != nil {
				return fmt.Errorf("failed to reset %s: %w", c.Name, err)
			}
			return a.finish(cmd, idx, up, wait)
		},
	}
	reset.Flags().BoolVar(&wait, "wait", false, "wait until the update is processed")

	cmd.AddCommand(get, set, reset)
	return cmd
}

// concernArg resolves the optional second argument, defaulting to the
// whole settings bundle.
func concernArg(args []string) (meili.SettingsConcern, error) {
	if len(args) < 2 {
		return meili.ConcernSettings, nil
	}
	c, ok := meili.ConcernByName(args[1])
	if !ok {
		return meili.SettingsConcern{}, fmt.Errorf("unknown settings concern %q (want one of %s)", args[1], concernNames())
	}
	return c, nil
}

func concernNames() string {
	names := make([]string, 0, len(meili.Concerns()))
	for _, c := range meili.Concerns() {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}
