package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/davarch/deploy-report/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

var (
	listOnlyEnabled  bool
	listOnlyDisabled bool
	listJSON         bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List pipelines from the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		items := make([]config.Pipeline, 0, len(cfg.Report.Pipelines))
		for _, p := range cfg.Report.Pipelines {
			if listOnlyEnabled && !p.Enabled {
				continue
			}
			if listOnlyDisabled && p.Enabled {
				continue
			}
			items = append(items, p)
		}

		if listJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}

		regions := strings.Join(cfg.Report.Regions, ",")
		if regions == "" {
			regions = "-"
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "PIPELINE\tENABLED\tREGIONS")
		for _, p := range items {
			_, _ = fmt.Fprintf(w, "%s\t%t\t%s\n", p.Name, p.Enabled, regions)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().BoolVar(&listOnlyEnabled, "enabled", false, "show only enabled pipelines")
	listCmd.Flags().BoolVar(&listOnlyDisabled, "disabled", false, "show only disabled pipelines")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON")

	listCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if listOnlyEnabled && listOnlyDisabled {
			return fmt.Errorf("flags --enabled and --disabled are mutually exclusive")
		}
		return nil
	}

	rootCmd.AddCommand(listCmd)
}
