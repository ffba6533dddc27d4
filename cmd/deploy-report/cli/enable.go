package cli

import (
	"fmt"
	"strings"

	"github.com/davarch/deploy-report/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

var enableCmd = &cobra.Command{
	Use:   "enable <pipeline>",
	Short: "Enable a pipeline in the config file, adding it when missing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(args[0], true)
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <pipeline>",
	Short: "Disable a pipeline in the config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(args[0], false)
	},
}

func setEnabled(name string, enabled bool) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	changed, found := toggle(&cfg, name, enabled)
	if !found && enabled {
		cfg.Report.Pipelines = append(cfg.Report.Pipelines, config.Pipeline{Name: name, Enabled: true})
		changed = true
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	if !changed {
		fmt.Printf("no change (pipeline %q already %s or not found)\n", name, state)
		return nil
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", state, name)
	return nil
}

func toggle(cfg *config.Config, name string, enabled bool) (changed, found bool) {
	for i := range cfg.Report.Pipelines {
		if cfg.Report.Pipelines[i].Name != name {
			continue
		}
		found = true
		if cfg.Report.Pipelines[i].Enabled != enabled {
			cfg.Report.Pipelines[i].Enabled = enabled
			changed = true
		}
	}
	return changed, found
}

func completePipelines(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := config.Load(cfgPath)
	if err != nil || len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	out := make([]string, 0, len(cfg.Report.Pipelines))
	for _, p := range cfg.Report.Pipelines {
		if p.Name != "" && strings.HasPrefix(p.Name, toComplete) {
			out = append(out, p.Name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	enableCmd.ValidArgsFunction = completePipelines
	disableCmd.ValidArgsFunction = completePipelines

	rootCmd.AddCommand(enableCmd, disableCmd)
}
