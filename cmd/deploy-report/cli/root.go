package cli

import (
	"fmt"
	"os"

	"github.com/davarch/deploy-report/internal/application"
	"github.com/davarch/deploy-report/internal/infrastructure/codepipeline_aws"
	"github.com/davarch/deploy-report/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	verbose bool
	version = "dev"

	flagPipelines   []string
	flagRegions     []string
	flagProfile     string
	flagDeployStage string
	flagConcurrency int
)

var rootCmd = &cobra.Command{
	Use:   "deploy-report",
	Short: "Latest deployment status of CodePipeline pipelines across regions",
	// Execute prints the error once
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "deploy-report.yaml", "path to config file (optional)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	pf.StringSliceVar(&flagPipelines, "pipelines", nil, "pipeline names (comma separated or repeated)")
	pf.StringSliceVar(&flagRegions, "regions", nil, "AWS regions (comma separated or repeated)")
	pf.StringVar(&flagProfile, "profile", "", "AWS shared config profile")
	pf.StringVar(&flagDeployStage, "deploy-stage", "", "deploy stage name (default: auto-detect, then \"Deploy\")")
	pf.IntVar(&flagConcurrency, "concurrency", 0, "pipelines resolved in parallel (1 = sequential)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(*cobra.Command, []string) {
			fmt.Println(version)
		},
	})

	comp := &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion scripts",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(os.Stdout)
			case "zsh":
				return rootCmd.GenZshCompletion(os.Stdout)
			case "fish":
				return rootCmd.GenFishCompletion(os.Stdout, true)
			case "powershell":
				return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	rootCmd.AddCommand(comp)
}

// loadConfig reads the config file and environment, then lets flags win.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return cfg, err
	}
	applyFlags(&cfg)
	return cfg, cfg.Validate()
}

func applyFlags(cfg *config.Config) {
	if len(flagPipelines) > 0 {
		cfg.SetPipelines(flagPipelines)
	}
	if len(flagRegions) > 0 {
		cfg.Report.Regions = flagRegions
	}
	if flagProfile != "" {
		cfg.AWS.Profile = flagProfile
	}
	if flagDeployStage != "" {
		cfg.Report.DeployStage = flagDeployStage
	}
	if flagConcurrency > 0 {
		cfg.Report.Concurrency = flagConcurrency
	}
}

func newFactory(cfg config.Config) *codepipeline_aws.Factory {
	r := cfg.Report.Retry
	return codepipeline_aws.NewFactory(cfg.AWS.Profile, cfg.AWS.Timeout, codepipeline_aws.RetryPolicy{
		InitialInterval: r.InitialInterval,
		MaxInterval:     r.MaxInterval,
		MaxElapsed:      r.MaxElapsed,
		MaxRetries:      r.MaxRetries,
	})
}

func reportOptions(cfg config.Config) application.ReportOptions {
	return application.ReportOptions{
		DeployStage: cfg.Report.DeployStage,
		Concurrency: cfg.Report.Concurrency,
	}
}
