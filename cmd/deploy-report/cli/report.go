package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/davarch/deploy-report/internal/application"
	"github.com/davarch/deploy-report/internal/domain"
	"github.com/davarch/deploy-report/internal/infrastructure/logging"
	"github.com/davarch/deploy-report/internal/infrastructure/render"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	reportFormat string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print one row per region and pipeline",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true

		log := logging.New(verbose)
		defer func() { _ = log.Sync() }()

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		pipelines := cfg.EnabledPipelines()
		log.Debug("report",
			zap.Strings("regions", cfg.Report.Regions),
			zap.Strings("pipelines", pipelines),
			zap.String("profile", cfg.AWS.Profile),
			zap.Int("concurrency", cfg.Report.Concurrency),
		)

		out := io.Writer(os.Stdout)
		if reportOutput != "" && reportOutput != "-" {
			f, err := os.Create(reportOutput)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			out = f
		}

		w, err := newRecordWriter(reportFormat, out)
		if err != nil {
			return err
		}

		uc := application.NewReportUseCase(log, newFactory(cfg), reportOptions(cfg))
		rep, err := uc.Run(ctx, cfg.Report.Regions, pipelines)
		return emitReport(w, rep.Records, err)
	},
}

// emitReport always writes, so downstream consumers get at least a header
// even when no region could be reached.
func emitReport(w domain.RecordWriter, records []domain.ReportRecord, runErr error) error {
	if err := w.Write(records); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func newRecordWriter(format string, out io.Writer) (domain.RecordWriter, error) {
	switch format {
	case "csv":
		return render.NewCSVWriter(out), nil
	case "table":
		return render.NewTableWriter(out), nil
	case "json":
		return render.NewJSONWriter(out), nil
	default:
		return nil, fmt.Errorf("unknown format %q (csv, table, json)", format)
	}
}

func init() {
	reportCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		_, err := newRecordWriter(reportFormat, io.Discard)
		return err
	}

	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "csv", "output format: csv, table or json")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write to file instead of stdout")

	_ = reportCmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"csv", "table", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(reportCmd)
}
