package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/davarch/deploy-report/internal/domain"
	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
	runColor  = color.New(color.FgYellow)
	dimColor  = color.New(color.FgHiBlack)
)

// TableWriter prints an aligned, human-readable report.
type TableWriter struct {
	out      io.Writer
	colorize bool
}

func NewTableWriter(w io.Writer) *TableWriter {
	tw := &TableWriter{out: w}
	if f, ok := w.(*os.File); ok {
		tw.colorize = term.IsTerminal(int(f.Fd())) && !color.NoColor
	}
	return tw
}

// Write keeps the colored statuses in the trailing cell, which tabwriter
// does not align, so escape codes cannot skew column widths.
func (t *TableWriter) Write(records []domain.ReportRecord) error {
	width := len("DEPLOY")
	for _, r := range records {
		width = max(width, len(orDash(r.DeployStatus)))
	}

	w := tabwriter.NewWriter(t.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "REGION\tPIPELINE\tBRANCH\tSTAGE\tUPDATED\tREVISION\t%-*s  PIPELINE\n", width, "DEPLOY")
	for _, r := range records {
		rev := r.RevisionID
		if len(rev) > 8 {
			rev = rev[:8]
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s  %s\n",
			r.Region, r.Pipeline, r.Branch, r.DeployStage,
			orDash(FormatTime(r.LastUpdate)), orDash(rev),
			t.status(fmt.Sprintf("%-*s", width, orDash(r.DeployStatus))),
			t.status(orDash(r.PipelineStatus)))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, r := range records {
		if r.IsError() {
			_, _ = fmt.Fprintf(t.out, "%s/%s: %s\n", r.Region, r.Pipeline, r.RevisionSummary)
		}
	}
	return nil
}

func (t *TableWriter) status(s string) string {
	if !t.colorize {
		return s
	}
	switch strings.TrimSpace(s) {
	case string(domain.ExecSucceeded):
		return okColor.Sprint(s)
	case string(domain.ExecFailed):
		return failColor.Sprint(s)
	case string(domain.ExecInProgress), string(domain.ExecStopping):
		return runColor.Sprint(s)
	default:
		if strings.HasPrefix(s, "ERROR:") {
			return failColor.Sprint(s)
		}
		return dimColor.Sprint(s)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
