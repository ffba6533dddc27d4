package render

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/davarch/deploy-report/internal/domain"
)

var Header = []string{
	"region",
	"pipeline",
	"branch",
	"deploy_stage",
	"deploy_action",
	"deploy_status",
	"pipeline_status",
	"last_update",
	"execution_id",
	"revision_id",
	"revision_summary",
	"revision_url",
}

const timeLayout = time.RFC3339

// CSVWriter quotes every field and doubles embedded quotes.
// encoding/csv only quotes when needed, so rows are written by hand.
type CSVWriter struct {
	w           *bufio.Writer
	wroteHeader bool
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: bufio.NewWriter(w)}
}

func (cw *CSVWriter) Write(records []domain.ReportRecord) error {
	if !cw.wroteHeader {
		if err := cw.writeRow(Header); err != nil {
			return err
		}
		cw.wroteHeader = true
	}
	for _, r := range records {
		if err := cw.writeRow(Row(r)); err != nil {
			return err
		}
	}
	return cw.w.Flush()
}

func (cw *CSVWriter) writeRow(fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := cw.w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := cw.w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := cw.w.WriteString("\n")
	return err
}

// Row lays a record out in header order.
func Row(r domain.ReportRecord) []string {
	return []string{
		r.Region,
		r.Pipeline,
		r.Branch,
		r.DeployStage,
		r.DeployAction,
		r.DeployStatus,
		r.PipelineStatus,
		FormatTime(r.LastUpdate),
		r.ExecutionID,
		r.RevisionID,
		r.RevisionSummary,
		r.RevisionURL,
	}
}

func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// ParseCSV reads rows written by CSVWriter back into records.
func ParseCSV(r io.Reader) ([]domain.ReportRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("missing header")
	}
	for i, h := range Header {
		if rows[0][i] != h {
			return nil, fmt.Errorf("unexpected header column %d: %q", i, rows[0][i])
		}
	}

	out := make([]domain.ReportRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		rec := domain.ReportRecord{
			Region:          row[0],
			Pipeline:        row[1],
			Branch:          row[2],
			DeployStage:     row[3],
			DeployAction:    row[4],
			DeployStatus:    row[5],
			PipelineStatus:  row[6],
			ExecutionID:     row[8],
			RevisionID:      row[9],
			RevisionSummary: row[10],
			RevisionURL:     row[11],
		}
		if row[7] != "" {
			t, err := time.Parse(timeLayout, row[7])
			if err != nil {
				return nil, fmt.Errorf("row %d: last_update: %w", n+2, err)
			}
			rec.LastUpdate = t
		}
		out = append(out, rec)
	}
	return out, nil
}
