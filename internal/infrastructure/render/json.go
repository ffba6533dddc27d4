package render

import (
	"encoding/json"
	"io"

	"github.com/davarch/deploy-report/internal/domain"
)

type JSONRecord struct {
	Region          string `json:"region"`
	Pipeline        string `json:"pipeline"`
	Branch          string `json:"branch"`
	DeployStage     string `json:"deploy_stage"`
	DeployAction    string `json:"deploy_action"`
	DeployStatus    string `json:"deploy_status"`
	PipelineStatus  string `json:"pipeline_status"`
	LastUpdate      string `json:"last_update"`
	ExecutionID     string `json:"execution_id"`
	RevisionID      string `json:"revision_id"`
	RevisionSummary string `json:"revision_summary"`
	RevisionURL     string `json:"revision_url"`
}

func ToJSON(r domain.ReportRecord) JSONRecord {
	return JSONRecord{
		Region:          r.Region,
		Pipeline:        r.Pipeline,
		Branch:          r.Branch,
		DeployStage:     r.DeployStage,
		DeployAction:    r.DeployAction,
		DeployStatus:    r.DeployStatus,
		PipelineStatus:  r.PipelineStatus,
		LastUpdate:      FormatTime(r.LastUpdate),
		ExecutionID:     r.ExecutionID,
		RevisionID:      r.RevisionID,
		RevisionSummary: r.RevisionSummary,
		RevisionURL:     r.RevisionURL,
	}
}

type JSONWriter struct {
	out io.Writer
}

func NewJSONWriter(w io.Writer) *JSONWriter { return &JSONWriter{out: w} }

func (j *JSONWriter) Write(records []domain.ReportRecord) error {
	items := make([]JSONRecord, 0, len(records))
	for _, r := range records {
		items = append(items, ToJSON(r))
	}

	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}
