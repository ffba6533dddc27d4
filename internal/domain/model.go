package domain

import (
	"strings"
	"time"
)

type ExecutionStatus string

const (
	ExecSucceeded  ExecutionStatus = "Succeeded"
	ExecFailed     ExecutionStatus = "Failed"
	ExecInProgress ExecutionStatus = "InProgress"
	ExecCancelled  ExecutionStatus = "Cancelled"
	ExecSuperseded ExecutionStatus = "Superseded"
	ExecStopped    ExecutionStatus = "Stopped"
	ExecStopping   ExecutionStatus = "Stopping"
)

const (
	DefaultDeployStage = "Deploy"

	BranchUnknown     = "unknown"
	BranchError       = "error"
	StatusUnknown     = "unknown"
	StatusNoExecution = "NoExecution"
	errorStatusPrefix = "ERROR: "
)

type Action struct {
	Name          string
	Category      string
	Configuration map[string]string
}

type Stage struct {
	Name    string
	Actions []Action
}

type PipelineDefinition struct {
	Name   string
	Stages []Stage
}

type ExecutionSummary struct {
	ExecutionID    string
	Status         ExecutionStatus
	LastUpdateTime time.Time
}

type ActionExecutionDetail struct {
	StageName      string
	ActionName     string
	Status         string
	LastUpdateTime time.Time
}

type ArtifactRevision struct {
	RevisionID      string
	RevisionSummary string
	RevisionURL     string
}

type Target struct {
	Region   string
	Pipeline string
}

// ReportRecord is one output row. Empty strings and the sentinels above stand
// in for absent values so every row has the same shape.
type ReportRecord struct {
	Region          string
	Pipeline        string
	Branch          string
	DeployStage     string
	DeployAction    string
	DeployStatus    string
	PipelineStatus  string
	LastUpdate      time.Time
	ExecutionID     string
	RevisionID      string
	RevisionSummary string
	RevisionURL     string
}

func NoExecutionRecord(t Target, deployStage string) ReportRecord {
	return ReportRecord{
		Region:         t.Region,
		Pipeline:       t.Pipeline,
		Branch:         BranchUnknown,
		DeployStage:    deployStage,
		PipelineStatus: StatusNoExecution,
	}
}

func ErrorRecord(t Target, deployStage, kind, message string) ReportRecord {
	return ReportRecord{
		Region:          t.Region,
		Pipeline:        t.Pipeline,
		Branch:          BranchError,
		DeployStage:     deployStage,
		PipelineStatus:  errorStatusPrefix + kind,
		RevisionSummary: message,
	}
}

func (r ReportRecord) Key() Target {
	return Target{Region: r.Region, Pipeline: r.Pipeline}
}

func (r ReportRecord) IsError() bool {
	return r.Branch == BranchError && strings.HasPrefix(r.PipelineStatus, errorStatusPrefix)
}

type Snapshot struct {
	Records   []ReportRecord
	Retrieved int64
}
