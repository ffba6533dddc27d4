package cache_fs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/davarch/deploy-report/internal/domain"
	"github.com/davarch/deploy-report/internal/infrastructure/render"
)

// FSCache keeps the latest report as JSON for status bars and scripts.
type FSCache struct {
	path string
}

func New(path string) *FSCache { return &FSCache{path: path} }

type snapshotFile struct {
	Retrieved int64               `json:"retrieved"`
	Total     int                 `json:"total"`
	Failing   int                 `json:"failing"`
	Errors    int                 `json:"errors"`
	Records   []render.JSONRecord `json:"records"`
}

func (c *FSCache) Write(_ context.Context, s domain.Snapshot) error {
	if c.path == "" {
		return errors.New("cache path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}

	out := snapshotFile{
		Retrieved: s.Retrieved,
		Total:     len(s.Records),
		Records:   make([]render.JSONRecord, 0, len(s.Records)),
	}
	for _, r := range s.Records {
		switch {
		case r.IsError():
			out.Errors++
		case r.PipelineStatus == string(domain.ExecFailed) || r.DeployStatus == string(domain.ExecFailed):
			out.Failing++
		}
		out.Records = append(out.Records, render.ToJSON(r))
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
