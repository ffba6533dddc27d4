package domain

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// MockBackend serves canned responses keyed by pipeline name.
// An entry in Errs keyed by "<op>:<pipeline>" makes that call fail.
type MockBackend struct {
	Executions  map[string]*ExecutionSummary
	Definitions map[string]PipelineDefinition
	Actions     map[string][]ActionExecutionDetail
	Revisions   map[string][]ArtifactRevision
	Errs        map[string]error
	Panic       map[string]bool

	mu    sync.Mutex
	Calls []string
}

func (m *MockBackend) record(op, pipeline string) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, op+":"+pipeline)
	m.mu.Unlock()

	if m.Panic[op+":"+pipeline] {
		panic("mock panic in " + op)
	}
	return m.Errs[op+":"+pipeline]
}

func (m *MockBackend) LatestExecution(ctx context.Context, pipeline string) (*ExecutionSummary, error) {
	if err := m.record("LatestExecution", pipeline); err != nil {
		return nil, err
	}
	return m.Executions[pipeline], nil
}

func (m *MockBackend) PipelineDefinition(ctx context.Context, pipeline string) (PipelineDefinition, error) {
	if err := m.record("PipelineDefinition", pipeline); err != nil {
		return PipelineDefinition{}, err
	}
	return m.Definitions[pipeline], nil
}

func (m *MockBackend) ActionExecutions(ctx context.Context, pipeline, executionID string) ([]ActionExecutionDetail, error) {
	if err := m.record("ActionExecutions", pipeline); err != nil {
		return nil, err
	}
	return m.Actions[pipeline], nil
}

func (m *MockBackend) ArtifactRevisions(ctx context.Context, pipeline, executionID string) ([]ArtifactRevision, error) {
	if err := m.record("ArtifactRevisions", pipeline); err != nil {
		return nil, err
	}
	return m.Revisions[pipeline], nil
}

func (m *MockBackend) CallCount(pipeline string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.Calls {
		if strings.HasSuffix(c, ":"+pipeline) {
			n++
		}
	}
	return n
}

type MockFactory struct {
	Backends map[string]PipelineBackend
	Errs     map[string]error
}

func (f *MockFactory) ForRegion(ctx context.Context, region string) (PipelineBackend, error) {
	if err := f.Errs[region]; err != nil {
		return nil, err
	}
	b, ok := f.Backends[region]
	if !ok {
		return nil, errors.New("no backend for region " + region)
	}
	return b, nil
}

type MockNotifier struct {
	Messages []string
	Err      error
}

func (n *MockNotifier) Notify(ctx context.Context, title, body, url string) error {
	n.Messages = append(n.Messages, title+"|"+body+"|"+url)
	return n.Err
}

type MockCache struct {
	Snapshots []Snapshot
	Err       error
}

func (c *MockCache) Write(ctx context.Context, s Snapshot) error {
	if c.Err != nil {
		return c.Err
	}
	c.Snapshots = append(c.Snapshots, s)
	return nil
}
