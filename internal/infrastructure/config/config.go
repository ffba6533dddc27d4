package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const envPrefix = "DEPLOY_REPORT"

// Pipeline accepts either a bare name or a {name, enabled} mapping.
// A bare name is enabled.
type Pipeline struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
}

func (p *Pipeline) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		p.Name = n.Value
		p.Enabled = true
		return nil
	}

	var raw struct {
		Name    string `yaml:"name"`
		Enabled *bool  `yaml:"enabled"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}
	p.Name = raw.Name
	p.Enabled = raw.Enabled == nil || *raw.Enabled
	return nil
}

type Retry struct {
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	MaxElapsed      time.Duration `yaml:"max_elapsed"`
	MaxRetries      uint64        `yaml:"max_retries"`
}

type Config struct {
	AWS struct {
		Profile string        `yaml:"profile,omitempty"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"aws"`

	Report struct {
		Pipelines   []Pipeline `yaml:"pipelines"`
		Regions     []string   `yaml:"regions"`
		DeployStage string     `yaml:"deploy_stage,omitempty"`
		Concurrency int        `yaml:"concurrency"`
		Retry       Retry      `yaml:"retry"`
	} `yaml:"report"`

	Watch struct {
		Interval     time.Duration `yaml:"interval"`
		SnapshotPath string        `yaml:"snapshot_path"`
		PauseFile    string        `yaml:"pause_file"`
	} `yaml:"watch"`
}

type envOverrides struct {
	Profile      string        `envconfig:"PROFILE"`
	Timeout      time.Duration `envconfig:"TIMEOUT"`
	Pipelines    []string      `envconfig:"PIPELINES"`
	Regions      []string      `envconfig:"REGIONS"`
	DeployStage  string        `envconfig:"DEPLOY_STAGE"`
	Concurrency  int           `envconfig:"CONCURRENCY"`
	Interval     time.Duration `envconfig:"INTERVAL"`
	SnapshotPath string        `envconfig:"SNAPSHOT_PATH"`
}

func defaults() Config {
	var c Config
	c.AWS.Timeout = 30 * time.Second
	c.Report.Concurrency = 4
	c.Report.Retry = Retry{
		InitialInterval: 300 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		MaxElapsed:      10 * time.Second,
		MaxRetries:      3,
	}
	c.Watch.Interval = time.Minute
	c.Watch.SnapshotPath = "~/.cache/deploy_report.json"
	c.Watch.PauseFile = "~/.cache/deploy_report_paused"
	return c
}

// Load reads the YAML file at path (a missing file is not an error) and
// applies DEPLOY_REPORT_* environment overrides on top.
func Load(path string) (Config, error) {
	c := defaults()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return c, err
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return c, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return c, err
	}
	c.applyEnv(env)
	c.normalize()

	return c, nil
}

func (c *Config) applyEnv(env envOverrides) {
	if env.Profile != "" {
		c.AWS.Profile = env.Profile
	}
	if env.Timeout > 0 {
		c.AWS.Timeout = env.Timeout
	}
	if ps := trimAll(env.Pipelines); len(ps) > 0 {
		c.SetPipelines(ps)
	}
	if rs := trimAll(env.Regions); len(rs) > 0 {
		c.Report.Regions = rs
	}
	if env.DeployStage != "" {
		c.Report.DeployStage = env.DeployStage
	}
	if env.Concurrency > 0 {
		c.Report.Concurrency = env.Concurrency
	}
	if env.Interval > 0 {
		c.Watch.Interval = env.Interval
	}
	if env.SnapshotPath != "" {
		c.Watch.SnapshotPath = env.SnapshotPath
	}
}

func (c *Config) normalize() {
	d := defaults()

	if c.AWS.Timeout <= 0 {
		c.AWS.Timeout = d.AWS.Timeout
	}
	if c.Report.Concurrency <= 0 {
		c.Report.Concurrency = d.Report.Concurrency
	}
	if c.Report.Retry.InitialInterval <= 0 {
		c.Report.Retry.InitialInterval = d.Report.Retry.InitialInterval
	}
	if c.Report.Retry.MaxInterval <= 0 {
		c.Report.Retry.MaxInterval = d.Report.Retry.MaxInterval
	}
	if c.Report.Retry.MaxElapsed <= 0 {
		c.Report.Retry.MaxElapsed = d.Report.Retry.MaxElapsed
	}
	if c.Watch.Interval <= 0 {
		c.Watch.Interval = d.Watch.Interval
	}
	c.Report.Regions = trimAll(c.Report.Regions)
	c.Watch.SnapshotPath = expandHome(c.Watch.SnapshotPath)
	c.Watch.PauseFile = expandHome(c.Watch.PauseFile)
}

// SetPipelines replaces the pipeline list with enabled entries.
func (c *Config) SetPipelines(names []string) {
	ps := make([]Pipeline, 0, len(names))
	for _, n := range names {
		ps = append(ps, Pipeline{Name: n, Enabled: true})
	}
	c.Report.Pipelines = ps
}

func (c Config) EnabledPipelines() []string {
	var out []string
	for _, p := range c.Report.Pipelines {
		if p.Enabled && p.Name != "" {
			out = append(out, p.Name)
		}
	}
	return out
}

func (c Config) Validate() error {
	if len(c.EnabledPipelines()) == 0 {
		return errors.New("no pipelines configured (flags, YAML or DEPLOY_REPORT_PIPELINES)")
	}
	if len(c.Report.Regions) == 0 {
		return errors.New("no regions configured (flags, YAML or DEPLOY_REPORT_REGIONS)")
	}
	return nil
}

func Save(path string, c Config) error {
	if path == "" {
		return errors.New("empty config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	lockFile := path + ".lock"
	lf, err := os.OpenFile(lockFile, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}
	defer func() { _ = lf.Close() }()

	if runtime.GOOS != "windows" {
		if err := syscall.Flock(int(lf.Fd()), syscall.LOCK_EX); err != nil {
			return err
		}
		defer func() { _ = syscall.Flock(int(lf.Fd()), syscall.LOCK_UN) }()
	}

	b, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if h, _ := os.UserHomeDir(); h != "" {
			return h + p[1:]
		}
	}
	return p
}
