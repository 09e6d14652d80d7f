package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/solardome/answer-highlight/internal/highlight"
	"github.com/solardome/answer-highlight/internal/schema"
)

const (
	EnvOutDir      = "ANSWER_HIGHLIGHT_OUT_DIR"
	EnvConcurrency = "ANSWER_HIGHLIGHT_CONCURRENCY"
	EnvTitle       = "ANSWER_HIGHLIGHT_TITLE"
)

type Config struct {
	Render RenderConfig `json:"render"`
	Run    RunConfig    `json:"run"`
	Watch  WatchConfig  `json:"watch"`
}

type RenderConfig struct {
	ZIndexCeiling int    `json:"z_index_ceiling"`
	FragmentOnly  bool   `json:"fragment_only"`
	Title         string `json:"title"`
	WriteHTML     bool   `json:"write_html"`
}

type RunConfig struct {
	Concurrency int    `json:"concurrency"`
	OutDir      string `json:"out_dir"`
}

type WatchConfig struct {
	Debounce string `json:"debounce"`
}

func Default() Config {
	return Config{
		Render: RenderConfig{
			ZIndexCeiling: highlight.DefaultZIndexCeiling,
			Title:         "Graded answers",
			WriteHTML:     true,
		},
		Run: RunConfig{
			Concurrency: 4,
			OutDir:      "out",
		},
		Watch: WatchConfig{Debounce: "300ms"},
	}
}

// Load reads a YAML config file over the defaults. Keys absent from the file
// keep their default value; unknown or duplicate keys are errors.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config load failed: %w", err)
	}
	if err := schema.DecodeYAML(path, b, validateConfigYAML, &cfg); err != nil {
		return cfg, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides settings from the environment through lookup
// (os.LookupEnv in production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvOutDir); ok && strings.TrimSpace(v) != "" {
		c.Run.OutDir = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvTitle); ok && strings.TrimSpace(v) != "" {
		c.Render.Title = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvConcurrency); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvConcurrency, err)
		}
		c.Run.Concurrency = n
	}
	return c.Validate()
}

func (c Config) Validate() error {
	var errs []string
	if c.Run.Concurrency < 1 {
		errs = append(errs, "run.concurrency must be at least 1")
	}
	if strings.TrimSpace(c.Run.OutDir) == "" {
		errs = append(errs, "run.out_dir must not be empty")
	}
	if _, err := c.DebounceDuration(); err != nil {
		errs = append(errs, "watch.debounce: "+err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c Config) DebounceDuration() (time.Duration, error) {
	if strings.TrimSpace(c.Watch.Debounce) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return d, nil
}

func validateConfigYAML(node *yaml.Node) []schema.Error {
	errs := []schema.Error{}
	m := schema.Map(node, "config", []string{"render", "run", "watch"}, nil, &errs)
	if v, ok := m["render"]; ok {
		schema.Map(v, "config.render", []string{"z_index_ceiling", "fragment_only", "title", "write_html"}, nil, &errs)
	}
	if v, ok := m["run"]; ok {
		schema.Map(v, "config.run", []string{"concurrency", "out_dir"}, nil, &errs)
	}
	if v, ok := m["watch"]; ok {
		schema.Map(v, "config.watch", []string{"debounce"}, nil, &errs)
	}
	return errs
}
