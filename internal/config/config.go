package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the full harness configuration, constructed once at startup and
// passed explicitly into every component.
type Config struct {
	Chronicle Chronicle `yaml:"chronicle"`
	Agent     Agent     `yaml:"agent"`
	Judge     Judge     `yaml:"judge"`
	Eval      Eval      `yaml:"eval"`
	Secrets   Secrets   `yaml:"secrets"`
	Results   Results   `yaml:"results"`
}

// Chronicle locates the tool under test and its instruction sources.
type Chronicle struct {
	Binary     string `yaml:"binary"`
	SkillsDir  string `yaml:"skills_dir"`
	SnippetMD  string `yaml:"snippet_md"`
	PromptsDir string `yaml:"prompts_dir"`
}

// Agent configures the external coding agent subprocess.
type Agent struct {
	Binary         string   `yaml:"binary"`
	Model          string   `yaml:"model"`
	MaxBudgetUSD   float64  `yaml:"max_budget_usd"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	AllowedTools   []string `yaml:"allowed_tools"`
}

// Judge configures LLM judging.
type Judge struct {
	Enabled      bool   `yaml:"enabled"`
	Model        string `yaml:"model"`
	MaxRetries   int    `yaml:"max_retries"`
	DiffMaxChars int    `yaml:"diff_max_chars"`
	PauseMS      int    `yaml:"pause_ms"`
}

// Eval selects what to run.
type Eval struct {
	TasksDir      string   `yaml:"tasks_dir"`
	Tasks         []string `yaml:"tasks"`
	PromptVariant string   `yaml:"prompt_variant"`
}

type Secrets struct {
	EnvFile string `yaml:"env_file"`
}

type Results struct {
	Dir string `yaml:"dir"`
}

// Load reads and validates a config file. Relative paths in the config are
// resolved against the config file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	base := filepath.Dir(path)
	resolvePaths(&cfg, base)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func resolvePaths(cfg *Config, base string) {
	resolve := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	resolve(&cfg.Chronicle.Binary)
	resolve(&cfg.Chronicle.SkillsDir)
	resolve(&cfg.Chronicle.SnippetMD)
	resolve(&cfg.Chronicle.PromptsDir)
	resolve(&cfg.Eval.TasksDir)
	resolve(&cfg.Secrets.EnvFile)
	resolve(&cfg.Results.Dir)
}

func validate(cfg *Config) error {
	if cfg.Chronicle.Binary == "" {
		return fmt.Errorf("chronicle.binary is required")
	}
	if cfg.Eval.TasksDir == "" {
		return fmt.Errorf("eval.tasks_dir is required")
	}
	if cfg.Eval.PromptVariant == "" {
		cfg.Eval.PromptVariant = "baseline"
	}
	if cfg.Agent.Binary == "" {
		cfg.Agent.Binary = "claude"
	}
	if cfg.Agent.Model == "" {
		return fmt.Errorf("agent.model is required")
	}
	if cfg.Agent.MaxBudgetUSD <= 0 {
		cfg.Agent.MaxBudgetUSD = 2.0
	}
	if cfg.Agent.TimeoutSeconds <= 0 {
		cfg.Agent.TimeoutSeconds = 600
	}
	if len(cfg.Agent.AllowedTools) == 0 {
		cfg.Agent.AllowedTools = []string{"Bash", "Read", "Write", "Edit", "Glob", "Grep"}
	}
	if cfg.Judge.Model == "" {
		cfg.Judge.Model = "claude-sonnet-4-5"
	}
	if cfg.Judge.MaxRetries <= 0 {
		cfg.Judge.MaxRetries = 3
	}
	if cfg.Judge.DiffMaxChars <= 0 {
		cfg.Judge.DiffMaxChars = 4000
	}
	if cfg.Judge.PauseMS < 0 {
		return fmt.Errorf("judge.pause_ms must not be negative")
	}
	if cfg.Judge.PauseMS == 0 {
		cfg.Judge.PauseMS = 500
	}
	if cfg.Results.Dir == "" {
		cfg.Results.Dir = "results"
	}
	return nil
}
