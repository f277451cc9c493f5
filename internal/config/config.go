package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Roles dispatched by the orchestrator, in sequence order.
const (
	RoleStrategist  = "strategist"
	RoleImplementer = "implementer"
	RoleVerifier    = "verifier"
	RoleFinalizer   = "finalizer"
)

// RequiredRoles is the full worker sequence for one step.
var RequiredRoles = []string{RoleStrategist, RoleImplementer, RoleVerifier, RoleFinalizer}

// Config is the root configuration for a loom project (.loom/config.yaml).
type Config struct {
	Version  int              `yaml:"version"`
	Agents   map[string]Agent `yaml:"agents"`
	RetryCap int              `yaml:"retry_cap,omitempty"` // implement<->verify cycles (0 = default 3)
	Store    Store            `yaml:"store,omitempty"`
}

// Store configures the backing bead store CLI.
type Store struct {
	Binary string `yaml:"binary,omitempty"` // defaults to "bd"
}

// Agent describes the CLI used to run one worker role.
type Agent struct {
	Role       string   `yaml:"role"`                  // strategist, implementer, verifier, finalizer
	Cmd        string   `yaml:"cmd"`                   // CLI command to spawn
	Args       []string `yaml:"args,omitempty"`        // extra CLI arguments
	Worker     string   `yaml:"worker,omitempty"`      // worker definition name (defaults to role)
	TimeoutSec int      `yaml:"timeout_sec,omitempty"` // timeout in seconds (0 = default 600)
	AutoAccept bool     `yaml:"auto_accept,omitempty"` // skip interactive permission prompts
}

// EffectiveArgs returns the final args for an agent CLI, injecting
// non-interactive and auto-accept flags for known tools. Users can always
// add these flags manually in args instead.
func (a Agent) EffectiveArgs() []string {
	args := make([]string, len(a.Args))
	copy(args, a.Args)

	switch a.Cmd {
	case "claude":
		if !containsAny(args, "-p", "--print") {
			args = appendFront(args, "--print")
		}
		if a.AutoAccept && !containsAny(args, "--dangerously-skip-permissions", "--permission-mode") {
			args = appendFront(args, "--dangerously-skip-permissions")
		}
	case "gemini":
		if a.AutoAccept && !containsAny(args, "-y", "--yolo") {
			args = appendFront(args, "--yolo")
		}
	case "codex":
		if a.AutoAccept && !containsAny(args, "--full-auto", "--approval-mode") {
			args = appendFront(args, "--full-auto")
		}
	}

	return args
}

// WorkerName returns the worker definition name for this agent.
func (a Agent) WorkerName() string {
	if a.Worker != "" {
		return a.Worker
	}
	return a.Role
}

// DefaultTimeout returns the effective dispatch timeout for the agent.
func (a Agent) DefaultTimeout() int {
	if a.TimeoutSec > 0 {
		return a.TimeoutSec
	}
	return 600
}

// EffectiveRetryCap returns the implement<->verify cycle bound.
func (c *Config) EffectiveRetryCap() int {
	if c.RetryCap > 0 {
		return c.RetryCap
	}
	return 3
}

// AgentByRole returns the first agent configured with the given role.
func (c *Config) AgentByRole(role string) (string, Agent, bool) {
	for name, a := range c.Agents {
		if a.Role == role {
			return name, a, true
		}
	}
	return "", Agent{}, false
}

// Load reads and parses the config file at the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config to the given path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns a starter config.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Agents:  map[string]Agent{},
	}
}

func (c *Config) validate() error {
	validRoles := map[string]bool{
		RoleStrategist:  true,
		RoleImplementer: true,
		RoleVerifier:    true,
		RoleFinalizer:   true,
	}
	for name, agent := range c.Agents {
		if agent.Role == "" {
			return fmt.Errorf("agent %q: role is required", name)
		}
		if !validRoles[agent.Role] {
			return fmt.Errorf("agent %q: unknown role %q", name, agent.Role)
		}
		if agent.Cmd == "" {
			return fmt.Errorf("agent %q: cmd is required", name)
		}
	}
	if c.RetryCap < 0 {
		return fmt.Errorf("retry_cap must be >= 0, got %d", c.RetryCap)
	}
	return nil
}

// containsAny checks if any of the targets exist in the slice.
func containsAny(slice []string, targets ...string) bool {
	for _, s := range slice {
		for _, t := range targets {
			if s == t {
				return true
			}
		}
	}
	return false
}

// appendFront inserts a value at the beginning of a slice.
func appendFront(slice []string, val string) []string {
	return append([]string{val}, slice...)
}
