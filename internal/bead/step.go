package bead

// Step is the planning-time description of one unit of work. It is rendered
// into the initial description/acceptance_criteria/design of its bead at
// creation time and is read-only during execution.
type Step struct {
	Title          string   `yaml:"title"`
	Tasks          []string `yaml:"tasks,omitempty"`
	Artifacts      []string `yaml:"artifacts,omitempty"`
	Tests          []string `yaml:"tests,omitempty"`
	Checkpoints    []string `yaml:"checkpoints,omitempty"`
	References     []string `yaml:"references,omitempty"` // decision ids or anchor tokens
	CommitTemplate string   `yaml:"commit_template,omitempty"`
}

// Decision is a recorded design decision referenced by steps.
type Decision struct {
	ID        string `yaml:"id"`
	Title     string `yaml:"title"`
	Status    string `yaml:"status"` // e.g. "decided"
	Rationale string `yaml:"rationale,omitempty"`
}
