package entities

import (
	"sort"
	"time"
)

// BuildEnvironment is the environment a build runs with.
// It is composed once per run and never mutated afterwards.
type BuildEnvironment struct {
	vars map[string]string
}

// NewBuildEnvironment copies vars into a new environment
func NewBuildEnvironment(vars map[string]string) BuildEnvironment {
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	return BuildEnvironment{vars: copied}
}

// Get returns the value of a variable
func (e BuildEnvironment) Get(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// Environ returns the environment in KEY=value form, sorted by key
func (e BuildEnvironment) Environ() []string {
	keys := make([]string, 0, len(e.vars))
	for k := range e.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+e.vars[k])
	}
	return env
}

// BuildRequest is everything needed to run one build
type BuildRequest struct {
	ProjectDir string
	JDK        ToolVersion
	BuildTool  ToolVersion
}

// BuildLog is the captured output of a build run
type BuildLog struct {
	Path      string
	Stdout    string
	Stderr    string
	CreatedAt time.Time
}

// Content returns stdout followed by stderr, as written to the log file
func (l *BuildLog) Content() string {
	return l.Stdout + l.Stderr
}

// CommandResult is the outcome of one launcher invocation. A non-zero exit
// is reported here rather than as an error.
type CommandResult struct {
	Success  bool
	ExitCode int // -1 when the process could not start or was killed
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}
