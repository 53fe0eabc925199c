package gateways

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ochairo/javabuild/internal/domain/entities"
	"github.com/ochairo/javabuild/internal/domain/interfaces"
)

// BuildRunner invokes the JDK and build tool launchers
type BuildRunner struct {
	logger interfaces.Logger
	stdout io.Writer
	stderr io.Writer
	goos   string
}

// BuildRunnerOption configures a BuildRunner
type BuildRunnerOption func(*BuildRunner)

// WithSessionOutput sets where uncaptured (diagnostic) command output goes
func WithSessionOutput(stdout, stderr io.Writer) BuildRunnerOption {
	return func(r *BuildRunner) {
		if stdout != nil {
			r.stdout = stdout
		}
		if stderr != nil {
			r.stderr = stderr
		}
	}
}

// WithRunnerLogger sets the logger
func WithRunnerLogger(logger interfaces.Logger) BuildRunnerOption {
	return func(r *BuildRunner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewBuildRunner creates a new build runner
func NewBuildRunner(opts ...BuildRunnerOption) *BuildRunner {
	r := &BuildRunner{
		logger: &interfaces.NoOpLogger{},
		stdout: os.Stdout,
		stderr: os.Stderr,
		goos:   runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CommandConfig contains configuration for executing a launcher
type CommandConfig struct {
	Launcher    string // executable name, resolved against the PATH of Env
	Args        []string
	WorkingDir  string
	Env         entities.BuildEnvironment
	Timeout     time.Duration // zero means no timeout
	Capture     bool          // capture output instead of streaming it to the session
	Description string
}

// Execute runs a launcher with the given configuration. Failures of the
// command itself are reported in the result, never as a panic or exit.
func (r *BuildRunner) Execute(ctx context.Context, config CommandConfig) *entities.CommandResult {
	startTime := time.Now()
	result := &entities.CommandResult{}

	execCtx := ctx
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	launcher, err := r.ResolveLauncher(config.Launcher, config.Env)
	if err != nil {
		result.Error = err
		result.ExitCode = -1
		result.Stderr = err.Error() + "\n"
		result.Duration = time.Since(startTime)
		return result
	}

	//nolint:gosec // G204: launcher comes from the extracted toolchain
	cmd := exec.CommandContext(execCtx, launcher, config.Args...)
	cmd.Dir = config.WorkingDir
	cmd.Env = config.Env.Environ()
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	if config.Capture {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		cmd.Stdout = r.stdout
		cmd.Stderr = r.stderr
	}

	if config.Description != "" {
		r.logger.Info(config.Description)
	}

	err = cmd.Run()
	result.Duration = time.Since(startTime)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		result.Error = err
		var exitErr *exec.ExitError
		//nolint:gocritic // ifElseChain: checking different error types, not suitable for switch
		if execCtx.Err() == context.DeadlineExceeded {
			result.Error = fmt.Errorf("command timeout after %v", config.Timeout)
			result.ExitCode = -1
		} else if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		return result
	}

	result.Success = true
	result.ExitCode = 0
	return result
}

// CheckVersions prints the JDK and build tool versions to the session.
// The output is diagnostic only; failures are logged and ignored.
func (r *BuildRunner) CheckVersions(ctx context.Context, tool entities.BuildToolSpec, env entities.BuildEnvironment) {
	checks := []CommandConfig{
		{Launcher: "java", Args: []string{"-version"}, Env: env},
		{Launcher: tool.Launcher, Args: tool.VersionArgs, Env: env},
	}

	for _, check := range checks {
		result := r.Execute(ctx, check)
		if !result.Success {
			r.logger.Warn("Version check failed",
				interfaces.F("launcher", check.Launcher),
				interfaces.F("error", result.Error))
		}
	}
}

// RunBuild runs the build tool in projectDir and captures its output
func (r *BuildRunner) RunBuild(
	ctx context.Context,
	tool entities.BuildToolSpec,
	env entities.BuildEnvironment,
	projectDir string,
	timeout time.Duration,
) *entities.CommandResult {
	return r.Execute(ctx, CommandConfig{
		Launcher:    tool.Launcher,
		Args:        tool.BuildArgs,
		WorkingDir:  projectDir,
		Env:         env,
		Timeout:     timeout,
		Capture:     true,
		Description: strings.Join(append([]string{tool.Launcher}, tool.BuildArgs...), " "),
	})
}

// ResolveLauncher finds name in the PATH of env rather than the PATH of the
// current process, so the freshly composed toolchain is the one invoked
func (r *BuildRunner) ResolveLauncher(name string, env entities.BuildEnvironment) (string, error) {
	if name == "" {
		return "", fmt.Errorf("launcher name is empty")
	}
	if filepath.IsAbs(name) {
		return name, nil
	}

	pathValue, _ := lookupEnv(env, "PATH", r.goos == "windows")
	for _, dir := range filepath.SplitList(pathValue) {
		if dir == "" {
			continue
		}
		for _, candidate := range r.candidates(name) {
			full := filepath.Join(dir, candidate)
			if isExecutable(full, r.goos) {
				return full, nil
			}
		}
	}

	return "", fmt.Errorf("launcher %q not found on build PATH", name)
}

func (r *BuildRunner) candidates(name string) []string {
	if r.goos != "windows" || filepath.Ext(name) != "" {
		return []string{name}
	}
	return []string{name + ".exe", name + ".cmd", name + ".bat", name}
}

// lookupEnv reads key from env, ignoring case when foldCase is set
func lookupEnv(env entities.BuildEnvironment, key string, foldCase bool) (string, bool) {
	if v, ok := env.Get(key); ok || !foldCase {
		return v, ok
	}
	for _, kv := range env.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

func isExecutable(path, goos string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if goos == "windows" {
		return true
	}
	return info.Mode().Perm()&0111 != 0
}
