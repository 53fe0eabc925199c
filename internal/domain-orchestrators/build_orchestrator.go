// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ochairo/javabuild/internal/domain/entities"
	"github.com/ochairo/javabuild/internal/domain/interfaces"
	"github.com/ochairo/javabuild/internal/domain/interfaces/gateways"
	"github.com/ochairo/javabuild/internal/domain/interfaces/repositories"
	"github.com/ochairo/javabuild/internal/domain/services"
)

// Fetcher interface for downloading archives into the cache
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, cacheDir string) (archivePath string, hit bool, err error)
}

// Extractor interface for unpacking archives
type Extractor interface {
	Extract(archivePath, destDir string) (root string, err error)
}

// BuildRunner interface for invoking the toolchain
type BuildRunner interface {
	CheckVersions(ctx context.Context, tool entities.BuildToolSpec, env entities.BuildEnvironment)
	RunBuild(ctx context.Context, tool entities.BuildToolSpec, env entities.BuildEnvironment, projectDir string, timeout time.Duration) *entities.CommandResult
}

// LogWriter interface for persisting build output
type LogWriter interface {
	WriteLog(fileName string, log *entities.BuildLog) error
}

// BuildOrchestrator coordinates the prepare, compose and build workflow
type BuildOrchestrator struct {
	catalogRepo  repositories.CatalogRepository
	fetcher      Fetcher
	extractor    Extractor
	runner       BuildRunner
	logWriter    LogWriter
	verifier     gateways.ArchiveVerifier
	envService   *services.EnvironmentService
	logger       interfaces.Logger
	cacheDir     string
	verify       bool
	buildTimeout time.Duration
	environ      func() []string
	now          func() time.Time
}

// BuildOrchestratorConfig holds configuration for the orchestrator
type BuildOrchestratorConfig struct {
	CacheDir     string
	Verify       bool          // verify archives after fetching
	BuildTimeout time.Duration // zero means no timeout
	Environ      func() []string
	Now          func() time.Time
}

// NewBuildOrchestrator creates a new build orchestrator
func NewBuildOrchestrator(
	catalogRepo repositories.CatalogRepository,
	fetcher Fetcher,
	extractor Extractor,
	runner BuildRunner,
	logWriter LogWriter,
	verifier gateways.ArchiveVerifier,
	config BuildOrchestratorConfig,
	logger interfaces.Logger,
) *BuildOrchestrator {
	cacheDir := config.CacheDir
	if cacheDir == "" {
		cacheDir = "tooling"
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	environ := config.Environ
	if environ == nil {
		environ = os.Environ
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &BuildOrchestrator{
		catalogRepo:  catalogRepo,
		fetcher:      fetcher,
		extractor:    extractor,
		runner:       runner,
		logWriter:    logWriter,
		verifier:     verifier,
		envService:   services.NewEnvironmentService(),
		logger:       logger,
		cacheDir:     cacheDir,
		verify:       config.Verify,
		buildTimeout: config.BuildTimeout,
		environ:      environ,
		now:          now,
	}
}

// LogDir returns the directory build logs are written to under cacheDir
func LogDir(cacheDir string) string {
	return filepath.Join(cacheDir, "logs")
}

// BuildResult contains the result of a build operation
type BuildResult struct {
	Request       entities.BuildRequest
	JDK           *entities.CacheEntry
	BuildTool     *entities.CacheEntry
	Log           *entities.BuildLog
	ExitCode      int
	Success       bool
	ErrorExcerpt  string // tail of the build output, set on failure
	BuildDuration time.Duration
	TotalDuration time.Duration
}

// Build prepares both toolchain components and runs the build. A failing
// build is reported in the result; errors are returned only when the build
// could not be attempted or its log could not be written.
func (o *BuildOrchestrator) Build(ctx context.Context, req entities.BuildRequest) (*BuildResult, error) {
	startTime := time.Now()
	result := &BuildResult{Request: req}

	// Step 1: Load catalog
	catalog, err := o.catalogRepo.GetCatalog(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load catalog: %w", err)
	}

	// Step 2: Download and extract the JDK, then the build tool
	jdk, err := o.PrepareTool(ctx, req.JDK)
	if err != nil {
		return result, fmt.Errorf("failed to prepare JDK %s: %w", req.JDK.Key, err)
	}
	result.JDK = jdk

	tool, err := o.PrepareTool(ctx, req.BuildTool)
	if err != nil {
		return result, fmt.Errorf("failed to prepare %s %s: %w", catalog.BuildTool.Name, req.BuildTool.Key, err)
	}
	result.BuildTool = tool

	// Step 3: Compose the build environment
	env, err := o.envService.ComposeEnvironment(services.ComposeRequest{
		Base:     o.environ(),
		JDKRoot:  jdk.Root,
		JDKKey:   req.JDK.Key,
		ToolRoot: tool.Root,
		Catalog:  catalog,
	})
	if err != nil {
		return result, fmt.Errorf("failed to compose environment: %w", err)
	}

	// Step 4: Show toolchain versions, then build
	o.runner.CheckVersions(ctx, catalog.BuildTool, env)

	buildStart := time.Now()
	run := o.runner.RunBuild(ctx, catalog.BuildTool, env, req.ProjectDir, o.buildTimeout)
	result.BuildDuration = time.Since(buildStart)
	result.ExitCode = run.ExitCode
	result.Success = run.Success

	// Step 5: Write the log, whatever the outcome
	log := &entities.BuildLog{
		Stdout:    run.Stdout,
		Stderr:    run.Stderr,
		CreatedAt: o.now(),
	}
	name := services.BuildLogName(req.ProjectDir, jdk.Root, tool.Root, log.CreatedAt)
	if err := o.logWriter.WriteLog(name, log); err != nil {
		return result, fmt.Errorf("failed to write build log: %w", err)
	}
	result.Log = log

	if !result.Success {
		result.ErrorExcerpt = services.ErrorExcerpt(run.Stderr, run.Stdout, services.ErrorExcerptLength)
		if run.Error != nil {
			o.logger.Debug("Build command failed", interfaces.F("error", run.Error))
		}
	}

	result.TotalDuration = time.Since(startTime)
	return result, nil
}

// PrepareTool makes sure the archive for version is cached and extracted,
// and returns the installation root. With verification enabled a cached
// archive that fails its checks is removed.
func (o *BuildOrchestrator) PrepareTool(ctx context.Context, version entities.ToolVersion) (*entities.CacheEntry, error) {
	dir := filepath.Join(o.cacheDir, version.Kind.CacheDir())

	archivePath, hit, err := o.fetcher.Fetch(ctx, version.URL, dir)
	if err != nil {
		return nil, err
	}

	if o.verify {
		if err := o.verifyArchive(ctx, version, archivePath); err != nil {
			return nil, err
		}
	}

	root, err := o.extractor.Extract(archivePath, dir)
	if err != nil {
		return nil, err
	}

	return &entities.CacheEntry{
		Version:     version,
		ArchivePath: archivePath,
		ExtractDir:  dir,
		Root:        root,
		Hit:         hit,
	}, nil
}

func (o *BuildOrchestrator) verifyArchive(ctx context.Context, version entities.ToolVersion, archivePath string) error {
	if o.verifier == nil {
		return fmt.Errorf("verification requested but no verifier configured")
	}
	if !version.HasVerification() {
		o.logger.Warn("No verification data, archive not checked", interfaces.F("file", filepath.Base(archivePath)))
		return nil
	}

	if err := o.verifier.VerifyArchive(ctx, version, archivePath); err != nil {
		if rmErr := os.Remove(archivePath); rmErr != nil && !os.IsNotExist(rmErr) {
			o.logger.Warn("Failed to remove archive", interfaces.F("file", archivePath), interfaces.F("error", rmErr))
		}
		return fmt.Errorf("verification failed: %w", err)
	}
	return nil
}

// GetBuildSummary returns a human-readable summary of the build
func (r *BuildResult) GetBuildSummary() string {
	if r.JDK == nil || r.BuildTool == nil {
		return "Build not started"
	}

	status := "OK"
	if !r.Success {
		status = fmt.Sprintf("FAILED (exit code %d)", r.ExitCode)
	}

	logPath := ""
	if r.Log != nil {
		logPath = r.Log.Path
	}

	return fmt.Sprintf(`Build: %s
Project: %s
JDK: %s
Build tool: %s
Log: %s
Duration: %v`,
		status,
		r.Request.ProjectDir,
		filepath.Base(r.JDK.Root),
		filepath.Base(r.BuildTool.Root),
		logPath,
		r.BuildDuration.Round(time.Millisecond),
	)
}
