package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/ochairo/javabuild/internal/domain-adapters/gateways"
	"github.com/ochairo/javabuild/internal/domain-adapters/prompt"
	orchestrators "github.com/ochairo/javabuild/internal/domain-orchestrators"
	"github.com/ochairo/javabuild/internal/domain/entities"
	"github.com/ochairo/javabuild/internal/domain/interfaces"
	domaingateways "github.com/ochairo/javabuild/internal/domain/interfaces/gateways"
	"github.com/ochairo/javabuild/internal/external-adapters/console"
	"github.com/ochairo/javabuild/internal/external-adapters/yaml"
)

func runBuild(ctx context.Context, args []string, cio cliIO) int {
	cfg, err := parseConfig(cio.environ)
	if err != nil {
		fmt.Fprintf(cio.stderr, "Error: invalid configuration: %v\n", err)
		return exitError
	}

	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(cio.stderr)
	cfg.bindCommonFlags(fs)
	var (
		projectDir = fs.String("project", "", "Project directory (prompted when empty)")
		jdkKey     = fs.String("jdk", "", "JDK catalog key, e.g. 17 (prompted when empty)")
		mavenKey   = fs.String("maven", "", "Maven version, e.g. 3.9.6 (prompted when empty)")
		timeout    = fs.Duration("timeout", 0, "Build timeout, 0 for none")
	)
	fs.BoolVar(&cfg.Verify, "verify", cfg.Verify, "Verify archives against published checksums and signatures")

	fs.Usage = func() {
		fmt.Fprintf(cio.stderr, `Usage: javabuild [build] [options]

Choose a project, a JDK and a Maven version, download and extract them into
the cache, then run "mvn clean install -DskipTests" in the project.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(cio.stderr, `
Examples:
  javabuild
  javabuild --project ~/src/app --jdk 17 --maven 3.9.6
  javabuild build --verify --cache-dir /var/cache/javabuild
`)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(cio.stderr, "Error: unexpected arguments: %v\n", fs.Args())
		return exitUsage
	}

	out, logger := cfg.output(cio.stdout)
	palette := logger.Palette()
	fmt.Fprintln(out, palette.Cyan("javabuild: Maven build with a chosen JDK"))

	catalogRepo := yaml.NewCatalogRepository(cfg.Catalog)
	catalog, err := catalogRepo.GetCatalog(ctx)
	if err != nil {
		logger.Error(err.Error())
		return exitError
	}

	// Step 1: Ask for the project and the toolchain
	prompter := prompt.NewPrompter(cio.stdin, out, palette)
	req, err := askBuildRequest(prompter, catalog, *projectDir, *jdkKey, *mavenKey)
	if errors.Is(err, prompt.ErrCancelled) {
		return exitOK
	}
	if err != nil {
		logger.Error(err.Error())
		return exitError
	}

	// Step 2: Prepare the toolchain and build
	client := cfg.httpClient()
	var verifier domaingateways.ArchiveVerifier
	if cfg.Verify {
		verifier = gateways.NewArchiveVerifier(client, logger)
	}

	orch := orchestrators.NewBuildOrchestrator(
		catalogRepo,
		gateways.NewFetcher(gateways.WithHTTPClient(client), gateways.WithFetchLogger(logger)),
		gateways.NewExtractor(logger),
		gateways.NewBuildRunner(gateways.WithSessionOutput(cio.stdout, cio.stderr), gateways.WithRunnerLogger(logger)),
		gateways.NewBuildLogWriter(orchestrators.LogDir(cfg.CacheDir)),
		verifier,
		orchestrators.BuildOrchestratorConfig{
			CacheDir:     cfg.CacheDir,
			Verify:       cfg.Verify,
			BuildTimeout: *timeout,
			Environ:      func() []string { return cio.environ },
		},
		logger,
	)

	result, err := orch.Build(ctx, req)
	if err != nil {
		logger.Error(err.Error())
		return exitError
	}

	reportBuild(out, logger, palette, result)
	return exitOK
}

func askBuildRequest(p *prompt.Prompter, catalog *entities.Catalog, projectDir, jdkKey, mavenKey string) (entities.BuildRequest, error) {
	project, err := p.LocateProject(projectDir, catalog.BuildTool.Descriptor)
	if err != nil {
		return entities.BuildRequest{}, err
	}

	jdk, err := p.Select("Select the JDK:", catalog.JDKs, jdkKey)
	if err != nil {
		return entities.BuildRequest{}, err
	}

	tool, err := p.Select("Select the Maven version:", catalog.BuildTools, mavenKey)
	if err != nil {
		return entities.BuildRequest{}, err
	}

	return entities.BuildRequest{ProjectDir: project, JDK: jdk, BuildTool: tool}, nil
}

func reportBuild(out io.Writer, logger interfaces.Logger, palette console.Palette, result *orchestrators.BuildResult) {
	logger.Debug(result.GetBuildSummary())
	fmt.Fprintln(out, palette.Gray("Log: "+result.Log.Path))

	if result.Success {
		logger.Success("Build OK!", interfaces.F("duration", result.BuildDuration.Round(time.Millisecond)))
		return
	}

	logger.Error("Build failed (see log)", interfaces.F("exit_code", result.ExitCode))
	fmt.Fprintln(out, result.ErrorExcerpt)
}
