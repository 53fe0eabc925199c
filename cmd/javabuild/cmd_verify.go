package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/ochairo/javabuild/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/javabuild/internal/domain-orchestrators"
	"github.com/ochairo/javabuild/internal/domain/interfaces"
	"github.com/ochairo/javabuild/internal/external-adapters/yaml"
)

func runVerify(ctx context.Context, args []string, cio cliIO) int {
	cfg, err := parseConfig(cio.environ)
	if err != nil {
		fmt.Fprintf(cio.stderr, "Error: invalid configuration: %v\n", err)
		return exitError
	}

	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(cio.stderr)
	cfg.bindCommonFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(cio.stderr, `Usage: javabuild verify [options]

Check every cached archive against the SHA-256 checksum and OpenPGP
signature published for it. Archives are never downloaded or removed.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(cio.stderr, `
Examples:
  javabuild verify
  javabuild verify --cache-dir /var/cache/javabuild
`)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	out, logger := cfg.output(cio.stdout)
	palette := logger.Palette()

	// Execute verification following Clean Architecture
	orch := orchestrators.NewVerifyOrchestrator(
		yaml.NewCatalogRepository(cfg.Catalog),
		gateways.NewFetcher(),
		gateways.NewArchiveVerifier(cfg.httpClient(), logger),
		cfg.CacheDir,
	)

	result, err := orch.VerifyCache(ctx)
	if err != nil {
		logger.Error(err.Error())
		return exitError
	}

	for _, a := range result.Archives {
		name := a.Version.Key
		if a.ArchivePath != "" {
			name = filepath.Base(a.ArchivePath)
		}

		switch a.Status {
		case orchestrators.VerifyPassed:
			fmt.Fprintf(out, "%s %s\n", palette.Green("✔"), name)
		case orchestrators.VerifyFailed:
			fmt.Fprintf(out, "%s %s: %v\n", palette.Red("✘"), name, a.Error)
		case orchestrators.VerifyNoData:
			fmt.Fprintf(out, "%s %s: no checksum or signature published\n", palette.Yellow("-"), name)
		case orchestrators.VerifyNotCached:
			logger.Debug("Not cached", interfaces.F("file", name))
		}
	}

	if failed := result.Failed(); failed > 0 {
		logger.Error(fmt.Sprintf("%d archive(s) failed verification", failed))
		return exitError
	}
	return exitOK
}
