package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/ochairo/javabuild/internal/domain-adapters/gateways"
	"github.com/ochairo/javabuild/internal/domain/entities"
	"github.com/ochairo/javabuild/internal/external-adapters/console"
	"github.com/ochairo/javabuild/internal/external-adapters/yaml"
)

func runList(ctx context.Context, args []string, cio cliIO) int {
	cfg, err := parseConfig(cio.environ)
	if err != nil {
		fmt.Fprintf(cio.stderr, "Error: invalid configuration: %v\n", err)
		return exitError
	}

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(cio.stderr)
	cfg.bindCommonFlags(fs)
	showURLs := fs.Bool("urls", false, "Show download URLs")

	fs.Usage = func() {
		fmt.Fprintf(cio.stderr, `Usage: javabuild list [options]

List the JDK and Maven versions of the catalog and whether their archives
are already cached.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(cio.stderr, `
Examples:
  javabuild list
  javabuild list --urls --catalog ./catalog.yml
`)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	catalog, err := yaml.NewCatalogRepository(cfg.Catalog).GetCatalog(ctx)
	if err != nil {
		fmt.Fprintf(cio.stderr, "Error loading catalog: %v\n", err)
		return exitError
	}

	out, logger := cfg.output(cio.stdout)
	palette := logger.Palette()
	fetcher := gateways.NewFetcher()

	fmt.Fprintf(out, "JDKs (%d total):\n", len(catalog.JDKs))
	printVersions(out, palette, fetcher, cfg.CacheDir, catalog.JDKs, *showURLs)

	fmt.Fprintf(out, "\n%s versions (%d total):\n", catalog.BuildTool.Name, len(catalog.BuildTools))
	printVersions(out, palette, fetcher, cfg.CacheDir, catalog.BuildTools, *showURLs)

	return exitOK
}

func printVersions(
	out io.Writer,
	palette console.Palette,
	fetcher *gateways.Fetcher,
	cacheDir string,
	versions []entities.ToolVersion,
	showURLs bool,
) {
	for _, v := range versions {
		status := ""
		dir := filepath.Join(cacheDir, v.Kind.CacheDir())
		if _, cached, err := fetcher.Lookup(v.URL, dir); err == nil && cached {
			status = " " + palette.Green("(cached)")
		}

		fmt.Fprintf(out, "  %s %s%s\n", palette.Cyan(fmt.Sprintf("%-6s", v.Key)), v.Description, status)
		if showURLs {
			fmt.Fprintf(out, "         %s\n", palette.Gray(v.URL))
		}
	}
}
