// Package main provides the javabuild CLI, which builds a Maven project with
// a chosen JDK and Maven version downloaded into a local cache.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// cliIO holds the process streams and environment so commands can be tested
type cliIO struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	environ []string
}

func main() {
	cio := cliIO{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		environ: os.Environ(),
	}
	os.Exit(run(context.Background(), os.Args[1:], cio))
}

func run(ctx context.Context, args []string, cio cliIO) int {
	// build is the default command
	command := "build"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command = args[0]
		args = args[1:]
	}

	// Dispatch to subcommand
	switch command {
	case "build":
		return runBuild(ctx, args, cio)
	case "list":
		return runList(ctx, args, cio)
	case "verify":
		return runVerify(ctx, args, cio)
	case "help":
		printUsage(cio.stdout)
		return exitOK
	default:
		fmt.Fprintf(cio.stderr, "Unknown command: %s\n\n", command)
		printUsage(cio.stderr)
		return exitUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `javabuild - Build a Maven project with a cached JDK and Maven

Usage:
  javabuild [command] [options]

Commands:
  build   Choose a project, JDK and Maven version and run the build (default)
  list    List the JDK and Maven versions of the catalog
  verify  Check cached archives against published checksums and signatures
  help    Show this help

Environment:
  JAVABUILD_CACHE_DIR     Cache root for jdks/, mavens/ and logs/ (default "tooling")
  JAVABUILD_CATALOG       Catalog file replacing the built-in one
  JAVABUILD_VERIFY        Verify archives after download
  JAVABUILD_NO_COLOR      Disable colored output
  JAVABUILD_HTTP_TIMEOUT  Connect and response header timeout, 0 disables (default 1m)
  JAVABUILD_DEBUG         Show debug messages

Use "javabuild <command> --help" for more information about a command.`)
}
