// Package services contains the domain rules for composing a build.
package services

import (
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	version "github.com/mcuadros/go-version"

	"github.com/ochairo/javabuild/internal/domain/entities"
)

// ModuleOpensThreshold is the first JDK major version whose module system
// needs the --add-opens relaxations for older Maven plugins
const ModuleOpensThreshold = "17"

var versionPattern = regexp.MustCompile(`\d+(\.\d+)*`)

// EnvironmentService composes the environment a build runs with
type EnvironmentService struct {
	goos string
}

// NewEnvironmentService creates a new environment service
func NewEnvironmentService() *EnvironmentService {
	return &EnvironmentService{goos: runtime.GOOS}
}

// ComposeRequest holds the inputs of ComposeEnvironment
type ComposeRequest struct {
	Base     []string // inherited environment in KEY=value form
	JDKRoot  string
	JDKKey   string // catalog key, used when the root name carries no version
	ToolRoot string
	Catalog  *entities.Catalog
}

// ComposeEnvironment copies the inherited environment and points it at the
// selected JDK and build tool
func (s *EnvironmentService) ComposeEnvironment(req ComposeRequest) (entities.BuildEnvironment, error) {
	if req.Catalog == nil {
		return entities.BuildEnvironment{}, fmt.Errorf("catalog is required")
	}
	if req.JDKRoot == "" || req.ToolRoot == "" {
		return entities.BuildEnvironment{}, fmt.Errorf("JDK and build tool roots are required")
	}

	vars := make(map[string]string, len(req.Base)+3)
	for _, kv := range req.Base {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			vars[k] = v
		}
	}

	tool := req.Catalog.BuildTool
	vars["JAVA_HOME"] = req.JDKRoot
	if tool.HomeVar != "" {
		vars[tool.HomeVar] = req.ToolRoot
	}

	pathKey := s.pathKey(vars)
	prefix := filepath.Join(req.ToolRoot, "bin") + string(filepath.ListSeparator) + filepath.Join(req.JDKRoot, "bin")
	if current := vars[pathKey]; current != "" {
		vars[pathKey] = prefix + string(filepath.ListSeparator) + current
	} else {
		vars[pathKey] = prefix
	}

	major := JavaMajorVersion(filepath.Base(req.JDKRoot), req.JDKKey)
	if tool.OptionsVar != "" && NeedsModuleOpens(major) {
		current, present := vars[tool.OptionsVar]
		if opts := AppendModuleOpens(current, req.Catalog.ModuleOpens); present || opts != "" {
			vars[tool.OptionsVar] = opts
		}
	}

	return entities.NewBuildEnvironment(vars), nil
}

// pathKey returns the existing spelling of PATH on Windows, where
// environment keys are case-insensitive
func (s *EnvironmentService) pathKey(vars map[string]string) string {
	if s.goos != "windows" {
		return "PATH"
	}
	for k := range vars {
		if strings.EqualFold(k, "PATH") {
			return k
		}
	}
	return "PATH"
}

// JavaMajorVersion extracts the major version from a JDK directory name,
// falling back to the catalog key. Legacy "1.x" versions map to x.
// It returns 0 when neither carries a version.
func JavaMajorVersion(rootName, key string) int {
	for _, candidate := range []string{rootName, key} {
		match := versionPattern.FindString(candidate)
		if match == "" {
			continue
		}

		parts := strings.Split(match, ".")
		if parts[0] == "1" && len(parts) > 1 {
			parts = parts[1:]
		}
		if major, err := strconv.Atoi(parts[0]); err == nil {
			return major
		}
	}
	return 0
}

// NeedsModuleOpens reports whether a JDK major version requires the
// module-access flags
func NeedsModuleOpens(major int) bool {
	return version.Compare(strconv.Itoa(major), ModuleOpensThreshold, ">=")
}

// ModuleOpenFlag formats a single module-access relaxation
func ModuleOpenFlag(open string) string {
	return "--add-opens " + open + "=ALL-UNNAMED"
}

// AppendModuleOpens adds every flag for opens to current, space-separated.
// Each --add-opens flag appears once in the result: repeats inherited from
// current are dropped and flags current already contains are not added.
func AppendModuleOpens(current string, opens []string) string {
	fields := strings.Fields(current)
	seen := make(map[string]bool)
	out := make([]string, 0, len(fields)+2*len(opens))

	for i := 0; i < len(fields); i++ {
		f := fields[i]
		switch {
		case f == "--add-opens" && i+1 < len(fields):
			value := fields[i+1]
			i++
			if seen[value] {
				continue
			}
			seen[value] = true
			out = append(out, f, value)
		case strings.HasPrefix(f, "--add-opens="):
			value := strings.TrimPrefix(f, "--add-opens=")
			if seen[value] {
				continue
			}
			seen[value] = true
			out = append(out, f)
		default:
			out = append(out, f)
		}
	}

	for _, open := range opens {
		value := open + "=ALL-UNNAMED"
		if seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, ModuleOpenFlag(open))
	}
	return strings.Join(out, " ")
}
