// Package yaml provides YAML-based catalog parsing and repository implementations.
package yaml

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/ochairo/javabuild/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yml
var defaultCatalog []byte

// yamlCatalog represents the raw YAML structure
type yamlCatalog struct {
	BuildTool   yamlBuildTool     `yaml:"build_tool"`
	ModuleOpens []string          `yaml:"module_opens"`
	JDKs        []yamlToolVersion `yaml:"jdks"`
	BuildTools  []yamlToolVersion `yaml:"build_tools"`
}

type yamlBuildTool struct {
	Name        string   `yaml:"name"`
	Launcher    string   `yaml:"launcher"`
	Descriptor  string   `yaml:"descriptor"`
	HomeVar     string   `yaml:"home_var"`
	OptionsVar  string   `yaml:"options_var"`
	BuildArgs   []string `yaml:"build_args"`
	VersionArgs []string `yaml:"version_args"`
}

type yamlToolVersion struct {
	Key          string `yaml:"key"`
	Description  string `yaml:"description"`
	URL          string `yaml:"url"`
	SHA256URL    string `yaml:"sha256_url"`
	SignatureURL string `yaml:"signature_url"`
	KeysURL      string `yaml:"keys_url"`
}

// CatalogParser parses YAML catalog files
type CatalogParser struct{}

// NewCatalogParser creates a new YAML parser
func NewCatalogParser() *CatalogParser {
	return &CatalogParser{}
}

// ParseFile parses a YAML catalog file into a Catalog entity
func (p *CatalogParser) ParseFile(filePath string) (*entities.Catalog, error) {
	//nolint:gosec // G304: filePath is the catalog path chosen by the user
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// ParseDefault parses the catalog shipped with the binary
func (p *CatalogParser) ParseDefault() (*entities.Catalog, error) {
	return p.Parse(defaultCatalog)
}

// Parse parses YAML bytes into a Catalog entity
func (p *CatalogParser) Parse(data []byte) (*entities.Catalog, error) {
	var raw yamlCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	catalog := &entities.Catalog{
		JDKs:        convertVersions(raw.JDKs, entities.KindJDK),
		BuildTools:  convertVersions(raw.BuildTools, entities.KindBuildTool),
		BuildTool:   convertBuildTool(raw.BuildTool),
		ModuleOpens: trimAll(raw.ModuleOpens),
	}

	if err := validate(catalog); err != nil {
		return nil, err
	}

	return catalog, nil
}

func convertVersions(raw []yamlToolVersion, kind entities.ToolKind) []entities.ToolVersion {
	versions := make([]entities.ToolVersion, 0, len(raw))
	for _, v := range raw {
		versions = append(versions, entities.ToolVersion{
			Key:          strings.TrimSpace(v.Key),
			Description:  strings.TrimSpace(v.Description),
			URL:          strings.TrimSpace(v.URL),
			Kind:         kind,
			SHA256URL:    strings.TrimSpace(v.SHA256URL),
			SignatureURL: strings.TrimSpace(v.SignatureURL),
			KeysURL:      strings.TrimSpace(v.KeysURL),
		})
	}
	return versions
}

func convertBuildTool(yb yamlBuildTool) entities.BuildToolSpec {
	return entities.BuildToolSpec{
		Name:        yb.Name,
		Launcher:    yb.Launcher,
		Descriptor:  yb.Descriptor,
		HomeVar:     yb.HomeVar,
		OptionsVar:  yb.OptionsVar,
		BuildArgs:   yb.BuildArgs,
		VersionArgs: yb.VersionArgs,
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func validate(c *entities.Catalog) error {
	if len(c.JDKs) == 0 {
		return fmt.Errorf("catalog must list at least one JDK")
	}
	if len(c.BuildTools) == 0 {
		return fmt.Errorf("catalog must list at least one build tool version")
	}
	if err := validateVersions("jdks", c.JDKs); err != nil {
		return err
	}
	if err := validateVersions("build_tools", c.BuildTools); err != nil {
		return err
	}

	bt := c.BuildTool
	switch {
	case bt.Launcher == "":
		return fmt.Errorf("build_tool.launcher is required")
	case bt.Descriptor == "":
		return fmt.Errorf("build_tool.descriptor is required")
	case bt.HomeVar == "":
		return fmt.Errorf("build_tool.home_var is required")
	case len(bt.BuildArgs) == 0:
		return fmt.Errorf("build_tool.build_args is required")
	}
	if bt.OptionsVar == "" && len(c.ModuleOpens) > 0 {
		return fmt.Errorf("build_tool.options_var is required when module_opens is set")
	}

	return nil
}

func validateVersions(section string, versions []entities.ToolVersion) error {
	seen := make(map[string]bool, len(versions))
	for i, v := range versions {
		if v.Key == "" {
			return fmt.Errorf("%s[%d]: key is required", section, i)
		}
		if v.URL == "" {
			return fmt.Errorf("%s[%d] (%s): url is required", section, i, v.Key)
		}
		if seen[v.Key] {
			return fmt.Errorf("%s: duplicate key %q", section, v.Key)
		}
		seen[v.Key] = true
	}
	return nil
}
