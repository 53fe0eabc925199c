// Package entities defines core domain models and data structures.
package entities

// ToolKind identifies which kind of toolchain component a version belongs to
type ToolKind string

const (
	// KindJDK is a Java Development Kit archive
	KindJDK ToolKind = "jdk"
	// KindBuildTool is a build-automation tool archive (Maven)
	KindBuildTool ToolKind = "build-tool"
)

// CacheDir returns the cache subdirectory that holds archives of this kind
func (k ToolKind) CacheDir() string {
	if k == KindJDK {
		return "jdks"
	}
	return "mavens"
}

// ToolVersion is a downloadable toolchain version declared in the catalog
type ToolVersion struct {
	Key         string // menu key, e.g. "17" or "3.9.6"
	Description string
	URL         string
	Kind        ToolKind

	// Optional verification data, only used when verification is enabled
	SHA256URL    string
	SignatureURL string
	KeysURL      string
}

// HasVerification reports whether the version carries any integrity data
func (v ToolVersion) HasVerification() bool {
	return v.SHA256URL != "" || (v.SignatureURL != "" && v.KeysURL != "")
}

// BuildToolSpec describes how the build tool is installed and invoked
type BuildToolSpec struct {
	Name        string   // e.g. "maven"
	Launcher    string   // executable name without extension, e.g. "mvn"
	Descriptor  string   // project file that marks a buildable directory, e.g. "pom.xml"
	HomeVar     string   // e.g. "M2_HOME"
	OptionsVar  string   // e.g. "MAVEN_OPTS"
	BuildArgs   []string // e.g. clean install -DskipTests
	VersionArgs []string // e.g. -version
}

// Catalog holds the static version tables, in menu order
type Catalog struct {
	JDKs       []ToolVersion
	BuildTools []ToolVersion
	BuildTool  BuildToolSpec

	// ModuleOpens lists module/package pairs opened to ALL-UNNAMED on JDK 17+
	ModuleOpens []string
}

// FindVersion returns the version with the given key
func FindVersion(versions []ToolVersion, key string) (ToolVersion, bool) {
	for _, v := range versions {
		if v.Key == key {
			return v, true
		}
	}
	return ToolVersion{}, false
}
