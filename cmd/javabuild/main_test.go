package main

import (
	"archive/zip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ochairo/javabuild/internal/domain-adapters/gateways"
)

const testCatalog = `build_tool:
  name: maven
  launcher: mvn
  descriptor: pom.xml
  home_var: M2_HOME
  options_var: MAVEN_OPTS
  build_args: [clean, install, -DskipTests]
  version_args: [-version]
module_opens:
  - java.base/java.lang
jdks:
  - key: "17"
    description: Temurin 17.0.11
    url: http://127.0.0.1:1/jdk-17.zip
    sha256_url: http://127.0.0.1:1/jdk-17.zip.sha256.txt
  - key: "21"
    description: Temurin 21.0.3
    url: http://127.0.0.1:1/jdk-21.zip
build_tools:
  - key: "3.9.6"
    url: http://127.0.0.1:1/apache-maven-3.9.6-bin.zip
`

type testSession struct {
	stdout strings.Builder
	stderr strings.Builder
}

func (s *testSession) io(stdin string, environ ...string) cliIO {
	return cliIO{
		stdin:   strings.NewReader(stdin),
		stdout:  &s.stdout,
		stderr:  &s.stderr,
		environ: append([]string{"JAVABUILD_NO_COLOR=true"}, environ...),
	}
}

func writeCatalog(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.yml")
	if err := os.WriteFile(path, []byte(testCatalog), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		environ []string
		want    config
		wantErr bool
	}{
		{
			name: "defaults",
			want: config{CacheDir: "tooling", HTTPTimeout: time.Minute},
		},
		{
			name: "overrides",
			environ: []string{
				"JAVABUILD_CACHE_DIR=/var/cache/javabuild",
				"JAVABUILD_CATALOG=/etc/javabuild/catalog.yml",
				"JAVABUILD_VERIFY=true",
				"JAVABUILD_NO_COLOR=1",
				"JAVABUILD_HTTP_TIMEOUT=30s",
				"JAVABUILD_DEBUG=true",
				"UNRELATED=x",
			},
			want: config{
				CacheDir:    "/var/cache/javabuild",
				Catalog:     "/etc/javabuild/catalog.yml",
				Verify:      true,
				NoColor:     true,
				HTTPTimeout: 30 * time.Second,
				Debug:       true,
			},
		},
		{
			name:    "invalid duration",
			environ: []string{"JAVABUILD_HTTP_TIMEOUT=soon"},
			wantErr: true,
		},
		{
			name:    "invalid bool",
			environ: []string{"JAVABUILD_VERIFY=maybe"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseConfig(tt.environ)
			if tt.wantErr {
				if err == nil {
					t.Error("parseConfig() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseConfig() error = %v", err)
			}
			if *got != tt.want {
				t.Errorf("parseConfig() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestRun_Help(t *testing.T) {
	var s testSession
	if code := run(context.Background(), []string{"help"}, s.io("")); code != exitOK {
		t.Errorf("run(help) = %d, want %d", code, exitOK)
	}

	for _, want := range []string{"build", "list", "verify", "JAVABUILD_CACHE_DIR"} {
		if !strings.Contains(s.stdout.String(), want) {
			t.Errorf("usage missing %q", want)
		}
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	var s testSession
	if code := run(context.Background(), []string{"deploy"}, s.io("")); code != exitUsage {
		t.Errorf("run(deploy) = %d, want %d", code, exitUsage)
	}
	if !strings.Contains(s.stderr.String(), "Unknown command: deploy") {
		t.Errorf("stderr = %q", s.stderr.String())
	}
}

func TestRun_FlagErrors(t *testing.T) {
	tests := [][]string{
		{"--no-such-flag"},
		{"build", "--timeout", "forever"},
		{"build", "extra-arg"},
		{"list", "--bogus"},
		{"verify", "--bogus"},
	}

	for _, args := range tests {
		var s testSession
		if code := run(context.Background(), args, s.io("")); code != exitUsage {
			t.Errorf("run(%v) = %d, want %d", args, code, exitUsage)
		}
	}
}

func TestRun_CommandHelp(t *testing.T) {
	for _, command := range []string{"build", "list", "verify"} {
		var s testSession
		if code := run(context.Background(), []string{command, "--help"}, s.io("")); code != exitOK {
			t.Errorf("run(%s --help) = %d, want %d", command, code, exitOK)
		}
		if !strings.Contains(s.stderr.String(), "Usage: javabuild") {
			t.Errorf("%s --help output = %q", command, s.stderr.String())
		}
	}
}

func TestRun_InvalidConfiguration(t *testing.T) {
	var s testSession
	code := run(context.Background(), []string{"list"}, s.io("", "JAVABUILD_HTTP_TIMEOUT=soon"))
	if code != exitError {
		t.Errorf("run(list) = %d, want %d", code, exitError)
	}
}

func TestRun_List(t *testing.T) {
	catalog := writeCatalog(t)
	cacheDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(cacheDir, "jdks"), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cacheDir, "jdks", "jdk-21.zip"), []byte("zip"), 0600); err != nil {
		t.Fatal(err)
	}

	var s testSession
	code := run(context.Background(), []string{"list", "--catalog", catalog, "--cache-dir", cacheDir, "--urls"}, s.io(""))
	if code != exitOK {
		t.Fatalf("run(list) = %d, stderr %q", code, s.stderr.String())
	}

	out := s.stdout.String()
	for _, want := range []string{
		"JDKs (2 total):",
		"17     Temurin 17.0.11\n",
		"21     Temurin 21.0.3 (cached)",
		"maven versions (1 total):",
		"http://127.0.0.1:1/apache-maven-3.9.6-bin.zip",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_List_DefaultCatalog(t *testing.T) {
	var s testSession
	code := run(context.Background(), []string{"list", "--cache-dir", t.TempDir()}, s.io(""))
	if code != exitOK {
		t.Fatalf("run(list) = %d, stderr %q", code, s.stderr.String())
	}
	if !strings.Contains(s.stdout.String(), "3.9.6") {
		t.Errorf("default catalog should list Maven 3.9.6:\n%s", s.stdout.String())
	}
}

func TestRun_List_MissingCatalog(t *testing.T) {
	var s testSession
	code := run(context.Background(), []string{"list", "--catalog", filepath.Join(t.TempDir(), "missing.yml")}, s.io(""))
	if code != exitError {
		t.Errorf("run(list) = %d, want %d", code, exitError)
	}
}

func TestRun_Build_CancelHasNoSideEffects(t *testing.T) {
	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, "pom.xml"), []byte("<project/>"), 0600); err != nil {
		t.Fatal(err)
	}
	cacheDir := filepath.Join(t.TempDir(), "tooling")

	tests := []struct {
		name  string
		args  []string
		stdin string
	}{
		{name: "exit at JDK menu", args: []string{"--project", project}, stdin: "0\n"},
		{name: "exit at Maven menu", args: []string{"--project", project, "--jdk", "17"}, stdin: "0\n"},
		{name: "end of input at project prompt", stdin: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s testSession
			args := append([]string{"build", "--catalog", writeCatalog(t), "--cache-dir", cacheDir}, tt.args...)

			if code := run(context.Background(), args, s.io(tt.stdin)); code != exitOK {
				t.Fatalf("run(build) = %d, want %d (stderr %q)", code, exitOK, s.stderr.String())
			}
			if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
				t.Error("cancelled run should not create the cache")
			}
		})
	}
}

func TestRun_Build_DownloadFailureIsFatal(t *testing.T) {
	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, "pom.xml"), []byte("<project/>"), 0600); err != nil {
		t.Fatal(err)
	}

	var s testSession
	args := []string{
		"--catalog", writeCatalog(t),
		"--cache-dir", t.TempDir(),
		"--project", project,
		"--jdk", "17",
		"--maven", "3.9.6",
	}

	if code := run(context.Background(), args, s.io("")); code != exitError {
		t.Errorf("run(build) = %d, want %d", code, exitError)
	}
	if !strings.Contains(s.stdout.String(), "failed to prepare JDK 17") {
		t.Errorf("output = %q, want download error", s.stdout.String())
	}
}

func TestRun_Verify_EmptyCache(t *testing.T) {
	var s testSession
	code := run(context.Background(), []string{"verify", "--catalog", writeCatalog(t), "--cache-dir", t.TempDir()}, s.io(""))
	if code != exitOK {
		t.Errorf("run(verify) = %d, want %d (stdout %q)", code, exitOK, s.stdout.String())
	}
}

func TestRun_Verify_ReportsFailures(t *testing.T) {
	cacheDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(cacheDir, "jdks"), 0750); err != nil {
		t.Fatal(err)
	}
	// jdk-17 publishes a checksum at an unreachable URL, so the check fails
	if err := os.WriteFile(filepath.Join(cacheDir, "jdks", "jdk-17.zip"), []byte("zip"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cacheDir, "jdks", "jdk-21.zip"), []byte("zip"), 0600); err != nil {
		t.Fatal(err)
	}

	var s testSession
	code := run(context.Background(), []string{"verify", "--catalog", writeCatalog(t), "--cache-dir", cacheDir}, s.io(""))
	if code != exitError {
		t.Errorf("run(verify) = %d, want %d", code, exitError)
	}

	out := s.stdout.String()
	if !strings.Contains(out, "✘ jdk-17.zip") {
		t.Errorf("output missing failed archive:\n%s", out)
	}
	if !strings.Contains(out, "- jdk-21.zip: no checksum or signature published") {
		t.Errorf("output missing unverifiable archive:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(cacheDir, "jdks", "jdk-17.zip")); err != nil {
		t.Error("verify must not remove cached archives")
	}
}

func TestHTTPClient_SlowDownloadCompletes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for i := 0; i < 5; i++ {
			_, _ = w.Write([]byte("chunk"))
			flusher.Flush()
			time.Sleep(100 * time.Millisecond)
		}
	}))
	defer server.Close()

	cfg := &config{HTTPTimeout: 250 * time.Millisecond}
	fetcher := gateways.NewFetcher(gateways.WithHTTPClient(cfg.httpClient()))

	path, _, err := fetcher.Fetch(context.Background(), server.URL+"/jdk-17.zip", t.TempDir())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != strings.Repeat("chunk", 5) {
		t.Errorf("archive = %q, %v", data, err)
	}
}

func TestHTTPClient_BoundsResponseHeaders(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	cfg := &config{HTTPTimeout: 100 * time.Millisecond}
	fetcher := gateways.NewFetcher(gateways.WithHTTPClient(cfg.httpClient()))

	if _, _, err := fetcher.Fetch(context.Background(), server.URL+"/jdk-17.zip", t.TempDir()); err == nil {
		t.Fatal("Fetch() should fail when the server never answers")
	}
}

func TestHTTPClient_NoTimeout(t *testing.T) {
	client := (&config{}).httpClient()
	if client.Timeout != 0 || client.Transport != nil {
		t.Errorf("httpClient() = %+v, want default client", client)
	}
}

// cacheToolchain places JDK 17 and Maven 3.9.6 archives from testCatalog in
// cacheDir; mvnBuild is the shell body run for the build invocation
func cacheToolchain(t *testing.T, cacheDir, mvnBuild string) {
	t.Helper()

	writeLauncherZip(t, filepath.Join(cacheDir, "jdks", "jdk-17.zip"), "jdk-17.0.11+9/bin/java",
		"echo 'openjdk version \"17.0.11\"' >&2")
	writeLauncherZip(t, filepath.Join(cacheDir, "mavens", "apache-maven-3.9.6-bin.zip"), "apache-maven-3.9.6/bin/mvn",
		"if [ \"$1\" = \"-version\" ]; then echo 'Apache Maven 3.9.6'; exit 0; fi\n"+mvnBuild)
}

func writeLauncherZip(t *testing.T, path, launcher, body string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	header := &zip.FileHeader{Name: launcher, Method: zip.Deflate}
	header.SetMode(0755)
	w, err := zw.CreateHeader(header)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("#!/bin/sh\n" + body + "\n")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeProject(t *testing.T) string {
	t.Helper()

	project := filepath.Join(t.TempDir(), "demo-app")
	if err := os.MkdirAll(project, 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, "pom.xml"), []byte("<project/>"), 0600); err != nil {
		t.Fatal(err)
	}
	return project
}

// logLine returns the path printed on the "Log: " line
func logLine(t *testing.T, out string) string {
	t.Helper()

	for _, line := range strings.Split(out, "\n") {
		if path, ok := strings.CutPrefix(line, "Log: "); ok {
			return path
		}
	}
	t.Fatalf("output has no Log line:\n%s", out)
	return ""
}

func TestRun_Build_Succeeds(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake launchers are shell scripts")
	}

	cacheDir := t.TempDir()
	cacheToolchain(t, cacheDir, "echo '[INFO] BUILD SUCCESS'")

	var s testSession
	args := []string{
		"build",
		"--catalog", writeCatalog(t),
		"--cache-dir", cacheDir,
		"--project", writeProject(t),
		"--jdk", "17",
		"--maven", "3.9.6",
	}

	if code := run(context.Background(), args, s.io("")); code != exitOK {
		t.Fatalf("run(build) = %d, want %d\nstdout:\n%s\nstderr:\n%s", code, exitOK, s.stdout.String(), s.stderr.String())
	}

	out := s.stdout.String()
	if !strings.Contains(out, "Build OK!") {
		t.Errorf("output missing success message:\n%s", out)
	}
	if strings.Contains(out, "Build failed") {
		t.Errorf("output reports a failure:\n%s", out)
	}

	logPath := logLine(t, out)
	if filepath.Dir(logPath) != filepath.Join(cacheDir, "logs") {
		t.Errorf("log path = %s, want it under %s", logPath, filepath.Join(cacheDir, "logs"))
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log not written: %v", err)
	}
	if !strings.Contains(string(data), "BUILD SUCCESS") {
		t.Errorf("log = %q, want build output", data)
	}
}

func TestRun_Build_FailureEchoesErrorTail(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake launchers are shell scripts")
	}

	tail := "[ERROR] " + strings.Repeat("z", 392)
	stderr := strings.Repeat("h", 200) + tail

	cacheDir := t.TempDir()
	cacheToolchain(t, cacheDir, "printf '%s' '"+stderr+"' >&2\nexit 1")

	var s testSession
	args := []string{
		"build",
		"--catalog", writeCatalog(t),
		"--cache-dir", cacheDir,
		"--project", writeProject(t),
		"--jdk", "17",
		"--maven", "3.9.6",
	}

	if code := run(context.Background(), args, s.io("", "JAVABUILD_DEBUG=true")); code != exitOK {
		t.Fatalf("run(build) = %d, want %d\nstdout:\n%s\nstderr:\n%s", code, exitOK, s.stdout.String(), s.stderr.String())
	}

	out := s.stdout.String()
	if !strings.Contains(out, "Build failed") {
		t.Errorf("output missing failure message:\n%s", out)
	}
	if !strings.Contains(out, "Build: FAILED (exit code 1)") {
		t.Errorf("debug output missing build summary:\n%s", out)
	}

	var echoed bool
	for _, line := range strings.Split(out, "\n") {
		if line == tail {
			echoed = true
		}
	}
	if !echoed {
		t.Errorf("output does not echo the last %d characters of stderr:\n%s", len(tail), out)
	}
	if strings.Contains(out, "h[ERROR]") || strings.Contains(out, "hhhh") {
		t.Errorf("output echoes more than the error tail:\n%s", out)
	}

	data, err := os.ReadFile(logLine(t, out))
	if err != nil {
		t.Fatalf("log not written: %v", err)
	}
	if !strings.Contains(string(data), stderr) {
		t.Errorf("log should hold the full stderr, got %q", data)
	}
}
