package gateways

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const helloSum = "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f"

func TestVerifyChecksum(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "jdk.zip")
	if err := os.WriteFile(testFile, []byte("Hello, World!"), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	verifier := NewChecksumVerifier()

	tests := []struct {
		name     string
		path     string
		expected string
		wantErr  bool
	}{
		{name: "valid checksum", path: testFile, expected: helloSum},
		{name: "upper case checksum", path: testFile, expected: strings.ToUpper(helloSum)},
		{name: "trailing newline", path: testFile, expected: helloSum + "\n"},
		{name: "invalid checksum", path: testFile, expected: strings.Repeat("0", 64), wantErr: true},
		{name: "non-existent file", path: "/nonexistent/file.zip", expected: helloSum, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifier.VerifyChecksum(context.Background(), tt.path, tt.expected)
			if (err != nil) != tt.wantErr {
				t.Errorf("VerifyChecksum() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCalculateChecksum(t *testing.T) {
	tests := []struct {
		name         string
		content      []byte
		wantChecksum string
	}{
		{
			name:         "empty file",
			content:      []byte(""),
			wantChecksum: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:         "simple content",
			content:      []byte("Hello, World!"),
			wantChecksum: helloSum,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFile := filepath.Join(t.TempDir(), "test.txt")
			if err := os.WriteFile(testFile, tt.content, 0600); err != nil {
				t.Fatalf("Failed to create test file: %v", err)
			}

			checksum, err := NewChecksumVerifier().CalculateChecksum(testFile)
			if err != nil {
				t.Fatalf("CalculateChecksum() error = %v", err)
			}
			if checksum != tt.wantChecksum {
				t.Errorf("CalculateChecksum() = %v, want %v", checksum, tt.wantChecksum)
			}
		})
	}
}

func TestParseChecksumFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{name: "bare digest", content: helloSum + "\n", want: helloSum},
		{name: "sha256sum format", content: strings.ToUpper(helloSum) + "  OpenJDK17U-jdk_x64_windows_hotspot_17.0.11_9.zip\n", want: helloSum},
		{name: "empty", content: "   \n", wantErr: true},
		{name: "short digest", content: "abc123  file.zip", wantErr: true},
		{name: "not hex", content: strings.Repeat("z", 64), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChecksumFile(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseChecksumFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseChecksumFile() = %v, want %v", got, tt.want)
			}
		})
	}
}
