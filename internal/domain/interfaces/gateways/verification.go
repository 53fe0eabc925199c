// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"

	"github.com/ochairo/javabuild/internal/domain/entities"
)

// ArchiveVerifier checks the integrity of a downloaded toolchain archive.
// Implementations return nil when the version carries no verification data.
type ArchiveVerifier interface {
	VerifyArchive(ctx context.Context, version entities.ToolVersion, archivePath string) error
}

// ChecksumVerifier verifies and computes SHA256 digests
type ChecksumVerifier interface {
	VerifyChecksum(ctx context.Context, filePath, expectedSum string) error
	CalculateChecksum(filePath string) (string, error)
}

// SignatureVerifier verifies detached OpenPGP signatures
type SignatureVerifier interface {
	ImportGPGKeysFromURL(ctx context.Context, keysURL string) error
	VerifyGPGSignature(ctx context.Context, filePath, sigURL string) error
	GetKeyringSize() int
}
