package gateways

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/ochairo/javabuild/internal/domain/entities"
	"github.com/ochairo/javabuild/internal/domain/interfaces"
	domaingateways "github.com/ochairo/javabuild/internal/domain/interfaces/gateways"
)

// archiveVerifier checks cached archives against published checksums and
// detached OpenPGP signatures, whichever the catalog provides
type archiveVerifier struct {
	checksum   domaingateways.ChecksumVerifier
	signature  domaingateways.SignatureVerifier
	httpClient *http.Client
	logger     interfaces.Logger
}

// NewArchiveVerifier creates a verifier using client for checksum, KEYS and
// signature downloads
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewArchiveVerifier(client *http.Client, logger interfaces.Logger) *archiveVerifier {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &archiveVerifier{
		checksum:   NewChecksumVerifier(),
		signature:  NewGPGVerifier(client),
		httpClient: client,
		logger:     logger,
	}
}

// VerifyArchive runs every check the version carries. A version without
// verification data passes.
func (a *archiveVerifier) VerifyArchive(ctx context.Context, version entities.ToolVersion, archivePath string) error {
	name := filepath.Base(archivePath)

	if version.SHA256URL != "" {
		expected, err := a.fetchChecksum(ctx, version.SHA256URL)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := a.checksum.VerifyChecksum(ctx, archivePath, expected); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		a.logger.Success("Checksum verified", interfaces.F("file", name))
	}

	if version.SignatureURL != "" && version.KeysURL != "" {
		if err := a.signature.ImportGPGKeysFromURL(ctx, version.KeysURL); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		a.logger.Debug("Signing keys loaded", interfaces.F("keys", a.signature.GetKeyringSize()))
		if err := a.signature.VerifyGPGSignature(ctx, archivePath, version.SignatureURL); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		a.logger.Success("Signature verified", interfaces.F("file", name))
	}

	return nil
}

func (a *archiveVerifier) fetchChecksum(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create checksum request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download checksum: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("checksum download failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("failed to read checksum: %w", err)
	}

	return ParseChecksumFile(string(body))
}
