// Package gpg provides OpenPGP detached signature verification for downloaded archives.
package gpg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
)

const (
	maxKeysSize      = 10 * 1024 * 1024 // Apache KEYS files hold many keys
	maxSignatureSize = 10 * 1024
	armoredSigPrefix = "-----BEGIN PGP SIGNATURE---"
)

// Verifier checks detached signatures against an in-memory keyring.
// It uses ProtonMail's go-crypto, a maintained fork of golang.org/x/crypto/openpgp.
type Verifier struct {
	keyring    openpgp.EntityList
	imported   map[string]bool
	httpClient *http.Client
}

// Option configures a Verifier
type Option func(*Verifier)

// WithHTTPClient sets the client used to fetch KEYS files and signatures
func WithHTTPClient(client *http.Client) Option {
	return func(v *Verifier) {
		if client != nil {
			v.httpClient = client
		}
	}
}

// NewVerifier creates a new GPG verifier
func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{
		keyring:  make(openpgp.EntityList, 0),
		imported: make(map[string]bool),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ImportKeysFromURL imports all keys from a KEYS file URL.
// A URL that was already imported is skipped.
func (v *Verifier) ImportKeysFromURL(ctx context.Context, keysURL string) error {
	if v.imported[keysURL] {
		return nil
	}

	body, err := v.get(ctx, keysURL, maxKeysSize)
	if err != nil {
		return fmt.Errorf("failed to download KEYS file: %w", err)
	}

	if err := v.ImportKeys(bytes.NewReader(body)); err != nil {
		return err
	}
	v.imported[keysURL] = true
	return nil
}

// ImportKeys reads an armored keyring, falling back to the binary format
func (v *Verifier) ImportKeys(r io.ReadSeeker) error {
	entities, err := openpgp.ReadArmoredKeyRing(r)
	if err != nil {
		if _, seekErr := r.Seek(0, io.SeekStart); seekErr != nil {
			return fmt.Errorf("failed to reset key reader: %w", seekErr)
		}
		entities, err = openpgp.ReadKeyRing(r)
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entities) == 0 {
		return fmt.Errorf("no keys found")
	}

	v.keyring = append(v.keyring, entities...)
	return nil
}

// VerifySignature downloads a detached signature and verifies filePath against it
func (v *Verifier) VerifySignature(ctx context.Context, filePath, sigURL string) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("no GPG keys imported, import a KEYS file first")
	}

	sig, err := v.get(ctx, sigURL, maxSignatureSize)
	if err != nil {
		return fmt.Errorf("failed to download signature: %w", err)
	}

	return v.verifyFile(filePath, sig)
}

func (v *Verifier) verifyFile(filePath string, sig []byte) error {
	if len(sig) < 10 {
		return fmt.Errorf("signature file too small to be valid GPG signature")
	}

	//nolint:gosec // G304: filePath is a cached archive
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	if bytes.HasPrefix(sig, []byte(armoredSigPrefix)) {
		_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, f, bytes.NewReader(sig), nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(v.keyring, f, bytes.NewReader(sig), nil)
	}
	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}

	return nil
}

func (v *Verifier) get(ctx context.Context, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck // Defer close
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// GetKeyringSize returns the number of keys in the keyring
func (v *Verifier) GetKeyringSize() int {
	return len(v.keyring)
}
