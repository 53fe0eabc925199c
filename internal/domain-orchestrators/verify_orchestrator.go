package orchestrators

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ochairo/javabuild/internal/domain/entities"
	"github.com/ochairo/javabuild/internal/domain/interfaces/gateways"
	"github.com/ochairo/javabuild/internal/domain/interfaces/repositories"
)

// ArchiveLocator finds cached archives without downloading them
type ArchiveLocator interface {
	Lookup(rawURL, cacheDir string) (archivePath string, present bool, err error)
}

// VerifyStatus is the outcome of checking one catalog version
type VerifyStatus string

// Verification outcomes
const (
	VerifyPassed    VerifyStatus = "passed"
	VerifyFailed    VerifyStatus = "failed"
	VerifyNoData    VerifyStatus = "no_data"
	VerifyNotCached VerifyStatus = "not_cached"
)

// ArchiveVerification is the verification result for one catalog version
type ArchiveVerification struct {
	Version     entities.ToolVersion
	ArchivePath string
	Status      VerifyStatus
	Error       error
}

// VerifyWorkflowResult contains the results for every catalog version
type VerifyWorkflowResult struct {
	Archives         []ArchiveVerification
	WorkflowDuration time.Duration
}

// Failed returns the number of archives that failed verification
func (r *VerifyWorkflowResult) Failed() int {
	n := 0
	for _, a := range r.Archives {
		if a.Status == VerifyFailed {
			n++
		}
	}
	return n
}

// VerifyOrchestrator checks archives already in the cache against the
// integrity data published in the catalog
type VerifyOrchestrator struct {
	catalogRepo repositories.CatalogRepository
	locator     ArchiveLocator
	verifier    gateways.ArchiveVerifier
	cacheDir    string
}

// NewVerifyOrchestrator creates a new verify orchestrator
func NewVerifyOrchestrator(
	catalogRepo repositories.CatalogRepository,
	locator ArchiveLocator,
	verifier gateways.ArchiveVerifier,
	cacheDir string,
) *VerifyOrchestrator {
	if cacheDir == "" {
		cacheDir = "tooling"
	}
	return &VerifyOrchestrator{
		catalogRepo: catalogRepo,
		locator:     locator,
		verifier:    verifier,
		cacheDir:    cacheDir,
	}
}

// VerifyCache checks every cached archive of the catalog. Failed checks are
// reported per archive; cached files are never removed here.
func (o *VerifyOrchestrator) VerifyCache(ctx context.Context) (*VerifyWorkflowResult, error) {
	startTime := time.Now()

	catalog, err := o.catalogRepo.GetCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	versions := make([]entities.ToolVersion, 0, len(catalog.JDKs)+len(catalog.BuildTools))
	versions = append(versions, catalog.JDKs...)
	versions = append(versions, catalog.BuildTools...)

	result := &VerifyWorkflowResult{}
	for _, version := range versions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Archives = append(result.Archives, o.verifyOne(ctx, version))
	}

	result.WorkflowDuration = time.Since(startTime)
	return result, nil
}

func (o *VerifyOrchestrator) verifyOne(ctx context.Context, version entities.ToolVersion) ArchiveVerification {
	check := ArchiveVerification{Version: version}

	dir := filepath.Join(o.cacheDir, version.Kind.CacheDir())
	archivePath, present, err := o.locator.Lookup(version.URL, dir)
	check.ArchivePath = archivePath
	switch {
	case err != nil:
		check.Status = VerifyFailed
		check.Error = err
		return check
	case !present:
		check.Status = VerifyNotCached
		return check
	case !version.HasVerification():
		check.Status = VerifyNoData
		return check
	}

	if err := o.verifier.VerifyArchive(ctx, version, archivePath); err != nil {
		check.Status = VerifyFailed
		check.Error = err
		return check
	}

	check.Status = VerifyPassed
	return check
}
