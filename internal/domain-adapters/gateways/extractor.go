package gateways

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ochairo/javabuild/internal/domain/interfaces"
)

// maxEntrySize caps a single extracted file (decompression bomb guard)
var maxEntrySize int64 = 1 << 30

// Extractor unpacks toolchain archives and locates the installation root
type Extractor struct {
	logger interfaces.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(logger interfaces.Logger) *Extractor {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &Extractor{logger: logger}
}

// Extract unpacks archivePath into destDir, overwriting existing files, and
// returns the absolute path of the archive's root directory.
//
// The root is the lexicographically smallest top-level directory among nested
// entries. Archives without nested entries fall back to the first entry of
// destDir.
func (e *Extractor) Extract(archivePath, destDir string) (string, error) {
	e.logger.Info("Extracting " + filepath.Base(archivePath))

	if err := os.MkdirAll(destDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}
	realDest, err := resolvePath(destDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve destination directory: %w", err)
	}

	u := &unpacker{destDir: destDir, realDest: realDest, dirs: topDirSet{}}
	switch name := strings.ToLower(archivePath); {
	case strings.HasSuffix(name, ".zip"):
		err = u.extractZip(archivePath)
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		err = u.extractTarGz(archivePath)
	default:
		return "", fmt.Errorf("unsupported archive format: %s", filepath.Base(archivePath))
	}
	if err != nil {
		return "", fmt.Errorf("extraction failed: %w", err)
	}
	e.createSymlinks(u)

	root, err := findRoot(u.dirs.list(), destDir)
	if err != nil {
		return "", err
	}

	e.logger.Success("Extracted", interfaces.F("root", root))
	return root, nil
}

func findRoot(topDirs []string, destDir string) (string, error) {
	var root string
	if len(topDirs) > 0 {
		sort.Strings(topDirs)
		root = filepath.Join(destDir, topDirs[0])
	} else {
		entries, err := os.ReadDir(destDir)
		if err != nil {
			return "", fmt.Errorf("failed to read extracted directory: %w", err)
		}
		if len(entries) == 0 {
			return "", fmt.Errorf("archive extracted nothing into %s", destDir)
		}
		root = filepath.Join(destDir, entries[0].Name())
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root directory: %w", err)
	}
	return abs, nil
}

// topDirSet collects the first path segment of nested archive entries
type topDirSet map[string]struct{}

func (s topDirSet) add(name string) {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	if i := strings.Index(name, "/"); i > 0 {
		s[name[:i]] = struct{}{}
	}
}

func (s topDirSet) list() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	return out
}

type symlinkInfo struct {
	target   string
	linkname string
}

// unpacker holds the state of one extraction. Symlinks are collected and
// created after every regular file is in place.
type unpacker struct {
	destDir  string
	realDest string // destDir with symlinks resolved
	dirs     topDirSet
	links    []symlinkInfo
}

func (u *unpacker) extractZip(zipPath string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	//nolint:errcheck // Defer close on read-only archive
	defer r.Close()

	for _, f := range r.File {
		u.dirs.add(f.Name)

		target, err := safeJoin(u.destDir, f.Name)
		if err != nil {
			return err
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := u.mkdir(target); err != nil {
				return err
			}

		case mode&os.ModeSymlink != 0:
			linkname, err := readZipEntry(f)
			if err != nil {
				return err
			}
			u.links = append(u.links, symlinkInfo{target: target, linkname: linkname})

		default:
			if err := u.writeZipEntry(f, target); err != nil {
				return err
			}
		}
	}

	return nil
}

func readZipEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open entry %s: %w", f.Name, err)
	}
	//nolint:errcheck // Defer close on entry reader
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, 4096))
	if err != nil {
		return "", fmt.Errorf("failed to read entry %s: %w", f.Name, err)
	}
	return string(data), nil
}

func (u *unpacker) writeZipEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry %s: %w", f.Name, err)
	}
	//nolint:errcheck // Defer close on entry reader
	defer rc.Close()

	return u.writeFile(target, rc, fileMode(target, f.Mode().Perm()))
}

// extractTarGz extracts a .tar.gz file to destination directory
func (u *unpacker) extractTarGz(tarPath string) error {
	//nolint:gosec // G304: File path tarPath is the cached archive
	file, err := os.Open(tarPath)
	if err != nil {
		return fmt.Errorf("failed to open tar.gz: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	//nolint:errcheck // Defer close on gzip reader
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("tar read error: %w", err)
		}

		u.dirs.add(header.Name)

		target, err := safeJoin(u.destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := u.mkdir(target); err != nil {
				return err
			}

		case tar.TypeReg:
			//nolint:gosec // G115: tar header mode fits in FileMode
			perm := os.FileMode(header.Mode).Perm()
			if err := u.writeFile(target, tr, fileMode(target, perm)); err != nil {
				return err
			}

		case tar.TypeSymlink:
			u.links = append(u.links, symlinkInfo{target: target, linkname: header.Linkname})

		default:
			// pax headers, hard links and devices are not needed by JDK or Maven
			continue
		}
	}

	return nil
}

// safeJoin joins name under root, rejecting entries that escape it
func safeJoin(root, name string) (string, error) {
	//nolint:gosec // G305: Path traversal validated below
	target := filepath.Join(root, name)

	cleanRoot := filepath.Clean(root)
	if !within(cleanRoot, target) {
		return "", fmt.Errorf("invalid file path in archive: %s", name)
	}
	return target, nil
}

func within(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(os.PathSeparator))
}

// mkdir creates dir and checks that, with the symlinks of an earlier
// extraction resolved, it still lies under the destination
func (u *unpacker) mkdir(dir string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	resolved, err := resolvePath(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory: %w", err)
	}
	if !within(u.realDest, resolved) {
		return fmt.Errorf("invalid file path in archive: %s resolves outside the destination", dir)
	}
	return nil
}

// resolvePath returns the absolute path of p with symlinks resolved
func resolvePath(p string) (string, error) {
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}

// fileMode makes sure files are readable by the owner and that launchers in a
// bin directory are executable even when the archive carries no unix modes
func fileMode(target string, perm os.FileMode) os.FileMode {
	perm |= 0600
	if filepath.Base(filepath.Dir(target)) == "bin" {
		perm |= 0700
	}
	return perm
}

func (u *unpacker) writeFile(target string, r io.Reader, perm os.FileMode) error {
	if err := u.mkdir(filepath.Dir(target)); err != nil {
		return err
	}

	// a symlink left at target by an earlier extraction is replaced, not followed
	if info, err := os.Lstat(target); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(target); err != nil {
			return fmt.Errorf("failed to replace symlink: %w", err)
		}
	}

	//nolint:gosec // G304: target was validated by safeJoin and mkdir
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(out, io.LimitReader(r, maxEntrySize+1))
	if err == nil && written > maxEntrySize {
		err = fmt.Errorf("entry %s exceeds %d bytes", filepath.Base(target), maxEntrySize)
	}
	if err != nil {
		_ = out.Close()
		_ = os.Remove(target)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	// O_TRUNC keeps the old mode of an existing file
	return os.Chmod(target, perm)
}

// createSymlinks runs after all files exist. Links pointing outside the
// destination are skipped; broken links are tolerated.
func (e *Extractor) createSymlinks(u *unpacker) {
	for _, link := range u.links {
		if err := checkLink(u.destDir, link); err != nil {
			e.logger.Warn("Skipping symlink", interfaces.F("path", link.target), interfaces.F("error", err))
			continue
		}
		if err := u.mkdir(filepath.Dir(link.target)); err != nil {
			e.logger.Warn("Skipping symlink", interfaces.F("path", link.target), interfaces.F("error", err))
			continue
		}
		_ = os.Remove(link.target)
		if err := os.Symlink(link.linkname, link.target); err != nil {
			e.logger.Warn("Failed to create symlink",
				interfaces.F("path", link.target), interfaces.F("link", link.linkname), interfaces.F("error", err))
		}
	}
}

// checkLink rejects absolute link names and relative ones leading out of destDir
func checkLink(destDir string, link symlinkInfo) error {
	if link.linkname == "" {
		return fmt.Errorf("empty link name")
	}
	if filepath.IsAbs(link.linkname) || strings.HasPrefix(link.linkname, "/") {
		return fmt.Errorf("absolute link name %s", link.linkname)
	}
	resolved := filepath.Join(filepath.Dir(link.target), link.linkname)
	if !within(filepath.Clean(destDir), resolved) {
		return fmt.Errorf("link name %s leads outside the destination", link.linkname)
	}
	return nil
}
