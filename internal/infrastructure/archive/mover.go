package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ykudinov/docrouter/internal/core/domain"
)

// documentExtensions guards against a file path being passed where a
// destination directory is expected.
var documentExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".txt": true, ".rtf": true, ".odt": true,
	".jpg": true, ".jpeg": true, ".png": true, ".tif": true, ".tiff": true,
}

// Mover performs mkdir and move operations strictly confined to the
// archive root. Every invariant is checked before any filesystem
// mutation; on violation the source file stays exactly where it was.
type Mover struct {
	root string
}

func NewMover(root string) (*Mover, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve archive root: %w", err)
	}
	return &Mover{root: filepath.Clean(abs)}, nil
}

// LeafDir resolves a slash-separated relative leaf path to an absolute
// directory inside the root, without creating it. The path must have
// exactly LeafDepth segments so every resolved directory is also a
// routable leaf.
func (m *Mover) LeafDir(rel string) (string, error) {
	cleaned := strings.Trim(strings.ReplaceAll(rel, "\\", "/"), "/ ")
	if cleaned == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve leaf", errors.New("relative path is empty"))
	}
	if segments := strings.Split(cleaned, "/"); len(segments) != LeafDepth {
		return "", domain.WrapError(domain.ErrPathSafety, "resolve leaf",
			fmt.Errorf("path %q has %d segments, want %d", cleaned, len(segments), LeafDepth))
	}
	abs := filepath.Clean(filepath.Join(m.root, filepath.FromSlash(cleaned)))
	if err := m.checkContained(abs); err != nil {
		return "", err
	}
	if err := checkNotDocument(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// EnsureDir creates the leaf directory tree. Idempotent: an existing tree
// is not an error, and concurrent creation of the same leaf is safe.
func (m *Mover) EnsureDir(_ context.Context, rel string) (string, error) {
	abs, err := m.LeafDir(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", abs, err)
	}
	return abs, nil
}

// Move relocates the source file into destDir under destName. Not
// idempotent: once the source is gone a repeat call fails with
// ErrNotFound instead of silently duplicating the file. The final stat
// on the destination is the authoritative success signal.
func (m *Mover) Move(_ context.Context, op domain.MoveOperation) (string, error) {
	destDir := op.DestDir
	if !filepath.IsAbs(destDir) {
		return "", domain.WrapError(domain.ErrPathSafety, "move", fmt.Errorf("dest dir %q is not absolute", destDir))
	}
	destDir = filepath.Clean(destDir)
	if err := m.checkContained(destDir); err != nil {
		return "", err
	}
	if err := checkNotDocument(destDir); err != nil {
		return "", err
	}

	info, err := os.Stat(op.SourcePath)
	if os.IsNotExist(err) {
		return "", domain.WrapError(domain.ErrNotFound, "move", fmt.Errorf("source %s", op.SourcePath))
	}
	if err != nil {
		return "", fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", domain.WrapError(domain.ErrPathSafety, "move", fmt.Errorf("source %s is not a regular file", op.SourcePath))
	}

	name := SanitizeFilename(op.DestName)
	if name == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "move", errors.New("dest name is empty"))
	}
	dest := filepath.Join(destDir, name)

	if err := rename(op.SourcePath, dest); err != nil {
		return "", fmt.Errorf("relocate %s: %w", op.SourcePath, err)
	}
	if info, err := os.Stat(dest); err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("verify destination %s: %w", dest, err)
	}
	return dest, nil
}

// checkContained rejects any path that does not resolve to a strict
// descendant of the archive root.
func (m *Mover) checkContained(abs string) error {
	rel, err := filepath.Rel(m.root, abs)
	if err != nil {
		return domain.WrapError(domain.ErrPathSafety, "containment", err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return domain.WrapError(domain.ErrPathSafety, "containment", fmt.Errorf("%s escapes archive root %s", abs, m.root))
	}
	return nil
}

func checkNotDocument(dir string) error {
	ext := strings.ToLower(filepath.Ext(dir))
	if documentExtensions[ext] {
		return domain.WrapError(domain.ErrPathSafety, "containment", fmt.Errorf("destination dir %s looks like a document file", dir))
	}
	return nil
}

// rename falls back to copy+remove when source and destination live on
// different filesystems.
func rename(src, dest string) error {
	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return err
	}
	return os.Remove(src)
}
