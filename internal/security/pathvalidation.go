// Package security guards the filesystem touch points of the export flows:
// output paths supplied on the command line and download filenames built
// from user-visible identifiers.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory rejects file paths that resolve outside
// safeDir, including escapes through symlinks. The target file may not
// exist yet; in that case the nearest existing ancestor is resolved so a
// symlinked parent cannot smuggle the write elsewhere.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}

	canonicalPath := canonicalize(absPath)

	canonicalSafeDir, err := filepath.EvalSymlinks(absSafeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory symlinks: %w", err)
	}

	relPath, err := filepath.Rel(canonicalSafeDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("path is outside safe directory: %w", err)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) || filepath.IsAbs(relPath) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", filePath, safeDir)
	}
	return nil
}

// canonicalize resolves symlinks in absPath. When the path does not exist
// yet it walks up to the nearest existing ancestor, resolves that, and
// rejoins the remaining components.
func canonicalize(absPath string) string {
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		return resolved
	}
	checkPath := absPath
	for {
		parentDir := filepath.Dir(checkPath)
		if parentDir == checkPath {
			return absPath
		}
		if resolved, err := filepath.EvalSymlinks(parentDir); err == nil {
			relToParent, _ := filepath.Rel(parentDir, absPath)
			return filepath.Join(resolved, relToParent)
		}
		checkPath = parentDir
	}
}

// ValidateExportPath validates a destination for CSV export. The path must
// land in the temp directory or the current working directory.
func ValidateExportPath(filePath string) error {
	tempDir := os.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	allowed := []string{tempDir, cwd}
	for _, dir := range allowed {
		if err := ValidatePathWithinDirectory(filePath, dir); err == nil {
			return nil
		}
	}
	return fmt.Errorf("export path must be within one of: %v", allowed)
}

// SanitizeFilename makes a safe filename from an arbitrary string, for use
// when a sector or subcategory name ends up in a download filename. Runs of
// disallowed characters collapse to a single underscore and the result is
// capped at a reasonable length.
func SanitizeFilename(s string) string {
	if s == "" {
		return "unknown"
	}
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
