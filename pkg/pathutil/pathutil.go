// Package pathutil provides path expansion and filename helpers shared by the
// rename core and its CLI/server surfaces.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ExpandPath expands tilde (~) to the home directory and converts to an
// absolute path.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}

		if path == "~" {
			path = homeDir
		} else {
			path = filepath.Join(homeDir, path[2:])
		}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	return absPath, nil
}

// ValidatePath checks if a path exists on the filesystem
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", path)
		}
		return fmt.Errorf("cannot access path: %w", err)
	}

	return nil
}

// ExpandAndValidatePath expands tilde and validates that the path exists
func ExpandAndValidatePath(path string) (string, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return "", err
	}
	if err := ValidatePath(expanded); err != nil {
		return "", err
	}
	return expanded, nil
}

// SplitFilename splits a filename into its name and extension parts. The
// extension keeps its leading dot. Dotfiles like ".gitignore" are treated as
// extensionless names.
func SplitFilename(filename string) (name, ext string) {
	if filename == "" {
		return "", ""
	}

	if strings.HasPrefix(filename, ".") && !strings.Contains(filename[1:], ".") {
		return filename, ""
	}

	idx := strings.LastIndex(filename, ".")
	if idx <= 0 {
		return filename, ""
	}
	return filename[:idx], filename[idx:]
}

// WithSequenceSuffix inserts a 1-based sequence number before the extension:
// photo.jpg, 2 -> photo_2.jpg.
func WithSequenceSuffix(filename string, seq int) string {
	name, ext := SplitFilename(filename)
	return fmt.Sprintf("%s_%d%s", name, seq, ext)
}

// WithUniqueSuffix inserts a short random suffix before the extension:
// photo.jpg -> photo_3f9c2a.jpg.
func WithUniqueSuffix(filename string) string {
	name, ext := SplitFilename(filename)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("%s_%s%s", name, suffix, ext)
}

// SameDir reports whether two paths share the same parent directory,
// comparing case-insensitively when insensitive is true.
func SameDir(a, b string, insensitive bool) bool {
	da := filepath.Dir(a)
	db := filepath.Dir(b)
	if insensitive {
		return strings.EqualFold(da, db)
	}
	return da == db
}

// EqualPath compares two paths, optionally ignoring case.
func EqualPath(a, b string, insensitive bool) bool {
	if insensitive {
		return strings.EqualFold(a, b)
	}
	return a == b
}
