package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AppDirName is the per-user directory holding config, credentials and run
// reports.
const AppDirName = ".snowshift"

// AppDir returns the absolute path of the per-user application directory.
func AppDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, AppDirName), nil
}

// EnsureAppDir creates the application directory if it does not exist and
// returns its path.
func EnsureAppDir() (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, DirPermissionSecure); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return dir, nil
}

// CleanPath sanitizes a file path to prevent directory traversal attacks
func CleanPath(path string) (string, error) {
	cleaned := filepath.Clean(path)

	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid path: contains directory traversal")
	}

	if !filepath.IsAbs(cleaned) {
		abs, err := filepath.Abs(cleaned)
		if err != nil {
			return "", fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		cleaned = abs
	}

	return cleaned, nil
}

// ValidatePath ensures a path is within an allowed directory
func ValidatePath(path, baseDir string) (string, error) {
	cleanedPath, err := CleanPath(path)
	if err != nil {
		return "", err
	}

	cleanedBase, err := CleanPath(baseDir)
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(cleanedPath, cleanedBase) {
		return "", fmt.Errorf("path is outside allowed directory")
	}

	return cleanedPath, nil
}
