package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// executableDir resolves the directory holding the running binary. All
// relative paths in the configuration resolve against it, never against the
// current working directory, so the service behaves the same whether launched
// from a shell, a unit file or a wrapper script.
func executableDir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "_BASE_DIR"); dir != "" {
		return dir, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return filepath.Dir(exe), nil
}

// ExportPath returns the full path for a named export file inside the
// configured exports directory.
func (c *Config) ExportPath(name string) string {
	return filepath.Join(c.Paths.ExportsDir, name)
}
