// Package api provides path resolution and file helpers shared by the rat
// configuration kinds.
package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/macropower/rat/pkg/yaml"
)

// GetConfigPath resolves filename inside rat's user configuration
// directory. $XDG_CONFIG_HOME takes precedence, then ~/.config, and as a
// last resort the system temp directory.
func GetConfigPath(filename string) string {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, "rat", filename)
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".config", "rat", filename)
	}

	tmpPath := filepath.Join(os.TempDir(), "rat", filename)

	slog.Warn("no user config directory, falling back to temp path",
		slog.String("path", tmpPath),
		slog.Any("error", err),
	)

	return tmpPath
}

// ReadFile reads a regular file, rejecting directories and other
// non-regular paths up front.
func ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	switch {
	case info.IsDir():
		return nil, fmt.Errorf("%s: path is a directory", path)

	case !info.Mode().IsRegular():
		return nil, fmt.Errorf("%s: unknown file state", path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: Potential file inclusion via variable.
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// MarshalYAML serializes an object to YAML using the shared encoder style.
func MarshalYAML(obj any) ([]byte, error) {
	var b bytes.Buffer

	enc := yaml.NewEncoder(&b)

	err := enc.Encode(obj)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return nil, fmt.Errorf("close encoder: %w", err)
	}

	return b.Bytes(), nil
}

// WriteIfNotExists writes data to path unless a regular file is already
// there, creating parent directories as needed.
func WriteIfNotExists(path string, data []byte) error {
	info, statErr := os.Stat(path)

	switch {
	case statErr == nil && info.Mode().IsRegular():
		return nil

	case statErr == nil && info.IsDir():
		return fmt.Errorf("%s: path is a directory", path)

	case statErr == nil:
		return fmt.Errorf("%s: unknown file state", path)
	}

	err := os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	err = os.WriteFile(path, data, 0o600)
	if err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

// FindConfigFile walks from targetPath up to the filesystem root looking
// for any of fileNames. In each directory the names are tried in order, so
// earlier names shadow later ones. It returns the first match, or an empty
// string when no directory on the way up has one.
func FindConfigFile(targetPath string, fileNames []string) (string, error) {
	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("get absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("stat path: %w", err)
	}

	// A file target searches from its containing directory.
	dir := absPath
	if !info.IsDir() {
		dir = filepath.Dir(absPath)
	}

	for {
		for _, name := range fileNames {
			candidate := filepath.Join(dir, name)

			_, err := os.Stat(candidate)
			if err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}

		dir = parent
	}
}

// WriteDefaultFile seeds path with defaultData unless a regular file is
// already there. With force, the existing file is renamed to a timestamped
// .old backup before the default is written.
func WriteDefaultFile(path string, defaultData []byte, force bool, kind string) error {
	exists := false

	info, statErr := os.Stat(path)

	switch {
	case statErr == nil && info.Mode().IsRegular():
		exists = true

	case statErr == nil && info.IsDir():
		return fmt.Errorf("%s: path is a directory", path)

	case statErr == nil:
		return fmt.Errorf("%s: unknown file state", path)
	}

	err := os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	if exists && force {
		backupFile := fmt.Sprintf("%s.%d.old", filepath.Base(path), time.Now().UnixNano())
		backupPath := filepath.Join(filepath.Dir(path), backupFile)

		slog.Info("backing up existing file",
			slog.String("type", kind),
			slog.String("path", backupPath),
		)

		err = os.Rename(path, backupPath)
		if err != nil {
			return fmt.Errorf("rename existing %s file to backup: %w", kind, err)
		}

		exists = false
	}

	if exists {
		slog.Debug("file already exists, skipping write",
			slog.String("type", kind),
			slog.String("path", path),
		)

		return nil
	}

	slog.Info("write default file",
		slog.String("type", kind),
		slog.String("path", path),
	)

	err = os.WriteFile(path, defaultData, 0o600)
	if err != nil {
		return fmt.Errorf("write %s file: %w", kind, err)
	}

	return nil
}
