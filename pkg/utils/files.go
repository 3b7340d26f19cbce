package utils

import (
	"path/filepath"
	"strings"
)

// GetPathInfo resolves relPath to an absolute path and its directory.
func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// DefaultOutputPath replaces the extension of inPath with .js, or appends it
// when there is none.
func DefaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ".js"
	}
	if ext == ".js" {
		return inPath + ".out.js"
	}
	return strings.TrimSuffix(inPath, ext) + ".js"
}
