package utils

import (
	"path/filepath"
)

// RelativePathOrSelf calculates the forward-slash relative path from root to
// fullPath. Returns the cleaned fullPath if relative calculation fails and "."
// if fullPath and root resolve to the same directory.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, absoluteRootError := filepath.Abs(root)
	if absoluteRootError != nil {
		return cleanPath
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)

	if cleanPath == cleanAbsoluteRoot {
		return "."
	}

	relativePath, relativePathError := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relativePathError != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}
