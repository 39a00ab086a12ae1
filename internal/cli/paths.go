package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// errorDefaultDirectoryMissingMessage is reported when the implicit "." root is gone.
	errorDefaultDirectoryMissingMessage = "Current directory '.' not found or inaccessible."
	// errorDirectoryAccessFormat reports a root that could not be resolved.
	errorDirectoryAccessFormat = "Could not access directory '%s': %v"
	// errorNotDirectoryFormat reports a resolved root that is not a directory.
	errorNotDirectoryFormat = "'%s' is not a valid directory"
)

// resolveRoot canonicalizes the requested directory into an absolute path and
// verifies it exists and is a directory. Every failure here is fatal to the run.
func resolveRoot(directory string) (string, error) {
	absolutePath, absoluteError := filepath.Abs(directory)
	if absoluteError != nil {
		if os.IsNotExist(absoluteError) && directory == defaultDirectory {
			return "", errors.New(errorDefaultDirectoryMissingMessage)
		}
		return "", fmt.Errorf(errorDirectoryAccessFormat, directory, absoluteError)
	}

	canonicalPath, canonicalError := filepath.EvalSymlinks(absolutePath)
	if canonicalError != nil {
		if os.IsNotExist(canonicalError) && directory == defaultDirectory {
			return "", errors.New(errorDefaultDirectoryMissingMessage)
		}
		return "", fmt.Errorf(errorDirectoryAccessFormat, directory, canonicalError)
	}

	fileInformation, statError := os.Stat(canonicalPath)
	if statError != nil {
		return "", fmt.Errorf(errorDirectoryAccessFormat, directory, statError)
	}
	if !fileInformation.IsDir() {
		return "", fmt.Errorf(errorNotDirectoryFormat, canonicalPath)
	}
	return canonicalPath, nil
}
