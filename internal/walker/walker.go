// Package walker enumerates filesystem entries under a resolved root, honoring
// .gitignore rules and exclusion overrides, and loads text file contents along
// the way.
package walker

import (
	"fmt"
	"os"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/d4mr/riveter/internal/rules"
	"github.com/d4mr/riveter/internal/types"
	"github.com/d4mr/riveter/internal/utils"
)

const (
	errorNilRoot = "walker: root path is empty"

	warningDirectoryReadFormat = "Warning: Error accessing entry %s: %v"
	warningGitignoreLoadFormat = "Warning: Could not parse %s: %v (Ignoring)"
	warningFileReadFormat      = "Warning: Could not read file '%s': %v (Skipping content)"
	infoBinarySkippedFormat    = "Info: Skipping binary or non-UTF8 file: '%s'"

	directorySuffix = "/"
)

// Options configures a single traversal. The walker is a pure function of the
// root, the override set, and the flags; warnings and informational
// diagnostics are routed through the callbacks.
type Options struct {
	Root             string
	Overrides        *rules.OverrideSet
	RespectGitignore bool
	MaxDepth         int
	Warn             func(message string)
	Info             func(message string)
}

// Result holds the ordered outcome of one traversal pass. Entries appear in
// pre-order; Files lists every non-directory entry whose content decoded as
// text, in the same walk order.
type Result struct {
	Entries []types.Entry
	Files   []types.LoadedFile
}

// ignoreScope pairs a compiled .gitignore with the directory that supplied it.
// Paths are matched relative to that directory, innermost scope first.
type ignoreScope struct {
	directory string
	matcher   *ignore.GitIgnore
}

type traversal struct {
	options Options
	result  Result
	scopes  []ignoreScope
}

// Walk performs a recursive traversal of options.Root. Per-entry failures are
// reported through options.Warn and skipped; they never abort the walk.
func Walk(options Options) (*Result, error) {
	if options.Root == "" {
		return nil, fmt.Errorf(errorNilRoot)
	}
	if options.Warn == nil {
		options.Warn = func(string) {}
	}
	if options.Info == nil {
		options.Info = func(string) {}
	}

	walk := &traversal{options: options}
	walk.descend(options.Root, 0)
	return &walk.result, nil
}

// descend visits the children of directoryPath, which sit at the given
// normalized depth, and recurses into subdirectories.
func (walk *traversal) descend(directoryPath string, childDepth int) {
	if walk.options.MaxDepth > 0 && childDepth >= walk.options.MaxDepth {
		return
	}

	scopePushed := walk.pushIgnoreScope(directoryPath)
	if scopePushed {
		defer walk.popIgnoreScope()
	}

	directoryEntries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		walk.options.Warn(fmt.Sprintf(warningDirectoryReadFormat, directoryPath, readError))
		return
	}

	for _, directoryEntry := range directoryEntries {
		childPath := filepath.Join(directoryPath, directoryEntry.Name())
		isDirectory := directoryEntry.IsDir()
		relativePath := utils.RelativePathOrSelf(childPath, walk.options.Root)

		if walk.options.Overrides.Excluded(relativePath, isDirectory) {
			continue
		}
		if walk.options.RespectGitignore && walk.gitIgnored(childPath, isDirectory) {
			continue
		}

		walk.result.Entries = append(walk.result.Entries, types.Entry{
			Name:  directoryEntry.Name(),
			IsDir: isDirectory,
			Depth: childDepth,
		})

		if isDirectory {
			walk.descend(childPath, childDepth+1)
			continue
		}

		walk.loadFile(childPath, relativePath)
	}
}

// loadFile reads the whole file once and records a LoadedFile when the bytes
// decode as text. Binary content downgrades to an informational diagnostic.
func (walk *traversal) loadFile(filePath string, relativePath string) {
	contentBytes, readError := os.ReadFile(filePath)
	if readError != nil {
		walk.options.Warn(fmt.Sprintf(warningFileReadFormat, filePath, readError))
		return
	}
	if utils.IsBinary(contentBytes) {
		walk.options.Info(fmt.Sprintf(infoBinarySkippedFormat, filePath))
		return
	}
	walk.result.Files = append(walk.result.Files, types.LoadedFile{
		AbsolutePath: filePath,
		RelativePath: relativePath,
		Content:      string(contentBytes),
		SizeBytes:    int64(len(contentBytes)),
	})
}

// pushIgnoreScope compiles the .gitignore found in directoryPath, if any, and
// reports whether a scope was pushed. A malformed ignore file is reported and
// ignored rather than aborting the walk.
func (walk *traversal) pushIgnoreScope(directoryPath string) bool {
	if !walk.options.RespectGitignore {
		return false
	}
	gitIgnorePath := filepath.Join(directoryPath, utils.GitIgnoreFileName)
	fileInformation, statError := os.Stat(gitIgnorePath)
	if statError != nil || fileInformation.IsDir() {
		return false
	}
	matcher, compileError := ignore.CompileIgnoreFile(gitIgnorePath)
	if compileError != nil {
		walk.options.Warn(fmt.Sprintf(warningGitignoreLoadFormat, gitIgnorePath, compileError))
		return false
	}
	walk.scopes = append(walk.scopes, ignoreScope{directory: directoryPath, matcher: matcher})
	return true
}

func (walk *traversal) popIgnoreScope() {
	walk.scopes = walk.scopes[:len(walk.scopes)-1]
}

// gitIgnored consults the ignore scopes innermost first. The first scope whose
// rules reach a decision for the path wins, matching git's precedence where a
// nested .gitignore overrides its ancestors.
func (walk *traversal) gitIgnored(absolutePath string, isDirectory bool) bool {
	for scopeIndex := len(walk.scopes) - 1; scopeIndex >= 0; scopeIndex-- {
		scope := walk.scopes[scopeIndex]
		relativePath := utils.RelativePathOrSelf(absolutePath, scope.directory)

		if isDirectory {
			matched, decidingPattern := scope.matcher.MatchesPathHow(relativePath + directorySuffix)
			if decidingPattern != nil {
				return matched
			}
		}
		matched, decidingPattern := scope.matcher.MatchesPathHow(relativePath)
		if decidingPattern != nil {
			return matched
		}
	}
	return false
}
