package walker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/d4mr/riveter/internal/rules"
	"github.com/d4mr/riveter/internal/types"
	"github.com/d4mr/riveter/internal/utils"
)

// writeTestFile creates a file with the specified content, failing the test on error.
func writeTestFile(testingHandle *testing.T, filePath string, content []byte) {
	testingHandle.Helper()
	if writeError := os.WriteFile(filePath, content, 0o644); writeError != nil {
		testingHandle.Fatalf("failed to write %s: %v", filePath, writeError)
	}
}

// makeTestDirectory creates a directory, failing the test on error.
func makeTestDirectory(testingHandle *testing.T, directoryPath string) {
	testingHandle.Helper()
	if makeError := os.MkdirAll(directoryPath, 0o755); makeError != nil {
		testingHandle.Fatalf("failed to create %s: %v", directoryPath, makeError)
	}
}

// buildOverrides compiles exclusion patterns for the test root.
func buildOverrides(testingHandle *testing.T, rootDirectory string, patterns []string) *rules.OverrideSet {
	testingHandle.Helper()
	overrideSet, buildError := rules.Build(rootDirectory, patterns, nil)
	if buildError != nil {
		testingHandle.Fatalf("rules.Build failed: %v", buildError)
	}
	return overrideSet
}

// entryNames extracts the recorded entry names in walk order.
func entryNames(entries []types.Entry) []string {
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	return names
}

// fileRelativePaths extracts the loaded file paths in walk order.
func fileRelativePaths(files []types.LoadedFile) []string {
	paths := make([]string, 0, len(files))
	for _, loadedFile := range files {
		paths = append(paths, loadedFile.RelativePath)
	}
	return paths
}

func TestWalkCollectsEntriesAndContentsInOrder(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	makeTestDirectory(testingHandle, filepath.Join(rootDirectory, "dirA"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "dirA", "f1.txt"), []byte("first\n"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "f2.txt"), []byte("second\n"))

	walkResult, walkError := Walk(Options{
		Root:             rootDirectory,
		Overrides:        buildOverrides(testingHandle, rootDirectory, nil),
		RespectGitignore: true,
	})
	if walkError != nil {
		testingHandle.Fatalf("Walk failed: %v", walkError)
	}

	expectedEntries := []types.Entry{
		{Name: "dirA", IsDir: true, Depth: 0},
		{Name: "f1.txt", IsDir: false, Depth: 1},
		{Name: "f2.txt", IsDir: false, Depth: 0},
	}
	if len(walkResult.Entries) != len(expectedEntries) {
		testingHandle.Fatalf("unexpected entries: %v", walkResult.Entries)
	}
	for entryIndex, expectedEntry := range expectedEntries {
		if walkResult.Entries[entryIndex] != expectedEntry {
			testingHandle.Fatalf("entry %d = %+v, want %+v", entryIndex, walkResult.Entries[entryIndex], expectedEntry)
		}
	}

	expectedPaths := []string{"dirA/f1.txt", "f2.txt"}
	actualPaths := fileRelativePaths(walkResult.Files)
	if strings.Join(actualPaths, ",") != strings.Join(expectedPaths, ",") {
		testingHandle.Fatalf("unexpected loaded files: %v, want %v", actualPaths, expectedPaths)
	}
	if walkResult.Files[0].Content != "first\n" || walkResult.Files[1].Content != "second\n" {
		testingHandle.Fatalf("unexpected file contents: %+v", walkResult.Files)
	}
}

func TestWalkMaxDepthTruncatesTraversal(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	makeTestDirectory(testingHandle, filepath.Join(rootDirectory, "a", "b"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "a", "b", "c.txt"), []byte("deep\n"))

	walkResult, walkError := Walk(Options{
		Root:      rootDirectory,
		Overrides: buildOverrides(testingHandle, rootDirectory, nil),
		MaxDepth:  1,
	})
	if walkError != nil {
		testingHandle.Fatalf("Walk failed: %v", walkError)
	}

	names := entryNames(walkResult.Entries)
	if len(names) != 1 || names[0] != "a" {
		testingHandle.Fatalf("expected only entry 'a' at max depth 1, got %v", names)
	}
	if len(walkResult.Files) != 0 {
		testingHandle.Fatalf("expected no loaded files below the depth limit, got %v", fileRelativePaths(walkResult.Files))
	}
}

func TestWalkSkipsBinaryContentWithDiagnostic(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "image.bin"), []byte{0xff, 0xfe, 0x00, 0x12})
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "notes.txt"), []byte("text\n"))

	var infoMessages []string
	walkResult, walkError := Walk(Options{
		Root:      rootDirectory,
		Overrides: buildOverrides(testingHandle, rootDirectory, nil),
		Info: func(message string) {
			infoMessages = append(infoMessages, message)
		},
	})
	if walkError != nil {
		testingHandle.Fatalf("Walk failed: %v", walkError)
	}

	names := entryNames(walkResult.Entries)
	if !utilsContains(names, "image.bin") {
		testingHandle.Fatalf("binary file missing from tree entries: %v", names)
	}
	if utilsContains(fileRelativePaths(walkResult.Files), "image.bin") {
		testingHandle.Fatalf("binary file should not appear in loaded contents")
	}
	if len(infoMessages) != 1 || !strings.Contains(infoMessages[0], "binary or non-UTF8") {
		testingHandle.Fatalf("expected one binary skip diagnostic, got %v", infoMessages)
	}
}

func TestWalkWarnsAndContinuesOnUnreadableDirectory(testingHandle *testing.T) {
	if os.Geteuid() == 0 {
		testingHandle.Skip("directory permissions are not enforced for root")
	}

	rootDirectory := testingHandle.TempDir()
	lockedDirectory := filepath.Join(rootDirectory, "locked")
	makeTestDirectory(testingHandle, lockedDirectory)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "ok.txt"), []byte("fine\n"))
	if chmodError := os.Chmod(lockedDirectory, 0o000); chmodError != nil {
		testingHandle.Fatalf("failed to revoke permissions on %s: %v", lockedDirectory, chmodError)
	}
	testingHandle.Cleanup(func() {
		_ = os.Chmod(lockedDirectory, 0o755)
	})

	var warnings []string
	walkResult, walkError := Walk(Options{
		Root:      rootDirectory,
		Overrides: buildOverrides(testingHandle, rootDirectory, nil),
		Warn: func(message string) {
			warnings = append(warnings, message)
		},
	})
	if walkError != nil {
		testingHandle.Fatalf("unreadable subdirectory must not abort the walk: %v", walkError)
	}

	names := entryNames(walkResult.Entries)
	if !utilsContains(names, "locked") {
		testingHandle.Fatalf("unreadable directory should still appear as a tree entry: %v", names)
	}
	if !utilsContains(names, "ok.txt") {
		testingHandle.Fatalf("siblings of the unreadable directory must survive: %v", names)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "Error accessing entry") {
		testingHandle.Fatalf("expected one access warning, got %v", warnings)
	}
}

func TestWalkWarnsWhenFileReadFails(testingHandle *testing.T) {
	if os.Geteuid() == 0 {
		testingHandle.Skip("file permissions are not enforced for root")
	}

	rootDirectory := testingHandle.TempDir()
	blockedPath := filepath.Join(rootDirectory, "blocked.txt")
	writeTestFile(testingHandle, blockedPath, []byte("secret\n"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "readable.txt"), []byte("open\n"))
	if chmodError := os.Chmod(blockedPath, 0o000); chmodError != nil {
		testingHandle.Fatalf("failed to revoke permissions on %s: %v", blockedPath, chmodError)
	}
	testingHandle.Cleanup(func() {
		_ = os.Chmod(blockedPath, 0o644)
	})

	var warnings []string
	walkResult, walkError := Walk(Options{
		Root:      rootDirectory,
		Overrides: buildOverrides(testingHandle, rootDirectory, nil),
		Warn: func(message string) {
			warnings = append(warnings, message)
		},
	})
	if walkError != nil {
		testingHandle.Fatalf("unreadable file must not abort the walk: %v", walkError)
	}

	names := entryNames(walkResult.Entries)
	if !utilsContains(names, "blocked.txt") {
		testingHandle.Fatalf("unreadable file should still appear as a tree entry: %v", names)
	}
	paths := fileRelativePaths(walkResult.Files)
	if utilsContains(paths, "blocked.txt") {
		testingHandle.Fatalf("unreadable file must not contribute content: %v", paths)
	}
	if !utilsContains(paths, "readable.txt") {
		testingHandle.Fatalf("readable sibling content must survive: %v", paths)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "Could not read file") {
		testingHandle.Fatalf("expected one read warning, got %v", warnings)
	}
}

func TestWalkRespectsGitignoreFlag(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, utils.GitIgnoreFileName), []byte("*.log\n"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "app.log"), []byte("log\n"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "keep.txt"), []byte("keep\n"))

	testCases := []struct {
		name             string
		respectGitignore bool
		expectLogEntry   bool
	}{
		{name: "gitignore respected", respectGitignore: true, expectLogEntry: false},
		{name: "gitignore disabled", respectGitignore: false, expectLogEntry: true},
	}

	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(subTest *testing.T) {
			walkResult, walkError := Walk(Options{
				Root:             rootDirectory,
				Overrides:        buildOverrides(testingHandle, rootDirectory, nil),
				RespectGitignore: testCase.respectGitignore,
			})
			if walkError != nil {
				subTest.Fatalf("Walk failed: %v", walkError)
			}
			names := entryNames(walkResult.Entries)
			if utilsContains(names, "app.log") != testCase.expectLogEntry {
				subTest.Fatalf("app.log presence = %v, want %v (entries %v)", utilsContains(names, "app.log"), testCase.expectLogEntry, names)
			}
			if !utilsContains(names, "keep.txt") {
				subTest.Fatalf("keep.txt should always be listed, got %v", names)
			}
		})
	}
}

func TestWalkScopesNestedGitignoreToItsDirectory(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	makeTestDirectory(testingHandle, filepath.Join(rootDirectory, "sub"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "sub", utils.GitIgnoreFileName), []byte("secret.txt\n"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "sub", "secret.txt"), []byte("hidden\n"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "secret.txt"), []byte("visible\n"))

	walkResult, walkError := Walk(Options{
		Root:             rootDirectory,
		Overrides:        buildOverrides(testingHandle, rootDirectory, nil),
		RespectGitignore: true,
	})
	if walkError != nil {
		testingHandle.Fatalf("Walk failed: %v", walkError)
	}

	paths := fileRelativePaths(walkResult.Files)
	if utilsContains(paths, "sub/secret.txt") {
		testingHandle.Fatalf("nested gitignore should exclude sub/secret.txt: %v", paths)
	}
	if !utilsContains(paths, "secret.txt") {
		testingHandle.Fatalf("root secret.txt should not be affected by the nested gitignore: %v", paths)
	}
}

func TestWalkOverridesBeatGitignoreReinclusion(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, utils.GitIgnoreFileName), []byte("*.txt\n!keep.txt\n"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "keep.txt"), []byte("keep\n"))

	walkResult, walkError := Walk(Options{
		Root:             rootDirectory,
		Overrides:        buildOverrides(testingHandle, rootDirectory, []string{"keep.txt"}),
		RespectGitignore: true,
	})
	if walkError != nil {
		testingHandle.Fatalf("Walk failed: %v", walkError)
	}

	names := entryNames(walkResult.Entries)
	if utilsContains(names, "keep.txt") {
		testingHandle.Fatalf("exclude pattern must win over gitignore re-inclusion, got entries %v", names)
	}
}

func TestWalkGitignoreNegationReincludesWithoutOverride(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, utils.GitIgnoreFileName), []byte("*.txt\n!keep.txt\n"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "keep.txt"), []byte("keep\n"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "drop.txt"), []byte("drop\n"))

	walkResult, walkError := Walk(Options{
		Root:             rootDirectory,
		Overrides:        buildOverrides(testingHandle, rootDirectory, nil),
		RespectGitignore: true,
	})
	if walkError != nil {
		testingHandle.Fatalf("Walk failed: %v", walkError)
	}

	names := entryNames(walkResult.Entries)
	if !utilsContains(names, "keep.txt") {
		testingHandle.Fatalf("negated pattern should re-include keep.txt, got %v", names)
	}
	if utilsContains(names, "drop.txt") {
		testingHandle.Fatalf("drop.txt should stay gitignored, got %v", names)
	}
}

// utilsContains reports whether the slice contains the target string.
func utilsContains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
