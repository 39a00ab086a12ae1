// Package output renders the collected directory entries and file contents as
// either a plain-text or an XML project-context document.
package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/d4mr/riveter/internal/types"
)

const (
	treeSectionHeader    = "--- Directory Tree ---"
	contentSectionHeader = "--- File Contents ---"
	noFilesPlaceholder   = "(No readable files found or all were excluded/ignored)"
	fileSeparatorLine    = "========================================"
	fileHeaderFormat     = "File: %s"

	indentUnit      = "  "
	directorySuffix = "/"
)

// WriteText renders the indented tree listing followed by the concatenated
// file contents to writer.
func WriteText(writer io.Writer, rootPath string, entries []types.Entry, files []types.LoadedFile) error {
	var builder strings.Builder

	builder.WriteString(treeSectionHeader + "\n")
	builder.WriteString(filepath.Base(rootPath) + directorySuffix + "\n")
	for _, entry := range entries {
		builder.WriteString(strings.Repeat(indentUnit, entry.Depth+1))
		builder.WriteString(entry.Name)
		if entry.IsDir {
			builder.WriteString(directorySuffix)
		}
		builder.WriteString("\n")
	}

	builder.WriteString("\n" + contentSectionHeader + "\n")
	if len(files) == 0 {
		builder.WriteString(noFilesPlaceholder + "\n")
	} else {
		for _, loadedFile := range files {
			builder.WriteString(fileSeparatorLine + "\n")
			builder.WriteString(fmt.Sprintf(fileHeaderFormat, loadedFile.RelativePath) + "\n")
			builder.WriteString(fileSeparatorLine + "\n")
			builder.WriteString(strings.TrimSpace(loadedFile.Content) + "\n")
			builder.WriteString("\n")
		}
	}

	_, writeError := io.WriteString(writer, builder.String())
	return writeError
}
