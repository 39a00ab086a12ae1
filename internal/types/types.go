// Package types defines the cross-package data structures used by the riveter CLI.
package types

const (
	FormatText = "text"
	FormatXML  = "xml"
)

// Entry describes one filesystem object visited during the walk. Depth is
// normalized so the root's immediate children sit at depth zero; the root
// itself is never recorded as an Entry.
type Entry struct {
	Name  string
	IsDir bool
	Depth int
}

// LoadedFile pairs a non-directory Entry with its decoded text content. A
// LoadedFile exists only when the read succeeded and the bytes were valid
// UTF-8 text.
type LoadedFile struct {
	AbsolutePath string
	RelativePath string
	Content      string
	SizeBytes    int64
}
