package output

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/d4mr/riveter/internal/types"
)

const (
	xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`

	rootElementName         = "projectContext"
	rootPathAttributeName   = "rootPath"
	treeElementName         = "tree"
	directoryElementName    = "dir"
	fileElementName         = "file"
	nameAttributeName       = "name"
	fileContentsElementName = "fileContents"
	pathAttributeName       = "path"

	noFilesComment = " No readable files found or all were excluded/ignored "
)

var (
	xmlTextReplacer      = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	xmlAttributeReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// xmlAttribute is a single name/value attribute pair.
type xmlAttribute struct {
	name  string
	value string
}

// xmlDocumentWriter emits a well-formed, indented XML document. Element text
// is written inline between its tags so file contents survive byte-for-byte
// apart from standard XML escaping.
type xmlDocumentWriter struct {
	builder strings.Builder
	open    []string
}

func (writer *xmlDocumentWriter) declaration() {
	writer.builder.WriteString(xmlDeclaration + "\n")
}

func (writer *xmlDocumentWriter) indent() {
	writer.builder.WriteString(strings.Repeat(indentUnit, len(writer.open)))
}

func (writer *xmlDocumentWriter) startTag(name string, attributes []xmlAttribute) {
	writer.builder.WriteString("<" + name)
	for _, attribute := range attributes {
		writer.builder.WriteString(" " + attribute.name + `="`)
		writer.builder.WriteString(xmlAttributeReplacer.Replace(attribute.value))
		writer.builder.WriteString(`"`)
	}
}

// openElement writes an opening tag and pushes it on the element stack.
func (writer *xmlDocumentWriter) openElement(name string, attributes ...xmlAttribute) {
	writer.indent()
	writer.startTag(name, attributes)
	writer.builder.WriteString(">\n")
	writer.open = append(writer.open, name)
}

// closeElement pops the innermost element and writes its closing tag.
func (writer *xmlDocumentWriter) closeElement() {
	name := writer.open[len(writer.open)-1]
	writer.open = writer.open[:len(writer.open)-1]
	writer.indent()
	writer.builder.WriteString("</" + name + ">\n")
}

// emptyElement writes a self-closed leaf element.
func (writer *xmlDocumentWriter) emptyElement(name string, attributes ...xmlAttribute) {
	writer.indent()
	writer.startTag(name, attributes)
	writer.builder.WriteString("/>\n")
}

// textElement writes an element whose escaped text sits inline between the tags.
func (writer *xmlDocumentWriter) textElement(name string, text string, attributes ...xmlAttribute) {
	writer.indent()
	writer.startTag(name, attributes)
	writer.builder.WriteString(">")
	writer.builder.WriteString(xmlTextReplacer.Replace(text))
	writer.builder.WriteString("</" + name + ">\n")
}

func (writer *xmlDocumentWriter) comment(text string) {
	writer.indent()
	writer.builder.WriteString("<!--" + text + "-->\n")
}

// WriteXML renders the project-context document to writer: a nested tree of
// dir and file elements mirroring the entry sequence, followed by a
// fileContents section carrying each loaded file's raw text.
func WriteXML(writer io.Writer, rootPath string, entries []types.Entry, files []types.LoadedFile) error {
	document := &xmlDocumentWriter{}
	document.declaration()
	document.openElement(rootElementName, xmlAttribute{rootPathAttributeName, rootPath})

	document.openElement(treeElementName)
	writeTreeElements(document, rootPath, entries)
	document.closeElement()

	document.openElement(fileContentsElementName)
	if len(files) == 0 {
		document.comment(noFilesComment)
	} else {
		for _, loadedFile := range files {
			document.textElement(fileElementName, loadedFile.Content, xmlAttribute{pathAttributeName, loadedFile.RelativePath})
		}
	}
	document.closeElement()

	document.closeElement()

	_, writeError := io.WriteString(writer, document.builder.String())
	return writeError
}

// writeTreeElements reconstructs element nesting from the flat, depth-tagged
// entry sequence. A stack of open-directory depths is seeded with the root's
// depth; before each entry every open directory at or below the entry's depth
// is closed, then a directory entry opens a new scope while a file entry
// becomes a self-closed leaf.
func writeTreeElements(document *xmlDocumentWriter, rootPath string, entries []types.Entry) {
	document.openElement(directoryElementName, xmlAttribute{nameAttributeName, filepath.Base(rootPath)})
	openDepths := []int{0}

	for _, entry := range entries {
		entryElementDepth := entry.Depth + 1

		for len(openDepths) > 0 && openDepths[len(openDepths)-1] >= entryElementDepth {
			document.closeElement()
			openDepths = openDepths[:len(openDepths)-1]
		}

		if entry.IsDir {
			document.openElement(directoryElementName, xmlAttribute{nameAttributeName, entry.Name})
			openDepths = append(openDepths, entryElementDepth)
		} else {
			document.emptyElement(fileElementName, xmlAttribute{nameAttributeName, entry.Name})
		}
	}

	for len(openDepths) > 1 {
		document.closeElement()
		openDepths = openDepths[:len(openDepths)-1]
	}

	document.closeElement()
}
