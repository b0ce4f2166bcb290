package schema

import "strconv"

const (
	// MetadataKeySource is the key for the source file name.
	MetadataKeySource = "source"
	// MetadataKeyPage is the key for the 1-based page number of the source
	// document. Only PDF units carry it.
	MetadataKeyPage = "page"
	// MetadataKeyFileType is the key for the source file type ("pdf", "txt", "md").
	MetadataKeyFileType = "file_type"
	// MetadataKeyStartOffset is the key for the rune offset of a chunk within
	// its parent unit's text.
	MetadataKeyStartOffset = "start_offset"
	// MetadataKeyScore is the key for the similarity score attached to a
	// retrieved chunk.
	MetadataKeyScore = "score"
)

// File types recorded under MetadataKeyFileType.
const (
	FileTypePDF = "pdf"
	FileTypeTxt = "txt"
	FileTypeMD  = "md"
)

// UnknownSource is backfilled by the splitter when a unit carries no source
// metadata, so every chunk can always be cited.
const UnknownSource = "Unknown_Source_File"

// Document is the central data structure carried through the RAG pipeline.
// The loaders produce one Document per logical text unit (a PDF page, a whole
// txt/md file); the splitter produces one Document per chunk.
type Document struct {
	// ID is the unique identifier for this unit or chunk.
	ID string

	// Text is the string content.
	Text string

	// Embedding is the vector representation of the text. Empty until the
	// indexing pipeline embeds the chunk.
	Embedding []float32

	// Metadata holds provenance and scoring data, keyed by the MetadataKey
	// constants above.
	Metadata map[string]interface{}
}

// Source returns the source file name, or UnknownSource when absent.
func (d *Document) Source() string {
	if s, ok := d.Metadata[MetadataKeySource].(string); ok && s != "" {
		return s
	}
	return UnknownSource
}

// Page returns the page number and whether the document carries one.
func (d *Document) Page() (int, bool) {
	switch v := d.Metadata[MetadataKeyPage].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}

// PageLabel returns the page number as a string, or "N/A" when absent.
func (d *Document) PageLabel() string {
	if p, ok := d.Page(); ok {
		return strconv.Itoa(p)
	}
	return "N/A"
}
