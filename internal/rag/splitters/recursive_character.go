package splitters

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"foxo/internal/rag/interfaces"
	"foxo/internal/rag/schema"
)

// separatorGroups are tried in order when looking for a window boundary:
// paragraph breaks first, then sentence ends, then word breaks. A group
// only applies when cutting there still makes forward progress; otherwise
// the window falls back to a hard character cut.
var separatorGroups = [][]string{
	{"\n\n"},
	{". ", "! ", "? ", "\n"},
	{" "},
}

// RecursiveCharacterSplitter splits documents into windows of at most
// ChunkSize runes with exactly ChunkOverlap runes shared between consecutive
// chunks of the same parent. Chunks never cross document boundaries and the
// output is fully deterministic for a given input and configuration.
type RecursiveCharacterSplitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewRecursiveCharacterSplitter creates a splitter. ChunkOverlap must be
// smaller than ChunkSize so every window makes progress.
func NewRecursiveCharacterSplitter(chunkSize, chunkOverlap int) (*RecursiveCharacterSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", chunkOverlap, chunkSize)
	}
	return &RecursiveCharacterSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	}, nil
}

// Split splits each document's text into chunks. Each chunk inherits its
// parent's metadata and additionally carries its start offset (in runes).
// Units without a source get schema.UnknownSource backfilled rather than
// failing, so every chunk remains citable.
func (s *RecursiveCharacterSplitter) Split(ctx context.Context, docs []*schema.Document) ([]*schema.Document, error) {
	var chunks []*schema.Document

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		runes := []rune(doc.Text)
		if len(runes) == 0 {
			continue
		}

		chunkNumber := 0
		start := 0
		for {
			end := start + s.ChunkSize
			last := end >= len(runes)
			if last {
				end = len(runes)
			} else {
				end = s.findCut(runes, start, end)
			}

			chunkNumber++
			chunks = append(chunks, s.newChunk(doc, runes[start:end], start, chunkNumber))

			if last {
				break
			}
			start = end - s.ChunkOverlap
		}
	}

	return chunks, nil
}

// findCut returns the window end for a chunk starting at start whose hard
// cap is end. It prefers to cut just after a paragraph break, then a
// sentence end, then a space; a candidate only counts when the next window
// would still start after the current one. With no usable separator the
// hard cap stands.
func (s *RecursiveCharacterSplitter) findCut(runes []rune, start, end int) int {
	min := start + s.ChunkOverlap + 1
	for _, group := range separatorGroups {
		best := -1
		for _, sep := range group {
			cut := lastSeparatorEnd(runes, []rune(sep), min, end)
			if cut > best {
				best = cut
			}
		}
		if best >= min {
			return best
		}
	}
	return end
}

// lastSeparatorEnd finds the largest index cut in [min, max] such that the
// separator ends exactly at cut, or -1 when there is none.
func lastSeparatorEnd(runes, sep []rune, min, max int) int {
	for cut := max; cut >= min; cut-- {
		if cut < len(sep) {
			break
		}
		if runesEqual(runes[cut-len(sep):cut], sep) {
			return cut
		}
	}
	return -1
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *RecursiveCharacterSplitter) newChunk(parent *schema.Document, text []rune, startOffset, chunkNumber int) *schema.Document {
	md := make(map[string]interface{}, len(parent.Metadata)+3)
	for k, v := range parent.Metadata {
		md[k] = v
	}
	if src, ok := md[schema.MetadataKeySource].(string); !ok || src == "" {
		md[schema.MetadataKeySource] = schema.UnknownSource
	}
	md[schema.MetadataKeyStartOffset] = startOffset
	md["original_doc_id"] = parent.ID
	md["chunk_number"] = chunkNumber

	return &schema.Document{
		ID:       uuid.New().String(),
		Text:     string(text),
		Metadata: md,
	}
}

// compile-time check to ensure RecursiveCharacterSplitter implements the Splitter interface
var _ interfaces.Splitter = (*RecursiveCharacterSplitter)(nil)
