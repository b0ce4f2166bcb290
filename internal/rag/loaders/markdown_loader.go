package loaders

import (
	"context"

	"foxo/internal/rag/interfaces"
	"foxo/internal/rag/schema"
)

// MarkdownLoader implements the Loader interface for reading Markdown files.
// Markdown is indexed as-is; formatting characters survive into chunks and
// embed well enough that stripping them has not been worth it.
type MarkdownLoader struct{}

// NewMarkdownLoader creates a new MarkdownLoader.
func NewMarkdownLoader() *MarkdownLoader {
	return &MarkdownLoader{}
}

// Load reads a Markdown file and returns it as a single Document.
func (l *MarkdownLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	doc, err := loadWholeFile(path, schema.FileTypeMD)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return []*schema.Document{doc}, nil
}

// compile-time check to ensure MarkdownLoader implements the Loader interface
var _ interfaces.Loader = (*MarkdownLoader)(nil)
