package loaders

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"foxo/internal/rag/interfaces"
	"foxo/internal/rag/schema"
)

// TxtLoader implements the Loader interface for reading plain text files.
type TxtLoader struct{}

// NewTxtLoader creates a new TxtLoader.
func NewTxtLoader() *TxtLoader {
	return &TxtLoader{}
}

// Load reads a text file and returns it as a single Document. Files that are
// empty or contain only whitespace yield no Document; content that is not
// valid UTF-8 is rejected so a binary file cannot poison the index.
func (l *TxtLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	doc, err := loadWholeFile(path, schema.FileTypeTxt)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return []*schema.Document{doc}, nil
}

// loadWholeFile is shared by the txt and markdown loaders: one file becomes
// one Document.
func loadWholeFile(path, fileType string) (*schema.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := string(content)
	if !utf8.ValidString(text) {
		return nil, &DecodeError{Path: path}
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	return &schema.Document{
		ID:   uuid.New().String(),
		Text: text,
		Metadata: map[string]interface{}{
			schema.MetadataKeySource:   filepath.Base(path),
			schema.MetadataKeyFileType: fileType,
		},
	}, nil
}

// DecodeError reports a file whose contents are not valid UTF-8 text.
type DecodeError struct {
	Path string
}

func (e *DecodeError) Error() string {
	return "file is not valid UTF-8 text: " + e.Path
}

// compile-time check to ensure TxtLoader implements the Loader interface
var _ interfaces.Loader = (*TxtLoader)(nil)
