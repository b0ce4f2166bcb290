package loaders

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"foxo/internal/rag/interfaces"
	"foxo/internal/rag/schema"
	"foxo/pkg/logger"
)

// SkippedFile records one source file that could not be loaded. Reason
// duplicates Err as text so the record survives JSON encoding.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Report summarizes one LoadAll run for caller-side health reporting.
type Report struct {
	FilesFound  int
	FilesLoaded int
	Skipped     []SkippedFile
}

// DirectoryLoader scans a folder non-recursively and dispatches each
// supported file to the loader registered for its extension.
type DirectoryLoader struct {
	loaders map[string]interfaces.Loader
	log     *logger.Logger
}

// NewDirectoryLoader creates a DirectoryLoader with the default registry:
// .pdf, .txt and .md.
func NewDirectoryLoader(log *logger.Logger) *DirectoryLoader {
	return &DirectoryLoader{
		loaders: map[string]interfaces.Loader{
			".pdf": NewPdfLoader(),
			".txt": NewTxtLoader(),
			".md":  NewMarkdownLoader(),
		},
		log: log,
	}
}

// LoadAll reads every supported file directly inside folder and returns the
// resulting units in file-name order. A file that fails to parse is skipped
// and recorded in the Report; it never aborts the batch. An empty folder is
// not an error: the caller decides whether zero units is fatal.
func (d *DirectoryLoader) LoadAll(ctx context.Context, folder string) ([]*schema.Document, *Report, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read folder %s: %w", folder, err)
	}

	// Deterministic order keeps re-ingestion runs comparable.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	report := &Report{}
	var documents []*schema.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		loader, ok := d.loaders[ext]
		if !ok {
			continue
		}
		report.FilesFound++

		path := filepath.Join(folder, entry.Name())
		docs, err := loader.Load(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			d.log.WithError(err).Warn(fmt.Sprintf("Skipping unreadable file: %s", path))
			report.Skipped = append(report.Skipped, SkippedFile{Path: path, Reason: err.Error(), Err: err})
			continue
		}

		report.FilesLoaded++
		documents = append(documents, docs...)
	}

	d.log.WithPayload(map[string]interface{}{
		"folder":       folder,
		"files_found":  report.FilesFound,
		"files_loaded": report.FilesLoaded,
		"units":        len(documents),
		"skipped":      len(report.Skipped),
	}).Info("Finished scanning document folder")

	return documents, report, nil
}
