package revenue

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/zombor/revenue-tracker/internal/extraction"
)

// IDGenerator generates unique IDs for documents
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles revenue log processing: it owns the upload-to-report
// pipeline and the stored documents
type Service struct {
	db          DB
	extractor   extraction.Extractor
	storage     Storage
	parser      *Parser
	cutoffHour  int
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with the default parser rules, ID
// generator, and time source. cutoffHour is the default used when an upload
// does not override it.
func NewService(db DB, extractor extraction.Extractor, storage Storage, cutoffHour int) (*Service, error) {
	if err := ValidateCutoffHour(cutoffHour); err != nil {
		return nil, err
	}
	return &Service{
		db:          db,
		extractor:   extractor,
		storage:     storage,
		parser:      NewParser(),
		cutoffHour:  cutoffHour,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}, nil
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, extractor extraction.Extractor, storage Storage, parser *Parser, cutoffHour int, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		storage:     storage,
		parser:      parser,
		cutoffHour:  cutoffHour,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// DefaultCutoff returns the service-wide default cutoff hour
func (s *Service) DefaultCutoff() int {
	return s.cutoffHour
}

var (
	filenameJunk   = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	filenameSpaces = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and
// truncating scanner-generated names to a reasonable length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = filenameJunk.ReplaceAllString(base, "")
	base = filenameSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}
	if base == "" {
		base = "document"
	}

	return base + ext
}

// ProcessDocument runs the full pipeline for one uploaded revenue log:
// store the original file, extract its text, parse the hourly entries,
// partition them at the cutoff, and persist the resulting document.
// cutoffHour < 0 means "use the service default"; any other invalid cutoff
// fails before extraction starts.
func (s *Service) ProcessDocument(filename string, data []byte, contentType string, cutoffHour int) (*Document, error) {
	if cutoffHour < 0 {
		cutoffHour = s.cutoffHour
	}
	if err := ValidateCutoffHour(cutoffHour); err != nil {
		return nil, err
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	cleanFilename := sanitizeFilename(filename)

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	text, err := s.extractor.ExtractText(data, contentType)
	if err != nil {
		slog.Error("Failed to extract document text",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		// Clean up the saved file since extraction failed
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	records, diags := s.parser.Parse(extraction.Lines(text))
	if diags.SkippedLines > 0 {
		slog.Warn("Some lines could not be parsed",
			"filename", filename,
			"skipped", diags.SkippedLines,
			"total", diags.TotalLines,
		)
	}

	report, err := BuildReport(records, cutoffHour)
	if err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("building report: %w", err)
	}

	doc := &Document{
		ID:          id,
		Filename:    savedPath,
		ContentType: contentType,
		RawText:     text,
		Report:      *report,
		Diagnostics: diags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveDocument(doc); err != nil {
		// Clean up file if database save fails
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving document to database: %w", err)
	}

	return doc, nil
}

// GetDocument retrieves a document by ID
func (s *Service) GetDocument(id string) (*Document, error) {
	doc, err := s.db.GetDocument(id)
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns all documents
func (s *Service) ListDocuments() ([]*Document, error) {
	docs, err := s.db.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document and its stored file
func (s *Service) DeleteDocument(id string) error {
	doc, err := s.db.GetDocument(id)
	if err != nil {
		return fmt.Errorf("getting document for deletion: %w", err)
	}

	if err := s.storage.Delete(doc.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", doc.Filename, "error", err)
	}

	if err := s.db.DeleteDocument(id); err != nil {
		return fmt.Errorf("deleting document from database: %w", err)
	}
	return nil
}

// GetDocumentFile retrieves the original uploaded file for a document
func (s *Service) GetDocumentFile(id string) ([]byte, string, error) {
	doc, err := s.db.GetDocument(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting document: %w", err)
	}

	data, err := s.storage.Get(doc.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting document file: %w", err)
	}

	return data, doc.ContentType, nil
}

// ExportCSV renders a document's report as CSV
func (s *Service) ExportCSV(id string) ([]byte, error) {
	doc, err := s.db.GetDocument(id)
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	data, err := doc.Report.CSV()
	if err != nil {
		return nil, fmt.Errorf("exporting csv: %w", err)
	}
	return data, nil
}
