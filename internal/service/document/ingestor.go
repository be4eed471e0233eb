// Package document turns an uploaded résumé into the text an interview session is built on.
package document

import (
	"context"
	"mime"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/zhouzirui/interview-sim/backend/internal/apperr"
	"github.com/zhouzirui/interview-sim/backend/internal/logger"
	"github.com/zhouzirui/interview-sim/backend/internal/model/interview"
)

// SessionRegistrar stores a freshly ingested document as a new session.
type SessionRegistrar interface {
	Register(key, documentText, personaID string) interview.Session
}

// Ingestor validates uploads, extracts their text and opens a session for them.
type Ingestor struct {
	extractor Extractor
	sessions  SessionRegistrar
	log       *zap.Logger
}

// NewIngestor wires an extractor to the session registry.
func NewIngestor(extractor Extractor, sessions SessionRegistrar, log *zap.Logger) *Ingestor {
	return &Ingestor{
		extractor: extractor,
		sessions:  sessions,
		log:       logger.Named(log, "document"),
	}
}

// IngestOption customises a single ingestion.
type IngestOption func(*ingestOptions)

type ingestOptions struct {
	personaID string
}

// WithPersona selects the interviewer persona for the new session.
func WithPersona(id string) IngestOption {
	return func(o *ingestOptions) { o.personaID = strings.TrimSpace(id) }
}

// Ingest extracts text from a PDF upload and registers a session under name,
// replacing any session previously registered with the same name.
func (i *Ingestor) Ingest(ctx context.Context, name, contentType string, data []byte, opts ...IngestOption) (string, error) {
	var o ingestOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := checkFormat(name, contentType); err != nil {
		return "", err
	}

	text, err := i.extractor.Extract(ctx, data, name)
	if err != nil {
		i.log.Warn("extraction failed", zap.String("file", name), zap.Error(err))
		return "", apperr.Wrap(apperr.ErrExtraction, "document.Ingest", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.Wrap(apperr.ErrExtraction, "document.Ingest", errNoText)
	}

	i.sessions.Register(name, text, o.personaID)
	i.log.Info("document ingested",
		zap.String("file", name),
		zap.Int("bytes", len(data)),
		zap.Int("chars", len(text)),
		zap.String("persona", o.personaID),
	)
	return text, nil
}

func checkFormat(name, contentType string) error {
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return apperr.Wrap(apperr.ErrUnsupportedFormat, "document.Ingest", nil)
	}
	if contentType == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return apperr.Wrap(apperr.ErrUnsupportedFormat, "document.Ingest", err)
	}
	switch mediaType {
	case "application/pdf", "application/octet-stream":
		return nil
	default:
		return apperr.Wrap(apperr.ErrUnsupportedFormat, "document.Ingest", nil)
	}
}

type ingestError string

func (e ingestError) Error() string { return string(e) }

const errNoText = ingestError("document contains no extractable text")
