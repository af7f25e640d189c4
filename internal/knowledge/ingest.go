package knowledge

import (
	"context"
	"fmt"

	"github.com/wolfman30/chatbot-decision-core/pkg/logging"
)

// DefaultMinUsableRatio is the share of high-quality chunks required for a
// document to be considered usable.
const DefaultMinUsableRatio = 0.5

// IngestResult describes one ingested document.
type IngestResult struct {
	DocumentID string         `json:"document_id"`
	Category   Classification `json:"category"`
	Chunks     []Chunk        `json:"chunks"`
	Stats      Stats          `json:"stats"`
	Usable     bool           `json:"usable"`
}

// Ingestor runs the knowledge ingestion path: categorize, chunk, store.
type Ingestor struct {
	classifier       *Classifier
	processor        *Processor
	store            ChunkStore
	logger           *logging.Logger
	qualityThreshold float64
	minUsableRatio   float64
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithChunkStore persists chunks after processing.
func WithChunkStore(store ChunkStore) IngestorOption {
	return func(i *Ingestor) { i.store = store }
}

// WithQualityThreshold overrides the chunk quality threshold.
func WithQualityThreshold(threshold float64) IngestorOption {
	return func(i *Ingestor) { i.qualityThreshold = threshold }
}

// WithMinUsableRatio overrides the usability ratio.
func WithMinUsableRatio(ratio float64) IngestorOption {
	return func(i *Ingestor) { i.minUsableRatio = ratio }
}

// NewIngestor wires the classifier and processor together.
func NewIngestor(classifier *Classifier, processor *Processor, logger *logging.Logger, opts ...IngestorOption) *Ingestor {
	if logger == nil {
		logger = logging.Default()
	}
	i := &Ingestor{
		classifier:       classifier,
		processor:        processor,
		logger:           logger,
		qualityThreshold: DefaultQualityThreshold,
		minUsableRatio:   DefaultMinUsableRatio,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingest classifies and chunks a document. A category already set on the
// document is kept.
func (i *Ingestor) Ingest(ctx context.Context, doc Document) (*IngestResult, error) {
	classification := Classification{Category: doc.Category, Source: SourceDefault}
	if doc.Category == "" {
		var err error
		classification, err = i.classifier.Classify(ctx, doc.Text(), doc.Title)
		if err != nil {
			return nil, fmt.Errorf("knowledge: categorize %q: %w", doc.ID, err)
		}
		doc.Category = classification.Category
	}
	result := &IngestResult{Category: classification}

	chunks := i.processor.Process(doc)
	if len(chunks) > 0 {
		result.DocumentID = chunks[0].DocumentID
	}
	result.Chunks = chunks
	result.Stats = ComputeStats(chunks, i.qualityThreshold)
	result.Usable = result.Stats.Usable(i.minUsableRatio)

	if i.store != nil && result.DocumentID != "" {
		if err := i.store.ReplaceChunks(ctx, result.DocumentID, chunks); err != nil {
			return nil, err
		}
	}

	i.logger.Info("knowledge document ingested",
		"document_id", result.DocumentID,
		"category", doc.Category,
		"chunks", len(chunks),
		"high_quality_ratio", result.Stats.HighQualityRatio,
		"usable", result.Usable,
	)
	if !result.Usable {
		i.logger.Warn("knowledge document below quality bar", "document_id", result.DocumentID, "source", doc.Source)
	}
	return result, nil
}

// IngestFrom fetches a document from src and ingests it.
func (i *Ingestor) IngestFrom(ctx context.Context, src DocumentSource, key string) (*IngestResult, error) {
	doc, err := src.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	return i.Ingest(ctx, doc)
}
