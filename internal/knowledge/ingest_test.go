package knowledge

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/chatbot-decision-core/internal/profile"
)

func TestIngestor_Ingest(t *testing.T) {
	ctx := context.Background()
	store := NewRedisChunkStore(newTestRedis(t))
	ingestor := NewIngestor(
		NewClassifier(nil),
		NewProcessorFromProfile(profile.CreateDefault()),
		nil,
		WithChunkStore(store),
	)

	content := strings.Repeat("Our plans are billed monthly and every plan includes support. ", 30)
	result, err := ingestor.Ingest(ctx, Document{ID: "pricing-doc", Title: "Pricing overview", Source: "upload", Tags: []string{"plans", "billing"}, Content: content})
	require.NoError(t, err)

	assert.Equal(t, "pricing-doc", result.DocumentID)
	assert.Equal(t, CategoryPricing, result.Category.Category)
	assert.Equal(t, SourceRule, result.Category.Source)
	require.NotEmpty(t, result.Chunks)
	assert.Equal(t, len(result.Chunks), result.Stats.TotalChunks)
	assert.True(t, result.Usable)

	stored, err := store.GetChunks(ctx, "pricing-doc")
	require.NoError(t, err)
	assert.Len(t, stored, len(result.Chunks))

	ids, err := store.DocumentsInCategory(ctx, CategoryPricing)
	require.NoError(t, err)
	assert.Contains(t, ids, "pricing-doc")
}

func TestIngestor_KeepsPresetCategory(t *testing.T) {
	ingestor := NewIngestor(NewClassifier(nil), NewProcessorFromProfile(profile.CreateDefault()), nil)

	result, err := ingestor.Ingest(context.Background(), Document{Title: "Pricing", Category: CategorySupport, Content: "Short note."})
	require.NoError(t, err)
	assert.Equal(t, CategorySupport, result.Category.Category)
	assert.False(t, result.Usable)
}

func TestIngestor_SurvivesPanickingProvider(t *testing.T) {
	classifier := NewClassifier(nil, WithProvider(&fakeProvider{panicMsg: "provider exploded"}))
	ingestor := NewIngestor(classifier, NewProcessorFromProfile(profile.CreateDefault()), nil)

	var (
		result *IngestResult
		err    error
	)
	require.NotPanics(t, func() {
		result, err = ingestor.Ingest(context.Background(), Document{Title: "Notes", Content: "Some plain notes about the weekly sync."})
	})
	require.NoError(t, err)
	assert.Equal(t, CategoryGeneral, result.Category.Category)
	assert.Equal(t, SourceDefault, result.Category.Source)
	require.NotEmpty(t, result.Chunks)
	assert.Equal(t, CategoryGeneral, result.Chunks[0].Category)
}

func TestIngestor_RejectsBlankDocument(t *testing.T) {
	ingestor := NewIngestor(NewClassifier(nil), NewProcessorFromProfile(profile.CreateDefault()), nil)

	_, err := ingestor.Ingest(context.Background(), Document{Title: "Empty"})
	var catErr *CategorizationError
	require.ErrorAs(t, err, &catErr)
}

func TestIngestor_IngestFromSource(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"faq.txt": "How do I reset my password? Open settings. What is a plan? A subscription."}}
	ingestor := NewIngestor(NewClassifier(nil), NewProcessorFromProfile(profile.CreateDefault()), nil)

	result, err := ingestor.IngestFrom(context.Background(), NewS3DocumentSource(client, "kb"), "faq.txt")
	require.NoError(t, err)
	assert.Equal(t, CategoryFAQ, result.Category.Category)
	assert.Equal(t, "faq.txt", result.DocumentID)
}
