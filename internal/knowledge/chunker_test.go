package knowledge

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/chatbot-decision-core/internal/profile"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapse whitespace", "Hello   world\n\n\t again", "Hello world again"},
		{"rejoin hyphen break", "infor-\nmation is key", "information is key"},
		{"strip page lines", "Intro text\n12\nMore text\nPage 3 of 10\nEnd", "Intro text More text End"},
		{"drop symbols", "Great ★ product ✓", "Great product"},
		{"nfkc ligature", "the ﬁle", "the file"},
		{"keep prices", "Price: $5 + tax.", "Price: $5 + tax."},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestNewProcessor_Validates(t *testing.T) {
	_, err := NewProcessor(0, 0)
	assert.Error(t, err)
	_, err = NewProcessor(100, 100)
	assert.Error(t, err)
	_, err = NewProcessor(100, -1)
	assert.Error(t, err)

	p, err := NewProcessor(100, 20)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestProcess_BoundedOverlappingChunks(t *testing.T) {
	var sentences []string
	for i := 0; i < 10; i++ {
		sentences = append(sentences, fmt.Sprintf("Sentence %02d talks about the product line.", i))
	}
	p, err := NewProcessor(100, 20)
	require.NoError(t, err)

	chunks := p.Process(Document{ID: "doc-1", Title: "Product line", Source: "upload", Content: strings.Join(sentences, " ")})
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Content), 100)
		assert.Equal(t, i, c.Index)
		assert.Equal(t, len(chunks), c.TotalCount)
		assert.Equal(t, "doc-1", c.DocumentID)
		assert.Equal(t, CategoryGeneral, c.Category)
		if i > 0 {
			carry := overlapTail(chunks[i-1].Content, 20)
			require.NotEmpty(t, carry)
			assert.True(t, strings.HasPrefix(c.Content, carry), "chunk %d should start with %q", i, carry)
		}
	}
	assert.True(t, strings.HasPrefix(chunks[0].Content, "Sentence 00"))
	assert.Contains(t, chunks[len(chunks)-1].Content, "Sentence 09")
}

func TestProcess_TracksPages(t *testing.T) {
	p, err := NewProcessor(1000, 100)
	require.NoError(t, err)

	chunks := p.Process(Document{
		Title: "Manual",
		Pages: []Page{
			{Number: 1, Text: "First page sentence is here."},
			{Number: 2, Text: "Second page sentence is here."},
		},
	})
	require.Len(t, chunks, 1)
	assert.Equal(t, []int{1, 2}, chunks[0].PageNumbers)
	assert.NotEmpty(t, chunks[0].DocumentID)
	assert.Equal(t, "First page sentence is here. Second page sentence is here.", chunks[0].Content)
}

func TestProcess_HardCutsOversizedSentence(t *testing.T) {
	p, err := NewProcessor(100, 10)
	require.NoError(t, err)

	chunks := p.Process(Document{ID: "d", Content: strings.Repeat("a", 250)})
	require.Len(t, chunks, 3)
	assert.Equal(t, 100, utf8.RuneCountInString(chunks[0].Content))
	assert.Equal(t, 100, utf8.RuneCountInString(chunks[1].Content))
	assert.Equal(t, 70, utf8.RuneCountInString(chunks[2].Content))
}

func TestProcess_OverlapSurvivesHardCut(t *testing.T) {
	var words []string
	for i := 0; i < 30; i++ {
		words = append(words, fmt.Sprintf("word%02d", i))
	}
	runOn := strings.Join(words, " ") + "."
	content := "Intro sentence is short. " + runOn + " Next sentence follows here."

	p, err := NewProcessor(100, 30)
	require.NoError(t, err)
	chunks := p.Process(Document{ID: "d", Content: content})
	require.Greater(t, len(chunks), 3)

	allowed := map[string]bool{"Intro": true, "sentence": true, "is": true, "short": true, "Next": true, "follows": true, "here": true}
	for _, w := range words {
		allowed[w] = true
	}
	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Content), 100)
		for _, token := range strings.Fields(c.Content) {
			assert.True(t, allowed[strings.TrimSuffix(token, ".")], "chunk %d splits a word: %q", i, token)
		}
		if i > 0 {
			carry := overlapTail(chunks[i-1].Content, 30)
			require.NotEmpty(t, carry)
			assert.True(t, strings.HasPrefix(c.Content, carry), "chunk %d should start with %q, got %q", i, carry, c.Content)
		}
	}
	assert.Equal(t, "Intro sentence is short.", chunks[0].Content)
	last := chunks[len(chunks)-1].Content
	assert.True(t, strings.HasSuffix(last, "word29. Next sentence follows here."), last)
}

func TestProcess_BlankDocument(t *testing.T) {
	p := NewProcessorFromProfile(profile.CreateDefault())
	assert.Empty(t, p.Process(Document{Content: " \n\t "}))
}

func TestProcess_ChunksAreIndependentCopies(t *testing.T) {
	p := NewProcessorFromProfile(profile.CreateDefault())
	tags := []string{"a", "b"}

	chunks := p.Process(Document{Content: "One sentence. Two sentence.", Tags: tags, Category: CategoryFAQ})
	require.Len(t, chunks, 1)
	tags[0] = "changed"
	assert.Equal(t, "a", chunks[0].Tags[0])
	assert.Equal(t, CategoryFAQ, chunks[0].Category)
}

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name    string
		content string
		tags    []string
		title   string
		want    float64
	}{
		{"baseline", "short", nil, "", 0.5},
		{"over 100 chars", strings.Repeat("x", 101), nil, "", 0.7},
		{"two tags", "short", []string{"a", "b"}, "", 0.6},
		{"long title", "short", nil, "A long title here", 0.6},
		{"everything caps at one", strings.Repeat("x", 501), []string{"a", "b", "c", "d"}, "A long title here", 1.0},
		{"over 500 chars", strings.Repeat("x", 501), nil, "", 0.8},
		{"over 500 chars with two tags", strings.Repeat("x", 501), []string{"a", "b"}, "", 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QualityScore(tt.content, tt.tags, tt.title))
		})
	}
}

func TestQualityScore_MeetsExactThreshold(t *testing.T) {
	chunks := []Chunk{
		{Content: strings.Repeat("x", 501), QualityScore: QualityScore(strings.Repeat("x", 501), nil, "")},
		{Content: "short", QualityScore: QualityScore("short", nil, "")},
	}

	stats := ComputeStats(chunks, 0.8)
	assert.Equal(t, 1, stats.HighQuality)
	assert.Equal(t, 0.5, stats.HighQualityRatio)

	stats = ComputeStats(chunks, 0.7)
	assert.Equal(t, 1, stats.HighQuality)
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences(`He said "stop." Then left! Version 1.5 shipped? Yes`, 3)
	require.Len(t, got, 4)
	assert.Equal(t, `He said "stop."`, got[0].text)
	assert.Equal(t, "Then left!", got[1].text)
	assert.Equal(t, "Version 1.5 shipped?", got[2].text)
	assert.Equal(t, "Yes", got[3].text)
	assert.Equal(t, 3, got[3].page)
}
