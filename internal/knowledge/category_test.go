package knowledge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu       sync.Mutex
	answer   string
	err      error
	block    bool
	panicMsg string
	calls    int
	content  string
}

func (f *fakeProvider) Classify(ctx context.Context, content, title string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.content = content
	f.mu.Unlock()

	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.answer, f.err
}

func TestClassifier_Rules(t *testing.T) {
	tests := []struct {
		name    string
		content string
		title   string
		want    Category
	}{
		{
			name:    "title match",
			content: "anything",
			title:   "Pricing Plans",
			want:    CategoryPricing,
		},
		{
			name:    "faq outranks support title",
			content: "Frequently Asked Questions: How do I reset my password?",
			title:   "Support",
			want:    CategoryFAQ,
		},
		{
			name:    "two support content hits",
			content: "Our troubleshooting guide covers every error you might see.",
			title:   "Guide",
			want:    CategorySupport,
		},
		{
			name:    "product content hits",
			content: "The new model features a sleek design and a two year warranty.",
			title:   "Announcement",
			want:    CategoryProductInfo,
		},
	}

	c := NewClassifier(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(context.Background(), tt.content, tt.title)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Category)
			assert.Equal(t, SourceRule, got.Source)
			assert.NotEmpty(t, got.Matched)
		})
	}
}

func TestClassifier_SingleContentHitDoesNotFire(t *testing.T) {
	c := NewClassifier(nil)
	got, err := c.Classify(context.Background(), "Contact our team to fix it", "Notes")
	require.NoError(t, err)
	assert.Equal(t, CategoryGeneral, got.Category)
	assert.Equal(t, SourceDefault, got.Source)
}

func TestClassifier_ProviderConsultedOnlyWhenNoRuleFires(t *testing.T) {
	provider := &fakeProvider{answer: " Pricing "}
	c := NewClassifier(nil, WithProvider(provider))

	got, err := c.Classify(context.Background(), "Notes about things.", "Notes")
	require.NoError(t, err)
	assert.Equal(t, CategoryPricing, got.Category)
	assert.Equal(t, SourceProvider, got.Source)
	assert.Equal(t, 1, provider.calls)

	_, err = c.Classify(context.Background(), "anything", "FAQ")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
}

func TestClassifier_ProviderFailuresFallBackToStructure(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		content  string
		want     Category
	}{
		{"unknown answer", &fakeProvider{answer: "banana"}, "Is this a thing?", CategoryFAQ},
		{"provider error", &fakeProvider{err: errors.New("unavailable")}, "It costs money", CategoryPricing},
		{"provider timeout", &fakeProvider{block: true}, "Plain words only", CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(nil, WithProvider(tt.provider), WithProviderTimeout(10*time.Millisecond))
			got, err := c.Classify(context.Background(), tt.content, "Notes")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Category)
			assert.NotEqual(t, SourceProvider, got.Source)
		})
	}
}

func TestClassifier_ProviderReceivesTruncatedContent(t *testing.T) {
	provider := &fakeProvider{answer: "general"}
	c := NewClassifier(nil, WithProvider(provider))

	_, err := c.Classify(context.Background(), strings.Repeat("x", 5000), "Notes")
	require.NoError(t, err)
	assert.Equal(t, providerContentLimit, utf8.RuneCountInString(provider.content))
}

func TestClassifier_StructuralFallback(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Category
	}{
		{"short question", "Is this a thing?", CategoryFAQ},
		{"currency symbol", "Only €10 today", CategoryPricing},
		{"long document", strings.Repeat("word ", 1001), CategoryProductInfo},
		{"nothing special", "Plain words only", CategoryGeneral},
	}

	c := NewClassifier(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(context.Background(), tt.content, "Notes")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Category)
		})
	}
}

func TestClassifier_BlankInput(t *testing.T) {
	c := NewClassifier(nil)

	_, err := c.Classify(context.Background(), "   ", "Title")
	var catErr *CategorizationError
	require.ErrorAs(t, err, &catErr)
	assert.Equal(t, "content", catErr.Field)

	_, err = c.Classify(context.Background(), "content", "")
	require.ErrorAs(t, err, &catErr)
	assert.Equal(t, "title", catErr.Field)

	assert.Equal(t, CategoryGeneral, c.Categorize(context.Background(), "", ""))
}

func TestClassifier_CategorizeRecoversPanics(t *testing.T) {
	c := NewClassifier(nil, WithProvider(&fakeProvider{panicMsg: "boom"}))
	assert.Equal(t, CategoryGeneral, c.Categorize(context.Background(), "Notes about things.", "Notes"))
}

func TestClassifier_ClassifyRecoversProviderPanic(t *testing.T) {
	c := NewClassifier(nil, WithProvider(&fakeProvider{panicMsg: "provider exploded"}))

	var (
		result Classification
		err    error
	)
	require.NotPanics(t, func() {
		result, err = c.Classify(context.Background(), "Some plain notes about the weekly sync.", "Notes")
	})
	require.NoError(t, err)
	assert.Equal(t, Classification{Category: CategoryGeneral, Source: SourceDefault}, result)

	_, err = c.Classify(context.Background(), "", "Notes")
	var catErr *CategorizationError
	require.ErrorAs(t, err, &catErr)
}

func TestClassifier_CustomRules(t *testing.T) {
	c := NewClassifier(nil, WithRules([]CategoryRule{
		{Category: CategorySupport, Priority: 1, TitlePatterns: []string{`guide`}},
		{Category: CategoryFAQ, Priority: 5, TitlePatterns: []string{`guide`}},
	}))
	got, err := c.Classify(context.Background(), "text", "User Guide")
	require.NoError(t, err)
	assert.Equal(t, CategoryFAQ, got.Category)
}

func TestParseCategory(t *testing.T) {
	got, ok := ParseCategory(" Product_Info ")
	assert.True(t, ok)
	assert.Equal(t, CategoryProductInfo, got)

	_, ok = ParseCategory("billing")
	assert.False(t, ok)
}

func TestTruncateForProvider(t *testing.T) {
	short := strings.Repeat("a", providerContentLimit)
	assert.Equal(t, short, TruncateForProvider(short))

	long := "HEAD" + strings.Repeat("m", 6000) + "TAIL"
	got := TruncateForProvider(long)
	assert.Equal(t, providerContentLimit, utf8.RuneCountInString(got))
	assert.True(t, strings.HasPrefix(got, "HEAD"))
	assert.True(t, strings.HasSuffix(got, "TAIL"))
	assert.Contains(t, got, "content truncated")
}
