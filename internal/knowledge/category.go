// Package knowledge implements the ingestion side of the decision core:
// document categorization, cleaning, chunking and corpus statistics.
package knowledge

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/chatbot-decision-core/pkg/logging"
)

var categoryTracer = otel.Tracer("chatcore/knowledge-category")

// Category is the closed set of knowledge categories.
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryFAQ         Category = "faq"
	CategoryProductInfo Category = "product_info"
	CategoryPricing     Category = "pricing"
	CategorySupport     Category = "support"
)

// Categories lists every valid category.
var Categories = []Category{CategoryGeneral, CategoryFAQ, CategoryProductInfo, CategoryPricing, CategorySupport}

// ParseCategory reports whether s names a valid category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Source records which step resolved a classification.
type Source string

const (
	SourceRule       Source = "rule"
	SourceProvider   Source = "provider"
	SourceStructural Source = "structural"
	SourceDefault    Source = "default"
)

// CategoryProvider is an external classifier, typically an LLM.
type CategoryProvider interface {
	Classify(ctx context.Context, content, title string) (string, error)
}

// CategoryRule fires on any title pattern or on at least two distinct
// content patterns.
type CategoryRule struct {
	Category        Category
	TitlePatterns   []string
	ContentPatterns []string
	Priority        int
}

type compiledRule struct {
	category Category
	title    []*regexp.Regexp
	content  []*regexp.Regexp
	priority int
}

// minContentHits is how many distinct content patterns must match for a
// rule to fire on body text alone.
const minContentHits = 2

var defaultRules = []CategoryRule{
	{
		Category:        CategoryFAQ,
		Priority:        100,
		TitlePatterns:   []string{`\bfaqs?\b`, `frequently asked`, `\bq\s*&\s*a\b`, `\bquestions\b`},
		ContentPatterns: []string{`frequently asked`, `\bhow do i\b`, `\bhow can i\b`, `\bwhat is\b`, `\bcan i\b`, `\bq:`},
	},
	{
		Category:        CategoryPricing,
		Priority:        90,
		TitlePatterns:   []string{`\bpric(e|es|ing)\b`, `\bplans?\b`, `\bcosts?\b`, `\bfees?\b`, `\bbilling\b`},
		ContentPatterns: []string{`[$€£]\s?\d`, `\bper (month|year|user|seat)\b`, `\bpric(e|es|ing)\b`, `\bsubscription\b`, `\bdiscount\b`, `/\s?mo\b`, `\bbilled\b`},
	},
	{
		Category:        CategorySupport,
		Priority:        80,
		TitlePatterns:   []string{`\bsupport\b`, `\bhelp\b`, `\btroubleshoot(ing)?\b`, `\bknown issues\b`},
		ContentPatterns: []string{`\btroubleshoot`, `\berror\b`, `\breset\b`, `contact support`, `not working`, `\bfix\b`, `\bissue\b`},
	},
	{
		Category:        CategoryProductInfo,
		Priority:        70,
		TitlePatterns:   []string{`\bproducts?\b`, `\bfeatures?\b`, `\bspecifications?\b`, `\bspecs\b`, `\boverview\b`, `\bcatalog(ue)?\b`},
		ContentPatterns: []string{`\bfeatures?\b`, `\bspecifications?\b`, `\bdimensions\b`, `\bwarranty\b`, `\bcompatible\b`, `\bmodel\b`, `\bintegrat`},
	},
}

var (
	pricingTokenRegex = regexp.MustCompile(`(?i)[$€£]|\bprice|\bcost|\bfee\b`)
	wordRegex         = regexp.MustCompile(`\S+`)
)

// Provider content is capped and keeps its head and tail.
const (
	providerContentLimit = 4000
	truncationMarker     = "\n\n[... content truncated ...]\n\n"
)

// Classification is the detailed result of Classify.
type Classification struct {
	Category Category `json:"category"`
	Source   Source   `json:"source"`
	Matched  string   `json:"matched,omitempty"`
}

// Classifier assigns knowledge documents to a category.
type Classifier struct {
	rules           []compiledRule
	provider        CategoryProvider
	providerTimeout time.Duration
	logger          *logging.Logger
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithProvider enables the external provider step.
func WithProvider(p CategoryProvider) ClassifierOption {
	return func(c *Classifier) { c.provider = p }
}

// WithProviderTimeout bounds each provider call. Zero disables the bound.
func WithProviderTimeout(d time.Duration) ClassifierOption {
	return func(c *Classifier) { c.providerTimeout = d }
}

// WithRules replaces the default rule table.
func WithRules(rules []CategoryRule) ClassifierOption {
	return func(c *Classifier) { c.rules = compileRules(rules) }
}

// NewClassifier builds a classifier over the default rule table.
func NewClassifier(logger *logging.Logger, opts ...ClassifierOption) *Classifier {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Classifier{
		rules:           compileRules(defaultRules),
		providerTimeout: 10 * time.Second,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func compileRules(rules []CategoryRule) []compiledRule {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		cr := compiledRule{category: r.Category, priority: r.Priority}
		for _, p := range r.TitlePatterns {
			cr.title = append(cr.title, regexp.MustCompile(`(?i)`+p))
		}
		for _, p := range r.ContentPatterns {
			cr.content = append(cr.content, regexp.MustCompile(`(?i)`+p))
		}
		compiled = append(compiled, cr)
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].priority > compiled[j].priority
	})
	return compiled
}

// Categorize always returns a category. Invalid input, provider failures
// and unexpected panics all resolve to CategoryGeneral.
func (c *Classifier) Categorize(ctx context.Context, content, title string) (category Category) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("categorization panicked", "panic", fmt.Sprint(r))
			category = CategoryGeneral
		}
	}()

	result, err := c.Classify(ctx, content, title)
	if err != nil {
		c.logger.Warn("categorization failed, using general", "error", err)
		return CategoryGeneral
	}
	return result.Category
}

// Classify runs the rule table, the optional provider and the structural
// fallback in that order. It only fails on blank content or title; a panic
// in any step resolves to CategoryGeneral.
func (c *Classifier) Classify(ctx context.Context, content, title string) (result Classification, err error) {
	ctx, span := categoryTracer.Start(ctx, "knowledge.categorize")
	defer span.End()

	if strings.TrimSpace(content) == "" {
		return Classification{}, &CategorizationError{Field: "content"}
	}
	if strings.TrimSpace(title) == "" {
		return Classification{}, &CategorizationError{Field: "title"}
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("categorization panicked", "panic", fmt.Sprint(r), "title", title)
			span.SetAttributes(attribute.Bool("knowledge.category_panic", true))
			result, err = Classification{Category: CategoryGeneral, Source: SourceDefault}, nil
		}
	}()

	result, ok := c.matchRules(content, title)
	if !ok && c.provider != nil {
		result, ok = c.askProvider(ctx, content, title)
	}
	if !ok {
		result = structuralFallback(content)
	}

	span.SetAttributes(
		attribute.String("knowledge.category", string(result.Category)),
		attribute.String("knowledge.category_source", string(result.Source)),
	)
	return result, nil
}

func (c *Classifier) matchRules(content, title string) (Classification, bool) {
	for _, rule := range c.rules {
		for _, re := range rule.title {
			if re.MatchString(title) {
				return Classification{Category: rule.category, Source: SourceRule, Matched: "title:" + re.String()}, true
			}
		}
		hits := 0
		for _, re := range rule.content {
			if re.MatchString(content) {
				hits++
			}
		}
		if hits >= minContentHits {
			return Classification{Category: rule.category, Source: SourceRule, Matched: fmt.Sprintf("content:%d", hits)}, true
		}
	}
	return Classification{}, false
}

func (c *Classifier) askProvider(ctx context.Context, content, title string) (Classification, bool) {
	if c.providerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.providerTimeout)
		defer cancel()
	}

	answer, err := c.provider.Classify(ctx, TruncateForProvider(content), title)
	if err != nil {
		c.logger.Warn("category provider unavailable", "error", err, "title", title)
		return Classification{}, false
	}
	category, ok := ParseCategory(answer)
	if !ok {
		c.logger.Debug("category provider returned unknown category", "answer", answer)
		return Classification{}, false
	}
	return Classification{Category: category, Source: SourceProvider}, true
}

func structuralFallback(content string) Classification {
	words := len(wordRegex.FindAllStringIndex(content, -1))
	switch {
	case strings.Contains(content, "?") && words < 500:
		return Classification{Category: CategoryFAQ, Source: SourceStructural}
	case pricingTokenRegex.MatchString(content):
		return Classification{Category: CategoryPricing, Source: SourceStructural}
	case words > 1000:
		return Classification{Category: CategoryProductInfo, Source: SourceStructural}
	default:
		return Classification{Category: CategoryGeneral, Source: SourceDefault}
	}
}

// TruncateForProvider caps content at the provider limit, keeping the
// beginning and end of the document.
func TruncateForProvider(content string) string {
	runes := []rune(content)
	if len(runes) <= providerContentLimit {
		return content
	}
	budget := providerContentLimit - len([]rune(truncationMarker))
	head := budget * 3 / 4
	tail := budget - head
	return string(runes[:head]) + truncationMarker + string(runes[len(runes)-tail:])
}
