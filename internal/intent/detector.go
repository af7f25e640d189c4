// Package intent classifies visitor messages into intents using keyword
// pattern scoring.
package intent

import (
	"strings"
)

// Category is the coarse bucket an intent belongs to.
type Category string

const (
	CategoryInquiry Category = "inquiry"
	CategoryRequest Category = "request"
	CategorySupport Category = "support"
	CategorySales   Category = "sales"
)

// Intent labels.
const (
	Greeting       = "greeting"
	PricingInquiry = "pricing_inquiry"
	DemoRequest    = "demo_request"
	ProductInquiry = "product_inquiry"
	SupportRequest = "support_request"
	BookingRequest = "booking_request"
	ContactRequest = "contact_request"
	Complaint      = "complaint"
	GeneralInquiry = "general_inquiry"
)

const maxConfidence = 0.95

// Pattern is one row of the intent table.
type Pattern struct {
	Intent   string
	Category Category
	Triggers []string
}

// Result is the outcome of intent detection.
type Result struct {
	Intent     string   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Category   Category `json:"category"`
	MatchCount int      `json:"match_count"`
}

// defaultPatterns is evaluated in declaration order. On equal scores the
// earlier row wins.
var defaultPatterns = []Pattern{
	{Intent: Greeting, Category: CategoryInquiry, Triggers: []string{"hello", "hi there", "hey there", "good morning", "good afternoon", "good evening"}},
	{Intent: PricingInquiry, Category: CategorySales, Triggers: []string{"price", "pricing", "cost", "how much", "plan", "subscription", "quote", "fee"}},
	{Intent: DemoRequest, Category: CategorySales, Triggers: []string{"demo", "trial", "show me", "walkthrough", "see it in action"}},
	{Intent: ProductInquiry, Category: CategoryInquiry, Triggers: []string{"feature", "product", "does it", "can it", "integrat", "compatible"}},
	{Intent: SupportRequest, Category: CategorySupport, Triggers: []string{"help", "problem", "issue", "error", "not working", "broken", "bug", "fix"}},
	{Intent: BookingRequest, Category: CategoryRequest, Triggers: []string{"schedule", "book", "appointment", "meeting", "availability"}},
	{Intent: ContactRequest, Category: CategoryRequest, Triggers: []string{"contact", "call me", "email me", "speak to", "talk to", "reach out"}},
	{Intent: Complaint, Category: CategorySupport, Triggers: []string{"disappointed", "terrible", "angry", "frustrated", "worst", "unhappy", "ridiculous"}},
}

var leadSignals = []string{
	"contact me", "call me", "email me", "my email", "my phone", "my number",
	"interested in", "sign up", "get started", "demo", "quote", "pricing",
	"buy", "purchase", "talk to sales",
}

// Detector scores messages against an intent table. It holds no mutable
// state and is safe for concurrent use.
type Detector struct {
	patterns []Pattern
}

// NewDetector builds a detector over the default intent table.
func NewDetector() *Detector {
	return NewDetectorWithPatterns(defaultPatterns)
}

// NewDetectorWithPatterns builds a detector over a custom table. The table
// is copied and lowercased.
func NewDetectorWithPatterns(patterns []Pattern) *Detector {
	table := make([]Pattern, 0, len(patterns))
	for _, p := range patterns {
		triggers := make([]string, 0, len(p.Triggers))
		for _, t := range p.Triggers {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				triggers = append(triggers, t)
			}
		}
		table = append(table, Pattern{Intent: p.Intent, Category: p.Category, Triggers: triggers})
	}
	return &Detector{patterns: table}
}

// Detect returns the best-scoring intent for message.
func (d *Detector) Detect(message string) Result {
	lower := strings.ToLower(message)

	best := Result{Intent: GeneralInquiry, Category: CategoryInquiry}
	for _, p := range d.patterns {
		count := 0
		for _, trigger := range p.Triggers {
			if strings.Contains(lower, trigger) {
				count++
			}
		}
		if count > best.MatchCount {
			best = Result{Intent: p.Intent, Category: p.Category, MatchCount: count}
		}
	}

	best.Confidence = confidence(best.MatchCount, message)
	return best
}

func confidence(matchCount int, message string) float64 {
	score := min(0.3*float64(matchCount), 0.9)
	if len(message) > 10 {
		score += 0.1
	}
	if strings.Contains(message, "?") {
		score += 0.1
	}
	return min(score, maxConfidence)
}

// ShouldTriggerLeadCapture reports whether message carries a lead signal.
// It runs independently of Detect.
func ShouldTriggerLeadCapture(message string) bool {
	lower := strings.ToLower(message)
	for _, signal := range leadSignals {
		if strings.Contains(lower, signal) {
			return true
		}
	}
	return false
}

// CategoryOf returns the coarse category for an intent label.
func CategoryOf(intent string) Category {
	for _, p := range defaultPatterns {
		if p.Intent == intent {
			return p.Category
		}
	}
	return CategoryInquiry
}
