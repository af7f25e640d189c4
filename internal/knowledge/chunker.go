package knowledge

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/wolfman30/chatbot-decision-core/internal/profile"
)

// Page is one page of an ingested document.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Document is a knowledge document awaiting chunking. Pages take
// precedence over Content when both are set.
type Document struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Source   string   `json:"source"`
	Category Category `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Content  string   `json:"content,omitempty"`
	Pages    []Page   `json:"pages,omitempty"`
}

// Text returns the document body, joining pages when present.
func (d Document) Text() string {
	if len(d.Pages) == 0 {
		return d.Content
	}
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n")
}

// Chunk is an immutable slice of a document prepared for retrieval.
type Chunk struct {
	ID           string   `json:"id"`
	DocumentID   string   `json:"document_id"`
	Source       string   `json:"source"`
	Category     Category `json:"category"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	PageNumbers  []int    `json:"page_numbers,omitempty"`
	Index        int      `json:"index"`
	TotalCount   int      `json:"total_count"`
	QualityScore float64  `json:"quality_score"`
	Tags         []string `json:"tags,omitempty"`
}

// Processor splits documents into overlapping, sentence-bounded chunks.
type Processor struct {
	size    int
	overlap int
}

// NewProcessor validates the chunk geometry.
func NewProcessor(size, overlap int) (*Processor, error) {
	if size <= 0 {
		return nil, fmt.Errorf("knowledge: chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("knowledge: chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Processor{size: size, overlap: overlap}, nil
}

// NewProcessorFromProfile uses the profile's chunk settings, which the
// profile has already validated.
func NewProcessorFromProfile(p *profile.Profile) *Processor {
	size, overlap := p.ChunkSettings()
	return &Processor{size: size, overlap: overlap}
}

// sentence is a cleaned sentence and the page it came from.
type sentence struct {
	text string
	page int
}

type draft struct {
	text  string
	pages []int
	// carry marks overlap seeded after a hard cut; it is never emitted on
	// its own.
	carry bool
}

// Process cleans and chunks a document. A blank document yields no chunks.
func (p *Processor) Process(doc Document) []Chunk {
	sentences := p.sentences(doc)
	if len(sentences) == 0 {
		return nil
	}

	drafts := p.assemble(sentences)
	docID := doc.ID
	if docID == "" {
		docID = uuid.NewString()
	}
	category := doc.Category
	if category == "" {
		category = CategoryGeneral
	}

	chunks := make([]Chunk, 0, len(drafts))
	for i, d := range drafts {
		chunks = append(chunks, Chunk{
			ID:           uuid.NewString(),
			DocumentID:   docID,
			Source:       doc.Source,
			Category:     category,
			Title:        doc.Title,
			Content:      d.text,
			PageNumbers:  d.pages,
			Index:        i,
			QualityScore: QualityScore(d.text, doc.Tags, doc.Title),
			Tags:         append([]string(nil), doc.Tags...),
		})
	}
	for i := range chunks {
		chunks[i].TotalCount = len(chunks)
	}
	return chunks
}

func (p *Processor) sentences(doc Document) []sentence {
	if len(doc.Pages) == 0 {
		return splitSentences(Clean(doc.Content), 0)
	}
	var out []sentence
	for _, page := range doc.Pages {
		out = append(out, splitSentences(Clean(page.Text), page.Number)...)
	}
	return out
}

func (p *Processor) assemble(sentences []sentence) []draft {
	var (
		drafts  []draft
		current draft
	)
	flush := func() {
		if current.carry || strings.TrimSpace(current.text) == "" {
			return
		}
		drafts = append(drafts, current)
	}

	for _, s := range sentences {
		if runeLen(s.text) > p.size {
			flush()
			pieces := p.hardCut(s, current)
			if len(pieces) == 0 {
				current = draft{}
				continue
			}
			drafts = append(drafts, pieces...)
			last := pieces[len(pieces)-1]
			current = draft{text: overlapTail(last.text, p.overlap), pages: addPage(nil, s.page), carry: true}
			continue
		}

		candidate := joinText(current.text, s.text)
		if runeLen(candidate) <= p.size {
			current.text = candidate
			current.pages = addPage(current.pages, s.page)
			current.carry = false
			continue
		}

		flush()
		carry := overlapTail(current.text, p.overlap)
		next := draft{text: joinText(carry, s.text)}
		if carry != "" && runeLen(next.text) <= p.size && len(current.pages) > 0 {
			next.pages = addPage(next.pages, current.pages[len(current.pages)-1])
		} else {
			next.text = s.text
		}
		next.pages = addPage(next.pages, s.page)
		current = next
	}
	flush()
	return drafts
}

// hardCut splits a sentence longer than the chunk size into windows that
// overlap by the configured amount. Window ends snap back to the last
// whitespace and window starts forward to a word start when the text has
// one in range. The first window is prefixed with the previous chunk's
// overlap when it fits.
func (p *Processor) hardCut(s sentence, prev draft) []draft {
	text := s.text
	pages := addPage(nil, s.page)
	if tail := overlapTail(prev.text, p.overlap); tail != "" {
		text = joinText(tail, s.text)
		if len(prev.pages) > 0 {
			pages = addPage(addPage(nil, prev.pages[len(prev.pages)-1]), s.page)
		}
	}

	runes := []rune(text)
	var out []draft
	start := 0
	for start < len(runes) {
		end := start + p.size
		if end >= len(runes) {
			if piece := strings.TrimSpace(string(runes[start:])); piece != "" {
				out = append(out, draft{text: piece, pages: pages})
			}
			break
		}

		cut := end
		for i := end; i > start; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		if piece := strings.TrimSpace(string(runes[start:cut])); piece != "" {
			out = append(out, draft{text: piece, pages: pages})
		}
		pages = addPage(nil, s.page)

		next := cut - p.overlap
		if next <= start {
			next = cut
		}
		for i := next; i < cut; i++ {
			if i > 0 && unicode.IsSpace(runes[i-1]) && !unicode.IsSpace(runes[i]) {
				next = i
				break
			}
		}
		for next < len(runes) && unicode.IsSpace(runes[next]) {
			next++
		}
		start = next
	}
	return out
}

// splitSentences breaks cleaned text after terminal punctuation followed
// by whitespace.
func splitSentences(text string, page int) []sentence {
	if text == "" {
		return nil
	}
	var (
		out   []sentence
		start int
	)
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		j := i + 1
		for j < len(runes) && (isTerminal(runes[j]) || isCloser(runes[j])) {
			j++
		}
		if j < len(runes) && !unicode.IsSpace(runes[j]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start:j])); s != "" {
			out = append(out, sentence{text: s, page: page})
		}
		start = j
		i = j - 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, sentence{text: s, page: page})
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isCloser(r rune) bool {
	return r == '"' || r == '\'' || r == ')' || r == ']' || r == '’' || r == '”'
}

// overlapTail returns roughly the last n runes of text, starting at a word
// boundary so the carried context never begins mid-word.
func overlapTail(text string, n int) string {
	if n <= 0 || text == "" {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	start := len(runes) - n
	if unicode.IsSpace(runes[start-1]) {
		return strings.TrimSpace(string(runes[start:]))
	}
	for i := start; i < len(runes); i++ {
		if unicode.IsSpace(runes[i]) {
			return strings.TrimSpace(string(runes[i:]))
		}
	}
	return ""
}

func joinText(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

func addPage(pages []int, page int) []int {
	if page <= 0 {
		return pages
	}
	for _, p := range pages {
		if p == page {
			return pages
		}
	}
	return append(pages, page)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// QualityScore rates a chunk by content length, tag count and title length.
// The score is summed in tenths so thresholds compare exactly.
func QualityScore(content string, tags []string, title string) float64 {
	tenths := 5
	length := runeLen(content)
	if length > 100 {
		tenths += 2
	}
	if length > 500 {
		tenths++
	}
	if len(tags) > 1 {
		tenths++
	}
	if len(tags) > 3 {
		tenths++
	}
	if runeLen(title) > 10 {
		tenths++
	}
	if tenths > 10 {
		tenths = 10
	}
	return float64(tenths) / 10
}
