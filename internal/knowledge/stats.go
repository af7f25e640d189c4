package knowledge

import "github.com/wolfman30/chatbot-decision-core/internal/profile"

// DefaultQualityThreshold is the score a chunk needs to count as high quality.
const DefaultQualityThreshold = 0.7

// Stats summarizes a chunked corpus.
type Stats struct {
	TotalChunks      int              `json:"total_chunks"`
	AverageChunkSize float64          `json:"average_chunk_size"`
	BySource         map[string]int   `json:"by_source"`
	ByCategory       map[Category]int `json:"by_category"`
	HighQuality      int              `json:"high_quality"`
	HighQualityRatio float64          `json:"high_quality_ratio"`
	QualityThreshold float64          `json:"quality_threshold"`
}

// ComputeStats aggregates chunk statistics. A non-positive threshold uses
// DefaultQualityThreshold.
func ComputeStats(chunks []Chunk, threshold float64) Stats {
	if threshold <= 0 {
		threshold = DefaultQualityThreshold
	}
	stats := Stats{
		TotalChunks:      len(chunks),
		BySource:         make(map[string]int),
		ByCategory:       make(map[Category]int),
		QualityThreshold: threshold,
	}
	if len(chunks) == 0 {
		return stats
	}

	totalSize := 0
	for _, c := range chunks {
		totalSize += runeLen(c.Content)
		stats.BySource[c.Source]++
		stats.ByCategory[c.Category]++
		if c.QualityScore >= threshold {
			stats.HighQuality++
		}
	}
	stats.AverageChunkSize = float64(totalSize) / float64(len(chunks))
	stats.HighQualityRatio = float64(stats.HighQuality) / float64(len(chunks))
	return stats
}

// ComputeStatsForProfile uses the profile's quality threshold.
func ComputeStatsForProfile(chunks []Chunk, p *profile.Profile) Stats {
	return ComputeStats(chunks, p.QualityThreshold())
}

// Usable reports whether the corpus is non-empty and at least minRatio of
// its chunks are high quality.
func (s Stats) Usable(minRatio float64) bool {
	return s.TotalChunks > 0 && s.HighQualityRatio >= minRatio
}
