package knowledge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	chunkKeyPrefix    = "knowledge:chunks:"
	categoryKeyPrefix = "knowledge:category:"
)

var storeTracer = otel.Tracer("chatcore/knowledge-store")

// ChunkStore persists the chunks of a document.
type ChunkStore interface {
	ReplaceChunks(ctx context.Context, documentID string, chunks []Chunk) error
	GetChunks(ctx context.Context, documentID string) ([]Chunk, error)
}

// RedisChunkStore keeps each document's chunks as a JSON list and indexes
// document IDs by category.
type RedisChunkStore struct {
	client *redis.Client
}

// NewRedisChunkStore creates a Redis-backed chunk store.
func NewRedisChunkStore(client *redis.Client) *RedisChunkStore {
	if client == nil {
		panic("knowledge: redis client cannot be nil")
	}
	return &RedisChunkStore{client: client}
}

// ReplaceChunks overwrites the stored chunks for a document and moves it
// into the category of the new chunks.
func (s *RedisChunkStore) ReplaceChunks(ctx context.Context, documentID string, chunks []Chunk) error {
	ctx, span := storeTracer.Start(ctx, "knowledge.replace_chunks")
	defer span.End()
	span.SetAttributes(
		attribute.String("knowledge.document_id", documentID),
		attribute.Int("knowledge.chunk_count", len(chunks)),
	)

	args := make([]interface{}, 0, len(chunks))
	for _, c := range chunks {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("knowledge: marshal chunk %s: %w", c.ID, err)
		}
		args = append(args, data)
	}

	key := chunkKey(documentID)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	for _, category := range Categories {
		pipe.SRem(ctx, categoryKey(category), documentID)
	}
	if len(args) > 0 {
		pipe.RPush(ctx, key, args...)
		pipe.SAdd(ctx, categoryKey(chunks[0].Category), documentID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("knowledge: failed to replace chunks: %w", err)
	}
	return nil
}

// GetChunks returns the stored chunks for a document in index order.
func (s *RedisChunkStore) GetChunks(ctx context.Context, documentID string) ([]Chunk, error) {
	raw, err := s.client.LRange(ctx, chunkKey(documentID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("knowledge: fetch chunks %s: %w", documentID, err)
	}
	chunks := make([]Chunk, 0, len(raw))
	for _, item := range raw {
		var c Chunk
		if err := json.Unmarshal([]byte(item), &c); err != nil {
			return nil, fmt.Errorf("knowledge: decode chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// DocumentsInCategory lists the document IDs indexed under a category.
func (s *RedisChunkStore) DocumentsInCategory(ctx context.Context, category Category) ([]string, error) {
	ids, err := s.client.SMembers(ctx, categoryKey(category)).Result()
	if err != nil {
		return nil, fmt.Errorf("knowledge: list category %s: %w", category, err)
	}
	return ids, nil
}

func chunkKey(documentID string) string {
	return chunkKeyPrefix + documentID
}

func categoryKey(category Category) string {
	return categoryKeyPrefix + string(category)
}
