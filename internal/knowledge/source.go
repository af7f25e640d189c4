package knowledge

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// maxDocumentBytes bounds how much of an object is read.
const maxDocumentBytes = 10 << 20

// DocumentSource loads a raw document by key.
type DocumentSource interface {
	Fetch(ctx context.Context, key string) (Document, error)
}

// S3API is the subset of the S3 client used by S3DocumentSource.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3DocumentSource reads plain-text documents from a bucket. Object
// metadata "title" and "tags" (comma separated) are honored when present.
type S3DocumentSource struct {
	client S3API
	bucket string
}

// NewS3DocumentSource creates a source bound to a bucket.
func NewS3DocumentSource(client S3API, bucket string) *S3DocumentSource {
	return &S3DocumentSource{client: client, bucket: bucket}
}

// Fetch downloads the object and wraps it as a Document.
func (s *S3DocumentSource) Fetch(ctx context.Context, key string) (Document, error) {
	if s == nil || s.client == nil || s.bucket == "" {
		return Document{}, fmt.Errorf("knowledge: s3 source not configured")
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Document{}, fmt.Errorf("knowledge: s3 get %s: %w", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(io.LimitReader(out.Body, maxDocumentBytes))
	if err != nil {
		return Document{}, fmt.Errorf("knowledge: read %s: %w", key, err)
	}

	doc := Document{
		ID:      key,
		Title:   strings.TrimSuffix(path.Base(key), path.Ext(key)),
		Source:  fmt.Sprintf("s3://%s/%s", s.bucket, key),
		Content: string(body),
	}
	if title := strings.TrimSpace(out.Metadata["title"]); title != "" {
		doc.Title = title
	}
	if tags := out.Metadata["tags"]; tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				doc.Tags = append(doc.Tags, tag)
			}
		}
	}
	return doc, nil
}
