package knowledge

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects  map[string]string
	metadata map[string]string
	lastKey  string
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.lastKey = aws.ToString(params.Key)
	body, ok := f.objects[f.lastKey]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body:     io.NopCloser(strings.NewReader(body)),
		Metadata: f.metadata,
	}, nil
}

func TestS3DocumentSource_Fetch(t *testing.T) {
	client := &fakeS3{
		objects:  map[string]string{"docs/pricing-guide.txt": "Plans start at $10 per month."},
		metadata: map[string]string{"tags": "pricing, plans ,"},
	}
	src := NewS3DocumentSource(client, "kb")

	doc, err := src.Fetch(context.Background(), "docs/pricing-guide.txt")
	require.NoError(t, err)
	assert.Equal(t, "docs/pricing-guide.txt", doc.ID)
	assert.Equal(t, "pricing-guide", doc.Title)
	assert.Equal(t, "s3://kb/docs/pricing-guide.txt", doc.Source)
	assert.Equal(t, "Plans start at $10 per month.", doc.Content)
	assert.Equal(t, []string{"pricing", "plans"}, doc.Tags)

	client.metadata = map[string]string{"title": "Pricing Guide"}
	doc, err = src.Fetch(context.Background(), "docs/pricing-guide.txt")
	require.NoError(t, err)
	assert.Equal(t, "Pricing Guide", doc.Title)
}

func TestS3DocumentSource_Errors(t *testing.T) {
	_, err := NewS3DocumentSource(&fakeS3{}, "kb").Fetch(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")

	_, err = NewS3DocumentSource(nil, "kb").Fetch(context.Background(), "x")
	require.Error(t, err)
}
