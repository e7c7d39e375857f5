package s3blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mollybeach/ai-rug-checker/internal/storage"
)

const artifactContentType = "application/octet-stream"

// ModelStore keeps classifier artifacts as objects. A PutObject replaces the
// object atomically, so readers never observe a partial artifact.
type ModelStore struct {
	client *Client
}

// NewModelStore returns a store writing to c's bucket.
func NewModelStore(c *Client) *ModelStore {
	return &ModelStore{client: c}
}

// Save uploads data under key, replacing any previous object.
func (m *ModelStore) Save(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return fmt.Errorf("s3blob: empty model key")
	}
	path := m.client.objectKey(key)
	_, err := m.client.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.client.bucket),
		Key:           aws.String(path),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(artifactContentType),
	})
	if err != nil {
		return fmt.Errorf("s3blob: put object %s: %w", path, err)
	}
	return nil
}

// Load downloads the object stored under key. A missing object yields an
// error wrapping storage.ErrNotFound.
func (m *ModelStore) Load(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("s3blob: empty model key")
	}
	path := m.client.objectKey(key)
	out, err := m.client.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.client.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3blob: get %s: %w", path, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("s3blob: get %s: %w", path, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3blob: read %s: %w", path, err)
	}
	return data, nil
}

// isNotFound reports whether err means the object does not exist.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	type httpResponseError interface {
		HTTPStatusCode() int
	}
	var httpErr httpResponseError
	return errors.As(err, &httpErr) && httpErr.HTTPStatusCode() == 404
}
