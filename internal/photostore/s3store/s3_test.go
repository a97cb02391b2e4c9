package s3store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/safetyaudit/internal/photostore"
)

// fakeObjects is an in-memory objectAPI.
type fakeObjects struct {
	objects map[string][]byte
	types   map[string]string
	lastKey string
	failPut error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut != nil {
		return nil, f.failPut
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	f.lastKey = aws.ToString(in.Key)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	data, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: aws.String(f.types[key]),
	}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3PhotoStoreRoundTrip(t *testing.T) {
	fake := newFakeObjects()
	store := NewS3PhotoStore(fake, "evidence", "/audits/")
	store.now = func() time.Time { return time.Unix(0, 42) }
	ctx := context.Background()

	key, err := store.Save(ctx, "audit_1_q2", "image/png", bytes.NewReader([]byte("png bytes")))
	require.NoError(t, err)
	assert.Equal(t, "audit_1_q2_42.png", key)
	assert.Equal(t, "audits/audit_1_q2_42.png", fake.lastKey)

	rc, mimeType, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), data)
	assert.Equal(t, "image/png", mimeType)

	require.NoError(t, store.Delete(ctx, key))
	_, _, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, photostore.ErrNotFound)
}

func TestS3PhotoStoreSaveError(t *testing.T) {
	fake := newFakeObjects()
	fake.failPut = errors.New("access denied")
	store := NewS3PhotoStore(fake, "evidence", "")

	_, err := store.Save(context.Background(), "audit_1", "image/jpeg", bytes.NewReader(nil))
	assert.ErrorContains(t, err, "access denied")
}

func TestS3PhotoStoreRejectsTraversal(t *testing.T) {
	store := NewS3PhotoStore(newFakeObjects(), "evidence", "")
	_, _, err := store.Get(context.Background(), "../secret")
	assert.Error(t, err)
}

func TestNewFromEnvRequiresBucket(t *testing.T) {
	_, err := NewFromEnv(context.Background(), "us-east-1", "", "")
	assert.Error(t, err)
}
