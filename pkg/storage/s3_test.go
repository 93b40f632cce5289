package storage

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []*s3.PutObjectInput
	err     error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) objectID(bucket, key *string) string {
	return aws.ToString(bucket) + "/" + aws.ToString(key)
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[f.objectID(in.Bucket, in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[f.objectID(in.Bucket, in.Key)] = data
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	delete(f.objects, f.objectID(in.Bucket, in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	runStoreContract(t, NewS3Store(newFakeS3(), "bucket", "teamstore/"))
}

func TestS3Store_ObjectLayout(t *testing.T) {
	fake := newFakeS3()
	store := NewS3Store(fake, "bucket", "prefs/")

	require.NoError(t, store.Set(context.Background(), "selectedTeam", `"teamA"`))

	assert.Equal(t, []byte(`"teamA"`), fake.objects["bucket/prefs/selectedTeam"])
	require.Len(t, fake.puts, 1)
	assert.Equal(t, "application/json", aws.ToString(fake.puts[0].ContentType))
}

func TestS3Store_BackendError(t *testing.T) {
	fake := newFakeS3()
	fake.err = stderrors.New("access denied")
	store := NewS3Store(fake, "bucket", "")

	_, _, err := store.Get(context.Background(), "selectedTeam")
	assert.ErrorContains(t, err, "access denied")
	assert.ErrorContains(t, store.Set(context.Background(), "selectedTeam", "1"), "access denied")
}
