package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sh3r4rd/file_analysis/internal/model"
)

type fakeS3 struct {
	objects map[string]Object
	putErr  error
	getErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]Object)}
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.Data)),
		ContentLength: aws.Int64(int64(len(obj.Data))),
		ContentType:   aws.String(obj.ContentType),
	}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.objects[key] = Object{Key: key, ContentType: aws.ToString(in.ContentType), Data: data}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3StorePresignPut(t *testing.T) {
	client := s3.New(s3.Options{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	})
	store := NewS3Store(client, "uploads-bucket", 0)
	now := time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	u, err := store.PresignPut(context.Background(), model.Capability{
		ResourceKey:        testKey,
		Expiry:             now.Add(model.PresignedURLTTL),
		AllowedContentType: "text/csv",
	})
	require.NoError(t, err)

	assert.Contains(t, u, "uploads-bucket")
	assert.Contains(t, u, "/"+testKey)
	assert.Contains(t, u, "X-Amz-Expires=300")
	assert.True(t, strings.HasPrefix(u, "https://"))
}

func TestS3StorePresignRejectsExpiredCapability(t *testing.T) {
	store := NewS3StoreWithAPI(newFakeS3(), nil, "b", 0)
	now := time.Now()
	store.now = func() time.Time { return now }

	_, err := store.PresignPut(context.Background(), model.Capability{ResourceKey: testKey, Expiry: now})

	assert.Error(t, err)
}

func TestS3StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewS3StoreWithAPI(newFakeS3(), nil, "b", 0)

	ok, err := store.Exists(ctx, testKey)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Get(ctx, testKey)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, testKey, []byte("a,b\n1,2\n"), "text/csv"))

	ok, err = store.Exists(ctx, testKey)
	require.NoError(t, err)
	assert.True(t, ok)

	obj, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(obj.Data))
	assert.Equal(t, "text/csv", obj.ContentType)
}

func TestS3StoreGetTooLarge(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	fake.objects[testKey] = Object{Key: testKey, Data: []byte("0123456789")}
	store := NewS3StoreWithAPI(fake, nil, "b", 4)

	_, err := store.Get(ctx, testKey)

	assert.ErrorIs(t, err, ErrObjectTooLarge)
}

func TestS3StoreGetWrapsTransportErrors(t *testing.T) {
	fake := newFakeS3()
	fake.getErr = errors.New("connection reset")
	store := NewS3StoreWithAPI(fake, nil, "b", 0)

	_, err := store.Get(context.Background(), testKey)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "connection reset")
}
