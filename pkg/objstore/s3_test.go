package objstore_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyqueue/pkg/dispatch"
	"github.com/dmitrymomot/notifyqueue/pkg/objstore"
)

// memS3 is an in-memory bucket that honours If-Match and If-None-Match.
type memS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	etags   map[string]string
	version int
	putErr  error
}

func newMemS3() *memS3 {
	return &memS3{objects: map[string][]byte{}, etags: map[string]string{}}
}

var errPrecondition = &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}

func (m *memS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
		ETag: aws.String(m.etags[aws.ToString(in.Key)]),
	}, nil
}

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return nil, m.putErr
	}
	key := aws.ToString(in.Key)
	current, exists := m.etags[key]
	if in.IfNoneMatch != nil && exists {
		return nil, errPrecondition
	}
	if in.IfMatch != nil && (!exists || aws.ToString(in.IfMatch) != current) {
		return nil, errPrecondition
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.version++
	m.objects[key] = data
	m.etags[key] = `"` + strconv.Itoa(m.version) + `"`
	return &s3.PutObjectOutput{ETag: aws.String(m.etags[key])}, nil
}

func (m *memS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (m *memS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, aws.ToString(in.Key))
	delete(m.etags, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (m *memS3) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func newStore(t *testing.T, client *memS3, opts ...objstore.Option) *objstore.S3Store {
	t.Helper()
	opts = append([]objstore.Option{objstore.WithS3Client(client)}, opts...)
	s, err := objstore.NewS3Store(context.Background(),
		objstore.Config{Bucket: "news", Region: "eu-west-1", Prefix: "queue"},
		opts...,
	)
	require.NoError(t, err)
	return s
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	t.Parallel()
	_, err := objstore.NewS3Store(context.Background(), objstore.Config{Region: "eu-west-1"})
	require.ErrorIs(t, err, objstore.ErrInvalidConfig)
}

func TestS3Store(t *testing.T) {
	t.Parallel()

	t.Run("missing object is an empty queue", func(t *testing.T) {
		t.Parallel()
		events, err := newStore(t, newMemS3()).Load(context.Background())
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("round trip under prefix", func(t *testing.T) {
		t.Parallel()
		client := newMemS3()
		s := newStore(t, client)
		ctx := context.Background()

		in := []dispatch.Event{{ID: "e1", ArticleSlug: "a", Status: dispatch.StatusPending, SentEmails: []string{}}}
		require.NoError(t, s.Save(ctx, in))
		assert.True(t, client.has("queue/events.json"))

		out, err := s.Load(ctx)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "e1", out[0].ID)
	})

	t.Run("write failure", func(t *testing.T) {
		t.Parallel()
		client := newMemS3()
		client.putErr = errors.New("access denied")
		err := newStore(t, client).Save(context.Background(), nil)
		require.ErrorIs(t, err, dispatch.ErrStoreWrite)
	})

	t.Run("pause sentinel", func(t *testing.T) {
		t.Parallel()
		client := newMemS3()
		s := newStore(t, client)
		ctx := context.Background()

		paused, err := s.Paused(ctx)
		require.NoError(t, err)
		assert.False(t, paused)

		require.NoError(t, s.SetPaused(ctx, true))
		assert.True(t, client.has("queue/queue.paused"))
		paused, err = s.Paused(ctx)
		require.NoError(t, err)
		assert.True(t, paused)

		require.NoError(t, s.SetPaused(ctx, false))
		paused, err = s.Paused(ctx)
		require.NoError(t, err)
		assert.False(t, paused)
	})

	t.Run("drives the queue manager", func(t *testing.T) {
		t.Parallel()
		m, err := dispatch.NewManager(newStore(t, newMemS3()))
		require.NoError(t, err)
		ctx := context.Background()

		ev, err := m.Enqueue(ctx, dispatch.EnqueueInput{ArticleSlug: "a", Headline: "A", Priority: dispatch.PriorityImportant})
		require.NoError(t, err)
		next, ok := m.NextPending(ctx)
		require.True(t, ok)
		assert.Equal(t, ev.ID, next.ID)
	})
	t.Run("update retries after a concurrent write", func(t *testing.T) {
		t.Parallel()
		client := newMemS3()
		a, b := newStore(t, client), newStore(t, client)
		ctx := context.Background()

		calls := 0
		err := a.Update(ctx, func(events []dispatch.Event) ([]dispatch.Event, error) {
			calls++
			if calls == 1 {
				// Another process lands its write between our read and our write.
				require.NoError(t, b.Update(ctx, func(events []dispatch.Event) ([]dispatch.Event, error) {
					return append(events, dispatch.Event{ID: "from-b", SentEmails: []string{}}), nil
				}))
			}
			return append(events, dispatch.Event{ID: "from-a", SentEmails: []string{}}), nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)

		out, err := a.Load(ctx)
		require.NoError(t, err)
		ids := make([]string, 0, len(out))
		for _, e := range out {
			ids = append(ids, e.ID)
		}
		assert.Equal(t, []string{"from-b", "from-a"}, ids)
	})

	t.Run("update gives up after repeated conflicts", func(t *testing.T) {
		t.Parallel()
		client := newMemS3()
		client.putErr = errPrecondition
		err := newStore(t, client, objstore.WithConflictRetries(3)).Update(context.Background(),
			func(events []dispatch.Event) ([]dispatch.Event, error) { return events, nil })
		require.ErrorIs(t, err, objstore.ErrConflict)
		require.ErrorIs(t, err, dispatch.ErrStoreWrite)
	})

	t.Run("two managers on one bucket keep every event", func(t *testing.T) {
		t.Parallel()
		client := newMemS3()
		ctx := context.Background()
		m1, err := dispatch.NewManager(newStore(t, client))
		require.NoError(t, err)
		m2, err := dispatch.NewManager(newStore(t, client))
		require.NoError(t, err)

		for i := range 5 {
			slug := "article-" + strconv.Itoa(i)
			_, err := m1.Enqueue(ctx, dispatch.EnqueueInput{ArticleSlug: slug, Headline: slug})
			require.NoError(t, err)
			_, err = m2.Enqueue(ctx, dispatch.EnqueueInput{ArticleSlug: slug, Headline: slug})
			require.NoError(t, err)
		}
		assert.Len(t, m1.List(ctx), 10)
	})
}
