package objstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrymomot/notifyqueue/pkg/dispatch"
)

// S3Client defines the S3 operations used by S3Store.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store implements dispatch.Store on two objects under a key prefix.
type S3Store struct {
	client    S3Client
	bucket    string
	eventsKey string
	pauseKey  string
	retries   int
	mu        sync.RWMutex
}

// DefaultConflictRetries bounds how often Update re-reads after losing a race.
const DefaultConflictRetries = 10

var _ dispatch.Store = (*S3Store)(nil)

// Option configures NewS3Store.
type Option func(*options)

type options struct {
	client     S3Client
	httpClient *http.Client
	retries    int
}

// WithS3Client sets a pre-configured S3 client. Useful for testing with mocks.
func WithS3Client(client S3Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithHTTPClient sets a custom HTTP client for S3 requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithConflictRetries sets how many times Update retries after a concurrent write.
func WithConflictRetries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.retries = n
		}
	}
}

// NewS3Store creates the store, loading AWS configuration unless a client is supplied.
func NewS3Store(ctx context.Context, cfg Config, opts ...Option) (*S3Store, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	o := &options{retries: DefaultConflictRetries}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}
		if o.httpClient != nil {
			awsOptions = append(awsOptions, config.WithHTTPClient(o.httpClient))
		}

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = s3.NewFromConfig(awsConfig, func(so *s3.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
		})
	}

	prefix := strings.TrimPrefix(cfg.Prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		eventsKey: prefix + dispatch.EventsFileName,
		pauseKey:  prefix + dispatch.PauseFileName,
		retries:   o.retries,
	}, nil
}

// Load reads the event list. A missing object is an empty queue.
func (s *S3Store) Load(ctx context.Context) ([]dispatch.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, _, err := s.load(ctx)
	return events, err
}

// Save replaces the event list object unconditionally.
func (s *S3Store) Save(ctx context.Context, events []dispatch.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(ctx, events, "")
}

// Update reads the object with its ETag and writes back only if nobody else
// wrote in between. A lost race re-reads and calls fn again.
func (s *S3Store) Update(ctx context.Context, fn dispatch.UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for range s.retries {
		events, etag, err := s.load(ctx)
		if err != nil {
			return err
		}
		next, err := fn(events)
		if err != nil {
			return err
		}

		cond := etag
		if cond == "" {
			cond = "*"
		}
		err = s.put(ctx, next, cond)
		if err == nil {
			return nil
		}
		if !isConflict(err) {
			return err
		}
	}
	return errors.Join(dispatch.ErrStoreWrite, ErrConflict)
}

// load returns the events and the ETag of the object they came from.
// A missing object yields an empty ETag.
func (s *S3Store) load(ctx context.Context) ([]dispatch.Event, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.eventsKey),
	})
	if isNotFound(err) {
		return []dispatch.Event{}, "", nil
	}
	if err != nil {
		return nil, "", errors.Join(dispatch.ErrStoreRead, err)
	}
	defer out.Body.Close()

	etag := aws.ToString(out.ETag)
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", errors.Join(dispatch.ErrStoreRead, err)
	}
	if len(data) == 0 {
		return []dispatch.Event{}, etag, nil
	}

	var events []dispatch.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, "", errors.Join(dispatch.ErrStoreRead, fmt.Errorf("decode s3://%s/%s: %w", s.bucket, s.eventsKey, err))
	}
	return events, etag, nil
}

// put writes the events object. cond is empty for an unconditional write,
// "*" to require that the object does not exist yet, or the ETag it must still have.
func (s *S3Store) put(ctx context.Context, events []dispatch.Event, cond string) error {
	if events == nil {
		events = []dispatch.Event{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return errors.Join(dispatch.ErrStoreWrite, err)
	}

	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.eventsKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}
	switch cond {
	case "":
	case "*":
		in.IfNoneMatch = aws.String("*")
	default:
		in.IfMatch = aws.String(cond)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return errors.Join(dispatch.ErrStoreWrite, err)
	}
	return nil
}

// Paused reports whether the pause sentinel object exists.
func (s *S3Store) Paused(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.pauseKey),
	})
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, errors.Join(dispatch.ErrStoreRead, err)
	}
}

// SetPaused creates or deletes the pause sentinel object.
func (s *S3Store) SetPaused(ctx context.Context, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if paused {
		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(s.pauseKey),
			Body:        strings.NewReader(time.Now().UTC().Format(time.RFC3339)),
			ContentType: aws.String("text/plain"),
		})
	} else {
		_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.pauseKey),
		})
		if isNotFound(err) {
			err = nil
		}
	}
	if err != nil {
		return errors.Join(dispatch.ErrStoreWrite, err)
	}
	return nil
}

// isConflict reports a failed precondition or a concurrent conditional write.
func isConflict(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}
