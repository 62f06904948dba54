// Package archive exports game events and finished sessions to an
// S3-compatible bucket.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gosimple/slug"
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/pkg/logger"
)

const contentTypeJSON = "application/json"

// Sentinel errors.
var (
	ErrMissingBucket = errors.New("archive bucket is required")
)

// PutObjectAPI is the part of the S3 client the archiver uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config describes the target bucket. Endpoint and the static keys are
// optional; without them the default AWS credential chain is used.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Archiver writes JSON documents to the bucket.
type Archiver struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger logger.Logger
}

// New builds an archiver backed by a real S3 client.
func New(ctx context.Context, cfg Config, opts ...Option) (*Archiver, error) {
	if cfg.Bucket == "" {
		return nil, ErrMissingBucket
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load archive config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, cfg.Bucket, opts...)
}

// NewWithClient builds an archiver around an existing client.
func NewWithClient(client PutObjectAPI, bucket string, opts ...Option) (*Archiver, error) {
	if bucket == "" {
		return nil, ErrMissingBucket
	}
	a := &Archiver{
		client: client,
		bucket: bucket,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.Get().Named("archive")
	}
	return a, nil
}

// Name implements the outbox sink contract.
func (a *Archiver) Name() string { return "archive" }

// Handle stores a single event under its session.
func (a *Archiver) Handle(ctx context.Context, e model.Event) error { //nolint:gocritic // hugeParam: matches the sink contract
	return a.put(ctx, a.EventKey(&e), e)
}

// sessionDocument is the archived form of a whole session.
type sessionDocument struct {
	Session *model.Session `json:"session"`
	Events  []*model.Event `json:"events"`
}

// ArchiveSession stores the session together with its full event log.
func (a *Archiver) ArchiveSession(ctx context.Context, s *model.Session, events []*model.Event) error {
	key := a.SessionKey(s)
	if err := a.put(ctx, key, sessionDocument{Session: s, Events: events}); err != nil {
		return err
	}
	a.logger.Info(ctx, "session archived",
		logger.SessionID(s.ID),
		logger.String("key", key),
		logger.Int("events", len(events)),
	)
	return nil
}

// EventKey returns the object key of an event.
func (a *Archiver) EventKey(e *model.Event) string {
	name := fmt.Sprintf("%08d-%s.json", e.Seq, slug.Make(string(e.Type)))
	return path.Join(a.prefix, "events", e.SessionID, name)
}

// SessionKey returns the object key of a session snapshot.
func (a *Archiver) SessionKey(s *model.Session) string {
	return path.Join(a.prefix, "sessions", slug.Make(s.Code)+"-"+s.ID+".json")
}

func (a *Archiver) put(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentTypeJSON),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
