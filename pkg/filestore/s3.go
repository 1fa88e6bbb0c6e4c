package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/jlrickert/cli-toolkit/mylog"
	"github.com/jlrickert/pubkit/pkg/publish"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config configures an S3 or S3-compatible bucket.
type S3Config struct {
	Bucket          string `mapstructure:"bucket" validate:"required"`
	Region          string `mapstructure:"region" validate:"required"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// S3Store is a FileStore writing objects to an S3 bucket.
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Store returns a store writing to bucket through client. Keys are
// prefixed with prefix when set.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// NewS3Client builds an S3 client from cfg. A custom endpoint switches to
// path-style addressing for MinIO and Localstack.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*awsConfig.LoadOptions) error{awsConfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *S3Store) Name() string { return "s3" }

func (s *S3Store) key(p string) (string, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	return s.prefix + clean, nil
}

func (s *S3Store) CreateFile(ctx context.Context, p string, content []byte, opts publish.FileOptions) (bool, error) {
	key, err := s.key(p)
	if err != nil {
		return false, publish.NewStoreError(s.Name(), "createFile", http.StatusBadRequest, err)
	}
	exists, err := s.exists(ctx, key)
	if err != nil {
		return false, s.wrap("createFile", err)
	}
	if exists {
		return false, publish.NewStoreError(s.Name(), "createFile", http.StatusConflict, ErrFileExists)
	}
	if err := s.put(ctx, key, content, opts.Message); err != nil {
		return false, s.wrap("createFile", err)
	}
	mylog.LoggerFromContext(ctx).Debug("object created", "bucket", s.bucket, "key", key)
	return true, nil
}

func (s *S3Store) ReadFile(ctx context.Context, p string) ([]byte, error) {
	key, err := s.key(p)
	if err != nil {
		return nil, publish.NewStoreError(s.Name(), "readFile", http.StatusBadRequest, err)
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.wrap("readFile", err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, s.wrap("readFile", err)
	}
	return data, nil
}

// UpdateFile overwrites the object, or writes the new key and removes the
// old one when opts.NewPath is set.
func (s *S3Store) UpdateFile(ctx context.Context, p string, content []byte, opts publish.FileOptions) (bool, error) {
	key, err := s.key(p)
	if err != nil {
		return false, publish.NewStoreError(s.Name(), "updateFile", http.StatusBadRequest, err)
	}
	target := key
	if opts.NewPath != "" {
		if target, err = s.key(opts.NewPath); err != nil {
			return false, publish.NewStoreError(s.Name(), "updateFile", http.StatusBadRequest, err)
		}
	}
	if err := s.put(ctx, target, content, opts.Message); err != nil {
		return false, s.wrap("updateFile", err)
	}
	if target != key {
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}); err != nil {
			return false, s.wrap("updateFile", err)
		}
	}
	mylog.LoggerFromContext(ctx).Debug("object updated", "bucket", s.bucket, "key", target)
	return true, nil
}

// DeleteFile removes the object. A missing object is reported as not found
// even though S3 deletes are idempotent.
func (s *S3Store) DeleteFile(ctx context.Context, p string, opts publish.FileOptions) (bool, error) {
	key, err := s.key(p)
	if err != nil {
		return false, publish.NewStoreError(s.Name(), "deleteFile", http.StatusBadRequest, err)
	}
	exists, err := s.exists(ctx, key)
	if err != nil {
		return false, s.wrap("deleteFile", err)
	}
	if !exists {
		return false, publish.NewStoreError(s.Name(), "deleteFile", http.StatusNotFound, ErrFileNotFound)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return false, s.wrap("deleteFile", err)
	}
	mylog.LoggerFromContext(ctx).Debug("object deleted", "bucket", s.bucket, "key", key, "message", opts.Message)
	return true, nil
}

func (s *S3Store) put(ctx context.Context, key string, content []byte, message string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(content),
	}
	if message != "" {
		in.Metadata = map[string]string{"message": message}
	}
	_, err := s.client.PutObject(ctx, in)
	return err
}

func (s *S3Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isS3NotFound(err) {
		return false, nil
	}
	return false, err
}

func (s *S3Store) wrap(op string, err error) error {
	if isS3NotFound(err) {
		return publish.NewStoreError(s.Name(), op, http.StatusNotFound, fmt.Errorf("%w: %w", ErrFileNotFound, err))
	}
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return publish.NewStoreError(s.Name(), op, re.HTTPStatusCode(), err)
	}
	return publish.NewStoreError(s.Name(), op, 0, err)
}

func isS3NotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}
