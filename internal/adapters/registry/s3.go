package registry

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.trai.ch/stitch/internal/core/domain"
)

// ObjectGetter is the subset of the S3 client the registry needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 serves records stored as <prefix><id>.json objects of a bucket.
type S3 struct {
	client ObjectGetter
	bucket string
	prefix string
}

// NewS3 creates an S3 registry using client.
func NewS3(client ObjectGetter, bucket, prefix string) *S3 {
	return &S3{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// NewS3Client builds an S3 client from cfg.
// Static credentials are used when both keys are set, otherwise requests are anonymous.
// A custom endpoint switches to path-style addressing for S3 compatible stores.
func NewS3Client(cfg domain.S3Config) *s3.Client {
	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: aws.AnonymousCredentials{},
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		creds := aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Source:          "stitch",
		}
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) {
				return creds, nil
			},
		))
	}

	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	return s3.New(opts)
}

// Fetch downloads and decodes the record for id.
func (s *S3) Fetch(ctx context.Context, id string) (*domain.ComponentRecord, error) {
	if !validID(id) {
		return nil, notFound(id)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + id + ".json"),
	})
	if err != nil {
		if isMissingObject(err) {
			return nil, notFound(id)
		}
		return nil, transportFailure(id, err)
	}
	defer func() {
		_ = out.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(out.Body, maxRecordSize))
	if err != nil {
		return nil, transportFailure(id, err)
	}

	return DecodeRecord(id, body)
}

func isMissingObject(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
