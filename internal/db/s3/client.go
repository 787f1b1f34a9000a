// Package s3 builds the S3 client used by the canonical page cache.
package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/db"
)

const defaultRegion = "us-east-1"

// Config holds construction parameters. Credentials fall back to the default
// AWS chain when the static keys are empty.
type Config struct {
	Region          string
	Bucket          string
	Endpoint        string // optional; custom endpoint, e.g. MinIO or LocalStack
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	PathStyle       bool
}

// Client is an S3 client bound to one bucket.
type Client struct {
	api    *s3.Client
	bucket string
}

// New creates a Client from cfg. optFns are applied after the config-derived options.
func New(ctx context.Context, cfg Config, optFns ...func(*s3.Options)) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	opts := make([]func(*s3.Options), 0, len(optFns)+1)
	opts = append(opts, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	opts = append(opts, optFns...)

	return &Client{api: s3.NewFromConfig(awsCfg, opts...), bucket: cfg.Bucket}, nil
}

// API exposes the underlying SDK client.
func (c *Client) API() *s3.Client { return c.api }

// Bucket returns the bound bucket name.
func (c *Client) Bucket() string { return c.bucket }

// Ping checks that the bucket exists and is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)}); err != nil {
		return &db.Error{Op: db.OpHeadBucket, Err: err}
	}
	return nil
}
