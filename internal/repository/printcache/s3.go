package printcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithymiddleware "github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/printdoc"
)

// objectAPI is the subset of *s3.Client the cache uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Cache stores pages in one S3 bucket.
type S3Cache struct {
	api    objectAPI
	bucket string
	logger *zap.Logger
}

// NewS3Cache creates the S3 driver.
func NewS3Cache(api objectAPI, bucket string, logger *zap.Logger) *S3Cache {
	return &S3Cache{api: api, bucket: bucket, logger: logger}
}

// Save writes the page and its metadata concurrently and waits for both.
// A status of 400 or above on either write yields *domain.PrintSaveFailureError;
// any other SDK error, including a redirect, is returned as-is. Nothing is rolled back.
func (c *S3Cache) Save(ctx context.Context, key uuid.UUID, metadata, content string) error {
	var g errgroup.Group
	g.Go(func() error {
		return c.put(ctx, key, false, content)
	})
	g.Go(func() error {
		return c.put(ctx, key, true, metadata)
	})
	return g.Wait() //nolint:wrapcheck // put already returns the classified error
}

func (c *S3Cache) put(ctx context.Context, key uuid.UUID, isMetadata bool, body string) error {
	objectKey, contentType := printdoc.ContentKey(key), ContentTypeHTML
	if isMetadata {
		objectKey, contentType = printdoc.MetadataKey(key), ContentTypeJSON
	}

	out, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(objectKey),
		Body:        strings.NewReader(body),
		ContentType: aws.String(contentType),
	})

	status := 0
	if err != nil {
		status = errorStatus(err)
	} else if out != nil {
		status = rawStatus(out.ResultMetadata)
	}

	switch {
	case status >= 400:
		c.logger.Error("Print page save rejected",
			append(diagnostics(err), zap.String("key", objectKey), zap.Int("status", status))...)
		return &domain.PrintSaveFailureError{
			Key:        key.String(),
			StatusCode: status,
			Metadata:   isMetadata,
			Err:        err,
		}
	case err != nil:
		c.logger.Error("Print page save failed",
			append(diagnostics(err), zap.String("key", objectKey), zap.Int("status", status))...)
		return err
	case status >= 300:
		c.logger.Warn("Print page save returned a redirect status",
			zap.String("key", objectKey), zap.Int("status", status))
	}
	return nil
}

// Get reads the page HTML. A missing object is reported as found == false.
func (c *S3Cache) Get(ctx context.Context, key uuid.UUID) (string, bool, error) {
	objectKey := printdoc.ContentKey(key)

	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		status := errorStatus(err)
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) || status == 404 {
			c.logger.Debug("Print page not found", zap.String("key", objectKey))
			return "", false, nil
		}
		c.logger.Error("Print page fetch failed",
			append(diagnostics(err), zap.String("key", objectKey), zap.Int("status", status))...)
		return "", false, &domain.PrintFetchFailureError{Key: objectKey, StatusCode: status, Err: err}
	}
	defer func() { _ = out.Body.Close() }()

	if status := rawStatus(out.ResultMetadata); status != 0 && status != 200 {
		c.logger.Warn("Print page fetch returned an unexpected success status",
			zap.String("key", objectKey), zap.Int("status", status))
	}

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", false, &domain.PrintFetchFailureError{
			Key: objectKey,
			Err: fmt.Errorf("read body: %w", err),
		}
	}
	return string(data), true, nil
}

// rawStatus returns the HTTP status recorded in SDK result metadata, or 0.
func rawStatus(md smithymiddleware.Metadata) int {
	if resp, ok := awsmiddleware.GetRawResponse(md).(*smithyhttp.Response); ok && resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	return 0
}

// errorStatus returns the HTTP status carried by an SDK error, or 0 when the
// request never produced a response.
func errorStatus(err error) int {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.Response != nil {
		return respErr.HTTPStatusCode()
	}
	return 0
}

// diagnostics extracts provider identifiers for logging.
func diagnostics(err error) []zap.Field {
	if err == nil {
		return nil
	}
	fields := []zap.Field{zap.Error(err)}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		fields = append(fields, zap.String("request_id", respErr.ServiceRequestID()))
	}
	var hostErr interface{ ServiceHostID() string }
	if errors.As(err, &hostErr) {
		fields = append(fields, zap.String("host_id", hostErr.ServiceHostID()))
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields,
			zap.String("error_code", apiErr.ErrorCode()),
			zap.String("error_message", apiErr.ErrorMessage()),
		)
	}
	return fields
}
