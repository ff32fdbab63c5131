// Package s3 implements the fileio.FileIO interface over S3-compatible
// object storage using the AWS SDK.
//
// Directories are pseudo-entries: a "directory" exists while at least one
// object lives under its prefix, so the empty-directory sweep degenerates to
// a cheap prefix probe plus an optional marker delete. That keeps the GC
// engine's directory handling uniform across local filesystems and object
// stores.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/silt-io/silt/internal/fileio"
)

// Config configures an S3 FileIO.
type Config struct {
	// Bucket is the name of the S3 bucket.
	Bucket string

	// Region is the AWS region (e.g., "us-east-1").
	// Required for AWS S3, optional for S3-compatible endpoints.
	Region string

	// Endpoint is the S3 endpoint URL (e.g., "http://localhost:9000" for
	// MinIO). If empty, uses the default AWS endpoint for the region.
	Endpoint string

	// AccessKeyID is the AWS access key ID.
	// If empty, uses the default credential chain.
	AccessKeyID string

	// SecretAccessKey is the AWS secret access key.
	// If empty, uses the default credential chain.
	SecretAccessKey string

	// UsePathStyle enables path-style addressing (required for MinIO and
	// some S3-compatible stores).
	UsePathStyle bool
}

// FileIO implements fileio.FileIO over an S3 bucket.
type FileIO struct {
	client *s3.Client
	bucket string

	mu     sync.RWMutex
	closed bool
}

// New creates a new S3 FileIO with the given configuration.
func New(ctx context.Context, cfg Config) (*FileIO, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket name is required")
	}

	opts := []func(*config.LoadOptions) error{}

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	} else {
		opts = append(opts, config.WithRegion("us-east-1"))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: failed to load AWS config: %w", err)
	}

	s3Opts := []func(*s3.Options){
		func(o *s3.Options) {
			// Suppress "Response has no supported checksum" warnings.
			o.DisableLogOutputChecksumValidationSkipped = true
		},
	}

	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &FileIO{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
	}, nil
}

func (f *FileIO) checkClosed() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return fileio.ErrClosed
	}
	return nil
}

func key(path string) string {
	return strings.Trim(path, "/")
}

// NewReader opens the object at path for reading.
func (f *FileIO) NewReader(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := f.checkClosed(); err != nil {
		return nil, err
	}
	output, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key(path)),
	})
	if err != nil {
		return nil, f.wrapError("NewReader", path, err)
	}
	return output.Body, nil
}

// WriteFile creates or replaces the object at path.
func (f *FileIO) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := f.checkClosed(); err != nil {
		return err
	}
	_, err := f.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(f.bucket),
		Key:           aws.String(key(path)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return f.wrapError("WriteFile", path, err)
	}
	return nil
}

// Delete removes the object at path. For a pseudo-directory the prefix must
// be empty unless recursive is set, in which case every object under the
// prefix is removed.
func (f *FileIO) Delete(ctx context.Context, path string, recursive bool) error {
	if err := f.checkClosed(); err != nil {
		return err
	}
	k := key(path)

	children, err := f.listKeys(ctx, k+"/")
	if err != nil {
		return f.wrapError("Delete", path, err)
	}
	if len(children) > 0 {
		if !recursive {
			return &fileio.PathError{Op: "Delete", Path: path, Err: fileio.ErrDirNotEmpty}
		}
		for _, child := range children {
			if err := f.deleteKey(ctx, child); err != nil {
				return f.wrapError("Delete", path, err)
			}
		}
	}

	if err := f.deleteKey(ctx, k); err != nil {
		wrapped := f.wrapError("Delete", path, err)
		if errors.Is(wrapped, fileio.ErrNotFound) {
			return nil
		}
		return wrapped
	}
	return nil
}

func (f *FileIO) deleteKey(ctx context.Context, k string) error {
	_, err := f.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(k),
	})
	return err
}

func (f *FileIO) listKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(f.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(f.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// DeleteQuietly removes the object at path, swallowing every failure.
func (f *FileIO) DeleteQuietly(ctx context.Context, path string) {
	_ = f.Delete(ctx, path, false)
}

// Exists reports whether an object or pseudo-directory exists at path.
func (f *FileIO) Exists(ctx context.Context, path string) (bool, error) {
	if err := f.checkClosed(); err != nil {
		return false, err
	}
	k := key(path)
	_, err := f.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(k),
	})
	if err == nil {
		return true, nil
	}
	if !errors.Is(f.wrapError("Exists", path, err), fileio.ErrNotFound) {
		return false, f.wrapError("Exists", path, err)
	}
	children, err := f.listKeys(ctx, k+"/")
	if err != nil {
		return false, f.wrapError("Exists", path, err)
	}
	return len(children) > 0, nil
}

// Size returns the size in bytes of the object at path.
func (f *FileIO) Size(ctx context.Context, path string) (int64, error) {
	if err := f.checkClosed(); err != nil {
		return 0, err
	}
	output, err := f.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key(path)),
	})
	if err != nil {
		return 0, f.wrapError("Size", path, err)
	}
	return aws.ToInt64(output.ContentLength), nil
}

// List returns the direct children of the pseudo-directory at path.
func (f *FileIO) List(ctx context.Context, path string) ([]fileio.Status, error) {
	if err := f.checkClosed(); err != nil {
		return nil, err
	}
	prefix := key(path)
	if prefix != "" {
		prefix += "/"
	}

	var statuses []fileio.Status
	paginator := s3.NewListObjectsV2Paginator(f.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(f.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, f.wrapError("List", path, err)
		}
		for _, cp := range page.CommonPrefixes {
			statuses = append(statuses, fileio.Status{
				Path:  "/" + strings.TrimSuffix(aws.ToString(cp.Prefix), "/"),
				IsDir: true,
			})
		}
		for _, obj := range page.Contents {
			st := fileio.Status{
				Path: "/" + aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				st.ModifiedAt = obj.LastModified.UnixMilli()
			}
			statuses = append(statuses, st)
		}
	}
	return statuses, nil
}

// Close releases resources associated with the FileIO.
func (f *FileIO) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *FileIO) wrapError(op, path string, err error) error {
	if err == nil {
		return nil
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return &fileio.PathError{Op: op, Path: path, Err: fileio.ErrNotFound}
		case http.StatusForbidden:
			return &fileio.PathError{Op: op, Path: path, Err: fileio.ErrAccessDenied}
		}
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return &fileio.PathError{Op: op, Path: path, Err: fileio.ErrNotFound}
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return &fileio.PathError{Op: op, Path: path, Err: fileio.ErrNotFound}
	}

	return &fileio.PathError{Op: op, Path: path, Err: err}
}

// Verify interface compliance at compile time.
var _ fileio.FileIO = (*FileIO)(nil)
