package questions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/zstd"
)

var ErrNoS3Client = errors.New("no S3 client configured")

// ObjectGetter is the part of *s3.Client the fetcher needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Fetcher reads static files from local disk or S3, transparently
// decompressing zstd content.
type Fetcher struct {
	s3 ObjectGetter
}

// NewFetcher creates a fetcher. s3Client may be nil when only local paths are used.
func NewFetcher(s3Client ObjectGetter) *Fetcher {
	return &Fetcher{s3: s3Client}
}

// Fetch returns the (decompressed) content at location. A location is either
// a local path, "s3://bucket/key" or "https://bucket.s3.region.amazonaws.com/key".
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	bucket, key, isS3, err := ParseS3Location(location)
	if err != nil {
		return nil, err
	}
	if !isS3 {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", location, err)
		}
		return maybeDecompress(data, path.Ext(location) == ".zst")
	}

	if f.s3 == nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", location, ErrNoS3Client)
	}
	obj, err := f.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s from s3: %w (bucket: %s, key: %s)", location, err, bucket, key)
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3 object %s: %w", location, err)
	}
	zstdContent := aws.ToString(obj.ContentType) == "application/zstd" || path.Ext(key) == ".zst"
	return maybeDecompress(data, zstdContent)
}

// ParseS3Location splits an S3 location into bucket and key. isS3 is false for
// anything that is not an S3 URL, which callers treat as a local path.
func ParseS3Location(location string) (bucket string, key string, isS3 bool, err error) {
	switch {
	case strings.HasPrefix(location, "s3://"):
	case strings.HasPrefix(location, "https://") && strings.Contains(location, ".s3."):
	default:
		return "", "", false, nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return "", "", false, fmt.Errorf("failed to parse s3 url %s: %w", location, err)
	}
	key = strings.TrimPrefix(u.Path, "/")

	if u.Scheme == "s3" {
		bucket = u.Host
	} else {
		// bucket.s3.region.amazonaws.com
		hostParts := strings.Split(u.Host, ".")
		if len(hostParts) < 3 || hostParts[1] != "s3" {
			return "", "", false, fmt.Errorf("invalid s3 url host format: %s", u.Host)
		}
		bucket = hostParts[0]
	}
	if bucket == "" || key == "" {
		return "", "", false, fmt.Errorf("invalid s3 url %s: bucket and key are required", location)
	}
	return bucket, key, true, nil
}

func maybeDecompress(data []byte, zstdContent bool) ([]byte, error) {
	if !zstdContent {
		return data, nil
	}
	d, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer d.Close()
	out, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress zstd content: %w", err)
	}
	return out, nil
}
