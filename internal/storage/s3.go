// Package storage moves photo attachments between upload payloads and
// the S3 bucket. Every operation is best effort: per-file failures are
// logged and skipped, never propagated, because the task record is the
// authority and attachments are companions.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// PrefixTasks keys photos attached by the admin at creation.
	PrefixTasks = "tasks"
	// PrefixResults keys photos submitted by workers.
	PrefixResults = "results"

	// deleteBatchSize is the S3 DeleteObjects request limit.
	deleteBatchSize = 1000

	fallbackContentType = "application/octet-stream"
)

var allowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"gif":  {},
}

// File is a single photo in an upload batch.
type File struct {
	Name        string
	ContentType string
	Data        io.Reader
}

// UploadResult is the per-file outcome of a batch upload. Exactly one
// of URL, Skipped or Err is meaningful.
type UploadResult struct {
	Name    string
	URL     string
	Skipped bool
	Err     error
}

// SavedURLs extracts the URLs of successfully stored files, in batch
// order.
func SavedURLs(results []UploadResult) []string {
	urls := make([]string, 0, len(results))
	for _, r := range results {
		if r.URL != "" {
			urls = append(urls, r.URL)
		}
	}
	return urls
}

type s3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type Store struct {
	logger zerolog.Logger
	client s3Client
	bucket string
	region string
	// publicBaseURL overrides the generated object URL base when the
	// bucket sits behind a custom domain.
	publicBaseURL string
}

func New(
	logger zerolog.Logger,
	client s3Client,
	bucket string,
	region string,
	publicBaseURL string,
) *Store {
	return &Store{
		logger:        logger,
		client:        client,
		bucket:        bucket,
		region:        region,
		publicBaseURL: publicBaseURL,
	}
}

// Upload stores each file under "<prefix>/<timestamp>_<suffix>.<ext>".
// Files with disallowed extensions are skipped, transport errors are
// swallowed; there is no atomicity across the batch.
func (s *Store) Upload(ctx context.Context, files []File, prefix string) []UploadResult {
	results := make([]UploadResult, 0, len(files))
	for _, f := range files {
		res := UploadResult{Name: f.Name}

		ext := strings.ToLower(strings.TrimPrefix(path.Ext(f.Name), "."))
		if _, ok := allowedExtensions[ext]; !ok {
			res.Skipped = true
			s.logger.Warn().
				Str("file", f.Name).
				Str("ext", ext).
				Msg("skipped photo with disallowed extension")
			results = append(results, res)
			continue
		}

		key := s.objectKey(prefix, ext)
		contentType := f.ContentType
		if contentType == "" {
			contentType = fallbackContentType
		}

		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        f.Data,
			ContentType: aws.String(contentType),
		})
		if err != nil {
			res.Err = err
			s.logger.Error().
				Err(err).
				Str("file", f.Name).
				Str("key", key).
				Msg("failed to upload photo")
			results = append(results, res)
			continue
		}

		res.URL = s.objectURL(key)
		s.logger.Debug().
			Str("key", key).
			Msg("uploaded photo")
		results = append(results, res)
	}
	return results
}

// Delete resolves the given URLs to storage keys, deduplicates them and
// issues batched DeleteObjects calls. Failed chunks are skipped, not
// retried. It returns the number of keys a delete was attempted for.
func (s *Store) Delete(ctx context.Context, urls []string) int {
	keys := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		key := s.KeyFromURL(u)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return 0
	}

	attempted := 0
	for start := 0; start < len(keys); start += deleteBatchSize {
		chunk := keys[start:min(start+deleteBatchSize, len(keys))]

		objects := make([]s3types.ObjectIdentifier, len(chunk))
		for i, k := range chunk {
			objects[i] = s3types.ObjectIdentifier{Key: aws.String(k)}
		}

		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			s.logger.Warn().
				Err(err).
				Int("keys", len(chunk)).
				Msg("failed to delete photo batch")
			continue
		}
		attempted += len(chunk)
	}

	s.logger.Debug().
		Int("attempted", attempted).
		Int("resolved", len(keys)).
		Msg("deleted photos")
	return attempted
}

// KeyFromURL resolves a stored object URL back to its key. It handles
// virtual-hosted-style ("bucket.s3.<region>.amazonaws.com/key") and
// path-style ("s3.<region>.amazonaws.com/bucket/key") addressing; any
// other host (custom domain, CDN) falls back to the raw path.
func (s *Store) KeyFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	host := strings.ToLower(u.Host)
	p := strings.TrimPrefix(u.Path, "/")
	if p == "" {
		return ""
	}

	if strings.HasPrefix(host, strings.ToLower(s.bucket)+".s3.") {
		return p
	}
	if strings.HasPrefix(p, s.bucket+"/") {
		return strings.TrimPrefix(p, s.bucket+"/")
	}
	return p
}

func (s *Store) objectKey(prefix, ext string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s/%s_%s.%s",
		strings.TrimRight(prefix, "/"),
		time.Now().UTC().Format("20060102_150405"),
		suffix,
		ext,
	)
}

func (s *Store) objectURL(key string) string {
	if s.publicBaseURL != "" {
		return strings.TrimRight(s.publicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
