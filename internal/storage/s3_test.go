package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

type fakeS3 struct {
	putKeys      []string
	putTypes     []string
	putErr       error
	deleteChunks [][]string
	deleteErrOn  int // 1-based chunk index to fail, 0 for never
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.putKeys = append(f.putKeys, *in.Key)
	f.putTypes = append(f.putTypes, *in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	chunk := make([]string, len(in.Delete.Objects))
	for i, o := range in.Delete.Objects {
		chunk[i] = *o.Key
	}
	f.deleteChunks = append(f.deleteChunks, chunk)
	if f.deleteErrOn == len(f.deleteChunks) {
		return nil, errors.New("chunk failed")
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func newTestStore(client s3Client) *Store {
	return New(zerolog.Nop(), client, "site-photos", "ap-northeast-2", "")
}

func TestUploadSkipsDisallowedExtensions(t *testing.T) {
	fake := &fakeS3{}
	store := newTestStore(fake)

	files := []File{
		{Name: "before.JPG", ContentType: "image/jpeg", Data: strings.NewReader("a")},
		{Name: "notes.pdf", ContentType: "application/pdf", Data: strings.NewReader("b")},
		{Name: "after.png", Data: strings.NewReader("c")},
		{Name: "noext", Data: strings.NewReader("d")},
	}
	results := store.Upload(context.Background(), files, PrefixTasks)

	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	if results[0].URL == "" || results[2].URL == "" {
		t.Errorf("allowed files not uploaded: %+v", results)
	}
	if !results[1].Skipped || !results[3].Skipped {
		t.Errorf("disallowed files not skipped: %+v", results)
	}
	if len(fake.putKeys) != 2 {
		t.Fatalf("got %d PutObject calls, want 2", len(fake.putKeys))
	}
	// missing content type falls back to octet-stream
	if fake.putTypes[1] != "application/octet-stream" {
		t.Errorf("content type = %q, want application/octet-stream", fake.putTypes[1])
	}
}

func TestUploadKeyFormat(t *testing.T) {
	fake := &fakeS3{}
	store := newTestStore(fake)

	store.Upload(context.Background(), []File{
		{Name: "photo.webp", Data: strings.NewReader("x")},
	}, PrefixResults)

	if len(fake.putKeys) != 1 {
		t.Fatalf("got %d PutObject calls, want 1", len(fake.putKeys))
	}
	pattern := regexp.MustCompile(`^results/\d{8}_\d{6}_[0-9a-f]{12}\.webp$`)
	if !pattern.MatchString(fake.putKeys[0]) {
		t.Errorf("key %q does not match %s", fake.putKeys[0], pattern)
	}
}

func TestUploadSwallowsTransportErrors(t *testing.T) {
	fake := &fakeS3{putErr: errors.New("connection reset")}
	store := newTestStore(fake)

	results := store.Upload(context.Background(), []File{
		{Name: "a.jpg", Data: strings.NewReader("x")},
	}, PrefixTasks)

	if results[0].Err == nil {
		t.Error("expected a recorded per-file error")
	}
	if urls := SavedURLs(results); len(urls) != 0 {
		t.Errorf("SavedURLs = %v, want empty", urls)
	}
}

func TestKeyFromURL(t *testing.T) {
	store := newTestStore(&fakeS3{})

	cases := []struct {
		url, want string
	}{
		// virtual-hosted style
		{"https://site-photos.s3.ap-northeast-2.amazonaws.com/tasks/x.jpg", "tasks/x.jpg"},
		{"https://site-photos.s3.amazonaws.com/tasks/x.jpg", "tasks/x.jpg"},
		// path style
		{"https://s3.ap-northeast-2.amazonaws.com/site-photos/results/y.png", "results/y.png"},
		{"https://s3.amazonaws.com/site-photos/results/y.png", "results/y.png"},
		// signed URL query strings are ignored
		{"https://site-photos.s3.ap-northeast-2.amazonaws.com/tasks/x.jpg?X-Amz-Signature=abc", "tasks/x.jpg"},
		// custom domain falls back to the raw path
		{"https://cdn.example.com/tasks/z.gif", "tasks/z.gif"},
		// nothing to resolve
		{"https://cdn.example.com/", ""},
	}
	for _, c := range cases {
		if got := store.KeyFromURL(c.url); got != c.want {
			t.Errorf("KeyFromURL(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestDeleteDeduplicatesAndChunks(t *testing.T) {
	fake := &fakeS3{}
	store := newTestStore(fake)

	urls := make([]string, 0, 1503)
	for i := 0; i < 1500; i++ {
		urls = append(urls, fmt.Sprintf("https://site-photos.s3.ap-northeast-2.amazonaws.com/tasks/%d.jpg", i))
	}
	// duplicates and blanks must not inflate the batch
	urls = append(urls, urls[0], "", "  ")

	attempted := store.Delete(context.Background(), urls)

	if attempted != 1500 {
		t.Errorf("attempted = %d, want 1500", attempted)
	}
	if len(fake.deleteChunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(fake.deleteChunks))
	}
	if len(fake.deleteChunks[0]) != 1000 || len(fake.deleteChunks[1]) != 500 {
		t.Errorf("chunk sizes = %d, %d, want 1000, 500",
			len(fake.deleteChunks[0]), len(fake.deleteChunks[1]))
	}
}

func TestDeleteSkipsFailedChunks(t *testing.T) {
	fake := &fakeS3{deleteErrOn: 1}
	store := newTestStore(fake)

	urls := make([]string, 0, 1100)
	for i := 0; i < 1100; i++ {
		urls = append(urls, fmt.Sprintf("https://site-photos.s3.ap-northeast-2.amazonaws.com/tasks/%d.jpg", i))
	}

	attempted := store.Delete(context.Background(), urls)

	// first chunk of 1000 fails and is not retried; second succeeds
	if attempted != 100 {
		t.Errorf("attempted = %d, want 100", attempted)
	}
	if len(fake.deleteChunks) != 2 {
		t.Errorf("got %d chunks, want 2", len(fake.deleteChunks))
	}
}

func TestDeleteEmptyInput(t *testing.T) {
	fake := &fakeS3{}
	store := newTestStore(fake)

	if got := store.Delete(context.Background(), nil); got != 0 {
		t.Errorf("attempted = %d, want 0", got)
	}
	if len(fake.deleteChunks) != 0 {
		t.Errorf("DeleteObjects called %d times, want 0", len(fake.deleteChunks))
	}
}
