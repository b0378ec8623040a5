// Package testing holds test doubles and file assertions shared across packages.
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/ytplaylists/internal/models"
)

// MockProvider is a test double for [services.VideoProvider] serving fixed metadata.
//
// Every Videos call is recorded in Requested. Err, when set, is returned by both lookups.
type MockProvider struct {
	mu        sync.Mutex
	Metadata  map[string]models.VideoMetadata
	Err       error
	Requested [][]string
}

// NewMockProvider serves the given videos keyed by ID.
func NewMockProvider(videos ...models.VideoMetadata) *MockProvider {
	m := &MockProvider{Metadata: make(map[string]models.VideoMetadata, len(videos))}
	for _, v := range videos {
		m.Metadata[v.ID] = v
	}
	return m
}

func (m *MockProvider) Name() string { return "mock" }

// Search returns every known video whose title contains query, ordered by ID.
func (m *MockProvider) Search(ctx context.Context, query string, max int) ([]models.VideoMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	ids := make([]string, 0, len(m.Metadata))
	for id, v := range m.Metadata {
		if strings.Contains(strings.ToLower(v.Title), strings.ToLower(query)) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]models.VideoMetadata, 0, len(ids))
	for _, id := range ids {
		if max > 0 && len(out) == max {
			break
		}
		out = append(out, m.Metadata[id])
	}
	return out, nil
}

func (m *MockProvider) Videos(ctx context.Context, ids []string) (map[string]models.VideoMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requested = append(m.Requested, append([]string(nil), ids...))
	if m.Err != nil {
		return nil, m.Err
	}

	out := make(map[string]models.VideoMetadata, len(ids))
	for _, id := range ids {
		if v, ok := m.Metadata[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

// Calls returns how many Videos lookups were made.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requested)
}

// FailingTransport is an [http.RoundTripper] that never reaches the network and fails every
// request with Err, counting attempts.
type FailingTransport struct {
	Err      error
	attempts int
	mu       sync.Mutex
}

func NewFailingTransport(err error) *FailingTransport {
	return &FailingTransport{Err: err}
}

func (f *FailingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	return nil, f.Err
}

// Attempts reports how many requests were sent through f.
func (f *FailingTransport) Attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// AssertFileExists fails t unless path is a regular file.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	switch {
	case err != nil:
		t.Errorf("expected export file %s: %v", path, err)
	case info.IsDir():
		t.Errorf("expected %s to be a file, found a directory", path)
	}
}

// AssertDirExists fails t unless path is a directory.
func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	switch {
	case err != nil:
		t.Errorf("expected export directory %s: %v", path, err)
	case !info.IsDir():
		t.Errorf("expected %s to be a directory", path)
	}
}

// MustReadFile returns the contents of path or stops the test.
func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(content)
}
