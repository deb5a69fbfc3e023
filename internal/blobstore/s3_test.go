package blobstore

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeS3 serves path-style GetObject and PutObject for one bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/campaigns/")

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if strings.Contains(r.Header.Get("Content-Encoding"), "aws-chunked") {
			body = decodeAWSChunked(body)
		}
		f.objects[key] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// decodeAWSChunked strips the aws-chunked framing the SDK uses when it
// sends trailing checksums.
func decodeAWSChunked(body []byte) []byte {
	var out bytes.Buffer
	r := bufio.NewReader(bytes.NewReader(body))
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return out.Bytes()
		}
		sizeHex, _, _ := strings.Cut(strings.TrimSpace(line), ";")
		size, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil || size == 0 {
			return out.Bytes()
		}
		if _, err := io.CopyN(&out, r, size); err != nil {
			return out.Bytes()
		}
		r.ReadString('\n')
	}
}

func newTestS3Store(t *testing.T, prefix string) (*S3Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewS3Store(context.Background(), S3Options{
		Bucket:          "campaigns",
		Prefix:          prefix,
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	})
	if err != nil {
		t.Fatalf("NewS3Store() error = %v", err)
	}
	return store, fake
}

func TestS3Store_PutGet(t *testing.T) {
	store, fake := newTestS3Store(t, "starforge")

	doc := []byte(`{"campaigns":[{"id":"X","name":"Y"}]}`)
	if err := store.Put("starforge_local_data_v1", doc); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	fake.mu.Lock()
	stored, ok := fake.objects["starforge/starforge_local_data_v1"]
	fake.mu.Unlock()
	if !ok {
		t.Fatalf("object not stored under prefix; have %v", fake.objects)
	}
	if !bytes.Equal(stored, doc) {
		t.Errorf("stored object = %q, want %q", stored, doc)
	}

	got, err := store.Get("starforge_local_data_v1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, doc) {
		t.Errorf("Get() = %q, want %q", got, doc)
	}
}

func TestS3Store_GetMissing(t *testing.T) {
	store, _ := newTestS3Store(t, "")

	if _, err := store.Get("absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestS3Store_ObjectKey(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "doc"},
		{"starforge", "starforge/doc"},
		{"starforge/", "starforge/doc"},
	}
	for _, tt := range tests {
		s := &S3Store{prefix: tt.prefix}
		if got := s.objectKey("doc"); got != tt.want {
			t.Errorf("objectKey() with prefix %q = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	if _, err := NewS3Store(context.Background(), S3Options{Region: "us-east-1"}); err == nil {
		t.Error("NewS3Store() expected error without bucket")
	}
}
