package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const csvBody = "OFFENSE_DESCRIPTION,HOUR,MONTH,YEAR\nARSON,1,3,2023\n"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	return NewClient(Config{
		Timeout:        5 * time.Second,
		MaxRetries:     3,
		RetryDelayBase: time.Millisecond,
		Dir:            t.TempDir(),
	})
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/datasets/crime.csv" {
			t.Errorf("Expected path /datasets/crime.csv, got %s", r.URL.Path)
		}
		w.Write([]byte(csvBody))
	}))
	defer server.Close()

	c := newTestClient(t)
	path, err := c.Download(context.Background(), server.URL+"/datasets/crime.csv")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if filepath.Base(path) != "crime.csv" {
		t.Errorf("Expected file name crime.csv, got %s", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != csvBody {
		t.Errorf("Unexpected body %q", data)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestDownloadStaysInDir(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(csvBody))
	}))
	defer server.Close()

	for _, p := range []string{"/exports/..", "/", ""} {
		c := newTestClient(t)
		got, err := c.Download(context.Background(), server.URL+p)
		if err != nil {
			t.Fatalf("Download(%q) failed: %v", p, err)
		}
		if filepath.Dir(got) != c.dir || filepath.Base(got) != "dataset.csv" {
			t.Errorf("Download(%q) wrote %s, want dataset.csv in %s", p, got, c.dir)
		}
	}
}

func TestDownloadRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(csvBody))
	}))
	defer server.Close()

	c := newTestClient(t)
	if _, err := c.Download(context.Background(), server.URL+"/crime.csv"); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("Expected 3 requests, got %d", got)
	}
}

func TestDownloadGivesUp(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(t)
	_, err := c.Download(context.Background(), server.URL+"/crime.csv")
	if err == nil || !strings.Contains(err.Error(), "max retries exceeded") {
		t.Fatalf("Expected max retries error, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("Expected 3 requests, got %d", got)
	}
}

func TestDownloadClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := newTestClient(t)
	if _, err := c.Download(context.Background(), server.URL+"/missing.csv"); err == nil {
		t.Fatal("Expected error for 404")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected 1 request, got %d", got)
	}
}

func TestResolve(t *testing.T) {
	c := newTestClient(t)
	local := filepath.Join("data", "crime.csv")
	got, err := c.Resolve(context.Background(), local)
	if err != nil || got != local {
		t.Errorf("Resolve(%q) = %q, %v", local, got, err)
	}

	tests := []struct {
		in   string
		want bool
	}{
		{"https://data.boston.gov/crime.csv", true},
		{"HTTP://example.com/a.xlsx", true},
		{"./data/crime.csv", false},
		{"ftp://example.com/a.csv", false},
	}
	for _, tt := range tests {
		if got := IsRemote(tt.in); got != tt.want {
			t.Errorf("IsRemote(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
