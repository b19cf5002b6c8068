package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testFetcher() *Fetcher {
	return NewFetcher(&FetcherConfig{
		Timeout:    5 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		MaxBytes:   1 << 20,
	})
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("audio-bytes"))
	}))
	defer srv.Close()

	data, err := testFetcher().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch error = %v", err)
	}
	if string(data) != "audio-bytes" {
		t.Errorf("body = %q, want audio-bytes", data)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestFetchRetriesNotFound(t *testing.T) {
	t.Parallel()

	// Providers publish recordings with a delay, so 404 is retried
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()

	data, err := testFetcher().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch error = %v", err)
	}
	if string(data) != "late" {
		t.Errorf("body = %q, want late", data)
	}
}

func TestFetchFailsFastOnClientError(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := testFetcher().Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("Fetch of forbidden URL returned nil error")
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on 403)", got)
	}
}

func TestFetchGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := testFetcher().Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("Fetch returned nil error after persistent failures")
	}
	if got := attempts.Load(); got != 4 {
		t.Errorf("attempts = %d, want 4 (initial + 3 retries)", got)
	}
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewFetcher(&FetcherConfig{
		Timeout:    time.Second,
		MaxRetries: 5,
		RetryDelay: time.Minute, // would block without cancellation
		MaxBytes:   1 << 20,
	})

	done := make(chan error, 1)
	go func() {
		_, err := fetcher.Fetch(ctx, srv.URL)
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Fetch with canceled context returned nil error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not return promptly after context cancellation")
	}
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	fetcher := NewFetcher(&FetcherConfig{
		Timeout:    time.Second,
		MaxRetries: 0,
		RetryDelay: time.Millisecond,
		MaxBytes:   1024,
	})

	if _, err := fetcher.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("oversized body fetched without error")
	}
}
