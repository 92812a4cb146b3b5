package artwork_test

import (
	"context"
	"errors"
	"testing"

	"cadence/internal/artwork"
)

type fakeExtractor struct {
	path  string
	err   error
	calls int
}

func (f *fakeExtractor) ExtractEmbedded(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.path, f.err
}

type fakeFetcher struct {
	path  string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, _, _ string, _ map[string]string, _ string) (string, error) {
	f.calls++
	return f.path, f.err
}

func TestResolveEmbeddedWins(t *testing.T) {
	extractor := &fakeExtractor{path: "/album/cover.jpg"}
	fetcher := &fakeFetcher{path: "/album/fetched.jpg"}
	resolver := artwork.NewResolver(extractor, fetcher, nil)

	got := resolver.Resolve(context.Background(), "/album/01.flac", "/album", "A", "B", nil)
	if got != "/album/cover.jpg" {
		t.Fatalf("expected embedded artwork, got %q", got)
	}
	if fetcher.calls != 0 {
		t.Fatal("fetcher should not run when embedded artwork exists")
	}
}

func TestResolveFallsThroughToFetcher(t *testing.T) {
	extractor := &fakeExtractor{err: errors.New("no artwork atom")}
	fetcher := &fakeFetcher{path: "/album/fetched.jpg"}
	resolver := artwork.NewResolver(extractor, fetcher, nil)

	got := resolver.Resolve(context.Background(), "/album/01.flac", "/album", "A", "B", nil)
	if got != "/album/fetched.jpg" {
		t.Fatalf("expected fetched artwork, got %q", got)
	}
}

func TestResolveExhaustedLeavesUnset(t *testing.T) {
	resolver := artwork.NewResolver(&fakeExtractor{}, &fakeFetcher{err: errors.New("offline")}, nil)
	if got := resolver.Resolve(context.Background(), "/a", "/b", "A", "B", nil); got != "" {
		t.Fatalf("expected unset artwork, got %q", got)
	}
}

func TestResolveNilCollaborators(t *testing.T) {
	resolver := artwork.NewResolver(nil, nil, nil)
	if got := resolver.Resolve(context.Background(), "/a", "/b", "A", "B", nil); got != "" {
		t.Fatalf("expected unset artwork, got %q", got)
	}
}
