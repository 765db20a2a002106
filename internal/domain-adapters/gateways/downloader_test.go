package gateways

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ochairo/specfetch/internal/domain/entities"
)

// fakeSource serves in-memory bodies keyed by URL and records request order
type fakeSource struct {
	bodies   map[string]string
	failures map[string]error
	opened   []string
}

func (f *fakeSource) OpenDownload(_ context.Context, downloadURL string) (io.ReadCloser, error) {
	f.opened = append(f.opened, downloadURL)
	if err := f.failures[downloadURL]; err != nil {
		return nil, err
	}
	body, ok := f.bodies[downloadURL]
	if !ok {
		return nil, entities.NewError(entities.KindTransport, errors.New("unexpected response 404 Not Found"))
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

// brokenBody fails after the first read
type brokenBody struct{ read bool }

func (b *brokenBody) Read(p []byte) (int, error) {
	if b.read {
		return 0, errors.New("connection reset by peer")
	}
	b.read = true
	return copy(p, "partial"), nil
}

func (b *brokenBody) Close() error { return nil }

type brokenSource struct{}

func (brokenSource) OpenDownload(_ context.Context, _ string) (io.ReadCloser, error) {
	return &brokenBody{}, nil
}

func TestDownloader_Prepare_CreatesParents(t *testing.T) {
	d := NewDownloader(&fakeSource{}, nil)
	destDir := filepath.Join(t.TempDir(), "a", "b", "specs")

	if err := d.Prepare(destDir); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if info, err := os.Stat(destDir); err != nil || !info.IsDir() {
		t.Fatalf("destination directory not created: %v", err)
	}

	// Idempotent
	if err := d.Prepare(destDir); err != nil {
		t.Errorf("second Prepare() error = %v", err)
	}
}

func TestDownloader_Prepare_PathIsFile(t *testing.T) {
	d := NewDownloader(&fakeSource{}, nil)
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	err := d.Prepare(filepath.Join(file, "specs"))
	if !entities.IsKind(err, entities.KindFilesystem) {
		t.Errorf("kind = %v, want filesystem (err: %v)", entities.KindOf(err), err)
	}
}

func TestDownloader_DownloadAll_WritesNamedFilesInOrder(t *testing.T) {
	source := &fakeSource{bodies: map[string]string{
		"https://raw.example.test/1": "first",
		"https://raw.example.test/2": "second",
	}}
	d := NewDownloader(source, nil)
	destDir := t.TempDir()

	specs := []*entities.SpecMetadata{
		{Repo: "alpha", File: "spec.yaml", DownloadURL: "https://raw.example.test/1"},
		{Repo: "beta", File: "openapi.json", DownloadURL: "https://raw.example.test/2"},
	}

	written, err := d.DownloadAll(context.Background(), destDir, specs)
	if err != nil {
		t.Fatalf("DownloadAll() error = %v", err)
	}

	want := []string{filepath.Join(destDir, "alpha-spec.yaml"), filepath.Join(destDir, "beta-openapi.json")}
	if len(written) != len(want) || written[0] != want[0] || written[1] != want[1] {
		t.Errorf("written = %v, want %v", written, want)
	}

	data, err := os.ReadFile(want[0])
	if err != nil || string(data) != "first" {
		t.Errorf("alpha-spec.yaml = %q (err %v), want %q", data, err, "first")
	}

	if strings.Join(source.opened, ",") != "https://raw.example.test/1,https://raw.example.test/2" {
		t.Errorf("download order = %v", source.opened)
	}
}

func TestDownloader_DownloadAll_OverwritesExisting(t *testing.T) {
	source := &fakeSource{bodies: map[string]string{"https://raw.example.test/1": "new"}}
	d := NewDownloader(source, nil)
	destDir := t.TempDir()

	existing := filepath.Join(destDir, "alpha-spec.yaml")
	if err := os.WriteFile(existing, []byte("old content that is longer"), 0600); err != nil {
		t.Fatal(err)
	}

	specs := []*entities.SpecMetadata{{Repo: "alpha", File: "spec.yaml", DownloadURL: "https://raw.example.test/1"}}
	if _, err := d.DownloadAll(context.Background(), destDir, specs); err != nil {
		t.Fatalf("DownloadAll() error = %v", err)
	}

	data, _ := os.ReadFile(existing)
	if string(data) != "new" {
		t.Errorf("file content = %q, want %q", data, "new")
	}
}

func TestDownloader_DownloadAll_HaltsOnFailure(t *testing.T) {
	source := &fakeSource{bodies: map[string]string{
		"https://raw.example.test/1": "first",
		"https://raw.example.test/3": "third",
	}}
	d := NewDownloader(source, nil)
	destDir := t.TempDir()

	specs := []*entities.SpecMetadata{
		{Repo: "alpha", File: "a.yaml", DownloadURL: "https://raw.example.test/1"},
		{Repo: "beta", File: "b.yaml", DownloadURL: "https://raw.example.test/2"}, // 404
		{Repo: "gamma", File: "c.yaml", DownloadURL: "https://raw.example.test/3"},
	}

	written, err := d.DownloadAll(context.Background(), destDir, specs)
	if err == nil {
		t.Fatal("DownloadAll() should fail on a non-success response")
	}

	if len(written) != 1 {
		t.Errorf("written = %v, want only the first file", written)
	}
	if len(source.opened) != 2 {
		t.Errorf("opened %d downloads, want 2 (no continuation past failure)", len(source.opened))
	}
	if _, statErr := os.Stat(filepath.Join(destDir, "gamma-c.yaml")); !os.IsNotExist(statErr) {
		t.Error("gamma-c.yaml should not be written after a failure")
	}

	dest := filepath.Join(destDir, "beta-b.yaml")
	if !strings.Contains(err.Error(), "https://raw.example.test/2") || !strings.Contains(err.Error(), dest) {
		t.Errorf("error should name source and destination, got: %v", err)
	}
	if !entities.IsKind(err, entities.KindTransport) {
		t.Errorf("kind = %v, want transport", entities.KindOf(err))
	}
}

func TestDownloader_DownloadAll_StreamErrorLeavesNoPartialFile(t *testing.T) {
	d := NewDownloader(brokenSource{}, nil)
	destDir := t.TempDir()

	specs := []*entities.SpecMetadata{{Repo: "alpha", File: "a.yaml", DownloadURL: "https://raw.example.test/1"}}
	_, err := d.DownloadAll(context.Background(), destDir, specs)
	if err == nil {
		t.Fatal("DownloadAll() should fail on a stream error")
	}
	if !entities.IsKind(err, entities.KindTransport) {
		t.Errorf("kind = %v, want transport", entities.KindOf(err))
	}

	entries, err := os.ReadDir(destDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("destination should be empty, found %d entries (first %s)", len(entries), entries[0].Name())
	}
}

// mixedSource serves a good body for one URL and a broken stream for every other
type mixedSource struct {
	goodURL string
	body    string
}

func (m mixedSource) OpenDownload(_ context.Context, downloadURL string) (io.ReadCloser, error) {
	if downloadURL == m.goodURL {
		return io.NopCloser(strings.NewReader(m.body)), nil
	}
	return &brokenBody{}, nil
}

func TestDownloader_DownloadAll_FailedOverwriteKeepsCompletedFile(t *testing.T) {
	d := NewDownloader(mixedSource{goodURL: "https://raw.example.test/v1", body: "good"}, nil)
	destDir := t.TempDir()

	// Both specs land on alpha-spec.yaml; the second stream breaks mid-way
	specs := []*entities.SpecMetadata{
		{Repo: "alpha", Path: "v1/spec.yaml", File: "spec.yaml", DownloadURL: "https://raw.example.test/v1"},
		{Repo: "alpha", Path: "v2/spec.yaml", File: "spec.yaml", DownloadURL: "https://raw.example.test/v2"},
	}

	written, err := d.DownloadAll(context.Background(), destDir, specs)
	if err == nil {
		t.Fatal("DownloadAll() should fail on the broken stream")
	}
	if len(written) != 1 {
		t.Fatalf("written = %v, want the first file only", written)
	}

	data, err := os.ReadFile(written[0])
	if err != nil {
		t.Fatalf("completed file was lost: %v", err)
	}
	if string(data) != "good" {
		t.Errorf("content = %q, want %q", data, "good")
	}
}

func TestDownloader_DownloadAll_FailureKeepsPreviousRunFile(t *testing.T) {
	d := NewDownloader(brokenSource{}, nil)
	destDir := t.TempDir()

	existing := filepath.Join(destDir, "alpha-a.yaml")
	if err := os.WriteFile(existing, []byte("from last run"), 0600); err != nil {
		t.Fatal(err)
	}

	specs := []*entities.SpecMetadata{{Repo: "alpha", File: "a.yaml", DownloadURL: "https://raw.example.test/1"}}
	if _, err := d.DownloadAll(context.Background(), destDir, specs); err == nil {
		t.Fatal("DownloadAll() should fail on a stream error")
	}

	data, err := os.ReadFile(existing)
	if err != nil || string(data) != "from last run" {
		t.Errorf("existing file = %q (err %v), want it untouched", data, err)
	}
}

func TestDownloader_DownloadAll_CanceledContext(t *testing.T) {
	source := &fakeSource{bodies: map[string]string{"https://raw.example.test/1": "x"}}
	d := NewDownloader(source, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	specs := []*entities.SpecMetadata{{Repo: "alpha", File: "a.yaml", DownloadURL: "https://raw.example.test/1"}}
	if _, err := d.DownloadAll(ctx, t.TempDir(), specs); err == nil {
		t.Fatal("DownloadAll() should fail on a canceled context")
	}
	if len(source.opened) != 0 {
		t.Errorf("opened %d downloads after cancel, want 0", len(source.opened))
	}
}
