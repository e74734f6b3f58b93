package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"media-ingest/internal/importer"
	"media-ingest/internal/pipeline"
	"media-ingest/internal/startup"
)

func TestParseIDs(t *testing.T) {
	tests := []struct {
		args    []string
		want    int
		wantErr bool
	}{
		{nil, 0, false},
		{[]string{"1", "22"}, 2, false},
		{[]string{"0"}, 0, true},
		{[]string{"abc"}, 0, true},
	}
	for _, tt := range tests {
		ids, err := parseIDs(tt.args)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseIDs(%v) err = %v, wantErr %v", tt.args, err, tt.wantErr)
		}
		if len(ids) != tt.want {
			t.Errorf("parseIDs(%v) = %v", tt.args, ids)
		}
	}
}

func TestSanitizeCommand(t *testing.T) {
	if got := sanitizeCommand("scan\x1b[2J;rm"); got != "scan__2J_rm" {
		t.Errorf("sanitizeCommand = %q", got)
	}
}

func TestKnownCommand(t *testing.T) {
	for _, c := range []string{"sources", "scan", "download", "items"} {
		if !knownCommand(c) {
			t.Errorf("%s not known", c)
		}
	}
	if knownCommand("reset") {
		t.Error("reset should be unknown")
	}
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	for _, want := range []string{"Usage: ingest", "scan [source...]", "download [id...]"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("usage missing %q", want)
		}
	}
}

func TestFormatStatus(t *testing.T) {
	s := importer.ScanStatus{
		Source:     "files",
		State:      importer.ScanCancelled,
		RawItems:   5,
		Items:      3,
		Thumbnails: &importer.BatchSummary{Completed: 1, Cached: 1, Cancelled: 1},
	}
	want := "files: cancelled, 5 files grouped into 3 items; thumbnails 1 new, 1 cached, 0 failed, 1 cancelled"
	if got := formatStatus(s); got != want {
		t.Errorf("formatStatus = %q\nwant %q", got, want)
	}
}

func openPipeline(t *testing.T) (*pipeline.Pipeline, *startup.Config) {
	t.Helper()
	root := t.TempDir()
	config := &startup.Config{
		MediaDir:         filepath.Join(root, "media"),
		DownloadDir:      filepath.Join(root, "downloads"),
		DatabasePath:     filepath.Join(root, "ingest.db"),
		ThumbnailSize:    32,
		ThumbnailWorkers: 1,
		DownloadWorkers:  1,
	}
	if err := os.MkdirAll(config.MediaDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"IMG_0001.PNG", "IMG_0002.PNG"} {
		f, err := os.Create(filepath.Join(config.MediaDir, name))
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 40, 20))); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
	p, err := pipeline.Open(context.Background(), config)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(p.Close)
	return p, config
}

func TestRunScanDownloadItems(t *testing.T) {
	p, config := openPipeline(t)
	ctx := context.Background()

	var out bytes.Buffer
	if code := run(ctx, p, "sources", nil, &out); code != 0 || strings.TrimSpace(out.String()) != "files" {
		t.Fatalf("sources: code %d output %q", code, out.String())
	}

	out.Reset()
	if code := run(ctx, p, "scan", []string{"files"}, &out); code != 0 {
		t.Fatalf("scan exit code %d", code)
	}
	if !strings.Contains(out.String(), "files: completed, 2 files grouped into 2 items") {
		t.Errorf("scan output %q", out.String())
	}

	out.Reset()
	if code := run(ctx, p, "download", nil, &out); code != 0 {
		t.Fatalf("download exit code %d: %s", code, out.String())
	}
	if !strings.Contains(out.String(), "downloads: 2 new") {
		t.Errorf("download output %q", out.String())
	}
	entries, _ := os.ReadDir(config.DownloadDir)
	if len(entries) != 2 {
		t.Errorf("download dir holds %d entries, want 2", len(entries))
	}

	out.Reset()
	if code := run(ctx, p, "items", nil, &out); code != 0 {
		t.Fatalf("items exit code %d", code)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("items output has %d lines, want header and 2 rows:\n%s", len(lines), out.String())
	}
	for _, line := range lines[1:] {
		if strings.HasSuffix(line, "-") {
			t.Errorf("downloaded item listed as not downloaded: %q", line)
		}
	}
}

func TestRunUnknownSource(t *testing.T) {
	p, _ := openPipeline(t)
	var out bytes.Buffer
	if code := run(context.Background(), p, "scan", []string{"phone"}, &out); code != 1 {
		t.Errorf("exit code %d, want 1", code)
	}
}
