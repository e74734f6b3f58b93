package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"media-ingest/internal/events"
	"media-ingest/internal/importer"
	"media-ingest/internal/pipeline"
	"media-ingest/internal/startup"
)

const listLimit = 1000

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]

	if command == "help" || command == "-h" || command == "--help" {
		printUsage(os.Stdout)
		return
	}
	if !knownCommand(command) {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage(os.Stderr)
		os.Exit(1)
	}

	// Keep tool output readable unless a level was asked for.
	if os.Getenv("LOG_LEVEL") == "" {
		os.Setenv("LOG_LEVEL", "warn")
	}
	config, err := startup.LoadToolConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, err := pipeline.Open(ctx, config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, cancelling...")
		cancel()
		p.Importer.CancelAll()
	}()

	code := run(ctx, p, command, args, os.Stdout)
	p.Close()
	os.Exit(code)
}

func knownCommand(command string) bool {
	switch command {
	case "sources", "scan", "download", "items":
		return true
	}
	return false
}

func run(ctx context.Context, p *pipeline.Pipeline, command string, args []string, out io.Writer) int {
	switch command {
	case "sources":
		for _, name := range p.Sources.Names() {
			fmt.Fprintln(out, name)
		}
		return 0
	case "scan":
		if _, err := scan(ctx, p, args, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	case "download":
		return download(ctx, p, args, out)
	case "items":
		source := ""
		if len(args) > 0 {
			source = args[0]
		}
		return listItems(ctx, p, source, out)
	}
	return 1
}

// scan scans the named sources, or every source, printing one summary line
// per source.
func scan(ctx context.Context, p *pipeline.Pipeline, names []string, out io.Writer) ([]importer.ScanStatus, error) {
	if len(names) == 0 {
		names = p.Sources.Names()
	}

	progress := newProgress(p.Hub, out)
	defer progress.stop()

	var statuses []importer.ScanStatus
	for _, name := range names {
		progress.setLabel(name)
		status, err := p.Importer.Scan(ctx, name)
		progress.clear()
		if err != nil {
			if errors.Is(err, importer.ErrUnknownSource) {
				return statuses, fmt.Errorf("unknown source %q (have %s)", name, strings.Join(p.Sources.Names(), ", "))
			}
			if ctx.Err() == nil {
				return statuses, fmt.Errorf("scan %s: %w", name, err)
			}
		}
		statuses = append(statuses, status)
		fmt.Fprintln(out, formatStatus(status))
		if ctx.Err() != nil {
			return statuses, ctx.Err()
		}
	}
	return statuses, nil
}

func formatStatus(s importer.ScanStatus) string {
	line := fmt.Sprintf("%s: %s, %d files grouped into %d items", s.Source, s.State, s.RawItems, s.Items)
	if t := s.Thumbnails; t != nil {
		line += fmt.Sprintf("; thumbnails %d new, %d cached, %d failed", t.Completed, t.Cached, t.Failed)
		if t.Cancelled > 0 {
			line += fmt.Sprintf(", %d cancelled", t.Cancelled)
		}
	}
	if s.Error != "" {
		line += " (" + s.Error + ")"
	}
	return line
}

// download scans every source so items are known, then downloads the given
// ids or everything.
func download(ctx context.Context, p *pipeline.Pipeline, args []string, out io.Writer) int {
	ids, err := parseIDs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if _, err := scan(ctx, p, nil, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	progress := newProgress(p.Hub, out)
	progress.setLabel("download")
	summary, err := p.Importer.Download(ctx, ids)
	progress.stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "downloads: %d new, %d already present, %d failed, %d cancelled -> %s\n",
		summary.Completed, summary.Cached, summary.Failed, summary.Cancelled, p.Downloads.Dir())
	if summary.Failed > 0 || summary.Cancelled > 0 {
		return 2
	}
	return 0
}

func parseIDs(args []string) ([]int64, error) {
	var ids []int64
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid item id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func listItems(ctx context.Context, p *pipeline.Pipeline, source string, out io.Writer) int {
	records, err := p.DB.ListItems(ctx, source, listLimit, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tDAY\tNAME\tKIND\tDOWNLOADED")
	for _, r := range records {
		downloaded := "-"
		if r.DownloadedAt != nil {
			downloaded = r.DownloadedAt.Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Source, r.CaptureDay, r.OriginalName, r.Composition(), downloaded)
	}
	if err := tw.Flush(); err != nil {
		return 1
	}
	return 0
}

// progress redraws a single status line from availability events when out
// is a terminal.
type progress struct {
	out    io.Writer
	width  int
	enable bool
	cancel func()
	done   chan struct{}

	mu     sync.Mutex
	label  string
	counts map[string]int
}

func newProgress(hub *events.Hub, out io.Writer) *progress {
	pr := &progress{out: out, counts: make(map[string]int), done: make(chan struct{})}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pr.enable = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			pr.width = w
		}
	}
	ch, cancel := hub.Subscribe()
	pr.cancel = cancel
	go func() {
		defer close(pr.done)
		for ev := range ch {
			pr.mu.Lock()
			pr.counts[ev.Kind]++
			pr.draw()
			pr.mu.Unlock()
		}
	}()
	return pr
}

func (pr *progress) setLabel(label string) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.label = label
	pr.counts = make(map[string]int)
	pr.draw()
}

func (pr *progress) line() string {
	line := fmt.Sprintf("%s: %d thumbnails, %d downloads", pr.label, pr.counts["thumbnail"], pr.counts["download"])
	if pr.width > 1 && len(line) >= pr.width {
		line = line[:pr.width-1]
	}
	return line
}

// draw must be called with mu held.
func (pr *progress) draw() {
	if pr.enable {
		fmt.Fprintf(pr.out, "\r\033[K%s", pr.line())
	}
}

func (pr *progress) clear() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.enable {
		fmt.Fprint(pr.out, "\r\033[K")
	}
}

func (pr *progress) stop() {
	pr.cancel()
	<-pr.done
	pr.clear()
}

// sanitizeCommand replaces everything but [a-zA-Z0-9_-] so the command can
// be echoed safely.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Media Ingest")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: ingest <command> [args]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  sources              - List the available sources")
	fmt.Fprintln(w, "  scan [source...]     - Scan sources and cache thumbnails")
	fmt.Fprintln(w, "  download [id...]     - Scan, then download the given items or all of them")
	fmt.Fprintln(w, "  items [source]       - List persisted items")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MEDIA_DIR, CAMERA_DIR, LIBRARY_EXPORT, DATABASE_DIR, CACHE_DIR, DOWNLOAD_DIR")
	fmt.Fprintln(w, "  LOG_LEVEL (default warn), ENV_FILE (default .env)")
}
