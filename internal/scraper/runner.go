package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/marketplace-scraper/internal/config"
	"github.com/maltedev/marketplace-scraper/internal/exporter"
	"github.com/maltedev/marketplace-scraper/internal/metrics"
	"github.com/maltedev/marketplace-scraper/internal/notify"
	"github.com/maltedev/marketplace-scraper/internal/server"
)

const (
	StatusCompleted   = "completed"
	StatusWriteFailed = "write_failed"
	StatusFailed      = "failed"
)

// Runner processes keywords one after another. Every keyword gets its own
// session and its own output file.
type Runner struct {
	sessions        SessionFactory
	crawler         Crawler
	publisher       Publisher
	metrics         *metrics.Metrics
	progress        *server.Progress
	output          config.OutputConfig
	continueOnError bool
	logger          *slog.Logger
}

// NewRunner wires a runner. publisher, m and progress may be nil.
func NewRunner(cfg *config.Config, sessions SessionFactory, crawler Crawler, publisher Publisher, m *metrics.Metrics, progress *server.Progress, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		sessions:        sessions,
		crawler:         crawler,
		publisher:       publisher,
		metrics:         m,
		progress:        progress,
		output:          cfg.Output,
		continueOnError: cfg.Crawl.ContinueOnError,
		logger:          logger.With("component", "runner"),
	}
}

func (r *Runner) Run(ctx context.Context, keywords []string) error {
	runID := uuid.New().String()
	logger := r.logger.With("run_id", runID)

	if r.progress != nil {
		r.progress.KeywordsTotal.Store(int32(len(keywords)))
	}

	logger.Info("starting batch", "keywords", len(keywords))

	var failed []string
	written := make(map[string]string, len(keywords))
	for _, keyword := range keywords {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := OutputPath(r.output.Dir, r.output.FilePattern, keyword)
		if previous, ok := written[path]; ok {
			logger.Warn("skipping keyword, its result file is already taken",
				"keyword", keyword, "previous_keyword", previous, "file", path)
			continue
		}
		written[path] = keyword

		if err := r.runKeyword(ctx, runID, keyword); err != nil {
			if !r.continueOnError || errors.Is(err, context.Canceled) {
				return fmt.Errorf("keyword %q: %w", keyword, err)
			}
			logger.Error("keyword failed, continuing", "keyword", keyword, "error", err)
			failed = append(failed, keyword)
		}
	}

	if len(failed) > 0 {
		logger.Warn("batch finished with failures", "failed", failed)
	} else {
		logger.Info("batch finished")
	}

	return nil
}

func (r *Runner) runKeyword(ctx context.Context, runID, keyword string) error {
	start := time.Now()
	logger := r.logger.With("run_id", runID, "keyword", keyword)

	if r.progress != nil {
		r.progress.SetCurrent(keyword)
	}

	session, err := r.sessions.NewSession()
	if err != nil {
		r.finish(ctx, runID, keyword, "", 0, StatusFailed, err, start)
		return fmt.Errorf("failed to open session: %w", err)
	}

	records, crawlErr := r.crawler.Crawl(ctx, session, keyword)

	path := OutputPath(r.output.Dir, r.output.FilePattern, keyword)
	status := StatusCompleted

	if crawlErr != nil {
		status = StatusFailed
		path = ""
	} else if err := exporter.WriteCSV(path, records); err != nil {
		logger.Error("failed to write results", "file", path, "error", err)
		r.metrics.IncError("write")
		status = StatusWriteFailed
	} else {
		logger.Info("results written", "file", path, "records", len(records))
	}

	if err := session.Close(); err != nil {
		logger.Warn("failed to close session", "error", err)
	}

	r.finish(ctx, runID, keyword, path, len(records), status, crawlErr, start)

	return crawlErr
}

func (r *Runner) finish(ctx context.Context, runID, keyword, path string, records int, status string, runErr error, start time.Time) {
	r.metrics.ObserveKeyword(status, time.Since(start))
	if r.progress != nil {
		r.progress.KeywordsDone.Add(1)
	}

	if r.publisher == nil {
		return
	}

	event := &notify.KeywordEvent{
		RunID:      runID,
		Keyword:    keyword,
		OutputFile: path,
		Records:    records,
		Status:     status,
	}
	if runErr != nil {
		event.Error = runErr.Error()
	}

	// Publish even when the batch context is cancelled.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := r.publisher.KeywordCompleted(pubCtx, event); err != nil {
		r.logger.Warn("failed to publish keyword event", "keyword", keyword, "error", err)
	}
}

// pathEscaper percent-encodes path separators and the escape character
// itself, so distinct keywords always map to distinct file names.
var pathEscaper = strings.NewReplacer("%", "%25", "/", "%2F", "\\", "%5C")

// OutputPath is the deterministic result file for keyword.
func OutputPath(dir, pattern, keyword string) string {
	return filepath.Join(dir, fmt.Sprintf(pattern, pathEscaper.Replace(keyword)))
}
