package pipeline

import (
	"log/slog"
	"time"
)

// progress reports throughput and a naive ETA from the average time per
// document so far.
type progress struct {
	total int
	every int
	start time.Time
}

func newProgress(total, every int, start time.Time) progress {
	return progress{total: total, every: every, start: start}
}

func (p progress) due(done int) bool {
	return p.every > 0 && (done%p.every == 0 || done == p.total)
}

func (p progress) eta(done int, now time.Time) time.Duration {
	if done <= 0 || done >= p.total {
		return 0
	}
	perDoc := now.Sub(p.start) / time.Duration(done)
	return perDoc * time.Duration(p.total-done)
}

func (p progress) log(logger *slog.Logger, done int, s Summary, now time.Time) {
	pct := 0.0
	if p.total > 0 {
		pct = float64(done) * 100 / float64(p.total)
	}
	logger.Info("progress",
		"done", done,
		"total", p.total,
		"percent", int(pct),
		"stored", s.Stored,
		"skipped", s.SkippedCount(),
		"elapsed", now.Sub(p.start).Round(time.Second),
		"eta", p.eta(done, now).Round(time.Second),
	)
}
