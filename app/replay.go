package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/artpar/storagemeter/parser"
	"github.com/artpar/storagemeter/ports"
	"github.com/rs/zerolog"
)

// ErrorPolicy decides what a replay does with a failed line.
type ErrorPolicy string

const (
	// AbortOnError stops the replay at the first failed line. Billing
	// correctness prefers a truncated run over a partially wrong one.
	AbortOnError ErrorPolicy = "abort"
	// SkipOnError reports the failed line and continues.
	SkipOnError ErrorPolicy = "skip"
)

// ReplayOptions configures one replay run.
type ReplayOptions struct {
	OnError ErrorPolicy
	RunID   string
	Reports ports.ReportStore // optional CALC report export
	IDs     ports.IDGenerator // required when Reports is set
	Clock   ports.Clock       // required when Reports is set
}

// ReplayStats summarizes a finished replay.
type ReplayStats struct {
	Lines   int
	Applied int
	Skipped int
	Reports int
}

// Replay reads operation lines from r, applies them to the engine in input
// order, and writes one output line per CALC report to w. Mutating
// operations acknowledge silently; failures follow opts.OnError.
func Replay(ctx context.Context, eng *Engine, r io.Reader, w io.Writer, opts ReplayOptions, logger zerolog.Logger) (ReplayStats, error) {
	if opts.OnError == "" {
		opts.OnError = AbortOnError
	}
	log := logger.With().Str("component", "replay").Str("run", opts.RunID).Logger()

	var stats ReplayStats
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		stats.Lines++

		res, err := applyLine(eng, line)
		if err != nil {
			if opts.OnError == SkipOnError {
				stats.Skipped++
				log.Warn().Int("line", lineNo).Err(err).Msg("line skipped")
				continue
			}
			return stats, fmt.Errorf("line %d: %w", lineNo, err)
		}
		stats.Applied++

		if res.Report == nil {
			continue
		}
		stats.Reports++
		if _, err := fmt.Fprintln(w, res.Report.String()); err != nil {
			return stats, fmt.Errorf("write report: %w", err)
		}
		if opts.Reports != nil {
			if err := exportReport(ctx, opts, res); err != nil {
				return stats, fmt.Errorf("line %d: export report: %w", lineNo, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read input: %w", err)
	}

	log.Info().
		Int("lines", stats.Lines).
		Int("applied", stats.Applied).
		Int("skipped", stats.Skipped).
		Int("reports", stats.Reports).
		Msg("replay finished")
	return stats, nil
}

func applyLine(eng *Engine, line string) (Result, error) {
	rec, err := parser.ParseLine(line)
	if err != nil {
		return Result{}, err
	}
	return eng.Apply(rec)
}

func exportReport(ctx context.Context, opts ReplayOptions, res Result) error {
	rep := res.Report
	return opts.Reports.Save(ctx, ports.ReportRecord{
		ID:             opts.IDs.New(),
		RunID:          opts.RunID,
		UnitID:         rep.UnitID,
		Month:          rep.Month.String(),
		MaxUsageMB:     rep.MaxUsageMB,
		UpdateVolumeMB: rep.UpdateVolumeMB,
		StorageFee:     rep.StorageFee.String(),
		UpdateFee:      rep.UpdateFee.String(),
		UsageFee:       rep.UsageFee.String(),
		CreatedAt:      opts.Clock.Now(),
	})
}
