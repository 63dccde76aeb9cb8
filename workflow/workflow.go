package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stockbot/orchestrator"
	"stockbot/state"
	"stockbot/types"
)

// ErrBusy is returned when a run of the same kind is already in progress.
var ErrBusy = errors.New("a run of this kind is already in progress")

// ErrPartial marks a backfill where some windows failed and the others were
// still aggregated.
var ErrPartial = errors.New("partial results")

// Pipeline is the orchestration core driven by the runner.
type Pipeline interface {
	RunIngestionPass(ctx context.Context, account string, maxItems int) (*orchestrator.PassResult, error)
	RunBackfill(ctx context.Context, account string, monthsBack int) (*orchestrator.BackfillResult, error)
	GenerateDigest(ctx context.Context, handle string) (*types.Digest, error)
	GenerateDigestIfDue(ctx context.Context, handle string) (*types.Digest, orchestrator.DigestDecision, error)
}

// Archiver copies produced artifacts to long-term storage. *common.Archiver implements it.
type Archiver interface {
	ArchiveDigest(ctx context.Context, d *types.Digest) (string, error)
	ArchiveReport(ctx context.Context, kind, runID string, at time.Time, report any) (string, error)
}

type noopArchiver struct{}

func (noopArchiver) ArchiveDigest(context.Context, *types.Digest) (string, error) { return "", nil }

func (noopArchiver) ArchiveReport(context.Context, string, string, time.Time, any) (string, error) {
	return "", nil
}

// Options configures a Runner.
type Options struct {
	Handle   string
	MaxItems int
	Archiver Archiver // Optional
}

// Runner executes trigger-facing operations, records them in the state
// manager and converts failures into structured outcomes.
type Runner struct {
	pipeline     Pipeline
	stateManager *state.Manager
	archiver     Archiver
	handle       string
	maxItems     int
}

func NewRunner(pipeline Pipeline, stateManager *state.Manager, opts Options) *Runner {
	if opts.Archiver == nil {
		opts.Archiver = noopArchiver{}
	}
	return &Runner{
		pipeline:     pipeline,
		stateManager: stateManager,
		archiver:     opts.Archiver,
		handle:       opts.Handle,
		maxItems:     opts.MaxItems,
	}
}

// Outcome is the common part of every run result.
type Outcome struct {
	Success bool   `json:"success"`
	RunID   string `json:"runId,omitempty"`
	Error   string `json:"error,omitempty"`

	err error
}

// Err returns the underlying failure, or nil on success.
func (o Outcome) Err() error {
	return o.err
}

func (o *Outcome) fail(err error) {
	o.Success = false
	o.err = err
	o.Error = err.Error()
}

// PassOutcome is the result of RunPass.
type PassOutcome struct {
	Outcome
	Message   string                    `json:"message,omitempty"`
	Fetched   int                       `json:"fetched"`
	Processed int                       `json:"processed"`
	Catalysts int                       `json:"catalysts"`
	Results   []orchestrator.PostResult `json:"results"`
}

// BackfillOutcome is the result of RunBackfill.
type BackfillOutcome struct {
	Outcome
	*orchestrator.BackfillResult
	ArchiveKey string `json:"archiveKey,omitempty"`
}

// DigestOutcome is the result of RunDigest.
type DigestOutcome struct {
	Outcome
	Digest     *types.Digest `json:"digest,omitempty"`
	ArchiveKey string        `json:"archiveKey,omitempty"`
}

// ScheduledOutcome is the result of RunScheduled.
type ScheduledOutcome struct {
	Outcome
	Pass     PassOutcome                  `json:"scrape"`
	Decision *orchestrator.DigestDecision `json:"decision,omitempty"`
	Digest   *DigestOutcome               `json:"digest"`
}

// detach keeps a run going after its caller stops waiting. Posts ledgered by
// a pass must finish enrichment. Per-call timeouts inside the pipeline still
// apply.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func (r *Runner) begin(kind state.RunKind) (string, error) {
	id, ok := r.stateManager.TryBegin(kind)
	if !ok {
		return "", fmt.Errorf("%s: %w", kind, ErrBusy)
	}
	return id, nil
}

// RunPass runs one ingestion pass over the monitored account.
func (r *Runner) RunPass(ctx context.Context) PassOutcome {
	ctx = detach(ctx)
	out := PassOutcome{Results: []orchestrator.PostResult{}}
	id, err := r.begin(state.KindPass)
	if err != nil {
		out.fail(err)
		return out
	}

	out = r.pass(ctx, out)
	out.RunID = id
	r.stateManager.Finish(id, fmt.Sprintf("processed %d of %d posts, %d catalysts", out.Processed, out.Fetched, out.Catalysts), out.err)
	return out
}

func (r *Runner) pass(ctx context.Context, out PassOutcome) PassOutcome {
	r.stateManager.AddLog(fmt.Sprintf("Fetching up to %d posts from @%s...", r.maxItems, r.handle))

	res, err := r.pipeline.RunIngestionPass(ctx, r.handle, r.maxItems)
	if res != nil {
		out.Fetched, out.Processed, out.Catalysts = res.Fetched, res.Processed, res.Catalysts
		if res.Results != nil {
			out.Results = res.Results
		}
	}
	if err != nil {
		slog.Error("ingestion pass failed", "account", r.handle, "error", err)
		out.fail(err)
		return out
	}

	out.Success = true
	if out.Processed == 0 {
		out.Message = "No new posts"
	} else {
		out.Message = "Pass complete"
	}
	return out
}

// RunBackfill scans monthsBack months of history. Success is false when any
// window failed; the aggregation of the other windows is still returned.
func (r *Runner) RunBackfill(ctx context.Context, monthsBack int) BackfillOutcome {
	ctx = detach(ctx)
	var out BackfillOutcome
	id, err := r.begin(state.KindBackfill)
	if err != nil {
		out.fail(err)
		return out
	}
	out.RunID = id

	monthsBack = orchestrator.ClampMonthsBack(monthsBack)
	r.stateManager.AddLog(fmt.Sprintf("Backfilling %d months of @%s...", monthsBack, r.handle))

	res, err := r.pipeline.RunBackfill(ctx, r.handle, monthsBack)
	out.BackfillResult = res
	switch {
	case err != nil:
		slog.Error("backfill failed", "account", r.handle, "error", err)
		out.fail(err)
	case res != nil && len(res.FailedWindows) > 0:
		out.fail(fmt.Errorf("%d of %d windows failed: %w", len(res.FailedWindows), res.MonthsBack, ErrPartial))
	default:
		out.Success = true
	}

	summary := ""
	if res != nil {
		key, aerr := r.archiver.ArchiveReport(ctx, "backfill", id, time.Now(), res)
		if aerr != nil {
			slog.Warn("failed to archive backfill report", "run_id", id, "error", aerr)
		}
		out.ArchiveKey = key
		summary = fmt.Sprintf("%d posts, %d new, %d tickers", res.TotalPosts, res.NewPosts, res.UniqueTickers)
	}

	r.stateManager.Finish(id, summary, out.err)
	return out
}

// RunDigest generates a digest now, bypassing the schedule but not the
// minimum-company precondition.
func (r *Runner) RunDigest(ctx context.Context) DigestOutcome {
	ctx = detach(ctx)
	var out DigestOutcome
	id, err := r.begin(state.KindDigest)
	if err != nil {
		out.fail(err)
		return out
	}

	d, err := r.pipeline.GenerateDigest(ctx, "@"+r.handle)
	out = r.digestOutcome(ctx, out, d, err)
	out.RunID = id
	r.stateManager.Finish(id, digestSummary(out.Digest), out.err)
	return out
}

func (r *Runner) digestOutcome(ctx context.Context, out DigestOutcome, d *types.Digest, err error) DigestOutcome {
	if err != nil {
		var pe *types.PreconditionError
		if errors.As(err, &pe) {
			slog.Info("digest skipped", "reason", pe.Reason)
		} else {
			slog.Error("digest generation failed", "error", err)
		}
		out.fail(err)
		return out
	}

	out.Success = true
	out.Digest = d
	key, aerr := r.archiver.ArchiveDigest(ctx, d)
	if aerr != nil {
		slog.Warn("failed to archive digest", "digest_id", d.ID, "error", aerr)
	}
	out.ArchiveKey = key
	return out
}

// RunScheduled is the periodic tick: one pass, then a digest when due. A
// failed pass does not prevent the digest decision.
func (r *Runner) RunScheduled(ctx context.Context) ScheduledOutcome {
	ctx = detach(ctx)
	var out ScheduledOutcome
	id, err := r.begin(state.KindScheduled)
	if err != nil {
		out.fail(err)
		return out
	}
	out.RunID = id

	out.Pass = r.pass(ctx, PassOutcome{Results: []orchestrator.PostResult{}})

	d, decision, err := r.pipeline.GenerateDigestIfDue(ctx, "@"+r.handle)
	out.Decision = &decision
	if decision.Due || err != nil {
		digest := r.digestOutcome(ctx, DigestOutcome{}, d, err)
		out.Digest = &digest
	}

	switch {
	case out.Pass.err != nil:
		out.fail(out.Pass.err)
	case out.Digest != nil && out.Digest.err != nil:
		out.fail(out.Digest.err)
	default:
		out.Success = true
	}

	summary := fmt.Sprintf("pass processed %d posts", out.Pass.Processed)
	if out.Digest != nil && out.Digest.Digest != nil {
		summary += ", " + digestSummary(out.Digest.Digest)
	}
	r.stateManager.Finish(id, summary, out.err)
	return out
}

func digestSummary(d *types.Digest) string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("digest %d (%d stocks, %d catalysts)", d.ID, d.StockCount, d.CatalystCount)
}

// TriggerPass, TriggerBackfill and TriggerDigest adapt the runner to
// message-driven triggers.
func (r *Runner) TriggerPass(ctx context.Context) error {
	return r.RunPass(ctx).Err()
}

func (r *Runner) TriggerBackfill(ctx context.Context, monthsBack int) error {
	return r.RunBackfill(ctx, monthsBack).Err()
}

func (r *Runner) TriggerDigest(ctx context.Context) error {
	return r.RunDigest(ctx).Err()
}
