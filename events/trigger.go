package events

import (
	"context"
	"fmt"
	"log/slog"
)

// TriggerKind selects the operation a trigger message starts.
type TriggerKind string

const (
	TriggerPass     TriggerKind = "pass"
	TriggerBackfill TriggerKind = "backfill"
	TriggerDigest   TriggerKind = "digest"
)

// TriggerRequest is the payload of the trigger topic.
type TriggerRequest struct {
	Kind       TriggerKind `json:"kind"`
	MonthsBack int         `json:"monthsBack,omitempty"`
}

// Triggerable runs the operations a trigger can ask for.
type Triggerable interface {
	TriggerPass(ctx context.Context) error
	TriggerBackfill(ctx context.Context, monthsBack int) error
	TriggerDigest(ctx context.Context) error
}

// NewTriggerHandler routes trigger messages to t. Unknown kinds and bad
// payloads are marked and dropped; failed runs are marked too, since a
// failed pass is retried by the next schedule rather than by redelivery.
func NewTriggerHandler(t Triggerable) *TypedMessageHandler[TriggerRequest] {
	return &TypedMessageHandler[TriggerRequest]{
		AlwaysMark: true,
		Validate: func(msg *TriggerRequest) bool {
			switch msg.Kind {
			case TriggerPass, TriggerBackfill, TriggerDigest:
				return true
			}
			slog.Warn("ignoring trigger with unknown kind", "kind", msg.Kind)
			return false
		},
		Process: func(ctx context.Context, msg *TriggerRequest) error {
			var err error
			switch msg.Kind {
			case TriggerPass:
				err = t.TriggerPass(ctx)
			case TriggerBackfill:
				err = t.TriggerBackfill(ctx, msg.MonthsBack)
			case TriggerDigest:
				err = t.TriggerDigest(ctx)
			}
			if err != nil {
				slog.Error("triggered run failed", "kind", msg.Kind, "error", fmt.Errorf("trigger %s: %w", msg.Kind, err))
			}
			return nil
		},
	}
}
