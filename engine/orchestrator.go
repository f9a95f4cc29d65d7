package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/encorelab/encore/audio"
	"github.com/encorelab/encore/logging"
	"github.com/encorelab/encore/scoring"
)

// Status is the processing state of a performance
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Failure messages recorded on the performance
const (
	MsgCancelled    = "Processing cancelled"
	msgFailedPrefix = "Processing failed: "
)

// Performance is the stateful record of one scoring run. The orchestrator
// owns it for the lifetime of the run; collaborators persist snapshots
// through the StateFunc hook.
type Performance struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Progress  uint8     `json:"progress"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Result *ScoringResult `json:"result,omitempty"`
}

// NewPerformance creates a pending performance record
func NewPerformance() *Performance {
	now := time.Now().UTC()
	return &Performance{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// StateFunc observes every state transition of a performance, letting the
// embedding service persist status rows without the core knowing about
// storage
type StateFunc func(p *Performance)

// Orchestrator drives a performance through the
// Pending -> Processing -> Completed/Failed state machine
type Orchestrator struct {
	processor *Processor
	onState   StateFunc
	logger    logging.Logger
}

// NewOrchestrator creates an orchestrator around a processor. onState may
// be nil.
func NewOrchestrator(processor *Processor, onState StateFunc) *Orchestrator {
	if processor == nil {
		processor = NewProcessor()
	}
	return &Orchestrator{
		processor: processor,
		onState:   onState,
		logger: logging.WithFields(logging.Fields{
			"component": "orchestrator",
		}),
	}
}

// Process scores one performance, keeping its status record current. The
// returned performance ends Completed with a result, or Failed with the
// failure message; the error mirrors the failure for callers that branch
// on kind.
func (o *Orchestrator) Process(ctx context.Context, perf *Performance, src audio.Source, ref ReferenceBundle, challenge scoring.ChallengeType, opts ScoreOptions) error {
	logger := o.logger.WithFields(logging.Fields{
		"performance_id": perf.ID,
		"challenge":      string(challenge),
	})

	o.transition(perf, StatusProcessing, 0, "")

	// Interleave caller progress with status updates
	callerProgress := opts.Progress
	opts.Progress = func(progress uint8, message string) {
		o.transition(perf, StatusProcessing, progress, message)
		if callerProgress != nil {
			callerProgress(progress, message)
		}
	}

	result, err := o.processor.ScorePerformance(ctx, src, ref, challenge, opts)
	if err != nil {
		perf.Result = nil
		if KindOf(err) == KindCancelled {
			o.transition(perf, StatusFailed, perf.Progress, MsgCancelled)
		} else {
			o.transition(perf, StatusFailed, perf.Progress, msgFailedPrefix+err.Error())
		}
		logger.Error(err, "Performance processing failed")
		return err
	}

	perf.Result = result
	o.transition(perf, StatusCompleted, 100, MsgCompleted)
	logger.Info("Performance processing completed", logging.Fields{
		"overall_score": result.OverallScore,
	})

	return nil
}

func (o *Orchestrator) transition(perf *Performance, status Status, progress uint8, message string) {
	perf.Status = status
	perf.Progress = progress
	if message != "" {
		perf.Message = message
	}
	perf.UpdatedAt = time.Now().UTC()

	if o.onState != nil {
		o.onState(perf)
	}
}
