package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
	nodex "github.com/tanpawarit/meal-planner-agent/agent/nodes"
	statex "github.com/tanpawarit/meal-planner-agent/agent/state"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	MaxAttempts       = statex.MaxAttempts
	RejectionFeedback = nodex.RejectionFeedback
)

const tracerName = "github.com/tanpawarit/meal-planner-agent/agent/agents/orchestrator"

type RunResult struct {
	RunID    string
	Plan     contractx.WeeklyPlan
	Outcome  contractx.Outcome
	Attempts int
	// Critique is the last verdict, nil when no draft reached review.
	Critique        *contractx.Critique
	MemoryCommitted bool
	History         []statex.AttemptRecord
}

type Option func(*Orchestrator)

func WithFeedbackThreading(enabled bool) Option {
	return func(o *Orchestrator) {
		o.threadCritique = enabled
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// Orchestrator drives the draft/review loop. It holds no per-run state, so
// concurrent Run calls are safe as long as the collaborators are.
type Orchestrator struct {
	generator contractx.PlanGenerator
	critic    contractx.PlanCritic
	memory    contractx.PlanMemory

	attemptRunner compose.Runnable[*nodex.GraphState, *nodex.GraphState]

	threadCritique bool
	tracer         trace.Tracer
	now            func() time.Time
}

func New(
	generator contractx.PlanGenerator,
	critic contractx.PlanCritic,
	memory contractx.PlanMemory,
	opts ...Option,
) (*Orchestrator, error) {
	if generator == nil {
		return nil, errors.New("plan generator is required")
	}
	if critic == nil {
		return nil, errors.New("plan critic is required")
	}
	if memory == nil {
		memory = noopMemory{}
	}

	o := &Orchestrator{
		generator: generator,
		critic:    critic,
		memory:    memory,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	runner, err := o.compileAttemptGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.attemptRunner = runner

	return o, nil
}

// Run produces one weekly plan. An error is returned only when every attempt
// failed to generate; the result then carries an empty plan.
func (o *Orchestrator) Run(ctx context.Context) (RunResult, error) {
	runID := uuid.NewString()
	ctx, span := o.tracer.Start(ctx, "orchestrator.run", trace.WithAttributes(
		attribute.String("run_id", runID),
	))
	defer span.End()

	logger := log.With().Str("run_id", runID).Logger()
	in := &nodex.GraphState{
		Run:            statex.NewRunState(runID, o.now()),
		ThreadCritique: o.threadCritique,
	}

	if _, err := nodex.ReadMemory(ctx, in, o.memory); err != nil {
		return o.fail(span, RunResult{RunID: runID}, err)
	}
	logger.Debug().Bool("has_memory_context", in.Run.MemoryContext != "").Msg("memory context loaded")

	for !in.Run.Phase.Terminal() {
		if err := in.Run.BeginAttempt(); err != nil {
			return o.fail(span, RunResult{RunID: runID}, err)
		}

		actx, aspan := o.tracer.Start(ctx, "orchestrator.attempt", trace.WithAttributes(
			attribute.Int("attempt", in.Run.AttemptNumber),
		))
		out, err := o.attemptRunner.Invoke(actx, in)
		if err != nil {
			aspan.RecordError(err)
			aspan.SetStatus(codes.Error, err.Error())
			aspan.End()
			return o.fail(span, RunResult{RunID: runID, Attempts: in.Run.AttemptNumber}, fmt.Errorf("attempt %d: %w", in.Run.AttemptNumber, err))
		}
		aspan.SetAttributes(attribute.String("phase", string(out.Run.Phase)))
		aspan.End()
		in = out
	}

	committed, err := nodex.CommitPlan(ctx, in, o.memory)
	if err != nil {
		return o.fail(span, RunResult{RunID: runID}, err)
	}

	run := in.Run
	result := RunResult{
		RunID:           runID,
		Plan:            run.FinalPlan.Clone(),
		Outcome:         run.Outcome(),
		Attempts:        run.AttemptNumber,
		Critique:        run.Critique,
		MemoryCommitted: committed,
		History:         run.History,
	}
	span.SetAttributes(
		attribute.String("outcome", string(result.Outcome)),
		attribute.Int("attempts", result.Attempts),
		attribute.Int("meals", len(result.Plan)),
	)

	logger.Info().
		Str("outcome", string(result.Outcome)).
		Int("attempts", result.Attempts).
		Int("meals", len(result.Plan)).
		Bool("memory_committed", committed).
		Dur("elapsed", o.now().Sub(run.StartedAt)).
		Msg("planning run finished")

	if len(result.Plan) == 0 {
		cause := run.LastFailure
		if cause == nil {
			cause = errors.New("no candidate plan")
		}
		err := fmt.Errorf("%w after %d attempts: %w", contractx.ErrPlanExhausted, result.Attempts, cause)
		span.RecordError(err)
		span.SetStatus(codes.Error, "plan exhausted")
		return result, err
	}
	return result, nil
}

func (o *Orchestrator) fail(span trace.Span, result RunResult, err error) (RunResult, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return result, err
}

type noopMemory struct{}

func (noopMemory) RetrieveContext(context.Context, string, int) (string, error) {
	return "", nil
}

func (noopMemory) Save(context.Context, contractx.WeeklyPlan) error {
	return nil
}
