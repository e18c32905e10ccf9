package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
	memoryx "github.com/tanpawarit/meal-planner-agent/agent/memory"
)

type draftResult struct {
	plan contractx.WeeklyPlan
	err  error
}

type fakeGenerator struct {
	mu       sync.Mutex
	results  []draftResult
	fallback *draftResult
	requests []contractx.GenerateRequest
}

func (f *fakeGenerator) Draft(ctx context.Context, req contractx.GenerateRequest) (contractx.WeeklyPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	idx := len(f.requests) - 1
	if idx >= len(f.results) {
		if f.fallback != nil {
			return f.fallback.plan, f.fallback.err
		}
		return nil, fmt.Errorf("no draft left at call=%d", len(f.requests))
	}
	return f.results[idx].plan, f.results[idx].err
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeCritic struct {
	mu       sync.Mutex
	verdicts []contractx.Critique
	reviewed []contractx.WeeklyPlan
}

func (f *fakeCritic) Review(ctx context.Context, plan contractx.WeeklyPlan) contractx.Critique {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviewed = append(f.reviewed, plan)
	idx := len(f.reviewed) - 1
	if idx >= len(f.verdicts) {
		return contractx.Critique{Approved: true, Feedback: "fine"}
	}
	return f.verdicts[idx]
}

type fakeMemory struct {
	context string
	readErr error
	saveErr error

	queries []string
	ks      []int
	saved   []contractx.WeeklyPlan
}

func (f *fakeMemory) RetrieveContext(ctx context.Context, query string, k int) (string, error) {
	f.queries = append(f.queries, query)
	f.ks = append(f.ks, k)
	if f.readErr != nil {
		return "", f.readErr
	}
	return f.context, nil
}

func (f *fakeMemory) Save(ctx context.Context, plan contractx.WeeklyPlan) error {
	f.saved = append(f.saved, plan.Clone())
	return f.saveErr
}

func planOf(item string) contractx.WeeklyPlan {
	return contractx.WeeklyPlan{
		{Day: contractx.Monday, Meal: contractx.Breakfast, ItemName: item + " Upma"},
		{Day: contractx.Monday, Meal: contractx.Dinner, ItemName: item + " Curry"},
	}
}

func ok(plan contractx.WeeklyPlan) draftResult { return draftResult{plan: plan} }

func failed(attempt int) draftResult {
	return draftResult{err: &contractx.GenerationFailure{Attempt: attempt, Cause: contractx.ErrOracleTransport}}
}

var (
	approve = contractx.Critique{Approved: true, Feedback: "Good variety."}
	reject  = contractx.Critique{Approved: false, Feedback: "Too much chicken."}
)

func newTestOrchestrator(t *testing.T, gen contractx.PlanGenerator, critic contractx.PlanCritic, memory contractx.PlanMemory, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := New(gen, critic, memory, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

func assertPlan(t *testing.T, got, want contractx.WeeklyPlan) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("plan len = %d, want %d (%#v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("plan[%d] = %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestRunAcceptsFirstAttempt(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{results: []draftResult{ok(planOf("Rava"))}}
	critic := &fakeCritic{verdicts: []contractx.Critique{approve}}
	memory := &fakeMemory{context: "User ate Lemon Rice for LUNCH on FRIDAY"}

	res, err := newTestOrchestrator(t, gen, critic, memory).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if gen.calls() != 1 || len(critic.reviewed) != 1 {
		t.Fatalf("drafts=%d reviews=%d, want 1/1", gen.calls(), len(critic.reviewed))
	}
	if len(memory.saved) != 1 {
		t.Fatalf("saves = %d, want 1", len(memory.saved))
	}
	assertPlan(t, memory.saved[0], planOf("Rava"))
	assertPlan(t, res.Plan, planOf("Rava"))
	if res.Outcome != contractx.OutcomeAccepted || res.Attempts != 1 || !res.MemoryCommitted {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.RunID == "" {
		t.Fatal("run id is empty")
	}
	if res.Critique == nil || res.Critique.Feedback != approve.Feedback {
		t.Fatalf("critique = %#v", res.Critique)
	}

	if len(memory.queries) != 1 || memory.queries[0] != "recent meals" || memory.ks[0] != 3 {
		t.Fatalf("memory queried with %v k=%v", memory.queries, memory.ks)
	}
	first := gen.requests[0]
	if first.MemoryContext != memory.context || first.Feedback != "" || first.Attempt != 1 {
		t.Fatalf("first draft request = %#v", first)
	}
}

func TestRunApprovesThirdAttempt(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{results: []draftResult{ok(planOf("A")), ok(planOf("B")), ok(planOf("C"))}}
	critic := &fakeCritic{verdicts: []contractx.Critique{reject, reject, approve}}
	memory := &fakeMemory{}

	res, err := newTestOrchestrator(t, gen, critic, memory).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if gen.calls() != 3 || len(critic.reviewed) != 3 {
		t.Fatalf("drafts=%d reviews=%d, want 3/3", gen.calls(), len(critic.reviewed))
	}
	if len(memory.saved) != 1 {
		t.Fatalf("saves = %d, want 1", len(memory.saved))
	}
	assertPlan(t, memory.saved[0], planOf("C"))
	assertPlan(t, res.Plan, planOf("C"))
	if res.Outcome != contractx.OutcomeAccepted {
		t.Fatalf("outcome = %s", res.Outcome)
	}

	if gen.requests[0].Feedback != "" {
		t.Fatalf("first attempt must have no feedback, got %q", gen.requests[0].Feedback)
	}
	for _, req := range gen.requests[1:] {
		if req.Feedback != RejectionFeedback {
			t.Fatalf("feedback = %q, want %q", req.Feedback, RejectionFeedback)
		}
	}
	if len(res.History) != 3 {
		t.Fatalf("history = %#v", res.History)
	}
}

func TestRunReturnsBestEffortWhenAllRejected(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{results: []draftResult{ok(planOf("A")), ok(planOf("B")), ok(planOf("C"))}}
	critic := &fakeCritic{verdicts: []contractx.Critique{reject, reject, reject}}
	memory := &fakeMemory{}

	res, err := newTestOrchestrator(t, gen, critic, memory).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Outcome != contractx.OutcomeExhausted || res.Attempts != MaxAttempts {
		t.Fatalf("unexpected result: %+v", res)
	}
	assertPlan(t, res.Plan, planOf("C"))
	if len(memory.saved) != 1 {
		t.Fatalf("saves = %d, want 1", len(memory.saved))
	}
	assertPlan(t, memory.saved[0], planOf("C"))
	if res.Critique == nil || res.Critique.Approved {
		t.Fatalf("critique = %#v", res.Critique)
	}
}

func TestRunGenerationFailureEveryAttempt(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{results: []draftResult{failed(1), failed(2), failed(3)}}
	critic := &fakeCritic{}
	memory := &fakeMemory{}

	res, err := newTestOrchestrator(t, gen, critic, memory).Run(context.Background())
	if !errors.Is(err, contractx.ErrPlanExhausted) {
		t.Fatalf("Run() error = %v, want ErrPlanExhausted", err)
	}
	var failure *contractx.GenerationFailure
	if !errors.As(err, &failure) || failure.Attempt != 3 {
		t.Fatalf("error must carry the last GenerationFailure, got %v", err)
	}
	if !errors.Is(err, contractx.ErrOracleTransport) {
		t.Fatalf("error must carry the root cause, got %v", err)
	}

	if len(res.Plan) != 0 || res.Outcome != contractx.OutcomeExhausted {
		t.Fatalf("unexpected result: %+v", res)
	}
	if gen.calls() != 3 || len(critic.reviewed) != 0 {
		t.Fatalf("drafts=%d reviews=%d, want 3/0", gen.calls(), len(critic.reviewed))
	}
	if len(memory.saved) != 0 || res.MemoryCommitted {
		t.Fatalf("save must never be called, got %d", len(memory.saved))
	}
	for _, req := range gen.requests {
		if req.Feedback != "" {
			t.Fatalf("generation failures must not produce feedback, got %q", req.Feedback)
		}
	}
}

func TestRunWrapsPlainGeneratorErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	gen := &fakeGenerator{fallback: &draftResult{err: boom}}

	_, err := newTestOrchestrator(t, gen, &fakeCritic{}, &fakeMemory{}).Run(context.Background())
	var failure *contractx.GenerationFailure
	if !errors.As(err, &failure) || failure.Attempt != 3 || !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestRunRecoversAfterGenerationFailure(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{results: []draftResult{failed(1), ok(planOf("B"))}}
	critic := &fakeCritic{verdicts: []contractx.Critique{approve}}
	memory := &fakeMemory{}

	res, err := newTestOrchestrator(t, gen, critic, memory).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Attempts != 2 || len(critic.reviewed) != 1 {
		t.Fatalf("attempts=%d reviews=%d", res.Attempts, len(critic.reviewed))
	}
	if gen.requests[1].Feedback != "" {
		t.Fatalf("feedback after a failure = %q, want empty", gen.requests[1].Feedback)
	}
	assertPlan(t, res.Plan, planOf("B"))
}

func TestRunFinalGenerationFailureAfterRejectionsReturnsEmptyPlan(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{results: []draftResult{ok(planOf("A")), ok(planOf("B")), failed(3)}}
	critic := &fakeCritic{verdicts: []contractx.Critique{reject, reject}}
	memory := &fakeMemory{}

	res, err := newTestOrchestrator(t, gen, critic, memory).Run(context.Background())
	if !errors.Is(err, contractx.ErrPlanExhausted) {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Plan) != 0 || len(memory.saved) != 0 {
		t.Fatalf("plan=%#v saves=%d", res.Plan, len(memory.saved))
	}
	if gen.requests[2].Feedback != RejectionFeedback {
		t.Fatalf("third request feedback = %q", gen.requests[2].Feedback)
	}
}

func TestRunBoundedAttemptsForAnyVerdictSequence(t *testing.T) {
	t.Parallel()

	for mask := 0; mask < 1<<MaxAttempts; mask++ {
		verdicts := make([]contractx.Critique, 0, MaxAttempts+2)
		for i := 0; i < MaxAttempts; i++ {
			verdicts = append(verdicts, contractx.Critique{Approved: mask&(1<<i) != 0})
		}
		verdicts = append(verdicts, reject, reject)

		gen := &fakeGenerator{fallback: &draftResult{plan: planOf("X")}}
		critic := &fakeCritic{verdicts: verdicts}
		memory := &fakeMemory{}

		res, err := newTestOrchestrator(t, gen, critic, memory).Run(context.Background())
		if err != nil {
			t.Fatalf("mask=%b Run() error = %v", mask, err)
		}
		if gen.calls() > MaxAttempts || res.Attempts > MaxAttempts {
			t.Fatalf("mask=%b drafts=%d, want <= %d", mask, gen.calls(), MaxAttempts)
		}
		if len(memory.saved) != 1 {
			t.Fatalf("mask=%b saves=%d, want exactly 1", mask, len(memory.saved))
		}
		assertPlan(t, memory.saved[0], res.Plan)
	}
}

func TestRunToleratesMemoryReadFailure(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{results: []draftResult{ok(planOf("A"))}}
	memory := &fakeMemory{context: "ignored", readErr: contractx.ErrMemoryUnavailable}

	res, err := newTestOrchestrator(t, gen, &fakeCritic{}, memory).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if gen.requests[0].MemoryContext != "" {
		t.Fatalf("memory context = %q, want empty", gen.requests[0].MemoryContext)
	}
	assertPlan(t, res.Plan, planOf("A"))
}

func TestRunReturnsPlanWhenMemoryWriteFails(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{results: []draftResult{ok(planOf("A"))}}
	memory := &fakeMemory{saveErr: contractx.ErrMemoryUnavailable}

	res, err := newTestOrchestrator(t, gen, &fakeCritic{}, memory).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.MemoryCommitted {
		t.Fatal("MemoryCommitted must be false when save fails")
	}
	if len(memory.saved) != 1 {
		t.Fatalf("save attempts = %d, want 1", len(memory.saved))
	}
	assertPlan(t, res.Plan, planOf("A"))
}

func TestRunThreadsCriticFeedbackWhenEnabled(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{results: []draftResult{ok(planOf("A")), ok(planOf("B"))}}
	critic := &fakeCritic{verdicts: []contractx.Critique{reject, approve}}

	_, err := newTestOrchestrator(t, gen, critic, &fakeMemory{}, WithFeedbackThreading(true)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	fb := gen.requests[1].Feedback
	if !strings.HasPrefix(fb, RejectionFeedback) || !strings.Contains(fb, reject.Feedback) {
		t.Fatalf("feedback = %q", fb)
	}
}

func TestRunWithoutMemory(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{results: []draftResult{ok(planOf("A"))}}
	res, err := newTestOrchestrator(t, gen, &fakeCritic{}, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	assertPlan(t, res.Plan, planOf("A"))
}

func TestNewRequiresCollaborators(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, &fakeCritic{}, nil); err == nil {
		t.Fatal("expected error for nil generator")
	}
	if _, err := New(&fakeGenerator{}, nil, nil); err == nil {
		t.Fatal("expected error for nil critic")
	}
}

func TestConcurrentRunsAppendToSharedMemory(t *testing.T) {
	t.Parallel()

	svc, err := memoryx.NewService(memoryx.NewInMemoryStore(), nil)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	gen := &fakeGenerator{fallback: &draftResult{plan: planOf("Ragi")}}
	o := newTestOrchestrator(t, gen, &fakeCritic{}, svc)

	const runs = 8
	var wg sync.WaitGroup
	errs := make(chan error, runs)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := o.Run(context.Background()); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Run() error = %v", err)
	}

	count, err := svc.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != runs*len(planOf("Ragi")) {
		t.Fatalf("count = %d, want %d", count, runs*len(planOf("Ragi")))
	}
}
