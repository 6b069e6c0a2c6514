package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/groundworklabs/groundwork/internal/config"
	"github.com/groundworklabs/groundwork/internal/model"
	"github.com/groundworklabs/groundwork/internal/plugin"
	"github.com/groundworklabs/groundwork/internal/state"
	gwerrors "github.com/groundworklabs/groundwork/pkg/errors"
)

// countingPlugin records every Evaluate/Apply invocation and can be told to
// fail specific steps with a given exit code or report them as satisfied.
type countingPlugin struct {
	evaluations map[string]int
	applies     map[string]int
	failWith    map[string]int
	satisfied   map[string]bool
}

func newCountingPlugin() *countingPlugin {
	return &countingPlugin{
		evaluations: make(map[string]int),
		applies:     make(map[string]int),
		failWith:    make(map[string]int),
		satisfied:   make(map[string]bool),
	}
}

func (p *countingPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{Name: "counting", Type: "command", Version: "1.0.0"}
}

func (p *countingPlugin) Schema() any { return nil }

func (p *countingPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	p.evaluations[step.ID]++
	if p.satisfied[step.ID] {
		return &model.EvaluationResult{
			StepID:         step.ID,
			CurrentState:   model.StatusSatisfied,
			RequiresAction: false,
			Message:        "state already satisfied",
		}, nil
	}
	return &model.EvaluationResult{
		StepID:         step.ID,
		CurrentState:   model.StatusMissing,
		RequiresAction: true,
		Message:        "needs provisioning",
	}, nil
}

func (p *countingPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	p.applies[step.ID]++
	if code, ok := p.failWith[step.ID]; ok {
		err := errors.New("command failed")
		return &model.StepResult{
			StepID:   step.ID,
			Status:   model.StatusFailed,
			Message:  err.Error(),
			ExitCode: code,
			Error:    err,
		}, gwerrors.NewExitError(step.ID, code, err)
	}
	return &model.StepResult{StepID: step.ID, Status: model.StatusSuccess, Message: "done"}, nil
}

func (p *countingPlugin) totalInvocations() int {
	total := 0
	for _, n := range p.evaluations {
		total += n
	}
	for _, n := range p.applies {
		total += n
	}
	return total
}

func newTestContext(t *testing.T, dir string, impl plugin.Plugin, steps ...config.Step) (*ExecutionContext, *ExecutionPlan) {
	t.Helper()

	cfg := &config.Config{Version: "1.0", Name: "test", Steps: steps}

	graph, err := BuildDAG(steps)
	require.NoError(t, err)
	plan, err := GeneratePlan(graph)
	require.NoError(t, err)

	registry := plugin.NewRegistry(nil)
	require.NoError(t, registry.Register(impl))

	tracker, err := state.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { tracker.Close() })

	return &ExecutionContext{
		Config:   cfg,
		Registry: registry,
		Tracker:  tracker,
		Context:  context.Background(),
	}, plan
}

func TestExecute_RunsStepsInOrder(t *testing.T) {
	t.Parallel()

	impl := newCountingPlugin()
	execCtx, plan := newTestContext(t, t.TempDir(), impl,
		testStep("a"),
		testStep("b", "a"),
		testStep("c", "b"),
	)

	var started []string
	execCtx.OnStepStart = func(id string) { started = append(started, id) }

	summary, err := Execute(execCtx, plan)
	require.NoError(t, err)
	require.Equal(t, PhaseCompleted, summary.Phase)
	require.Equal(t, []string{"a", "b", "c"}, started)

	for _, id := range []string{"a", "b", "c"} {
		require.True(t, execCtx.Tracker.IsComplete(id))
		require.Equal(t, 1, impl.applies[id])
	}
}

func TestExecute_SecondRunPerformsZeroInvocations(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	impl := newCountingPlugin()
	execCtx, plan := newTestContext(t, dir, impl, testStep("a"), testStep("b", "a"))

	_, err := Execute(execCtx, plan)
	require.NoError(t, err)
	require.NoError(t, execCtx.Tracker.Close())

	fresh := newCountingPlugin()
	execCtx2, plan2 := newTestContext(t, dir, fresh, testStep("a"), testStep("b", "a"))

	summary, err := Execute(execCtx2, plan2)
	require.NoError(t, err)
	require.Equal(t, PhaseCompleted, summary.Phase)
	require.Zero(t, fresh.totalInvocations())

	for _, res := range summary.Results {
		require.Equal(t, model.StatusSkipped, res.Status)
	}
}

func TestExecute_FailFastHaltsRemainingSteps(t *testing.T) {
	t.Parallel()

	impl := newCountingPlugin()
	impl.failWith["a"] = 2
	execCtx, plan := newTestContext(t, t.TempDir(), impl, testStep("a"), testStep("b", "a"))

	summary, err := Execute(execCtx, plan)
	require.Error(t, err)
	require.Equal(t, PhaseFailed, summary.Phase)

	var execErr *gwerrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, "a", execErr.StepID)
	require.Equal(t, 2, execErr.ExitCode)

	// a recorded failed; b never attempted and has no record.
	rec, ok := execCtx.Tracker.Record("a")
	require.True(t, ok)
	require.Equal(t, state.StatusFailed, rec.Status)
	require.Equal(t, 2, rec.ExitCode)

	_, ok = execCtx.Tracker.Record("b")
	require.False(t, ok)
	require.Zero(t, impl.applies["b"])
	require.Zero(t, impl.evaluations["b"])
}

func TestExecute_ResumeRerunsOnlyFromFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	first := newCountingPlugin()
	first.failWith["b"] = 7
	execCtx, plan := newTestContext(t, dir, first, testStep("a"), testStep("b", "a"), testStep("c", "b"))

	_, err := Execute(execCtx, plan)
	require.Error(t, err)
	require.Equal(t, 1, first.applies["a"])
	require.NoError(t, execCtx.Tracker.Close())

	// Fix b and resume: a must not re-run, b and c run exactly once.
	second := newCountingPlugin()
	execCtx2, plan2 := newTestContext(t, dir, second, testStep("a"), testStep("b", "a"), testStep("c", "b"))

	summary, err := Execute(execCtx2, plan2)
	require.NoError(t, err)
	require.Equal(t, PhaseCompleted, summary.Phase)

	require.Zero(t, second.applies["a"])
	require.Zero(t, second.evaluations["a"])
	require.Equal(t, 1, second.applies["b"])
	require.Equal(t, 1, second.applies["c"])
}

func TestExecute_StaleRunningRecordForcesRerun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tracker, err := state.Open(dir)
	require.NoError(t, err)
	require.NoError(t, tracker.Mark(state.Record{StepID: "a", Status: state.StatusRunning, StartedAt: time.Now()}))
	require.NoError(t, tracker.Close())

	impl := newCountingPlugin()
	execCtx, plan := newTestContext(t, dir, impl, testStep("a"))

	summary, err := Execute(execCtx, plan)
	require.NoError(t, err)
	require.Equal(t, PhaseCompleted, summary.Phase)
	require.Equal(t, 1, impl.applies["a"])
}

func TestExecute_SatisfiedStateMarkedSucceededWithoutApply(t *testing.T) {
	t.Parallel()

	impl := newCountingPlugin()
	impl.satisfied["a"] = true
	execCtx, plan := newTestContext(t, t.TempDir(), impl, testStep("a"))

	summary, err := Execute(execCtx, plan)
	require.NoError(t, err)
	require.Equal(t, PhaseCompleted, summary.Phase)
	require.Equal(t, 1, impl.evaluations["a"])
	require.Zero(t, impl.applies["a"])
	require.True(t, execCtx.Tracker.IsComplete("a"))
}

func TestExecute_DryRunMutatesNoState(t *testing.T) {
	t.Parallel()

	impl := newCountingPlugin()
	execCtx, plan := newTestContext(t, t.TempDir(), impl, testStep("a"))
	execCtx.DryRun = true

	summary, err := Execute(execCtx, plan)
	require.NoError(t, err)
	require.Equal(t, PhaseCompleted, summary.Phase)
	require.Equal(t, model.StatusWouldUpdate, summary.Results[0].Status)
	require.Zero(t, impl.applies["a"])

	_, ok := execCtx.Tracker.Record("a")
	require.False(t, ok)
}

func TestExecute_CancelledContextStopsRun(t *testing.T) {
	t.Parallel()

	impl := newCountingPlugin()
	execCtx, plan := newTestContext(t, t.TempDir(), impl, testStep("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	execCtx.Context = ctx

	summary, err := Execute(execCtx, plan)
	require.Error(t, err)
	require.Equal(t, PhaseFailed, summary.Phase)
	require.Zero(t, impl.totalInvocations())
}
