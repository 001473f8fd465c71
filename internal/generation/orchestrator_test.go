package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/claude/repcoach/internal/llm"
	"github.com/claude/repcoach/internal/models"
)

// fakeClient scripts model responses per call.
type fakeClient struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeClient) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", llm.ErrTransport
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const goodModelOutput = `Here you go:
{"name":"Push Day","rationale":"Solid pressing volume.","exercises":[
  {"name":"Barbell Bench Press","sets":3,"reps":10,"rest_sec":180},
  {"name":"Incline Dumbbell Press","sets":3,"reps":10,"rest_sec":180},
  {"name":"Dumbbell Shoulder Press","sets":3,"reps":10,"rest_sec":180},
  {"name":"Push-Up","sets":3,"reps":10,"rest_sec":180}
]}`

func newTestOrchestrator(t *testing.T, client llm.Client) *Orchestrator {
	t.Helper()
	return NewOrchestrator(client, testIndex(t), nil, DefaultOrchestratorConfig(), testLogger())
}

// TestGenerateModelSuccess verifies a valid model answer comes back
// flagged as model-sourced with every exercise resolved.
func TestGenerateModelSuccess(t *testing.T) {
	o := newTestOrchestrator(t, &fakeClient{responses: []string{goodModelOutput}})

	res, err := o.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Source != models.SourceModel {
		t.Errorf("source = %q, want model", res.Source)
	}
	if len(res.Plan.Exercises) != 4 {
		t.Errorf("exercises = %d, want 4", len(res.Plan.Exercises))
	}
}

// TestGenerateRepairsDirtyOutput verifies malformed-but-salvageable
// output is repaired rather than discarded.
func TestGenerateRepairsDirtyOutput(t *testing.T) {
	dirty := "```json\n" + `{"rationale":"ok","exercises":[
  {"name":"bench press","sets":"15","reps":0,"rest_sec":5},
  {"name":"Nonexistent Exercise","sets":3,"reps":10,"rest_sec":90},
  {"name":"DB Shoulder Press","sets":3,"reps":10,"rest_sec":90},
  {"name":"push up","sets":3,"reps":12,"rest_sec":60}
]}` + "\n```"

	o := newTestOrchestrator(t, &fakeClient{responses: []string{dirty}})
	res, err := o.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Source != models.SourceModel {
		t.Errorf("source = %q, want model (repaired)", res.Source)
	}
	for _, pe := range res.Plan.Exercises {
		if pe.Name == "Nonexistent Exercise" {
			t.Error("repair invented/kept an unknown exercise")
		}
		if pe.Sets > MaxSets || pe.RestSec < MinRestSec {
			t.Errorf("unclamped exercise: %+v", pe)
		}
	}
}

// TestGenerateFallsBackOnErrors verifies transport failures and
// timeouts exhaust attempts and resolve to the template fallback; the
// caller never sees an error.
func TestGenerateFallsBackOnErrors(t *testing.T) {
	client := &fakeClient{errs: []error{llm.ErrTimeout, llm.ErrTransport}}
	o := newTestOrchestrator(t, client)

	res, err := o.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if res.Source != models.SourceFallback {
		t.Errorf("source = %q, want fallback", res.Source)
	}
	if client.calls != 2 {
		t.Errorf("model called %d times, want 2", client.calls)
	}
	if len(res.Plan.Exercises) == 0 {
		t.Error("fallback plan is empty")
	}
}

// TestGenerateFallsBackOnGarbage verifies unparseable output never
// surfaces as an error.
func TestGenerateFallsBackOnGarbage(t *testing.T) {
	client := &fakeClient{responses: []string{"I cannot help with that.", "still no json"}}
	o := newTestOrchestrator(t, client)

	res, err := o.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if res.Source != models.SourceFallback {
		t.Errorf("source = %q, want fallback", res.Source)
	}
}

// TestGenerateNoClient verifies a nil client (model disabled) goes
// straight to fallback.
func TestGenerateNoClient(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	res, err := o.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != models.SourceFallback {
		t.Errorf("source = %q, want fallback", res.Source)
	}
}

// TestGenerateInvalidRequest verifies malformed input is the one error
// path.
func TestGenerateInvalidRequest(t *testing.T) {
	o := newTestOrchestrator(t, &fakeClient{})
	req := validRequest()
	req.DurationMin = -5

	_, err := o.Generate(context.Background(), req)
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
}

// TestGenerateCache verifies identical requests hit the sqlite cache
// on the second call.
func TestGenerateCache(t *testing.T) {
	cache, err := OpenCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer cache.Close()

	client := &fakeClient{responses: []string{goodModelOutput, goodModelOutput}}
	o := NewOrchestrator(client, testIndex(t), cache, DefaultOrchestratorConfig(), testLogger())

	first, err := o.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatal(err)
	}
	second, err := o.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatal(err)
	}

	if client.calls != 1 {
		t.Errorf("model called %d times, want 1 (second call cached)", client.calls)
	}
	if second.Plan.ID != first.Plan.ID {
		t.Errorf("cached plan differs: %s vs %s", second.Plan.ID, first.Plan.ID)
	}
	if second.Source != models.SourceModel {
		t.Errorf("cached source = %q, want model", second.Source)
	}
}
