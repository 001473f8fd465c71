package generation

import (
	"context"
	"log/slog"

	"github.com/claude/repcoach/internal/llm"
	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/taxonomy"
)

// OrchestratorConfig bounds the model-facing side of generation.
type OrchestratorConfig struct {
	MaxAttempts int     // model attempts before falling back
	TimeoutMs   int     // per model call
	Temperature float64 // passed through to the model
	MaxTokens   int
}

// DefaultOrchestratorConfig returns the standard policy: two bounded
// attempts, then the rule-based fallback.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MaxAttempts: 2,
		TimeoutMs:   30000,
		Temperature: 0.7,
		MaxTokens:   2048,
	}
}

// Result is what generation hands back to the caller: a plan that is
// always usable, plus where it came from.
type Result struct {
	Plan   *models.WorkoutPlan `json:"plan"`
	Source models.PlanSource   `json:"source"`
}

// Orchestrator coordinates the model call and turns its answer into a
// trustworthy plan. Per attempt the flow is build → await model →
// validate → repair → validate, and after MaxAttempts it falls back to
// a template. The caller never sees a generation failure as long as
// the taxonomy is non-empty.
type Orchestrator struct {
	client    llm.Client // nil disables the model path entirely
	idx       *taxonomy.Index
	validator *Validator
	cache     *Cache // nil disables caching
	cfg       OrchestratorConfig
	log       *slog.Logger
}

// NewOrchestrator wires the generation pipeline. client and cache may
// be nil; generation then always uses the fallback path or skips
// caching respectively.
func NewOrchestrator(client llm.Client, idx *taxonomy.Index, cache *Cache, cfg OrchestratorConfig, log *slog.Logger) *Orchestrator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultOrchestratorConfig().MaxAttempts
	}
	return &Orchestrator{
		client:    client,
		idx:       idx,
		validator: NewValidator(idx),
		cache:     cache,
		cfg:       cfg,
		log:       log,
	}
}

// Generate produces a workout plan for the request. The only error it
// returns is ErrInvalidRequest; model timeouts, transport failures,
// and unusable output all resolve to the fallback plan.
func (o *Orchestrator) Generate(ctx context.Context, req *PlanRequest) (*Result, error) {
	prompt, err := BuildPrompt(req, o.idx)
	if err != nil {
		return nil, err
	}

	hash := PromptHash(prompt)
	if o.cache != nil {
		if plan, source, ok, cerr := o.cache.Get(hash); cerr != nil {
			o.log.Warn("generation cache read failed", "error", cerr)
		} else if ok {
			o.log.Debug("generation cache hit", "hash", hash[:12])
			return &Result{Plan: plan, Source: source}, nil
		}
	}

	if o.client != nil {
		for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
			plan, ok := o.tryModel(ctx, prompt, req, attempt)
			if ok {
				o.storeCache(hash, plan, models.SourceModel)
				return &Result{Plan: plan, Source: models.SourceModel}, nil
			}
			if ctx.Err() != nil {
				// Caller gave up; don't burn further attempts.
				break
			}
		}
	}

	plan := BuildFallbackPlan(req, o.idx)
	o.log.Info("generation fell back to template",
		"goal", req.Goal, "level", req.Level.String(), "duration_min", req.DurationMin)
	o.storeCache(hash, plan, models.SourceFallback)
	return &Result{Plan: plan, Source: models.SourceFallback}, nil
}

// tryModel runs one attempt: call, parse, validate, repair, validate.
func (o *Orchestrator) tryModel(ctx context.Context, prompt string, req *PlanRequest, attempt int) (*models.WorkoutPlan, bool) {
	raw, err := o.client.Complete(ctx, prompt, llm.Options{
		Temperature: o.cfg.Temperature,
		MaxTokens:   o.cfg.MaxTokens,
		TimeoutMs:   o.cfg.TimeoutMs,
	})
	if err != nil {
		o.log.Warn("model attempt failed", "attempt", attempt, "error", err)
		return nil, false
	}

	cand, err := parseCandidate(raw)
	if err != nil {
		o.log.Warn("model output unparseable", "attempt", attempt, "error", err)
		return nil, false
	}

	violations := o.validator.Check(cand, req)
	if len(violations) > 0 {
		o.log.Debug("candidate plan invalid, repairing",
			"attempt", attempt, "violations", len(violations), "first", violations[0].Code)
		cand = o.validator.Repair(cand, req)
		violations = o.validator.Check(cand, req)
	}
	if len(violations) > 0 {
		o.log.Warn("candidate plan unrepairable",
			"attempt", attempt, "violations", len(violations), "first", violations[0].Code)
		return nil, false
	}

	return o.validator.Finalize(cand, req), true
}

func (o *Orchestrator) storeCache(hash string, plan *models.WorkoutPlan, source models.PlanSource) {
	if o.cache == nil {
		return
	}
	if err := o.cache.Put(hash, plan, source); err != nil {
		o.log.Warn("generation cache write failed", "error", err)
	}
}
