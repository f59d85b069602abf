package run

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pajamadot/recall/pkg/adapter"
	"github.com/pajamadot/recall/pkg/model"
	"github.com/pajamadot/recall/pkg/tool"
	"github.com/pajamadot/recall/pkg/tool/knowledge"
	"github.com/pajamadot/recall/pkg/utils/logging"
)

//go:embed prompt/system.md
var systemPrompt string

// Runner executes one retrieval-grounded run: seed the evidence pool, drive
// the conversation loop when synthesis is enabled, and always produce a
// RunResult.
type Runner struct {
	knowledge adapter.Knowledge
	provider  adapter.Provider
	progress  *Emitter
}

// NewInput contains the collaborators of a run.
type NewInput struct {
	Knowledge adapter.Knowledge
	Provider  adapter.Provider // nil when no model credential is configured
	Progress  *Emitter         // nil discards progress events
}

func New(input NewInput) *Runner {
	return &Runner{
		knowledge: input.Knowledge,
		provider:  input.Provider,
		progress:  input.Progress,
	}
}

// Run executes the whole run and always returns a well-formed result, even
// when something panics along the way. The caller is responsible for
// emitting it as the single result line.
func (r *Runner) Run(ctx context.Context, cfg *model.RunConfig) (result *model.RunResult) {
	result = &model.RunResult{
		SessionID: cfg.SessionID,
		ProjectID: cfg.ProjectID,
		Query:     cfg.Query,
		Provider:  model.ProviderInfo{Kind: cfg.ProviderKind},
		Retrieved: model.NewEvidenceSet(),
		Notes:     []string{},
	}

	defer func() {
		if rec := recover(); rec != nil {
			result.Success = false
			result.Answer = nil
			result.Error = fmt.Sprintf("unexpected fault: %v", rec)
			r.progress.Emit(model.EventRunError, map[string]any{"error": result.Error})
			logging.From(ctx).Error("run panicked", "recovered", rec)
		}
		r.progress.Emit(model.EventRunDone, map[string]any{"success": result.Success})
	}()

	if err := r.execute(ctx, cfg, result); err != nil {
		result.Success = false
		result.Error = err.Error()
		r.progress.Emit(model.EventRunError, map[string]any{"error": result.Error})
	}
	return result
}

func (r *Runner) execute(ctx context.Context, cfg *model.RunConfig, result *model.RunResult) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.progress.Emit(model.EventRunStart, map[string]any{
		"project_id": cfg.ProjectID,
		"query":      cfg.Query,
	})

	client := tool.NewClient(r.knowledge, cfg.ProjectID, cfg.SessionID)

	// seed unconditionally so the fallback always has evidence to work with
	seed, err := r.knowledge.Retrieve(ctx, &adapter.RetrieveRequest{
		Query:            cfg.Query,
		ProjectID:        cfg.ProjectID,
		IncludeAssets:    cfg.IncludeAssets,
		IncludeDocuments: true,
		MemoryMode:       cfg.MemoryMode,
		DryRun:           true,
		Limit:            cfg.EvidenceLimit,
	})
	if err != nil {
		return goerr.Wrap(err, "seed retrieval failed")
	}
	client.Evidence.Merge(seed.ToEvidence())
	result.Retrieved = client.Evidence

	r.progress.Emit(model.EventSeedDone, map[string]any{
		"memories":  client.Evidence.MemoryCount(),
		"documents": client.Evidence.DocumentCount(),
		"assets":    client.Evidence.AssetCount(),
	})

	disabled, why := cfg.SynthesisDisabled()
	if !disabled && r.provider == nil {
		disabled, why = true, "synthesis disabled: no model provider configured"
	}
	if disabled {
		answer := fallbackAnswer(client.Evidence)
		result.Answer = &answer
		result.Notes = append(result.Notes, why)
		result.Success = true
		r.progress.Emit(model.EventFallback, map[string]any{"reason": why})
		return nil
	}

	result.Provider.Kind = r.provider.Kind()

	l := &loop{
		provider:   r.provider,
		registry:   tool.New(knowledge.All(client)...),
		progress:   r.progress,
		system:     systemPrompt,
		maxTokens:  clampTokens(cfg.MaxTokens),
		transcript: buildTranscript(cfg, client.Evidence),
	}
	loopRes, err := l.run(ctx, cfg.ProviderModel)
	if err != nil {
		return err
	}

	// the loop's accumulated evidence backs every citation the model could
	// have made, not just the seed
	result.Retrieved = client.Evidence
	result.Provider.Model = loopRes.model
	result.Success = true

	if loopRes.answer != "" {
		result.Answer = &loopRes.answer
		return nil
	}

	answer := fallbackAnswer(client.Evidence)
	result.Answer = &answer

	note := fmt.Sprintf("no final answer within %d rounds; returning the evidence summary", maxRounds)
	reason := "round exhaustion"
	if loopRes.answered {
		note = fmt.Sprintf("model returned an empty answer in round %d; returning the evidence summary", loopRes.rounds)
		reason = "empty answer"
	}
	result.Notes = append(result.Notes, note)
	r.progress.Emit(model.EventFallback, map[string]any{"reason": reason})
	return nil
}

// buildTranscript converts the forwarded prior turns and the evidence digest
// into the initial transcript. The digest plus the literal question is the
// first (or only) user turn.
func buildTranscript(cfg *model.RunConfig, ev *model.EvidenceSet) []adapter.Message {
	msgs := make([]adapter.Message, 0, len(cfg.History)+1)
	for _, turn := range cfg.History {
		if turn.Content == "" {
			continue
		}
		role := turn.Role
		if role != "assistant" {
			role = "user"
		}
		msgs = append(msgs, adapter.Message{
			Role:    role,
			Content: []adapter.ContentBlock{{Type: adapter.BlockText, Text: turn.Content}},
		})
	}

	return append(msgs, adapter.Message{
		Role:    "user",
		Content: []adapter.ContentBlock{{Type: adapter.BlockText, Text: buildDigest(ev, cfg.Query)}},
	})
}
