package run

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pajamadot/recall/pkg/adapter"
	"github.com/pajamadot/recall/pkg/model"
	"github.com/pajamadot/recall/pkg/tool"
)

const (
	maxRounds            = 8
	maxToolCallsPerRound = 6

	minTokenBudget     = 128
	maxTokenBudget     = 2048
	defaultTokenBudget = 1024
)

// loop drives the bounded-round protocol between the transcript, the model
// provider and the tool dispatcher. It owns the transcript exclusively.
type loop struct {
	provider   adapter.Provider
	registry   *tool.Registry
	progress   *Emitter
	system     string
	maxTokens  int
	transcript []adapter.Message
}

// loopResult carries the loop's outcome. answered reports that the model
// stopped with a text-only response; when false the rounds ran out. Either
// way an empty answer is resolved by the driver's deterministic fallback.
type loopResult struct {
	answer   string
	answered bool
	model    string
	rounds   int
}

func clampTokens(n int) int {
	if n == 0 {
		n = defaultTokenBudget
	}
	if n < minTokenBudget {
		return minTokenBudget
	}
	if n > maxTokenBudget {
		return maxTokenBudget
	}
	return n
}

// run executes up to maxRounds round-trips. The model identity disclosed by
// the provider is carried into subsequent rounds so the run stays on one
// model version.
func (l *loop) run(ctx context.Context, startModel string) (*loopResult, error) {
	res := &loopResult{model: startModel}
	specs := l.registry.Specs()

	for round := 1; round <= maxRounds; round++ {
		l.progress.Emit(model.EventRoundStart, map[string]any{"round": round})

		resp, err := l.provider.Generate(ctx, &adapter.GenerateRequest{
			Model:     res.model,
			MaxTokens: l.maxTokens,
			System:    l.system,
			Messages:  l.transcript,
			Tools:     specs,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "model round failed", goerr.V("round", round))
		}

		res.rounds = round
		if resp.Model != "" {
			res.model = resp.Model
		}
		l.transcript = append(l.transcript, adapter.Message{Role: "assistant", Content: resp.Content})

		if !resp.HasToolUse() {
			res.answer = resp.Text()
			res.answered = true
			l.progress.Emit(model.EventAnswer, map[string]any{"round": round})
			return res, nil
		}

		l.transcript = append(l.transcript, adapter.Message{
			Role:    "user",
			Content: l.dispatchRound(ctx, round, resp.Content),
		})
	}

	// designed degradation path: the driver substitutes the fallback
	return res, nil
}

// dispatchRound executes the round's tool-use blocks strictly sequentially,
// at most maxToolCallsPerRound of them. Calls beyond the cap get a synthetic
// error result so the model learns they were dropped and every tool_use
// block still receives a matching tool_result.
func (l *loop) dispatchRound(ctx context.Context, round int, blocks []adapter.ContentBlock) []adapter.ContentBlock {
	results := make([]adapter.ContentBlock, 0, len(blocks))
	dispatched := 0

	for _, b := range blocks {
		if b.Type != adapter.BlockToolUse {
			continue
		}

		var res *tool.Result
		if dispatched < maxToolCallsPerRound {
			dispatched++
			l.progress.Emit(model.EventToolCall, map[string]any{"round": round, "tool": b.Name})
			res = l.registry.Dispatch(ctx, b.Name, b.Input)
		} else {
			res = &tool.Result{
				Name:   b.Name,
				ErrMsg: "tool call budget for this round is exhausted; re-issue the call next round if still needed",
			}
		}

		l.progress.Emit(model.EventToolResult, map[string]any{
			"round": round, "tool": b.Name, "is_error": res.IsError(),
		})
		results = append(results, adapter.ContentBlock{
			Type:      adapter.BlockToolResult,
			ToolUseID: b.ID,
			Name:      b.Name,
			Content:   res.Content(),
			IsError:   res.IsError(),
		})
	}
	return results
}
