// Package negotiate implements the synchronous bargain flow: the user offers
// an excuse at a checkpoint and the evaluator decides how many extra minutes
// it is worth.
package negotiate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

// DefaultEvaluatorTimeout caps a single evaluator call. The session blocks
// its owning scheduler loop while the human types, but the model call itself
// must never hang the scheduler indefinitely.
const DefaultEvaluatorTimeout = 30 * time.Second

// FailSafeReply is shown when the evaluator is unreachable or misbehaves.
const FailSafeReply = "I'm too tired to argue. Go sleep."

// Session runs bargain attempts against an evaluator.
type Session struct {
	prompter  domain.ExcusePrompter
	evaluator domain.ExcuseEvaluator
	timeout   time.Duration
	logger    *zap.Logger
}

// NewSession creates a negotiation session with the default evaluator timeout.
func NewSession(prompter domain.ExcusePrompter, evaluator domain.ExcuseEvaluator, logger *zap.Logger) *Session {
	return &Session{
		prompter:  prompter,
		evaluator: evaluator,
		timeout:   DefaultEvaluatorTimeout,
		logger:    logger,
	}
}

// NewSessionWithTimeout creates a session with a custom timeout (for tests).
func NewSessionWithTimeout(prompter domain.ExcusePrompter, evaluator domain.ExcuseEvaluator, timeout time.Duration, logger *zap.Logger) *Session {
	s := NewSession(prompter, evaluator, logger)
	s.timeout = timeout
	return s
}

// FailSafeGrant is the grant applied whenever negotiation cannot complete.
// It never aborts the caller's loop.
func FailSafeGrant() domain.Grant {
	return domain.Grant{Minutes: 0, Reply: FailSafeReply, Punitive: false}
}

// Negotiate prompts the user for an excuse and scores it. It always returns
// a usable grant: an empty excuse, prompt error, evaluator timeout or
// malformed response all resolve to the fail-safe zero grant.
func (s *Session) Negotiate(ctx context.Context, minutesLeft int) domain.Grant {
	excuse, err := s.prompter.PromptExcuse(ctx, minutesLeft)
	if err != nil {
		s.logger.Warn("excuse prompt failed", zap.Error(err))
		return FailSafeGrant()
	}
	if excuse == "" {
		// User accepted the warning without bargaining.
		return domain.Grant{Minutes: 0, Reply: "", Punitive: false}
	}
	return s.Evaluate(ctx, excuse)
}

// Evaluate scores an excuse directly, bypassing the prompt. Used by the
// one-shot `nightmon negotiate` harness.
func (s *Session) Evaluate(ctx context.Context, excuse string) domain.Grant {
	evalCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	grant, err := s.evaluator.Evaluate(evalCtx, excuse)
	if err != nil {
		s.logger.Warn("excuse evaluation failed, applying fail-safe grant",
			zap.Error(err))
		return FailSafeGrant()
	}

	return clampGrant(grant)
}

// clampGrant bounds the granted minutes to [0, MaxGrantMinutes] regardless
// of what the evaluator returned.
func clampGrant(g domain.Grant) domain.Grant {
	if g.Minutes < 0 {
		g.Minutes = 0
	}
	if g.Minutes > domain.MaxGrantMinutes {
		g.Minutes = domain.MaxGrantMinutes
	}
	return g
}
