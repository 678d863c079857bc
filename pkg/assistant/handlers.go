package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/waypoint/pkg/domain"
)

type handler = domain.HandlerFunc

func message(s domain.State) string {
	msg, _ := s.String(KeyInput)
	return msg
}

// Prompt receives the next user message from src. A nil src, or one that
// reports ErrNoInput, leaves the session awaiting input.
func Prompt(src InputSource) domain.Handler {
	return handler(func(ctx context.Context, s domain.State) (domain.Update, domain.State, error) {
		if src == nil {
			return domain.Update{KeyAwaitingInput: true}, s, nil
		}
		msg, err := src.Receive(ctx, s)
		if errors.Is(err, ErrNoInput) {
			return domain.Update{KeyAwaitingInput: true}, s, nil
		}
		if err != nil {
			return nil, s, err
		}
		return domain.Update{KeyInput: msg, KeyAwaitingInput: false}, s, nil
	})
}

// CheckSafety sets KeySafe from the classifier's verdict on the message.
func CheckSafety(c SafetyClassifier) domain.Handler {
	return handler(func(ctx context.Context, s domain.State) (domain.Update, domain.State, error) {
		safe, err := c.IsSafe(ctx, message(s))
		if err != nil {
			return nil, s, fmt.Errorf("safety check: %w", err)
		}
		return domain.Update{KeySafe: safe, KeyAwaitingInput: false}, s, nil
	})
}

// DecideMode sets KeyMode from the intent classifier.
func DecideMode(c IntentClassifier) domain.Handler {
	return handler(func(ctx context.Context, s domain.State) (domain.Update, domain.State, error) {
		mode, err := c.Classify(ctx, message(s))
		if err != nil {
			return nil, s, fmt.Errorf("intent classification: %w", err)
		}
		return domain.Update{KeyMode: mode}, s, nil
	})
}

// Fallback notifies n and answers with response.
func Fallback(n FallbackNotifier, reason Reason, response string) domain.Handler {
	return handler(func(ctx context.Context, s domain.State) (domain.Update, domain.State, error) {
		if n != nil {
			if err := n.Notify(ctx, reason, s); err != nil {
				return nil, s, fmt.Errorf("notify %s: %w", reason, err)
			}
		}
		return domain.Update{KeyResponse: response}, s, nil
	})
}

// Action runs an optional side effect. Without one it answers
// ResponseNotConfigured. A collaborator update without a response gets
// fallback as its response.
func Action(name string, run func(ctx context.Context, s domain.State) (domain.Update, error), fallback string) domain.Handler {
	return handler(func(ctx context.Context, s domain.State) (domain.Update, domain.State, error) {
		if run == nil {
			return domain.Update{KeyResponse: ResponseNotConfigured}, s, nil
		}
		u, err := run(ctx, s)
		if err != nil {
			return nil, s, fmt.Errorf("%s: %w", name, err)
		}
		out := domain.Update{KeyResponse: fallback}
		for k, v := range u {
			out[k] = v
		}
		return out, s, nil
	})
}

func projectNameAction(c ProjectNameUpdater) func(context.Context, domain.State) (domain.Update, error) {
	if c == nil {
		return nil
	}
	return c.UpdateProjectName
}

func eligibilityAction(c EligibilityChecker) func(context.Context, domain.State) (domain.Update, error) {
	if c == nil {
		return nil
	}
	return c.CheckEligibility
}

func ingestAction(c FileIngester, kind FileKind) func(context.Context, domain.State) (domain.Update, error) {
	if c == nil {
		return nil
	}
	return func(ctx context.Context, s domain.State) (domain.Update, error) {
		return c.Ingest(ctx, kind, s)
	}
}
