package assistant

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aretw0/waypoint/pkg/domain"
)

// KeywordSafety flags messages containing any blocked term.
// Matching is case-insensitive.
type KeywordSafety struct {
	Blocked []string
}

func (k KeywordSafety) IsSafe(_ context.Context, message string) (bool, error) {
	lower := strings.ToLower(message)
	for _, term := range k.Blocked {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" && strings.Contains(lower, term) {
			return false, nil
		}
	}
	return true, nil
}

// IntentRule maps messages matching Pattern to Mode.
type IntentRule struct {
	Mode    string
	Pattern *regexp.Regexp
}

// RuleIntents classifies a message by the first matching rule.
type RuleIntents struct {
	Rules []IntentRule
}

func (r RuleIntents) Classify(_ context.Context, message string) (string, error) {
	for _, rule := range r.Rules {
		if rule.Pattern.MatchString(message) {
			return rule.Mode, nil
		}
	}
	return ModeUnknown, nil
}

// DefaultIntentPatterns holds one pattern per recognized mode.
var DefaultIntentPatterns = map[string]string{
	ModeUpdateProjectName:     `(?i)\b(rename|project name|call (the|this) project)\b`,
	ModeRunEligibilityCheck:   `(?i)\beligib(le|ility)\b`,
	ModeUploadIFCFile:         `(?i)(\bifc\b|\.ifc\b)`,
	ModeUploadStructuralNotes: `(?i)\bstructural notes?\b`,
}

// CompileIntentRules compiles patterns keyed by mode. Rules follow the order
// of Modes; modes outside Modes come after, in the order given by extra.
func CompileIntentRules(patterns map[string]string, extra ...string) ([]IntentRule, error) {
	var rules []IntentRule
	for _, mode := range append(append([]string(nil), Modes...), extra...) {
		p, ok := patterns[mode]
		if !ok {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("intent %s: %w", mode, err)
		}
		rules = append(rules, IntentRule{Mode: mode, Pattern: re})
	}
	return rules, nil
}

// LogNotifier records refused and unrecognized turns in the log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, reason Reason, state domain.State) error {
	if n.Logger == nil {
		return nil
	}
	n.Logger.WarnContext(ctx, "turn not handled", "reason", string(reason), "input_len", len(message(state)))
	return nil
}

// ReaderInput reads one message per line. It returns io.EOF once the reader
// is exhausted. Blank lines are skipped.
type ReaderInput struct {
	scanner *bufio.Scanner
	before  func()
}

// NewReaderInput reads messages from r. before, if set, runs ahead of every
// read, typically to print a prompt.
func NewReaderInput(r io.Reader, before func()) *ReaderInput {
	return &ReaderInput{scanner: bufio.NewScanner(r), before: before}
}

func (in *ReaderInput) Receive(ctx context.Context, _ domain.State) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if in.before != nil {
			in.before()
		}
		if !in.scanner.Scan() {
			if err := in.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		line := strings.TrimSpace(in.scanner.Text())
		if line != "" {
			return line, nil
		}
	}
}

// HostInput is the InputSource for hosts that push messages into State
// themselves; it never has anything to deliver.
type HostInput struct{}

func (HostInput) Receive(context.Context, domain.State) (string, error) {
	return "", ErrNoInput
}
