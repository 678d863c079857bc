package assistant

import (
	"context"
	"errors"

	"github.com/aretw0/waypoint/pkg/domain"
)

// ErrNoInput is returned by an InputSource that has nothing to deliver yet.
// The prompt node then marks the session as awaiting input.
var ErrNoInput = errors.New("no input available")

// SafetyClassifier decides whether a message may be processed.
type SafetyClassifier interface {
	IsSafe(ctx context.Context, message string) (bool, error)
}

// IntentClassifier maps a message to a mode. Any value outside Modes is
// treated as an unknown intent.
type IntentClassifier interface {
	Classify(ctx context.Context, message string) (string, error)
}

// ProjectNameUpdater renames the project the conversation is about.
type ProjectNameUpdater interface {
	UpdateProjectName(ctx context.Context, state domain.State) (domain.Update, error)
}

// EligibilityChecker runs the eligibility check for the current project.
type EligibilityChecker interface {
	CheckEligibility(ctx context.Context, state domain.State) (domain.Update, error)
}

// FileKind tells a FileIngester what it is receiving.
type FileKind string

const (
	FileIFC             FileKind = "ifc"
	FileStructuralNotes FileKind = "structural_notes"
)

// FileIngester accepts a file referenced by the conversation.
type FileIngester interface {
	Ingest(ctx context.Context, kind FileKind, state domain.State) (domain.Update, error)
}

// Reason tells a FallbackNotifier why a turn ended without an action.
type Reason string

const (
	ReasonUnsafe        Reason = "unsafe"
	ReasonUnknownIntent Reason = "unknown_intent"
)

// FallbackNotifier is told about turns that were refused or not understood.
type FallbackNotifier interface {
	Notify(ctx context.Context, reason Reason, state domain.State) error
}

// InputSource supplies the next user message.
type InputSource interface {
	Receive(ctx context.Context, state domain.State) (string, error)
}

// Collaborators bundles the capabilities the assistant graph dispatches to.
type Collaborators struct {
	Safety  SafetyClassifier
	Intents IntentClassifier

	ProjectName     ProjectNameUpdater
	Eligibility     EligibilityChecker
	IFCFiles        FileIngester
	StructuralNotes FileIngester
	Notifier        FallbackNotifier
	Input           InputSource
}

func (c Collaborators) validate() error {
	var errs []error
	if c.Safety == nil {
		errs = append(errs, errors.New("assistant: a safety classifier is required"))
	}
	if c.Intents == nil {
		errs = append(errs, errors.New("assistant: an intent classifier is required"))
	}
	return errors.Join(errs...)
}

// SafetyFunc adapts a function to SafetyClassifier.
type SafetyFunc func(ctx context.Context, message string) (bool, error)

func (f SafetyFunc) IsSafe(ctx context.Context, message string) (bool, error) {
	return f(ctx, message)
}

// IntentFunc adapts a function to IntentClassifier.
type IntentFunc func(ctx context.Context, message string) (string, error)

func (f IntentFunc) Classify(ctx context.Context, message string) (string, error) {
	return f(ctx, message)
}

// ProjectNameFunc adapts a function to ProjectNameUpdater.
type ProjectNameFunc func(ctx context.Context, state domain.State) (domain.Update, error)

func (f ProjectNameFunc) UpdateProjectName(ctx context.Context, state domain.State) (domain.Update, error) {
	return f(ctx, state)
}

// EligibilityFunc adapts a function to EligibilityChecker.
type EligibilityFunc func(ctx context.Context, state domain.State) (domain.Update, error)

func (f EligibilityFunc) CheckEligibility(ctx context.Context, state domain.State) (domain.Update, error) {
	return f(ctx, state)
}

// IngestFunc adapts a function to FileIngester.
type IngestFunc func(ctx context.Context, kind FileKind, state domain.State) (domain.Update, error)

func (f IngestFunc) Ingest(ctx context.Context, kind FileKind, state domain.State) (domain.Update, error) {
	return f(ctx, kind, state)
}

// NotifyFunc adapts a function to FallbackNotifier.
type NotifyFunc func(ctx context.Context, reason Reason, state domain.State) error

func (f NotifyFunc) Notify(ctx context.Context, reason Reason, state domain.State) error {
	return f(ctx, reason, state)
}

// InputFunc adapts a function to InputSource.
type InputFunc func(ctx context.Context, state domain.State) (string, error)

func (f InputFunc) Receive(ctx context.Context, state domain.State) (string, error) {
	return f(ctx, state)
}
