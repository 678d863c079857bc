package cli

import (
	"context"
	"errors"
	"io"

	"github.com/aretw0/waypoint/internal/presentation/tui"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/runner"
	"github.com/google/uuid"
)

// ChatOptions configures RunChat.
type ChatOptions struct {
	SessionID string
	// Fresh deletes the session before starting.
	Fresh bool
	// JSON switches to NDJSON input and output.
	JSON bool
	// Interactive enables the banner and markdown rendering.
	Interactive bool
	ShowPath    bool

	In  io.Reader
	Out io.Writer
}

// RunChat runs the conversation loop over app.Engine until the input ends,
// an exit word is typed or ctx is cancelled.
func RunChat(ctx context.Context, app *App, opts ChatOptions) error {
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	if opts.Fresh {
		if err := app.Engine.End(ctx, opts.SessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
	}

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(opts.In, opts.Out)
	} else {
		var textOpts []runner.TextHandlerOption
		if opts.Interactive {
			tui.PrintBanner(opts.Out, "session "+opts.SessionID)
			textOpts = append(textOpts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
		}
		textOpts = append(textOpts, runner.WithTextHandlerPath(opts.ShowPath))
		handler = runner.NewTextHandler(opts.In, opts.Out, textOpts...)
	}

	r := runner.New(
		runner.WithLogger(app.Logger),
		runner.WithInputHandler(handler),
		runner.WithSessionID(opts.SessionID),
		runner.WithMaxInputSize(app.Config.MaxInputSize),
	)

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	err := r.Run(sigCtx, app.Engine)
	if opts.Interactive && !opts.JSON {
		logCompletion(opts.Out, opts.SessionID, err, sigCtx.Signal())
	}
	return handleExecutionError(err)
}
