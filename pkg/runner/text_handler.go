package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// ContentRenderer transforms reply text before it is written, e.g. to render
// markdown for a terminal.
type ContentRenderer func(string) (string, error)

// TextHandler implements IOHandler for people at a terminal.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	// Prompt is written before every read. Empty disables it.
	Prompt string
	// ShowPath also prints the nodes each turn went through.
	ShowPath bool
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerPrompt sets the input prompt.
func WithTextHandlerPrompt(prompt string) TextHandlerOption {
	return func(h *TextHandler) {
		h.Prompt = prompt
	}
}

// WithTextHandlerPath prints the route of each turn.
func WithTextHandlerPath(show bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.ShowPath = show
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		Prompt: "> ",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Input reads one line. A final line without a newline is still returned;
// io.EOF follows on the next call.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if h.Prompt != "" {
		fmt.Fprint(h.Writer, h.Prompt)
	}
	line, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (h *TextHandler) Output(ctx context.Context, reply Reply) error {
	if h.ShowPath && len(reply.Path) > 0 {
		if _, err := fmt.Fprintf(h.Writer, "[%s]\n", strings.Join(reply.Path, " -> ")); err != nil {
			return err
		}
	}
	if reply.Response == "" {
		return nil
	}

	text := reply.Response
	if h.Renderer != nil {
		rendered, err := h.Renderer(text)
		if err == nil {
			text = rendered
		}
	}
	_, err := fmt.Fprintln(h.Writer, strings.TrimRight(text, "\n"))
	return err
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[system] %s\n", msg)
	return err
}
