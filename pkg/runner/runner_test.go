package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/pkg/assistant"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/dsl"
	"github.com/aretw0/waypoint/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, c assistant.Collaborators) *waypoint.Engine {
	t.Helper()
	rules, err := assistant.CompileIntentRules(assistant.DefaultIntentPatterns)
	require.NoError(t, err)
	c.Safety = assistant.KeywordSafety{Blocked: []string{"exploit"}}
	c.Intents = assistant.RuleIntents{Rules: rules}
	c.Input = assistant.HostInput{}
	g, err := assistant.NewGraph(c)
	require.NoError(t, err)
	eng, err := waypoint.New(g)
	require.NoError(t, err)
	return eng
}

func TestRunner_TextConversation(t *testing.T) {
	eng := newEngine(t, assistant.Collaborators{})
	in := strings.NewReader("hello\n\nexploit it\nquit\nnever read\n")
	var out bytes.Buffer

	r := runner.New(
		runner.WithSessionID("cli"),
		runner.WithInputHandler(runner.NewTextHandler(in, &out, runner.WithTextHandlerPrompt(""), runner.WithTextHandlerPath(true))),
	)
	require.NoError(t, r.Run(context.Background(), eng))

	text := out.String()
	assert.Contains(t, text, "[check_safety -> decide_mode -> unknown_intent -> prompt]")
	assert.Contains(t, text, assistant.ResponseUnknownIntent)
	assert.Contains(t, text, assistant.ResponseUnsafe)

	s, err := eng.Session(context.Background(), "cli")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Turn, "blank lines are skipped and quit stops the loop")
}

func TestRunner_EOFWithoutNewline(t *testing.T) {
	eng := newEngine(t, assistant.Collaborators{})
	var out bytes.Buffer

	r := runner.New(runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("rename it"), &out)))
	require.NoError(t, r.Run(context.Background(), eng))

	assert.Contains(t, out.String(), assistant.ResponseNotConfigured)
	assert.NotEmpty(t, r.SessionID, "a session is started when none is given")
}

func TestRunner_RendererAndRejectedInput(t *testing.T) {
	eng := newEngine(t, assistant.Collaborators{})
	var out bytes.Buffer
	in := strings.NewReader(strings.Repeat("a", 20) + "\nhi\n")

	h := runner.NewTextHandler(in, &out, runner.WithTextHandlerRenderer(func(s string) (string, error) {
		return "**" + s + "**\n", nil
	}))
	r := runner.New(runner.WithInputHandler(h), runner.WithMaxInputSize(10))
	require.NoError(t, r.Run(context.Background(), eng))

	assert.Contains(t, out.String(), "[system] input exceeds maximum allowed size")
	assert.Contains(t, out.String(), "**"+assistant.ResponseUnknownIntent+"**")
}

func TestRunner_TurnFailureIsReported(t *testing.T) {
	eng := newEngine(t, assistant.Collaborators{
		Eligibility: assistant.EligibilityFunc(func(context.Context, domain.State) (domain.Update, error) {
			return nil, assert.AnError
		}),
	})
	var out bytes.Buffer
	in := strings.NewReader("am I eligible\nhello\n")

	r := runner.New(runner.WithInputHandler(runner.NewTextHandler(in, &out)))
	require.NoError(t, r.Run(context.Background(), eng))

	assert.Contains(t, out.String(), "[system] turn failed")
	assert.Contains(t, out.String(), assistant.ResponseUnknownIntent, "the loop continues after a failed turn")
}

func TestRunner_StopsWhenSessionEnds(t *testing.T) {
	b := dsl.New()
	b.Add("ask").Go("bye")
	b.Add("bye").
		DoFunc(func(_ context.Context, s domain.State) (domain.Update, domain.State, error) {
			return domain.Update{assistant.KeyResponse: "goodbye"}, s, nil
		}).
		Terminal()
	g, err := b.Build()
	require.NoError(t, err)
	eng, err := waypoint.New(g)
	require.NoError(t, err)

	var out bytes.Buffer
	in := strings.NewReader("hi\nanyone there?\nnever read\n")
	r := runner.New(runner.WithSessionID("short"), runner.WithInputHandler(runner.NewTextHandler(in, &out, runner.WithTextHandlerPrompt(""))))
	require.NoError(t, r.Run(context.Background(), eng))

	assert.Contains(t, out.String(), "goodbye")
	assert.Contains(t, out.String(), "[system] session ended")
	assert.NotContains(t, out.String(), "turn failed")

	s, err := eng.Session(context.Background(), "short")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Turn)
}

func TestRunner_JSONConversation(t *testing.T) {
	eng := newEngine(t, assistant.Collaborators{})
	in := strings.NewReader("\"upload the ifc\"\nplain text message\n")
	var out bytes.Buffer

	r := runner.New(runner.WithSessionID("json"), runner.WithInputHandler(runner.NewJSONHandler(in, &out)))
	require.NoError(t, r.Run(context.Background(), eng))

	dec := json.NewDecoder(&out)
	var first, second runner.Reply
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))

	assert.Equal(t, "json", first.SessionID)
	assert.Equal(t, 1, first.Turn)
	assert.Equal(t, []string{"check_safety", "decide_mode", "upload_ifc_file", "prompt"}, first.Path)
	assert.Equal(t, assistant.ResponseUnknownIntent, second.Response)
}

func TestRunner_CancelledContext(t *testing.T) {
	eng := newEngine(t, assistant.Collaborators{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := runner.New(runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("hi\n"), &bytes.Buffer{})))
	assert.NoError(t, r.Run(ctx, eng))
}
