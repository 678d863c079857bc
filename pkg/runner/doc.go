/*
Package runner drives an interactive conversation against a ports.Engine.

It reads one message at a time from an IOHandler, sanitizes it, runs a turn
and hands the resulting reply back to the handler for display. Handlers
decide the interaction mode: TextHandler for people at a terminal,
JSONHandler for programs speaking JSON lines.

# Usage

	r := runner.New(
		runner.WithSessionID("user-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx, engine); err != nil {
		log.Fatal(err)
	}
*/
package runner
