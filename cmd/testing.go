package cmd

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/spf13/cobra"
)

// mu serialises the executions, so tests can share one command across goroutines.
var mu sync.Mutex

// TestExecute executes command with args and returns everything it wrote to stdout and stderr.
func TestExecute(t *testing.T, command *cobra.Command, args ...string) (string, error) {
	t.Helper()

	return TestExecuteContext(t, context.Background(), command, args...)
}

// TestExecuteContext is like TestExecute, but the command runs with ctx,
// e.g. use a cancelled context to stop a blocking command right away.
func TestExecuteContext(t *testing.T, ctx context.Context, command *cobra.Command, args ...string) (string, error) { //nolint:revive // t is first, as in all test helpers
	t.Helper()

	mu.Lock()
	defer mu.Unlock()

	out := &syncBuffer{} //nolint:exhaustruct
	command.SetOut(out)
	command.SetErr(out)
	command.SetArgs(args)

	_, err := command.ExecuteContextC(ctx)

	return out.String(), err //nolint:wrapcheck // the test inspects the error of the command
}

// syncBuffer is an io.Writer that is safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p) //nolint:wrapcheck
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}
