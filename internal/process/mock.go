package process

import (
	"context"
	"sync"
)

// MockRunner is a Runner for tests. Unset funcs panic so a test never
// silently runs an unexpected command.
type MockRunner struct {
	RunInDirFunc    func(ctx context.Context, dir string, env []string, name string, args ...string) (string, string, int, error)
	RunCombinedFunc func(ctx context.Context, name string, args ...string) ([]byte, int, error)

	mu    sync.Mutex
	calls []Call
}

// Call records a single invocation.
type Call struct {
	Method string
	Dir    string
	Env    []string
	Name   string
	Args   []string
}

// RunInDir delegates to RunInDirFunc and records the call.
func (m *MockRunner) RunInDir(ctx context.Context, dir string, env []string, name string, args ...string) (string, string, int, error) {
	m.record(Call{Method: "RunInDir", Dir: dir, Env: env, Name: name, Args: args})
	if m.RunInDirFunc == nil {
		panic("MockRunner.RunInDirFunc not set")
	}
	return m.RunInDirFunc(ctx, dir, env, name, args...)
}

// RunCombined delegates to RunCombinedFunc and records the call.
func (m *MockRunner) RunCombined(ctx context.Context, name string, args ...string) ([]byte, int, error) {
	m.record(Call{Method: "RunCombined", Name: name, Args: args})
	if m.RunCombinedFunc == nil {
		panic("MockRunner.RunCombinedFunc not set")
	}
	return m.RunCombinedFunc(ctx, name, args...)
}

func (m *MockRunner) record(c Call) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

// Calls returns a copy of the recorded calls.
func (m *MockRunner) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

var _ Runner = (*MockRunner)(nil)
