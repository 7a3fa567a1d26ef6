package system

import (
	"context"
	"io"
	"sync"
)

// MockExecutor implements CommandExecutor for testing.
type MockExecutor struct {
	mu sync.Mutex

	// Commands records all executed commands.
	Commands []MockCommand

	// Responses maps command patterns to responses.
	// Key format: "command" or "command arg1".
	Responses map[string]MockResponse

	// DefaultResponse is used when no matching response is found.
	DefaultResponse MockResponse
}

// MockCommand records an executed command.
type MockCommand struct {
	Name  string
	Args  []string
	Dir   string
	Env   []string
	Stdin string
}

// MockResponse defines the response for a command.
type MockResponse struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Err      error
}

// NewMockExecutor creates a new MockExecutor.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		Commands:  make([]MockCommand, 0),
		Responses: make(map[string]MockResponse),
	}
}

// AddResponse adds a response for a specific command pattern.
func (m *MockExecutor) AddResponse(pattern string, stdout []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[pattern] = MockResponse{Stdout: stdout, Err: err}
}

// AddExit makes pattern finish with a non-zero exit code and stderr.
func (m *MockExecutor) AddExit(pattern string, code int, stderr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[pattern] = MockResponse{
		Stderr:   []byte(stderr),
		ExitCode: code,
		Err:      &ExitError{Name: pattern, Code: code, Stderr: stderr},
	}
}

func (m *MockExecutor) Run(ctx context.Context, c Command) (*Output, error) {
	var stdin string
	if c.Stdin != nil {
		data, _ := io.ReadAll(c.Stdin)
		stdin = string(data)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Commands = append(m.Commands, MockCommand{
		Name:  c.Name,
		Args:  append([]string(nil), c.Args...),
		Dir:   c.Dir,
		Env:   c.Env,
		Stdin: stdin,
	})

	resp := m.lookup(c)
	return &Output{
		Stdout:   resp.Stdout,
		Stderr:   resp.Stderr,
		ExitCode: resp.ExitCode,
	}, resp.Err
}

func (m *MockExecutor) lookup(c Command) MockResponse {
	if len(c.Args) > 0 {
		if resp, ok := m.Responses[c.Name+" "+c.Args[0]]; ok {
			return resp
		}
	}
	if resp, ok := m.Responses[c.Name]; ok {
		return resp
	}
	return m.DefaultResponse
}

// LastCommand returns the most recently executed command.
func (m *MockExecutor) LastCommand() (MockCommand, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Commands) == 0 {
		return MockCommand{}, false
	}
	return m.Commands[len(m.Commands)-1], true
}

// CommandsFor returns every recorded command whose first argument is sub.
func (m *MockExecutor) CommandsFor(sub string) []MockCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MockCommand
	for _, c := range m.Commands {
		if len(c.Args) > 0 && c.Args[0] == sub {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears all recorded commands.
func (m *MockExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands = make([]MockCommand, 0)
}
