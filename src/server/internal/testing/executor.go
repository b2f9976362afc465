package testing

import (
	"context"
	"sync"

	"github.com/stemremover/stem-remover-be/src/server/internal/lib/executor"
)

var _ executor.Executor = &FakeExecutor{}

// FakeExecutor satisfies the executor seam without spawning processes.
// Respond decides what each invoked command writes to stdout.
type FakeExecutor struct {
	Respond func(name string, arg ...string) ([]byte, error)

	mutex sync.Mutex
	calls []FakeCall
}

type FakeCall struct {
	Name string
	Args []string
	Dir  string
}

func (f *FakeExecutor) Command(ctx context.Context, name string, arg ...string) executor.Command {
	return &fakeCommand{executor: f, name: name, args: arg}
}

func (f *FakeExecutor) Calls() []FakeCall {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return append([]FakeCall{}, f.calls...)
}

type fakeCommand struct {
	executor *FakeExecutor
	name     string
	args     []string
	dir      string
}

func (c *fakeCommand) SetDir(dir string) {
	c.dir = dir
}

func (c *fakeCommand) CombinedOutput() ([]byte, error) {
	return c.run()
}

func (c *fakeCommand) Output() ([]byte, error) {
	return c.run()
}

func (c *fakeCommand) run() ([]byte, error) {
	c.executor.mutex.Lock()
	c.executor.calls = append(c.executor.calls, FakeCall{Name: c.name, Args: c.args, Dir: c.dir})
	c.executor.mutex.Unlock()

	return c.executor.Respond(c.name, c.args...)
}
