package executor

import (
	"context"
	"os/exec"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

var _ Executor = BinaryExecutor{}

// Executor abstracts subprocess creation so that code shelling out to
// external binaries can be exercised without those binaries present.
//
//counterfeiter:generate . Executor
type Executor interface {
	Command(ctx context.Context, name string, arg ...string) Command
}

//counterfeiter:generate . Command
type Command interface {
	SetDir(dir string)
	CombinedOutput() ([]byte, error)
	Output() ([]byte, error)
}

type BinaryExecutor struct{}

func (b BinaryExecutor) Command(ctx context.Context, name string, arg ...string) Command {
	return &binaryCommand{cmd: exec.CommandContext(ctx, name, arg...)}
}

type binaryCommand struct {
	cmd *exec.Cmd
}

func (b *binaryCommand) SetDir(dir string) {
	b.cmd.Dir = dir
}

func (b *binaryCommand) CombinedOutput() ([]byte, error) {
	return b.cmd.CombinedOutput()
}

func (b *binaryCommand) Output() ([]byte, error) {
	return b.cmd.Output()
}
