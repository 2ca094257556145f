// Copyright © 2020 Skyline Tools

package interact

import (
	"fmt"
	"io"
	"os"

	"github.com/skylinetools/graft/pkg/model"
)

// NoInput is the non-interactive implementation: prompts are answered from
// remembered values and defaults only, and fail with ErrInputRequired when
// neither exists.
type NoInput struct {
	out    io.Writer
	memory Memory
	_      struct{}
}

// NoInputOption alters the build of a non-interactive interactor.
type NoInputOption func(*NoInput)

// Output sets the stream informational messages go to.
func Output(out io.Writer) NoInputOption {
	return func(n *NoInput) {
		n.out = out
	}
}

// Remembered sets the store remembered answers are read from.
func Remembered(memory Memory) NoInputOption {
	return func(n *NoInput) {
		n.memory = memory
	}
}

// NewNoInput builds a non-interactive interactor.
func NewNoInput(opts ...NoInputOption) *NoInput {
	n := &NoInput{out: os.Stdout}
	for _, apply := range opts {
		apply(n)
	}
	return n
}

// PromptVersion yields the default when one is given, ErrInputRequired
// otherwise.
func (n *NoInput) PromptVersion(prompt string, def *model.Version) (model.Version, error) {
	if def != nil {
		return *def, nil
	}
	return model.Version{}, ErrInputRequired.WrapMessage("prompt: %s", prompt)
}

// Ask answers from the remembered response. The two ask-again states answer
// with their default; an unset memory answers no.
func (n *NoInput) Ask(scope, key, _ string) (bool, error) {
	if n.memory == nil {
		return false, nil
	}
	value, ok := n.memory.Get(scope, key)
	if !ok {
		return false, nil
	}
	r := ParseResponse(value)
	return r == ResponseAlways || r == ResponseYesAsk, nil
}

// Info displays an informational message.
func (n *NoInput) Info(format string, args ...interface{}) {
	fmt.Fprintf(n.out, format+"\n", args...)
}

// Bracket opens a bracketed progress section.
func (n *NoInput) Bracket(label string) func() {
	fmt.Fprintf(n.out, "[ %s ]\n", label)
	return func() {
		fmt.Fprintf(n.out, "[ /%s ]\n", label)
	}
}
