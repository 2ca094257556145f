// Copyright © 2020 Skyline Tools

// Package interact is the prompting boundary of the engine: version prompts,
// yes/no questions with remembered answers, and bracketed progress display.
//
// The engine never reads the terminal itself. It goes through an Interactor,
// so jobs can run fully scripted (tests, --no-input) or interactively.
package interact

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/skylinetools/graft/pkg/errors"
	"github.com/skylinetools/graft/pkg/model"
)

// ErrInputRequired indicates a prompt that cannot be answered because the
// run is non-interactive and no remembered or default answer exists.
var ErrInputRequired = errors.New("interactive input required")

// Response is the remembered 4-state answer to a yes/no question: the two
// decided states need no further prompting, the two others keep asking with
// a different default.
type Response int

const (
	// ResponseUnset means no answer has been remembered yet.
	ResponseUnset Response = iota

	// ResponseAlways answers yes without prompting.
	ResponseAlways

	// ResponseNever answers no without prompting.
	ResponseNever

	// ResponseYesAsk prompts again with yes as the default.
	ResponseYesAsk

	// ResponseNoAsk prompts again with no as the default.
	ResponseNoAsk
)

func (r Response) String() string {
	switch r {
	case ResponseAlways:
		return "always"
	case ResponseNever:
		return "never"
	case ResponseYesAsk:
		return "yes-ask"
	case ResponseNoAsk:
		return "no-ask"
	default:
		return ""
	}
}

// ParseResponse parses a remembered response value.
func ParseResponse(value string) Response {
	switch value {
	case "always":
		return ResponseAlways
	case "never":
		return ResponseNever
	case "yes-ask":
		return ResponseYesAsk
	case "no-ask":
		return ResponseNoAsk
	default:
		return ResponseUnset
	}
}

// Memory persists remembered answers between runs. Implemented by the props
// store.
type Memory interface {
	Get(scope, name string) (string, bool)
	Set(scope, name, value string) error
}

// Interactor is the interactive capability consumed by jobs.
type Interactor interface {
	// PromptVersion asks the operator for a version. A non-nil def is
	// offered as the default answer.
	PromptVersion(prompt string, def *model.Version) (model.Version, error)

	// Ask asks a yes/no question remembered under (scope, key): answers may
	// settle the question for good ("always"/"never") or only set the next
	// default.
	Ask(scope, key, prompt string) (bool, error)

	// Info displays an informational message to the operator.
	Info(format string, args ...interface{})

	// Bracket opens a bracketed progress section and yields the func
	// closing it.
	Bracket(label string) func()
}

var (
	bracketColor = color.New(color.FgCyan)
	promptColor  = color.New(color.FgYellow, color.Bold)
)

// Terminal is the interactive implementation over a terminal.
type Terminal struct {
	in     *bufio.Reader
	out    io.Writer
	memory Memory
	_      struct{}
}

// TerminalOption alters the build of a terminal interactor.
type TerminalOption func(*Terminal)

// Streams sets the input and output streams, defaulting to stdin/stdout.
func Streams(in io.Reader, out io.Writer) TerminalOption {
	return func(t *Terminal) {
		t.in = bufio.NewReader(in)
		t.out = out
	}
}

// WithMemory sets the store remembered answers persist to.
func WithMemory(memory Memory) TerminalOption {
	return func(t *Terminal) {
		t.memory = memory
	}
}

// NewTerminal builds a terminal interactor.
func NewTerminal(opts ...TerminalOption) *Terminal {
	t := &Terminal{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
	}
	for _, apply := range opts {
		apply(t)
	}
	return t
}

// PromptVersion asks for a version literal until a valid one is typed.
func (t *Terminal) PromptVersion(prompt string, def *model.Version) (model.Version, error) {
	for {
		if def != nil {
			_, _ = promptColor.Fprintf(t.out, "%s [%s]: ", prompt, def)
		} else {
			_, _ = promptColor.Fprintf(t.out, "%s: ", prompt)
		}
		line, err := t.in.ReadString('\n')
		if err != nil && line == "" {
			return model.Version{}, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			if def != nil {
				return *def, nil
			}
			continue
		}
		v, err := model.ParseVersion(line)
		if err != nil {
			fmt.Fprintf(t.out, "%v\n", err)
			continue
		}
		return v, nil
	}
}

// Ask asks a yes/no question, honoring and updating the remembered answer.
func (t *Terminal) Ask(scope, key, prompt string) (bool, error) {
	remembered := t.remembered(scope, key)
	switch remembered {
	case ResponseAlways:
		return true, nil
	case ResponseNever:
		return false, nil
	}
	def := remembered == ResponseYesAsk

	for {
		hint := "y/N/always/never"
		if def {
			hint = "Y/n/always/never"
		}
		_, _ = promptColor.Fprintf(t.out, "%s [%s]: ", prompt, hint)
		line, err := t.in.ReadString('\n')
		if err != nil && line == "" {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def, t.remember(scope, key, rememberFor(def))
		case "y", "yes":
			return true, t.remember(scope, key, ResponseYesAsk)
		case "n", "no":
			return false, t.remember(scope, key, ResponseNoAsk)
		case "a", "always":
			return true, t.remember(scope, key, ResponseAlways)
		case "never":
			return false, t.remember(scope, key, ResponseNever)
		default:
			fmt.Fprintln(t.out, "please answer y, n, always or never")
		}
	}
}

func rememberFor(yes bool) Response {
	if yes {
		return ResponseYesAsk
	}
	return ResponseNoAsk
}

func (t *Terminal) remembered(scope, key string) Response {
	if t.memory == nil {
		return ResponseUnset
	}
	value, ok := t.memory.Get(scope, key)
	if !ok {
		return ResponseUnset
	}
	return ParseResponse(value)
}

func (t *Terminal) remember(scope, key string, r Response) error {
	if t.memory == nil {
		return nil
	}
	return t.memory.Set(scope, key, r.String())
}

// Info displays an informational message.
func (t *Terminal) Info(format string, args ...interface{}) {
	fmt.Fprintf(t.out, format+"\n", args...)
}

// Bracket opens a bracketed progress section.
func (t *Terminal) Bracket(label string) func() {
	_, _ = bracketColor.Fprintf(t.out, "[ %s ]\n", label)
	return func() {
		_, _ = bracketColor.Fprintf(t.out, "[ /%s ]\n", label)
	}
}
