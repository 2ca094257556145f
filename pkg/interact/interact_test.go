package interact

import (
	"bytes"
	"strings"
	"testing"

	"github.com/skylinetools/graft/pkg/model"
	"github.com/skylinetools/graft/pkg/props"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMemory(t *testing.T) Memory {
	t.Helper()
	s, err := props.New(props.Fs(afero.NewMemMapFs()), props.File("p.yaml"))
	require.NoError(t, err)
	return s
}

func TestPromptVersion(t *testing.T) {
	out := &bytes.Buffer{}
	term := NewTerminal(Streams(strings.NewReader("nonsense\nbranch/main\n"), out))

	v, err := term.PromptVersion("source version", nil)
	require.NoError(t, err)
	assert.Equal(t, model.NewDynamic("main"), v)
	assert.Contains(t, out.String(), "invalid version")

	// empty answer takes the default
	def := model.NewStatic("v1.0.0")
	term = NewTerminal(Streams(strings.NewReader("\n"), out))
	v, err = term.PromptVersion("source version", &def)
	require.NoError(t, err)
	assert.Equal(t, def, v)
}

func TestAskRemembersResponses(t *testing.T) {
	memory := testMemory(t)
	out := &bytes.Buffer{}

	term := NewTerminal(Streams(strings.NewReader("y\n"), out), WithMemory(memory))
	yes, err := term.Ask("platform/app", "merge.reuse-source", "reuse the cached source version?")
	require.NoError(t, err)
	assert.True(t, yes)

	// a plain yes only sets the next default: the question is asked again
	term = NewTerminal(Streams(strings.NewReader("\n"), out), WithMemory(memory))
	yes, err = term.Ask("platform/app", "merge.reuse-source", "reuse the cached source version?")
	require.NoError(t, err)
	assert.True(t, yes)

	// "always" settles the question: no input is consumed anymore
	term = NewTerminal(Streams(strings.NewReader("always\n"), out), WithMemory(memory))
	_, err = term.Ask("platform/app", "merge.reuse-source", "reuse?")
	require.NoError(t, err)

	term = NewTerminal(Streams(strings.NewReader(""), out), WithMemory(memory))
	yes, err = term.Ask("platform/app", "merge.reuse-source", "reuse?")
	require.NoError(t, err)
	assert.True(t, yes)
}

func TestNoInput(t *testing.T) {
	memory := testMemory(t)
	require.NoError(t, memory.Set(props.GlobalScope, "continue", ResponseAlways.String()))

	out := &bytes.Buffer{}
	n := NewNoInput(Output(out), Remembered(memory))

	_, err := n.PromptVersion("source version", nil)
	assert.ErrorIs(t, err, ErrInputRequired)

	def := model.NewDynamic("main")
	v, err := n.PromptVersion("source version", &def)
	require.NoError(t, err)
	assert.Equal(t, def, v)

	yes, err := n.Ask(props.GlobalScope, "continue", "continue?")
	require.NoError(t, err)
	assert.True(t, yes)

	yes, err = n.Ask(props.GlobalScope, "unset", "unset?")
	require.NoError(t, err)
	assert.False(t, yes)

	done := n.Bracket("merge platform/app")
	done()
	assert.Contains(t, out.String(), "[ merge platform/app ]")
	assert.Contains(t, out.String(), "[ /merge platform/app ]")
}
