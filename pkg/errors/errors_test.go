package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	e1 := New("cause1")
	e2 := New("cause2").Wrap(e1)
	e := New("dummy").Wrap(e2)
	e3 := e.Unwrap()
	assert.True(t, Is(e, e1))
	assert.True(t, Is(e, e2))
	assert.True(t, e3 == e2)
}

func TestErrorWrapSentinel(t *testing.T) {
	sentinel := New("resource unavailable")

	a := sentinel.Wrap(New("cause a"))
	b := sentinel.Wrap(New("cause b"))

	// the sentinel is untouched, the two wraps are independent
	assert.Nil(t, sentinel.Unwrap())
	assert.True(t, Is(a, sentinel))
	assert.True(t, Is(b, sentinel))
	assert.Equal(t, "cause a", a.Unwrap().Error())
	assert.Equal(t, "cause b", b.Unwrap().Error())
}

func TestErrorWrapMessage(t *testing.T) {
	sentinel := New("something went wrong")
	detailed := sentinel.WrapMessage("module %s at %s", "a/b", "branch/main")

	// the sentinel is untouched and still matches
	assert.Nil(t, sentinel.Unwrap())
	assert.True(t, Is(detailed, sentinel))
	assert.Equal(t, sentinel.Error(), detailed.Error())
	assert.Contains(t, detailed.Unwrap().Error(), "a/b")
}
