package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("branch/main")
	require.NoError(t, err)
	assert.True(t, v.IsDynamic())
	assert.Equal(t, "main", v.Name)
	assert.Equal(t, "branch/main", v.String())

	v, err = ParseVersion("tag/v1.2.0")
	require.NoError(t, err)
	assert.True(t, v.IsStatic())
	assert.Equal(t, "tag/v1.2.0", v.String())

	// names may contain slashes
	v, err = ParseVersion("branch/release/2020.1")
	require.NoError(t, err)
	assert.Equal(t, "release/2020.1", v.Name)

	for _, invalid := range []string{"", "main", "branch/", "commit/abc", "tag"} {
		_, err = ParseVersion(invalid)
		assert.Error(t, err, "literal: %q", invalid)
	}
}

func TestVersionZero(t *testing.T) {
	var v Version
	assert.True(t, v.IsZero())
	assert.False(t, v.IsDynamic())
	assert.False(t, v.IsStatic())
	assert.Empty(t, v.String())
}

func TestVersionYAMLRoundTrip(t *testing.T) {
	in := NewStatic("v1.0.0")
	b, err := yaml.Marshal(in)
	require.NoError(t, err)

	var out Version
	require.NoError(t, yaml.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}

func TestParseModuleVersion(t *testing.T) {
	mv, err := ParseModuleVersion("platform/app-alpha@branch/main")
	require.NoError(t, err)
	assert.Equal(t, "platform/app-alpha", mv.Module)
	assert.Equal(t, NewDynamic("main"), mv.Version)
	assert.Equal(t, "platform/app-alpha@branch/main", mv.String())

	for _, invalid := range []string{"", "platform/app", "@branch/main", "a//b@tag/x", "a@b@tag/x"} {
		_, err = ParseModuleVersion(invalid)
		assert.Error(t, err, "literal: %q", invalid)
	}
}
