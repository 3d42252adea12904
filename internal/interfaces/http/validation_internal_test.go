package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidator_RegistraRNC(t *testing.T) {
	v, err := newValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Var("1-30-12345-4", "rnc"))
	assert.NoError(t, v.Var("", "rnc"))
	assert.Error(t, v.Var("12345", "rnc"))
	assert.Error(t, v.Var("", "required,rnc"))
}

func TestMustValidator_NoEntraEnPanico(t *testing.T) {
	assert.NotPanics(t, func() { mustValidator() })
}
