package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/contablebot/portal-api/pkg/jwt"
)

const testSecret = "test-secret-key-for-unit-tests"

var testSession = pkgjwt.Session{UserID: 11, FirmID: 3, FirmName: "Contadores SRL", Email: "ana@contadores.do", Role: "admin"}

func TestGenerateAndParse(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testSession, "contablebot-test", 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	s, err := pkgjwt.Parse(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, testSession, *s)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testSession, "contablebot-test", -1)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, tok)
	assert.Error(t, err, "token expirado debe retornar error")
}

func TestParse_SecretIncorrecto(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testSession, "contablebot-test", 60)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro-secret-completamente-distinto", tok)
	assert.Error(t, err)
}

func TestParse_SinFirma(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, pkgjwt.Session{UserID: 1}, "contablebot-test", 60)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, tok)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", testSession, "x", 60)
	assert.Error(t, err)
}
