package persistence_test

import (
	"testing"

	"github.com/chartrunner/chartrunner/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMachineID(t *testing.T) {
	require.NoError(t, persistence.ValidateMachineID("game-1"))
	require.Error(t, persistence.ValidateMachineID(""))
	require.Error(t, persistence.ValidateMachineID("bad/id"))
	require.Error(t, persistence.ValidateMachineID("bad id"))
}

func TestSanitizeMachineID(t *testing.T) {
	assert.Equal(t, "bad_id", persistence.SanitizeMachineID("bad/id"))
	assert.Equal(t, "bad_id_too", persistence.SanitizeMachineID("bad id too"))
	assert.Equal(t, "machine", persistence.SanitizeMachineID(""))
	require.NoError(t, persistence.ValidateMachineID(persistence.SanitizeMachineID("bad/weird id")))
}

func TestGenerateMachineIDIsUniqueAndValid(t *testing.T) {
	a := persistence.GenerateMachineID()
	b := persistence.GenerateMachineID()
	assert.NotEqual(t, a, b)
	require.NoError(t, persistence.ValidateMachineID(a))
}

func TestChecksumIsDeterministicAndSensitive(t *testing.T) {
	a := persistence.Checksum([]byte("hello"))
	b := persistence.Checksum([]byte("hello"))
	c := persistence.Checksum([]byte("hellx"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
