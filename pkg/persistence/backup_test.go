package persistence_test

import (
	"testing"

	"github.com/chartrunner/chartrunner/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupAndRestore(t *testing.T) {
	storage := persistence.NewMemoryStorage()
	mgr := persistence.NewManager(storage, persistence.YAMLCodec{}, fixedNow())

	state := sampleState()
	require.NoError(t, mgr.Save("save-1", state, sampleHistory()))
	backupID, err := mgr.Backup("save-1")
	require.NoError(t, err)

	overwritten := sampleState()
	overwritten.Context.Set("coins", 0)
	require.NoError(t, mgr.Save("save-1", overwritten, sampleHistory()))

	loaded, _, err := mgr.Load("save-1")
	require.NoError(t, err)
	coins, _ := loaded.Context.Get("coins")
	assert.Equal(t, 0, coins)

	require.NoError(t, mgr.RestoreBackup("save-1", backupID))
	restored, _, err := mgr.Load("save-1")
	require.NoError(t, err)
	restoredCoins, _ := restored.Context.Get("coins")
	assert.Equal(t, 15, restoredCoins)
}

func TestBackupRingEvictsOldest(t *testing.T) {
	storage := persistence.NewMemoryStorage()
	mgr := persistence.NewManager(storage, persistence.YAMLCodec{}, fixedNow())
	require.NoError(t, mgr.Save("ring", sampleState(), sampleHistory()))

	var ids []string
	for i := 0; i < persistence.MaxBackupsPerMachine+2; i++ {
		id, err := mgr.Backup("ring")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	remaining, err := mgr.ListBackups("ring")
	require.NoError(t, err)
	assert.Len(t, remaining, persistence.MaxBackupsPerMachine)
	assert.Equal(t, ids[len(ids)-persistence.MaxBackupsPerMachine:], remaining)
}

func TestDeleteAllRemovesBackups(t *testing.T) {
	storage := persistence.NewMemoryStorage()
	mgr := persistence.NewManager(storage, persistence.YAMLCodec{}, fixedNow())
	require.NoError(t, mgr.Save("purge-me", sampleState(), sampleHistory()))
	_, err := mgr.Backup("purge-me")
	require.NoError(t, err)

	require.NoError(t, mgr.DeleteAll("purge-me"))
	backups, err := mgr.ListBackups("purge-me")
	require.NoError(t, err)
	assert.Empty(t, backups)
	_, _, err = mgr.Load("purge-me")
	require.Error(t, err)
}
