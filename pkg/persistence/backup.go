package persistence

import (
	"sort"
	"strconv"
	"strings"

	"github.com/chartrunner/chartrunner/pkg/value"
)

// MaxBackupsPerMachine bounds the backup ring; Backup evicts the oldest
// backup once this many accumulate for a machine.
const MaxBackupsPerMachine = 5

func backupKey(machineID, backupID string) string {
	return machineID + "/" + backupID
}

// Backup copies the machine's current primary record into the backup
// ring under a new, monotonically increasing backup id, evicting the
// oldest backup if the ring is already full.
func (m *Manager) Backup(machineID string) (string, error) {
	raw, err := m.Storage.Get(machineID)
	if err != nil {
		return "", value.NewError(value.CodePersistenceNotFound, machineID+": "+err.Error())
	}
	ids, err := m.ListBackups(machineID)
	if err != nil {
		return "", err
	}
	next := 0
	if len(ids) > 0 {
		last, _ := strconv.Atoi(ids[len(ids)-1])
		next = last + 1
	}
	backupID := strconv.Itoa(next)
	if err := m.Storage.Put(backupKey(machineID, backupID), raw); err != nil {
		return "", value.NewError(value.CodeBackendUnavailable, err.Error())
	}
	ids = append(ids, backupID)
	for len(ids) > MaxBackupsPerMachine {
		oldest := ids[0]
		ids = ids[1:]
		_ = m.Storage.Delete(backupKey(machineID, oldest))
	}
	return backupID, nil
}

// ListBackups returns backup ids for machineID, oldest first.
func (m *Manager) ListBackups(machineID string) ([]string, error) {
	keys, err := m.Storage.ListPrefix(machineID + "/")
	if err != nil {
		return nil, value.NewError(value.CodeBackendUnavailable, err.Error())
	}
	prefix := machineID + "/"
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, prefix))
	}
	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.Atoi(ids[i])
		b, _ := strconv.Atoi(ids[j])
		return a < b
	})
	return ids, nil
}

// RestoreBackup overwrites the primary record for machineID with the
// named backup's contents. The backup entry itself is left in the ring.
func (m *Manager) RestoreBackup(machineID, backupID string) error {
	raw, err := m.Storage.Get(backupKey(machineID, backupID))
	if err != nil {
		return value.NewError(value.CodePersistenceNotFound, backupKey(machineID, backupID)+": "+err.Error())
	}
	if err := m.Storage.Put(machineID, raw); err != nil {
		return value.NewError(value.CodeBackendUnavailable, err.Error())
	}
	return nil
}

// DeleteAll removes the primary record and every backup for machineID.
func (m *Manager) DeleteAll(machineID string) error {
	ids, err := m.ListBackups(machineID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		_ = m.Storage.Delete(backupKey(machineID, id))
	}
	return m.Storage.Delete(machineID)
}
