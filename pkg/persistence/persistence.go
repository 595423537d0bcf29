// Package persistence implements snapshot/restore of a MachineState and
// its history tracker against a pluggable key-value Storage backend,
// with a pluggable wire Codec so the core does not mandate a format.
package persistence

import (
	"fmt"
	"time"

	"github.com/chartrunner/chartrunner/pkg/history"
	"github.com/chartrunner/chartrunner/pkg/machine"
	"github.com/chartrunner/chartrunner/pkg/value"
	"gopkg.in/yaml.v3"
)

// Storage is the abstract capability set a persistence backend must
// provide: a flat, prefix-listable key-value store.
type Storage interface {
	Put(key string, data []byte) error
	Get(key string) ([]byte, error)
	ListPrefix(prefix string) ([]string, error)
	Delete(key string) error
}

// SchemaVersion is the current on-disk envelope version. Manager rejects
// records from a newer, incompatible schema with CodeSchemaIncompatible.
const SchemaVersion = 1

// SnapshotRecord is the persisted envelope for one machine's state plus
// its history tracker, wire-encoded by Codec into StateData/HistoryData
// and checksummed as a whole.
type SnapshotRecord struct {
	MachineID     string    `yaml:"machine_id"`
	SchemaVersion int       `yaml:"schema_version"`
	SavedAt       time.Time `yaml:"saved_at"`
	Checksum      string    `yaml:"checksum"`
	StateData     []byte    `yaml:"state_data"`
	HistoryData   []byte    `yaml:"history_data"`
}

// MachineInfo is the metadata summary returned by Manager.List.
type MachineInfo struct {
	MachineID     string
	SchemaVersion int
	SavedAt       time.Time
}

// Manager implements save/load/list/delete against a Storage backend
// using an injected Codec and clock.
type Manager struct {
	Storage Storage
	Codec   Codec
	Now     func() time.Time
}

// NewManager builds a Manager. now defaults to time.Now.
func NewManager(storage Storage, codec Codec, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{Storage: storage, Codec: codec, Now: now}
}

// Save encodes state and the history snapshot via the configured Codec
// and writes a checksummed envelope under machineID. Storage
// implementations that support atomic write-then-rename should do so;
// Manager itself only guarantees the checksum lets Load detect a
// torn write.
func (m *Manager) Save(machineID string, state machine.MachineState, historySnap history.Snapshot) error {
	if err := ValidateMachineID(machineID); err != nil {
		return err
	}
	stateData, err := m.Codec.EncodeState(state.Value, state.Context)
	if err != nil {
		return value.NewError(value.CodeBackendUnavailable, "encode state: "+err.Error())
	}
	historyData, err := m.Codec.EncodeHistory(historySnap)
	if err != nil {
		return value.NewError(value.CodeBackendUnavailable, "encode history: "+err.Error())
	}
	record := SnapshotRecord{
		MachineID:     machineID,
		SchemaVersion: SchemaVersion,
		SavedAt:       m.Now(),
		StateData:     stateData,
		HistoryData:   historyData,
	}
	record.Checksum = Checksum(append(append([]byte(nil), stateData...), historyData...))

	raw, err := yaml.Marshal(record)
	if err != nil {
		return value.NewError(value.CodeBackendUnavailable, "marshal envelope: "+err.Error())
	}
	return m.Storage.Put(machineID, raw)
}

// Load reads and validates the envelope for machineID, decoding the
// state and history snapshot via the configured Codec.
func (m *Manager) Load(machineID string) (machine.MachineState, history.Snapshot, error) {
	raw, err := m.Storage.Get(machineID)
	if err != nil {
		return machine.MachineState{}, history.Snapshot{}, value.NewError(value.CodePersistenceNotFound, machineID+": "+err.Error())
	}
	var record SnapshotRecord
	if err := yaml.Unmarshal(raw, &record); err != nil {
		return machine.MachineState{}, history.Snapshot{}, value.NewError(value.CodeSchemaIncompatible, "unmarshal envelope: "+err.Error())
	}
	if record.SchemaVersion > SchemaVersion {
		return machine.MachineState{}, history.Snapshot{}, value.NewError(value.CodeSchemaIncompatible,
			fmt.Sprintf("record schema %d newer than supported %d", record.SchemaVersion, SchemaVersion))
	}
	want := Checksum(append(append([]byte(nil), record.StateData...), record.HistoryData...))
	if want != record.Checksum {
		return machine.MachineState{}, history.Snapshot{}, value.NewError(value.CodeChecksumMismatch, machineID)
	}

	sv, ctx, err := m.Codec.DecodeState(record.StateData)
	if err != nil {
		return machine.MachineState{}, history.Snapshot{}, value.NewError(value.CodeSchemaIncompatible, "decode state: "+err.Error())
	}
	snap, err := m.Codec.DecodeHistory(record.HistoryData)
	if err != nil {
		return machine.MachineState{}, history.Snapshot{}, value.NewError(value.CodeSchemaIncompatible, "decode history: "+err.Error())
	}
	return machine.MachineState{Value: sv, Context: ctx}, snap, nil
}

// List returns metadata for every saved machine. Backup keys (those
// containing "/") are excluded.
func (m *Manager) List() ([]MachineInfo, error) {
	keys, err := m.Storage.ListPrefix("")
	if err != nil {
		return nil, value.NewError(value.CodeBackendUnavailable, err.Error())
	}
	var out []MachineInfo
	for _, key := range keys {
		if containsSlash(key) {
			continue
		}
		raw, err := m.Storage.Get(key)
		if err != nil {
			continue
		}
		var record SnapshotRecord
		if err := yaml.Unmarshal(raw, &record); err != nil {
			continue
		}
		out = append(out, MachineInfo{MachineID: key, SchemaVersion: record.SchemaVersion, SavedAt: record.SavedAt})
	}
	return out, nil
}

// Delete removes the primary record for machineID. It does not remove
// backups; callers wanting a full purge list and delete them explicitly.
func (m *Manager) Delete(machineID string) error {
	return m.Storage.Delete(machineID)
}

func containsSlash(s string) bool {
	for _, r := range s {
		if r == '/' {
			return true
		}
	}
	return false
}
