package persistence

import (
	"github.com/chartrunner/chartrunner/pkg/history"
	"github.com/chartrunner/chartrunner/pkg/value"
	"gopkg.in/yaml.v3"
)

// Codec converts a MachineState's pieces and a history snapshot to and
// from bytes. The core does not mandate a wire format; callers may plug
// in anything, though YAMLCodec is the one this module ships and
// exercises.
type Codec interface {
	EncodeState(value.StateValue, value.Context) ([]byte, error)
	DecodeState([]byte) (value.StateValue, value.Context, error)
	EncodeHistory(history.Snapshot) ([]byte, error)
	DecodeHistory([]byte) (history.Snapshot, error)
}

// stateValueDTO is the serializable shadow of value.StateValue: the real
// type keeps its fields unexported to preserve its construction
// invariants, so the codec walks it through its exported accessors.
type stateValueDTO struct {
	Kind     int             `yaml:"kind"`
	Name     string          `yaml:"name"`
	Child    *stateValueDTO  `yaml:"child,omitempty"`
	Children []stateValueDTO `yaml:"children,omitempty"`
}

func toStateValueDTO(v value.StateValue) stateValueDTO {
	dto := stateValueDTO{Kind: int(v.Kind()), Name: v.Name()}
	switch v.Kind() {
	case value.KindCompound:
		child := toStateValueDTO(v.Child())
		dto.Child = &child
	case value.KindParallel:
		regions := v.Regions()
		dto.Children = make([]stateValueDTO, len(regions))
		for i, r := range regions {
			dto.Children[i] = toStateValueDTO(r)
		}
	}
	return dto
}

func fromStateValueDTO(dto stateValueDTO) value.StateValue {
	switch value.StateValueKind(dto.Kind) {
	case value.KindCompound:
		return value.Compound(dto.Name, fromStateValueDTO(*dto.Child))
	case value.KindParallel:
		regions := make([]value.StateValue, len(dto.Children))
		for i, c := range dto.Children {
			regions[i] = fromStateValueDTO(c)
		}
		return value.Parallel(dto.Name, regions)
	default:
		return value.Simple(dto.Name)
	}
}

// stateEnvelope bundles a configuration with its context data for a
// single codec payload. The live Event pointer on Context is never
// persisted: it only exists during an in-flight Transition call.
type stateEnvelope struct {
	Value stateValueDTO  `yaml:"value"`
	Data  map[string]any `yaml:"data"`
}

// YAMLCodec encodes with gopkg.in/yaml.v3.
type YAMLCodec struct{}

func (YAMLCodec) EncodeState(sv value.StateValue, ctx value.Context) ([]byte, error) {
	env := stateEnvelope{Value: toStateValueDTO(sv), Data: ctx.Data}
	return yaml.Marshal(env)
}

func (YAMLCodec) DecodeState(data []byte) (value.StateValue, value.Context, error) {
	var env stateEnvelope
	if err := yaml.Unmarshal(data, &env); err != nil {
		return value.StateValue{}, value.Context{}, err
	}
	ctx := value.NewContext()
	for k, v := range env.Data {
		ctx.Set(k, v)
	}
	return fromStateValueDTO(env.Value), ctx, nil
}

func (YAMLCodec) EncodeHistory(snap history.Snapshot) ([]byte, error) {
	return yaml.Marshal(snap)
}

func (YAMLCodec) DecodeHistory(data []byte) (history.Snapshot, error) {
	var snap history.Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return history.Snapshot{}, err
	}
	return snap, nil
}

// IdentityCodec is the reference codec used to exercise the round-trip
// property: load(save(m)) reproduces the saved state and
// history exactly, with no lossy transformation introduced by the wire
// format itself. It shares YAMLCodec's encoding since the DTOs above
// already preserve full fidelity; a second, distinct format would not
// demonstrate anything the round-trip test doesn't already cover.
type IdentityCodec struct{ YAMLCodec }

// NewIdentityCodec builds the reference round-trip codec.
func NewIdentityCodec() IdentityCodec { return IdentityCodec{} }
