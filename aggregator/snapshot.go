package aggregator

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/rulego/streamsql-extra/functions"
	"github.com/rulego/streamsql-extra/types"
	"github.com/rulego/streamsql-extra/utils/compress"
)

// Snapshot is the merged partial state of every group of an aggregator.
// It marshals to JSON and can be folded into another aggregator with the
// same group-by columns and aggregation fields.
type Snapshot struct {
	Groups []GroupSnapshot `json:"groups"`
	// ArgTypes holds the argument types seen per output alias; the state
	// schema of each field is derived from them
	ArgTypes map[string][]types.DataType `json:"argTypes,omitempty"`
}

// GroupSnapshot is the partial state of one group, keyed by output alias
type GroupSnapshot struct {
	Key    string                     `json:"key"`
	Values []interface{}              `json:"values"`
	States map[string]json.RawMessage `json:"states"`
}

// MarshalBinary encodes the snapshot as snappy-compressed JSON
func (s *Snapshot) MarshalBinary() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "encode snapshot")
	}
	return compress.Compress(data)
}

// UnmarshalBinary decodes data written by MarshalBinary
func (s *Snapshot) UnmarshalBinary(data []byte) error {
	raw, err := compress.Decompress(data)
	if err != nil {
		return errors.Wrap(err, "decode snapshot")
	}
	if err := json.Unmarshal(raw, s); err != nil {
		return errors.Wrap(err, "decode snapshot")
	}
	return nil
}

// Snapshot flushes pending rows and exports the state of every group
func (ga *GroupAggregator) Snapshot() (*Snapshot, error) {
	ga.mu.Lock()
	defer ga.mu.Unlock()

	snapshot := &Snapshot{
		Groups:   make([]GroupSnapshot, 0, len(ga.order)),
		ArgTypes: make(map[string][]types.DataType, len(ga.plan.fields)),
	}
	schemas := make([]types.Schema, len(ga.plan.fields))
	for f, field := range ga.plan.fields {
		argTypes := make([]types.DataType, len(ga.argTypes[f]))
		for a, t := range ga.argTypes[f] {
			if t == "" {
				t = types.Null
			}
			argTypes[a] = t
		}
		snapshot.ArgTypes[field.alias] = argTypes
		schemas[f] = ga.stateSchema(f)
	}
	for _, key := range ga.order {
		g := ga.groups[key]
		ga.flush(g)
		states, err := ga.mergedStates(g)
		if err != nil {
			return nil, err
		}
		group := GroupSnapshot{
			Key:    key,
			Values: g.values,
			States: make(map[string]json.RawMessage, len(states)),
		}
		for f, field := range ga.plan.fields {
			data, err := functions.EncodeState(schemas[f], states[f])
			if err != nil {
				return nil, errors.Wrapf(err, "group %s %s", displayKey(key), field.alias)
			}
			group.States[field.alias] = data
		}
		snapshot.Groups = append(snapshot.Groups, group)
	}
	ga.log.Debug("snapshot of %d groups", len(snapshot.Groups))
	return snapshot, nil
}

// MergeSnapshot folds snapshot into the aggregator. The snapshot is checked
// completely before anything is merged, so a rejected snapshot leaves the
// aggregator unchanged.
func (ga *GroupAggregator) MergeSnapshot(snapshot *Snapshot) error {
	if snapshot == nil {
		return nil
	}
	schemas := make([]types.Schema, len(ga.plan.fields))
	for f, field := range ga.plan.fields {
		argTypes, ok := snapshot.ArgTypes[field.alias]
		if !ok {
			schemas[f] = field.fn.StateFields(nil)
			continue
		}
		if len(argTypes) != len(field.args) {
			return errors.Wrapf(functions.ErrInvalidState, "%s: %d argument types, expected %d",
				field.alias, len(argTypes), len(field.args))
		}
		schemas[f] = field.fn.StateFields(argTypes)
	}

	decoded := make([][]functions.State, len(snapshot.Groups))
	for i, group := range snapshot.Groups {
		if len(group.Values) != len(ga.plan.groupBy) {
			return errors.Wrapf(functions.ErrInvalidState, "group %s: %d group values, expected %d",
				displayKey(group.Key), len(group.Values), len(ga.plan.groupBy))
		}
		states := make([]functions.State, len(ga.plan.fields))
		for f, field := range ga.plan.fields {
			data, ok := group.States[field.alias]
			if !ok {
				return errors.Wrapf(functions.ErrInvalidState, "group %s: missing state for %s", displayKey(group.Key), field.alias)
			}
			state, err := functions.DecodeState(schemas[f], data)
			if err != nil {
				return errors.Wrapf(err, "group %s %s", displayKey(group.Key), field.alias)
			}
			if err := field.fn.Accumulator().MergeBatch([]functions.State{state}); err != nil {
				return errors.Wrapf(err, "group %s %s", displayKey(group.Key), field.alias)
			}
			states[f] = state
		}
		decoded[i] = states
	}

	ga.mu.Lock()
	defer ga.mu.Unlock()
	for i, group := range snapshot.Groups {
		g := ga.group(group.Key, group.Values)
		for f := range ga.plan.fields {
			if err := g.partitions[0][f].MergeBatch([]functions.State{decoded[i][f]}); err != nil {
				return errors.Wrapf(err, "group %s", displayKey(group.Key))
			}
		}
	}
	if len(snapshot.Groups) > 0 {
		for f, field := range ga.plan.fields {
			argTypes, ok := snapshot.ArgTypes[field.alias]
			for a := range ga.argTypes[f] {
				seen := types.Any
				if ok {
					seen = argTypes[a]
				}
				ga.argTypes[f][a] = types.Widen(ga.argTypes[f][a], seen)
			}
		}
	}
	ga.log.Debug("merged snapshot of %d groups", len(snapshot.Groups))
	return nil
}
