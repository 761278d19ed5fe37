package model

import (
	"encoding/json"
	"fmt"
)

// PluginState holds per-plugin opaque state on an entity, keyed by plugin
// identifier. Each plugin owns the JSON object stored under its key.
type PluginState map[string]json.RawMessage

// Decode unmarshals the state owned by pluginID into v. It reports false when
// the plugin has no state on this entity.
func (ps PluginState) Decode(pluginID string, v any) (bool, error) {
	raw, ok := ps[pluginID]
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode %s plugin state: %w", pluginID, err)
	}
	return true, nil
}

// Encode replaces the state owned by pluginID with v.
func (ps *PluginState) Encode(pluginID string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s plugin state: %w", pluginID, err)
	}
	if *ps == nil {
		*ps = make(PluginState)
	}
	(*ps)[pluginID] = raw
	return nil
}

// Remove drops the state owned by pluginID.
func (ps PluginState) Remove(pluginID string) {
	delete(ps, pluginID)
}

// Clone returns a copy that shares no map with ps.
func (ps PluginState) Clone() PluginState {
	if ps == nil {
		return nil
	}
	out := make(PluginState, len(ps))
	for k, v := range ps {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// PluginStateOf decodes the state owned by pluginID, returning the zero value
// when the plugin has no state or the state cannot be decoded.
func PluginStateOf[T any](ps PluginState, pluginID string) T {
	var v T
	if _, err := ps.Decode(pluginID, &v); err != nil {
		var zero T
		return zero
	}
	return v
}
