package model

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
)

// GenericState holds the secret id counter and free-form plugin
// configuration.
type GenericState struct {
	UniqueID    int                        `json:"uniqueId"`
	PluginMap   map[string]bool            `json:"plugin_map"`
	ArbState    map[string]json.RawMessage `json:"arb_state"`
	ArbIntState map[string]int             `json:"arb_int_state"`
}

// NewGenericState returns an empty state with the counter at zero.
func NewGenericState() *GenericState {
	return &GenericState{
		PluginMap:   make(map[string]bool),
		ArbState:    make(map[string]json.RawMessage),
		ArbIntState: make(map[string]int),
	}
}

// UniqueStr returns the current counter value as a string and increments it.
func (g *GenericState) UniqueStr() string {
	id := strconv.Itoa(g.UniqueID)
	g.UniqueID++
	return id
}

// PluginEnabled reports whether the plugin is enabled, defaulting to def when
// the plugin has never been toggled.
func (g *GenericState) PluginEnabled(pluginID string, def bool) bool {
	if enabled, ok := g.PluginMap[pluginID]; ok {
		return enabled
	}
	return def
}

// SetPluginEnabled records whether a plugin is enabled.
func (g *GenericState) SetPluginEnabled(pluginID string, enabled bool) {
	if g.PluginMap == nil {
		g.PluginMap = make(map[string]bool)
	}
	g.PluginMap[pluginID] = enabled
}

// Get decodes the arb_state value at key into v, reporting whether the key was
// present.
func (g *GenericState) Get(key string, v any) (bool, error) {
	raw, ok := g.ArbState[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode state %q: %w", key, err)
	}
	return true, nil
}

// Set stores v as JSON under key in arb_state.
func (g *GenericState) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode state %q: %w", key, err)
	}
	if g.ArbState == nil {
		g.ArbState = make(map[string]json.RawMessage)
	}
	g.ArbState[key] = raw
	return nil
}

// Delete removes key from arb_state.
func (g *GenericState) Delete(key string) {
	delete(g.ArbState, key)
}

// GetInt returns arb_int_state[key], or def when absent.
func (g *GenericState) GetInt(key string, def int) int {
	if v, ok := g.ArbIntState[key]; ok {
		return v
	}
	return def
}

// SetInt stores an integer in arb_int_state.
func (g *GenericState) SetInt(key string, v int) {
	if g.ArbIntState == nil {
		g.ArbIntState = make(map[string]int)
	}
	g.ArbIntState[key] = v
}

// Clone returns a deep copy of g.
func (g *GenericState) Clone() *GenericState {
	c := &GenericState{
		UniqueID:    g.UniqueID,
		PluginMap:   maps.Clone(g.PluginMap),
		ArbState:    make(map[string]json.RawMessage, len(g.ArbState)),
		ArbIntState: maps.Clone(g.ArbIntState),
	}
	for k, v := range g.ArbState {
		c.ArbState[k] = append(json.RawMessage(nil), v...)
	}
	if c.PluginMap == nil {
		c.PluginMap = make(map[string]bool)
	}
	if c.ArbIntState == nil {
		c.ArbIntState = make(map[string]int)
	}
	return c
}

// StateValue decodes arb_state[key] into a T, returning def when absent or
// undecodable.
func StateValue[T any](g *GenericState, key string, def T) T {
	var v T
	ok, err := g.Get(key, &v)
	if !ok || err != nil {
		return def
	}
	return v
}
