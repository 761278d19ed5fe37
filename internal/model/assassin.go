package model

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

// initialPseudonymIdentifierLength bounds how much of the initial pseudonym
// appears in an assassin identifier.
const initialPseudonymIdentifierLength = 15

// Assassin is a game participant. The secret id and identifier are fixed at
// creation; everything else may be edited by plugins.
type Assassin struct {
	// Pseudonyms in the order they were added. Index 0 is the initial
	// pseudonym and is never blank. Deleted pseudonyms are blanked so that
	// indices stay stable.
	Pseudonyms []string
	// PseudonymDatetimes maps a pseudonym index to the time it becomes valid.
	// An absent entry means always valid. Index 0 never has an entry.
	PseudonymDatetimes map[int]time.Time

	RealName    string
	Pronouns    string
	Email       string
	Address     string
	WaterStatus string
	College     string
	Notes       string

	IsCityWatch bool
	// Hidden assassins are excluded from queries by default but kept so
	// that events referencing them stay valid.
	Hidden bool

	PluginState PluginState

	secretID   string
	identifier string
}

// NewAssassin creates an assassin with the given secret id and initial
// pseudonym. The identifier is derived once here and never changes.
func NewAssassin(secretID, initialPseudonym, realName string, isCityWatch bool) (*Assassin, error) {
	if strings.TrimSpace(initialPseudonym) == "" {
		return nil, ErrBlankPseudonym
	}
	a := &Assassin{
		Pseudonyms:         []string{initialPseudonym},
		PseudonymDatetimes: make(map[int]time.Time),
		RealName:           realName,
		IsCityWatch:        isCityWatch,
		PluginState:        make(PluginState),
		secretID:           secretID,
	}
	a.identifier = assassinIdentifier(a)
	return a, nil
}

func assassinIdentifier(a *Assassin) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", a.RealName, truncateRunes(a.Pseudonyms[0], initialPseudonymIdentifierLength))
	if a.IsCityWatch {
		b.WriteString(" (City Watch)")
	}
	fmt.Fprintf(&b, " ID: %s", a.secretID)
	return b.String()
}

// SecretID returns the internal id allocated from the generic state counter.
func (a *Assassin) SecretID() string {
	return a.secretID
}

// Identifier returns the human-readable key of this assassin.
func (a *Assassin) Identifier() string {
	return a.identifier
}

// InitialPseudonym returns pseudonym 0.
func (a *Assassin) InitialPseudonym() string {
	return a.Pseudonyms[0]
}

// Pseudonym returns the i-th pseudonym. Out-of-range or blanked slots fall
// back to the first non-blank pseudonym.
func (a *Assassin) Pseudonym(i int) string {
	if i >= 0 && i < len(a.Pseudonyms) && a.Pseudonyms[i] != "" {
		return a.Pseudonyms[i]
	}
	for _, p := range a.Pseudonyms {
		if p != "" {
			return p
		}
	}
	return ""
}

// HasPseudonym reports whether slot i exists and is not blank.
func (a *Assassin) HasPseudonym(i int) bool {
	return i >= 0 && i < len(a.Pseudonyms) && a.Pseudonyms[i] != ""
}

// PseudonymValidAt reports whether pseudonym i may be used at t.
func (a *Assassin) PseudonymValidAt(i int, t time.Time) bool {
	if !a.HasPseudonym(i) {
		return false
	}
	from, ok := a.PseudonymDatetimes[i]
	return !ok || !from.After(t)
}

// PseudonymIndicesUntil returns, in index order, the non-blank pseudonym
// indices valid at t. A nil t returns every non-blank index.
func (a *Assassin) PseudonymIndicesUntil(t *time.Time) []int {
	var out []int
	for i, p := range a.Pseudonyms {
		if p == "" {
			continue
		}
		if t != nil && !a.PseudonymValidAt(i, *t) {
			continue
		}
		out = append(out, i)
	}
	return out
}

// PseudonymsUntil returns the pseudonyms valid at t in index order.
func (a *Assassin) PseudonymsUntil(t *time.Time) []string {
	indices := a.PseudonymIndicesUntil(t)
	out := make([]string, 0, len(indices))
	for _, i := range indices {
		out = append(out, a.Pseudonyms[i])
	}
	return out
}

// AllPseudonyms returns every non-blank pseudonym in index order.
func (a *Assassin) AllPseudonyms() []string {
	return a.PseudonymsUntil(nil)
}

// AddPseudonym appends a pseudonym, optionally only valid from validFrom.
func (a *Assassin) AddPseudonym(name string, validFrom *time.Time) (int, error) {
	if strings.TrimSpace(name) == "" {
		return 0, ErrBlankPseudonym
	}
	a.Pseudonyms = append(a.Pseudonyms, name)
	i := len(a.Pseudonyms) - 1
	if validFrom != nil {
		if a.PseudonymDatetimes == nil {
			a.PseudonymDatetimes = make(map[int]time.Time)
		}
		a.PseudonymDatetimes[i] = *validFrom
	}
	return i, nil
}

// EditPseudonym renames slot i.
func (a *Assassin) EditPseudonym(i int, name string) error {
	if i < 0 || i >= len(a.Pseudonyms) {
		return ErrInvalidPseudonymIndex
	}
	if strings.TrimSpace(name) == "" {
		return ErrBlankPseudonym
	}
	a.Pseudonyms[i] = name
	return nil
}

// DeletePseudonym blanks slot i. The initial pseudonym cannot be deleted.
func (a *Assassin) DeletePseudonym(i int) error {
	if i == 0 {
		return ErrInitialPseudonym
	}
	if i < 0 || i >= len(a.Pseudonyms) {
		return ErrInvalidPseudonymIndex
	}
	a.Pseudonyms[i] = ""
	delete(a.PseudonymDatetimes, i)
	return nil
}

// SetPseudonymValidity sets or clears (nil) the validity start of slot i.
func (a *Assassin) SetPseudonymValidity(i int, validFrom *time.Time) error {
	if i == 0 {
		if validFrom == nil {
			return nil
		}
		return ErrInitialPseudonym
	}
	if !a.HasPseudonym(i) {
		return ErrInvalidPseudonymIndex
	}
	if validFrom == nil {
		delete(a.PseudonymDatetimes, i)
		return nil
	}
	if a.PseudonymDatetimes == nil {
		a.PseudonymDatetimes = make(map[int]time.Time)
	}
	a.PseudonymDatetimes[i] = *validFrom
	return nil
}

// Validate checks the pseudonym invariants.
func (a *Assassin) Validate() error {
	if len(a.Pseudonyms) == 0 || strings.TrimSpace(a.Pseudonyms[0]) == "" {
		return ErrBlankPseudonym
	}
	if _, ok := a.PseudonymDatetimes[0]; ok {
		return ErrInitialPseudonym
	}
	for i := range a.PseudonymDatetimes {
		if i < 0 || i >= len(a.Pseudonyms) {
			return fmt.Errorf("%w: validity for slot %d", ErrInvalidPseudonymIndex, i)
		}
	}
	return nil
}

// Clone returns a deep copy of a.
func (a *Assassin) Clone() *Assassin {
	c := *a
	c.Pseudonyms = slices.Clone(a.Pseudonyms)
	if a.PseudonymDatetimes != nil {
		c.PseudonymDatetimes = maps.Clone(a.PseudonymDatetimes)
	}
	c.PluginState = a.PluginState.Clone()
	return &c
}

// CloneAs copies a under a new secret id and city-watch flag, recomputing the
// identifier. Used when a dead player is resurrected into the city watch.
func (a *Assassin) CloneAs(secretID string, isCityWatch bool) *Assassin {
	c := a.Clone()
	c.secretID = secretID
	c.IsCityWatch = isCityWatch
	c.Hidden = false
	c.PluginState = make(PluginState)
	c.identifier = assassinIdentifier(c)
	return c
}

type assassinJSON struct {
	Identifier         string               `json:"identifier"`
	SecretID           string               `json:"secret_id"`
	Pseudonyms         []string             `json:"pseudonyms"`
	PseudonymDatetimes map[string]Timestamp `json:"pseudonym_datetimes"`
	RealName           string               `json:"real_name"`
	Pronouns           string               `json:"pronouns"`
	Email              string               `json:"email"`
	Address            string               `json:"address"`
	WaterStatus        string               `json:"water_status"`
	College            string               `json:"college"`
	Notes              string               `json:"notes"`
	IsCityWatch        bool                 `json:"is_city_watch"`
	Hidden             bool                 `json:"hidden"`
	PluginState        PluginState          `json:"plugin_state"`
}

func (a *Assassin) MarshalJSON() ([]byte, error) {
	datetimes := make(map[string]Timestamp, len(a.PseudonymDatetimes))
	for i, t := range a.PseudonymDatetimes {
		datetimes[strconv.Itoa(i)] = Timestamp{t}
	}
	pluginState := a.PluginState
	if pluginState == nil {
		pluginState = PluginState{}
	}
	return json.Marshal(assassinJSON{
		Identifier:         a.identifier,
		SecretID:           a.secretID,
		Pseudonyms:         a.Pseudonyms,
		PseudonymDatetimes: datetimes,
		RealName:           a.RealName,
		Pronouns:           a.Pronouns,
		Email:              a.Email,
		Address:            a.Address,
		WaterStatus:        a.WaterStatus,
		College:            a.College,
		Notes:              a.Notes,
		IsCityWatch:        a.IsCityWatch,
		Hidden:             a.Hidden,
		PluginState:        pluginState,
	})
}

func (a *Assassin) UnmarshalJSON(data []byte) error {
	var raw assassinJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	datetimes := make(map[int]time.Time, len(raw.PseudonymDatetimes))
	for k, ts := range raw.PseudonymDatetimes {
		i, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("%w: pseudonym datetime key %q", ErrInvalidPseudonymIndex, k)
		}
		datetimes[i] = ts.Time
	}
	*a = Assassin{
		Pseudonyms:         raw.Pseudonyms,
		PseudonymDatetimes: datetimes,
		RealName:           raw.RealName,
		Pronouns:           raw.Pronouns,
		Email:              raw.Email,
		Address:            raw.Address,
		WaterStatus:        raw.WaterStatus,
		College:            raw.College,
		Notes:              raw.Notes,
		IsCityWatch:        raw.IsCityWatch,
		Hidden:             raw.Hidden,
		PluginState:        raw.PluginState,
		secretID:           raw.SecretID,
		identifier:         raw.Identifier,
	}
	if a.PluginState == nil {
		a.PluginState = make(PluginState)
	}
	if len(a.Pseudonyms) == 0 {
		return ErrBlankPseudonym
	}
	if a.identifier == "" {
		a.identifier = assassinIdentifier(a)
	}
	return a.Validate()
}
