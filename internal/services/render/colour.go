package render

import "hash/fnv"

// StateColourOverrides keys a generic state map of assassin identifier to a
// fixed colour.
const StateColourOverrides = "colour_overrides"

// Status is what an assassin's name is coloured by, lowest precedence first.
type Status int

const (
	StatusDefault Status = iota
	StatusCityWatch
	StatusOverride
	StatusIncompetent
	StatusDead
	StatusWanted
)

// Palette holds the colours used for each status.
type Palette struct {
	Default     []string
	CityWatch   []string
	Incompetent []string
	Dead        []string
	Wanted      []string
}

// DefaultPalette is used for the public pages.
var DefaultPalette = Palette{
	Default:     []string{"#1b1b1b", "#3a3a3a", "#505050", "#2e4a3e", "#4a3a2e"},
	CityWatch:   []string{"#1f3a93", "#2c5aa0", "#3b6fb6", "#22498c"},
	Incompetent: []string{"#8a6d00", "#9c7a00", "#a88400"},
	Dead:        []string{"#7a7a7a", "#8c8c8c", "#9e9e9e"},
	Wanted:      []string{"#b00000", "#c41e1e", "#d43a3a"},
}

func (p Palette) forStatus(s Status) []string {
	switch s {
	case StatusCityWatch:
		return p.CityWatch
	case StatusIncompetent:
		return p.Incompetent
	case StatusDead:
		return p.Dead
	case StatusWanted:
		return p.Wanted
	}
	return p.Default
}

// Colour picks the colour for a name in the given status. The same name and
// status always give the same colour.
func (p Palette) Colour(name string, s Status, override string) string {
	if s == StatusOverride && override != "" {
		return override
	}
	return pick(name, p.forStatus(s))
}

func pick(name string, palette []string) string {
	if len(palette) == 0 {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return palette[h.Sum32()%uint32(len(palette))]
}
