package ui

// ApplyOverrides replaces every component targeted by an Override, looking
// inside dependency wrappers, and drops the overrides themselves.
func ApplyOverrides(cs []Component) []Component {
	replacements := make(map[string]Component)
	var rest []Component
	for _, c := range cs {
		if o, ok := c.(Override); ok {
			replacements[o.Target] = o.Replacement
			continue
		}
		rest = append(rest, c)
	}
	if len(replacements) == 0 {
		return rest
	}
	return replace(rest, replacements)
}

func replace(cs []Component, replacements map[string]Component) []Component {
	out := make([]Component, 0, len(cs))
	for _, c := range cs {
		if d, ok := c.(Dependency); ok {
			out = append(out, Dependency{On: d.On, Components: replace(d.Components, replacements)})
			continue
		}
		if r, ok := replacements[c.Ident()]; ok && c.Ident() != "" {
			out = append(out, r)
			continue
		}
		out = append(out, c)
	}
	return out
}

// Flatten removes dependency wrappers, placing each wrapper's components
// straight after the component they depend on. Wrappers on the same
// component are merged in order. Components whose provider never appears
// go last.
func Flatten(cs []Component) []Component {
	deps := make(map[string][]Component)
	var providers []string
	var top []Component

	var register func(d Dependency)
	register = func(d Dependency) {
		if _, seen := deps[d.On]; !seen {
			providers = append(providers, d.On)
		}
		for _, c := range d.Components {
			if inner, ok := c.(Dependency); ok {
				register(inner)
				continue
			}
			deps[d.On] = append(deps[d.On], c)
		}
	}
	for _, c := range cs {
		if d, ok := c.(Dependency); ok {
			register(d)
			continue
		}
		top = append(top, c)
	}

	out := make([]Component, 0, len(cs))
	emitted := make(map[string]bool)
	var emit func(c Component)
	emit = func(c Component) {
		out = append(out, c)
		id := c.Ident()
		if id == "" || emitted[id] {
			return
		}
		emitted[id] = true
		for _, d := range deps[id] {
			emit(d)
		}
	}
	for _, c := range top {
		emit(c)
	}
	for _, p := range providers {
		if emitted[p] {
			continue
		}
		emitted[p] = true
		for _, d := range deps[p] {
			emit(d)
		}
	}
	return out
}
