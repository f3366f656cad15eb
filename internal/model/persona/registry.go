package persona

// Registry exposes read-only persona retrieval. Initialized once at startup;
// no mutation API exists past construction.
type Registry struct {
	order []string
	byKey map[string]Persona
}

// NewRegistry builds a registry preserving declaration order. The default
// persona must be among the supplied items.
func NewRegistry(items []Persona) *Registry {
	r := &Registry{byKey: make(map[string]Persona, len(items))}
	for _, item := range items {
		if _, dup := r.byKey[item.Key]; dup {
			continue
		}
		r.order = append(r.order, item.Key)
		r.byKey[item.Key] = item
	}
	return r
}

// Lookup returns the persona for key, falling back to the default persona
// when the key is unknown. Unknown keys are a documented leniency, not an
// error.
func (r *Registry) Lookup(key string) Persona {
	if p, ok := r.byKey[key]; ok {
		return p
	}
	return r.byKey[DefaultKey]
}

// List returns persona summaries in declaration order.
func (r *Registry) List() []Summary {
	out := make([]Summary, 0, len(r.order))
	for _, key := range r.order {
		p := r.byKey[key]
		out = append(out, Summary{Key: p.Key, Name: p.Name, Avatar: p.Avatar})
	}
	return out
}
