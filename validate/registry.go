package validate

// Pass is one named validation step. Passes read the document and append
// findings; they never modify the document.
type Pass struct {
	Name string
	Run  func(doc *document, res *Result)
}

// Registry maps profiles to their ordered pass lists.
//
// A profile's list is built from the generic list by replacing passes by
// name and appending profile-specific passes.
//
// Example usage:
//
//	registry := validate.NewRegistry()
//	registry.Register(validate.ProfileNone, validate.GenericPasses())
//	res := registry.Validate(ds, validate.ProfileNone)
type Registry struct {
	passes map[Profile][]Pass
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		passes: make(map[Profile][]Pass),
	}
}

// Register sets the pass list of a profile, replacing any previous list.
func (r *Registry) Register(profile Profile, passes []Pass) {
	r.passes[profile] = passes
}

// Unregister removes a profile. Validation under it falls back to the
// generic passes.
func (r *Registry) Unregister(profile Profile) {
	delete(r.passes, profile)
}

// Passes returns the pass list registered for profile.
func (r *Registry) Passes(profile Profile) ([]Pass, bool) {
	p, ok := r.passes[profile]
	return p, ok
}

// override returns base with passes replaced by name and extra appended
// before the trailing structural scans.
func override(base []Pass, replace map[string]Pass, extra ...Pass) []Pass {
	out := make([]Pass, 0, len(base)+len(extra))
	for _, p := range base {
		if r, ok := replace[p.Name]; ok {
			p = r
		}
		out = append(out, p)
	}
	// Scans that look at what earlier passes reported stay last.
	tail := len(out)
	for tail > 0 && isTrailing(out[tail-1].Name) {
		tail--
	}
	result := append([]Pass(nil), out[:tail]...)
	result = append(result, extra...)
	return append(result, out[tail:]...)
}

func isTrailing(name string) bool {
	switch name {
	case passEmptySequences, passPrivateTags, passForbidden:
		return true
	}
	return false
}

// DefaultRegistry returns a registry holding the built-in profiles.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(ProfileNone, override(GenericPasses(), nil, Pass{passMADOShape, checkMADOShape}))
	r.Register(ProfileXDSIManifest, override(GenericPasses(), nil,
		Pass{passXDSITitle, checkXDSITitle},
		Pass{passFileMeta, checkFileMeta},
		Pass{passRetrieval, checkRetrieval},
	))
	r.Register(ProfileMADO, override(GenericPasses(),
		map[string]Pass{
			passModules:  {passModules, checkMADOModules},
			passTitle:    {passTitle, checkMADOTitle},
			passTemplate: {passTemplate, checkMADOTemplate},
		},
		Pass{passIssuer, checkPatientIssuer},
		Pass{passAccessionIssuer, checkAccessionIssuer},
		Pass{passImageLibrary, checkImageLibrary},
	))
	return r
}

var defaultRegistry = DefaultRegistry()
