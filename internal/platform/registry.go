package platform

import (
	"fmt"
	"sort"
)

// Settings is the per-platform slice of configuration handed to a
// factory. Credentials resolve before load; factories only validate.
type Settings struct {
	APIKey   string
	Endpoint string
	Options  map[string]string
}

// Factory builds a configured platform instance. A factory should fail
// when its settings are unusable (missing key, bad endpoint) so the load
// step can report it without aborting startup.
type Factory func(Settings) (Platform, error)

// LoadStatus tags the outcome of one candidate load.
type LoadStatus string

const (
	LoadOK      LoadStatus = "loaded"
	LoadSkipped LoadStatus = "skipped" // registered but not configured
	LoadError   LoadStatus = "error"   // configured but failed to build
)

// LoadResult records the outcome of loading one registered platform.
type LoadResult struct {
	Name   string
	Status LoadStatus
	Err    error
}

// Registry is the explicit name-to-factory mapping populated at startup.
// One bad platform never prevents the others from loading.
type Registry struct {
	factories map[string]Factory
	loaded    map[string]Platform
}

// NewRegistry returns a registry pre-populated with built-in factories.
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		loaded:    make(map[string]Platform),
	}
	r.MustRegister("webhook", NewWebhook)
	return r
}

// Register adds a factory. Registering a duplicate name is an error.
func (r *Registry) Register(name string, f Factory) error {
	if _, dup := r.factories[name]; dup {
		return fmt.Errorf("platform %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// MustRegister panics on duplicate registration. For built-ins only.
func (r *Registry) MustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// Names returns all registered platform names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadAll instantiates every registered platform that has settings.
// Results come back in name order with one tagged entry per candidate;
// failures are recorded, not propagated.
func (r *Registry) LoadAll(settings map[string]Settings) []LoadResult {
	results := make([]LoadResult, 0, len(r.factories))
	for _, name := range r.Names() {
		cfg, configured := settings[name]
		if !configured {
			results = append(results, LoadResult{Name: name, Status: LoadSkipped})
			continue
		}
		p, err := r.factories[name](cfg)
		if err != nil {
			results = append(results, LoadResult{Name: name, Status: LoadError, Err: err})
			continue
		}
		r.loaded[name] = p
		results = append(results, LoadResult{Name: name, Status: LoadOK})
	}
	return results
}

// Resolve returns a loaded platform by name.
func (r *Registry) Resolve(name string) (Platform, bool) {
	p, ok := r.loaded[name]
	return p, ok
}

// Loaded returns the names of successfully loaded platforms, sorted.
func (r *Registry) Loaded() []string {
	names := make([]string, 0, len(r.loaded))
	for name := range r.loaded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
