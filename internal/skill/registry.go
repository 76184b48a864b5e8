package skill

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrNotRegistered indicates a skill name with no registered descriptor or no
// resolved factory.
var ErrNotRegistered = errors.New("skill not registered")

// Descriptor maps a skill name to a constructible implementation.
// Immutable once registered; looked up by name only.
type Descriptor struct {
	Name         string  // Unique, case-insensitive lookup key
	ManifestPath string  // Path of the manifest that produced this descriptor
	Description  string  // From the manifest
	Factory      Factory // nil when resolution failed
}

// Resolved reports whether the descriptor is bound to an implementation.
func (d Descriptor) Resolved() bool { return d.Factory != nil }

// Registry maps skill names to constructible implementations and invokes
// them per request.
//
// Factories are bound at startup (the capability table); Scan then pairs
// discovered manifests with bound factories. The registry is read-mostly
// after startup and safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	factories   map[string]Factory    // keyed by lowercase bind name
	descriptors map[string]Descriptor // keyed by lowercase skill name
	logger      *slog.Logger
}

// NewRegistry creates an empty registry. logger may be nil.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factories:   make(map[string]Factory),
		descriptors: make(map[string]Descriptor),
		logger:      logger,
	}
}

// Bind adds a factory to the capability table under name (case-insensitive).
// Call once per skill at startup, before Scan.
func (r *Registry) Bind(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = factory
}

// Register stores the descriptor under its name. Registering the same name
// again overwrites silently: last write wins.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors[strings.ToLower(d.Name)] = d
}

// Get looks up a descriptor by name, case-insensitively.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[strings.ToLower(name)]
	return d, ok
}

// Descriptors returns all registered descriptors sorted by name.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Scan discovers *.skill.yaml manifests recursively under root and registers
// a descriptor for each. The skill's name is the manifest's containing
// folder.
//
// Resolution order: an explicit `implementation` key names a bound factory;
// otherwise the factory bound under the folder name is used; otherwise any
// bound name containing the folder name as a substring matches. Resolution
// failure still registers the descriptor (unresolved), and per-file errors
// are logged and swallowed so one bad manifest cannot abort the scan.
func (r *Registry) Scan(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree: log and keep scanning siblings.
			r.logger.Warn("skipping unreadable path during skill scan", "path", path, "error", err)
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ManifestSuffix) {
			return nil
		}

		name := filepath.Base(filepath.Dir(path))

		manifest, err := readManifest(path)
		if err != nil {
			r.logger.Warn("skipping malformed skill manifest", "path", path, "error", err)
			return nil
		}

		factory := r.resolve(name, manifest.Implementation)
		if factory == nil {
			r.logger.Warn("skill manifest has no resolvable implementation",
				"skill", name, "path", path, "implementation", manifest.Implementation)
		}

		r.Register(Descriptor{
			Name:         name,
			ManifestPath: path,
			Description:  manifest.Description,
			Factory:      factory,
		})
		r.logger.Debug("registered skill", "skill", name, "resolved", factory != nil)
		return nil
	})
}

// resolve finds the factory for a discovered manifest.
func (r *Registry) resolve(folderName, implementation string) Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if implementation != "" {
		return r.factories[strings.ToLower(implementation)]
	}

	// Convention: factory bound under the folder name.
	if f, ok := r.factories[strings.ToLower(folderName)]; ok {
		return f
	}

	// Fallback: any bound name containing the folder name. Map iteration is
	// unordered, so take the lexicographically first match for determinism.
	needle := strings.ToLower(folderName)
	var names []string
	for bound := range r.factories {
		if strings.Contains(bound, needle) {
			names = append(names, bound)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	return r.factories[names[0]]
}

// Invoke constructs a fresh instance of the named skill and runs it with the
// payload. Fails with ErrNotRegistered when the name is unknown or its
// implementation was never resolved.
func (r *Registry) Invoke(ctx context.Context, name string, payload Payload) (any, error) {
	d, ok := r.Get(name)
	if !ok || !d.Resolved() {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}

	if payload.HeaderRow <= 0 {
		payload.HeaderRow = 1
	}

	return d.Factory().Run(ctx, payload)
}
