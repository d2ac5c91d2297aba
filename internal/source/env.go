package source

import (
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"github.com/roach88/paramsrc/internal/coerce"
	"github.com/roach88/paramsrc/internal/enum"
)

// Generators is a name-keyed registry of tuple generators.
// It is safe for concurrent use.
type Generators struct {
	mu   sync.RWMutex
	gens map[string]Generator
}

// NewGenerators creates an empty registry.
func NewGenerators() *Generators {
	return &Generators{gens: make(map[string]Generator)}
}

// Register adds a generator, replacing any generator with the same name.
func (g *Generators) Register(name string, gen Generator) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gens[name] = gen
}

// Get returns the named generator.
func (g *Generators) Get(name string) (Generator, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	gen, ok := g.gens[name]
	return gen, ok
}

// Names returns the registered names, sorted.
func (g *Generators) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.gens))
	for n := range g.gens {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Env is everything declarations are resolved against: the coercion engine
// (with its enum registry and explicit converters), the generator registry
// and where file sources are read from.
type Env struct {
	Coercer    *coerce.Engine
	Generators *Generators

	// BaseDir is joined to relative file paths.
	BaseDir string

	// FS, when set, serves file sources instead of the OS filesystem.
	// Paths are then slash-separated and relative to the FS root.
	FS fs.FS
}

// NewEnv creates an environment. Nil arguments get empty registries.
func NewEnv(enums *enum.Registry, gens *Generators) *Env {
	if gens == nil {
		gens = NewGenerators()
	}
	return &Env{
		Coercer:    coerce.New(enums),
		Generators: gens,
	}
}

// Enums returns the enum registry.
func (e *Env) Enums() *enum.Registry {
	return e.Coercer.Enums()
}

// WithBaseDir returns a shallow copy of e reading relative files from dir.
func (e *Env) WithBaseDir(dir string) *Env {
	c := *e
	c.BaseDir = dir
	return &c
}

// WithFS returns a shallow copy of e reading file sources from fsys.
func (e *Env) WithFS(fsys fs.FS) *Env {
	c := *e
	c.FS = fsys
	return &c
}

func (e *Env) String() string {
	return fmt.Sprintf("Env{enums=%v generators=%v base_dir=%q}",
		e.Enums().TypeNames(), e.Generators.Names(), e.BaseDir)
}
