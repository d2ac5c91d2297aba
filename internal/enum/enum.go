// Package enum models named enumeration types as ordered (name, value)
// pairs so that argument sources can select members by name without any
// runtime reflection over Go constants.
package enum

import (
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/paramsrc/internal/paramerr"
)

// Mode selects how an enum source's names filter the member list.
type Mode string

const (
	// Include keeps only the named members.
	Include Mode = "INCLUDE"

	// Exclude keeps every member except the named ones.
	Exclude Mode = "EXCLUDE"
)

// ParseMode parses a mode name. The empty string means Include.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", Include:
		return Include, nil
	case Exclude:
		return Exclude, nil
	default:
		return "", fmt.Errorf("unknown enum mode %q (want %s or %s)", s, Include, Exclude)
	}
}

// Member is one constant of an enum type.
type Member struct {
	// Type is the owning enum type name.
	Type string

	// Name is the exact, case-sensitive member name.
	Name string

	// Ordinal is the zero-based declaration position.
	Ordinal int

	// Value is the Go value the member stands for (may be nil).
	Value any
}

// String returns the member name.
func (m Member) String() string {
	return m.Name
}

// Pair is a (name, value) entry used to declare a type.
type Pair struct {
	Name  string
	Value any
}

// P is shorthand for Pair.
func P(name string, value any) Pair {
	return Pair{Name: name, Value: value}
}

// Type is a named enumeration with a fixed declaration order.
type Type struct {
	name    string
	members []Member
	index   map[string]int
}

// NewType declares an enum type. Member names must be unique and non-empty.
func NewType(name string, pairs ...Pair) (*Type, error) {
	if name == "" {
		return nil, fmt.Errorf("enum type name is required")
	}
	t := &Type{
		name:    name,
		members: make([]Member, 0, len(pairs)),
		index:   make(map[string]int, len(pairs)),
	}
	for i, p := range pairs {
		if p.Name == "" {
			return nil, fmt.Errorf("enum %s: member %d has empty name", name, i)
		}
		if _, dup := t.index[p.Name]; dup {
			return nil, fmt.Errorf("enum %s: duplicate member %q", name, p.Name)
		}
		t.index[p.Name] = i
		t.members = append(t.members, Member{Type: name, Name: p.Name, Ordinal: i, Value: p.Value})
	}
	return t, nil
}

// MustType is like NewType but panics on error. Intended for package-level
// declarations of fixed enums.
func MustType(name string, pairs ...Pair) *Type {
	t, err := NewType(name, pairs...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the type name.
func (t *Type) Name() string {
	return t.name
}

// Members returns all members in declaration order.
func (t *Type) Members() []Member {
	out := make([]Member, len(t.members))
	copy(out, t.members)
	return out
}

// Names returns all member names in declaration order.
func (t *Type) Names() []string {
	out := make([]string, len(t.members))
	for i, m := range t.members {
		out[i] = m.Name
	}
	return out
}

// Has reports whether name is a member.
func (t *Type) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Lookup returns the member with the exact name.
func (t *Type) Lookup(name string) (Member, error) {
	i, ok := t.index[name]
	if !ok {
		return Member{}, paramerr.UnknownEnumMember(t.name, name)
	}
	return t.members[i], nil
}

// Filter returns the members selected by mode and names, always in the
// type's declaration order regardless of the order of names. Every name must
// be a member. An empty result is not an error.
func Filter(t *Type, mode Mode, names []string) ([]Member, error) {
	selected := make(map[string]bool, len(names))
	for _, n := range names {
		if !t.Has(n) {
			return nil, paramerr.UnknownEnumMember(t.name, n)
		}
		selected[n] = true
	}

	var keep func(Member) bool
	switch mode {
	case Include, "":
		if len(names) == 0 {
			// No names: every member, as with a bare enum source.
			keep = func(Member) bool { return true }
		} else {
			keep = func(m Member) bool { return selected[m.Name] }
		}
	case Exclude:
		keep = func(m Member) bool { return !selected[m.Name] }
	default:
		return nil, fmt.Errorf("unknown enum mode %q", mode)
	}

	out := make([]Member, 0, len(t.members))
	for _, m := range t.members {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Registry holds enum types by name. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
}

// NewRegistry creates a registry pre-populated with types.
func NewRegistry(types ...*Type) *Registry {
	r := &Registry{types: make(map[string]*Type, len(types))}
	for _, t := range types {
		r.types[t.name] = t
	}
	return r
}

// Register adds a type, replacing any type with the same name.
func (r *Registry) Register(t *Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.name] = t
}

// Get returns the named type.
func (r *Registry) Get(name string) (*Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	if !ok {
		return nil, paramerr.UnknownEnumType(name)
	}
	return t, nil
}

// TypeNames returns the registered type names, sorted.
func (r *Registry) TypeNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
