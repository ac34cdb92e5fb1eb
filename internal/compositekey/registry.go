// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package compositekey

import (
	"fmt"
	"slices"
	"sync"
)

// FieldFactory returns a new zero-valued Field of one concrete type.
type FieldFactory func() Field

// Registry maps type names to field factories. Register may be called
// concurrently with lookups, but a job should finish registering before it
// calls Configure.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FieldFactory
}

// NewRegistry returns a Registry holding the built-in field types.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]FieldFactory)}
	builtins := map[string]FieldFactory{
		TypeText:    func() Field { return &Text{} },
		TypeBytes:   func() Field { return &Bytes{} },
		TypeInt32:   func() Field { return &Int32{} },
		TypeInt64:   func() Field { return &Int64{} },
		TypeVarInt:  func() Field { return &VarInt{} },
		TypeFloat64: func() Field { return &Float64{} },
		TypeBool:    func() Field { return &Bool{} },
	}
	for name, factory := range builtins {
		r.factories[name] = factory
	}
	return r
}

// Register adds a field type. Names must be non-empty and unique.
func (r *Registry) Register(name string, factory FieldFactory) error {
	if name == "" {
		return ConfigurationError{Reason: "field type name is empty"}
	}
	if factory == nil {
		return ConfigurationError{Reason: fmt.Sprintf("field type %q has a nil factory", name)}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return ConfigurationError{Reason: fmt.Sprintf("field type %q is already registered", name)}
	}
	r.factories[name] = factory
	return nil
}

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) lookup(role, name string) (FieldFactory, error) {
	if name == "" {
		return nil, ConfigurationError{Reason: role + " key type is not set"}
	}
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, ConfigurationError{Reason: fmt.Sprintf("%s key type %q is not registered", role, name)}
	}
	probe := factory()
	if probe == nil {
		return nil, ConfigurationError{Reason: fmt.Sprintf("%s key type %q factory returned nil", role, name)}
	}
	if got := probe.TypeName(); got != name {
		return nil, ConfigurationError{Reason: fmt.Sprintf("%s key type %q factory builds %q", role, name, got)}
	}
	return factory, nil
}

// Binding fixes the concrete group and sort key types for one job. It is
// immutable once returned by Configure and may be shared by all workers.
type Binding struct {
	groupType string
	sortType  string
	group     FieldFactory
	sort      FieldFactory
}

// Configure binds the group and sort key types for a job. It must be
// called once, before any comparator or partitioner is built, and fails
// fast on a missing or inconsistent registration.
func Configure(reg *Registry, groupType, sortType string) (*Binding, error) {
	if reg == nil {
		return nil, ConfigurationError{Reason: "registry is nil"}
	}
	group, err := reg.lookup("group", groupType)
	if err != nil {
		return nil, err
	}
	sort, err := reg.lookup("sort", sortType)
	if err != nil {
		return nil, err
	}
	return &Binding{
		groupType: groupType,
		sortType:  sortType,
		group:     group,
		sort:      sort,
	}, nil
}

func (b *Binding) GroupType() string { return b.groupType }

func (b *Binding) SortType() string { return b.sortType }

// NewKey returns a Key with fresh, zero-valued components of the bound
// types.
func (b *Binding) NewKey() *Key {
	return &Key{Group: b.group(), Sort: b.sort()}
}

// NewGroup returns a fresh group key component.
func (b *Binding) NewGroup() Field {
	return b.group()
}

// Matches reports whether k's components are of the bound types.
func (b *Binding) Matches(k *Key) bool {
	return k != nil && k.Group != nil && k.Sort != nil &&
		k.Group.TypeName() == b.groupType && k.Sort.TypeName() == b.sortType
}

func (b *Binding) String() string {
	return fmt.Sprintf("Binding[%s, %s]", b.groupType, b.sortType)
}
