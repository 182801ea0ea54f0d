package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/kamstrup/intmap"
	"github.com/zeusync/timeline/internal/core/models"
)

// TypeID is a stable identifier for a component type, derived from its name.
type TypeID uint64

// TypeName is the stable, human-readable name of a component type.
type TypeName string

// Named lets a component type choose its own stable name instead of the
// package-qualified Go type name.
type Named interface {
	ComponentName() string
}

// IDOf hashes a type name into its TypeID.
func IDOf(name TypeName) TypeID {
	return TypeID(xxhash.Sum64String(string(name)))
}

// NameOf returns the stable name for T.
func NameOf[T any]() TypeName {
	var zero T
	if n, ok := any(zero).(Named); ok {
		return TypeName(n.ComponentName())
	}
	t := reflect.TypeFor[T]()
	if t.Name() != "" && t.PkgPath() != "" {
		return TypeName(t.PkgPath() + "." + t.Name())
	}
	return TypeName(t.String())
}

// StorageFactory builds the per-type storage for a registered component type.
type StorageFactory func(ct *ComponentType) any

// ComponentType describes one registered component type.
type ComponentType struct {
	id           TypeID
	name         TypeName
	rtype        reflect.Type
	interpolates bool
	accepts      func(any) bool
	newStorage   StorageFactory
}

func (ct *ComponentType) ID() TypeID { return ct.id }

func (ct *ComponentType) Name() TypeName { return ct.name }

func (ct *ComponentType) Type() reflect.Type { return ct.rtype }

// Interpolatable reports whether values of this type blend between keyframes.
func (ct *ComponentType) Interpolatable() bool { return ct.interpolates }

// Accepts reports whether v's dynamic type is exactly this component type.
func (ct *ComponentType) Accepts(v any) bool { return ct.accepts(v) }

// NewStorage creates fresh per-type storage through the registered factory.
func (ct *ComponentType) NewStorage() any {
	if ct.newStorage == nil {
		return nil
	}
	return ct.newStorage(ct)
}

func (ct *ComponentType) String() string { return string(ct.name) }

// Table maps TypeIDs to component type descriptors. Registration is rare and
// takes the write lock; lookups take the read lock.
type Table struct {
	mx     sync.RWMutex
	byID   *intmap.Map[TypeID, *ComponentType]
	byType map[reflect.Type]*ComponentType
}

func NewTable() *Table {
	return &Table{
		byID:   intmap.New[TypeID, *ComponentType](32),
		byType: make(map[reflect.Type]*ComponentType),
	}
}

// Register validates T and records it with the given storage factory.
// Registering the same T again returns the existing descriptor.
func Register[T models.Component](tbl *Table, factory StorageFactory) (*ComponentType, error) {
	rtype := reflect.TypeFor[T]()

	tbl.mx.RLock()
	existing, ok := tbl.byType[rtype]
	tbl.mx.RUnlock()
	if ok {
		return existing, nil
	}

	if err := ValidateType(rtype); err != nil {
		return nil, err
	}

	var zero T
	_, interpolates := any(zero).(models.Interpolator[T])
	name := NameOf[T]()
	ct := &ComponentType{
		id:           IDOf(name),
		name:         name,
		rtype:        rtype,
		interpolates: interpolates,
		accepts: func(v any) bool {
			_, ok := v.(T)
			return ok
		},
		newStorage: factory,
	}

	tbl.mx.Lock()
	defer tbl.mx.Unlock()

	if existing, ok = tbl.byType[rtype]; ok {
		return existing, nil
	}
	if other, taken := tbl.byID.Get(ct.id); taken {
		return nil, fmt.Errorf("%w: %s and %s share id %d", ErrComponentTypeConflict, other.rtype, rtype, ct.id)
	}
	tbl.byID.Put(ct.id, ct)
	tbl.byType[rtype] = ct
	return ct, nil
}

// Lookup returns the descriptor for id, if registered.
func (tbl *Table) Lookup(id TypeID) (*ComponentType, bool) {
	tbl.mx.RLock()
	defer tbl.mx.RUnlock()
	return tbl.byID.Get(id)
}

// LookupName returns the descriptor registered under name, if any.
func (tbl *Table) LookupName(name TypeName) (*ComponentType, bool) {
	return tbl.Lookup(IDOf(name))
}

// LookupType returns the descriptor registered for a Go type, if any.
func (tbl *Table) LookupType(t reflect.Type) (*ComponentType, bool) {
	tbl.mx.RLock()
	defer tbl.mx.RUnlock()
	ct, ok := tbl.byType[t]
	return ct, ok
}

// Resolve is Lookup that reports unknown ids as a type validation error.
func (tbl *Table) Resolve(id TypeID) (*ComponentType, error) {
	ct, ok := tbl.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownComponentType, id)
	}
	return ct, nil
}

func (tbl *Table) Len() int {
	tbl.mx.RLock()
	defer tbl.mx.RUnlock()
	return tbl.byID.Len()
}

// Types returns every registered descriptor ordered by name.
func (tbl *Table) Types() []*ComponentType {
	tbl.mx.RLock()
	out := make([]*ComponentType, 0, tbl.byID.Len())
	tbl.byID.ForEach(func(_ TypeID, ct *ComponentType) bool {
		out = append(out, ct)
		return true
	})
	tbl.mx.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}
