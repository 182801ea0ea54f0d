package access

import (
	"iter"

	"github.com/zeusync/timeline/internal/core/models"
	"github.com/zeusync/timeline/internal/core/schema/registry"
)

// PreferredAccess tells generic callers which traversal an access serves cheaply.
type PreferredAccess uint8

const (
	// ByEntity resolves the entity first, then the component type.
	ByEntity PreferredAccess = iota
	// ByComponent resolves the component type first, then the entity.
	ByComponent
)

func (p PreferredAccess) String() string {
	switch p {
	case ByEntity:
		return "by-entity"
	case ByComponent:
		return "by-component"
	default:
		return "unknown"
	}
}

// EntityComponentAccess is a data structure associating components with entities.
type EntityComponentAccess interface {
	// Entities returns the entities handled by the access, or nil when the
	// access does not track them.
	Entities() []models.Entity
	// ComponentTypes returns the component types handled by the access.
	ComponentTypes() []*registry.ComponentType
	PreferredAccess() PreferredAccess
	// Table is where typed helpers register component types.
	Table() *registry.Table

	// ForEntity returns the components of one entity.
	ForEntity(e models.Entity) Bag
	// ForType returns the associations of one component type.
	ForType(id registry.TypeID) (AnyGrouping, error)
}

// Bag handles the components of a single entity.
type Bag interface {
	Entity() models.Entity
	Get(id registry.TypeID) (any, models.State, error)
	// Set stores value (nil removes) and returns the previous value.
	Set(id registry.TypeID, value any) (prev any, prevState models.State, err error)
	// All enumerates present components.
	All() iter.Seq2[*registry.ComponentType, any]
	Len() int
}

// AnyGrouping associates components of one runtime-known type with entities.
type AnyGrouping interface {
	ComponentType() *registry.ComponentType
	Get(e models.Entity) (any, models.State, error)
	// Set stores value (nil removes) and returns the previous value. A value
	// of another type is rejected.
	Set(e models.Entity, value any) (prev any, prevState models.State, err error)
	All() iter.Seq2[models.Entity, any]
	Len() int
}

// Grouping associates components of type T with entities.
type Grouping[T any] interface {
	ComponentType() *registry.ComponentType
	Get(e models.Entity) (T, models.State, error)
	Set(e models.Entity, value models.Option[T]) (prev T, prevState models.State, err error)
	All() iter.Seq2[models.Entity, T]
	Len() int
}
