package access

import (
	"iter"

	"github.com/zeusync/timeline/internal/core/models"
	"github.com/zeusync/timeline/internal/core/schema/registry"
	"github.com/zeusync/timeline/pkg/sequence"
)

var _ Bag = (*BagProxy)(nil)

// BagProxy serves a Bag for accesses indexed by component type by composing
// one grouping lookup per component type.
type BagProxy struct {
	access EntityComponentAccess
	entity models.Entity
}

func NewBagProxy(acc EntityComponentAccess, e models.Entity) *BagProxy {
	return &BagProxy{access: acc, entity: e}
}

func (b *BagProxy) Entity() models.Entity { return b.entity }

func (b *BagProxy) Get(id registry.TypeID) (any, models.State, error) {
	g, err := b.grouping(id)
	if err != nil {
		return nil, models.Unknown, err
	}
	return g.Get(b.entity)
}

func (b *BagProxy) Set(id registry.TypeID, value any) (any, models.State, error) {
	g, err := b.grouping(id)
	if err != nil {
		return nil, models.Unknown, err
	}
	return g.Set(b.entity, value)
}

func (b *BagProxy) All() iter.Seq2[*registry.ComponentType, any] {
	return func(yield func(*registry.ComponentType, any) bool) {
		if b.access == nil {
			return
		}
		for _, ct := range b.access.ComponentTypes() {
			g, err := b.access.ForType(ct.ID())
			if err != nil {
				continue
			}
			v, state, err := g.Get(b.entity)
			if err != nil || state != models.Present {
				continue
			}
			if !yield(ct, v) {
				return
			}
		}
	}
}

// Len is the number of present components of the entity.
func (b *BagProxy) Len() int {
	return sequence.Keys(b.All()).Count()
}

func (b *BagProxy) grouping(id registry.TypeID) (AnyGrouping, error) {
	if b.access == nil {
		return nil, ErrNilAccess
	}
	return b.access.ForType(id)
}
