package frame

import (
	"reflect"

	"github.com/zeusync/timeline/internal/core/access"
	"github.com/zeusync/timeline/internal/core/models"
	"github.com/zeusync/timeline/internal/core/schema/registry"
	"github.com/zeusync/timeline/internal/core/store"
)

var _ access.EntityComponentAccess = Frame{}

// Frame is a view of a Store fixed at one moment. It holds no data: every
// call resolves against the live store, so frames are cheap to create and
// discard per query.
type Frame struct {
	store *store.Store
	at    models.Time
}

// New binds s to time at.
func New(s *store.Store, at models.Time) Frame {
	return Frame{store: s, at: at}
}

func (f Frame) Time() models.Time { return f.at }

func (f Frame) Store() *store.Store { return f.store }

// At returns the same view moved to another time.
func (f Frame) At(at models.Time) Frame { return Frame{store: f.store, at: at} }

// Entities is nil: the store does not track a per-moment entity set.
func (f Frame) Entities() []models.Entity { return nil }

func (f Frame) ComponentTypes() []*registry.ComponentType {
	if f.store == nil {
		return nil
	}
	return f.store.ComponentTypes()
}

// PreferredAccess is ByComponent because the store is indexed type first.
func (f Frame) PreferredAccess() access.PreferredAccess { return access.ByComponent }

func (f Frame) Table() *registry.Table {
	if f.store == nil {
		return nil
	}
	return f.store.Table()
}

// ForEntity returns the components of e at the frame time.
func (f Frame) ForEntity(e models.Entity) access.Bag {
	return access.NewBagProxy(f, e)
}

// ForType returns the grouping of the component type id at the frame time.
func (f Frame) ForType(id registry.TypeID) (access.AnyGrouping, error) {
	if f.store == nil {
		return nil, store.ErrNilStore
	}
	ct, err := f.store.Table().Resolve(id)
	if err != nil {
		return nil, err
	}
	return &anyGrouping{frame: f, ct: ct}, nil
}

// For returns the grouping of T at the frame time.
func For[T models.Component](f Frame) (access.Grouping[T], error) {
	if f.store == nil {
		return nil, store.ErrNilStore
	}
	ct, err := store.Register[T](f.store.Table())
	if err != nil {
		return nil, err
	}
	return &grouping[T]{frame: f, ct: ct}, nil
}

// publishChange emits a change event when the resolved value at the frame
// time differs from prev.
func (f Frame) publishChange(ct *registry.ComponentType, e models.Entity, prev any, prevState models.State, cur any, curState models.State) {
	if !f.store.WantsChanges() {
		return
	}
	if prevState == curState && (curState != models.Present || reflect.DeepEqual(prev, cur)) {
		return
	}
	f.store.PublishChange(store.ComponentChanged{
		Entity:        e,
		Type:          ct,
		Time:          f.at,
		Previous:      prev,
		PreviousState: prevState,
		Current:       cur,
		CurrentState:  curState,
	})
}
