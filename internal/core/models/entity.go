package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Entity is an opaque, globally unique handle that components are associated with.
// It carries no structure beyond equality and is safe to use as a map key.
type Entity struct {
	id uuid.UUID
}

// NilEntity is the zero Entity. Stores reject it as a missing argument.
var NilEntity = Entity{}

// NewEntity returns a fresh random entity.
func NewEntity() Entity {
	return Entity{id: uuid.New()}
}

// EntityFrom wraps an existing UUID.
func EntityFrom(id uuid.UUID) Entity {
	return Entity{id: id}
}

// ParseEntity parses the canonical UUID text form of an entity.
func ParseEntity(s string) (Entity, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NilEntity, fmt.Errorf("parse entity %q: %w", s, err)
	}
	return Entity{id: id}, nil
}

func (e Entity) UUID() uuid.UUID { return e.id }

func (e Entity) IsNil() bool { return e.id == uuid.Nil }

func (e Entity) String() string {
	return fmt.Sprintf("[Entity %s]", e.id)
}
