package models

import (
	"cmp"
	"fmt"
	"slices"
)

// EntityID identifies a remote entity. Ids are assigned by the runtime.
type EntityID int64

// ComponentID is the numeric wire id of a component schema.
type ComponentID uint32

// ComponentSetID is the numeric wire id of a set of components that are
// delegated together.
type ComponentSetID uint32

// TypeID names a local component type ("model", "position", ...).
type TypeID = string

// Key addresses one component: the entity it lives on and its type.
type Key struct {
	Entity EntityID
	Type   TypeID
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%s", k.Entity, k.Type)
}

// Compare orders keys by entity, then type.
func (k Key) Compare(other Key) int {
	if c := cmp.Compare(k.Entity, other.Entity); c != 0 {
		return c
	}
	return cmp.Compare(k.Type, other.Type)
}

// SortKeys sorts keys in place and returns them.
func SortKeys(keys []Key) []Key {
	slices.SortFunc(keys, Key.Compare)
	return keys
}
