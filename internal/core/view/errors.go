package view

import "errors"

var (
	// Schema errors

	ErrTypeMismatch        = errors.New("value kind does not match option")
	ErrUnknownType         = errors.New("unknown component type")
	ErrUnknownOption       = errors.New("unknown configuration option")
	ErrDuplicateDefinition = errors.New("already defined")
	ErrInvalidType         = errors.New("invalid component type definition")

	// Registry errors

	ErrUnknownEntity    = errors.New("unknown entity")
	ErrUnknownComponent = errors.New("component not present on entity")

	// Lifecycle errors

	ErrActivationFailure = errors.New("component activation failed")

	// Authority errors

	ErrAuthorityHazard  = errors.New("inbound update for authoritative component")
	ErrNotAuthoritative = errors.New("not authoritative over component")
	ErrNoSynchronizer   = errors.New("no synchronizer configured")
)
