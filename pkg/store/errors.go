// Package store implements CRUD over template and rule collections with
// value semantics: every mutating operation takes the current store value and
// returns a new one, leaving the caller's copy untouched.
package store

import "errors"

var (
	// ErrNotFound means the referenced template or rule does not exist.
	ErrNotFound = errors.New("not_found")
	// ErrDuplicateName means another entity already uses the name
	// (case-insensitive).
	ErrDuplicateName = errors.New("duplicate_name")
	// ErrBuiltIn means the operation targeted an immutable built-in entity.
	ErrBuiltIn = errors.New("cannot_modify_builtin")
	// ErrInvalidPattern means a template or glob pattern failed to parse.
	ErrInvalidPattern = errors.New("invalid_pattern")
	// ErrTemplateNotFound means a rule references a template that does not
	// exist in the supplied store.
	ErrTemplateNotFound = errors.New("template_not_found")
	// ErrValidation means the input failed structural validation.
	ErrValidation = errors.New("validation_error")
)
