package symtab

import "fmt"

// UndefinedError reports a lookup that found no matching symbol anywhere
// from the caller's def-path out to the root, per spec.md §7.
type UndefinedError struct {
	Kind ComponentKind
	Key  string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("undefined %s: %s", e.Kind, e.Key)
}

// DefinedError reports an attempt to insert a symbol whose kind and key
// already exist in the target container, per spec.md §7.
type DefinedError struct {
	Kind     ComponentKind
	Key      string
	Existing DefPath
}

func (e *DefinedError) Error() string {
	return fmt.Sprintf("%s %s already defined at %s", e.Kind, e.Key, e.Existing)
}

// DuplicateGenericParamError reports a generic parameter name that collides
// with one already in scope, per spec.md §3.2.
type DuplicateGenericParamError struct {
	Name string
}

func (e *DuplicateGenericParamError) Error() string {
	return fmt.Sprintf("duplicate generic parameter: %s", e.Name)
}
