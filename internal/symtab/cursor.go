package symtab

// Cursor tracks the current def-path of a caller walking the symbol table,
// plus the stack of generic-parameter sets currently in scope. It is the
// "current def-path of the caller" every public SymbolTable operation is
// parameterized by (spec.md §4.1); internal/linearize's DefContext wraps
// one of these.
type Cursor struct {
	path     DefPath
	generics []map[string]bool
}

// NewCursor starts a cursor at the root module.
func NewCursor() *Cursor {
	return &Cursor{}
}

// Path returns the cursor's current def-path.
func (c *Cursor) Path() DefPath { return c.path.Clone() }

// PushDefPath pushes component onto the path after validating it against
// the ownership lattice (spec.md §3.2). On a violation, or a generic name
// already in scope, it returns the error and leaves the path unchanged; the
// linearizer treats an illegal push as a fatal internal error, not a
// recoverable user-facing diagnostic.
func (c *Cursor) PushDefPath(component DefPathComponent, generics []string) error {
	var parentKind ComponentKind
	hasParent := len(c.path) > 0
	if hasParent {
		parentKind = c.path[len(c.path)-1].Kind
	}
	if err := checkOwnership(parentKind, hasParent, component.Kind); err != nil {
		return err
	}

	if err := c.pushGenerics(generics); err != nil {
		return err
	}

	c.path = append(c.path, component)
	return nil
}

// PopDefPath pops the most recently pushed component, and its generic
// parameters if PushDefPath was given any.
func (c *Cursor) PopDefPath() {
	if len(c.path) == 0 {
		return
	}
	c.path = c.path[:len(c.path)-1]
	c.popGenerics()
}

// pushGenerics pushes a new set of in-scope generic parameter names,
// validated as disjoint from every name already in scope, per spec.md §3.2.
func (c *Cursor) pushGenerics(names []string) error {
	if len(names) == 0 {
		c.generics = append(c.generics, nil)
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if c.GenericInScope(n) || set[n] {
			return &DuplicateGenericParamError{Name: n}
		}
		set[n] = true
	}
	c.generics = append(c.generics, set)
	return nil
}

func (c *Cursor) popGenerics() {
	if len(c.generics) == 0 {
		return
	}
	c.generics = c.generics[:len(c.generics)-1]
}

// PushGenericScope brings names into scope without pushing a path
// component. Used to resolve a struct/enum/function's own declaration
// (field types, parameter types) against its own generic parameters before
// the declaration has an arena index to push a real DefPathComponent for —
// chicken-and-egg, since InsertType/InsertFunction need the fully-resolved
// representation before they can mint that index. Callers must pair this
// with PopGenericScope once resolution is done, then separately push the
// now-insertable component via PushDefPath (which re-enters the same
// generics alongside the path, for the remainder of the declaration body).
func (c *Cursor) PushGenericScope(names []string) error {
	return c.pushGenerics(names)
}

// PopGenericScope reverses PushGenericScope.
func (c *Cursor) PopGenericScope() {
	c.popGenerics()
}

// GenericInScope reports whether name is a currently in-scope generic
// parameter.
func (c *Cursor) GenericInScope(name string) bool {
	for _, set := range c.generics {
		if set[name] {
			return true
		}
	}
	return false
}
