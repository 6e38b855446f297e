package symtab

import (
	"fmt"

	"github.com/msiegel/substratum-sub000/internal/types"
)

// resolvedPrimitives caches the Semantic id for each primitive integer
// width, so resolving "u32" twice returns the same id both times.
type primitiveKey struct {
	signed bool
	size   types.IntSize
}

// resolver holds the per-table caches ResolveType needs across calls. It is
// embedded in SymbolTable rather than recomputed per call so repeated
// resolution of the same primitive or generic parameter is cheap and
// produces a stable id.
type resolver struct {
	primitives map[primitiveKey]types.Semantic
	generics   map[string]types.Semantic
	unit       types.Semantic
}

func newResolver() *resolver {
	return &resolver{
		primitives: map[primitiveKey]types.Semantic{},
		generics:   map[string]types.Semantic{},
	}
}

// ResolveType turns a syntactic type form into an interned Semantic id,
// walking from cur's current def-path for Named lookups. SelfType must be
// substituted away by the caller before this is reached: the linearizer
// knows the enclosing impl's receiver type, which this function does not.
func (st *SymbolTable) ResolveType(cur *Cursor, syntax types.Syntactic) (types.Semantic, error) {
	if st.resolver == nil {
		st.resolver = newResolver()
	}
	r := st.resolver

	switch s := syntax.(type) {
	case types.Unit:
		if r.unit == types.Invalid {
			r.unit = st.Types.Intern(types.TypeDefinition{Syntax: s, Repr: types.TypeRepr{Kind: types.ReprUnit}})
		}
		return r.unit, nil

	case types.UnsignedInt:
		key := primitiveKey{signed: false, size: s.Size}
		if id, ok := r.primitives[key]; ok {
			return id, nil
		}
		id := st.Types.Intern(types.TypeDefinition{
			Syntax: s,
			Repr:   types.TypeRepr{Kind: types.ReprUnsignedInteger, IntSize: s.Size},
		})
		r.primitives[key] = id
		return id, nil

	case types.SignedInt:
		key := primitiveKey{signed: true, size: s.Size}
		if id, ok := r.primitives[key]; ok {
			return id, nil
		}
		id := st.Types.Intern(types.TypeDefinition{
			Syntax: s,
			Repr:   types.TypeRepr{Kind: types.ReprSignedInteger, IntSize: s.Size},
		})
		r.primitives[key] = id
		return id, nil

	case types.GenericParam:
		if !cur.GenericInScope(s.Name) {
			return types.Invalid, &UndefinedError{Kind: KindType, Key: s.Name}
		}
		if id, ok := r.generics[s.Name]; ok {
			return id, nil
		}
		id := st.Types.Intern(types.TypeDefinition{Syntax: s, Repr: types.TypeRepr{Kind: types.ReprUnit}})
		r.generics[s.Name] = id
		return id, nil

	case types.Named:
		typeSym, _, err := st.LookupType(cur, s.Name)
		if err != nil {
			return types.Invalid, err
		}
		return typeSym.Semantic, nil

	case types.Reference:
		// References carry no distinct Semantic id: the pointee's id plus
		// the reference's own fixed size/alignment (spec.md §3.1) is
		// enough for every query the IR needs.
		return st.ResolveType(cur, s.Of)

	case types.Pointer:
		return st.ResolveType(cur, s.Of)

	case types.Tuple:
		fields := make([]types.StructField, len(s.Elems))
		for i, elem := range s.Elems {
			id, err := st.ResolveType(cur, elem)
			if err != nil {
				return types.Invalid, err
			}
			fields[i] = types.StructField{Name: fmt.Sprintf("%d", i), Type: id}
		}
		tupleID := st.Types.Intern(types.TypeDefinition{
			Syntax: s,
			Repr:   types.TypeRepr{Kind: types.ReprTuple, Fields: fields},
		})
		if err := st.Types.ComputeLayout(tupleID); err != nil {
			return types.Invalid, err
		}
		return tupleID, nil

	case types.SelfType:
		return types.Invalid, fmt.Errorf("ResolveType: Self must be substituted by the caller before resolution")

	default:
		return types.Invalid, fmt.Errorf("ResolveType: unhandled syntactic form %T", syntax)
	}
}
