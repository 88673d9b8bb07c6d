package setdef

import (
	"fmt"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
)

// Resolver bundles the databases consulted for one encode or decode call.
//
// Resolution is the same for every container kind:
//   - ids up to MaxLocalSetID resolve in Local when a local table is present,
//     otherwise in Global;
//   - larger ids resolve only in Global, and only on RWF 14.1 or later.
type Resolver[T Tag] struct {
	Local  *LocalDb[T]
	Global *GlobalDb[T]
}

type (
	FieldResolver   = Resolver[int16]
	ElementResolver = Resolver[string]
)

// Resolve returns the definition for id, or errs.ErrSetDefNotProvided.
func (r Resolver[T]) Resolve(id uint16, minor uint8) (*Definition[T], error) {
	if id <= MaxLocalSetID && r.Local != nil {
		if def, ok := r.Local.Lookup(id); ok {
			return def, nil
		}

		return nil, fmt.Errorf("%w: local %s set %d", errs.ErrSetDefNotProvided, kindOf[T](), id)
	}

	if id > MaxLocalSetID && minor < format.MinorVersion1 {
		return nil, fmt.Errorf("%w: global %s set %d requires RWF 14.1", errs.ErrSetDefNotProvided, kindOf[T](), id)
	}

	if def, ok := r.Global.Lookup(id); ok {
		return def, nil
	}

	return nil, fmt.Errorf("%w: %s set %d", errs.ErrSetDefNotProvided, kindOf[T](), id)
}

// WithLocal returns a copy of r whose local table is local when r has none.
func (r Resolver[T]) WithLocal(local *LocalDb[T]) Resolver[T] {
	if r.Local == nil {
		r.Local = local
	}

	return r
}
