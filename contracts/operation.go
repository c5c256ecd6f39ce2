package contracts

import (
	"reflect"
	"strings"
)

// TypeRef identifies a type by its qualified name, e.g.
// "github.com/acme/app/billing.InvoiceService".
type TypeRef struct {
	Qualified string
}

// AnyType is the universal base type. Operations declared on it are never
// traceable; the resolver skips them without consulting any source.
var AnyType = TypeRef{Qualified: "any"}

// Short returns the type name without its package qualifier.
func (t TypeRef) Short() string {
	name := t.Qualified
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

// IsZero reports whether the reference is empty.
func (t TypeRef) IsZero() bool {
	return t.Qualified == ""
}

// TypeOf derives a TypeRef from a live value, pointers unwrapped.
func TypeOf(v interface{}) TypeRef {
	if v == nil {
		return TypeRef{}
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() != "" {
		return TypeRef{Qualified: t.PkgPath() + "." + t.Name()}
	}
	return TypeRef{Qualified: t.Name()}
}

// Operation describes a callable member on some owning type. Interception is
// physically external, so operations are plain data: the host describes what
// it intercepted rather than handing over a reflective method object.
type Operation struct {
	// Name is the bare method name, e.g. "SaveUser".
	Name string

	// Declaring is the type the operation is declared on.
	Declaring TypeRef

	// Params holds the qualified parameter type names, in order. Two
	// operations with the same name but different parameter lists are
	// distinct identities.
	Params []string

	// Returns is the qualified return type name, empty for void operations.
	Returns string

	// Exported reports whether the operation is publicly visible.
	Exported bool

	// Synthetic marks compiler- or infrastructure-generated operations.
	// Synthetic operations are not user-level and never receive
	// class-level attribute fallback.
	Synthetic bool
}

// Signature renders the operation's identity within its declaring type,
// e.g. "SaveUser(string,int)". Distinguishes overloaded names.
func (op Operation) Signature() string {
	return op.Name + "(" + strings.Join(op.Params, ",") + ")"
}

// QualifiedSignature renders the full diagnostic identity of the operation
// against the given target type, falling back to the declaring type when the
// target is unset.
func (op Operation) QualifiedSignature(target TypeRef) string {
	owner := target
	if owner.IsZero() {
		owner = op.Declaring
	}
	return owner.Qualified + "." + op.Signature()
}

// ReturnsValue reports whether the operation returns anything. Void and nil
// results render differently in exit messages.
func (op Operation) ReturnsValue() bool {
	return op.Returns != ""
}

// Equal reports identity: same name, same parameter list, same declaring
// type.
func (op Operation) Equal(other Operation) bool {
	if op.Name != other.Name || op.Declaring != other.Declaring {
		return false
	}
	if len(op.Params) != len(other.Params) {
		return false
	}
	for i := range op.Params {
		if op.Params[i] != other.Params[i] {
			return false
		}
	}
	return true
}

// UserLevel reports whether the operation is eligible for class-level
// attribute fallback: not synthetic and not declared on the universal base.
func (op Operation) UserLevel() bool {
	return !op.Synthetic && op.Declaring != AnyType
}
