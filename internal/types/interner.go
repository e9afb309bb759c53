package types

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for predefined types.
type Builtins struct {
	Error   TypeID
	Void    TypeID
	Object  TypeID
	Dynamic TypeID
	Bool    TypeID
	Char    TypeID
	String  TypeID
	SByte   TypeID
	Short   TypeID
	Int     TypeID
	Long    TypeID
	Byte    TypeID
	UShort  TypeID
	UInt    TypeID
	ULong   TypeID
	Float   TypeID
	Double  TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// It is shared by every binding worker of a compilation, so all access is
// guarded; lookups take the read lock only.
type Interner struct {
	mu       sync.RWMutex
	types    []Type
	index    map[typeKey]TypeID
	named    []NamedInfo
	namedIdx map[string]TypeID
	params   []TypeParamInfo
	builtins Builtins
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index:    make(map[typeKey]TypeID, 64),
		namedIdx: make(map[string]TypeID, 32),
		named:    []NamedInfo{{}},     // reserve 0 as invalid sentinel
		params:   []TypeParamInfo{{}}, // same
	}
	in.types = append(in.types, Type{Kind: KindInvalid})
	b := &in.builtins
	b.Error = in.Intern(Type{Kind: KindError})
	b.Void = in.Intern(Type{Kind: KindVoid})
	b.Object = in.Intern(Type{Kind: KindObject})
	b.Dynamic = in.Intern(Type{Kind: KindDynamic})
	b.Bool = in.Intern(Type{Kind: KindBool})
	b.Char = in.Intern(Type{Kind: KindChar})
	b.String = in.Intern(Type{Kind: KindString})
	b.SByte = in.Intern(MakeInt(Width8))
	b.Short = in.Intern(MakeInt(Width16))
	b.Int = in.Intern(MakeInt(Width32))
	b.Long = in.Intern(MakeInt(Width64))
	b.Byte = in.Intern(MakeUint(Width8))
	b.UShort = in.Intern(MakeUint(Width16))
	b.UInt = in.Intern(MakeUint(Width32))
	b.ULong = in.Intern(MakeUint(Width64))
	b.Float = in.Intern(MakeFloat(Width32))
	b.Double = in.Intern(MakeFloat(Width64))
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
// Named types and type parameters have their own registration entry points.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	in.mu.RLock()
	id, ok := in.index[key]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRawLocked(t)
}

// internRawLocked appends without consulting the index. Caller holds mu.
func (in *Interner) internRawLocked(t Type) TypeID {
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(n)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if in == nil || id == NoTypeID {
		return Type{}, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// KindOf is Lookup(id).Kind with KindInvalid for unknown IDs.
func (in *Interner) KindOf(id TypeID) Kind {
	tt, ok := in.Lookup(id)
	if !ok {
		return KindInvalid
	}
	return tt.Kind
}

// Array interns elem[] with the given rank.
func (in *Interner) Array(elem TypeID, rank uint32) TypeID {
	return in.Intern(MakeArray(elem, rank))
}

// Span interns Span<elem> or ReadOnlySpan<elem>.
func (in *Interner) Span(elem TypeID, readOnly bool) TypeID {
	return in.Intern(MakeSpan(elem, readOnly))
}

// Pointer interns elem*.
func (in *Interner) Pointer(elem TypeID) TypeID {
	return in.Intern(MakePointer(elem))
}

type typeKey struct {
	Kind     Kind
	Elem     TypeID
	Count    uint32
	Width    Width
	ReadOnly bool
	Payload  uint32
}
