package types

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// DefID identifies a named type declaration. The symbol table owns the
// declarations; the interner only records which one an instance refers to.
type DefID uint32

// NoDefID marks the absence of a declaration.
const NoDefID DefID = 0

// NamedInfo stores metadata for a named type instance.
type NamedInfo struct {
	Def  DefID
	Name string
	Args []TypeID
}

// Named interns the instance of def with the given type arguments. The same
// (def, args) pair always yields the same TypeID.
func (in *Interner) Named(def DefID, name string, args []TypeID) TypeID {
	key := namedKey(def, args)
	in.mu.RLock()
	id, ok := in.namedIdx[key]
	in.mu.RUnlock()
	if ok {
		return id
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.namedIdx[key]; ok {
		return id
	}
	in.named = append(in.named, NamedInfo{Def: def, Name: name, Args: slices.Clone(args)})
	slot, err := safecast.Conv[uint32](len(in.named) - 1)
	if err != nil {
		panic(fmt.Errorf("named info overflow: %w", err))
	}
	id = in.internRawLocked(Type{Kind: KindNamed, Payload: slot})
	in.namedIdx[key] = id
	return id
}

// NamedInfo returns metadata for the provided named TypeID.
func (in *Interner) NamedInfo(id TypeID) (NamedInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindNamed {
		return NamedInfo{}, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	if tt.Payload == 0 || int(tt.Payload) >= len(in.named) {
		return NamedInfo{}, false
	}
	info := in.named[tt.Payload]
	info.Args = slices.Clone(info.Args)
	return info, true
}

// DefOf returns the declaration of a named type, or NoDefID.
func (in *Interner) DefOf(id TypeID) DefID {
	info, ok := in.NamedInfo(id)
	if !ok {
		return NoDefID
	}
	return info.Def
}

// TypeArgs returns the type arguments of a named instance.
func (in *Interner) TypeArgs(id TypeID) []TypeID {
	info, ok := in.NamedInfo(id)
	if !ok {
		return nil
	}
	return info.Args
}

func namedKey(def DefID, args []TypeID) string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(uint64(def), 10))
	for _, a := range args {
		b.WriteByte('|')
		b.WriteString(strconv.FormatUint(uint64(a), 10))
	}
	return b.String()
}
