package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Variance of a generic type parameter.
type Variance uint8

const (
	Invariant Variance = iota
	Covariant          // out T
	Contravariant      // in T
)

// ParamOwner says whether a type parameter belongs to a type or a method.
type ParamOwner uint8

const (
	OwnerType ParamOwner = iota + 1
	OwnerMethod
)

// TypeParamInfo stores metadata about a generic type parameter.
type TypeParamInfo struct {
	Name      string
	OwnerKind ParamOwner
	Owner     uint32
	Index     uint32
	Variance  Variance
}

// RegisterTypeParam allocates a fresh type parameter. Two parameters with the
// same name on different owners are distinct types.
func (in *Interner) RegisterTypeParam(info TypeParamInfo) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.params = append(in.params, info)
	slot, err := safecast.Conv[uint32](len(in.params) - 1)
	if err != nil {
		panic(fmt.Errorf("type param index overflow: %w", err))
	}
	return in.internRawLocked(Type{Kind: KindTypeParam, Payload: slot})
}

// TypeParamInfo returns metadata for the provided generic parameter.
func (in *Interner) TypeParamInfo(id TypeID) (TypeParamInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTypeParam {
		return TypeParamInfo{}, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	if tt.Payload == 0 || int(tt.Payload) >= len(in.params) {
		return TypeParamInfo{}, false
	}
	return in.params[tt.Payload], true
}
