package types

// Subst maps type parameters to the types replacing them.
type Subst map[TypeID]TypeID

// Substitute rebuilds id with every type parameter in s replaced.
func (in *Interner) Substitute(id TypeID, s Subst) TypeID {
	if len(s) == 0 || id == NoTypeID {
		return id
	}
	tt, ok := in.Lookup(id)
	if !ok {
		return id
	}
	switch tt.Kind {
	case KindTypeParam:
		if repl, ok := s[id]; ok && repl != NoTypeID {
			return repl
		}
		return id
	case KindArray, KindSpan, KindPointer:
		elem := in.Substitute(tt.Elem, s)
		if elem == tt.Elem {
			return id
		}
		tt.Elem = elem
		return in.Intern(tt)
	case KindNamed:
		info, _ := in.NamedInfo(id)
		if len(info.Args) == 0 {
			return id
		}
		changed := false
		args := make([]TypeID, len(info.Args))
		for i, a := range info.Args {
			args[i] = in.Substitute(a, s)
			changed = changed || args[i] != a
		}
		if !changed {
			return id
		}
		return in.Named(info.Def, info.Name, args)
	default:
		return id
	}
}

// Walk calls visit for id and every type nested in it, outermost first.
// Returning false from visit stops descent into that type.
func (in *Interner) Walk(id TypeID, visit func(TypeID) bool) {
	if id == NoTypeID || !visit(id) {
		return
	}
	tt, ok := in.Lookup(id)
	if !ok {
		return
	}
	switch tt.Kind {
	case KindArray, KindSpan, KindPointer:
		in.Walk(tt.Elem, visit)
	case KindNamed:
		for _, a := range in.TypeArgs(id) {
			in.Walk(a, visit)
		}
	}
}

// Mentions reports whether target occurs anywhere inside id.
func (in *Interner) Mentions(id, target TypeID) bool {
	found := false
	in.Walk(id, func(t TypeID) bool {
		if t == target {
			found = true
		}
		return !found
	})
	return found
}

// IsOpen reports whether id mentions any type parameter.
func (in *Interner) IsOpen(id TypeID) bool {
	open := false
	in.Walk(id, func(t TypeID) bool {
		if in.KindOf(t) == KindTypeParam {
			open = true
		}
		return !open
	})
	return open
}
