package registry

// AddRegistrar grants target the registrar role. Only the administrator may
// call it; target must be non-zero and not already a registrar.
func (r *Registry) AddRegistrar(caller, target Principal) error {
	r.mu.Lock()
	if !isAdmin(r.admin, caller) {
		r.mu.Unlock()
		return newError(KindUnauthorized, "Only admin can perform this action")
	}
	if target.IsZero() {
		r.mu.Unlock()
		return newError(KindInvalidArgument, "Invalid address")
	}
	if isMember(r.registrars, target) {
		r.mu.Unlock()
		return newError(KindConflict, "Already a registrar")
	}
	r.registrars[target] = struct{}{}
	ev := RegistrarAdded{Registrar: target, Timestamp: r.now()}
	r.mu.Unlock()

	r.emit(ev)
	return nil
}

// RemoveRegistrar withdraws the registrar role from target. Only the
// administrator may call it, and the administrator itself can never be
// removed.
func (r *Registry) RemoveRegistrar(caller, target Principal) error {
	r.mu.Lock()
	if !isAdmin(r.admin, caller) {
		r.mu.Unlock()
		return newError(KindUnauthorized, "Only admin can perform this action")
	}
	if target == r.admin {
		r.mu.Unlock()
		return newError(KindInvalidState, "Cannot remove admin")
	}
	if !isMember(r.registrars, target) {
		r.mu.Unlock()
		return newError(KindNotFound, "Not a registrar")
	}
	delete(r.registrars, target)
	ev := RegistrarRemoved{Registrar: target, Timestamp: r.now()}
	r.mu.Unlock()

	r.emit(ev)
	return nil
}

// IsRegistrar reports whether p currently holds the registrar role. The
// administrator is always a registrar. Never fails.
func (r *Registry) IsRegistrar(p Principal) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return isMember(r.registrars, p)
}
