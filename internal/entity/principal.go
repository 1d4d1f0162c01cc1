package entity

// Principal is the authenticated caller. It is resolved once at the HTTP edge
// and handed to every operation that needs to know who is asking.
type Principal struct {
	UserId uint
	Email  string
	Role   UserRole
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

// CanAccess reports whether the caller may read data owned by ownerId.
func (p Principal) CanAccess(ownerId uint) bool {
	return p.IsAdmin() || p.UserId == ownerId
}
