package domain

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID uint
	Role   Role
}

// IsAdmin reports whether the caller is an administrator
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Owns reports whether the caller is ownerID or an administrator
func (a Actor) Owns(ownerID uint) bool {
	return a.IsAdmin() || a.UserID == ownerID
}
