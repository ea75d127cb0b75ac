package model

// Identity is the caller resolved from a bearer token
type Identity struct {
	UserID   int64
	Email    string
	Role     string
	FullName string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

func IdentityOf(u *User) Identity {
	return Identity{UserID: u.ID, Email: u.Email, Role: u.Role, FullName: u.FullName}
}
