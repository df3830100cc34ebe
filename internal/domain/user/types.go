package user

type Role string

const (
	RoleBuyer   Role = "buyer"
	RoleCreator Role = "creator"
	RoleAdmin   Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleBuyer, RoleCreator, RoleAdmin:
		return true
	default:
		return false
	}
}

// CanCreateRaffles reports whether this role may publish raffles.
func (r Role) CanCreateRaffles() bool {
	return r == RoleCreator || r == RoleAdmin
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func NewRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}
