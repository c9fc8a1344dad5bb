// Package authorization provides the boundary role gate. Identity itself is
// supplied by the external auth service through JWT claims; this package
// only decides admin-vs-partner access.
package authorization

type Role string

const (
	RoleAdmin   Role = "admin"
	RolePartner Role = "partner"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RolePartner
}

func ParseRole(s string) Role {
	role := Role(s)
	if role.IsValid() {
		return role
	}
	return RolePartner
}
