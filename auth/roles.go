package auth

// UserRole is the user's role. Roles are fixed at registration and never
// change afterwards.
type UserRole string

const (
	// RoleStudent browses the catalog, enrolls, and messages mentors
	RoleStudent UserRole = "student"
	// RoleTutor publishes courses and handles student requests
	RoleTutor UserRole = "tutor"
)

// ParseRole returns the role for the given string and whether it is valid
func ParseRole(role string) (UserRole, bool) {
	switch UserRole(role) {
	case RoleStudent:
		return RoleStudent, true
	case RoleTutor:
		return RoleTutor, true
	default:
		return "", false
	}
}

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// IsTutor reports whether the role grants mentor-side operations
func (r UserRole) IsTutor() bool {
	return r == RoleTutor
}
