package auth

// Role represents a user role.
type Role string

const (
	RoleConsumer Role = "consumer"
	RoleProducer Role = "producer"
	RoleAdmin    Role = "admin"
)

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleConsumer, RoleProducer, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleSatisfies reports whether role may act as required. Roles are not
// ranked; admin passes everything, the rest must match exactly.
func RoleSatisfies(role, required Role) bool {
	if role == RoleAdmin {
		return true
	}
	return role == required
}
