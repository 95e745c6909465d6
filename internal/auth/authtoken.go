package auth

// AuthToken is the implication-closed role set a session resolved to for one
// event. It must not be upgraded after issuance within a request.
type AuthToken struct {
	EventID int64
	Roles   []AccessRole
}

// Check succeeds iff the token is scoped to eventID and at least one of its
// roles qualifies for the privilege.
func (t AuthToken) Check(eventID int64, privilege Privilege) error {
	if t.EventID == eventID && rolesSatisfy(t.Roles, privilege) {
		return nil
	}
	return &PermissionDeniedError{Privilege: privilege, EventID: eventID}
}

// GlobalAuthToken is a resolved role set without event scoping, used for
// instance-level operations such as event creation.
type GlobalAuthToken struct {
	Roles []AccessRole
}

// Check succeeds iff at least one held role qualifies for the privilege.
func (t GlobalAuthToken) Check(privilege Privilege) error {
	if rolesSatisfy(t.Roles, privilege) {
		return nil
	}
	return &PermissionDeniedError{Privilege: privilege}
}

func rolesSatisfy(roles []AccessRole, privilege Privilege) bool {
	for _, role := range roles {
		for _, qualifying := range privilege.QualifyingRoles() {
			if role == qualifying {
				return true
			}
		}
	}
	return false
}
