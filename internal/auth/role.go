package auth

import "fmt"

// AccessRole is one of the closed, ordered set of privilege levels a session
// can hold for an event. Admin implies Orga implies User; SharableViewLink is
// the narrow credential minted for shareable links and implies nothing.
type AccessRole int

const (
	// RoleUnspecified indicates the role is not set.
	RoleUnspecified AccessRole = iota
	// RoleUser grants read access to the published plan.
	RoleUser
	// RoleOrga grants organiser access to entries and announcements.
	RoleOrga
	// RoleAdmin grants full control over the event.
	RoleAdmin
	// RoleSharableViewLink is the scoped-down credential for subscription links.
	RoleSharableViewLink
)

// RoleFromID maps a stored role identifier to its AccessRole. An unknown
// identifier is a data-integrity fault, not a client error.
func RoleFromID(id int) (AccessRole, error) {
	switch id {
	case 1:
		return RoleUser, nil
	case 2:
		return RoleOrga, nil
	case 3:
		return RoleAdmin, nil
	case 4:
		return RoleSharableViewLink, nil
	default:
		return RoleUnspecified, fmt.Errorf("auth: unknown role id %d: %w", id, ErrInvalidDataInStore)
	}
}

// ID returns the stable identifier under which the role is persisted.
func (r AccessRole) ID() int {
	switch r {
	case RoleUser:
		return 1
	case RoleOrga:
		return 2
	case RoleAdmin:
		return 3
	case RoleSharableViewLink:
		return 4
	default:
		return 0
	}
}

// ImpliedRoles returns the role itself together with every weaker role it
// grants, so that resolved role sets are always closed under implication.
func (r AccessRole) ImpliedRoles() []AccessRole {
	switch r {
	case RoleUser:
		return []AccessRole{RoleUser}
	case RoleOrga:
		return []AccessRole{RoleOrga, RoleUser}
	case RoleAdmin:
		return []AccessRole{RoleAdmin, RoleOrga, RoleUser}
	case RoleSharableViewLink:
		return []AccessRole{RoleSharableViewLink}
	default:
		return nil
	}
}

// ParseRole maps the wire name of a role to its value.
func ParseRole(name string) (AccessRole, error) {
	switch name {
	case "user":
		return RoleUser, nil
	case "orga":
		return RoleOrga, nil
	case "admin":
		return RoleAdmin, nil
	case "sharable_view_link":
		return RoleSharableViewLink, nil
	default:
		return RoleUnspecified, fmt.Errorf("auth: unknown role %q", name)
	}
}

// String renders the role for logs and diagnostics.
func (r AccessRole) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleOrga:
		return "orga"
	case RoleAdmin:
		return "admin"
	case RoleSharableViewLink:
		return "sharable_view_link"
	default:
		return "unspecified"
	}
}

// Privilege is a named capability gated by a static set of qualifying roles.
type Privilege int

const (
	// PrivilegeUnspecified indicates no privilege is set.
	PrivilegeUnspecified Privilege = iota
	// PrivilegeShowPlan allows reading the published plan views.
	PrivilegeShowPlan
	// PrivilegeManageEntries allows creating, rescheduling and cancelling entries.
	PrivilegeManageEntries
	// PrivilegeManageCategories allows editing the category catalogue.
	PrivilegeManageCategories
	// PrivilegeManageRooms allows editing the room catalogue.
	PrivilegeManageRooms
	// PrivilegeEditEventDetails allows changing event metadata and clock settings.
	PrivilegeEditEventDetails
	// PrivilegeManagePassphrases allows administering access credentials.
	PrivilegeManagePassphrases
	// PrivilegeManageAnnouncements allows publishing announcements.
	PrivilegeManageAnnouncements
	// PrivilegeCreateEvents allows creating new events on the instance.
	PrivilegeCreateEvents
	// PrivilegeShowConfigArea allows opening the configuration area at all.
	PrivilegeShowConfigArea
)

// QualifyingRoles returns the static, non-empty set of roles that satisfy the
// privilege.
func (p Privilege) QualifyingRoles() []AccessRole {
	switch p {
	case PrivilegeShowPlan:
		return []AccessRole{RoleUser, RoleOrga, RoleAdmin, RoleSharableViewLink}
	case PrivilegeManageEntries:
		return []AccessRole{RoleOrga, RoleAdmin}
	case PrivilegeManageCategories:
		return []AccessRole{RoleOrga, RoleAdmin}
	case PrivilegeManageRooms:
		return []AccessRole{RoleAdmin}
	case PrivilegeEditEventDetails:
		return []AccessRole{RoleAdmin}
	case PrivilegeManagePassphrases:
		return []AccessRole{RoleAdmin}
	case PrivilegeManageAnnouncements:
		return []AccessRole{RoleOrga, RoleAdmin}
	case PrivilegeCreateEvents:
		return []AccessRole{RoleAdmin}
	case PrivilegeShowConfigArea:
		return []AccessRole{RoleOrga, RoleAdmin}
	default:
		return nil
	}
}

// ParsePrivilege maps the wire name of a privilege to its value.
func ParsePrivilege(name string) (Privilege, error) {
	switch name {
	case "show_plan":
		return PrivilegeShowPlan, nil
	case "manage_entries":
		return PrivilegeManageEntries, nil
	case "manage_categories":
		return PrivilegeManageCategories, nil
	case "manage_rooms":
		return PrivilegeManageRooms, nil
	case "edit_event_details":
		return PrivilegeEditEventDetails, nil
	case "manage_passphrases":
		return PrivilegeManagePassphrases, nil
	case "manage_announcements":
		return PrivilegeManageAnnouncements, nil
	case "create_events":
		return PrivilegeCreateEvents, nil
	case "show_config_area":
		return PrivilegeShowConfigArea, nil
	default:
		return PrivilegeUnspecified, fmt.Errorf("auth: unknown privilege %q", name)
	}
}

// String renders the privilege wire name.
func (p Privilege) String() string {
	switch p {
	case PrivilegeShowPlan:
		return "show_plan"
	case PrivilegeManageEntries:
		return "manage_entries"
	case PrivilegeManageCategories:
		return "manage_categories"
	case PrivilegeManageRooms:
		return "manage_rooms"
	case PrivilegeEditEventDetails:
		return "edit_event_details"
	case PrivilegeManagePassphrases:
		return "manage_passphrases"
	case PrivilegeManageAnnouncements:
		return "manage_announcements"
	case PrivilegeCreateEvents:
		return "create_events"
	case PrivilegeShowConfigArea:
		return "show_config_area"
	default:
		return "unspecified"
	}
}
