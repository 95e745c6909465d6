package auth

import (
	"errors"
	"testing"
)

func TestAccessRole_ImpliedRoles(t *testing.T) {
	t.Parallel()

	cases := []struct {
		role AccessRole
		want []AccessRole
	}{
		{role: RoleAdmin, want: []AccessRole{RoleAdmin, RoleOrga, RoleUser}},
		{role: RoleOrga, want: []AccessRole{RoleOrga, RoleUser}},
		{role: RoleUser, want: []AccessRole{RoleUser}},
		{role: RoleSharableViewLink, want: []AccessRole{RoleSharableViewLink}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.role.String(), func(t *testing.T) {
			t.Parallel()

			got := tc.role.ImpliedRoles()
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}

func TestRoleFromID(t *testing.T) {
	t.Parallel()

	for _, role := range []AccessRole{RoleUser, RoleOrga, RoleAdmin, RoleSharableViewLink} {
		got, err := RoleFromID(role.ID())
		if err != nil || got != role {
			t.Fatalf("RoleFromID(%d) = %v, %v", role.ID(), got, err)
		}
	}

	if _, err := RoleFromID(99); !errors.Is(err, ErrInvalidDataInStore) {
		t.Fatalf("expected ErrInvalidDataInStore, got %v", err)
	}
}

func TestAuthToken_Check(t *testing.T) {
	t.Parallel()

	token := AuthToken{EventID: 1, Roles: []AccessRole{RoleOrga}}

	t.Run("orga may manage entries", func(t *testing.T) {
		t.Parallel()

		if err := token.Check(1, PrivilegeManageEntries); err != nil {
			t.Fatalf("expected permission, got %v", err)
		}
	})

	t.Run("orga may not manage passphrases", func(t *testing.T) {
		t.Parallel()

		err := token.Check(1, PrivilegeManagePassphrases)
		var denied *PermissionDeniedError
		if !errors.As(err, &denied) {
			t.Fatalf("expected PermissionDeniedError, got %v", err)
		}
		if denied.Privilege != PrivilegeManagePassphrases || denied.EventID != 1 {
			t.Fatalf("unexpected denial details: %+v", denied)
		}
	})

	t.Run("tokens are scoped to their event", func(t *testing.T) {
		t.Parallel()

		var denied *PermissionDeniedError
		if err := token.Check(2, PrivilegeShowPlan); !errors.As(err, &denied) {
			t.Fatalf("expected PermissionDeniedError, got %v", err)
		}
	})

	t.Run("sharable view link may only show the plan", func(t *testing.T) {
		t.Parallel()

		link := AuthToken{EventID: 1, Roles: []AccessRole{RoleSharableViewLink}}
		if err := link.Check(1, PrivilegeShowPlan); err != nil {
			t.Fatalf("expected permission, got %v", err)
		}
		var denied *PermissionDeniedError
		if err := link.Check(1, PrivilegeManageEntries); !errors.As(err, &denied) {
			t.Fatalf("expected PermissionDeniedError, got %v", err)
		}
	})
}

func TestGlobalAuthToken_Check(t *testing.T) {
	t.Parallel()

	admin := GlobalAuthToken{Roles: []AccessRole{RoleAdmin}}
	if err := admin.Check(PrivilegeCreateEvents); err != nil {
		t.Fatalf("expected permission, got %v", err)
	}

	user := GlobalAuthToken{Roles: []AccessRole{RoleUser}}
	var denied *PermissionDeniedError
	if err := user.Check(PrivilegeCreateEvents); !errors.As(err, &denied) {
		t.Fatalf("expected PermissionDeniedError, got %v", err)
	}
	if denied.EventID != 0 {
		t.Fatalf("global denial must not carry an event id, got %d", denied.EventID)
	}
}

func TestParsePrivilege(t *testing.T) {
	t.Parallel()

	for _, privilege := range []Privilege{
		PrivilegeShowPlan, PrivilegeManageEntries, PrivilegeManageCategories,
		PrivilegeManageRooms, PrivilegeEditEventDetails, PrivilegeManagePassphrases,
		PrivilegeManageAnnouncements, PrivilegeCreateEvents, PrivilegeShowConfigArea,
	} {
		got, err := ParsePrivilege(privilege.String())
		if err != nil || got != privilege {
			t.Fatalf("ParsePrivilege(%q) = %v, %v", privilege.String(), got, err)
		}
		if len(privilege.QualifyingRoles()) == 0 {
			t.Fatalf("privilege %s has no qualifying roles", privilege)
		}
	}

	if _, err := ParsePrivilege("rule_the_world"); err == nil {
		t.Fatal("expected error for unknown privilege")
	}
}
