package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
)

func strPtr(s string) *string { return &s }

func TestPassphraseService_CreateAndList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)
	service := NewPassphraseService(fx.store, nil)
	token := adminToken(fx.event.ID)

	created, err := service.CreatePassphrase(ctx, token, fx.event.ID, PassphraseInput{
		Role:    auth.RoleOrga,
		Secret:  strPtr("orga-secret"),
		Comment: "crew 2025",
	})
	if err != nil {
		t.Fatalf("CreatePassphrase: %v", err)
	}
	if created.ID == 0 || created.RoleID != auth.RoleOrga.ID() {
		t.Errorf("passphrase = %+v", created)
	}

	derived, err := service.CreatePassphrase(ctx, token, fx.event.ID, PassphraseInput{
		Role:          auth.RoleSharableViewLink,
		DerivableFrom: &created.ID,
	})
	if err != nil {
		t.Fatalf("CreatePassphrase derivable: %v", err)
	}
	if derived.Secret != nil {
		t.Errorf("derivable passphrase has a secret: %+v", derived)
	}

	listed, err := service.ListPassphrases(ctx, token, fx.event.ID)
	if err != nil {
		t.Fatalf("ListPassphrases: %v", err)
	}
	if len(listed) != 2 {
		t.Errorf("listed = %+v", listed)
	}

	var denied *auth.PermissionDeniedError
	if _, err := service.ListPassphrases(ctx, orgaToken(fx.event.ID), fx.event.ID); !errors.As(err, &denied) {
		t.Errorf("orga token: err = %v", err)
	}
}

func TestPassphraseService_CreateValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)
	service := NewPassphraseService(fx.store, nil)
	token := adminToken(fx.event.ID)

	cases := []struct {
		name  string
		input PassphraseInput
		field string
	}{
		{"missing role", PassphraseInput{Secret: strPtr("s")}, "role"},
		{"neither secret nor parent", PassphraseInput{Role: auth.RoleUser}, "secret"},
		{"empty secret", PassphraseInput{Role: auth.RoleUser, Secret: strPtr("")}, "secret"},
		{
			"inverted validity window",
			PassphraseInput{
				Role:       auth.RoleUser,
				Secret:     strPtr("s"),
				ValidFrom:  timePtr(testNow),
				ValidUntil: timePtr(testNow.Add(-time.Hour)),
			},
			"valid_until",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var vErr *ValidationError
			_, err := service.CreatePassphrase(ctx, token, fx.event.ID, tc.input)
			if !errors.As(err, &vErr) {
				t.Fatalf("err = %v, want validation error", err)
			}
			if vErr.FieldErrors[tc.field] == "" {
				t.Errorf("FieldErrors = %v, want message for %s", vErr.FieldErrors, tc.field)
			}
		})
	}
}

func TestPassphraseService_CreateDuplicateSecret(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)
	service := NewPassphraseService(fx.store, nil)
	token := adminToken(fx.event.ID)

	input := PassphraseInput{Role: auth.RoleUser, Secret: strPtr("festival")}
	if _, err := service.CreatePassphrase(ctx, token, fx.event.ID, input); err != nil {
		t.Fatalf("first CreatePassphrase: %v", err)
	}
	if _, err := service.CreatePassphrase(ctx, token, fx.event.ID, input); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("duplicate secret: err = %v", err)
	}
}

func TestPassphraseService_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)
	service := NewPassphraseService(fx.store, nil)
	token := adminToken(fx.event.ID)

	created, err := service.CreatePassphrase(ctx, token, fx.event.ID, PassphraseInput{
		Role: auth.RoleUser, Secret: strPtr("festival"),
	})
	if err != nil {
		t.Fatalf("CreatePassphrase: %v", err)
	}

	other, err := fx.store.CreateEvent(ctx, fx.event)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if err := service.DeletePassphrase(ctx, adminToken(other.ID), other.ID, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-event delete: err = %v", err)
	}

	if err := service.DeletePassphrase(ctx, token, fx.event.ID, created.ID); err != nil {
		t.Fatalf("DeletePassphrase: %v", err)
	}
	listed, err := service.ListPassphrases(ctx, token, fx.event.ID)
	if err != nil {
		t.Fatalf("ListPassphrases: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("listed after delete = %+v", listed)
	}
}

func timePtr(ts time.Time) *time.Time { return &ts }
