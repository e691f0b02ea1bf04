package usecase

import (
	"context"
	"testing"
)

func TestAuthRegisterThenLogin(t *testing.T) {
	t.Parallel()

	auth := NewAuthService(newFakeCredentialStore(), discardLogger())
	ctx := context.Background()

	res := auth.Register(ctx, "alice", "alice@example.com", "pw")
	if !res.OK || res.Message != "Registration successful!" || res.Username != "alice" {
		t.Fatalf("unexpected register result: %+v", res)
	}

	res = auth.Login(ctx, "alice", "pw")
	if !res.OK || res.Message != "Login successful!" {
		t.Fatalf("unexpected login result: %+v", res)
	}

	res = auth.Login(ctx, "alice", "wrong")
	if res.OK || res.Message != "Invalid credentials!" {
		t.Fatalf("expected invalid credentials, got %+v", res)
	}
}

func TestAuthRegisterDuplicate(t *testing.T) {
	t.Parallel()

	auth := NewAuthService(newFakeCredentialStore(), discardLogger())
	ctx := context.Background()

	if res := auth.Register(ctx, "bob", "bob@example.com", "pw"); !res.OK {
		t.Fatalf("first register failed: %+v", res)
	}
	for _, tc := range []struct{ username, email string }{
		{"bob", "other@example.com"},
		{"robert", "bob@example.com"},
	} {
		res := auth.Register(ctx, tc.username, tc.email, "pw")
		if res.OK || res.Message != "Username or email already exists!" {
			t.Fatalf("expected duplicate rejection for %+v, got %+v", tc, res)
		}
	}
}

func TestAuthEmptyFields(t *testing.T) {
	t.Parallel()

	auth := NewAuthService(newFakeCredentialStore(), discardLogger())
	ctx := context.Background()

	if res := auth.Login(ctx, "", "pw"); res.OK || res.Message != "Please fill all fields!" {
		t.Fatalf("unexpected login result: %+v", res)
	}
	if res := auth.Login(ctx, "alice", ""); res.OK || res.Message != "Please fill all fields!" {
		t.Fatalf("unexpected login result: %+v", res)
	}
	if res := auth.Register(ctx, "alice", "  ", "pw"); res.OK || res.Message != "Please fill all fields!" {
		t.Fatalf("unexpected register result: %+v", res)
	}
}

func TestAuthWhitespaceFieldsNeverReachStore(t *testing.T) {
	t.Parallel()

	store := newFakeCredentialStore()
	store.verifyErr = errFake
	store.insertErr = errFake
	auth := NewAuthService(store, discardLogger())
	ctx := context.Background()

	for _, fields := range [][2]string{{"   ", "pw"}, {"alice", "\t"}} {
		if res := auth.Login(ctx, fields[0], fields[1]); res.OK || res.Message != "Please fill all fields!" {
			t.Fatalf("login %q: unexpected result %+v", fields, res)
		}
	}
	for _, fields := range [][3]string{
		{" ", "alice@example.com", "pw"},
		{"alice", "alice@example.com", "  "},
	} {
		if res := auth.Register(ctx, fields[0], fields[1], fields[2]); res.OK || res.Message != "Please fill all fields!" {
			t.Fatalf("register %q: unexpected result %+v", fields, res)
		}
	}
}

func TestAuthStoreFailures(t *testing.T) {
	t.Parallel()

	store := newFakeCredentialStore()
	store.verifyErr = errFake
	store.insertErr = errFake
	auth := NewAuthService(store, discardLogger())
	ctx := context.Background()

	if res := auth.Login(ctx, "alice", "pw"); res.OK || res.Message != "Invalid credentials!" {
		t.Fatalf("unexpected login result: %+v", res)
	}
	if res := auth.Register(ctx, "alice", "a@example.com", "pw"); res.OK || res.Message != "Username or email already exists!" {
		t.Fatalf("unexpected register result: %+v", res)
	}
}
