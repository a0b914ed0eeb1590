package app

import (
	"context"
	"errors"
	"testing"

	"shelfmark/pkg/domain"
)

func TestRegisterFirstUserBecomesAdmin(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()

	first, err := env.app.Register(ctx, RegisterInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "Ada@Example.com", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if first.Role != domain.RoleAdmin {
		t.Fatalf("first user role = %s, want admin", first.Role)
	}
	if first.Email != "ada@example.com" {
		t.Fatalf("email = %q, want lowercased", first.Email)
	}
	if first.FullName != "Ada Lovelace" {
		t.Fatalf("fullName = %q", first.FullName)
	}

	second, err := env.app.Register(ctx, RegisterInput{
		FirstName: "Bob", LastName: "Gray", Email: "bob@example.com", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if second.Role != domain.RoleUser {
		t.Fatalf("second user role = %s, want user", second.Role)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()
	registerUser(t, env.app, "Ada", "Lovelace", "ada@example.com")

	_, err := env.app.Register(ctx, RegisterInput{
		FirstName: "Other", LastName: "Person", Email: "ADA@example.com", Password: "secret1",
	})
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("err = %v, want ErrEmailAlreadyExists", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()
	cases := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"missing name", RegisterInput{Email: "x@y.com", Password: "secret1"}, ErrUserFields},
		{"bad email", RegisterInput{FirstName: "A", LastName: "B", Email: "nope", Password: "secret1"}, ErrInvalidEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.app.Register(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
	if _, err := env.app.Register(ctx, RegisterInput{
		FirstName: "A", LastName: "B", Email: "a@b.com", Password: "short",
	}); err == nil {
		t.Fatal("short password accepted")
	}
}

func TestLogin(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()
	id := registerUser(t, env.app, "Ada", "Lovelace", "ada@example.com")

	if _, err := env.app.Login(ctx, "ADA@example.com", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := env.app.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := env.app.Login(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}

	if _, err := env.app.SetUserBanned(ctx, id, true); err != nil {
		t.Fatalf("SetUserBanned: %v", err)
	}
	if _, err := env.app.Login(ctx, "ada@example.com", "secret1"); !errors.Is(err, ErrUserBanned) {
		t.Fatalf("banned login: err = %v, want ErrUserBanned", err)
	}
}

func TestChangePassword(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()
	id := registerUser(t, env.app, "Ada", "Lovelace", "ada@example.com")

	if err := env.app.ChangePassword(ctx, id, "wrong", "newsecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if err := env.app.ChangePassword(ctx, id, "secret1", "newsecret"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := env.app.Login(ctx, "ada@example.com", "newsecret"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := env.app.Login(ctx, "ada@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still works: %v", err)
	}
}

func TestUpdateProfileReplacesPicture(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()
	id := registerUser(t, env.app, "Ada", "Lovelace", "ada@example.com")

	user, err := env.app.UpdateProfile(ctx, id, ProfileUpdate{ProfilePic: pngUpload("me.png")})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if user.ProfilePic == "" {
		t.Fatal("profilePic URL not set")
	}
	firstKey := user.ProfilePicID

	user, err = env.app.UpdateProfile(ctx, id, ProfileUpdate{
		FirstName:  strPtr("Augusta"),
		ProfilePic: pngUpload("me2.png"),
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if user.FullName != "Augusta Lovelace" {
		t.Fatalf("fullName = %q, want recomputed name", user.FullName)
	}
	if len(env.cleanup.keys) != 1 || env.cleanup.keys[0] != firstKey {
		t.Fatalf("cleanup keys = %v, want [%s]", env.cleanup.keys, firstKey)
	}
}

func TestUpdateProfileFailedSaveReleasesNewPicture(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()
	id := registerUser(t, env.app, "Ada", "Lovelace", "ada@example.com")

	broken, err := New(Config{
		Store:   &brokenWriteStore{Store: env.store, err: errors.New("write refused")},
		Objects: env.objects,
		Cleanup: env.cleanup,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := broken.UpdateProfile(ctx, id, ProfileUpdate{ProfilePic: pngUpload("me.png")}); err == nil {
		t.Fatal("expected update to fail")
	}
	if len(env.cleanup.keys) != 1 {
		t.Fatalf("cleanup keys = %v, want the freshly uploaded picture", env.cleanup.keys)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()
	admin := registerUser(t, env.app, "Ada", "Lovelace", "ada@example.com")
	target := registerUser(t, env.app, "Bob", "Gray", "bob@example.com")

	book, err := env.app.CreateBook(ctx, target, BookFields{Title: strPtr("It")}, pngUpload("it.png"))
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	if err := env.app.DeleteUser(ctx, admin, admin); !errors.Is(err, ErrSelfDelete) {
		t.Fatalf("self delete: err = %v, want ErrSelfDelete", err)
	}
	if err := env.app.DeleteUser(ctx, admin, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing target: err = %v, want ErrUserNotFound", err)
	}
	if err := env.app.DeleteUser(ctx, admin, target); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	if _, err := env.app.GetUser(ctx, target); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("deleted user still resolvable: %v", err)
	}
	if _, ok, _ := env.store.GetBook(book.ID); ok {
		t.Fatal("target's book survived user deletion")
	}
	found := false
	for _, key := range env.cleanup.keys {
		if key == book.CoverImageID {
			found = true
		}
	}
	if !found {
		t.Fatalf("cover %s not scheduled for cleanup: %v", book.CoverImageID, env.cleanup.keys)
	}
}

func TestSetUserRole(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()
	registerUser(t, env.app, "Ada", "Lovelace", "ada@example.com")
	id := registerUser(t, env.app, "Bob", "Gray", "bob@example.com")

	user, err := env.app.SetUserRole(ctx, id, "admin")
	if err != nil {
		t.Fatalf("SetUserRole: %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Fatalf("role = %s, want admin", user.Role)
	}
	if _, err := env.app.SetUserRole(ctx, id, "superuser"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("err = %v, want ErrInvalidRole", err)
	}
}
