package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shelfmark/internal/util"
	"shelfmark/pkg/auth"
	"shelfmark/pkg/domain"
)

var (
	ErrUserFields   = errors.New("firstName, lastName, email and password are required")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrInvalidRole  = errors.New("invalid role")
)

type RegisterInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Register creates a new account. The very first account on a fresh
// install becomes the admin; everyone after that is a regular user.
func (a *App) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" {
		return domain.User{}, ErrUserFields
	}
	if !strings.Contains(in.Email, "@") {
		return domain.User{}, ErrInvalidEmail
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return domain.User{}, err
	}
	exists, err := a.store.HasUserEmail(in.Email)
	if err != nil {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, ErrEmailAlreadyExists
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	count, err := a.store.UserCount()
	if err != nil {
		return domain.User{}, fmt.Errorf("count users: %w", err)
	}
	role := domain.RoleUser
	if count == 0 {
		role = domain.RoleAdmin
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	user.DeriveFullName()
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// Login checks credentials. Banned accounts are rejected even with a
// correct password.
func (a *App) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, ok, err := a.store.GetUserByEmail(normalizeEmail(email))
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	if user.IsBanned {
		return domain.User{}, ErrUserBanned
	}
	return user, nil
}

func (a *App) GetUser(ctx context.Context, id string) (domain.User, error) {
	user, ok, err := a.store.GetUserByID(id)
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}

type ProfileUpdate struct {
	FirstName *string
	LastName  *string

	ProfilePic       *Upload
	RemoveProfilePic bool
}

// UpdateProfile changes the caller's own name and profile picture.
// Replacing or removing the picture releases the previously stored
// object.
func (a *App) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (domain.User, error) {
	user, err := a.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if update.FirstName != nil {
		user.FirstName = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		user.LastName = strings.TrimSpace(*update.LastName)
	}
	if user.FirstName == "" || user.LastName == "" {
		return domain.User{}, ErrUserFields
	}
	user.DeriveFullName()

	oldPicID := ""
	if update.ProfilePic != nil {
		key, url, err := a.storeImage(ctx, "profiles", update.ProfilePic)
		if err != nil {
			return domain.User{}, err
		}
		oldPicID = user.ProfilePicID
		user.ProfilePicID = key
		user.ProfilePic = url
	} else if update.RemoveProfilePic {
		oldPicID = user.ProfilePicID
		user.ProfilePicID = ""
		user.ProfilePic = ""
	}

	user.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveUser(user); err != nil {
		if update.ProfilePic != nil {
			a.releaseOrphan(ctx, user.ProfilePicID)
		}
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	if err := a.scheduleCleanup(ctx, oldPicID); err != nil {
		util.LoggerFromContext(ctx).Warn("profile pic cleanup not scheduled",
			"user_id", user.ID, "object_key", oldPicID, "error", err)
	}
	return user, nil
}

// ChangePassword requires the current password before accepting a new
// one.
func (a *App) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := a.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(current, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := auth.ValidatePassword(next); err != nil {
		return err
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveUser(user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (a *App) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := a.store.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// DeleteUser removes an account together with its whole library. Cover
// images and the profile picture are released asynchronously. Admins
// cannot delete themselves.
func (a *App) DeleteUser(ctx context.Context, adminID, targetID string) error {
	if adminID == targetID {
		return ErrSelfDelete
	}
	target, err := a.GetUser(ctx, targetID)
	if err != nil {
		return err
	}
	books, err := a.store.DeleteBooksByOwner(targetID)
	if err != nil {
		return fmt.Errorf("delete user books: %w", err)
	}
	if err := a.store.DeleteUser(targetID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	logger := util.LoggerFromContext(ctx)
	for _, b := range books {
		if err := a.scheduleCleanup(ctx, b.CoverImageID); err != nil {
			logger.Warn("cover cleanup not scheduled",
				"book_id", b.ID, "object_key", b.CoverImageID, "error", err)
		}
	}
	if err := a.scheduleCleanup(ctx, target.ProfilePicID); err != nil {
		logger.Warn("profile pic cleanup not scheduled",
			"user_id", target.ID, "object_key", target.ProfilePicID, "error", err)
	}
	return nil
}

// SetUserBanned flips the ban flag. A banned user keeps their data but
// cannot log in or use an existing token.
func (a *App) SetUserBanned(ctx context.Context, targetID string, banned bool) (domain.User, error) {
	user, err := a.GetUser(ctx, targetID)
	if err != nil {
		return domain.User{}, err
	}
	user.IsBanned = banned
	user.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// SetUserRole switches an account between user and admin.
func (a *App) SetUserRole(ctx context.Context, targetID string, role string) (domain.User, error) {
	parsed := domain.UserRole(strings.TrimSpace(role))
	if parsed != domain.RoleUser && parsed != domain.RoleAdmin {
		return domain.User{}, ErrInvalidRole
	}
	user, err := a.GetUser(ctx, targetID)
	if err != nil {
		return domain.User{}, err
	}
	user.Role = parsed
	user.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
