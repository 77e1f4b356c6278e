package sec

import (
	"context"
	"errors"
	"net/http"

	"github.com/brioso/stockroom/internal/storage"
	"github.com/brioso/stockroom/internal/storage/db"
)

// ErrUnauthenticated is returned when Basic Auth credentials are missing or do
// not resolve to a user. The message is deliberately uniform so responses do
// not reveal whether a username exists.
var ErrUnauthenticated = errors.New("invalid username or password")

type userKey struct{}

// Authenticate resolves the logged in user from req. The returned error is
// always [ErrUnauthenticated] on failure.
func Authenticate(ctx context.Context, req *http.Request, store storage.Users) (user db.User, err error) {
	username, password, ok := req.BasicAuth()
	if !ok {
		return user, ErrUnauthenticated
	}
	if user, err = store.GetUserByName(ctx, username); err != nil {
		return db.User{}, ErrUnauthenticated
	}
	if err = ComparePassword(password, user.PasswordHash); err != nil {
		return db.User{}, ErrUnauthenticated
	}
	return user, nil
}

// GetAuthenticatedUser returns the user information for the authenticated
// user. Returns a zero-value User if the context has no authenticated user
// (should only happen if middleware is misconfigured, or in dev mode).
func GetAuthenticatedUser(ctx context.Context) db.User {
	if user, ok := ctx.Value(userKey{}).(db.User); ok {
		return user
	}
	return db.User{}
}

// SetAuthenticatedUser sets the user information for an authenticated user.
// The auth middleware injects this; tests can call it directly.
func SetAuthenticatedUser(ctx context.Context, user db.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}
