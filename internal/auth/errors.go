package auth

import "errors"

var (
	// ErrNoSigningSecret is returned when token issuing is attempted without
	// a configured signing secret. Configuration-class error: every Issue
	// call fails until the secret env var is set.
	ErrNoSigningSecret = errors.New("no token signing secret configured")

	// ErrUnsupportedAlgorithm is returned when the configured signature
	// algorithm is not an HMAC family member.
	ErrUnsupportedAlgorithm = errors.New("unsupported token signature algorithm")

	// ErrInvalidToken is returned for any unusable bearer token: bad
	// signature, malformed structure, wrong algorithm, or expiry. Callers
	// map it to an authentication failure, never to an internal error.
	ErrInvalidToken = errors.New("invalid access token")

	// ErrEmptyPassword is returned when hashing is attempted on an empty
	// plaintext password.
	ErrEmptyPassword = errors.New("password can not be empty")

	// ErrInvalidCredentials is returned when authentication fails. Unknown
	// user and wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUserNotFound is returned when a user cannot be found in the database.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameExists is returned when attempting to create a user with a
	// username that already exists.
	ErrUsernameExists = errors.New("user with that username already exists")

	// ErrEmailExists is returned when attempting to set an email address
	// that already belongs to another account.
	ErrEmailExists = errors.New("user with that email already exists")

	// ErrUnknownRole is returned when a role-set call names a role that is
	// not present in the roles table.
	ErrUnknownRole = errors.New("unknown role name")
)
