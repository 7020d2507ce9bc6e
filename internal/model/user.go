package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column. The json
// tags are omitted because these structs are used internally by
// the repository layer; handlers define separate response types
// so the password hash can never leak into a response body.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address, normalized to lower case.
//  PasswordHash – bcrypt hashed password.
//  Name         – display name shown in the UI.
//  Role         – role name, defaults to "user".
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Name         string    // users.name
	Role         string    // users.role
	CreatedAt    time.Time // users.created_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// user holds at most one row (UNIQUE on user_id): a new login or
// refresh overwrites the previous token, so only a single session
// per user can mint new access tokens.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token (unique).
//  Token     – the signed refresh JWT as handed to the client.
//  CreatedAt – timestamp of issuance.
type RefreshToken struct {
	ID        uint64    // refresh_tokens.id
	UserID    uint64    // refresh_tokens.user_id
	Token     string    // refresh_tokens.token
	CreatedAt time.Time // refresh_tokens.created_at
}
