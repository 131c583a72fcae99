// Package auth provides the credential primitives of the task tracker:
// bcrypt password hashing and HS256 session tokens binding a user ID and role.
package auth
