// Package service contains the task tracker's use cases. UserService
// handles registration, login, promotion and identity lookups; TaskService
// owns the task lifecycle.
//
// Every operation follows the same order: resolve the resource, ask
// internal/policy whether the actor may act on it, mutate through the store,
// then record the audit entry and publish notifications. Validation and
// policy failures end the operation before anything is written. Audit and
// notification failures never fail an operation whose mutation succeeded.
//
// Errors are reported as the sentinels in errors.go (ErrForbidden,
// ErrNotFound, ...) or as domain validation errors. The API layer maps
// them to HTTP status codes with errors.Is.
package service
