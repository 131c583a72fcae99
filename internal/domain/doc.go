// Package domain contains the core entities of the task tracker: users and
// their roles, tasks with their priority and status enums, and audit entries.
// It has no knowledge of storage, transport or authorization.
package domain
