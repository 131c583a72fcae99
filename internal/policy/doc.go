// Package policy decides who may do what in the task tracker.
//
// Every role and ownership rule lives in Evaluate, which takes the acting
// user and one of the Action variants and returns an Allow or a Deny that
// carries the reason. The package is pure: it performs no I/O, and callers
// pass in whatever resource snapshot a rule needs.
package policy
