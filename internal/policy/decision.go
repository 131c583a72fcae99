package policy

// Reason explains a Deny.
type Reason int

// Deny reasons.
const (
	ReasonNone Reason = iota
	ReasonUnauthenticated
	ReasonAdminRequired
	ReasonPrivilegedRoleRequired
	ReasonNotCreatorOrAssignee
	ReasonNotAssignee
	ReasonNotCreator
	ReasonTargetAlreadyPrivileged
	ReasonAssigneeNotFound
	ReasonSelfAssignment
	ReasonAssigneeIsCreator
	ReasonUnknownAction
)

// Kind groups deny reasons by how callers should report them.
type Kind int

// Deny kinds.
const (
	// KindNone is the kind of an Allow.
	KindNone Kind = iota
	// KindUnauthenticated means no actor was supplied where one is required.
	KindUnauthenticated
	// KindForbidden means the actor is known but not permitted.
	KindForbidden
	// KindValidation means the request carries unacceptable input.
	KindValidation
	// KindInvalidState means the target is not in a state that permits the action.
	KindInvalidState
)

var reasonMessages = map[Reason]string{
	ReasonNone:                    "",
	ReasonUnauthenticated:         "authentication required",
	ReasonAdminRequired:           "only an admin may perform this action",
	ReasonPrivilegedRoleRequired:  "only an admin or manager may perform this action",
	ReasonNotCreatorOrAssignee:    "only the task's creator or assignee may perform this action",
	ReasonNotAssignee:             "only the task's assignee may perform this action",
	ReasonNotCreator:              "only the task's creator may perform this action",
	ReasonTargetAlreadyPrivileged: "user is already an admin or manager",
	ReasonAssigneeNotFound:        "assignee not found",
	ReasonSelfAssignment:          "cannot assign task to yourself",
	ReasonAssigneeIsCreator:       "cannot assign task to its creator",
	ReasonUnknownAction:           "unknown action",
}

// String returns a client-safe description of r.
func (r Reason) String() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return "unknown"
}

// Kind classifies r.
func (r Reason) Kind() Kind {
	switch r {
	case ReasonNone:
		return KindNone
	case ReasonUnauthenticated:
		return KindUnauthenticated
	case ReasonTargetAlreadyPrivileged:
		return KindInvalidState
	case ReasonAssigneeNotFound, ReasonSelfAssignment, ReasonAssigneeIsCreator:
		return KindValidation
	default:
		return KindForbidden
	}
}

// Decision is the outcome of Evaluate.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(r Reason) Decision {
	return Decision{Reason: r}
}

// String returns "allow" or "deny: <reason>".
func (d Decision) String() string {
	if d.Allowed {
		return "allow"
	}
	return "deny: " + d.Reason.String()
}
