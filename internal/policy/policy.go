package policy

import (
	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// Evaluate decides whether actor may perform action.
func Evaluate(actor *Actor, action Action) Decision {
	// Registration is the only action open to anonymous callers.
	if reg, ok := action.(RegisterUser); ok {
		return evaluateRegister(actor, reg)
	}

	if actor == nil {
		return deny(ReasonUnauthenticated)
	}

	switch a := action.(type) {
	case PromoteUser:
		if actor.Role != domain.RoleAdmin {
			return deny(ReasonAdminRequired)
		}
		if a.Target != nil && a.Target.Role.Privileged() {
			return deny(ReasonTargetAlreadyPrivileged)
		}
		return allow()

	case ListUsers, CreateTask:
		if !actor.Role.Privileged() {
			return deny(ReasonPrivilegedRoleRequired)
		}
		return allow()

	case ListTasks:
		return allow()

	case ReadTask:
		if actor.Role == domain.RoleAdmin || involved(actor.ID, a.Task) {
			return allow()
		}
		return deny(ReasonNotCreatorOrAssignee)

	case UpdateTask:
		switch actor.Role {
		case domain.RoleAdmin:
			return allow()
		case domain.RoleManager:
			if involved(actor.ID, a.Task) {
				return allow()
			}
			return deny(ReasonNotCreatorOrAssignee)
		default:
			// A User who only created the task may still not edit it.
			if a.Task != nil && a.Task.IsAssignee(actor.ID) {
				return allow()
			}
			return deny(ReasonNotAssignee)
		}

	case DeleteTask:
		switch actor.Role {
		case domain.RoleAdmin:
			return allow()
		case domain.RoleManager:
			if a.Task != nil && a.Task.IsCreator(actor.ID) {
				return allow()
			}
			return deny(ReasonNotCreator)
		default:
			return deny(ReasonPrivilegedRoleRequired)
		}

	case AssignTask:
		if !a.AssigneeExists {
			return deny(ReasonAssigneeNotFound)
		}
		if a.AssigneeID == actor.ID {
			return deny(ReasonSelfAssignment)
		}
		if a.AssigneeID == a.CreatorID {
			return deny(ReasonAssigneeIsCreator)
		}
		return allow()
	}

	return deny(ReasonUnknownAction)
}

func evaluateRegister(actor *Actor, a RegisterUser) Decision {
	if a.Role != domain.RoleAdmin {
		return allow()
	}
	if actor == nil || actor.Role != domain.RoleAdmin {
		return deny(ReasonAdminRequired)
	}
	return allow()
}

func involved(userID uuid.UUID, task *domain.Task) bool {
	return task != nil && (task.IsCreator(userID) || task.IsAssignee(userID))
}

// ListScope returns the task filter restriction for actor: nil for an
// Admin, who sees every task, otherwise the actor's own ID. An anonymous
// actor is scoped to uuid.Nil, which matches nothing.
func ListScope(actor *Actor) *uuid.UUID {
	if actor == nil {
		none := uuid.Nil
		return &none
	}
	if actor.Role == domain.RoleAdmin {
		return nil
	}
	id := actor.ID
	return &id
}
