package service

import "tasknest/internal/model"

// CanView reports whether actor may see t: admins, the owner and the assignee.
func CanView(actor *model.User, t *model.Task) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin() || t.OwnedBy(actor.ID) || t.IsAssignedTo(actor.ID)
}

// CanModify reports whether actor may change any field of t or delete it.
func CanModify(actor *model.User, t *model.Task) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin() || t.OwnedBy(actor.ID)
}

// CanUpdate extends CanModify: the assignee may toggle completion and nothing else.
func CanUpdate(actor *model.User, t *model.Task, patch model.TaskPatch) bool {
	if CanModify(actor, t) {
		return true
	}
	return actor != nil && t.IsAssignedTo(actor.ID) && patch.OnlyCompletion()
}
