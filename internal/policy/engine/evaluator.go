package engine

import "context"

// Action names a protected operation. Handlers pass these to the evaluator.
const (
	ActionUserList          = "user.list"
	ActionUserMe            = "user.me"
	ActionUserPromote       = "user.promote"
	ActionTeamList          = "team.list"
	ActionTeamCreate        = "team.create"
	ActionTeamUpdate        = "team.update"
	ActionTeamDelete        = "team.delete"
	ActionTeamMembersList   = "team.members.list"
	ActionTeamMembersAdd    = "team.members.add"
	ActionTeamMembersRemove = "team.members.remove"
	ActionTaskList          = "task.list"
	ActionTaskCreate        = "task.create"
	ActionTaskUpdate        = "task.update"
	ActionTaskDelete        = "task.delete"
)

// Deny reasons reported in decisions.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonForbidden       = "forbidden"
)

// Identity is the caller as seen by the policy. Present is false for
// anonymous requests.
type Identity struct {
	Present bool
	UserID  int64
	IsAdmin bool
}

// Resource carries request-specific facts the policy may consult.
type Resource struct {
	// IsMember is true when the caller belongs to or created the team
	// the request targets.
	IsMember bool
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

// Evaluator decides whether an identity may perform an action.
type Evaluator interface {
	Authorize(ctx context.Context, id Identity, action string, res Resource) (Decision, error)
}
