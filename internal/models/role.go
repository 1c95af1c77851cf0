package models

// Role constants for project and team membership.
const (
	RoleOwner    = "owner"
	RoleAdmin    = "admin"
	RoleMember   = "member"
	RoleObserver = "observer"
)

// Action identifies something an actor wants to do to a resource. Every
// mutating handler consults CanPerform with one of these instead of doing
// its own role comparison.
type Action string

const (
	ActionView          Action = "view"
	ActionEditTasks     Action = "edit_tasks"     // create/update/move tasks and task groups
	ActionDeleteGroup   Action = "delete_group"   // delete a task group (and its tasks)
	ActionManageMembers Action = "manage_members" // add/update/remove members
	ActionDeleteProject Action = "delete_project" // delete the project/team itself
)

// roleRank orders roles for hierarchy checks: owner > admin > member > observer.
var roleRank = map[string]int{
	RoleOwner:    4,
	RoleAdmin:    3,
	RoleMember:   2,
	RoleObserver: 1,
}

// ValidRole reports whether role is a known membership role.
func ValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// minRole maps each action to the weakest role allowed to perform it.
var minRole = map[Action]string{
	ActionView:          RoleObserver,
	ActionEditTasks:     RoleMember,
	ActionDeleteGroup:   RoleAdmin,
	ActionManageMembers: RoleAdmin,
	ActionDeleteProject: RoleOwner,
}

// CanPerform is the single policy entry point: given the actor's role on a
// resource, decide whether the action is allowed. An empty role (non-member)
// is always denied.
func CanPerform(role string, action Action) bool {
	required, ok := minRole[action]
	if !ok {
		return false
	}
	return roleRank[role] >= roleRank[required]
}
