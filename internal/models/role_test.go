package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanPerformMatrix(t *testing.T) {
	tests := []struct {
		role   string
		action Action
		want   bool
	}{
		{RoleObserver, ActionView, true},
		{RoleObserver, ActionEditTasks, false},
		{RoleObserver, ActionManageMembers, false},
		{RoleMember, ActionView, true},
		{RoleMember, ActionEditTasks, true},
		{RoleMember, ActionDeleteGroup, false},
		{RoleMember, ActionManageMembers, false},
		{RoleAdmin, ActionEditTasks, true},
		{RoleAdmin, ActionDeleteGroup, true},
		{RoleAdmin, ActionManageMembers, true},
		{RoleAdmin, ActionDeleteProject, false},
		{RoleOwner, ActionDeleteProject, true},
		{RoleOwner, ActionManageMembers, true},
		{"", ActionView, false}, // non-member
		{"", ActionEditTasks, false},
		{"bogus", ActionView, false},
	}

	for _, tc := range tests {
		if got := CanPerform(tc.role, tc.action); got != tc.want {
			t.Errorf("CanPerform(%q, %q) = %v, want %v", tc.role, tc.action, got, tc.want)
		}
	}
}

func TestCanPerformUnknownAction(t *testing.T) {
	if CanPerform(RoleOwner, Action("launch_missiles")) {
		t.Error("unknown actions must be denied even for owners")
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range []string{RoleOwner, RoleAdmin, RoleMember, RoleObserver} {
		if !ValidRole(r) {
			t.Errorf("ValidRole(%q) = false", r)
		}
	}
	if ValidRole("superuser") || ValidRole("") {
		t.Error("unknown roles must be invalid")
	}
}

func TestProjectMemberRole(t *testing.T) {
	now := time.Now()
	p := &Project{
		ID:      primitive.NewObjectID(),
		Name:    "Momentum",
		OwnerID: "owner-1",
		Members: []ProjectMember{
			{UserID: "admin-1", Role: RoleAdmin, AddedAt: now, AddedBy: "owner-1"},
			{UserID: "member-1", Role: RoleMember, AddedAt: now, AddedBy: "admin-1"},
			{UserID: "observer-1", Role: RoleObserver, AddedAt: now, AddedBy: "admin-1"},
		},
	}

	// Owner holds the owner role without an explicit membership record.
	if got := p.MemberRole("owner-1"); got != RoleOwner {
		t.Errorf("owner role = %q, want %q", got, RoleOwner)
	}
	if got := p.MemberRole("member-1"); got != RoleMember {
		t.Errorf("member role = %q, want %q", got, RoleMember)
	}
	if got := p.MemberRole("stranger"); got != "" {
		t.Errorf("stranger role = %q, want empty", got)
	}

	if !p.Can("member-1", ActionEditTasks) {
		t.Error("member should edit tasks")
	}
	if p.Can("observer-1", ActionEditTasks) {
		t.Error("observer must not edit tasks")
	}
	if p.Can("stranger", ActionView) {
		t.Error("non-member must not view")
	}
	if !p.Can("admin-1", ActionManageMembers) {
		t.Error("admin should manage members")
	}
	if p.Can("admin-1", ActionDeleteProject) {
		t.Error("only the owner may delete the project")
	}
}

func TestTeamMemberRole(t *testing.T) {
	tm := &Team{
		OwnerID: "owner-1",
		Members: []TeamMember{
			{UserID: "m1", Role: RoleMember},
		},
	}
	if !tm.IsOwner("owner-1") || tm.IsOwner("m1") {
		t.Error("IsOwner mismatch")
	}
	if !tm.HasMember("m1") || tm.HasMember("ghost") {
		t.Error("HasMember mismatch")
	}
	if !tm.Can("owner-1", ActionDeleteProject) {
		t.Error("team owner should be able to delete the team")
	}
}
