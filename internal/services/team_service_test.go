package services

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"momentum/internal/apperr"
	"momentum/internal/models"
)

func ownedTeam() *models.Team {
	return &models.Team{
		ID:      primitive.NewObjectID(),
		OwnerID: "owner-1",
		Members: []models.TeamMember{
			{UserID: "owner-1", Role: models.RoleOwner},
			{UserID: "member-1", Role: models.RoleMember},
		},
	}
}

func TestRemoveMemberProtectsTeamOwner(t *testing.T) {
	svc := &TeamService{}
	team := ownedTeam()

	_, err := svc.RemoveMember(context.Background(), team, "owner-1")
	if err == nil {
		t.Fatal("expected removing the owner to fail")
	}
	appErr := apperr.From(err)
	if appErr == nil || appErr.Kind != apperr.KindConflict {
		t.Errorf("err = %v, want a conflict error", err)
	}
}

func TestUpdateMemberRoleProtectsTeamOwner(t *testing.T) {
	svc := &TeamService{}
	team := ownedTeam()

	_, err := svc.UpdateMemberRole(context.Background(), team, "owner-1", models.RoleAdmin)
	if err == nil {
		t.Fatal("expected demoting the owner to fail")
	}
	appErr := apperr.From(err)
	if appErr == nil || appErr.Kind != apperr.KindConflict {
		t.Errorf("err = %v, want a conflict error", err)
	}
}
