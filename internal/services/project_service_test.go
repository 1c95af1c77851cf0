package services

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"momentum/internal/apperr"
	"momentum/internal/models"
)

func ownedProject() *models.Project {
	return &models.Project{
		ID:      primitive.NewObjectID(),
		OwnerID: "owner-1",
		Members: []models.ProjectMember{
			{UserID: "owner-1", Role: models.RoleOwner},
			{UserID: "member-1", Role: models.RoleMember},
		},
	}
}

func TestRemoveMemberProtectsProjectOwner(t *testing.T) {
	svc := &ProjectService{}
	project := ownedProject()

	_, err := svc.RemoveMember(context.Background(), project, "owner-1")
	if err == nil {
		t.Fatal("expected removing the owner to fail")
	}
	appErr := apperr.From(err)
	if appErr == nil || appErr.Kind != apperr.KindConflict {
		t.Errorf("err = %v, want a conflict error", err)
	}
}

func TestUpdateMemberRoleProtectsProjectOwner(t *testing.T) {
	svc := &ProjectService{}
	project := ownedProject()

	_, err := svc.UpdateMemberRole(context.Background(), project, "owner-1", models.RoleAdmin)
	if err == nil {
		t.Fatal("expected demoting the owner to fail")
	}
	appErr := apperr.From(err)
	if appErr == nil || appErr.Kind != apperr.KindConflict {
		t.Errorf("err = %v, want a conflict error", err)
	}
}
