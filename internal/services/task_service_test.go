package services

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"momentum/internal/apperr"
	"momentum/internal/models"
)

// A zero-value service has nil collections, so reaching any database call
// panics. These tests rely on that to prove the guards run before any write.

func TestUpdateValidatesMoveTargetBeforeWriting(t *testing.T) {
	svc := &TaskService{}
	project := &models.Project{ID: primitive.NewObjectID()}
	task := &models.Task{ID: primitive.NewObjectID(), TaskGroupID: primitive.NewObjectID()}

	name := "renamed"
	badGroup := "not-a-hex-id"
	req := &models.UpdateTaskRequest{Name: &name, TaskGroupID: &badGroup}

	_, err := svc.Update(context.Background(), project, task, "user-1", req)
	if err == nil {
		t.Fatal("expected an error for an invalid move target")
	}
	appErr := apperr.From(err)
	if appErr == nil || appErr.Kind != apperr.KindValidation {
		t.Errorf("err = %v, want a validation error", err)
	}
}

func TestMoveRequested(t *testing.T) {
	groupID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()
	task := &models.Task{ID: primitive.NewObjectID(), TaskGroupID: groupID}
	index := 2

	tests := []struct {
		name   string
		target primitive.ObjectID
		req    *models.UpdateTaskRequest
		want   bool
	}{
		{"own group without index", groupID, &models.UpdateTaskRequest{}, false},
		{"own group with index", groupID, &models.UpdateTaskRequest{Position: &index}, true},
		{"other group without index", otherID, &models.UpdateTaskRequest{}, true},
	}
	for _, tt := range tests {
		if got := moveRequested(task, tt.target, tt.req); got != tt.want {
			t.Errorf("%s: moveRequested = %v, want %v", tt.name, got, tt.want)
		}
	}
}
