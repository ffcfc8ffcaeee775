package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectLike records that a user liked a project. The composite primary
// key is the authoritative guard against duplicate likes: two concurrent
// like requests can both pass the application-level check, but only one
// insert survives the constraint.
type ProjectLike struct {
	ProjectID uuid.UUID `gorm:"type:uuid;primaryKey" json:"project_id"`
	UserID    string    `gorm:"size:64;primaryKey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectLike) TableName() string {
	return "project_likes"
}
