package models

import "time"

type Organization struct {
	ID          string    `db:"id" json:"orgId"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type CreateOrganizationInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1024"`
}

type AddMemberInput struct {
	UserID string `json:"userId" validate:"required"`
}
