package models

import "time"

// Membership records that a user belongs to an organization.
type Membership struct {
	UserID    string    `db:"user_id" json:"userId"`
	OrgID     string    `db:"org_id" json:"orgId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
