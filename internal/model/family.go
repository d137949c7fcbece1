package model

import "time"

type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

type Family struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is a row of the users table. Parent and Child are the typed views the
// services work with.
type User struct {
	ID           int64     `json:"id"`
	FamilyID     int64     `json:"family_id"`
	ParentID     *int64    `json:"parent_id,omitempty"`
	Role         Role      `json:"role"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Parent references its children by id only.
type Parent struct {
	User
	ChildIDs []int64 `json:"child_ids"`
}

// Child references the parent that created it by id only.
type Child struct {
	User
}

// ParentRef returns the id of the linked parent, or 0 when the parent account
// has been removed.
func (c Child) ParentRef() int64 {
	if c.ParentID == nil {
		return 0
	}
	return *c.ParentID
}
