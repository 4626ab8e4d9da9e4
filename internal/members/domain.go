// Package members manages the membership records the access-control layer
// protects. Every operation is guarded through the authorization engine with
// the record's locality as the resource.
package members

import "time"

// Member represents a membership record situated in the territory tree.
type Member struct {
	ID         int64      `json:"id"`
	FullName   string     `json:"full_name"`
	Gender     string     `json:"gender,omitempty"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Address    string     `json:"address,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	LocalityID *int64     `json:"locality_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// MemberInput is the input for creating or updating a record.
type MemberInput struct {
	FullName   string     `json:"full_name" validate:"required,min=3"`
	Gender     string     `json:"gender" validate:"omitempty,oneof=L P"`
	BirthDate  *time.Time `json:"birth_date"`
	Address    string     `json:"address"`
	Phone      string     `json:"phone"`
	LocalityID *int64     `json:"locality_id"`
}

// ListFilters narrows a member listing.
type ListFilters struct {
	RegionID *int64
	Search   string
}
