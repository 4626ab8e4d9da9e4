// Package nasyath manages activity records attached to members. Unlike the
// membership records, access is not territory scoped: the global nasyath
// permissions open every record, and otherwise a user only reaches the
// records of the member their own account is linked to.
package nasyath

import "time"

// Activity is one recorded activity of a member.
type Activity struct {
	ID           int64      `json:"id"`
	MemberID     int64      `json:"member_id"`
	Name         string     `json:"name"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Duration     string     `json:"duration,omitempty"`
	Distance     string     `json:"distance,omitempty"`
	Venue        string     `json:"venue,omitempty"`
	ContactName  string     `json:"contact_name,omitempty"`
	ContactPhone string     `json:"contact_phone,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	UpdatedBy    string     `json:"updated_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ActivityInput is the input for creating or updating a record. The owning
// member is never part of the input: creation pins it to the acting user's
// own member and updates leave it untouched.
type ActivityInput struct {
	Name         string     `json:"name" validate:"required,min=3"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Duration     string     `json:"duration"`
	Distance     string     `json:"distance"`
	Venue        string     `json:"venue"`
	ContactName  string     `json:"contact_name"`
	ContactPhone string     `json:"contact_phone"`
	Notes        string     `json:"notes"`
}

// ListFilters narrows an activity listing.
type ListFilters struct {
	MemberID *int64
	Search   string
}
