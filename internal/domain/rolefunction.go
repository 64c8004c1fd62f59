package domain

import "time"

// Role is an organizational role (e.g. "Head of Support"). Roles and
// Functions form a many-to-many relation maintained through a single join
// record per pair, so an assignment made from either side is immediately
// visible from the other.
type Role struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"orgId"`
	Title     string    `json:"title"`
	Purpose   string    `json:"purpose"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Function is a business function (e.g. "Customer Onboarding") that roles
// can be assigned to.
type Function struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"orgId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
