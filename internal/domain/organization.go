// Package domain contains core domain types for the OrbitOS Operations backend.
package domain

import "time"

// Organization is the tenant boundary. Every operational entity belongs to
// exactly one organization, and nothing is visible across that boundary.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// User is a person with access to one or more organizations. Super admins
// can manage organizations and users and bypass membership checks.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	DisplayName     string    `json:"displayName"`
	IsSuperAdmin    bool      `json:"isSuperAdmin"`
	OrganizationIDs []string  `json:"organizationIds"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// MemberOf reports whether the user belongs to the given organization.
// Super admins are treated as members everywhere.
func (u *User) MemberOf(orgID string) bool {
	if u.IsSuperAdmin {
		return true
	}
	for _, id := range u.OrganizationIDs {
		if id == orgID {
			return true
		}
	}
	return false
}
