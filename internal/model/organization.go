package model

import (
	"errors"
	"time"
)

type Organization struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email"`
	Departments  []string  `json:"departments"`
	AdminIDs     []string  `json:"admin_ids"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasDepartment reports whether dept is in the organization's controlled
// department vocabulary.
func (o *Organization) HasDepartment(dept string) bool {
	for _, d := range o.Departments {
		if d == dept {
			return true
		}
	}
	return false
}

type OrganizationCreateRequest struct {
	Name         string
	ContactEmail string
	Departments  []string
	AdminID      string
}

func (p OrganizationCreateRequest) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if len(p.Departments) == 0 {
		return errors.New("at least one department is required")
	}
	if p.AdminID == "" {
		return errors.New("admin_id is required")
	}
	return nil
}
