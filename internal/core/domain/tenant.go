package domain

import "time"

// Tenant is the unit every lease chain, abstract and rent schedule hangs off.
type Tenant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SuiteNumber  string    `json:"suite_number,omitempty"`
	PropertyName string    `json:"property_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
