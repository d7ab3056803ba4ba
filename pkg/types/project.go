package types

import "time"

// Project status values.
const (
	ProjectStatusActive   = "Active"
	ProjectStatusArchived = "Archived"
)

// Project is the root of a storage namespace. CaseCount and LastTested are
// display caches; the catalog recomputes them from the project's State
// whenever projects are listed.
type Project struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	CaseCount  int        `json:"caseCount"`
	LastTested *time.Time `json:"lastTested,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}
