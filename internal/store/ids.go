package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Prefixes for plan and result identifiers.
const (
	planIDPrefix   = "TP-"
	resultIDPrefix = "TR-"
)

// newID returns a time-ordered UUID v7, falling back to a random UUID.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// displayCaseID is the default label for a new test case.
func displayCaseID(now time.Time) string {
	return fmt.Sprintf("TC_%d", now.UnixMilli())
}

// sequentialCaseID is the label given by RegenerateCaseIDs.
func sequentialCaseID(n int) string {
	return fmt.Sprintf("TC_%03d", n)
}
