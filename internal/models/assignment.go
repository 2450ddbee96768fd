package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// AssignmentStatus is the review state of a proposed assignment.
// Only the three declared values are valid.
type AssignmentStatus uint8

const (
	AssignmentPending AssignmentStatus = iota
	AssignmentAccepted
	AssignmentRejected
)

var assignmentStatusNames = [...]string{
	AssignmentPending:  "PENDING",
	AssignmentAccepted: "ACCEPTED",
	AssignmentRejected: "REJECTED",
}

// ParseAssignmentStatus accepts the stored names case-insensitively.
func ParseAssignmentStatus(s string) (AssignmentStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING":
		return AssignmentPending, nil
	case "ACCEPTED":
		return AssignmentAccepted, nil
	case "REJECTED":
		return AssignmentRejected, nil
	}
	return 0, fmt.Errorf("unknown assignment status %q", s)
}

func (s AssignmentStatus) Valid() bool {
	return int(s) < len(assignmentStatusNames)
}

func (s AssignmentStatus) String() string {
	if !s.Valid() {
		return fmt.Sprintf("AssignmentStatus(%d)", uint8(s))
	}
	return assignmentStatusNames[s]
}

func (s AssignmentStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid assignment status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *AssignmentStatus) UnmarshalText(b []byte) error {
	v, err := ParseAssignmentStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Value stores the status as its name.
func (s AssignmentStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid assignment status %d", uint8(s))
	}
	return s.String(), nil
}

// Scan reads a status name from the database.
func (s *AssignmentStatus) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into AssignmentStatus", src)
	}
}

// Assignment pairs a worker with a task. Feedback is only set on rejection.
type Assignment struct {
	ID         int64            `json:"id"`
	WorkerID   string           `json:"workerId"`
	TaskID     int64            `json:"taskId"`
	AssignedAt time.Time        `json:"assignedAt"`
	Status     AssignmentStatus `json:"status"`
	Feedback   *string          `json:"feedback,omitempty"`
}
