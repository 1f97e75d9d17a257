package resolver

import "strings"

// Status is the lifecycle state of one pincode field.
type Status int

const (
	Idle Status = iota
	Pending
	Resolved
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// FieldsEditable reports whether city and state accept manual input.
// They are editable only after a failed lookup so the shopper can recover.
func (s Status) FieldsEditable() bool {
	return s == Failed
}

// Snapshot is a consistent view of the resolver at one instant.
type Snapshot struct {
	PostalCode string
	City       string
	State      string
	Status     Status
	Message    string

	// Seq increases with every change; listeners can drop out-of-order snapshots.
	Seq uint64
}

// FieldsEditable reports whether city and state accept manual input.
func (s Snapshot) FieldsEditable() bool {
	return s.Status.FieldsEditable()
}

// CanSubmit reports whether the owning form may submit.
func (s Snapshot) CanSubmit() bool {
	switch s.Status {
	case Resolved:
		return true
	case Failed:
		return strings.TrimSpace(s.City) != "" && strings.TrimSpace(s.State) != ""
	default:
		return false
	}
}
