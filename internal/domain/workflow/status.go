package workflow

// Status represents a document status in the approval lifecycle
type Status string

const (
	StatusPendingSender      Status = "PENDING_SENDER"
	StatusPendingReceiver    Status = "PENDING_RECEIVER"
	StatusPendingAdmin       Status = "PENDING_ADMIN"
	StatusPendingHC          Status = "PENDING_HC"
	StatusPendingBlockLeader Status = "PENDING_BLOCK_LEADER"
	StatusPendingKT          Status = "PENDING_KT"
	StatusPendingDeptLeader  Status = "PENDING_DEPT_LEADER"
	StatusPendingDirector    Status = "PENDING_DIRECTOR"
	StatusCompleted          Status = "COMPLETED"
	StatusRejected           Status = "REJECTED"
)

var validStatuses = map[Status]bool{
	StatusPendingSender:      true,
	StatusPendingReceiver:    true,
	StatusPendingAdmin:       true,
	StatusPendingHC:          true,
	StatusPendingBlockLeader: true,
	StatusPendingKT:          true,
	StatusPendingDeptLeader:  true,
	StatusPendingDirector:    true,
	StatusCompleted:          true,
	StatusRejected:           true,
}

var terminalStatuses = map[Status]bool{
	StatusCompleted: true,
	StatusRejected:  true,
}

// IsTerminal returns true if the status is terminal (no further signatures accepted)
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsValid returns true if the status is a known workflow status
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}
