package port

import "github.com/bachkhoacons/asset-approval/internal/domain/workflow"

// DocumentEvent describes a committed change to a workflow document,
// published after the transaction so observers never see uncommitted state.
type DocumentEvent struct {
	Kind   workflow.Kind   `json:"kind"`
	ID     string          `json:"id"`
	Status workflow.Status `json:"status"`
	Action string          `json:"action"` // created, advanced, rejected, deleted
}

// EventPublisher pushes document change events to observers (UI refresh)
type EventPublisher interface {
	Publish(event DocumentEvent)
}
