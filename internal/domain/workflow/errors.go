package workflow

import "errors"

var (
	// ErrUnauthorized is returned when the actor fails the permission gate
	// for the step being signed. It never reaches storage.
	ErrUnauthorized = errors.New("actor is not authorized for this step")

	// ErrStateMismatch is returned when the caller's expected status does not
	// match the workflow table entry for the supplied signature key.
	ErrStateMismatch = errors.New("expected status does not match workflow step")

	// ErrConflict is returned when the document was advanced by someone else
	// between the caller's read and this write. Retryable after a fresh read.
	ErrConflict = errors.New("document was concurrently modified")

	// ErrUnknownWorkflow is returned when a document's type has no workflow
	// table. Treated as a data-integrity fault, not retryable.
	ErrUnknownWorkflow = errors.New("no workflow defined for document type")

	// ErrConfigMissing is returned when the leadership or permission
	// configuration for the relevant block or group is absent. Resolves to
	// unauthorized for non-admin actors, never to allow.
	ErrConfigMissing = errors.New("leadership configuration missing")
)
