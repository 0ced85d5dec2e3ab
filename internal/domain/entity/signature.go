package entity

import (
	"errors"
	"time"

	"github.com/bachkhoacons/asset-approval/internal/domain/workflow"
)

// ErrAlreadySigned is returned when a signature slot is written twice
var ErrAlreadySigned = errors.New("signature already recorded for this role")

// Signature is one immutable entry of the signature ledger. SignedAt is
// always server-assigned, never a client clock.
type Signature struct {
	UID      string    `json:"uid"`
	Name     string    `json:"name"`
	SignedAt time.Time `json:"signedAt"`
}

// SignatureSet is the per-document signature ledger: role key to signature.
// Writes are additive only; no key is ever deleted or overwritten.
type SignatureSet map[workflow.SignatureKey]Signature

// Add records a signature under key. Writing an occupied slot is an error.
func (s SignatureSet) Add(key workflow.SignatureKey, sig Signature) error {
	if _, exists := s[key]; exists {
		return ErrAlreadySigned
	}
	s[key] = sig
	return nil
}

// Has reports whether a signature exists for the role key
func (s SignatureSet) Has(key workflow.SignatureKey) bool {
	_, ok := s[key]
	return ok
}

// CreatedBy is the creator snapshot captured when a document is created.
// It is used for delete-permission checks and never re-resolved.
type CreatedBy struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// Rejection records who rejected a document and when
type Rejection struct {
	UID        string    `json:"uid"`
	Name       string    `json:"name"`
	RejectedAt time.Time `json:"rejectedAt"`
}
