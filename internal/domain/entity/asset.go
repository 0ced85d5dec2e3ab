package entity

import (
	"strings"
	"time"
)

// Asset is a tracked asset row. Quantity is the booked amount; Reserved is
// the portion held by in-flight transfer slips and unavailable for new ones.
type Asset struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Size            string     `json:"size,omitempty"`
	Description     string     `json:"description,omitempty"`
	Unit            string     `json:"unit"`
	Quantity        float64    `json:"quantity"`
	Reserved        float64    `json:"reserved"`
	Notes           string     `json:"notes,omitempty"`
	DepartmentID    string     `json:"department_id"`
	ManagementBlock string     `json:"management_block,omitempty"`
	LastChecked     *time.Time `json:"last_checked,omitempty"`
	CreatedByUID    string     `json:"created_by_uid,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Available returns the quantity not held by pending transfers
func (a *Asset) Available() float64 {
	return a.Quantity - a.Reserved
}

// MatchKey groups assets considered the same line when merging stock at a
// destination department: name + unit + size, case-insensitively.
func (a *Asset) MatchKey() string {
	return AssetMatchKey(a.Name, a.Unit, a.Size)
}

// AssetMatchKey builds the merge key from raw name/unit/size values
func AssetMatchKey(name, unit, size string) string {
	norm := func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return norm(name) + "||" + norm(unit) + "||" + norm(size)
}
