package entity

// Role is the global role of an actor
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Actor is an authenticated identity acting on workflow documents
type Actor struct {
	UID                  string   `json:"uid"`
	DisplayName          string   `json:"display_name"`
	Email                string   `json:"email"`
	Role                 Role     `json:"role"`
	ManagedDepartmentIDs []string `json:"managed_department_ids,omitempty"`
	PrimaryDepartmentID  string   `json:"primary_department_id,omitempty"`
}

// IsAdmin reports whether the actor bypasses step-specific permission gates.
// Admins still obey workflow ordering.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// ManagesDepartment reports whether the actor manages the given department
func (a *Actor) ManagesDepartment(deptID string) bool {
	if a == nil {
		return false
	}
	for _, id := range a.ManagedDepartmentIDs {
		if id == deptID {
			return true
		}
	}
	return false
}

// SignerName returns the display name recorded on signatures
func (a *Actor) SignerName() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	if a.Email != "" {
		return a.Email
	}
	return "Người ký"
}
