package entity

// Management block labels with special meaning in the approval configuration.
// Factory departments use their own approver lists; every other block shares
// the default permission group. The administrative block additionally backs
// the director fallback for company-wide summary reports.
const (
	BlockFactory        = "Nhà máy"
	BlockAdministration = "Hành chính"

	PermissionGroupDefault = "default"
)

// Department is an organizational unit, optionally tagged with a management block
type Department struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ManagementBlock string `json:"management_block,omitempty"`
}

// PermissionGroupKey derives the approver-list group for a management block:
// the factory block has its own group, everything else shares the default.
func PermissionGroupKey(managementBlock string) string {
	if managementBlock == BlockFactory {
		return BlockFactory
	}
	return PermissionGroupDefault
}
