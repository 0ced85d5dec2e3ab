package entity

// BlockLeaders holds the approver identities configured for one management block
type BlockLeaders struct {
	HeadIDs             []string `json:"headIds"`
	DeputyIDs           []string `json:"deputyIds"`
	DirectorApproverIDs []string `json:"directorApproverIds"`
}

// LeaderIDs returns the combined head + deputy id set
func (b *BlockLeaders) LeaderIDs() []string {
	ids := make([]string, 0, len(b.HeadIDs)+len(b.DeputyIDs))
	ids = append(ids, b.HeadIDs...)
	ids = append(ids, b.DeputyIDs...)
	return ids
}

// HasLeader reports whether uid is a head or deputy of the block
func (b *BlockLeaders) HasLeader(uid string) bool {
	if b == nil {
		return false
	}
	return contains(b.HeadIDs, uid) || contains(b.DeputyIDs, uid)
}

// HasDirector reports whether uid is in the block's director approver list
func (b *BlockLeaders) HasDirector(uid string) bool {
	return b != nil && contains(b.DirectorApproverIDs, uid)
}

// ApprovalPermissions holds the office (HC) and accounting (KT) approver
// lists for one permission group
type ApprovalPermissions struct {
	HCApproverIDs []string `json:"hcApproverIds"`
	KTApproverIDs []string `json:"ktApproverIds"`
}

// HasHCApprover reports whether uid may approve HC steps for the group
func (p *ApprovalPermissions) HasHCApprover(uid string) bool {
	return p != nil && contains(p.HCApproverIDs, uid)
}

// HasKTApprover reports whether uid may approve KT steps for the group
func (p *ApprovalPermissions) HasKTApprover(uid string) bool {
	return p != nil && contains(p.KTApproverIDs, uid)
}

// LeadershipConfig is the externally-edited approval configuration document.
// The core only ever reads it; a missing block or group entry means no one
// other than admin may approve that step.
type LeadershipConfig struct {
	BlockLeaders        map[string]*BlockLeaders        `json:"blockLeaders"`
	ApprovalPermissions map[string]*ApprovalPermissions `json:"approvalPermissions"`
}

// DirectorySnapshot is the read model the permission resolver works against.
// It is assembled fresh for every permission decision so configuration edits
// take effect without a restart. Nil members fail closed.
type DirectorySnapshot struct {
	Departments map[string]*Department
	Leadership  *LeadershipConfig
}

// ConfigLoaded reports whether the leadership configuration document is
// present in the snapshot. While it is absent no non-admin may sign anything,
// the department-manager and primary-member fallbacks included.
func (s *DirectorySnapshot) ConfigLoaded() bool {
	return s != nil && s.Leadership != nil
}

// Department looks up a department by id, nil if unknown
func (s *DirectorySnapshot) Department(id string) *Department {
	if s == nil || id == "" {
		return nil
	}
	return s.Departments[id]
}

// BlockLeaders looks up the leader configuration for a management block
func (s *DirectorySnapshot) BlockLeaders(block string) *BlockLeaders {
	if s == nil || s.Leadership == nil || block == "" {
		return nil
	}
	return s.Leadership.BlockLeaders[block]
}

// Permissions looks up the approver lists for a permission-group key
func (s *DirectorySnapshot) Permissions(groupKey string) *ApprovalPermissions {
	if s == nil || s.Leadership == nil {
		return nil
	}
	return s.Leadership.ApprovalPermissions[groupKey]
}

func contains(ids []string, uid string) bool {
	for _, id := range ids {
		if id == uid {
			return true
		}
	}
	return false
}
