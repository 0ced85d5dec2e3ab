package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/bachkhoacons/asset-approval/internal/domain/workflow"
)

func testDirectory() *fakeDirectory {
	return &fakeDirectory{snap: &entity.DirectorySnapshot{
		Departments: map[string]*entity.Department{
			"d-sx":  {ID: "d-sx", Name: "Xưởng Sản xuất", ManagementBlock: "Nhà máy"},
			"d-kho": {ID: "d-kho", Name: "Kho Nhà máy", ManagementBlock: "Nhà máy"},
			"d-hc":  {ID: "d-hc", Name: "Phòng Hành chính", ManagementBlock: "Hành chính"},
		},
		Leadership: &entity.LeadershipConfig{
			BlockLeaders: map[string]*entity.BlockLeaders{
				"Nhà máy": {
					HeadIDs:             []string{"u-head-f"},
					DirectorApproverIDs: []string{"u-dir-f"},
				},
				"Hành chính": {
					DirectorApproverIDs: []string{"u-dir-hc"},
				},
			},
			ApprovalPermissions: map[string]*entity.ApprovalPermissions{
				"Nhà máy": {
					HCApproverIDs: []string{"u-hc-f"},
					KTApproverIDs: []string{"u-kt-f"},
				},
				"default": {
					HCApproverIDs: []string{"u-hc-d"},
					KTApproverIDs: []string{"u-kt-d"},
				},
			},
		},
	}}
}

type approvalFixture struct {
	svc       ApprovalService
	transfers *fakeTransferRepo
	requests  *fakeRequestRepo
	reports   *fakeReportRepo
	assets    *fakeAssetRepo
	audits    *fakeAuditRepo
	publisher *fakePublisher
}

func newApprovalFixture() *approvalFixture {
	f := &approvalFixture{
		transfers: newFakeTransferRepo(),
		requests:  newFakeRequestRepo(),
		reports:   newFakeReportRepo(),
		assets:    newFakeAssetRepo(),
		audits:    &fakeAuditRepo{},
		publisher: &fakePublisher{},
	}
	f.svc = NewApprovalService(
		f.transfers, f.requests, f.reports, f.assets, f.audits,
		testDirectory(), fakeTxManager{}, f.publisher, zap.NewNop(),
	)
	return f
}

func seedTransfer(f *approvalFixture) *entity.Transfer {
	// Two lines: a partial move that splits a1, and a full move of a2
	f.assets.items["a1"] = &entity.Asset{
		ID: "a1", Name: "Bàn làm việc", Unit: "cái",
		Quantity: 10, Reserved: 5, DepartmentID: "d-sx",
	}
	f.assets.items["a2"] = &entity.Asset{
		ID: "a2", Name: "Máy khoan", Unit: "cái",
		Quantity: 3, Reserved: 3, DepartmentID: "d-sx",
	}

	t := &entity.Transfer{
		ID:         "t1",
		FromDeptID: "d-sx",
		ToDeptID:   "d-kho",
		Status:     workflow.StatusPendingSender,
		Signatures: entity.SignatureSet{},
		Assets: []entity.TransferItem{
			{AssetID: "a1", Name: "Bàn làm việc", Unit: "cái", Quantity: 5},
			{AssetID: "a2", Name: "Máy khoan", Unit: "cái", Quantity: 3},
		},
		CreatedBy: entity.CreatedBy{UID: "u-mgr-sx", Name: "Quản lý SX"},
	}
	f.transfers.items["t1"] = t
	return t
}

func actor(uid string, role entity.Role, opts ...func(*entity.Actor)) *entity.Actor {
	a := &entity.Actor{UID: uid, DisplayName: uid, Role: role}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func manages(deptID string) func(*entity.Actor) {
	return func(a *entity.Actor) { a.ManagedDepartmentIDs = append(a.ManagedDepartmentIDs, deptID) }
}

func TestAdvanceTransferFullChain(t *testing.T) {
	f := newApprovalFixture()
	seedTransfer(f)
	ctx := context.Background()

	sender := actor("u-mgr-sx", entity.RoleUser, manages("d-sx"))
	receiver := actor("u-mgr-kho", entity.RoleUser, manages("d-kho"))
	hcSigner := actor("u-hc-f", entity.RoleUser)

	status, err := f.svc.AdvanceTransfer(ctx, "t1", workflow.StatusPendingSender, workflow.KeySender, sender)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingReceiver, status)

	status, err = f.svc.AdvanceTransfer(ctx, "t1", workflow.StatusPendingReceiver, workflow.KeyReceiver, receiver)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingAdmin, status)

	status, err = f.svc.AdvanceTransfer(ctx, "t1", workflow.StatusPendingAdmin, workflow.KeyAdmin, hcSigner)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, status)

	live, _ := f.transfers.GetByID(ctx, "t1")
	assert.Equal(t, workflow.StatusCompleted, live.Status)
	assert.True(t, live.StockMoved)
	require.Len(t, live.Signatures, 3)
	assert.Equal(t, "u-mgr-sx", live.Signatures[workflow.KeySender].UID)
	assert.Equal(t, "u-hc-f", live.Signatures[workflow.KeyAdmin].UID)
	assert.False(t, live.Signatures[workflow.KeySender].SignedAt.IsZero())

	// Partial line: a1 split, 5 stayed, 5 landed in the destination
	a1, _ := f.assets.GetByID(ctx, "a1")
	assert.Equal(t, 5.0, a1.Quantity)
	assert.Equal(t, 0.0, a1.Reserved)
	assert.Equal(t, "d-sx", a1.DepartmentID)
	split, _ := f.assets.FindMatch(ctx, "d-kho", a1.MatchKey())
	require.NotNil(t, split)
	assert.Equal(t, 5.0, split.Quantity)

	// Full line: a2 re-homed whole
	a2, _ := f.assets.GetByID(ctx, "a2")
	assert.Equal(t, "d-kho", a2.DepartmentID)
	assert.Equal(t, 3.0, a2.Quantity)
	assert.Equal(t, 0.0, a2.Reserved)

	// Completion stamps the counted assets
	assert.NotNil(t, a1.LastChecked)
	assert.NotNil(t, a2.LastChecked)

	logs, _ := f.audits.ListByTarget(ctx, "transfer", "t1")
	assert.Len(t, logs, 3)
	assert.Len(t, f.publisher.events, 3)
	for _, ev := range f.publisher.events {
		assert.Equal(t, "advanced", ev.Action)
	}
}

func TestAdvanceTransferKeyStatusMismatch(t *testing.T) {
	f := newApprovalFixture()
	seedTransfer(f)

	_, err := f.svc.AdvanceTransfer(context.Background(), "t1",
		workflow.StatusPendingSender, workflow.KeyReceiver, actor("u-admin", entity.RoleAdmin))
	assert.ErrorIs(t, err, workflow.ErrStateMismatch)

	// Nothing was written
	live, _ := f.transfers.GetByID(context.Background(), "t1")
	assert.Equal(t, workflow.StatusPendingSender, live.Status)
	assert.Empty(t, live.Signatures)
}

func TestAdvanceTransferUnauthorized(t *testing.T) {
	f := newApprovalFixture()
	seedTransfer(f)

	_, err := f.svc.AdvanceTransfer(context.Background(), "t1",
		workflow.StatusPendingSender, workflow.KeySender, actor("u-random", entity.RoleUser))
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)
}

func TestAdvanceTransferStaleStatus(t *testing.T) {
	f := newApprovalFixture()
	seedTransfer(f)

	// Caller believes the slip is one step ahead of where it actually is
	receiver := actor("u-mgr-kho", entity.RoleUser, manages("d-kho"))
	_, err := f.svc.AdvanceTransfer(context.Background(), "t1",
		workflow.StatusPendingReceiver, workflow.KeyReceiver, receiver)
	assert.ErrorIs(t, err, workflow.ErrConflict)
}

func TestAdvanceTransferMissing(t *testing.T) {
	f := newApprovalFixture()

	_, err := f.svc.AdvanceTransfer(context.Background(), "nope",
		workflow.StatusPendingSender, workflow.KeySender, actor("u-admin", entity.RoleAdmin))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdvanceTransferConcurrentExactlyOneWinner(t *testing.T) {
	f := newApprovalFixture()
	seedTransfer(f)
	adminActor := actor("u-admin", entity.RoleAdmin)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.AdvanceTransfer(context.Background(), "t1",
				workflow.StatusPendingSender, workflow.KeySender, adminActor)
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case err == workflow.ErrConflict:
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)

	live, _ := f.transfers.GetByID(context.Background(), "t1")
	assert.Equal(t, workflow.StatusPendingReceiver, live.Status)
	assert.Len(t, live.Signatures, 1)
}

func seedRequest(f *approvalFixture, reqType entity.RequestType, status workflow.Status) *entity.AssetRequest {
	req := &entity.AssetRequest{
		ID:         "r1",
		Type:       reqType,
		Status:     status,
		Signatures: entity.SignatureSet{},
		AssetData: entity.AssetData{
			Name: "Tủ hồ sơ", Unit: "cái", Quantity: 2, DepartmentID: "d-sx",
		},
		Requester: entity.CreatedBy{UID: "u-req", Name: "Người đề nghị"},
	}
	f.requests.items["r1"] = req
	return req
}

func TestAdvanceRequestCompletionCreatesAsset(t *testing.T) {
	f := newApprovalFixture()
	seedRequest(f, entity.RequestAdd, workflow.StatusPendingKT)
	ctx := context.Background()

	status, err := f.svc.AdvanceRequest(ctx, "r1", workflow.StatusPendingKT, workflow.KeyKT, actor("u-kt-f", entity.RoleUser))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, status)

	assets, _ := f.assets.ListByDepartment(ctx, "d-sx")
	require.Len(t, assets, 1)
	created := assets[0]
	assert.Equal(t, "Tủ hồ sơ", created.Name)
	assert.Equal(t, 2.0, created.Quantity)
	assert.Equal(t, "Nhà máy", created.ManagementBlock)
	assert.Equal(t, "u-req", created.CreatedByUID)
	assert.NotEmpty(t, created.ID)
}

func TestAdvanceRequestCompletionReducesQuantity(t *testing.T) {
	f := newApprovalFixture()
	f.assets.items["a1"] = &entity.Asset{ID: "a1", Name: "Bàn", Unit: "cái", Quantity: 10, DepartmentID: "d-sx"}
	req := seedRequest(f, entity.RequestReduceQuantity, workflow.StatusPendingKT)
	req.TargetAssetID = "a1"
	req.AssetData.Quantity = 4
	ctx := context.Background()

	_, err := f.svc.AdvanceRequest(ctx, "r1", workflow.StatusPendingKT, workflow.KeyKT, actor("u-kt-f", entity.RoleUser))
	require.NoError(t, err)

	a1, _ := f.assets.GetByID(ctx, "a1")
	assert.Equal(t, 6.0, a1.Quantity)
}

func TestAdvanceRequestCompletionDeletesAsset(t *testing.T) {
	f := newApprovalFixture()
	f.assets.items["a1"] = &entity.Asset{ID: "a1", Name: "Bàn", Unit: "cái", Quantity: 10, DepartmentID: "d-sx"}
	req := seedRequest(f, entity.RequestDelete, workflow.StatusPendingKT)
	req.TargetAssetID = "a1"
	ctx := context.Background()

	_, err := f.svc.AdvanceRequest(ctx, "r1", workflow.StatusPendingKT, workflow.KeyKT, actor("u-kt-f", entity.RoleUser))
	require.NoError(t, err)

	a1, _ := f.assets.GetByID(ctx, "a1")
	assert.Nil(t, a1)
}

func TestAdvanceRequestMidChainHasNoSideEffects(t *testing.T) {
	f := newApprovalFixture()
	seedRequest(f, entity.RequestAdd, workflow.StatusPendingHC)
	ctx := context.Background()

	status, err := f.svc.AdvanceRequest(ctx, "r1", workflow.StatusPendingHC, workflow.KeyHC, actor("u-hc-f", entity.RoleUser))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingBlockLeader, status)

	assets, _ := f.assets.ListByDepartment(ctx, "d-sx")
	assert.Empty(t, assets)
}

func TestAdvanceRequestRepeatSignatureConflicts(t *testing.T) {
	f := newApprovalFixture()
	req := seedRequest(f, entity.RequestAdd, workflow.StatusPendingHC)
	req.Signatures[workflow.KeyHC] = entity.Signature{UID: "u-earlier", SignedAt: time.Now()}

	_, err := f.svc.AdvanceRequest(context.Background(), "r1",
		workflow.StatusPendingHC, workflow.KeyHC, actor("u-hc-f", entity.RoleUser))
	assert.ErrorIs(t, err, workflow.ErrConflict)
}

func TestRejectRequestByBlockLeader(t *testing.T) {
	f := newApprovalFixture()
	seedRequest(f, entity.RequestAdd, workflow.StatusPendingBlockLeader)
	ctx := context.Background()

	reason := "Sai thông tin tài sản"
	require.NoError(t, f.svc.RejectRequest(ctx, "r1", reason, actor("u-head-f", entity.RoleUser)))

	live, _ := f.requests.GetByID(ctx, "r1")
	assert.Equal(t, workflow.StatusRejected, live.Status)
	assert.Equal(t, reason, live.RejectionReason)
}

func TestRejectRequestDefaultsReason(t *testing.T) {
	f := newApprovalFixture()
	seedRequest(f, entity.RequestAdd, workflow.StatusPendingHC)
	ctx := context.Background()

	require.NoError(t, f.svc.RejectRequest(ctx, "r1", "", actor("u-hc-f", entity.RoleUser)))

	live, _ := f.requests.GetByID(ctx, "r1")
	assert.Equal(t, workflow.StatusRejected, live.Status)
	assert.Equal(t, "Không có lý do", live.RejectionReason)
	require.NotNil(t, live.ProcessedBy)
	assert.Equal(t, "u-hc-f", live.ProcessedBy.UID)
}

func TestRejectRequestUnauthorized(t *testing.T) {
	f := newApprovalFixture()
	seedRequest(f, entity.RequestAdd, workflow.StatusPendingHC)

	err := f.svc.RejectRequest(context.Background(), "r1", "không hợp lệ", actor("u-random", entity.RoleUser))
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)
}

func TestRejectRequestTerminal(t *testing.T) {
	f := newApprovalFixture()
	seedRequest(f, entity.RequestAdd, workflow.StatusCompleted)

	err := f.svc.RejectRequest(context.Background(), "r1", "", actor("u-admin", entity.RoleAdmin))
	assert.ErrorIs(t, err, workflow.ErrStateMismatch)
}

func seedReport(f *approvalFixture, reportType string, status workflow.Status) *entity.InventoryReport {
	rep := &entity.InventoryReport{
		ID:         "rep1",
		Title:      "Kiểm kê quý 3",
		Type:       reportType,
		Status:     status,
		Signatures: entity.SignatureSet{},
		BlockName:  "Nhà máy",
		Assets: []entity.ReportItem{
			{AssetID: "a1", Name: "Bàn", Unit: "cái", BookQuantity: 10, ActualQuantity: 9},
		},
		Requester: entity.CreatedBy{UID: "u-req"},
	}
	f.reports.items["rep1"] = rep
	return rep
}

func TestAdvanceReportChain(t *testing.T) {
	f := newApprovalFixture()
	f.assets.items["a1"] = &entity.Asset{ID: "a1", Name: "Bàn", Unit: "cái", Quantity: 10, DepartmentID: "d-sx"}
	seedReport(f, workflow.ReportBlockInventory, workflow.StatusPendingHC)
	ctx := context.Background()

	status, err := f.svc.AdvanceReport(ctx, "rep1", workflow.StatusPendingHC, workflow.KeyHC, actor("u-hc-f", entity.RoleUser))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingDeptLeader, status)

	status, err = f.svc.AdvanceReport(ctx, "rep1", workflow.StatusPendingDeptLeader, workflow.KeyDeptLeader, actor("u-head-f", entity.RoleUser))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingDirector, status)

	status, err = f.svc.AdvanceReport(ctx, "rep1", workflow.StatusPendingDirector, workflow.KeyDirector, actor("u-dir-f", entity.RoleUser))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, status)

	// Completion stamps the counted assets
	a1, _ := f.assets.GetByID(ctx, "a1")
	assert.NotNil(t, a1.LastChecked)
}

func TestAdvanceReportUnknownType(t *testing.T) {
	f := newApprovalFixture()
	rep := seedReport(f, "QUARTERLY", workflow.StatusPendingHC)
	_ = rep

	_, err := f.svc.AdvanceReport(context.Background(), "rep1",
		workflow.StatusPendingHC, workflow.KeyHC, actor("u-admin", entity.RoleAdmin))
	assert.ErrorIs(t, err, workflow.ErrUnknownWorkflow)
}

func TestRejectReport(t *testing.T) {
	f := newApprovalFixture()
	seedReport(f, workflow.ReportBlockInventory, workflow.StatusPendingDirector)
	ctx := context.Background()

	require.NoError(t, f.svc.RejectReport(ctx, "rep1", actor("u-dir-f", entity.RoleUser)))

	live, _ := f.reports.GetByID(ctx, "rep1")
	assert.Equal(t, workflow.StatusRejected, live.Status)
	require.NotNil(t, live.RejectedBy)
	assert.Equal(t, "u-dir-f", live.RejectedBy.UID)
	assert.False(t, live.RejectedBy.RejectedAt.IsZero())
}

func TestRejectReportTerminal(t *testing.T) {
	f := newApprovalFixture()
	seedReport(f, workflow.ReportBlockInventory, workflow.StatusRejected)

	err := f.svc.RejectReport(context.Background(), "rep1", actor("u-admin", entity.RoleAdmin))
	assert.ErrorIs(t, err, workflow.ErrStateMismatch)
}
