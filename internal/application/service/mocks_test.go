package service

import (
	"context"
	"sync"
	"time"

	"github.com/bachkhoacons/asset-approval/internal/application/port"
	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/bachkhoacons/asset-approval/internal/domain/permission"
	"github.com/bachkhoacons/asset-approval/internal/domain/workflow"
)

// fakeTransferRepo is an in-memory TransferRepository. Advance applies the
// same compare-and-set rule as the sqlite implementation so concurrency
// behavior can be exercised without a database.
type fakeTransferRepo struct {
	mu    sync.Mutex
	items map[string]*entity.Transfer
}

func newFakeTransferRepo() *fakeTransferRepo {
	return &fakeTransferRepo{items: map[string]*entity.Transfer{}}
}

func copyTransfer(t *entity.Transfer) *entity.Transfer {
	c := *t
	c.Signatures = entity.SignatureSet{}
	for k, v := range t.Signatures {
		c.Signatures[k] = v
	}
	c.Assets = append([]entity.TransferItem(nil), t.Assets...)
	return &c
}

func (r *fakeTransferRepo) Create(_ context.Context, t *entity.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[t.ID] = copyTransfer(t)
	return nil
}

func (r *fakeTransferRepo) GetByID(_ context.Context, id string) (*entity.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return copyTransfer(t), nil
}

func (r *fakeTransferRepo) List(_ context.Context, _, _ int) ([]*entity.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Transfer
	for _, t := range r.items {
		out = append(out, copyTransfer(t))
	}
	return out, nil
}

func (r *fakeTransferRepo) Advance(_ context.Context, id string, from, to workflow.Status, key workflow.SignatureKey, sig entity.Signature, markStockMoved bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok || t.Status != from || t.Signatures.Has(key) {
		return workflow.ErrConflict
	}
	t.Status = to
	t.Signatures[key] = sig
	if markStockMoved {
		t.StockMoved = true
	}
	t.Version++
	return nil
}

func (r *fakeTransferRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

type fakeRequestRepo struct {
	mu    sync.Mutex
	items map[string]*entity.AssetRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{items: map[string]*entity.AssetRequest{}}
}

func copyRequest(req *entity.AssetRequest) *entity.AssetRequest {
	c := *req
	c.Signatures = entity.SignatureSet{}
	for k, v := range req.Signatures {
		c.Signatures[k] = v
	}
	return &c
}

func (r *fakeRequestRepo) Create(_ context.Context, req *entity.AssetRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[req.ID] = copyRequest(req)
	return nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, id string) (*entity.AssetRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return copyRequest(req), nil
}

func (r *fakeRequestRepo) List(_ context.Context, _, _ int) ([]*entity.AssetRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.AssetRequest
	for _, req := range r.items {
		out = append(out, copyRequest(req))
	}
	return out, nil
}

func (r *fakeRequestRepo) Advance(_ context.Context, id string, from, to workflow.Status, key workflow.SignatureKey, sig entity.Signature) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.items[id]
	if !ok || req.Status != from || req.Signatures.Has(key) {
		return workflow.ErrConflict
	}
	req.Status = to
	req.Signatures[key] = sig
	req.Version++
	return nil
}

func (r *fakeRequestRepo) Reject(_ context.Context, id string, from workflow.Status, reason string, by entity.CreatedBy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.items[id]
	if !ok || req.Status != from {
		return workflow.ErrConflict
	}
	req.Status = workflow.StatusRejected
	req.RejectionReason = reason
	req.ProcessedBy = &by
	req.Version++
	return nil
}

func (r *fakeRequestRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

type fakeReportRepo struct {
	mu    sync.Mutex
	items map[string]*entity.InventoryReport
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{items: map[string]*entity.InventoryReport{}}
}

func copyReport(rep *entity.InventoryReport) *entity.InventoryReport {
	c := *rep
	c.Signatures = entity.SignatureSet{}
	for k, v := range rep.Signatures {
		c.Signatures[k] = v
	}
	c.Assets = append([]entity.ReportItem(nil), rep.Assets...)
	return &c
}

func (r *fakeReportRepo) Create(_ context.Context, rep *entity.InventoryReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[rep.ID] = copyReport(rep)
	return nil
}

func (r *fakeReportRepo) GetByID(_ context.Context, id string) (*entity.InventoryReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return copyReport(rep), nil
}

func (r *fakeReportRepo) List(_ context.Context, _, _ int) ([]*entity.InventoryReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.InventoryReport
	for _, rep := range r.items {
		out = append(out, copyReport(rep))
	}
	return out, nil
}

func (r *fakeReportRepo) Advance(_ context.Context, id string, from, to workflow.Status, key workflow.SignatureKey, sig entity.Signature) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.items[id]
	if !ok || rep.Status != from || rep.Signatures.Has(key) {
		return workflow.ErrConflict
	}
	rep.Status = to
	rep.Signatures[key] = sig
	rep.Version++
	return nil
}

func (r *fakeReportRepo) Reject(_ context.Context, id string, from workflow.Status, rejection entity.Rejection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.items[id]
	if !ok || rep.Status != from {
		return workflow.ErrConflict
	}
	rep.Status = workflow.StatusRejected
	rep.RejectedBy = &rejection
	rep.Version++
	return nil
}

func (r *fakeReportRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

type fakeAssetRepo struct {
	mu    sync.Mutex
	items map[string]*entity.Asset
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{items: map[string]*entity.Asset{}}
}

func copyAsset(a *entity.Asset) *entity.Asset {
	c := *a
	return &c
}

func (r *fakeAssetRepo) Create(_ context.Context, a *entity.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[a.ID] = copyAsset(a)
	return nil
}

func (r *fakeAssetRepo) GetByID(_ context.Context, id string) (*entity.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return copyAsset(a), nil
}

func (r *fakeAssetRepo) ListByDepartment(_ context.Context, deptID string) ([]*entity.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Asset
	for _, a := range r.items {
		if a.DepartmentID == deptID {
			out = append(out, copyAsset(a))
		}
	}
	return out, nil
}

func (r *fakeAssetRepo) FindMatch(_ context.Context, deptID, matchKey string) (*entity.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.items {
		if a.DepartmentID == deptID && a.MatchKey() == matchKey {
			return copyAsset(a), nil
		}
	}
	return nil, nil
}

func (r *fakeAssetRepo) AdjustQuantity(_ context.Context, id string, delta float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return workflow.ErrConflict
	}
	a.Quantity += delta
	if a.Quantity < 0 {
		a.Quantity = 0
	}
	return nil
}

func (r *fakeAssetRepo) AdjustReserved(_ context.Context, id string, delta float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return workflow.ErrConflict
	}
	a.Reserved += delta
	if a.Reserved < 0 {
		a.Reserved = 0
	}
	return nil
}

func (r *fakeAssetRepo) SetDepartment(_ context.Context, id, deptID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return workflow.ErrConflict
	}
	a.DepartmentID = deptID
	return nil
}

func (r *fakeAssetRepo) SetQuantity(_ context.Context, id string, quantity float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return workflow.ErrConflict
	}
	a.Quantity = quantity
	return nil
}

func (r *fakeAssetRepo) StampLastChecked(_ context.Context, ids []string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if a, ok := r.items[id]; ok {
			stamp := t
			a.LastChecked = &stamp
		}
	}
	return nil
}

func (r *fakeAssetRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

type fakeAuditRepo struct {
	mu   sync.Mutex
	logs []*entity.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, log *entity.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func (r *fakeAuditRepo) ListByTarget(_ context.Context, targetType, targetID string) ([]*entity.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.AuditLog
	for _, l := range r.logs {
		if l.TargetType == targetType && l.TargetID == targetID {
			out = append(out, l)
		}
	}
	return out, nil
}

// fakeTxManager runs the function directly. Atomicity under test comes from
// the fakes' own compare-and-set behavior.
type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []port.DocumentEvent
}

func (p *fakePublisher) Publish(event port.DocumentEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// fakeDirectory serves a fixed snapshot
type fakeDirectory struct {
	snap *entity.DirectorySnapshot
}

func (d *fakeDirectory) Snapshot(context.Context) (*entity.DirectorySnapshot, error) {
	return d.snap, nil
}

func (d *fakeDirectory) Resolver(context.Context) (*permission.Resolver, error) {
	return permission.NewResolver(d.snap), nil
}
