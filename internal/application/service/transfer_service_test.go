package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/bachkhoacons/asset-approval/internal/domain/workflow"
)

type transferFixture struct {
	svc       TransferService
	transfers *fakeTransferRepo
	assets    *fakeAssetRepo
	audits    *fakeAuditRepo
	publisher *fakePublisher
}

func newTransferFixture() *transferFixture {
	f := &transferFixture{
		transfers: newFakeTransferRepo(),
		assets:    newFakeAssetRepo(),
		audits:    &fakeAuditRepo{},
		publisher: &fakePublisher{},
	}
	f.svc = NewTransferService(
		f.transfers, f.assets, f.audits,
		testDirectory(), fakeTxManager{}, f.publisher, zap.NewNop(),
	)
	return f
}

func TestCreateTransferReservesStock(t *testing.T) {
	f := newTransferFixture()
	f.assets.items["a1"] = &entity.Asset{ID: "a1", Name: "Ghế", Unit: "cái", Quantity: 10, DepartmentID: "d-sx"}
	ctx := context.Background()

	slip, err := f.svc.Create(ctx, CreateTransferInput{
		FromDeptID: "d-sx",
		ToDeptID:   "d-kho",
		Assets:     []entity.TransferItem{{AssetID: "a1", Name: "Ghế", Unit: "cái", Quantity: 4}},
	}, actor("u-mgr-sx", entity.RoleUser, manages("d-sx")))
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusPendingSender, slip.Status)
	assert.NotEmpty(t, slip.ID)
	assert.NotEmpty(t, slip.DisplayCode)
	assert.Equal(t, "u-mgr-sx", slip.CreatedBy.UID)
	assert.Empty(t, slip.Signatures)

	a1, _ := f.assets.GetByID(ctx, "a1")
	assert.Equal(t, 4.0, a1.Reserved)
	assert.Equal(t, 10.0, a1.Quantity)
}

func TestCreateTransferInsufficientStock(t *testing.T) {
	f := newTransferFixture()
	// 10 on the books but 8 already held by another pending slip
	f.assets.items["a1"] = &entity.Asset{ID: "a1", Name: "Ghế", Unit: "cái", Quantity: 10, Reserved: 8, DepartmentID: "d-sx"}

	_, err := f.svc.Create(context.Background(), CreateTransferInput{
		FromDeptID: "d-sx",
		ToDeptID:   "d-kho",
		Assets:     []entity.TransferItem{{AssetID: "a1", Quantity: 4}},
	}, actor("u-mgr-sx", entity.RoleUser, manages("d-sx")))
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCreateTransferValidation(t *testing.T) {
	f := newTransferFixture()
	creator := actor("u-mgr-sx", entity.RoleUser)

	tests := []struct {
		name string
		in   CreateTransferInput
	}{
		{
			name: "missing departments",
			in:   CreateTransferInput{Assets: []entity.TransferItem{{AssetID: "a1", Quantity: 1}}},
		},
		{
			name: "same source and destination",
			in: CreateTransferInput{
				FromDeptID: "d-sx", ToDeptID: "d-sx",
				Assets: []entity.TransferItem{{AssetID: "a1", Quantity: 1}},
			},
		},
		{
			name: "no asset lines",
			in:   CreateTransferInput{FromDeptID: "d-sx", ToDeptID: "d-kho"},
		},
		{
			name: "non-positive quantity",
			in: CreateTransferInput{
				FromDeptID: "d-sx", ToDeptID: "d-kho",
				Assets: []entity.TransferItem{{AssetID: "a1", Quantity: 0}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.in, creator)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateTransferWrongDepartment(t *testing.T) {
	f := newTransferFixture()
	f.assets.items["a1"] = &entity.Asset{ID: "a1", Name: "Ghế", Unit: "cái", Quantity: 10, DepartmentID: "d-hc"}

	_, err := f.svc.Create(context.Background(), CreateTransferInput{
		FromDeptID: "d-sx",
		ToDeptID:   "d-kho",
		Assets:     []entity.TransferItem{{AssetID: "a1", Quantity: 1}},
	}, actor("u-mgr-sx", entity.RoleUser))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteTransferReleasesReservation(t *testing.T) {
	f := newTransferFixture()
	f.assets.items["a1"] = &entity.Asset{ID: "a1", Name: "Ghế", Unit: "cái", Quantity: 10, Reserved: 4, DepartmentID: "d-sx"}
	f.transfers.items["t1"] = &entity.Transfer{
		ID: "t1", FromDeptID: "d-sx", ToDeptID: "d-kho",
		Status:     workflow.StatusPendingSender,
		Signatures: entity.SignatureSet{},
		Assets:     []entity.TransferItem{{AssetID: "a1", Quantity: 4}},
		CreatedBy:  entity.CreatedBy{UID: "u-creator"},
	}
	ctx := context.Background()

	require.NoError(t, f.svc.Delete(ctx, "t1", actor("u-creator", entity.RoleUser)))

	a1, _ := f.assets.GetByID(ctx, "a1")
	assert.Equal(t, 0.0, a1.Reserved)
	gone, _ := f.transfers.GetByID(ctx, "t1")
	assert.Nil(t, gone)
}

func TestDeleteTransferCreatorOnlyAtFirstStep(t *testing.T) {
	f := newTransferFixture()
	f.transfers.items["t1"] = &entity.Transfer{
		ID: "t1", FromDeptID: "d-sx", ToDeptID: "d-kho",
		Status:     workflow.StatusPendingReceiver,
		Signatures: entity.SignatureSet{},
		CreatedBy:  entity.CreatedBy{UID: "u-creator"},
	}

	err := f.svc.Delete(context.Background(), "t1", actor("u-creator", entity.RoleUser))
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)
}

func TestDeleteCompletedTransferRevertsStock(t *testing.T) {
	f := newTransferFixture()
	ctx := context.Background()

	// A completed full move: the asset now lives at the destination
	f.assets.items["a2"] = &entity.Asset{ID: "a2", Name: "Máy khoan", Unit: "cái", Quantity: 3, DepartmentID: "d-kho"}
	f.transfers.items["t1"] = &entity.Transfer{
		ID: "t1", FromDeptID: "d-sx", ToDeptID: "d-kho",
		Status:     workflow.StatusCompleted,
		StockMoved: true,
		Signatures: entity.SignatureSet{},
		Assets:     []entity.TransferItem{{AssetID: "a2", Quantity: 3}},
		CreatedBy:  entity.CreatedBy{UID: "u-creator"},
	}

	// Only an admin may delete a completed slip
	err := f.svc.Delete(ctx, "t1", actor("u-creator", entity.RoleUser))
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)

	require.NoError(t, f.svc.Delete(ctx, "t1", actor("u-admin", entity.RoleAdmin)))

	a2, _ := f.assets.GetByID(ctx, "a2")
	assert.Equal(t, "d-sx", a2.DepartmentID)
	assert.Equal(t, 3.0, a2.Quantity)
}
