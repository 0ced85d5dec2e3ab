package service

import (
	"context"
	"fmt"

	"github.com/bachkhoacons/asset-approval/internal/application/port"
	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// stockMover applies and reverts the physical stock movement of a transfer
// slip. All methods expect a transactional context so the movement commits
// or aborts together with the status transition that triggered it.
type stockMover struct {
	assets port.AssetRepository
	logger *zap.Logger
}

// move relocates the slip's assets to the destination department. A full
// move re-homes the source row; a partial move splits the quantity off and
// merges it into a matching destination row (same name, unit, size) or
// creates a new one.
func (m *stockMover) move(ctx context.Context, t *entity.Transfer) error {
	for _, item := range t.Assets {
		src, err := m.assets.GetByID(ctx, item.AssetID)
		if err != nil {
			return fmt.Errorf("load asset %s: %w", item.AssetID, err)
		}
		if src == nil {
			m.logger.Warn("Transfer references missing asset, skipping",
				zap.String("transfer_id", t.ID),
				zap.String("asset_id", item.AssetID))
			continue
		}

		// The completed slip releases its hold on the source row
		if err := m.assets.AdjustReserved(ctx, src.ID, -item.Quantity); err != nil {
			return fmt.Errorf("release reservation on %s: %w", src.ID, err)
		}

		if item.Quantity >= src.Quantity {
			if err := m.assets.SetDepartment(ctx, src.ID, t.ToDeptID); err != nil {
				return fmt.Errorf("move asset %s: %w", src.ID, err)
			}
			continue
		}

		if err := m.assets.AdjustQuantity(ctx, src.ID, -item.Quantity); err != nil {
			return fmt.Errorf("reduce asset %s: %w", src.ID, err)
		}

		dest, err := m.assets.FindMatch(ctx, t.ToDeptID, src.MatchKey())
		if err != nil {
			return fmt.Errorf("find destination asset: %w", err)
		}
		if dest != nil {
			if err := m.assets.AdjustQuantity(ctx, dest.ID, item.Quantity); err != nil {
				return fmt.Errorf("merge into asset %s: %w", dest.ID, err)
			}
			continue
		}

		if err := m.assets.Create(ctx, &entity.Asset{
			ID:           uuid.NewString(),
			Name:         src.Name,
			Size:         src.Size,
			Description:  src.Description,
			Unit:         src.Unit,
			Quantity:     item.Quantity,
			Notes:        src.Notes,
			DepartmentID: t.ToDeptID,
		}); err != nil {
			return fmt.Errorf("create destination asset: %w", err)
		}
	}
	return nil
}

// revert undoes a completed slip's movement, returning quantities to the
// source department. Used when an admin deletes a COMPLETED slip.
func (m *stockMover) revert(ctx context.Context, t *entity.Transfer) error {
	for _, item := range t.Assets {
		src, err := m.assets.GetByID(ctx, item.AssetID)
		if err != nil {
			return fmt.Errorf("load asset %s: %w", item.AssetID, err)
		}
		if src == nil {
			continue
		}

		// Full moves only changed the department; put it back
		if item.Quantity >= src.Quantity && src.DepartmentID == t.ToDeptID {
			if err := m.assets.SetDepartment(ctx, src.ID, t.FromDeptID); err != nil {
				return fmt.Errorf("return asset %s: %w", src.ID, err)
			}
			continue
		}

		// Partial move: pull the quantity back out of the destination row
		dest, err := m.assets.FindMatch(ctx, t.ToDeptID, src.MatchKey())
		if err != nil {
			return fmt.Errorf("find destination asset: %w", err)
		}
		if dest != nil && dest.ID != src.ID {
			remaining := dest.Quantity - item.Quantity
			if remaining <= 0 {
				if err := m.assets.Delete(ctx, dest.ID); err != nil {
					return fmt.Errorf("remove destination asset %s: %w", dest.ID, err)
				}
			} else {
				if err := m.assets.SetQuantity(ctx, dest.ID, remaining); err != nil {
					return fmt.Errorf("reduce destination asset %s: %w", dest.ID, err)
				}
			}
		}

		back, err := m.assets.FindMatch(ctx, t.FromDeptID, src.MatchKey())
		if err != nil {
			return fmt.Errorf("find source asset: %w", err)
		}
		if back != nil {
			if err := m.assets.AdjustQuantity(ctx, back.ID, item.Quantity); err != nil {
				return fmt.Errorf("restore asset %s: %w", back.ID, err)
			}
			continue
		}

		if err := m.assets.Create(ctx, &entity.Asset{
			ID:           uuid.NewString(),
			Name:         src.Name,
			Size:         src.Size,
			Description:  src.Description,
			Unit:         src.Unit,
			Quantity:     item.Quantity,
			Notes:        src.Notes,
			DepartmentID: t.FromDeptID,
		}); err != nil {
			return fmt.Errorf("recreate source asset: %w", err)
		}
	}
	return nil
}

// release drops the reservations a pending slip holds on its source assets
func (m *stockMover) release(ctx context.Context, t *entity.Transfer) error {
	for _, item := range t.Assets {
		if item.Quantity <= 0 {
			continue
		}
		src, err := m.assets.GetByID(ctx, item.AssetID)
		if err != nil {
			return fmt.Errorf("load asset %s: %w", item.AssetID, err)
		}
		if src == nil {
			continue
		}
		if err := m.assets.AdjustReserved(ctx, src.ID, -item.Quantity); err != nil {
			return fmt.Errorf("release reservation on %s: %w", src.ID, err)
		}
	}
	return nil
}
