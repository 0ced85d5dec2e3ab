package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/bachkhoacons/asset-approval/pkg/database"
	"go.uber.org/zap"
)

const leadershipConfigKey = "leadership"

// LeadershipRepository stores the leadership configuration as one JSON
// document in the app_config table. Admins edit it out of band; the
// permission layer reads it fresh on every decision.
type LeadershipRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewLeadershipRepository creates a new leadership repository
func NewLeadershipRepository(db *database.DB, logger *zap.Logger) *LeadershipRepository {
	return &LeadershipRepository{
		db:     db,
		logger: logger,
	}
}

// Get loads the leadership configuration. Returns (nil, nil) when none has
// been written, which permission checks treat as nobody-is-authorized.
func (r *LeadershipRepository) Get(ctx context.Context) (*entity.LeadershipConfig, error) {
	query := `SELECT value FROM app_config WHERE key = ?`

	var value string
	err := execer(ctx, r.db).QueryRowContext(ctx, query, leadershipConfigKey).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get leadership config", zap.Error(err))
		return nil, fmt.Errorf("failed to get leadership config: %w", err)
	}

	var cfg entity.LeadershipConfig
	if err := json.Unmarshal([]byte(value), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal leadership config: %w", err)
	}
	return &cfg, nil
}

// Put writes the whole leadership configuration document
func (r *LeadershipRepository) Put(ctx context.Context, cfg *entity.LeadershipConfig) error {
	value, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal leadership config: %w", err)
	}

	query := `
		INSERT INTO app_config (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	_, err = execer(ctx, r.db).ExecContext(ctx, query, leadershipConfigKey, string(value), time.Now())
	if err != nil {
		r.logger.Error("Failed to put leadership config", zap.Error(err))
		return fmt.Errorf("failed to put leadership config: %w", err)
	}
	return nil
}
