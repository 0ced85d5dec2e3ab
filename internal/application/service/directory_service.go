package service

import (
	"context"
	"fmt"

	"github.com/bachkhoacons/asset-approval/internal/application/port"
	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/bachkhoacons/asset-approval/internal/domain/permission"
	"go.uber.org/zap"
)

// DirectoryService assembles the directory read model the permission
// resolver works against. Every call loads fresh data: approver list edits
// must take effect without a deploy or restart, so there is no cache here.
type DirectoryService interface {
	Snapshot(ctx context.Context) (*entity.DirectorySnapshot, error)
	Resolver(ctx context.Context) (*permission.Resolver, error)
}

type directoryServiceImpl struct {
	departments port.DepartmentRepository
	leadership  port.LeadershipRepository
	logger      *zap.Logger
}

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(
	departments port.DepartmentRepository,
	leadership port.LeadershipRepository,
	logger *zap.Logger,
) DirectoryService {
	return &directoryServiceImpl{
		departments: departments,
		leadership:  leadership,
		logger:      logger,
	}
}

// Snapshot loads the current departments and leadership configuration.
// An absent leadership document yields a snapshot that authorizes nobody
// but admins.
func (s *directoryServiceImpl) Snapshot(ctx context.Context) (*entity.DirectorySnapshot, error) {
	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load departments: %w", err)
	}

	cfg, err := s.leadership.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load leadership config: %w", err)
	}
	if cfg == nil {
		s.logger.Warn("Leadership configuration absent, permission checks will fail closed")
	}

	byID := make(map[string]*entity.Department, len(depts))
	for _, d := range depts {
		byID[d.ID] = d
	}

	return &entity.DirectorySnapshot{
		Departments: byID,
		Leadership:  cfg,
	}, nil
}

// Resolver builds a permission resolver over a fresh snapshot
func (s *directoryServiceImpl) Resolver(ctx context.Context) (*permission.Resolver, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return permission.NewResolver(snap), nil
}
