package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bachkhoacons/asset-approval/internal/application/port"
	"github.com/bachkhoacons/asset-approval/internal/application/service"
	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/bachkhoacons/asset-approval/internal/domain/workflow"
)

const actorContextKey = "actor"

// Handlers contains all HTTP request handlers
type Handlers struct {
	approvalService  service.ApprovalService
	transferService  service.TransferService
	requestService   service.RequestService
	reportService    service.ReportService
	directoryService service.DirectoryService
	auditLogs        port.AuditLogRepository
	leadership       port.LeadershipRepository
	hub              sseHub
	logger           *zap.Logger
}

// Response represents a standard JSON response
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SignRequestBody is the payload for signing a workflow step. The caller
// states what it believes the current status is; a stale belief comes back
// as a conflict, never as a silent double-advance.
type SignRequestBody struct {
	ExpectedStatus string `json:"expected_status" binding:"required"`
	SignatureKey   string `json:"signature_key" binding:"required"`
}

// RejectRequestBody is the payload for rejecting a request
type RejectRequestBody struct {
	Reason string `json:"reason"`
}

func actorFrom(c *gin.Context) *entity.Actor {
	v, ok := c.Get(actorContextKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*entity.Actor)
	return actor
}

// respondError maps domain errors to HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, workflow.ErrUnknownWorkflow):
		status = http.StatusBadRequest
	case errors.Is(err, workflow.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, workflow.ErrStateMismatch),
		errors.Is(err, workflow.ErrConflict),
		errors.Is(err, service.ErrInsufficientStock):
		status = http.StatusConflict
	case errors.Is(err, workflow.ErrConfigMissing):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(status, Response{Success: false, Error: "internal error"})
		return
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	approvalService service.ApprovalService,
	transferService service.TransferService,
	requestService service.RequestService,
	reportService service.ReportService,
	directoryService service.DirectoryService,
	auditLogs port.AuditLogRepository,
	leadership port.LeadershipRepository,
	hub sseHub,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		approvalService:  approvalService,
		transferService:  transferService,
		requestService:   requestService,
		reportService:    reportService,
		directoryService: directoryService,
		auditLogs:        auditLogs,
		leadership:       leadership,
		hub:              hub,
		logger:           logger,
	}
}

// Health handles the health check endpoint
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

// --- Transfers ---

// CreateTransferBody is the payload for creating a transfer slip
type CreateTransferBody struct {
	FromDeptID string                `json:"from_dept_id" binding:"required"`
	ToDeptID   string                `json:"to_dept_id" binding:"required"`
	BlockName  string                `json:"block_name"`
	Date       *time.Time            `json:"date"`
	Assets     []entity.TransferItem `json:"assets" binding:"required"`
}

func (h *Handlers) CreateTransfer(c *gin.Context) {
	var body CreateTransferBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	in := service.CreateTransferInput{
		FromDeptID: body.FromDeptID,
		ToDeptID:   body.ToDeptID,
		BlockName:  body.BlockName,
		Assets:     body.Assets,
	}
	if body.Date != nil {
		in.Date = *body.Date
	}

	t, err := h.transferService.Create(c.Request.Context(), in, actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: t})
}

func (h *Handlers) ListTransfers(c *gin.Context) {
	limit, offset := pagination(c)
	transfers, err := h.transferService.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: transfers})
}

func (h *Handlers) GetTransfer(c *gin.Context) {
	t, err := h.transferService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: t})
}

func (h *Handlers) SignTransfer(c *gin.Context) {
	var body SignRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	status, err := h.approvalService.AdvanceTransfer(
		c.Request.Context(),
		c.Param("id"),
		workflow.Status(body.ExpectedStatus),
		workflow.SignatureKey(body.SignatureKey),
		actorFrom(c),
	)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"status": status}})
}

func (h *Handlers) DeleteTransfer(c *gin.Context) {
	if err := h.transferService.Delete(c.Request.Context(), c.Param("id"), actorFrom(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// TransferPermissions returns what the acting user may do with one slip,
// mirroring the checks the sign and delete endpoints enforce
func (h *Handlers) TransferPermissions(c *gin.Context) {
	t, err := h.transferService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	resolver, err := h.directoryService.Resolver(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	actor := actorFrom(c)
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"can_sign_sender":   resolver.CanSignSender(actor, t),
		"can_sign_receiver": resolver.CanSignReceiver(actor, t),
		"can_sign_admin":    resolver.CanSignAdmin(actor, t),
		"is_my_turn":        resolver.IsMyTurn(actor, t),
		"can_delete":        resolver.CanDeleteTransfer(actor, t),
	}})
}

// --- Asset requests ---

// CreateRequestBody is the payload for creating an asset-change request
type CreateRequestBody struct {
	Type          string           `json:"type" binding:"required"`
	DepartmentID  string           `json:"department_id"`
	TargetAssetID string           `json:"target_asset_id"`
	AssetData     entity.AssetData `json:"asset_data"`
}

func (h *Handlers) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	req, err := h.requestService.Create(c.Request.Context(), service.CreateRequestInput{
		Type:          entity.RequestType(body.Type),
		DepartmentID:  body.DepartmentID,
		TargetAssetID: body.TargetAssetID,
		AssetData:     body.AssetData,
	}, actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

func (h *Handlers) ListRequests(c *gin.Context) {
	limit, offset := pagination(c)
	requests, err := h.requestService.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

func (h *Handlers) GetRequest(c *gin.Context) {
	req, err := h.requestService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

func (h *Handlers) SignRequest(c *gin.Context) {
	var body SignRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	status, err := h.approvalService.AdvanceRequest(
		c.Request.Context(),
		c.Param("id"),
		workflow.Status(body.ExpectedStatus),
		workflow.SignatureKey(body.SignatureKey),
		actorFrom(c),
	)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"status": status}})
}

func (h *Handlers) RejectRequest(c *gin.Context) {
	var body RejectRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	if err := h.approvalService.RejectRequest(c.Request.Context(), c.Param("id"), body.Reason, actorFrom(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

func (h *Handlers) DeleteRequest(c *gin.Context) {
	if err := h.requestService.Delete(c.Request.Context(), c.Param("id"), actorFrom(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

func (h *Handlers) RequestPermissions(c *gin.Context) {
	req, err := h.requestService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	resolver, err := h.directoryService.Resolver(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	actor := actorFrom(c)
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"can_process": resolver.CanProcessRequest(actor, req),
		"can_delete":  resolver.CanDeleteRequest(actor, req),
	}})
}

// --- Inventory reports ---

// CreateReportBody is the payload for creating an inventory report
type CreateReportBody struct {
	Title          string              `json:"title" binding:"required"`
	Type           string              `json:"type" binding:"required"`
	DepartmentID   string              `json:"department_id"`
	BlockName      string              `json:"block_name"`
	Assets         []entity.ReportItem `json:"assets"`
	SnapshotAssets bool                `json:"snapshot_assets"`
}

func (h *Handlers) CreateReport(c *gin.Context) {
	var body CreateReportBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	rep, err := h.reportService.Create(c.Request.Context(), service.CreateReportInput{
		Title:          body.Title,
		Type:           body.Type,
		DepartmentID:   body.DepartmentID,
		BlockName:      body.BlockName,
		Assets:         body.Assets,
		SnapshotAssets: body.SnapshotAssets,
	}, actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: rep})
}

func (h *Handlers) ListReports(c *gin.Context) {
	limit, offset := pagination(c)
	reports, err := h.reportService.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: reports})
}

func (h *Handlers) GetReport(c *gin.Context) {
	rep, err := h.reportService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: rep})
}

func (h *Handlers) SignReport(c *gin.Context) {
	var body SignRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	status, err := h.approvalService.AdvanceReport(
		c.Request.Context(),
		c.Param("id"),
		workflow.Status(body.ExpectedStatus),
		workflow.SignatureKey(body.SignatureKey),
		actorFrom(c),
	)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"status": status}})
}

func (h *Handlers) RejectReport(c *gin.Context) {
	if err := h.approvalService.RejectReport(c.Request.Context(), c.Param("id"), actorFrom(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

func (h *Handlers) DeleteReport(c *gin.Context) {
	if err := h.reportService.Delete(c.Request.Context(), c.Param("id"), actorFrom(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

func (h *Handlers) ReportPermissions(c *gin.Context) {
	rep, err := h.reportService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	resolver, err := h.directoryService.Resolver(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	actor := actorFrom(c)
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"can_process": resolver.CanProcessReport(actor, rep),
		"can_delete":  resolver.CanDeleteReport(actor, rep),
	}})
}

// --- Directory and configuration ---

func (h *Handlers) ListDepartments(c *gin.Context) {
	snap, err := h.directoryService.Snapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	departments := make([]*entity.Department, 0, len(snap.Departments))
	for _, d := range snap.Departments {
		departments = append(departments, d)
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: departments})
}

func (h *Handlers) ListAuditLogs(c *gin.Context) {
	targetType := c.Query("target_type")
	targetID := c.Query("target_id")
	if targetType == "" || targetID == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "target_type and target_id are required"})
		return
	}

	logs, err := h.auditLogs.ListByTarget(c.Request.Context(), targetType, targetID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: logs})
}

func (h *Handlers) GetLeadershipConfig(c *gin.Context) {
	cfg, err := h.leadership.Get(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: cfg})
}

// PutLeadershipConfig replaces the leadership configuration. Admin only.
func (h *Handlers) PutLeadershipConfig(c *gin.Context) {
	actor := actorFrom(c)
	if !actor.IsAdmin() {
		h.respondError(c, workflow.ErrUnauthorized)
		return
	}

	var cfg entity.LeadershipConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	if err := h.leadership.Put(c.Request.Context(), &cfg); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}
