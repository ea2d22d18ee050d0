package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sadiqmanga/voucher-system/internal/application/service"
	"github.com/Sadiqmanga/voucher-system/internal/domain/entity"
	"github.com/Sadiqmanga/voucher-system/internal/domain/workflow"
	"github.com/Sadiqmanga/voucher-system/internal/render"
)

// Handlers bundles the route handlers and their service dependencies
type Handlers struct {
	vouchers service.VoucherService
	users    service.UserService
	activity service.ActivityService
	reporter *render.ExcelReporter
	logger   Logger
}

// NewHandlers creates the handler set
func NewHandlers(
	vouchers service.VoucherService,
	users service.UserService,
	activity service.ActivityService,
	reporter *render.ExcelReporter,
	logger Logger,
) *Handlers {
	return &Handlers{
		vouchers: vouchers,
		users:    users,
		activity: activity,
		reporter: reporter,
		logger:   logger,
	}
}

// HealthCheck reports service liveness
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// --- Vouchers ---

type createVoucherRequest struct {
	VoucherNumber string          `json:"voucher_number"`
	Payload       json.RawMessage `json:"payload"`
}

// CreateVoucher handles POST /api/vouchers
func (h *Handlers) CreateVoucher(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown actor"})
		return
	}

	var req createVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	voucher, err := h.vouchers.Create(c.Request.Context(), actor, req.VoucherNumber, req.Payload)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, voucher)
}

// ListVouchers handles GET /api/vouchers, scoped to the actor's role
func (h *Handlers) ListVouchers(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown actor"})
		return
	}

	vouchers, err := h.vouchers.ListForActor(c.Request.Context(), actor)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vouchers": vouchers, "count": len(vouchers)})
}

// GetVoucher handles GET /api/vouchers/:id
func (h *Handlers) GetVoucher(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid voucher id"})
		return
	}

	voucher, err := h.vouchers.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, voucher)
}

// DownloadVoucherDocument streams a single voucher rendered as a workbook
func (h *Handlers) DownloadVoucherDocument(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid voucher id"})
		return
	}

	voucher, err := h.vouchers.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.reporter.WriteVoucherDocument(&buf, voucher); err != nil {
		h.logger.Error("Failed to render voucher document", "voucher_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate document"})
		return
	}

	filename := fmt.Sprintf("voucher_%s.xlsx", voucher.VoucherNumber)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// NextVoucherNumber handles GET /api/vouchers/next-number
func (h *Handlers) NextVoucherNumber(c *gin.Context) {
	number, err := h.vouchers.NextVoucherNumber(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"voucher_number": number})
}

// ListUploaders handles GET /api/vouchers/uploaders, used by the GM when
// assigning a verified voucher.
func (h *Handlers) ListUploaders(c *gin.Context) {
	uploaders, err := h.users.ListUploaders(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"uploaders": uploaders})
}

type gmActionRequest struct {
	Verdict    string `json:"verdict" binding:"required"`
	UploaderID *int64 `json:"uploader_id"`
}

// GMAction handles PATCH /api/vouchers/:id/gm-action
func (h *Handlers) GMAction(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown actor"})
		return
	}

	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid voucher id"})
		return
	}

	var req gmActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "verdict is required"})
		return
	}

	voucher, err := h.vouchers.GMAction(c.Request.Context(), actor, id, req.Verdict, req.UploaderID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, voucher)
}

type uploaderActionRequest struct {
	Verdict string `json:"verdict" binding:"required"`
}

// UploaderAction handles PATCH /api/vouchers/:id/uploader-action
func (h *Handlers) UploaderAction(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown actor"})
		return
	}

	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid voucher id"})
		return
	}

	var req uploaderActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "verdict is required"})
		return
	}

	voucher, err := h.vouchers.UploaderAction(c.Request.Context(), actor, id, req.Verdict)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, voucher)
}

// --- Reports ---

// DownloadReport handles GET /api/reports/download/:status and streams
// an xlsx workbook scoped to the actor's role.
func (h *Handlers) DownloadReport(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown actor"})
		return
	}

	status := c.Param("status")

	vouchers, err := h.vouchers.Report(c.Request.Context(), actor, status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.reporter.WriteReport(&buf, vouchers, status); err != nil {
		h.logger.Error("Failed to render report", "status", status, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate report"})
		return
	}

	filename := fmt.Sprintf("vouchers_%s_%s.xlsx", status, time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// --- Activity logs ---

// RecentLogs handles GET /api/logs
func (h *Handlers) RecentLogs(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	logs, err := h.activity.RecentLogs(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

// WeeklyLogs handles GET /api/logs/weekly
func (h *Handlers) WeeklyLogs(c *gin.Context) {
	logs, err := h.activity.WeeklyLogs(c.Request.Context(), time.Now())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

// LogsInRange handles GET /api/logs/range?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handlers) LogsInRange(c *gin.Context) {
	start, err := time.Parse("2006-01-02", c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start date is required (YYYY-MM-DD)"})
		return
	}
	end, err := time.Parse("2006-01-02", c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end date is required (YYYY-MM-DD)"})
		return
	}

	// Extend end to the last instant of that day so the range is inclusive.
	end = end.Add(24*time.Hour - time.Nanosecond)

	logs, err := h.activity.LogsInRange(c.Request.Context(), start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

// --- Users ---

// ListUsers handles GET /api/users
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// GetUser handles GET /api/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// CreateUser handles POST /api/users
func (h *Handlers) CreateUser(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown actor"})
		return
	}

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.users.Create(c.Request.Context(), actor, &entity.User{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     workflow.Role(req.Role),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

type updateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// UpdateUser handles PATCH /api/users/:id
func (h *Handlers) UpdateUser(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown actor"})
		return
	}

	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.users.Update(c.Request.Context(), actor, id, req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /api/users/:id
func (h *Handlers) DeleteUser(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown actor"})
		return
	}

	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.users.Delete(c.Request.Context(), actor, id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// --- Helpers ---

func pathID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// respondError maps domain errors to HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Unhandled request error", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
