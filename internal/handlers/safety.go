package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/samber/lo"

	"neighborhub/internal/apperr"
	"neighborhub/internal/models"
	"neighborhub/internal/repositories"
	"neighborhub/internal/services"
	"neighborhub/internal/telemetry"
)

// SafetyHandler serves neighborhood safety reports.
type SafetyHandler struct {
	auditor
	reports  repositories.SafetyRepository
	users    repositories.UserRepository
	notifier services.Notifier
	now      func() time.Time
}

// NewSafetyHandler constructs a SafetyHandler.
func NewSafetyHandler(reports repositories.SafetyRepository, users repositories.UserRepository, notifier services.Notifier, audit *telemetry.AuditEmitter) *SafetyHandler {
	return &SafetyHandler{
		auditor:  auditor{audit: audit},
		reports:  reports,
		users:    users,
		notifier: notifier,
		now:      time.Now,
	}
}

// ListReports handles GET /api/safety/reports.
func (h *SafetyHandler) ListReports(c *gin.Context) {
	limit, offset := parsePage(c)
	reports, err := h.reports.List(c.Request.Context(), models.SafetyFilter{
		NeighborhoodID: neighborhoodIDFromContext(c),
		Type:           c.Query("type"),
		Severity:       c.Query("severity"),
		Status:         c.Query("status"),
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		respondError(c, "list safety reports", err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(reports, func(r models.SafetyReport, _ int) models.SafetyReport {
		return r.Redacted()
	}))
}

// GetReport handles GET /api/safety/reports/:id.
func (h *SafetyHandler) GetReport(c *gin.Context) {
	report, ok := h.loadReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report.Redacted())
}

// CreateReport handles POST /api/safety/reports. Only verified residents may report.
func (h *SafetyHandler) CreateReport(c *gin.Context) {
	var req struct {
		Title              string     `json:"title" binding:"notblank,max=200"`
		Description        string     `json:"description" binding:"notblank,max=2000"`
		Type               string     `json:"type" binding:"required,oneof=crime suspicious-activity lost-pet found-pet weather-alert road-closure utility-outage emergency other"`
		Severity           string     `json:"severity" binding:"omitempty,oneof=low medium high critical"`
		Address            string     `json:"address" binding:"max=300"`
		Latitude           float64    `json:"lat" binding:"min=-90,max=90"`
		Longitude          float64    `json:"lng" binding:"min=-180,max=180"`
		IsAnonymous        bool       `json:"isAnonymous"`
		IncidentAt         *time.Time `json:"incidentDateTime"`
		PoliceReported     bool       `json:"policeReported"`
		PoliceReportNumber string     `json:"policeReportNumber" binding:"max=50"`
		Tags               []string   `json:"tags" binding:"omitempty,max=10,dive,max=30"`
		Images             []string   `json:"images" binding:"omitempty,max=5"`
	}
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	reporter, err := h.users.GetByID(ctx, userIDFromContext(c))
	if err != nil {
		respondError(c, "load reporter", err)
		return
	}
	if !reporter.IsVerified {
		respondError(c, "create safety report", apperr.AccessDenied("only verified users can create safety reports"))
		return
	}

	if req.Severity == "" {
		req.Severity = "medium"
	}
	incidentAt := h.now().UTC()
	if req.IncidentAt != nil {
		incidentAt = req.IncidentAt.UTC()
	}

	report, err := h.reports.Create(ctx, models.SafetyReport{
		ID:                 uuid.NewString(),
		Title:              strings.TrimSpace(req.Title),
		Description:        strings.TrimSpace(req.Description),
		Type:               req.Type,
		Severity:           req.Severity,
		Status:             "active",
		Address:            strings.TrimSpace(req.Address),
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		ReporterID:         reporter.ID,
		NeighborhoodID:     reporter.NeighborhoodID,
		IsAnonymous:        req.IsAnonymous,
		PoliceReported:     req.PoliceReported,
		PoliceReportNumber: req.PoliceReportNumber,
		IncidentAt:         incidentAt,
		Tags:               pq.StringArray(normalizeTags(req.Tags)),
		Images:             pq.StringArray(req.Images),
	})
	if err != nil {
		respondError(c, "create safety report", err)
		return
	}

	redacted := report.Redacted()
	if h.notifier != nil {
		h.notifier.BroadcastToNeighborhood(report.NeighborhoodID, models.EventSafetyAlert, redacted)
	}
	h.emitAudit(c, "INFO", "safety.create_report", report.ID)
	c.JSON(http.StatusCreated, redacted)
}

// Acknowledge handles POST /api/safety/reports/:id/acknowledge. Repeats are no-ops.
func (h *SafetyHandler) Acknowledge(c *gin.Context) {
	report, ok := h.loadReport(c)
	if !ok {
		return
	}
	count, err := h.reports.Acknowledge(c.Request.Context(), report.ID, userIDFromContext(c))
	if err != nil {
		respondError(c, "acknowledge report", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"acknowledgedCount": count})
}

// UpdateStatus handles PATCH /api/safety/reports/:id/status.
func (h *SafetyHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required,oneof=active resolved investigating false-alarm"`
	}
	if !bindJSON(c, &req) {
		return
	}

	report, ok := h.loadReport(c)
	if !ok {
		return
	}

	if !h.authorize(c, "update report status", report, models.User.CanModerate) {
		return
	}

	updated, err := h.reports.UpdateStatus(c.Request.Context(), report.ID, req.Status)
	if err != nil {
		respondError(c, "update report status", err)
		return
	}

	h.emitAudit(c, "INFO", "safety.update_status", updated.ID)
	c.JSON(http.StatusOK, updated.Redacted())
}

// UpdateReport handles PUT /api/safety/reports/:id. The reporter and
// moderators may edit.
func (h *SafetyHandler) UpdateReport(c *gin.Context) {
	var req struct {
		Title              *string  `json:"title" binding:"omitempty,notblank,max=200"`
		Description        *string  `json:"description" binding:"omitempty,notblank,max=2000"`
		Status             *string  `json:"status" binding:"omitempty,oneof=active resolved investigating false-alarm"`
		Tags               []string `json:"tags" binding:"omitempty,max=10,dive,max=30"`
		PoliceReported     *bool    `json:"policeReported"`
		PoliceReportNumber *string  `json:"policeReportNumber" binding:"omitempty,max=50"`
	}
	if !bindJSON(c, &req) {
		return
	}

	report, ok := h.loadReport(c)
	if !ok {
		return
	}
	if !h.authorize(c, "update safety report", report, models.User.CanModerate) {
		return
	}

	upd := models.SafetyReportUpdate{
		Title:              trimPtr(req.Title),
		Description:        trimPtr(req.Description),
		Status:             req.Status,
		PoliceReported:     req.PoliceReported,
		PoliceReportNumber: trimPtr(req.PoliceReportNumber),
	}
	if req.Tags != nil {
		upd.Tags = normalizeTags(req.Tags)
	}
	updated, err := h.reports.Update(c.Request.Context(), report.ID, upd)
	if err != nil {
		respondError(c, "update safety report", err)
		return
	}

	h.emitAudit(c, "INFO", "safety.update_report", updated.ID)
	c.JSON(http.StatusOK, updated.Redacted())
}

// ListComments handles GET /api/safety/reports/:id/comments.
func (h *SafetyHandler) ListComments(c *gin.Context) {
	report, ok := h.loadReport(c)
	if !ok {
		return
	}
	comments, err := h.reports.ListComments(c.Request.Context(), report.ID)
	if err != nil {
		respondError(c, "list safety comments", err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(comments, func(cm models.SafetyComment, _ int) models.SafetyComment {
		return cm.Redacted()
	}))
}

// AddComment handles POST /api/safety/reports/:id/comments.
func (h *SafetyHandler) AddComment(c *gin.Context) {
	var req struct {
		Content     string `json:"content" binding:"notblank,max=500"`
		IsAnonymous bool   `json:"isAnonymous"`
	}
	if !bindJSON(c, &req) {
		return
	}

	report, ok := h.loadReport(c)
	if !ok {
		return
	}
	comment, err := h.reports.AddComment(c.Request.Context(), models.SafetyComment{
		ID:          uuid.NewString(),
		ReportID:    report.ID,
		AuthorID:    userIDFromContext(c),
		Content:     strings.TrimSpace(req.Content),
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		respondError(c, "add safety comment", err)
		return
	}

	h.emitAudit(c, "INFO", "safety.add_comment", report.ID)
	c.JSON(http.StatusCreated, comment.Redacted())
}

// Verify handles POST /api/safety/reports/:id/verify. Moderators toggle the
// verified flag; the verifier is recorded while it is set.
func (h *SafetyHandler) Verify(c *gin.Context) {
	report, ok := h.loadReport(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	caller, err := h.users.GetByID(ctx, userIDFromContext(c))
	if err != nil {
		respondError(c, "load caller", err)
		return
	}
	if !caller.CanModerate() {
		respondError(c, "verify safety report", apperr.AccessDenied("only moderators can verify reports"))
		return
	}

	updated, err := h.reports.ToggleVerified(ctx, report.ID, caller.ID)
	if err != nil {
		respondError(c, "verify safety report", err)
		return
	}

	h.emitAudit(c, "INFO", "safety.verify_report", updated.ID)
	c.JSON(http.StatusOK, updated.Redacted())
}

// Stats handles GET /api/safety/stats?timeframe=<days>.
func (h *SafetyHandler) Stats(c *gin.Context) {
	days := 30
	if raw := c.Query("timeframe"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 365 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "timeframe must be between 1 and 365 days"})
			return
		}
		days = n
	}

	since := h.now().UTC().AddDate(0, 0, -days)
	stats, err := h.reports.Stats(c.Request.Context(), neighborhoodIDFromContext(c), since)
	if err != nil {
		respondError(c, "safety stats", err)
		return
	}
	stats.TimeframeDays = days
	c.JSON(http.StatusOK, stats)
}

// DeleteReport handles DELETE /api/safety/reports/:id. The reporter and
// admins may delete.
func (h *SafetyHandler) DeleteReport(c *gin.Context) {
	report, ok := h.loadReport(c)
	if !ok {
		return
	}
	if !h.authorize(c, "delete safety report", report, models.User.IsAdmin) {
		return
	}

	if err := h.reports.Delete(c.Request.Context(), report.ID); err != nil {
		respondError(c, "delete safety report", err)
		return
	}

	h.emitAudit(c, "WARN", "safety.delete_report", report.ID)
	c.JSON(http.StatusOK, gin.H{"message": "report deleted"})
}

// authorize lets the reporter through and otherwise requires permit to
// hold for the caller. It answers the request when access is refused.
func (h *SafetyHandler) authorize(c *gin.Context, op string, report models.SafetyReport, permit func(models.User) bool) bool {
	caller := userIDFromContext(c)
	if report.ReporterID == caller {
		return true
	}
	user, err := h.users.GetByID(c.Request.Context(), caller)
	if err != nil {
		respondError(c, "load caller", err)
		return false
	}
	if !permit(user) {
		respondError(c, op, apperr.AccessDenied("not allowed to change this report"))
		return false
	}
	return true
}

func (h *SafetyHandler) loadReport(c *gin.Context) (models.SafetyReport, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return models.SafetyReport{}, false
	}
	report, err := h.reports.Get(c.Request.Context(), id)
	if err == nil && report.NeighborhoodID != neighborhoodIDFromContext(c) {
		err = repositories.ErrReportNotFound
	}
	if err != nil {
		respondError(c, "get safety report", err)
		return models.SafetyReport{}, false
	}
	return report, true
}
