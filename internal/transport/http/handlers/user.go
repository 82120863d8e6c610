package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/neuroquarkk/authify/internal/core/domain"
	"github.com/neuroquarkk/authify/internal/transport/http/middleware"
	"github.com/neuroquarkk/authify/internal/usecase"
)

// UserHandler exposes the authenticated account surface.
type UserHandler struct {
	users *usecase.UserService
	audit *usecase.AuditService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *usecase.UserService, audit *usecase.AuditService) *UserHandler {
	return &UserHandler{users: users, audit: audit}
}

// RegisterRoutes binds the account routes. The group must already carry the
// auth guard.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", h.profile)
	r.PATCH("/me/settings", h.updateSettings)
	r.DELETE("/me", h.deleteAccount)
	r.GET("/me/audit-logs", h.auditLogs)
}

func (h *UserHandler) profile(c *gin.Context) {
	userID, ok := middleware.AuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	user, err := h.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "profile lookup failed")
		return
	}

	c.JSON(http.StatusOK, newUserSummary(*user))
}

func (h *UserHandler) updateSettings(c *gin.Context) {
	userID, ok := middleware.AuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid settings payload"))
		return
	}

	settings := domain.UserSettings{IsTwoFactorEnabled: req.IsTwoFactorEnabled}
	user, err := h.users.UpdateSettings(c.Request.Context(), userID, settings)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "settings update failed")
		return
	}

	c.JSON(http.StatusOK, newUserSummary(*user))
}

func (h *UserHandler) deleteAccount(c *gin.Context) {
	userID, ok := middleware.AuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	if err := h.users.DeleteAccount(c.Request.Context(), userID, req.Password); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "password is incorrect"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "account deletion failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "account deleted"})
}

func (h *UserHandler) auditLogs(c *gin.Context) {
	userID, ok := middleware.AuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.audit.ListForUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "audit trail lookup failed"))
		return
	}

	entries := make([]AuditEntryView, 0, len(result.Entries))
	for _, entry := range result.Entries {
		entries = append(entries, AuditEntryView{
			ID:        entry.ID,
			Action:    string(entry.Action),
			CreatedAt: entry.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, AuditPageResponse{
		Entries:   entries,
		Total:     result.Total,
		Page:      result.Page,
		PageCount: result.PageCount,
		Limit:     result.Limit,
	})
}
