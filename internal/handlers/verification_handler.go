package handlers

import (
	"net/http"

	"studwork_backend/internal/services"
	"studwork_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

// VerificationHandler is the subject-facing surface: submit your own
// verification and read your own status and audit trail.
type VerificationHandler struct {
	*BaseHandler
	verificationService services.VerificationService
}

func NewVerificationHandler(base *BaseHandler, verificationService services.VerificationService) *VerificationHandler {
	return &VerificationHandler{
		BaseHandler:         base,
		verificationService: verificationService,
	}
}

func (h *VerificationHandler) Submit(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.SubmitVerificationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	status, err := h.verificationService.Submit(c.Request.Context(), userID, &req, requestMeta(c, userID))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, status)
}

func (h *VerificationHandler) Status(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	status, err := h.verificationService.Status(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *VerificationHandler) MyAuditTrail(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	page, pageSize := ParsePagination(c)
	trail, err := h.verificationService.AuditTrail(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, trail)
}

// requestMeta captures who acted and from where for the audit entry.
func requestMeta(c *gin.Context, actorID string) dto.RequestMeta {
	return dto.RequestMeta{
		ActorID:   actorID,
		IPAddress: c.ClientIP(),
		ClientID:  c.GetHeader("X-Client-ID"),
	}
}
