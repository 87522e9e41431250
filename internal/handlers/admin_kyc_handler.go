package handlers

import (
	"net/http"

	"studwork_backend/internal/models"
	"studwork_backend/internal/services"
	"studwork_backend/internal/services/dto"
	"studwork_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// AdminKycHandler is the review surface: the pending queue, the four review
// transitions, audit queries and the consistency tooling.
type AdminKycHandler struct {
	*BaseHandler
	verificationService   services.VerificationService
	reconciliationService services.ReconciliationService
}

func NewAdminKycHandler(
	base *BaseHandler,
	verificationService services.VerificationService,
	reconciliationService services.ReconciliationService,
) *AdminKycHandler {
	return &AdminKycHandler{
		BaseHandler:           base,
		verificationService:   verificationService,
		reconciliationService: reconciliationService,
	}
}

func (h *AdminKycHandler) PendingQueue(c *gin.Context) {
	page, pageSize := ParsePagination(c)

	queue, err := h.verificationService.PendingQueue(c.Request.Context(), page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, queue)
}

func (h *AdminKycHandler) Stats(c *gin.Context) {
	stats, err := h.verificationService.Stats(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *AdminKycHandler) Approve(c *gin.Context) {
	h.review(c, func(c *gin.Context, subjectID string, _ *dto.ReviewRequest, meta dto.RequestMeta) (interface{}, error) {
		return h.verificationService.Approve(c.Request.Context(), subjectID, meta)
	}, false)
}

func (h *AdminKycHandler) Reject(c *gin.Context) {
	h.review(c, func(c *gin.Context, subjectID string, req *dto.ReviewRequest, meta dto.RequestMeta) (interface{}, error) {
		return h.verificationService.Reject(c.Request.Context(), subjectID, req.Reason, meta)
	}, true)
}

func (h *AdminKycHandler) Suspend(c *gin.Context) {
	h.review(c, func(c *gin.Context, subjectID string, req *dto.ReviewRequest, meta dto.RequestMeta) (interface{}, error) {
		return h.verificationService.Suspend(c.Request.Context(), subjectID, req.Reason, meta)
	}, true)
}

func (h *AdminKycHandler) Reactivate(c *gin.Context) {
	h.review(c, func(c *gin.Context, subjectID string, _ *dto.ReviewRequest, meta dto.RequestMeta) (interface{}, error) {
		return h.verificationService.Reactivate(c.Request.Context(), subjectID, meta)
	}, false)
}

type reviewFunc func(c *gin.Context, subjectID string, req *dto.ReviewRequest, meta dto.RequestMeta) (interface{}, error)

// review factors the shared shape of the four admin transitions: resolve
// the subject, bind the optional body, run, return the new status.
func (h *AdminKycHandler) review(c *gin.Context, fn reviewFunc, bodyRequired bool) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	subjectID := c.Param("user_id")
	if subjectID == "" {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing required path parameter: user_id"))
		return
	}

	var req dto.ReviewRequest
	if bodyRequired {
		if !h.BindAndValidate_JSON(c, &req) {
			return
		}
	}

	status, err := fn(c, subjectID, &req, requestMeta(c, adminID))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *AdminKycHandler) AuditBySubject(c *gin.Context) {
	subjectID := c.Param("user_id")
	if subjectID == "" {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing required path parameter: user_id"))
		return
	}

	page, pageSize := ParsePagination(c)
	trail, err := h.verificationService.AuditTrail(c.Request.Context(), subjectID, page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, trail)
}

func (h *AdminKycHandler) AuditByActor(c *gin.Context) {
	actorID := c.Param("actor_id")
	if actorID == "" {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing required path parameter: actor_id"))
		return
	}

	page, pageSize := ParsePagination(c)
	trail, err := h.verificationService.AuditByActor(c.Request.Context(), actorID, page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, trail)
}

func (h *AdminKycHandler) AuditByAction(c *gin.Context) {
	action := models.AuditAction(c.Param("action"))
	if !action.Valid() {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Unknown audit action: "+string(action)))
		return
	}

	page, pageSize := ParsePagination(c)
	trail, err := h.verificationService.AuditByAction(c.Request.Context(), action, page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, trail)
}

// CheckConsistency reports drift between a subject's flags and their
// verification record without repairing anything.
func (h *AdminKycHandler) CheckConsistency(c *gin.Context) {
	subjectID := c.Param("user_id")
	if subjectID == "" {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing required path parameter: user_id"))
		return
	}

	mismatches, err := h.verificationService.CheckConsistency(c.Request.Context(), subjectID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":    subjectID,
		"consistent": len(mismatches) == 0,
		"mismatches": mismatches,
	})
}

// Reconcile runs a full reconciliation pass synchronously and returns its
// summary. The same pass runs periodically in the background worker.
func (h *AdminKycHandler) Reconcile(c *gin.Context) {
	summary, err := h.reconciliationService.Run(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
