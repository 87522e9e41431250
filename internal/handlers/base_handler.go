package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"studwork_backend/internal/kyc"
	"studwork_backend/internal/logger"
	"studwork_backend/internal/services"
	"studwork_backend/internal/validator"
	"studwork_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type BaseHandler struct {
	validator *validator.Validator
}

func NewBaseHandler(v *validator.Validator) *BaseHandler {
	return &BaseHandler{
		validator: v,
	}
}

func (h *BaseHandler) BindAndValidate_JSON(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBind(obj); err != nil {
		logger.CtxWarn(ctx, "Failed to bind JSON body", "error", err.Error(), "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request body: "+err.Error()))
		return false
	}

	if err := h.validator.Validate(obj); err != nil {
		if vErr, ok := err.(*validator.ValidationError); ok {
			logger.CtxWarn(ctx, "Validation failed", "errors", vErr.Errors, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
		} else {
			logger.CtxError(ctx, "Internal validator error", "error", err.Error(), "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.InternalError(err))
		}
		return false
	}
	return true
}

// HandleServiceError maps service sentinel errors to their HTTP shape and
// falls back to 500 for everything unclassified.
func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		logger.CtxWarn(ctx, "Service error", "error", appErr.Message, "path", c.Request.URL.Path)
		apperrors.HandleError(c, appErr)
		return
	}

	switch {
	case errors.Is(err, kyc.ErrInvalidTransition):
		apperrors.HandleError(c, apperrors.InvalidTransition(err, err.Error()))
	case errors.Is(err, kyc.ErrWriteConflict):
		apperrors.HandleError(c, apperrors.WriteConflict(err))
	case errors.Is(err, kyc.ErrReasonRequired),
		errors.Is(err, kyc.ErrSubjectTypeNotAllowed):
		apperrors.HandleError(c, apperrors.NewBadRequestError(err.Error()))
	case errors.Is(err, kyc.ErrUserNotFound),
		errors.Is(err, kyc.ErrRecordNotFound):
		apperrors.HandleError(c, apperrors.ErrNotFound(err))
	case errors.Is(err, kyc.ErrStoreUnavailable):
		logger.CtxError(ctx, "Storage unavailable", "error", err.Error(), "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.StoreUnavailable(err))
	case errors.Is(err, services.ErrEmailTaken):
		apperrors.HandleError(c, apperrors.ErrAlreadyExists(err))
	case errors.Is(err, services.ErrInvalidCredentials):
		apperrors.HandleError(c, apperrors.New(apperrors.CodeInvalidCredentials, "Invalid email or password", http.StatusUnauthorized))
	default:
		logger.CtxError(ctx, "Internal server error", "error", err.Error(), "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.InternalError(err))
	}
}

func (h *BaseHandler) GetAndAuthorizeUserID(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get("userID")
	if !exists {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
		return "", false
	}

	userIDStr, ok := userIDVal.(string)
	if !ok || userIDStr == "" {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Invalid user ID in context"))
		return "", false
	}

	return userIDStr, true
}

func ParseQueryInt(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func ParsePagination(c *gin.Context) (page int, pageSize int) {
	const defaultPage = 1
	const defaultPageSize = 20
	const maxPageSize = 100

	page = ParseQueryInt(c, "page", defaultPage)
	if page <= 0 {
		page = defaultPage
	}

	pageSize = ParseQueryInt(c, "page_size", defaultPageSize)
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return page, pageSize
}
