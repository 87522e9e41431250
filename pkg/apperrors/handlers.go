package apperrors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleError writes an AppError (or a wrapped internal error) as the JSON
// response body and aborts the request.
func HandleError(c *gin.Context, err error) {
	var appErr *AppError
	if !As(err, &appErr) {
		appErr = InternalError(err)
	}

	status := appErr.HTTPCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.AbortWithStatusJSON(status, gin.H{"error": appErr})
}
