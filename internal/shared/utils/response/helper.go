package response

import (
	"tripline/internal/shared/apperr"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError maps an error from the service layer onto the taxonomy-driven
// HTTP status carried by apperr.
func RespondError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	RespondJSON(c, "error", appErr.HTTPStatus, appErr.Message, nil, gin.H{
		"code":    appErr.Code,
		"details": appErr.Details,
	})
}
