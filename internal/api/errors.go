package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gprspc/internal/errors"
)

// StatusFor maps an error code to an HTTP status
func StatusFor(code string) int {
	switch code {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidInput, errors.CodeValidationError:
		return http.StatusBadRequest
	case errors.CodeUnsupportedConfidence, errors.CodeUnknownColumn, errors.CodeInsufficientData,
		errors.CodeMissingGammaTarget, errors.CodeUnknownMethod, errors.CodeDegenerateDistribution,
		errors.CodeDataSource:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := errors.CodeOf(err)
	status := StatusFor(code)
	if status == http.StatusInternalServerError {
		c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "code": errors.CodeInvalidInput})
}
