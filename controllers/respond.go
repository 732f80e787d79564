package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mindoroparts/pos-app/services"
	"github.com/mindoroparts/pos-app/utils"
)

// respondServiceError maps a service error classification to an HTTP
// status. Transaction failures stay opaque to the client.
func respondServiceError(c *gin.Context, err error) {
	switch services.KindOf(err) {
	case services.KindNotFound:
		utils.RespondError(c, http.StatusNotFound, err)
	case services.KindValidation, services.KindInsufficientStock:
		utils.RespondError(c, http.StatusBadRequest, err)
	default:
		utils.ErrorLogger.Printf("internal error: %v", err)
		utils.RespondJSON(c, http.StatusInternalServerError, "internal server error", nil)
	}
}
