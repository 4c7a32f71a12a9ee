package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/service-booking/services"
	"github.com/yeremiapane/service-booking/utils"
)

const invalidDataMessage = "The given data was invalid."

// ErrNoPermission is returned when the caller's role does not allow the action.
var ErrNoPermission = &CustomError{"You do not have permission"}

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}

// respondServiceError maps a service error kind to the response envelope.
func respondServiceError(c *gin.Context, err error) {
	kind := services.KindOf(err)

	var svcErr *services.Error
	hasSvcErr := errors.As(err, &svcErr)

	switch kind {
	case services.KindValidation:
		fields := map[string]string{}
		if hasSvcErr && svcErr.Fields != nil {
			fields = svcErr.Fields
		}
		utils.RespondValidation(c, invalidDataMessage, fields)
	case services.KindInternal:
		utils.RespondInternalError(c, "Failed to process request", err)
	default:
		if hasSvcErr && svcErr.Path != "" {
			c.JSON(kind.HTTPStatus(), utils.JSONResponse{
				Status:  false,
				Message: err.Error(),
				Data:    gin.H{"path": svcErr.Path},
			})
			return
		}
		utils.RespondError(c, kind.HTTPStatus(), err)
	}
}

func respondBindError(c *gin.Context, err error) {
	utils.RespondValidation(c, invalidDataMessage, utils.ValidationErrors(err))
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusNotFound, errors.New("resource not found"))
		return 0, false
	}
	return uint(id), true
}
