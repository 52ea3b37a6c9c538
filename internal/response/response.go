package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/filatrack-backend/internal/apierr"
)

type APIError struct {
	Code int    `json:"code"`
	Info string `json:"info,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type DataEnvelope struct {
	Data any `json:"data"`
}

func Data(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, DataEnvelope{Data: payload})
}

func Err(c *gin.Context, err error) {
	ae := apierr.From(err)
	c.JSON(httpStatus(ae.Code), ErrorEnvelope{
		Error: APIError{
			Code: int(ae.Code),
			Info: ae.Info,
		},
	})
}

func AbortErr(c *gin.Context, err error) {
	ae := apierr.From(err)
	c.AbortWithStatusJSON(httpStatus(ae.Code), ErrorEnvelope{
		Error: APIError{
			Code: int(ae.Code),
			Info: ae.Info,
		},
	})
}

func httpStatus(code apierr.Code) int {
	switch code {
	case apierr.CodeNotFound:
		return http.StatusNotFound
	case apierr.CodeNotAuthenticated:
		return http.StatusUnauthorized
	case apierr.CodeNotAuthorized:
		return http.StatusForbidden
	case apierr.CodeInvalidField:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
