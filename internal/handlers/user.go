package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/filatrack-backend/internal/apierr"
	"github.com/yungbote/filatrack-backend/internal/response"
	"github.com/yungbote/filatrack-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
	user, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, user)
}

func (uh *UserHandler) EditMe(c *gin.Context) {
	var req services.EditUserParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apierr.InvalidField("Invalid request body"))
		return
	}
	user, err := uh.userService.EditMe(c.Request.Context(), req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, user)
}

func (uh *UserHandler) DeleteMe(c *gin.Context) {
	if err := uh.userService.DeleteMe(c.Request.Context()); err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, gin.H{"deleted": true})
}
