package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/filatrack-backend/internal/apierr"
	"github.com/yungbote/filatrack-backend/internal/response"
	"github.com/yungbote/filatrack-backend/internal/services"
)

type PrintHandler struct {
	printService services.PrintService
}

func NewPrintHandler(printService services.PrintService) *PrintHandler {
	return &PrintHandler{printService: printService}
}

func (ph *PrintHandler) GetAll(c *gin.Context) {
	prints, err := ph.printService.GetAll(c.Request.Context())
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, prints)
}

func (ph *PrintHandler) Create(c *gin.Context) {
	var req services.CreatePrintParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apierr.InvalidField("Invalid request body"))
		return
	}
	created, err := ph.printService.Create(c.Request.Context(), req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, created)
}

func (ph *PrintHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Err(c, apierr.InvalidField("Invalid print id"))
		return
	}
	if err := ph.printService.Delete(c.Request.Context(), id); err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, gin.H{"deleted": id})
}
