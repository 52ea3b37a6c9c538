package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/filatrack-backend/internal/apierr"
	"github.com/yungbote/filatrack-backend/internal/response"
	"github.com/yungbote/filatrack-backend/internal/services"
)

type BoxHandler struct {
	boxService services.BoxService
}

func NewBoxHandler(boxService services.BoxService) *BoxHandler {
	return &BoxHandler{boxService: boxService}
}

func (bh *BoxHandler) GetAll(c *gin.Context) {
	boxes, err := bh.boxService.GetAll(c.Request.Context())
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, boxes)
}

func (bh *BoxHandler) Get(c *gin.Context) {
	boxID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Err(c, apierr.InvalidField("Invalid box id"))
		return
	}
	box, err := bh.boxService.Get(c.Request.Context(), boxID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, box)
}

func (bh *BoxHandler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apierr.InvalidField("Invalid request body"))
		return
	}
	box, err := bh.boxService.Create(c.Request.Context(), req.Name)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, box)
}

func (bh *BoxHandler) Edit(c *gin.Context) {
	boxID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Err(c, apierr.InvalidField("Invalid box id"))
		return
	}
	var req struct {
		Name *string `json:"name,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apierr.InvalidField("Invalid request body"))
		return
	}
	box, err := bh.boxService.Edit(c.Request.Context(), boxID, req.Name)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, box)
}

func (bh *BoxHandler) Delete(c *gin.Context) {
	boxID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Err(c, apierr.InvalidField("Invalid box id"))
		return
	}
	if err := bh.boxService.Delete(c.Request.Context(), boxID); err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, gin.H{"deleted": boxID})
}

func (bh *BoxHandler) AddFilament(c *gin.Context) {
	boxID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Err(c, apierr.InvalidField("Invalid box id"))
		return
	}
	var req struct {
		FilamentID  *uuid.UUID  `json:"filament_id,omitempty"`
		FilamentIDs []uuid.UUID `json:"filament_ids,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apierr.InvalidField("Invalid request body"))
		return
	}
	ids := req.FilamentIDs
	if req.FilamentID != nil {
		ids = append(ids, *req.FilamentID)
	}
	result, err := bh.boxService.AddFilaments(c.Request.Context(), boxID, ids)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, result)
}

func (bh *BoxHandler) RemoveFilament(c *gin.Context) {
	boxID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Err(c, apierr.InvalidField("Invalid box id"))
		return
	}
	var req struct {
		FilamentID  *uuid.UUID  `json:"filament_id,omitempty"`
		FilamentIDs []uuid.UUID `json:"filament_ids,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apierr.InvalidField("Invalid request body"))
		return
	}
	ids := req.FilamentIDs
	if req.FilamentID != nil {
		ids = append(ids, *req.FilamentID)
	}
	result, err := bh.boxService.RemoveFilaments(c.Request.Context(), boxID, ids)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, result)
}

func (bh *BoxHandler) Reorder(c *gin.Context) {
	var req struct {
		OrderedIDs []uuid.UUID `json:"ordered_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apierr.InvalidField("Invalid request body"))
		return
	}
	boxes, err := bh.boxService.Reorder(c.Request.Context(), req.OrderedIDs)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, boxes)
}
