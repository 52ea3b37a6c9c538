package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/filatrack-backend/internal/apierr"
	"github.com/yungbote/filatrack-backend/internal/response"
	"github.com/yungbote/filatrack-backend/internal/services"
)

type FilamentHandler struct {
	filamentService services.FilamentService
}

func NewFilamentHandler(filamentService services.FilamentService) *FilamentHandler {
	return &FilamentHandler{filamentService: filamentService}
}

func (fh *FilamentHandler) GetAll(c *gin.Context) {
	filaments, err := fh.filamentService.GetAll(c.Request.Context())
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, filaments)
}

func (fh *FilamentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Err(c, apierr.InvalidField("Invalid filament id"))
		return
	}
	filament, err := fh.filamentService.Get(c.Request.Context(), id)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, filament)
}

func (fh *FilamentHandler) GetByShortID(c *gin.Context) {
	filament, err := fh.filamentService.GetByShortID(c.Request.Context(), c.Param("shortId"))
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, filament)
}

// GetByBox lists one ordering scope: ?box_id=<uuid> for a box, no param for
// the unboxed list.
func (fh *FilamentHandler) GetByBox(c *gin.Context) {
	var boxID *uuid.UUID
	if raw := c.Query("box_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			response.Err(c, apierr.InvalidField("Invalid box id"))
			return
		}
		boxID = &parsed
	}
	filaments, err := fh.filamentService.GetByBox(c.Request.Context(), boxID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, filaments)
}

func (fh *FilamentHandler) Create(c *gin.Context) {
	var req services.CreateFilamentParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apierr.InvalidField("Invalid request body"))
		return
	}
	filament, err := fh.filamentService.Create(c.Request.Context(), req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, filament)
}

func (fh *FilamentHandler) Edit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Err(c, apierr.InvalidField("Invalid filament id"))
		return
	}
	var req services.EditFilamentParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apierr.InvalidField("Invalid request body"))
		return
	}
	filament, err := fh.filamentService.Edit(c.Request.Context(), id, req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, filament)
}

func (fh *FilamentHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Err(c, apierr.InvalidField("Invalid filament id"))
		return
	}
	if err := fh.filamentService.Delete(c.Request.Context(), id); err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, gin.H{"deleted": id})
}

func (fh *FilamentHandler) LogUsage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Err(c, apierr.InvalidField("Invalid filament id"))
		return
	}
	var req struct {
		FilamentUsed int     `json:"filament_used"`
		Note         *string `json:"note,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apierr.InvalidField("Invalid request body"))
		return
	}
	logEntry, err := fh.filamentService.LogUsage(c.Request.Context(), id, req.FilamentUsed, req.Note)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, logEntry)
}

func (fh *FilamentHandler) GetLogs(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Err(c, apierr.InvalidField("Invalid filament id"))
		return
	}
	logs, err := fh.filamentService.GetLogs(c.Request.Context(), id)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, logs)
}

func (fh *FilamentHandler) Reorder(c *gin.Context) {
	var req struct {
		BoxID      *uuid.UUID  `json:"box_id,omitempty"`
		OrderedIDs []uuid.UUID `json:"ordered_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apierr.InvalidField("Invalid request body"))
		return
	}
	filaments, err := fh.filamentService.Reorder(c.Request.Context(), req.BoxID, req.OrderedIDs)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, filaments)
}
