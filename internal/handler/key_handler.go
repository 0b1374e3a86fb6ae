package handler

import (
	"github.com/gin-gonic/gin"

	"keybot/keyhub/internal/model"
	"keybot/keyhub/internal/service"
	"keybot/keyhub/pkg/response"
)

type KeyHandler struct {
	keyService service.KeyService
}

func NewKeyHandler(keyService service.KeyService) *KeyHandler {
	return &KeyHandler{keyService: keyService}
}

type RegisterKeyRequest struct {
	Title    string `json:"title" binding:"required"`
	Platform string `json:"platform"`
	Code     string `json:"code" binding:"required"`
}

type RemoveKeyRequest struct {
	Code string `json:"code" binding:"required"`
}

type ClassifyKeyRequest struct {
	Code string `json:"code" binding:"required"`
}

type ClassifyKeyResponse struct {
	Platform model.Platform `json:"platform"`
}

func (h *KeyHandler) Register(c *gin.Context) {
	memberID, err := getMemberIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid member context")
		return
	}

	var req RegisterKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	key, err := h.keyService.RegisterKey(c.Request.Context(), memberID, req.Title, req.Platform, req.Code)
	if err != nil {
		writeServiceError(c, err, "register key failed")
		return
	}
	response.Created(c, key)
}

func (h *KeyHandler) Remove(c *gin.Context) {
	memberID, err := getMemberIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid member context")
		return
	}

	var req RemoveKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	key, err := h.keyService.RemoveKey(c.Request.Context(), memberID, req.Code)
	if err != nil {
		writeServiceError(c, err, "remove key failed")
		return
	}
	response.Success(c, key)
}

// List returns the caller's own keys, codes included.
func (h *KeyHandler) List(c *gin.Context) {
	memberID, err := getMemberIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid member context")
		return
	}

	groups, err := h.keyService.ListKeys(c.Request.Context(), memberID, service.TargetMember)
	if err != nil {
		writeServiceError(c, err, "list keys failed")
		return
	}
	response.Success(c, groups)
}

func (h *KeyHandler) Classify(c *gin.Context) {
	var req ClassifyKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	platform, err := h.keyService.ClassifyKey(req.Code)
	if err != nil {
		writeServiceError(c, err, "classify key failed")
		return
	}
	response.Success(c, ClassifyKeyResponse{Platform: platform})
}
