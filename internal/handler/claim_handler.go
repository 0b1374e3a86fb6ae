package handler

import (
	"github.com/gin-gonic/gin"

	"keybot/keyhub/internal/model"
	"keybot/keyhub/internal/service"
	"keybot/keyhub/pkg/response"
)

type ClaimHandler struct {
	claimService service.ClaimService
}

func NewClaimHandler(claimService service.ClaimService) *ClaimHandler {
	return &ClaimHandler{claimService: claimService}
}

type ClaimRequest struct {
	Title    string `json:"title" binding:"required"`
	Platform string `json:"platform" binding:"required"`
}

func (h *ClaimHandler) Claim(c *gin.Context) {
	memberID, err := getMemberIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid member context")
		return
	}

	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	platform, err := model.ParsePlatform(req.Platform)
	if err != nil {
		response.BadRequest(c, invalidPlatformMessage(err))
		return
	}

	result, err := h.claimService.Claim(c.Request.Context(), memberID, req.Title, platform, c.Param("guild_id"))
	if err != nil {
		writeServiceError(c, err, "claim failed")
		return
	}
	response.Success(c, result)
}
