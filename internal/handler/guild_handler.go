package handler

import (
	"github.com/gin-gonic/gin"

	"keybot/keyhub/internal/model"
	"keybot/keyhub/internal/service"
	"keybot/keyhub/pkg/response"
)

type GuildHandler struct {
	guildService service.GuildService
	keyService   service.KeyService
}

func NewGuildHandler(guildService service.GuildService, keyService service.KeyService) *GuildHandler {
	return &GuildHandler{guildService: guildService, keyService: keyService}
}

type PlatformCount struct {
	Platform model.Platform `json:"platform"`
	Count    int            `json:"count"`
}

// GuildTitle is one line of the guild listing. Codes stay with their owners.
type GuildTitle struct {
	Title     string          `json:"title"`
	Platforms []PlatformCount `json:"platforms"`
}

// RequireMembership lets only members of :guild_id through.
func (h *GuildHandler) RequireMembership(c *gin.Context) {
	memberID, err := getMemberIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid member context")
		c.Abort()
		return
	}

	member, err := h.guildService.IsMember(c.Request.Context(), memberID, c.Param("guild_id"))
	if err != nil {
		writeServiceError(c, err, "check guild membership failed")
		c.Abort()
		return
	}
	if !member {
		response.Forbidden(c, "not a member of this guild")
		c.Abort()
		return
	}
	c.Next()
}

func (h *GuildHandler) Join(c *gin.Context) {
	memberID, err := getMemberIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid member context")
		return
	}

	if err := h.guildService.JoinGuild(c.Request.Context(), memberID, c.Param("guild_id")); err != nil {
		writeServiceError(c, err, "join guild failed")
		return
	}
	response.Success(c, nil)
}

func (h *GuildHandler) Leave(c *gin.Context) {
	memberID, err := getMemberIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid member context")
		return
	}

	if err := h.guildService.LeaveGuild(c.Request.Context(), memberID, c.Param("guild_id")); err != nil {
		writeServiceError(c, err, "leave guild failed")
		return
	}
	response.Success(c, nil)
}

func (h *GuildHandler) ListMembers(c *gin.Context) {
	members, err := h.guildService.ListMembers(c.Request.Context(), c.Param("guild_id"))
	if err != nil {
		writeServiceError(c, err, "list members failed")
		return
	}
	response.Success(c, members)
}

func (h *GuildHandler) ListKeys(c *gin.Context) {
	groups, err := h.keyService.ListKeys(c.Request.Context(), c.Param("guild_id"), service.TargetGuild)
	if err != nil {
		writeServiceError(c, err, "list guild keys failed")
		return
	}
	response.Success(c, summarize(groups))
}

// summarize counts keys per platform; groups arrive sorted by title, then platform.
func summarize(groups []service.TitleKeys) []GuildTitle {
	out := make([]GuildTitle, 0, len(groups))
	for _, g := range groups {
		line := GuildTitle{Title: g.Title.Name, Platforms: []PlatformCount{}}
		for _, k := range g.Keys {
			n := len(line.Platforms)
			if n == 0 || line.Platforms[n-1].Platform != k.Platform {
				line.Platforms = append(line.Platforms, PlatformCount{Platform: k.Platform})
				n++
			}
			line.Platforms[n-1].Count++
		}
		out = append(out, line)
	}
	return out
}
