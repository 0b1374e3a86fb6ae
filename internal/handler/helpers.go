package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"keybot/keyhub/internal/handler/middleware"
	"keybot/keyhub/internal/keyformat"
	"keybot/keyhub/internal/model"
	"keybot/keyhub/internal/service"
	"keybot/keyhub/pkg/response"
)

var ErrNoClaims = errors.New("claims not found in context")

func getMemberIDFromContext(c *gin.Context) (string, error) {
	memberID := middleware.MemberID(c)
	if memberID == "" {
		return "", ErrNoClaims
	}
	return memberID, nil
}

// writeServiceError maps service errors onto the response envelope.
func writeServiceError(c *gin.Context, err error, fallback string) {
	var rejected *service.ClaimRejectedError
	switch {
	case errors.As(err, &rejected):
		if rejected.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(rejected.RetryAfter.Seconds()))))
		}
		response.ErrorWithData(c, http.StatusConflict, 409, err.Error(), gin.H{"reason": rejected.Reason})
	case errors.Is(err, model.ErrInvalidPlatform):
		response.BadRequest(c, invalidPlatformMessage(err))
	case errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, keyformat.ErrBadFormat):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrTitleNotFound),
		errors.Is(err, service.ErrKeyNotFound),
		errors.Is(err, service.ErrNotGuildMember):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrKeyExists),
		errors.Is(err, service.ErrAlreadyGuildMember):
		response.Conflict(c, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c, fallback)
	}
}

func invalidPlatformMessage(err error) string {
	names := make([]string, 0, len(model.Platforms()))
	for _, p := range model.Platforms() {
		names = append(names, p.String())
	}
	return err.Error() + ", expected one of: " + strings.Join(names, ", ")
}
