package handler

import (
	"strconv"
	"strings"

	"feels/backend/internal/social"

	"github.com/gin-gonic/gin"
)

// MessagePageResponse is one limit/offset window of a chat's messages.
type MessagePageResponse struct {
	Messages   []ChatMessageResponse `json:"messages"`
	Count      int                   `json:"count"`
	TotalCount int                   `json:"total_count"`
	HasMore    bool                  `json:"has_more"`
}

func newMessagePageResponse(page *social.MessagePage) MessagePageResponse {
	messages := make([]ChatMessageResponse, 0, len(page.Messages))
	for _, m := range page.Messages {
		messages = append(messages, newChatMessageResponse(m))
	}
	return MessagePageResponse{
		Messages:   messages,
		Count:      len(messages),
		TotalCount: page.TotalCount,
		HasMore:    page.HasMore,
	}
}

// parsePage reads the limit and offset query parameters. A missing limit
// means social.DefaultMessageLimit; larger limits are capped at
// social.MaxMessageLimit.
func parsePage(c *gin.Context) (social.Page, bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(social.DefaultMessageLimit)))
	if err != nil || limit < 0 {
		badRequest(c, "limit must be a non-negative integer")
		return social.Page{}, false
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		badRequest(c, "offset must be a non-negative integer")
		return social.Page{}, false
	}
	return social.Page{Limit: min(limit, social.MaxMessageLimit), Offset: offset}, true
}

// queryBool reports whether the query parameter is "true", ignoring case.
func queryBool(c *gin.Context, key string) bool {
	return strings.EqualFold(c.Query(key), "true")
}
