package handler

import (
	"database/sql"
	"net/http"
	"strconv"

	"pulse-chat/internal/services"
	"pulse-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConversationHandler struct {
	service *services.ChatService
}

func NewConversationHandler(service *services.ChatService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size < 1 {
		size = 20
	}
	return page, size
}

func (h *ConversationHandler) Create(c *gin.Context) {
	var req httpdto.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	creatorID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	participantIDs := make([]uuid.UUID, 0, len(req.Participants))
	for _, idStr := range req.Participants {
		id, err := uuid.Parse(idStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid participant id", "INVALID_REQUEST"))
			return
		}
		participantIDs = append(participantIDs, id)
	}

	conv, err := h.service.CreateConversation(c.Request.Context(), services.CreateConversationInput{
		Kind:           req.Kind,
		Name:           req.Name,
		Description:    req.Description,
		IsPrivate:      req.IsPrivate,
		MaxMembers:     req.MaxMembers,
		CreatorID:      creatorID,
		ParticipantIDs: participantIDs,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromConversation(conv)))
}

func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	page, size := pageParams(c)
	items, total, err := h.service.ListConversationsWithUnread(c.Request.Context(), userID, page, size)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListConversationsResponse{
		Conversations: httpdto.FromConversationWithUnreadSlice(items),
		PageInfo:      httpdto.PageInfo{Page: page, Size: size, Total: total},
	}))
}

func (h *ConversationHandler) GetByID(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}
	item, err := h.service.GetConversation(c.Request.Context(), conversationID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromConversation(item)))
}

func (h *ConversationHandler) Update(c *gin.Context) {
	var req httpdto.UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}

	existing, err := h.service.GetConversation(c.Request.Context(), conversationID)
	if err != nil {
		writeError(c, err)
		return
	}

	if req.Name != "" {
		existing.Name = sql.NullString{String: req.Name, Valid: true}
	}
	if req.Description != "" {
		existing.Description = sql.NullString{String: req.Description, Valid: true}
	}
	if req.IsPrivate != nil {
		existing.IsPrivate = *req.IsPrivate
	}
	if req.MaxMembers > 0 {
		existing.MaxMembers = sql.NullInt32{Int32: int32(req.MaxMembers), Valid: true}
	}

	if err := h.service.UpdateConversation(c.Request.Context(), existing); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromConversation(existing)))
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}
	if err := h.service.DeleteConversation(c.Request.Context(), conversationID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetDirect returns, creating if necessary, the one direct
// conversation between the caller and the :user_id participant.
func (h *ConversationHandler) GetDirect(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	otherID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "INVALID_REQUEST"))
		return
	}

	conv, err := h.service.GetOrCreateDirectConversation(c.Request.Context(), userID, otherID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromConversation(conv)))
}

func (h *ConversationHandler) AddMember(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}
	var req struct {
		UserID string `json:"user_id" binding:"required"`
		Role   string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	memberID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "INVALID_REQUEST"))
		return
	}

	if err := h.service.AddMember(c.Request.Context(), conversationID, memberID, req.Role); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConversationHandler) RemoveMember(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}
	memberID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "INVALID_REQUEST"))
		return
	}

	if err := h.service.RemoveMember(c.Request.Context(), conversationID, memberID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConversationHandler) ListMembers(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}

	members, err := h.service.GetRoomMembers(c.Request.Context(), conversationID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]httpdto.MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, httpdto.FromParticipant(m))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}

func (h *ConversationHandler) UpdateMemberRole(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}
	memberID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "INVALID_REQUEST"))
		return
	}
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	if err := h.service.UpdateMemberRole(c.Request.Context(), conversationID, memberID, req.Role); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
