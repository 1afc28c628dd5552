package handler

import (
	"net/http"

	"pulse-chat/internal/services"
	"pulse-chat/internal/storage"
	"pulse-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	store *storage.Client
}

func NewUploadHandler(store *storage.Client) *UploadHandler {
	return &UploadHandler{store: store}
}

// Presign hands the client a short-lived PUT URL for message media.
func (h *UploadHandler) Presign(c *gin.Context) {
	uploaderID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	var req httpdto.PresignUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	uploadURL, objectKey, err := h.store.PresignUpload(c.Request.Context(), uploaderID, req.FileName, req.ContentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("presign failed", "INTERNAL_ERROR"))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.PresignUploadResponse{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
		ExpiresIn: int64(h.store.TTL().Seconds()),
	}))
}
