package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/services"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/utils"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/validator"
	"github.com/gin-gonic/gin"
)

// MaxUploadSize caps multipart bodies forwarded to the LMS.
const MaxUploadSize = 50 << 20

type ProxyHandler struct {
	BaseHandler
	proxyService services.ProxyService
	validator    *validator.Validator
}

func NewProxyHandler(proxyService services.ProxyService, validator *validator.Validator, logger utils.Logger) *ProxyHandler {
	return &ProxyHandler{
		BaseHandler:  NewBaseHandler(logger),
		proxyService: proxyService,
		validator:    validator,
	}
}

// Leaderboard godoc
// @Summary Group leaderboard
// @Tags proxy
// @Produce json
// @Param id path string true "Group ID"
// @Router /groups/{id}/leaderboard [get]
func (h *ProxyHandler) Leaderboard(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	groupID := ParseStringIDParam(c, "id")
	if groupID == "" {
		return
	}

	raw, err := h.proxyService.Leaderboard(c.Request.Context(), token, userID, groupID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	writeRaw(c, http.StatusOK, raw)
}

// Reviews godoc
// @Summary Teacher reviews
// @Tags proxy
// @Produce json
// @Router /reviews [get]
func (h *ProxyHandler) Reviews(c *gin.Context) {
	_, token, ok := currentUser(c)
	if !ok {
		return
	}

	raw, err := h.proxyService.Reviews(c.Request.Context(), token, c.Request.URL.Query())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	writeRaw(c, http.StatusOK, raw)
}

// Upload forwards a multipart file (field "file") plus any other form fields
// @Summary Upload file
// @Tags proxy
// @Accept multipart/form-data
// @Produce json
// @Param kind path string true "avatar, audio, image or attachment"
// @Router /uploads/{kind} [post]
func (h *ProxyHandler) Upload(c *gin.Context) {
	_, token, ok := currentUser(c)
	if !ok {
		return
	}

	req := models.UploadRequest{Kind: c.Param("kind")}
	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.RespondWithError(c, http.StatusRequestEntityTooLarge, "File too large", err, "limit is 50MB")
			return
		}
		h.RespondWithError(c, http.StatusBadRequest, "File is required", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Failed to open uploaded file", err)
		return
	}
	defer file.Close()

	fields := make(map[string]string)
	if form := c.Request.MultipartForm; form != nil {
		for name, values := range form.Value {
			if len(values) > 0 {
				fields[name] = values[0]
			}
		}
	}

	h.LogRequest(c, "Uploading file", "kind", req.Kind, "filename", fileHeader.Filename, "size", fileHeader.Size)

	raw, err := h.proxyService.Upload(c.Request.Context(), token, req.Kind, fields, fileHeader.Filename, file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	writeRaw(c, http.StatusCreated, raw)
}

func writeRaw(c *gin.Context, status int, raw json.RawMessage) {
	if len(raw) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(status, "application/json; charset=utf-8", raw)
}
