package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-variants/internal/models"
	"github.com/phambaophuc/image-variants/internal/services/pipeline"
)

var (
	errMissingUpload = errors.New("Missing product_slug or image")
	errMissingSource = errors.New("Missing product_slug and one of image or image_url")
)

type jobRequest struct {
	slug     string
	imageURL string
	data     []byte
}

// === REQUEST PARSING ===

func (h *ImageHandler) parseForm(c *gin.Context) (int, error) {
	if err := c.Request.ParseMultipartForm(h.config.Storage.MaxFileSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return http.StatusRequestEntityTooLarge, fmt.Errorf("Image exceeds %d bytes", h.config.Storage.MaxFileSize)
		}
		return http.StatusBadRequest, fmt.Errorf("failed to parse form data: %v", err)
	}
	return http.StatusOK, nil
}

// readUpload extracts product_slug and the image bytes.
func (h *ImageHandler) readUpload(c *gin.Context) (string, []byte, int, error) {
	if status, err := h.parseForm(c); err != nil {
		return "", nil, status, err
	}

	slug := strings.TrimSpace(c.Request.FormValue(slugParamKey))
	header := h.getUploadedFile(c, imageParamKey)
	if slug == "" || header == nil {
		return "", nil, http.StatusBadRequest, errMissingUpload
	}

	data, status, err := h.readFile(header)
	if err != nil {
		return "", nil, status, err
	}
	return slug, data, http.StatusOK, nil
}

func (h *ImageHandler) readJobRequest(c *gin.Context) (*jobRequest, int, error) {
	if status, err := h.parseForm(c); err != nil {
		return nil, status, err
	}

	req := &jobRequest{
		slug:     strings.TrimSpace(c.Request.FormValue(slugParamKey)),
		imageURL: strings.TrimSpace(c.Request.FormValue(imageURLParamKey)),
	}
	header := h.getUploadedFile(c, imageParamKey)

	if req.slug == "" || (header == nil && req.imageURL == "") {
		return nil, http.StatusBadRequest, errMissingSource
	}
	// reject before queueing; the run would abort anyway
	if err := pipeline.ValidateSlug(req.slug); err != nil {
		return nil, http.StatusBadRequest, err
	}

	if header != nil {
		data, status, err := h.readFile(header)
		if err != nil {
			return nil, status, err
		}
		req.data = data
		req.imageURL = ""
		return req, http.StatusOK, nil
	}

	if err := h.validate.Var(req.imageURL, "required,http_url"); err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid image_url")
	}
	return req, http.StatusOK, nil
}

// === FILE OPERATIONS ===

func (h *ImageHandler) getUploadedFile(c *gin.Context, paramKey string) *multipart.FileHeader {
	if c.Request.MultipartForm == nil {
		return nil
	}
	files := c.Request.MultipartForm.File[paramKey]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

func (h *ImageHandler) readFile(header *multipart.FileHeader) ([]byte, int, error) {
	limit := h.config.Storage.MaxFileSize
	if header.Size > limit {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("Image exceeds %d bytes", limit)
	}

	file, err := header.Open()
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("failed to open image: %v", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("failed to read image: %v", err)
	}
	if int64(len(data)) > limit {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("Image exceeds %d bytes", limit)
	}
	return data, http.StatusOK, nil
}

// === RESPONSE HANDLING ===

func (h *ImageHandler) respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

// === UTILITY METHODS ===

func (h *ImageHandler) calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != "healthy" && status != "not configured" {
			return "unhealthy"
		}
	}
	return "healthy"
}
