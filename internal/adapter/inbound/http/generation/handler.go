// Package generationhttp exposes the generation gateway over HTTP.
package generationhttp

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tvnz/video-generator/internal/model"
	"github.com/tvnz/video-generator/internal/port/inbound"
	"github.com/tvnz/video-generator/internal/shared/response"
	"github.com/tvnz/video-generator/internal/utils/middleware"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "tvnz-video-generator"

const pollIntervalMs = 5000

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status" example:"healthy"`
	Service string `json:"service" example:"tvnz-video-generator"`
}

// Handler handles generation HTTP requests.
type Handler struct {
	domain     inbound.GenerationDomain
	extensions []string
	prompt     string
}

// NewHandler creates a new generation handler. extensions populate the
// file picker filter on the landing page.
func NewHandler(domain inbound.GenerationDomain, extensions []string, defaultPrompt string) *Handler {
	if defaultPrompt == "" {
		defaultPrompt = model.DefaultPromptText
	}
	return &Handler{domain: domain, extensions: extensions, prompt: defaultPrompt}
}

// RegisterRoutes registers gateway routes.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.Index)
	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.POST("/upload-and-generate", h.UploadAndGenerate)
		api.GET("/check-status/:task_id", h.CheckStatus)
	}
}

// Index serves the landing page.
// @Summary Landing page
// @Tags Gateway
// @Produce html
// @Success 200 {string} string "HTML page"
// @Router / [get]
func (h *Handler) Index(c *gin.Context) {
	accept := make([]string, 0, len(h.extensions))
	for _, ext := range h.extensions {
		accept = append(accept, "."+ext)
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":          "TVNZ Video Generator",
		"Accept":         strings.Join(accept, ","),
		"DefaultPrompt":  h.prompt,
		"PollIntervalMs": pollIntervalMs,
	})
}

// Health reports liveness. It never checks the upstream.
// @Summary Health check
// @Tags Gateway
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Service: ServiceName})
}

// UploadAndGenerate submits an image-to-video job.
// @Summary Submit an image-to-video job
// @Description Uploads an image and forwards it to the generation API. The upstream JSON is returned unchanged.
// @Tags Gateway
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image (png, jpg, jpeg, gif, webp)"
// @Param promptText formData string false "Prompt text"
// @Success 200 {object} object "Upstream task JSON"
// @Failure 400 {object} errors.ErrorResponse
// @Failure 413 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Failure 504 {object} errors.ErrorResponse
// @Router /api/upload-and-generate [post]
func (h *Handler) UploadAndGenerate(c *gin.Context) {
	upload, err := uploadFromRequest(c)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.AbortPayloadTooLarge(c, maxErr.Limit)
			return
		}
		response.Error(c, err)
		return
	}

	var prompt *string
	if v, ok := c.GetPostForm("promptText"); ok {
		prompt = &v
	}

	body, err := h.domain.SubmitImage(c.Request.Context(), upload, prompt)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.RawJSON(c, http.StatusOK, body)
}

// CheckStatus relays the state of an upstream task.
// @Summary Poll a generation task
// @Tags Gateway
// @Produce json
// @Param task_id path string true "Upstream task ID"
// @Success 200 {object} object "Upstream task JSON"
// @Failure 500 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Failure 504 {object} errors.ErrorResponse
// @Router /api/check-status/{task_id} [get]
func (h *Handler) CheckStatus(c *gin.Context) {
	body, err := h.domain.CheckStatus(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.RawJSON(c, http.StatusOK, body)
}

// uploadFromRequest extracts the "image" part. It returns nil when the
// request carries no such part and an error only when the body could not
// be read.
func uploadFromRequest(c *gin.Context) (*inbound.UploadInput, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, err
		}
		// A file part with an empty filename is parsed as a plain value,
		// so a text field named "image" is also reported as no file selected.
		if _, ok := c.GetPostForm("image"); ok {
			return &inbound.UploadInput{}, nil
		}
		return nil, nil
	}

	return &inbound.UploadInput{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}, nil
}
