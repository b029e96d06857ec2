package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/truthnetstack/truthnet-orchestrator/internal/media"
	"github.com/truthnetstack/truthnet-orchestrator/internal/models"
	"github.com/truthnetstack/truthnet-orchestrator/internal/repo"
	"github.com/truthnetstack/truthnet-orchestrator/internal/utils"
)

// AnalysisAPI is the slice of the service facade the HTTP layer needs.
type AnalysisAPI interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.OrchestratorResponse, error)
	GetResult(ctx context.Context, requestID string) (*models.OrchestratorResponse, error)
}

// Handlers holds the route implementations.
type Handlers struct {
	logger         *slog.Logger
	service        AnalysisAPI
	store          *media.Store
	maxUploadBytes int64
}

// NewHandlers constructs the HTTP handlers over the service facade and the
// media scratch store.
func NewHandlers(logger *slog.Logger, service AnalysisAPI, store *media.Store, maxUploadBytes int64) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		logger:         logger,
		service:        service,
		store:          store,
		maxUploadBytes: maxUploadBytes,
	}
}

// Register attaches all orchestrator routes to the router.
func (h *Handlers) Register(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	v1.POST("/analyze", h.analyze)
	v1.GET("/results/:request_id", h.result)
	router.GET("/healthz", h.healthz)
}

// analyze accepts a multipart upload, stores it in the scratch directory, and
// runs the full analysis synchronously.
func (h *Handlers) analyze(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	file, err := c.FormFile("file")
	if err != nil {
		h.writeError(c, http.StatusBadRequest, utils.CodeInvalidRequest, "multipart field 'file' is required")
		return
	}

	requestID := c.PostForm("request_id")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	mediaType, ok := media.DetectType(file.Filename)
	if !ok {
		h.writeError(c, http.StatusUnsupportedMediaType, utils.CodeUnsupportedMediaType,
			fmt.Sprintf("cannot determine media type of %q", file.Filename))
		return
	}

	path := h.store.Path(requestID, file.Filename)
	if err := c.SaveUploadedFile(file, path); err != nil {
		h.logger.Error("saving upload failed", slog.String("request_id", requestID), slog.Any("error", err))
		h.writeError(c, http.StatusInternalServerError, "INTERNAL", "failed to store upload")
		return
	}
	defer func() {
		if err := h.store.Remove(path); err != nil {
			h.logger.Warn("removing upload failed", slog.String("path", path), slog.Any("error", err))
		}
	}()

	req := models.AnalysisRequest{
		RequestID: requestID,
		MediaPath: path,
		MediaType: mediaType,
		AgentType: models.AgentType(c.PostForm("agent")),
	}

	response, err := h.service.Analyze(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, requestID, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// result returns a previously computed analysis by request ID.
func (h *Handlers) result(c *gin.Context) {
	requestID := c.Param("request_id")
	response, err := h.service.GetResult(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, repo.ErrResultNotFound) {
			h.writeError(c, http.StatusNotFound, "RESULT_NOT_FOUND",
				fmt.Sprintf("no result stored for request %q", requestID))
			return
		}
		h.writeServiceError(c, requestID, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *Handlers) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) writeServiceError(c *gin.Context, requestID string, err error) {
	code := utils.ErrorCode(err)
	status := http.StatusInternalServerError
	switch code {
	case utils.CodeFileNotFound:
		status = http.StatusNotFound
	case utils.CodeUnsupportedMediaType:
		status = http.StatusUnsupportedMediaType
	case utils.CodeInvalidRequest:
		status = http.StatusBadRequest
	default:
		code = "INTERNAL"
		h.logger.Error("analysis failed", slog.String("request_id", requestID), slog.Any("error", err))
	}
	h.writeError(c, status, code, err.Error())
}

func (h *Handlers) writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"code": code, "error": message})
}
