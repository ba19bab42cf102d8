package check

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"compliance/internal/ingest"
	"compliance/internal/logger"
	"compliance/internal/report"
	"compliance/internal/rules"
	"compliance/pkg/errors"
)

// ExportErrorHeader is set on a report download whose sink write failed.
const ExportErrorHeader = "X-Report-Export-Error"

// ArtifactPayload is one inline artifact. Content is used as text; Data is
// base64 in JSON and takes precedence when set.
type ArtifactPayload struct {
	Name    string `json:"name" binding:"required"`
	Content string `json:"content,omitempty"`
	Data    []byte `json:"data,omitempty" swaggertype:"string" format:"base64"`
}

type StartCheckRequest struct {
	Artifacts    []ArtifactPayload `json:"artifacts" binding:"required,min=1,dive"`
	DeepAnalysis bool              `json:"deep_analysis"`
	Mode         report.Mode       `json:"mode,omitempty"`
	SaveToKB     bool              `json:"save_to_kb"`
}

func (r StartCheckRequest) toRequest() Request {
	artifacts := make([]ingest.Artifact, 0, len(r.Artifacts))
	for _, a := range r.Artifacts {
		data := a.Data
		if len(data) == 0 {
			data = []byte(a.Content)
		}
		artifacts = append(artifacts, ingest.Artifact{Name: a.Name, Data: data})
	}
	return Request{
		Artifacts:    artifacts,
		DeepAnalysis: r.DeepAnalysis,
		Mode:         r.Mode,
		SaveToKB:     r.SaveToKB,
	}
}

type PromptRequest struct {
	Record rules.Record `json:"record" binding:"required"`
}

type PromptResponse struct {
	RunID  string      `json:"run_id,omitempty"`
	Mode   report.Mode `json:"mode"`
	Prompt string      `json:"prompt"`
}

type Handler struct {
	lifecycle *Lifecycle
	logger    logger.Logger
}

func NewHandler(lifecycle *Lifecycle, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NopLogger()
	}
	return &Handler{lifecycle: lifecycle, logger: log}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	{
		checks := v1.Group("/checks")
		{
			checks.POST("", h.StartCheck)
			checks.GET("/current", h.GetCurrent)
			checks.POST("/current/reset", h.Reset)
			checks.POST("/current/narrative", h.Regenerate)
			checks.GET("/current/prompt", h.GetPrompt)
			checks.GET("/current/report", h.GetReport)
		}

		v1.POST("/prompt", h.SynthesizePrompt)
	}
}

// StartCheck godoc
// @Summary      Run a compliance check
// @Description  Ingest the artifacts, validate them against the current rules and optionally start the reviewer analysis. Accepts JSON or multipart form uploads in the "files" field.
// @Tags         checks
// @Accept       json,mpfd
// @Produce      json
// @Param        request  body      StartCheckRequest  true  "Artifacts and options"
// @Success      200      {object}  Snapshot
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      409      {object}  errors.ErrorResponse
// @Failure      422      {object}  errors.ErrorResponse
// @Router       /checks [post]
func (h *Handler) StartCheck(c *gin.Context) {
	var req Request
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		parsed, err := requestFromForm(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
			return
		}
		req = parsed
	} else {
		var body StartCheckRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
			return
		}
		req = body.toRequest()
	}

	snap, err := h.lifecycle.Start(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func requestFromForm(c *gin.Context) (Request, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return Request{}, err
	}

	req := Request{
		DeepAnalysis: formBool(c.PostForm("deep_analysis")),
		Mode:         report.Mode(c.PostForm("mode")),
		SaveToKB:     formBool(c.PostForm("save_to_kb")),
	}
	for _, fh := range form.File["files"] {
		data, err := readFormFile(fh)
		if err != nil {
			return Request{}, err
		}
		req.Artifacts = append(req.Artifacts, ingest.Artifact{Name: fh.Filename, Data: data})
	}
	return req, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func formBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

// GetCurrent godoc
// @Summary      Get the current check
// @Tags         checks
// @Produce      json
// @Success      200  {object}  Snapshot
// @Router       /checks/current [get]
func (h *Handler) GetCurrent(c *gin.Context) {
	c.JSON(http.StatusOK, h.lifecycle.Snapshot())
}

// Reset godoc
// @Summary      Reset the check to idle
// @Description  Drops the current run and stops any reviewer analysis in flight
// @Tags         checks
// @Produce      json
// @Success      200  {object}  Snapshot
// @Router       /checks/current/reset [post]
func (h *Handler) Reset(c *gin.Context) {
	h.lifecycle.Reset()
	c.JSON(http.StatusOK, h.lifecycle.Snapshot())
}

// Regenerate godoc
// @Summary      Restart the reviewer analysis
// @Description  Clears the narrative and streams it again from the stored prompt
// @Tags         checks
// @Produce      json
// @Success      202  {object}  Snapshot
// @Failure      409  {object}  errors.ErrorResponse
// @Failure      502  {object}  errors.ErrorResponse
// @Router       /checks/current/narrative [post]
func (h *Handler) Regenerate(c *gin.Context) {
	if err := h.lifecycle.Regenerate(c.Request.Context()); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, h.lifecycle.Snapshot())
}

// GetPrompt godoc
// @Summary      Get the reviewer prompt of the current check
// @Tags         checks
// @Produce      json
// @Success      200  {object}  PromptResponse
// @Failure      409  {object}  errors.ErrorResponse
// @Router       /checks/current/prompt [get]
func (h *Handler) GetPrompt(c *gin.Context) {
	snap := h.lifecycle.Snapshot()
	if snap.State != StateCompleted {
		h.handleError(c, errors.ErrConflict.WithDetail("message", "There is no completed check."))
		return
	}
	c.JSON(http.StatusOK, PromptResponse{RunID: snap.RunID, Mode: snap.Mode, Prompt: snap.Prompt})
}

// GetReport godoc
// @Summary      Download the report of the current check
// @Description  Renders the report as text and also writes it to the configured report directory
// @Tags         checks
// @Produce      plain
// @Success      200  {string}  string
// @Failure      409  {object}  errors.ErrorResponse
// @Router       /checks/current/report [get]
func (h *Handler) GetReport(c *gin.Context) {
	doc, _, err := h.lifecycle.Export(c.Request.Context())
	if err != nil && !errors.IsExport(err) {
		h.handleError(c, err)
		return
	}
	if err != nil {
		c.Header(ExportErrorHeader, err.Error())
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

// SynthesizePrompt godoc
// @Summary      Build a reviewer prompt
// @Description  Renders the prompt for a record against the current rules without running a check
// @Tags         checks
// @Accept       json
// @Produce      json
// @Param        request  body      PromptRequest  true  "Record"
// @Success      200      {object}  PromptResponse
// @Failure      400      {object}  errors.ErrorResponse
// @Router       /prompt [post]
func (h *Handler) SynthesizePrompt(c *gin.Context) {
	var req PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	text, err := h.lifecycle.SynthesizePrompt(c.Request.Context(), req.Record)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, PromptResponse{Mode: report.ModeExportPrompt, Prompt: text})
}
