package management

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"compliance/internal/constants"
	"compliance/internal/logger"
	"compliance/pkg/errors"
)

// ActorHeader carries the caller identity recorded in the audit trail.
const ActorHeader = "X-User-ID"

type BaseHandler struct {
	Service Service
	Logger  logger.Logger
}

func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	h.Logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	status := errors.ToHTTPStatus(err)
	response := errors.ToErrorResponse(err)

	c.JSON(status, response)
}

type Handler struct {
	BaseHandler
}

func NewHandler(service Service, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NopLogger()
	}
	return &Handler{
		BaseHandler: BaseHandler{
			Service: service,
			Logger:  log,
		},
	}
}

// ActorMiddleware stores the caller identity and address on the request
// context so mutations can be attributed.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithActor(c.Request.Context(), c.GetHeader(ActorHeader), c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	v1.Use(ActorMiddleware())
	{
		rules := v1.Group("/rules")
		{
			rules.GET("", h.ListRules)
			rules.POST("", h.CreateRule)
			rules.GET("/protection", h.GetProtection)
			rules.PUT("/protection", h.SetProtection)
			rules.POST("/drafts", h.NewDraft)
			rules.POST("/drafts/duplicate-field", h.DuplicateDraftField)
			rules.GET("/:id", h.GetRule)
			rules.PUT("/:id", h.UpdateRule)
			rules.DELETE("/:id", h.DeleteRule)
			rules.POST("/:id/duplicate", h.DuplicateRule)
			rules.GET("/:id/versions", h.GetRuleVersions)
			rules.GET("/:id/audit", h.GetRuleAuditLogs)
		}

		audit := v1.Group("/audit")
		{
			audit.GET("/logs", h.GetAuditLogs)
		}
	}
}

// ListRules godoc
// @Summary      List check rules
// @Description  Get the current rule collection in stored order
// @Tags         rules
// @Produce      json
// @Success      200  {array}   rules.CheckRule
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules [get]
func (h *Handler) ListRules(c *gin.Context) {
	list, err := h.Service.ListRules(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateRule godoc
// @Summary      Create a check rule
// @Description  Validate a draft and append it to the collection under a fresh id
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        rule  body      CreateRuleRequest  true  "Rule draft"
// @Success      201   {object}  rules.CheckRule
// @Failure      400   {object}  errors.ErrorResponse
// @Failure      500   {object}  errors.ErrorResponse
// @Router       /rules [post]
func (h *Handler) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	rule, err := h.Service.CreateRule(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// GetRule godoc
// @Summary      Get a check rule
// @Tags         rules
// @Produce      json
// @Param        id   path      string  true  "Rule ID"
// @Success      200  {object}  rules.CheckRule
// @Failure      404  {object}  errors.ErrorResponse
// @Router       /rules/{id} [get]
func (h *Handler) GetRule(c *gin.Context) {
	rule, err := h.Service.GetRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// UpdateRule godoc
// @Summary      Update a check rule
// @Description  Replace the given members of a rule. Protected rules need the override.
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Rule ID"
// @Param        rule  body      UpdateRuleRequest  true  "Members to replace"
// @Success      200   {object}  rules.CheckRule
// @Failure      400   {object}  errors.ErrorResponse
// @Failure      403   {object}  errors.ErrorResponse
// @Failure      404   {object}  errors.ErrorResponse
// @Router       /rules/{id} [put]
func (h *Handler) UpdateRule(c *gin.Context) {
	var req UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	rule, err := h.Service.UpdateRule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// DeleteRule godoc
// @Summary      Delete a check rule
// @Tags         rules
// @Param        id   path  string  true  "Rule ID"
// @Success      204
// @Failure      403  {object}  errors.ErrorResponse
// @Failure      404  {object}  errors.ErrorResponse
// @Router       /rules/{id} [delete]
func (h *Handler) DeleteRule(c *gin.Context) {
	if err := h.Service.DeleteRule(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DuplicateRule godoc
// @Summary      Duplicate a check rule
// @Description  Append an editable copy with fresh ids and a "(copy)" name suffix
// @Tags         rules
// @Produce      json
// @Param        id   path      string  true  "Rule ID"
// @Success      201  {object}  rules.CheckRule
// @Failure      404  {object}  errors.ErrorResponse
// @Router       /rules/{id}/duplicate [post]
func (h *Handler) DuplicateRule(c *gin.Context) {
	rule, err := h.Service.DuplicateRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// GetProtection godoc
// @Summary      Get rule protection status
// @Tags         rules
// @Produce      json
// @Success      200  {object}  ProtectionStatus
// @Router       /rules/protection [get]
func (h *Handler) GetProtection(c *gin.Context) {
	status, err := h.Service.GetProtection(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// SetProtection godoc
// @Summary      Toggle the protection override
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        request  body      SetProtectionRequest  true  "Override flag"
// @Success      200      {object}  ProtectionStatus
// @Failure      400      {object}  errors.ErrorResponse
// @Router       /rules/protection [put]
func (h *Handler) SetProtection(c *gin.Context) {
	var req SetProtectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	status, err := h.Service.SetProtectionOverride(c.Request.Context(), *req.Override)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// NewDraft godoc
// @Summary      Start a blank rule draft
// @Tags         drafts
// @Produce      json
// @Success      200  {object}  rules.CheckRule
// @Router       /rules/drafts [post]
func (h *Handler) NewDraft(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.NewDraft(c.Request.Context()))
}

// DuplicateDraftField godoc
// @Summary      Duplicate a field inside a draft
// @Description  Insert a copy of the field right after the original
// @Tags         drafts
// @Accept       json
// @Produce      json
// @Param        request  body      DuplicateFieldRequest  true  "Draft and field id"
// @Success      200      {object}  rules.CheckRule
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      404      {object}  errors.ErrorResponse
// @Router       /rules/drafts/duplicate-field [post]
func (h *Handler) DuplicateDraftField(c *gin.Context) {
	var req DuplicateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	rule, err := h.Service.DuplicateDraftField(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// GetRuleVersions godoc
// @Summary      List rule versions
// @Tags         history
// @Produce      json
// @Param        id   path      string  true  "Rule ID"
// @Success      200  {array}   RuleVersion
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules/{id}/versions [get]
func (h *Handler) GetRuleVersions(c *gin.Context) {
	versions, err := h.Service.GetRuleVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, versions)
}

// GetRuleAuditLogs godoc
// @Summary      Get audit logs for a rule
// @Tags         history
// @Produce      json
// @Param        id     path      string  true   "Rule ID"
// @Param        limit  query     int     false  "Maximum number of logs to return (1-1000)" default(100)
// @Success      200    {array}   AuditLog
// @Failure      500    {object}  errors.ErrorResponse
// @Router       /rules/{id}/audit [get]
func (h *Handler) GetRuleAuditLogs(c *gin.Context) {
	id := c.Param("id")
	limit := parseLimit(c.Query("limit"))

	logs, err := h.Service.GetAuditLogs(c.Request.Context(), &id, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// GetAuditLogs godoc
// @Summary      Get audit logs
// @Description  Get audit logs, newest first, optionally for a single rule
// @Tags         history
// @Produce      json
// @Param        rule_id  query     string  false  "Filter by rule ID"
// @Param        limit    query     int     false  "Maximum number of logs to return (1-1000)" default(100)
// @Success      200      {array}   AuditLog
// @Failure      500      {object}  errors.ErrorResponse
// @Router       /audit/logs [get]
func (h *Handler) GetAuditLogs(c *gin.Context) {
	ruleID := c.Query("rule_id")
	limit := parseLimit(c.Query("limit"))

	var ruleIDPtr *string
	if ruleID != "" {
		ruleIDPtr = &ruleID
	}

	logs, err := h.Service.GetAuditLogs(c.Request.Context(), ruleIDPtr, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func parseLimit(limitStr string) int {
	if limitStr == "" {
		return constants.DefaultLimit
	}
	parsed, err := strconv.Atoi(limitStr)
	if err != nil || parsed <= 0 || parsed > constants.MaxLimit {
		return constants.DefaultLimit
	}
	return parsed
}
