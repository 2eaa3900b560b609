package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gprspc/app"
	"gprspc/domain/core"
	"gprspc/domain/spc"
	"gprspc/internal/controlchart"
	"gprspc/internal/session"
)

// SPCHandler serves sessions, control limits and eliminations over HTTP
type SPCHandler struct {
	service *app.SPCService
}

// NewSPCHandler creates a new SPC handler
func NewSPCHandler(service *app.SPCService) *SPCHandler {
	return &SPCHandler{service: service}
}

type openSessionRequest struct {
	File  string `json:"file" binding:"required"`
	Sheet string `json:"sheet"`
}

type limitsRequest struct {
	Method     string   `json:"method"`
	Confidence string   `json:"confidence"`
	Columns    []string `json:"columns"`
}

type eliminationRequest struct {
	Method     string   `json:"method"`
	Confidence string   `json:"confidence"`
	Criterion  string   `json:"criterion" binding:"required"`
	IDs        []string `json:"ids"`
	Columns    []string `json:"columns"`
}

type autoEliminationRequest struct {
	Method     string `json:"method"`
	Confidence string `json:"confidence"`
	Criterion  string `json:"criterion" binding:"required"`
	MaxRounds  int    `json:"max_rounds"`
}

// parseSelection validates optional method and confidence strings. Empty
// values are passed through so the service applies its defaults.
func parseSelection(method, confidence string) (spc.Method, spc.ConfidenceLevel, error) {
	var m spc.Method
	var level spc.ConfidenceLevel
	var err error
	if method != "" {
		if m, err = spc.ParseMethod(method); err != nil {
			return "", "", err
		}
	}
	if confidence != "" {
		if level, err = controlchart.ParseConfidenceLevel(confidence); err != nil {
			return "", "", err
		}
	}
	return m, level, nil
}

// sessionID parses the :id path parameter, replying 400 when it is blank
func sessionID(c *gin.Context) (core.ID, bool) {
	id, err := core.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid session id: "+err.Error())
		return "", false
	}
	return id, true
}

// Health reports liveness
func (h *SPCHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ConfidenceLevels lists the supported confidence levels
func (h *SPCHandler) ConfidenceLevels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"confidence_levels": h.service.ConfidenceLevels(), "methods": spc.Methods})
}

// OpenSession loads a QA export into a new session
func (h *SPCHandler) OpenSession(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	info, err := h.service.OpenFile(c.Request.Context(), req.File, req.Sheet)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, info)
}

// ListSessions lists open sessions
func (h *SPCHandler) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.service.Sessions()})
}

// GetSession describes one session
func (h *SPCHandler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	info, err := h.service.Info(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// CloseSession drops a session
func (h *SPCHandler) CloseSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.service.Close(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Summary describes the working dataset
func (h *SPCHandler) Summary(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	summary, err := h.service.Summary(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Statistics returns descriptive statistics; repeat ?columns= to select
func (h *SPCHandler) Statistics(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	stats, err := h.service.Statistics(id, c.QueryArray("columns"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statistics": stats})
}

// Normality returns Anderson-Darling results
func (h *SPCHandler) Normality(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	results, err := h.service.Normality(id, c.QueryArray("columns"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"normality": results})
}

// ComputeLimits recomputes control limits
func (h *SPCHandler) ComputeLimits(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req limitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	method, level, err := parseSelection(req.Method, req.Confidence)
	if err != nil {
		respondError(c, err)
		return
	}
	results, err := h.service.ComputeLimits(c.Request.Context(), id, session.ComputeRequest{
		Method:     method,
		Columns:    req.Columns,
		Confidence: level,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "outliers": controlchart.Outliers(results)})
}

// Eliminate runs one elimination round
func (h *SPCHandler) Eliminate(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req eliminationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	method, level, err := parseSelection(req.Method, req.Confidence)
	if err != nil {
		respondError(c, err)
		return
	}
	outcome, err := h.service.Eliminate(c.Request.Context(), id, session.EliminationRequest{
		Method:     method,
		Confidence: level,
		Criterion:  req.Criterion,
		IDs:        req.IDs,
		Columns:    req.Columns,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// AutoEliminate eliminates flagged points of one criterion until none remain
func (h *SPCHandler) AutoEliminate(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req autoEliminationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	method, level, err := parseSelection(req.Method, req.Confidence)
	if err != nil {
		respondError(c, err)
		return
	}
	outcomes, err := h.service.AutoEliminate(c.Request.Context(), id, app.AutoEliminationRequest{
		Method:     method,
		Confidence: level,
		Criterion:  req.Criterion,
		MaxRounds:  req.MaxRounds,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rounds": outcomes})
}

// Reset reloads the dataset and clears the logs
func (h *SPCHandler) Reset(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.service.Reset(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	info, err := h.service.Info(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// Log returns the in-memory elimination log of ?method=
func (h *SPCHandler) Log(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	method, _, err := parseSelection(c.Query("method"), "")
	if err != nil {
		respondError(c, err)
		return
	}
	entries, err := h.service.Log(id, method)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// StoredLog returns entries persisted by earlier resets
func (h *SPCHandler) StoredLog(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	entries, err := h.service.StoredLog(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
