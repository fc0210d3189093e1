package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
	"github.com/imaker-dev/restro-backend-sub002/internal/service"
	"github.com/imaker-dev/restro-backend-sub002/pkg/response"
)

// SessionHandler dining session endpoints
type SessionHandler struct {
	sessionSvc service.SessionService
	reportSvc  service.ReportService
	logger     *zap.Logger
}

// NewSessionHandler creates a SessionHandler
func NewSessionHandler(sessionSvc service.SessionService, reportSvc service.ReportService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc, reportSvc: reportSvc, logger: logger}
}

// StartSession POST /api/v1/tables/:id/session/start
func (h *SessionHandler) StartSession(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	session, err := h.sessionSvc.Start(c.Request.Context(), c.Param("id"), &req, actorID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.Created(c, session)
}

// EndSession POST /api/v1/tables/:id/session/end
func (h *SessionHandler) EndSession(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.sessionSvc.End(c.Request.Context(), c.Param("id"), actorID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, result)
}

// TransferSession POST /api/v1/tables/:id/session/transfer
func (h *SessionHandler) TransferSession(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.TransferSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	session, err := h.sessionSvc.Transfer(c.Request.Context(), c.Param("id"), &req, actorID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, session)
}

// GetActiveSession GET /api/v1/tables/:id/session/active. 404 when the table is free.
func (h *SessionHandler) GetActiveSession(c *gin.Context) {
	session, err := h.sessionSvc.GetActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, session)
}

// GetCurrentSession GET /api/v1/tables/:id/session/current. data is null when the table is free.
func (h *SessionHandler) GetCurrentSession(c *gin.Context) {
	session, err := h.sessionSvc.GetCurrent(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"session": session})
}

// ListSessions GET /api/v1/tables/:id/sessions?from=&to=&format=ics
func (h *SessionHandler) ListSessions(c *gin.Context) {
	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	if req.Format == "ics" {
		rng, err := h.reportSvc.ResolveRange(req.From, req.To, 30)
		if err != nil {
			writeError(c, h.logger, err)
			return
		}
		data, filename, err := h.reportSvc.ExportSessionCalendar(c.Request.Context(), c.Param("id"), rng)
		if err != nil {
			writeError(c, h.logger, err)
			return
		}
		response.Attachment(c, "text/calendar; charset=utf-8", filename, data)
		return
	}

	rng, err := h.reportSvc.ResolveRange(req.From, req.To, 0)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	sessions, err := h.sessionSvc.History(c.Request.Context(), c.Param("id"), rng.From, rng.To)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"list": sessions})
}
