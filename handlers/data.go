package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mindcareplus/mindcare/client/internal/api"
	"github.com/mindcareplus/mindcare/client/internal/session"
	"github.com/mindcareplus/mindcare/client/pkg/logger"
	"github.com/mindcareplus/mindcare/client/pkg/middleware"
)

// DataHandler proxies the remote API through the gateway client so the
// front-end never handles the credential itself.
type DataHandler struct {
	client *api.Client
	store  *session.Store
}

func NewDataHandler(client *api.Client, store *session.Store) *DataHandler {
	return &DataHandler{client: client, store: store}
}

// Register routes under /data
func (h *DataHandler) Register(r *gin.Engine) {
	d := r.Group("/data", middleware.RequireJSON())
	d.GET("/me", h.Me)
	d.POST("/billing/upgrade", h.Upgrade)

	d.POST("/chat", h.Chat)
	d.GET("/chat/sessions", h.ListChatSessions)
	d.POST("/chat/sessions", h.CreateChatSession)
	d.PATCH("/chat/sessions/:id", h.RenameChatSession)
	d.DELETE("/chat/sessions/:id", h.DeleteChatSession)
	d.GET("/chat/sessions/:id/messages", h.ListSessionMessages)
	d.POST("/chat/sessions/:id/send", h.SendInSession)

	d.POST("/checkin", h.CreateCheckIn)
	d.GET("/checkins", h.RecentCheckIns)
	d.GET("/analytics/checkins", h.CheckInTrends)
	d.GET("/analytics/overview", h.AnalyticsSummary)

	d.GET("/resources", h.Resources)

	d.GET("/counselors", h.Counselors)
	d.GET("/counselors/:id/slots", h.Slots)
	d.POST("/bookings", h.BookSession)
	d.GET("/bookings/my", h.MyBookings)
}

// writeAPIError maps gateway errors onto the shell's response: remote
// statuses pass through, timeouts become 504, anything else 502.
func writeAPIError(c *gin.Context, err error) {
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr):
		if len(apiErr.Body) > 0 && json.Valid(apiErr.Body) {
			c.Data(apiErr.StatusCode, "application/json; charset=utf-8", apiErr.Body)
			return
		}
		msg := string(apiErr.Body)
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		c.JSON(apiErr.StatusCode, gin.H{"error": msg})
	case errors.Is(err, api.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "upstream timeout"})
	default:
		logger.Warnf("shell: upstream failure: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream unavailable", "details": err.Error()})
	}
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// intQuery returns 0 for a missing or malformed value so wrapper defaults apply.
func intQuery(c *gin.Context, name string) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return n
}

func (h *DataHandler) Me(c *gin.Context) {
	p, err := h.client.Me(c.Request.Context())
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Upgrade redeems a plan code and mirrors the new plan into the session.
func (h *DataHandler) Upgrade(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cred := h.store.Snapshot().Credential
	res, err := h.client.Upgrade(c.Request.Context(), req.Code)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	h.store.ApplyPlan(c.Request.Context(), cred, res.Plan)
	c.JSON(http.StatusOK, res)
}

func (h *DataHandler) Chat(c *gin.Context) {
	var req struct {
		Message string         `json:"message" binding:"required"`
		History []api.ChatTurn `json:"history"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reply, err := h.client.Chat(c.Request.Context(), req.Message, req.History)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (h *DataHandler) ListChatSessions(c *gin.Context) {
	out, err := h.client.ListChatSessions(c.Request.Context())
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DataHandler) CreateChatSession(c *gin.Context) {
	var req api.NewChatSession
	// an empty body creates an untitled session
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	out, err := h.client.CreateChatSession(c.Request.Context(), req)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DataHandler) RenameChatSession(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.client.RenameChatSession(c.Request.Context(), id, req.Title)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DataHandler) DeleteChatSession(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	out, err := h.client.DeleteChatSession(c.Request.Context(), id)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DataHandler) ListSessionMessages(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	out, err := h.client.ListSessionMessages(c.Request.Context(), id)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DataHandler) SendInSession(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reply, err := h.client.SendInSession(c.Request.Context(), id, req.Message)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (h *DataHandler) CreateCheckIn(c *gin.Context) {
	var req api.NewCheckIn
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.client.CreateCheckIn(c.Request.Context(), req)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DataHandler) RecentCheckIns(c *gin.Context) {
	out, err := h.client.RecentCheckIns(c.Request.Context(), intQuery(c, "limit"))
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DataHandler) CheckInTrends(c *gin.Context) {
	out, err := h.client.CheckInTrends(c.Request.Context(), intQuery(c, "days"))
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// AnalyticsSummary never fails; an unavailable overview is null.
func (h *DataHandler) AnalyticsSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.client.AnalyticsSummary(c.Request.Context()))
}

func (h *DataHandler) Resources(c *gin.Context) {
	out, err := h.client.Resources(c.Request.Context())
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DataHandler) Counselors(c *gin.Context) {
	out, err := h.client.Counselors(c.Request.Context())
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DataHandler) Slots(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	out, err := h.client.Slots(c.Request.Context(), id, intQuery(c, "days"))
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DataHandler) BookSession(c *gin.Context) {
	var req api.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.CounselorID <= 0 || req.SlotID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "counselor_id and slot_id are required"})
		return
	}
	out, err := h.client.BookSession(c.Request.Context(), req)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DataHandler) MyBookings(c *gin.Context) {
	out, err := h.client.MyBookings(c.Request.Context())
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
