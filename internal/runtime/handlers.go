package runtime

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/kandev/agentnet/internal/a2a"
	"github.com/kandev/agentnet/internal/common/apierrors"
	"github.com/kandev/agentnet/internal/httpmiddleware"
)

// upgrader accepts any origin: workers only ever receive connections from
// other agents in the network, never a browser, so there is no third-party
// origin to police (mirrors the teacher's streaming.upgrader).
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Router builds the gin engine exposing this worker's own endpoints
// (spec.md §6): no httpenv envelope here, since these are read directly by
// peerclient rather than by a UI.
func (r *Runtime) Router() *gin.Engine {
	router := gin.New()
	router.Use(
		httpmiddleware.Recovery(r.logger),
		httpmiddleware.RequestLogger(r.logger),
		httpmiddleware.ErrorHandler(r.logger),
		httpmiddleware.CORS(),
	)

	router.GET("/.well-known/agent-card", r.handleCard)
	router.GET("/tasks/:id", r.handleGetTask)
	router.POST("/tasks/send", r.handleSend)
	router.GET("/tasks/send_streaming", r.handleSendStreaming)
	router.GET("/healthz", r.handleHealthz)

	return router
}

func (r *Runtime) handleCard(c *gin.Context) {
	c.JSON(http.StatusOK, r.Card())
}

func (r *Runtime) handleGetTask(c *gin.Context) {
	task, err := r.GetTask(c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (r *Runtime) handleSend(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apierrors.InvalidInput(err.Error()))
		return
	}

	task, err := r.HandleMessage(c.Request.Context(), req, nil)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// handleSendStreaming upgrades to a websocket, reads exactly one initial
// SendMessageRequest frame, then streams every TaskEvent HandleMessage
// emits until the task reaches a terminal state, closing normally.
func (r *Runtime) handleSendStreaming(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		r.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	var req SendMessageRequest
	if err := conn.ReadJSON(&req); err != nil {
		r.logger.WithError(err).Warn("reading initial streaming request")
		return
	}

	if _, err := r.HandleMessage(c.Request.Context(), req, &wsSink{conn: conn}); err != nil {
		r.logger.WithError(err).Warn("streaming task failed")
		return
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (r *Runtime) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// wsSink forwards every emitted TaskEvent as a JSON text frame.
type wsSink struct {
	conn *websocket.Conn
}

func (s *wsSink) Emit(event a2a.TaskEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return apierrors.InternalError("encoding streamed task event", err)
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}
