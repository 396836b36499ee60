package registry

import (
	"github.com/gin-gonic/gin"

	"github.com/kandev/agentnet/internal/a2a"
	"github.com/kandev/agentnet/internal/common/apierrors"
	"github.com/kandev/agentnet/internal/httpenv"
	"github.com/kandev/agentnet/internal/httpmiddleware"
)

// Router builds the gin engine exposing every C4 endpoint of spec.md §6.
func (s *Service) Router() *gin.Engine {
	r := gin.New()
	r.Use(httpmiddleware.Recovery(s.logger), httpmiddleware.RequestLogger(s.logger), httpmiddleware.CORS())

	r.POST("/agents/register", s.handleRegister)
	r.POST("/agents/keepalive", s.handleKeepalive)
	r.POST("/agents/unregister", s.handleUnregister)
	r.POST("/agents/discover", s.handleDiscover)
	r.GET("/agents/all", s.handleGetAll)

	r.POST("/interactions/add", s.handleAddInteraction)
	r.POST("/interactions/delete", s.handleDeleteInteraction)
	r.GET("/interactions", s.handleAllInteractions)
	r.GET("/interactions/user/:user_id", s.handleInteractionsForUser)

	r.POST("/task_count/add", s.handleTaskCountAdd)
	r.POST("/task_count/delete", s.handleTaskCountDelete)
	r.GET("/task_count/:agent_id", s.handleTaskCountGet)
	r.GET("/task_count", s.handleTaskCountAll)

	r.POST("/events/task/:user_id", s.handleEventTask)
	r.POST("/events/task_status/:user_id", s.handleEventTaskStatus)
	r.POST("/events/task_artifact/:user_id", s.handleEventTaskArtifact)
	r.GET("/events/get/tasks/:user_id", s.handleGetTasks)
	r.GET("/events/get/artifacts/:user_id", s.handleGetArtifacts)
	r.GET("/events/get/all_tasks", s.handleGetAllTasks)
	r.GET("/events/get/all_artifacts", s.handleGetAllArtifacts)

	r.POST("/user/register", s.handleUserRegister)
	r.POST("/user/unregister", s.handleUserUnregister)
	r.POST("/user/unregister_all", s.handleUserUnregisterAll)
	r.POST("/user/chat", s.handleUserChat)
	r.GET("/user/messages/:user_id/:conversation_id", s.handleUserMessages)
	r.GET("/user/conversations/:user_id", s.handleUserConversations)

	r.GET("/graph", s.handleGraph)

	return r
}

type registerRequest struct {
	Name      string   `json:"name" binding:"required"`
	URL       string   `json:"url" binding:"required"`
	Category  string   `json:"category" binding:"required"`
	Expose    bool     `json:"expose"`
	VisibleTo []string `json:"visible_to"`
}

func (s *Service) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpenv.Error(c, apierrors.InvalidInput(err.Error()))
		return
	}
	id, err := s.Graph.Register(req.Name, req.URL, req.Category, req.Expose, req.VisibleTo)
	if err != nil {
		httpenv.Error(c, err)
		return
	}
	s.publish("agent.registered", map[string]any{"agent_id": id, "name": req.Name, "url": req.URL})
	httpenv.OK(c, map[string]string{"agent_id": id})
}

type agentIDRequest struct {
	AgentID string `json:"agent_id" binding:"required"`
}

func (s *Service) handleKeepalive(c *gin.Context) {
	var req agentIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpenv.Error(c, apierrors.InvalidInput(err.Error()))
		return
	}
	if err := s.Graph.Keepalive(req.AgentID); err != nil {
		httpenv.Error(c, err)
		return
	}
	httpenv.OK(c, nil)
}

func (s *Service) handleUnregister(c *gin.Context) {
	var req agentIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpenv.Error(c, apierrors.InvalidInput(err.Error()))
		return
	}
	if err := s.Graph.Unregister(req.AgentID); err != nil {
		httpenv.Error(c, err)
		return
	}
	s.publish("agent.unregistered", map[string]any{"agent_id": req.AgentID})
	httpenv.OK(c, nil)
}

func (s *Service) handleDiscover(c *gin.Context) {
	var req agentIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpenv.Error(c, apierrors.InvalidInput(err.Error()))
		return
	}
	agents, err := s.Graph.Discover(req.AgentID)
	if err != nil {
		httpenv.Error(c, err)
		return
	}
	if agents == nil {
		agents = []DiscoveredAgent{}
	}
	httpenv.OK(c, agents)
}

func (s *Service) handleGetAll(c *gin.Context) {
	agents := s.Graph.GetAll()
	if agents == nil {
		agents = []DiscoveredAgent{}
	}
	httpenv.OK(c, agents)
}

type interactionRequest struct {
	SrcID   string `json:"src_id" binding:"required"`
	DstID   string `json:"dst_id" binding:"required"`
	Message string `json:"message"`
}

func (s *Service) handleAddInteraction(c *gin.Context) {
	var req interactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpenv.Error(c, apierrors.InvalidInput(err.Error()))
		return
	}
	if err := s.Graph.AddInteraction(req.SrcID, req.DstID, req.Message); err != nil {
		httpenv.Error(c, err)
		return
	}
	httpenv.OK(c, nil)
}

func (s *Service) handleDeleteInteraction(c *gin.Context) {
	var req interactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpenv.Error(c, apierrors.InvalidInput(err.Error()))
		return
	}
	if err := s.Graph.DeleteInteraction(req.SrcID, req.DstID); err != nil {
		httpenv.Error(c, err)
		return
	}
	httpenv.OK(c, nil)
}

func (s *Service) handleAllInteractions(c *gin.Context) {
	edges := s.Graph.AllInteractions()
	pairs := make([][2]string, 0, len(edges))
	for _, e := range edges {
		pairs = append(pairs, [2]string{e.Src, e.Dst})
	}
	httpenv.OK(c, pairs)
}

func (s *Service) handleInteractionsForUser(c *gin.Context) {
	userID := c.Param("user_id")
	edges, err := s.Graph.InteractionsForUser(userID)
	if err != nil {
		httpenv.Error(c, err)
		return
	}
	pairs := make([][2]string, 0, len(edges))
	for _, e := range edges {
		pairs = append(pairs, [2]string{e.DstID, e.Name})
	}
	httpenv.OK(c, pairs)
}

func (s *Service) handleTaskCountAdd(c *gin.Context) {
	var req agentIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpenv.Error(c, apierrors.InvalidInput(err.Error()))
		return
	}
	if err := s.Graph.TaskCountAdd(req.AgentID); err != nil {
		httpenv.Error(c, err)
		return
	}
	httpenv.OK(c, nil)
}

func (s *Service) handleTaskCountDelete(c *gin.Context) {
	var req agentIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpenv.Error(c, apierrors.InvalidInput(err.Error()))
		return
	}
	if err := s.Graph.TaskCountDelete(req.AgentID); err != nil {
		httpenv.Error(c, err)
		return
	}
	httpenv.OK(c, nil)
}

func (s *Service) handleTaskCountGet(c *gin.Context) {
	count, err := s.Graph.TaskCount(c.Param("agent_id"))
	if err != nil {
		httpenv.Error(c, err)
		return
	}
	httpenv.OK(c, count)
}

func (s *Service) handleTaskCountAll(c *gin.Context) {
	httpenv.OK(c, s.Graph.TaskCountAll())
}

func (s *Service) handleEventTask(c *gin.Context) {
	userID := c.Param("user_id")
	var task a2a.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		httpenv.Error(c, apierrors.InvalidInput(err.Error()))
		return
	}
	if err := s.Graph.ForwardTask(userID, &task); err != nil {
		httpenv.Error(c, err)
		return
	}
	s.publish("task.forwarded", map[string]any{"user_id": userID, "task_id": task.ID})
	httpenv.OK(c, nil)
}

func (s *Service) handleEventTaskStatus(c *gin.Context) {
	userID := c.Param("user_id")
	var event a2a.TaskStatusUpdateEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		httpenv.Error(c, apierrors.InvalidInput(err.Error()))
		return
	}
	if err := s.Graph.ForwardTaskStatus(userID, event); err != nil {
		httpenv.Error(c, err)
		return
	}
	if event.State.IsTerminal() {
		s.publish("task.completed", map[string]any{"user_id": userID, "task_id": event.TaskID, "state": event.State})
	}
	httpenv.OK(c, nil)
}

// publish is a nil-safe wrapper around s.Bus.Publish: Bus is nil whenever
// NATS is disabled or a test wires no bus.
func (s *Service) publish(subject string, data map[string]any) {
	if s.Bus != nil {
		s.Bus.Publish(subject, data)
	}
}

func (s *Service) handleEventTaskArtifact(c *gin.Context) {
	userID := c.Param("user_id")
	var event a2a.TaskArtifactUpdateEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		httpenv.Error(c, apierrors.InvalidInput(err.Error()))
		return
	}
	if err := s.Graph.ForwardTaskArtifact(userID, event); err != nil {
		httpenv.Error(c, err)
		return
	}
	httpenv.OK(c, nil)
}

func (s *Service) handleGetTasks(c *gin.Context) {
	tasks, err := s.Graph.GetTasks(c.Param("user_id"))
	if err != nil {
		httpenv.Error(c, err)
		return
	}
	httpenv.OK(c, tasks)
}

func (s *Service) handleGetArtifacts(c *gin.Context) {
	artifacts, err := s.Graph.GetArtifacts(c.Param("user_id"))
	if err != nil {
		httpenv.Error(c, err)
		return
	}
	if artifacts == nil {
		artifacts = []a2a.Artifact{}
	}
	httpenv.OK(c, artifacts)
}

func (s *Service) handleGetAllTasks(c *gin.Context) {
	httpenv.OK(c, s.Graph.GetAllTasks())
}

func (s *Service) handleGetAllArtifacts(c *gin.Context) {
	httpenv.OK(c, s.Graph.GetAllArtifacts())
}

type userRegisterRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	UserName string `json:"user_name"`
}

func (s *Service) handleUserRegister(c *gin.Context) {
	var req userRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpenv.Error(c, apierrors.InvalidInput(err.Error()))
		return
	}
	if err := s.Graph.UserRegister(req.UserID, req.UserName); err != nil {
		httpenv.Error(c, err)
		return
	}
	httpenv.OK(c, nil)
}

type userIDRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (s *Service) handleUserUnregister(c *gin.Context) {
	var req userIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpenv.Error(c, apierrors.InvalidInput(err.Error()))
		return
	}
	if err := s.Graph.UserUnregister(req.UserID); err != nil {
		httpenv.Error(c, err)
		return
	}
	httpenv.OK(c, nil)
}

func (s *Service) handleUserUnregisterAll(c *gin.Context) {
	s.Graph.UserUnregisterAll()
	httpenv.OK(c, nil)
}

func (s *Service) handleUserMessages(c *gin.Context) {
	messages, err := s.Graph.Messages(c.Param("user_id"), c.Param("conversation_id"))
	if err != nil {
		httpenv.Error(c, err)
		return
	}
	httpenv.OK(c, messages)
}

func (s *Service) handleUserConversations(c *gin.Context) {
	ids, err := s.Graph.ListConversations(c.Param("user_id"))
	if err != nil {
		httpenv.Error(c, err)
		return
	}
	httpenv.OK(c, ids)
}

func (s *Service) handleGraph(c *gin.Context) {
	httpenv.OK(c, s.Graph.Snapshot())
}
