package monitor

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/tpcgraph/errors"
	"github.com/kbukum/tpcgraph/node"
	"github.com/kbukum/tpcgraph/observability"
	"github.com/kbukum/tpcgraph/telemetry"
	"github.com/kbukum/tpcgraph/validation"
	"github.com/kbukum/tpcgraph/version"
)

// DataResponse is the success envelope.
type DataResponse struct {
	Data any `json:"data"`
}

// RespondWithError derives the status and body from an *errors.AppError;
// anything else is a generic 500.
func RespondWithError(c *gin.Context, err error) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, appErr.ToResponse())
		return
	}
	c.JSON(http.StatusInternalServerError, errors.Internal(err).ToResponse())
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// NodeHealth maps a node handle onto a health entry. A node that stopped
// after a panic is down; one that returned normally is up.
func NodeHealth(h *node.Handle) observability.Health {
	out := observability.Health{
		Name:    h.Name(),
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"state": h.State().String(), "run_id": h.RunID()},
	}
	switch h.State() {
	case node.Created:
		out.Status = observability.HealthStatusDegraded
		out.Message = "not started"
	case node.Stopped:
		if err := h.Err(); err != nil {
			out.Status = observability.HealthStatusDown
			out.Message = err.Error()
		}
	}
	return out
}

func (s *Server) handleHealth(c *gin.Context) {
	sh := observability.NewServiceHealth(s.service, version.GetShortVersion())
	if s.graph != nil {
		for _, h := range s.graph.Handles() {
			sh.AddComponent(NodeHealth(h))
		}
	}
	if s.checker != nil {
		for _, h := range s.checker(c.Request.Context()) {
			sh.AddComponent(h)
		}
	}

	c.JSON(sh.HTTPStatus(), sh)
}

func (s *Server) handleInfo(c *gin.Context) {
	RespondOK(c, gin.H{
		"service": s.service,
		"build":   version.GetVersionInfo(),
		"nodes":   s.nodeCount(),
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	reports := []telemetry.Report{}
	if s.store != nil {
		reports = s.store.All()
	}
	RespondOK(c, reports)
}

// handleNodeStats serves the latest report of one node. With ?run_id= it
// only answers when that report belongs to the given spawn.
func (s *Server) handleNodeStats(c *gin.Context) {
	name := c.Param("node")
	runID := c.Query("run_id")
	if err := validation.New().NodeName("node", name).OptionalUUID("run_id", runID).Validate(); err != nil {
		RespondWithError(c, err)
		return
	}
	if s.store == nil {
		RespondWithError(c, errors.NotFound("node report", name))
		return
	}
	r, ok := s.store.Get(name)
	if !ok {
		RespondWithError(c, errors.NotFound("node report", name))
		return
	}
	if runID != "" && r.RunID != runID {
		RespondWithError(c, errors.NotFound("node run", runID))
		return
	}
	RespondOK(c, r)
}

func (s *Server) nodeCount() int {
	if s.graph == nil {
		return 0
	}
	return s.graph.Len()
}
