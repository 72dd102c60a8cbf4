package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lineadvisor.app/advisor/common/logger"
	"lineadvisor.app/advisor/pkg/classify"
	"lineadvisor.app/advisor/pkg/metrics"
	"lineadvisor.app/advisor/pkg/session"
	"lineadvisor.app/advisor/pkg/workflow"
)

// Handler wires one HTTP turn to the orchestration engine: fetch-or-create
// the session, run the workflow, append the committed turn, and report the
// result.
type Handler struct {
	Engine  *workflow.Engine
	Store   session.Store
	Metrics *metrics.Metrics
}

// Chat handles one diagnosis turn.
func (h *Handler) Chat(c *gin.Context) {
	ctx := c.Request.Context()
	h.Metrics.TotalRequests.Inc()
	start := time.Now()
	defer func() { h.Metrics.RequestDuration.Observe(time.Since(start).Seconds()) }()

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.resolveSession(req)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "SESSION_NOT_FOUND"})
			return
		}
		slog.ErrorContext(ctx, "failed to resolve session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL"})
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{SessionID: &sess.ID})

	isFirstTurn := sess.ConversationCount == 0
	in := workflow.Input{ReportText: req.Message, TurnCount: sess.ConversationCount + 1}
	if req.Equipment != "" && req.Metric != "" && req.Value != nil {
		in.Reading = &classify.EquipmentReading{
			Equipment: classify.EquipmentType(req.Equipment),
			Metric:    req.Metric,
			Value:     *req.Value,
		}
	}

	h.Metrics.ChatRequests.Inc()
	workflowStart := time.Now()
	rec, err := h.Engine.Run(ctx, in)
	h.Metrics.WorkflowDuration.Observe(time.Since(workflowStart).Seconds())
	if err != nil {
		h.Metrics.WorkflowErrors.Inc()
		slog.ErrorContext(ctx, "workflow run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL"})
		return
	}
	for _, f := range rec.FailedExperts {
		h.Metrics.ExpertFailures.WithLabelValues(f.Name, string(f.ErrorKind)).Inc()
	}
	if !rec.Fallback && rec.Confidence > 0 {
		h.Metrics.WorkflowSuccess.Inc()
	}

	// A turn with no successful expert is not committed: the session's
	// counter and history stay as they were.
	updated := sess
	if len(rec.ExpertResponses) > 0 {
		updated, err = h.appendTurn(sess.ID, sess.ConversationCount, req.Message, rec)
		if err != nil {
			if errors.Is(err, session.ErrConcurrentTurn) {
				c.JSON(http.StatusConflict, gin.H{"error": "CONCURRENT_TURN"})
				return
			}
			slog.ErrorContext(ctx, "failed to append turn", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL"})
			return
		}
	}

	responseType := ResponseFollowUp
	if isFirstTurn {
		responseType = ResponseFirstQuestion
	}

	participating := make([]string, 0, len(rec.ExpertResponses))
	for _, r := range rec.ExpertResponses {
		participating = append(participating, r.ExpertName)
	}

	failed := make([]FailedExpert, 0, len(rec.FailedExperts))
	for _, f := range rec.FailedExperts {
		failed = append(failed, FailedExpert{
			Name:      f.Name,
			ErrorKind: string(f.ErrorKind),
			Message:   f.Message,
			Timestamp: f.Timestamp,
		})
	}

	c.JSON(http.StatusOK, ChatResponse{
		SessionID:             updated.ID,
		ConversationCount:     updated.ConversationCount,
		ResponseType:          responseType,
		IssueCode:             rec.IssueCode,
		Diagnosis:             rec.Diagnosis,
		Confidence:            rec.Confidence,
		DebateRounds:          rec.DebateRounds,
		Fallback:              rec.Fallback,
		ParticipatingExperts:  participating,
		FailedExperts:         failed,
		ProcessingTimeSeconds: time.Since(start).Seconds(),
	})
}

func (h *Handler) resolveSession(req ChatRequest) (session.Session, error) {
	if req.SessionID == "" {
		return h.Store.Create(req.Owner, "")
	}
	sess, err := h.Store.Get(req.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		return h.Store.Create(req.Owner, "")
	}
	return sess, err
}

// appendTurn commits the workflow's result to history. On a concurrent-write
// conflict it re-reads the session once to get a fresh counter and retries
// the append exactly once before surfacing CONCURRENT_TURN, per the
// documented ordering guarantee.
func (h *Handler) appendTurn(sessionID string, expectedCount int, message string, rec *workflow.Recommendation) (session.Session, error) {
	experts := make([]string, 0, len(rec.ExpertResponses))
	for _, r := range rec.ExpertResponses {
		experts = append(experts, r.ExpertName)
	}

	turn := session.Turn{
		UserMessage: message,
		Reply:       rec.Diagnosis,
		Experts:     experts,
		Confidence:  rec.Confidence,
		ModeratorRecord: session.ModeratorRecord{
			DebateRounds: rec.DebateRounds,
		},
	}

	updated, err := h.Store.AppendTurn(sessionID, expectedCount, turn)
	if errors.Is(err, session.ErrConcurrentTurn) {
		fresh, getErr := h.Store.Get(sessionID)
		if getErr != nil {
			return session.Session{}, getErr
		}
		updated, err = h.Store.AppendTurn(sessionID, fresh.ConversationCount, turn)
	}
	return updated, err
}

// Health reports the monitoring surface's point-in-time snapshot.
func (h *Handler) Health(c *gin.Context) {
	snap := h.Metrics.Snapshot()
	c.JSON(http.StatusOK, HealthResponse{
		UptimeSeconds:      snap.Uptime.Seconds(),
		ActiveSessions:     snap.ActiveSessions,
		ActiveAlerts:       snap.ActiveAlerts,
		ExpertSuccessRates: snap.ExpertSuccessRates,
	})
}
