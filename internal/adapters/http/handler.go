package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jothelearningguy/alignus/internal/app/chat"
	"github.com/jothelearningguy/alignus/internal/app/dashboard"
	"github.com/jothelearningguy/alignus/internal/app/goals"
	"github.com/jothelearningguy/alignus/internal/app/lifecycle"
	"github.com/jothelearningguy/alignus/internal/domain"
	"github.com/jothelearningguy/alignus/internal/identity"
)

// WatcherSupervisor is what the transport needs from the analysis layer:
// a guarantee that an opened session has a running watcher.
type WatcherSupervisor interface {
	Ensure(sessionID domain.SessionID)
}

type Server struct {
	lifecycle *lifecycle.Service
	chat      *chat.Service
	goals     *goals.Service
	dashboard *dashboard.Service
	issuer    *identity.Issuer
	watchers  WatcherSupervisor
}

func NewServer(
	lifecycleSvc *lifecycle.Service,
	chatSvc *chat.Service,
	goalsSvc *goals.Service,
	dashboardSvc *dashboard.Service,
	issuer *identity.Issuer,
	watchers WatcherSupervisor,
) http.Handler {
	s := &Server{
		lifecycle: lifecycleSvc,
		chat:      chatSvc,
		goals:     goalsSvc,
		dashboard: dashboardSvc,
		issuer:    issuer,
		watchers:  watchers,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/identity", s.handleIdentity)

	// /sessions          → POST: create (idempotent)
	// /sessions/join     → POST: join a waiting session
	mux.HandleFunc("/sessions", s.handleSessions)
	mux.HandleFunc("/sessions/", s.handleSessionWithID)

	return chainMiddlewares(mux, withLogging, withCORS, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type identityResponse struct {
	UserID string `json:"user_id"`
}

type createSessionRequest struct {
	UserID    string `json:"user_id"`
	PartnerID string `json:"partner_id,omitempty"`
}

type joinSessionRequest struct {
	UserID    string `json:"user_id"`
	PartnerID string `json:"partner_id"`
}

type sessionResponse struct {
	ID            string     `json:"id"`
	Participants  []string   `json:"participants"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	Sentiment *float64  `json:"sentiment,omitempty"`
	Analyzed  bool      `json:"analyzed"`
}

type timelineResponse struct {
	Session         sessionResponse   `json:"session"`
	Messages        []messageResponse `json:"messages"`
	YourTurn        bool              `json:"your_turn"`
	CooldownSeconds int               `json:"cooldown_seconds"`
}

type sendMessageRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type goalRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type goalResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type sentimentPointResponse struct {
	At        time.Time `json:"at"`
	Sentiment float64   `json:"sentiment"`
	Label     string    `json:"label"`
	Author    string    `json:"author"`
	Counselor bool      `json:"counselor"`
}

type exerciseResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type dashboardResponse struct {
	Series    []sentimentPointResponse `json:"series"`
	Exercises []exerciseResponse       `json:"exercises"`
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusCreated, identityResponse{UserID: s.issuer.Issue()})
}

// /sessions
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateSession(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /sessions/join, /sessions/{id}, /sessions/{id}/...
func (s *Server) handleSessionWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/sessions/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(strings.TrimSuffix(path, "/"), "/")

	if parts[0] == "join" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleJoinSession(w, r)
		return
	}

	id := domain.SessionID(parts[0])

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleGetTimeline(w, r, id)

	case len(parts) == 2 && parts[1] == "messages":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleSendMessage(w, r, id)

	case len(parts) == 2 && parts[1] == "dashboard":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleDashboard(w, r, id)

	case len(parts) == 2 && parts[1] == "goals":
		switch r.Method {
		case http.MethodGet:
			s.handleListGoals(w, r, id)
		case http.MethodPost:
			s.handleAddGoal(w, r, id)
		default:
			methodNotAllowed(w)
		}

	case len(parts) == 3 && parts[1] == "goals":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		s.handleDeleteGoal(w, r, id, domain.GoalID(parts[2]))

	case len(parts) == 4 && parts[1] == "goals" && parts[3] == "toggle":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleToggleGoal(w, r, id, domain.GoalID(parts[2]))

	default:
		http.NotFound(w, r)
	}
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return
	}

	session, err := s.lifecycle.Create(r.Context(), lifecycle.CreateInput{
		UserID:  domain.UserID(req.UserID),
		Partner: domain.UserID(req.PartnerID),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.watchers.Ensure(session.ID)
	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

func (s *Server) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	var req joinSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.PartnerID == "" {
		badRequest(w, "user_id and partner_id are required")
		return
	}

	session, err := s.lifecycle.Join(r.Context(), lifecycle.JoinInput{
		UserID:  domain.UserID(req.UserID),
		Partner: domain.UserID(req.PartnerID),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.watchers.Ensure(session.ID)
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (s *Server) handleGetTimeline(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	viewer := domain.UserID(r.URL.Query().Get("user_id"))

	tl, err := s.chat.GetTimeline(r.Context(), id, viewer)
	if err != nil {
		writeError(w, err)
		return
	}

	s.watchers.Ensure(id)

	resp := timelineResponse{
		Session:         toSessionResponse(tl.Session),
		Messages:        toMessagesResponse(tl.Messages),
		YourTurn:        tl.YourTurn,
		CooldownSeconds: tl.CooldownSeconds,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return
	}

	msg, err := s.chat.SendMessage(r.Context(), chat.SendMessageInput{
		SessionID: id,
		UserID:    domain.UserID(req.UserID),
		Text:      req.Text,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMessageResponse(msg))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	series, err := s.dashboard.SentimentSeries(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := dashboardResponse{
		Series:    make([]sentimentPointResponse, 0, len(series)),
		Exercises: make([]exerciseResponse, 0, 3),
	}
	for _, p := range series {
		resp.Series = append(resp.Series, sentimentPointResponse{
			At:        p.At,
			Sentiment: p.Sentiment,
			Label:     dashboard.SentimentLabel(p.Sentiment),
			Author:    string(p.Author),
			Counselor: p.Counselor,
		})
	}
	for _, ex := range dashboard.Exercises() {
		resp.Exercises = append(resp.Exercises, exerciseResponse{
			Title:       ex.Title,
			Description: ex.Description,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	list, err := s.goals.List(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]goalResponse, 0, len(list))
	for _, g := range list {
		out = append(out, toGoalResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddGoal(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}

	goal, err := s.goals.Add(r.Context(), id, domain.UserID(req.UserID), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalResponse(goal))
}

func (s *Server) handleToggleGoal(w http.ResponseWriter, r *http.Request, id domain.SessionID, goalID domain.GoalID) {
	if err := s.goals.Toggle(r.Context(), id, goalID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request, id domain.SessionID, goalID domain.GoalID) {
	if err := s.goals.Delete(r.Context(), id, goalID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─────────────────────────────────────────────
// Response helpers
// ─────────────────────────────────────────────

func toSessionResponse(s *domain.Session) sessionResponse {
	participants := make([]string, 0, len(s.Participants))
	for _, p := range s.Participants {
		participants = append(participants, string(p))
	}
	return sessionResponse{
		ID:            string(s.ID),
		Participants:  participants,
		Status:        string(s.Status),
		CreatedAt:     s.CreatedAt,
		CooldownUntil: s.CooldownUntil,
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:        string(m.ID),
		SessionID: string(m.SessionID),
		Author:    string(m.Author),
		Text:      m.Text,
		Kind:      string(m.Kind),
		CreatedAt: m.CreatedAt,
		Sentiment: m.Sentiment,
		Analyzed:  m.Analyzed,
	}
}

func toMessagesResponse(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}

func toGoalResponse(g *domain.Goal) goalResponse {
	return goalResponse{
		ID:        string(g.ID),
		Text:      g.Text,
		Completed: g.Completed,
		CreatedBy: string(g.CreatedBy),
		CreatedAt: g.CreatedAt,
	}
}

// writeError maps domain errors to the taxonomy: not-found and join misses
// are 404, composition-rights conflicts are 409, validation is 400, the
// rest is a generic 500 with no internals leaked.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrNoWaitingSession),
		errors.Is(err, domain.ErrGoalNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNotYourTurn),
		errors.Is(err, domain.ErrCooldownActive),
		errors.Is(err, domain.ErrSessionNotActive):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrMessageTooLong):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		internalError(w, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
