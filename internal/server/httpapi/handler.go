package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophcoach/internal/common"
	"github.com/dmitrijs2005/gophcoach/internal/logging"
	"github.com/dmitrijs2005/gophcoach/internal/server/auth"
	"github.com/dmitrijs2005/gophcoach/internal/server/metrics"
	"github.com/dmitrijs2005/gophcoach/internal/server/models"
	"github.com/dmitrijs2005/gophcoach/internal/server/services"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

type UserService interface {
	Signup(ctx context.Context, email, password, name string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Me(ctx context.Context, userID string) (*models.User, error)
}

type ChatService interface {
	Send(ctx context.Context, userID, text string) (*services.Reply, error)
	History(ctx context.Context, userID string) ([]*models.Message, error)
}

type Authenticator interface {
	Authenticate(h http.Header) (auth.Identity, error)
}

// ReadyFunc reports whether the backing store is reachable.
type ReadyFunc func(ctx context.Context) error

type Config struct {
	AuthRPS   float64
	AuthBurst int
}

type Handler struct {
	users   UserService
	chat    ChatService
	auth    Authenticator
	ready   ReadyFunc
	limiter *limiterPool
	logger  logging.Logger
	metrics *metrics.Metrics
}

func NewHandler(us UserService, cs ChatService, a Authenticator, ready ReadyFunc, cfg Config,
	l logging.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		users:   us,
		chat:    cs,
		auth:    a,
		ready:   ready,
		limiter: newLimiterPool(cfg.AuthRPS, cfg.AuthBurst),
		logger:  l.With("module", "http_api"),
		metrics: m,
	}
}

// Routes returns the complete HTTP surface with CORS and request logging
// applied.
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()

	r.Handle("/auth/signup", h.rateLimit(h.signup)).Methods(http.MethodPost)
	r.Handle("/auth/login", h.rateLimit(h.login)).Methods(http.MethodPost)
	r.Handle("/auth/me", h.requireAuth(h.me)).Methods(http.MethodGet)

	r.Handle("/chat/send", h.requireAuth(h.send)).Methods(http.MethodPost)
	r.Handle("/chat/history", h.requireAuth(h.history)).Methods(http.MethodGet)

	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.readyz).Methods(http.MethodGet)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "Not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Message: "Method not allowed"})
	})

	return withCORS(h.observe(r, r))
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type meResponse struct {
	User userResponse `json:"user"`
}

type sendRequest struct {
	Message string `json:"message"`
}

type sendResponse struct {
	Response string `json:"response"`
}

type historyItem struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type historyResponse struct {
	History []historyItem `json:"history"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

// decode reads a JSON body of at most maxBodyBytes. Unknown fields are
// ignored.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body too large", common.ErrValidation)
		}
		return fmt.Errorf("%w: invalid JSON body", common.ErrValidation)
	}
	return nil
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.users.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info(r.Context(), "user registered", "user_id", res.User.ID)
	writeJSON(w, http.StatusCreated, authResponse{Token: res.Token, User: toUserResponse(res.User)})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: res.Token, User: toUserResponse(res.User)})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	user, err := h.users.Me(r.Context(), id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{User: toUserResponse(user)})
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	var req sendRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	reply, err := h.chat.Send(r.Context(), id.UserID, req.Message)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sendResponse{Response: reply.Content})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	msgs, err := h.chat.History(r.Context(), id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := historyResponse{History: make([]historyItem, 0, len(msgs))}
	for _, m := range msgs {
		out.History = append(out.History, historyItem{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: m.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			h.logger.Warn(r.Context(), "readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Message: "Not ready"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
