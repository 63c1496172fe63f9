// Package httpapi exposes the aggregation service over HTTP: one consensus
// endpoint and a health probe. Request validation happens here; everything
// downstream deals in domain types.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/quorumai/quorum/internal/domain"
	llmerrors "github.com/quorumai/quorum/internal/llm/errors"
)

// Runner is the orchestration entry point the API drives.
type Runner interface {
	Run(ctx context.Context, query domain.Query) (*domain.Response, error)
}

// consensusRequest is the inbound JSON contract. Chat history arrives as
// one opaque text blob, the shape conversation storage hands over.
type consensusRequest struct {
	Message        string           `json:"message" validate:"required"`
	Services       []string         `json:"services"`
	UseWebSearch   bool             `json:"use_web_search"`
	ChatHistory    string           `json:"chat_history"`
	ConversationID *string          `json:"conversation_id"`
	UserLocation   *domain.Location `json:"user_location"`
}

// providerResultView is one provider's slot in the response.
type providerResultView struct {
	Service      string `json:"service"`
	Success      bool   `json:"success"`
	Content      string `json:"content,omitempty"`
	Synopsis     string `json:"synopsis,omitempty"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
	TokensUsed   int64  `json:"tokens_used"`
	Error        string `json:"error,omitempty"`
}

type consensusResponse struct {
	QueryID          string                `json:"query_id"`
	Results          []providerResultView  `json:"results"`
	WebSearchEnabled bool                  `json:"web_search_enabled"`
	WebSearchSources []domain.SearchSource `json:"web_search_sources"`
	SearchCallsMade  int                   `json:"search_calls_made"`
	SearchError      string                `json:"search_error,omitempty"`
	Timestamp        time.Time             `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server handles HTTP traffic for the aggregation service.
type Server struct {
	runner    Runner
	providers []string
	logger    *slog.Logger
	validate  *validator.Validate
}

// NewServer wires the HTTP layer. providers is the configured-provider list
// reported by the health endpoint.
func NewServer(runner Runner, providers []string, logger *slog.Logger) *Server {
	return &Server{
		runner:    runner,
		providers: providers,
		logger:    logger,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Routes returns the service mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/consensus", s.handleConsensus)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func (s *Server) handleConsensus(w http.ResponseWriter, r *http.Request) {
	var req consensusRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message must not be empty")
		return
	}

	query := domain.Query{
		Message:        req.Message,
		Services:       req.Services,
		History:        historyMessages(req.ChatHistory),
		UseWebSearch:   req.UseWebSearch,
		ConversationID: req.ConversationID,
		Location:       req.UserLocation,
		UserID:         userIDFrom(r),
	}

	resp, err := s.runner.Run(r.Context(), query)
	if err != nil {
		var rateErr *llmerrors.RateLimitError
		switch {
		case errors.As(err, &rateErr):
			s.writeError(w, http.StatusTooManyRequests, err.Error())
		case errors.Is(err, context.Canceled):
			// client went away, nothing to write
		default:
			s.logger.ErrorContext(r.Context(), "consensus request failed",
				slog.String("error", err.Error()))
			s.writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	s.writeJSON(w, http.StatusOK, toView(resp))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	providers := s.providers
	if providers == nil {
		providers = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"providers": providers,
	})
}

// historyMessages wraps the opaque chat-history blob as a single prior user
// turn so adapters prepend it before the new question.
func historyMessages(chatHistory string) []domain.ChatMessage {
	chatHistory = strings.TrimSpace(chatHistory)
	if chatHistory == "" {
		return nil
	}
	return []domain.ChatMessage{{Role: domain.RoleUser, Content: chatHistory}}
}

// userIDFrom reads the optional caller identity header. Anonymous requests
// bypass the per-user search quota.
func userIDFrom(r *http.Request) *string {
	if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
		return &id
	}
	return nil
}

func toView(resp *domain.Response) consensusResponse {
	results := make([]providerResultView, len(resp.Results))
	for i, res := range resp.Results {
		results[i] = providerResultView{
			Service:      res.Provider,
			Success:      res.Success,
			Content:      res.Content,
			Synopsis:     res.Synopsis,
			InputTokens:  res.InputTokens,
			OutputTokens: res.OutputTokens,
			TokensUsed:   res.TotalTokens(),
			Error:        res.Err,
		}
	}
	return consensusResponse{
		QueryID:          resp.QueryID,
		Results:          results,
		WebSearchEnabled: resp.WebSearchEnabled,
		WebSearchSources: resp.WebSearchSources,
		SearchCallsMade:  resp.SearchCallsMade,
		SearchError:      resp.SearchError,
		Timestamp:        resp.Timestamp,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
