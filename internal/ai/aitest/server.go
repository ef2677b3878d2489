// Package aitest provides a fake OpenAI-compatible provider for tests.
package aitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultReply is the draft returned by a new Server.
const DefaultReply = "De conformidad con el artículo 49 de la Constitución Política, solicito el amparo del derecho " +
	"fundamental a la salud."

// Server is an httptest server speaking the subset of the OpenAI API used by the application.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	models      []string
	unavailable map[string]bool
	reply       string
	status      int
	delay       time.Duration

	listCalls atomic.Int64
	chatCalls atomic.Int64
	lastModel atomic.Value
}

// NewServer starts a fake provider listing models in order. Close it when done.
func NewServer(models ...string) *Server {
	s := &Server{ //nolint:exhaustruct // counters start at zero
		models:      models,
		unavailable: make(map[string]bool),
		reply:       DefaultReply,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/models", s.listModels)
	mux.HandleFunc("POST /v1/chat/completions", s.chatCompletion)
	s.Server = httptest.NewServer(mux)
	return s
}

// BaseURL is the value to configure as the provider base URL.
func (s *Server) BaseURL() string {
	return s.URL + "/v1"
}

// SetModels replaces the listed models.
func (s *Server) SetModels(models ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = models
}

// SetUnavailable makes completions for model fail with model_not_found.
func (s *Server) SetUnavailable(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable[model] = true
}

// SetReply sets the completion text.
func (s *Server) SetReply(reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reply = reply
}

// FailWith makes every completion fail with status. Zero restores success.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// SetDelay delays every completion, or until the request is cancelled.
func (s *Server) SetDelay(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = delay
}

// ListCalls counts model listings.
func (s *Server) ListCalls() int64 {
	return s.listCalls.Load()
}

// ChatCalls counts completion requests.
func (s *Server) ChatCalls() int64 {
	return s.chatCalls.Load()
}

// LastModel is the model of the most recent completion request.
func (s *Server) LastModel() string {
	v, _ := s.lastModel.Load().(string)
	return v
}

func (s *Server) listModels(w http.ResponseWriter, _ *http.Request) {
	s.listCalls.Add(1)
	s.mu.Lock()
	list := openai.ModelsList{Models: make([]openai.Model, 0, len(s.models))} //nolint:exhaustruct // fake
	for _, id := range s.models {
		list.Models = append(list.Models, openai.Model{ID: id, Object: "model", OwnedBy: "aitest"}) //nolint:exhaustruct,lll // fake
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) chatCompletion(w http.ResponseWriter, r *http.Request) {
	s.chatCalls.Add(1)
	var req openai.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	s.lastModel.Store(req.Model)

	s.mu.Lock()
	var (
		unavailable = s.unavailable[req.Model]
		reply       = s.reply
		status      = s.status
		delay       = s.delay
	)
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(delay):
		}
	}

	switch {
	case unavailable:
		writeError(w, http.StatusNotFound, "model_not_found", "The model "+req.Model+" does not exist")
	case status != 0:
		writeError(w, status, "upstream_error", http.StatusText(status))
	default:
		writeJSON(w, http.StatusOK, openai.ChatCompletionResponse{ //nolint:exhaustruct // fake
			ID:     "chatcmpl-aitest",
			Object: "chat.completion",
			Model:  req.Model,
			Choices: []openai.ChatCompletionChoice{{ //nolint:exhaustruct // fake
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply}, //nolint:exhaustruct,lll // fake
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "invalid_request_error",
			"param":   nil,
			"code":    code,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
