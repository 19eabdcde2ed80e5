// Package backend serves POST /analyze: summaries from Gemini when an API
// key is configured, else from a sentence-picking fallback.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pemistahl/lingua-go"
)

// AnalyzeRequest is the /analyze body.
type AnalyzeRequest struct {
	Messages  []json.RawMessage `json:"messages,omitempty"`
	Text      string            `json:"text,omitempty"`
	Href      string            `json:"href,omitempty"`
	MaxTokens int               `json:"max_tokens,omitempty"`
}

// AnalyzeResponse is the /analyze answer. Either Summary or Error is set.
type AnalyzeResponse struct {
	Summary  *Summary `json:"summary,omitempty"`
	Fallback bool     `json:"fallback,omitempty"`
	Language string   `json:"language,omitempty"`
	Error    string   `json:"error,omitempty"`
	Details  string   `json:"details,omitempty"`
}

// Server handles /analyze.
type Server struct {
	gen       Generator
	sanitizer *bluemonday.Policy
	detector  lingua.LanguageDetector
	logger    *slog.Logger
}

// NewServer creates a Server. A nil gen selects the local fallback.
func NewServer(gen Generator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		gen:       gen,
		sanitizer: bluemonday.StrictPolicy(),
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.English, lingua.Spanish, lingua.French, lingua.German,
				lingua.Portuguese, lingua.Italian, lingua.Dutch, lingua.Russian).
			Build(),
		logger: logger,
	}
}

// Router returns the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/analyze", s.handleAnalyze)
	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON body"})
		return
	}

	text := s.inputText(req)
	if text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "No text or messages provided"})
		return
	}

	writeJSON(w, http.StatusOK, s.Analyze(r.Context(), text))
}

// inputText picks text, else the joined messages, with markup stripped.
func (s *Server) inputText(req AnalyzeRequest) string {
	if req.Text != "" {
		return s.clean(req.Text)
	}
	if len(req.Messages) == 0 {
		return ""
	}
	parts := make([]string, len(req.Messages))
	for i, m := range req.Messages {
		var str string
		if err := json.Unmarshal(m, &str); err == nil {
			parts[i] = str
		} else {
			parts[i] = string(m)
		}
	}
	joined := []rune(strings.Join(parts, "\n"))
	if len(joined) > maxMessagesInput {
		joined = joined[:maxMessagesInput]
	}
	return s.clean(string(joined))
}

func (s *Server) clean(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(text)))
}

// Analyze summarizes text.
func (s *Server) Analyze(ctx context.Context, text string) AnalyzeResponse {
	lang := s.language(text)

	if s.gen == nil {
		sum := NaiveSummary(text)
		return AnalyzeResponse{Summary: &sum, Fallback: true, Language: lang}
	}

	out, err := s.gen.Generate(ctx, buildPrompt(text))
	if err != nil {
		s.logger.Error("model call failed", "error", err)
		return AnalyzeResponse{Error: "Gemini call failed", Details: err.Error()}
	}

	if sum, ok := ParseJSONBlock(out); ok {
		return AnalyzeResponse{Summary: &sum, Language: lang}
	}
	sum := StructureText(out)
	return AnalyzeResponse{Summary: &sum, Language: lang}
}

func (s *Server) language(text string) string {
	if lang, ok := s.detector.DetectLanguageOf(text); ok {
		return strings.ToLower(lang.IsoCode639_1().String())
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Backend listening", "addr", addr, "model", s.gen != nil)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
