// Package main implements a mock generation server for offline runs.
// It serves the OpenAI Responses API (/v1/responses) and the
// chat-completions API (/v1/chat/completions) from plain-text fixture files,
// routing by the "model" field in the request.
//
// Usage:
//
//	mock-gen -fixtures ./fixtures -port 11434
//	DAILYPOST_ENDPOINT=http://localhost:11434/v1 dailypost post --dry-run
//
// Fixture files are named by model ("gpt-4o-mini.txt" answers model
// "gpt-4o-mini"). Numbered files ("gpt-4o-mini.1.txt", "gpt-4o-mini.2.txt")
// are served in order on successive calls; after they run out the base file
// repeats. A "default.txt" fixture answers any model without its own file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	fixtureExt   = ".txt"
	defaultModel = "default"
)

// --- Wire types ---

type responsesRequest struct {
	Model           string `json:"model"`
	Input           string `json:"input"`
	MaxOutputTokens *int   `json:"max_output_tokens,omitempty"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens *int          `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type outputContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type outputItem struct {
	Type    string          `json:"type"`
	Role    string          `json:"role"`
	Content []outputContent `json:"content"`
}

type responsesResponse struct {
	ID     string         `json:"id"`
	Object string         `json:"object"`
	Model  string         `json:"model"`
	Status string         `json:"status"`
	Output []outputItem   `json:"output"`
	Usage  responsesUsage `json:"usage"`
}

type responsesUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// --- Server ---

// capturedRequest records one prompt for later inspection via /requests.
type capturedRequest struct {
	Model     string `json:"model"`
	API       string `json:"api"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens,omitempty"`
	CallIndex int    `json:"call_index"` // 1-indexed per model
	Timestamp int64  `json:"timestamp"`
}

type server struct {
	fixtures map[string][]string // model -> ordered fixture texts
	logger   *slog.Logger
	calls    atomic.Int64

	mu       sync.Mutex
	counts   map[string]int
	requests map[string][]capturedRequest
}

func newServer(fixtures map[string][]string, logger *slog.Logger) *server {
	if logger == nil {
		logger = slog.Default()
	}
	return &server{
		fixtures: fixtures,
		logger:   logger,
		counts:   make(map[string]int),
		requests: make(map[string][]capturedRequest),
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/responses", s.handleResponses)
	mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("/v1/models", s.handleModels)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/requests", s.handleRequests)
	return mux
}

func main() {
	fixtureDir := flag.String("fixtures", "", "directory containing fixture text files")
	port := flag.Int("port", 11434, "port to listen on")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if envDir := os.Getenv("MOCK_GEN_FIXTURES"); envDir != "" && *fixtureDir == "" {
		*fixtureDir = envDir
	}
	if *fixtureDir == "" {
		*fixtureDir = "./fixtures"
	}

	fixtures, err := loadFixtures(*fixtureDir)
	if err != nil {
		logger.Error("Failed to load fixtures", "dir", *fixtureDir, "error", err)
		os.Exit(1)
	}
	for model, seq := range fixtures {
		logger.Info("Loaded fixtures", "model", model, "count", len(seq))
	}

	s := newServer(fixtures, logger)
	addr := fmt.Sprintf(":%d", *port)
	logger.Info("Mock generation server listening", "addr", addr)

	srv := &http.Server{Addr: addr, Handler: s.routes(), ReadHeaderTimeout: 10 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// next picks the fixture for the model's next call and records the request.
func (s *server) next(model, api, prompt string, maxTokens *int) (string, bool) {
	seq, ok := s.fixtures[model]
	if !ok {
		seq, ok = s.fixtures[strings.TrimPrefix(model, "mock-")]
	}
	if !ok {
		seq, ok = s.fixtures[defaultModel]
	}
	if !ok {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[model]++
	callIndex := s.counts[model]

	req := capturedRequest{
		Model:     model,
		API:       api,
		Prompt:    prompt,
		CallIndex: callIndex,
		Timestamp: time.Now().UnixMilli(),
	}
	if maxTokens != nil {
		req.MaxTokens = *maxTokens
	}
	s.requests[model] = append(s.requests[model], req)

	if callIndex <= len(seq) {
		return seq[callIndex-1], true
	}
	return seq[len(seq)-1], true
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *server) handleResponses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req responsesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	callNum := s.calls.Add(1)
	text, ok := s.next(req.Model, "responses", req.Input, req.MaxOutputTokens)
	if !ok {
		s.logger.Warn("No fixture for model", "call", callNum, "model", req.Model)
		http.Error(w, fmt.Sprintf("no fixture for model %q", req.Model), http.StatusNotFound)
		return
	}

	tokens := estimateTokens(req.Input, text)
	writeJSON(w, responsesResponse{
		ID:     "resp_" + uuid.NewString(),
		Object: "response",
		Model:  req.Model,
		Status: "completed",
		Output: []outputItem{{
			Type:    "message",
			Role:    "assistant",
			Content: []outputContent{{Type: "output_text", Text: text}},
		}},
		Usage: responsesUsage{InputTokens: tokens[0], OutputTokens: tokens[1], TotalTokens: tokens[0] + tokens[1]},
	})
	s.logger.Debug("Served response", "call", callNum, "model", req.Model, "bytes", len(text))
}

func (s *server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	var prompt string
	if n := len(req.Messages); n > 0 {
		prompt = req.Messages[n-1].Content
	}

	callNum := s.calls.Add(1)
	text, ok := s.next(req.Model, "chat", prompt, req.MaxTokens)
	if !ok {
		s.logger.Warn("No fixture for model", "call", callNum, "model", req.Model)
		http.Error(w, fmt.Sprintf("no fixture for model %q", req.Model), http.StatusNotFound)
		return
	}

	tokens := estimateTokens(prompt, text)
	writeJSON(w, chatResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{{
			Message:      chatMessage{Role: "assistant", Content: text},
			FinishReason: "stop",
		}},
		Usage: chatUsage{PromptTokens: tokens[0], CompletionTokens: tokens[1], TotalTokens: tokens[0] + tokens[1]},
	})
	s.logger.Debug("Served chat completion", "call", callNum, "model", req.Model, "bytes", len(text))
}

// handleModels lists the fixture models.
func (s *server) handleModels(w http.ResponseWriter, _ *http.Request) {
	type modelEntry struct {
		ID      string `json:"id"`
		Object  string `json:"object"`
		OwnedBy string `json:"owned_by"`
	}
	names := make([]string, 0, len(s.fixtures))
	for name := range s.fixtures {
		names = append(names, name)
	}
	sort.Strings(names)

	models := make([]modelEntry, 0, len(names))
	for _, name := range names {
		models = append(models, modelEntry{ID: name, Object: "model", OwnedBy: "mock-gen"})
	}
	writeJSON(w, map[string]any{"object": "list", "data": models})
}

func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	byModel := make(map[string]int, len(s.counts))
	for model, n := range s.counts {
		byModel[model] = n
	}
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"total_calls":    s.calls.Load(),
		"calls_by_model": byModel,
	})
}

// handleRequests returns captured prompts. Query params:
//   - model: only this model
//   - call: only this 1-indexed call
func (s *server) handleRequests(w http.ResponseWriter, r *http.Request) {
	modelFilter := r.URL.Query().Get("model")
	callFilter, _ := strconv.Atoi(r.URL.Query().Get("call"))

	s.mu.Lock()
	result := make(map[string][]capturedRequest)
	for model, reqs := range s.requests {
		if modelFilter != "" && model != modelFilter {
			continue
		}
		for _, req := range reqs {
			if callFilter > 0 && req.CallIndex != callFilter {
				continue
			}
			result[model] = append(result[model], req)
		}
	}
	s.mu.Unlock()

	writeJSON(w, map[string]any{"requests_by_model": result})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// estimateTokens is a rough four-bytes-per-token guess.
func estimateTokens(prompt, completion string) [2]int {
	return [2]int{len(prompt) / 4, len(completion) / 4}
}

// numberedFileRe matches "model.N.txt".
var numberedFileRe = regexp.MustCompile(`^(.+)\.(\d+)\.txt$`)

// loadFixtures reads fixture files from dir and returns model -> texts.
// Numbered files come first in numeric order, then the base file.
func loadFixtures(dir string) (map[string][]string, error) {
	base := make(map[string]string)
	numbered := make(map[string]map[int]string)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), fixtureExt) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		text := strings.TrimRight(string(data), "\r\n")
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("empty fixture %s", path)
		}

		if m := numberedFileRe.FindStringSubmatch(d.Name()); m != nil {
			index, _ := strconv.Atoi(m[2])
			if numbered[m[1]] == nil {
				numbered[m[1]] = make(map[int]string)
			}
			numbered[m[1]][index] = text
			return nil
		}

		base[strings.TrimSuffix(d.Name(), fixtureExt)] = text
		return nil
	})
	if err != nil {
		return nil, err
	}

	fixtures := make(map[string][]string)
	for model, byIndex := range numbered {
		indices := make([]int, 0, len(byIndex))
		for idx := range byIndex {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		for _, idx := range indices {
			fixtures[model] = append(fixtures[model], byIndex[idx])
		}
	}
	for model, text := range base {
		fixtures[model] = append(fixtures[model], text)
	}

	if len(fixtures) == 0 {
		return nil, fmt.Errorf("no fixture files found in %s", dir)
	}
	return fixtures, nil
}
