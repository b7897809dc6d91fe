package llm

import (
	"net/http"
	"sort"
	"sync"
)

// Provider adapts one HTTP text-generation API to the Client.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() string

	// BuildURL constructs the full API endpoint URL from a base URL.
	// An empty base selects the provider's public endpoint.
	BuildURL(baseURL string) string

	// SetHeaders adds authentication and provider-specific headers.
	SetHeaders(req *http.Request, apiKey string)

	// BuildRequestBody creates the JSON request body for a single prompt.
	// maxOutputTokens <= 0 leaves the provider default in place.
	BuildRequestBody(model, prompt string, maxOutputTokens int) ([]byte, error)

	// ParseResponse extracts the first usable text from a 2xx response body.
	// It returns ErrEmptyGeneration when the body holds no text.
	ParseResponse(body []byte, model string) (*Response, error)
}

var (
	providerRegistry = make(map[string]Provider)
	providerMu       sync.RWMutex
)

// RegisterProvider adds a provider to the registry.
func RegisterProvider(p Provider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	providerRegistry[p.Name()] = p
}

// GetProvider retrieves a provider by name.
func GetProvider(name string) Provider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return providerRegistry[name]
}

// ListProviders returns all registered provider names, sorted.
func ListProviders() []string {
	providerMu.RLock()
	defer providerMu.RUnlock()

	names := make([]string, 0, len(providerRegistry))
	for name := range providerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
