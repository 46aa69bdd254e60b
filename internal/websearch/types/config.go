package types

type ProviderID string

const (
	ProviderDuckDuckGo ProviderID = "duckduckgo"
	ProviderGoogle     ProviderID = "google"
	ProviderTavily     ProviderID = "tavily"
	ProviderSerpAPI    ProviderID = "serpapi"
)

// ProviderConfig represents search provider configuration. It is derived once
// at startup from the presence of credentials and read-only afterwards.
type ProviderConfig struct {
	ID   ProviderID `json:"id" yaml:"id"`
	Name string     `json:"name" yaml:"name"`

	// API settings
	APIHost string `json:"api_host" yaml:"api_host"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Google Custom Search engine ID
	EngineID string `json:"engine_id,omitempty" yaml:"engine_id,omitempty"`

	// Optional settings
	Timeout    int `json:"timeout,omitempty" yaml:"timeout,omitempty"`         // seconds
	MaxRetries int `json:"max_retries,omitempty" yaml:"max_retries,omitempty"` // default: 3
}

// Validate validates the provider configuration.
func (c *ProviderConfig) Validate() error {
	if c.ID == "" {
		return ErrInvalidProviderID
	}
	if c.Name == "" {
		return ErrInvalidProviderName
	}
	if c.APIHost == "" {
		return ErrInvalidAPIHost
	}

	switch c.ID {
	case ProviderDuckDuckGo:
		// DuckDuckGo is keyless
	case ProviderGoogle:
		if c.APIKey == "" {
			return ErrMissingAPIKey
		}
		if c.EngineID == "" {
			return ErrMissingEngineID
		}
	default:
		if c.APIKey == "" {
			return ErrMissingAPIKey
		}
	}

	return nil
}
