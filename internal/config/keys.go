package config

import "os"

// Environment variables holding secrets.
const (
	EnvSectorsAPIKey = "SECTORS_API_KEY"
	EnvSectorsKey    = "SECTORS_KEY"
	EnvGroqAPIKey    = "GROQ_API_KEY"
	EnvLLMAPIKey     = "SECTORS_LLM_API_KEY"
)

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of an API key.
type KeyStatus struct {
	Name   string       `json:"name"`
	Source APIKeySource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "abc...xyz"
}

// CheckAPIKeys returns the status of all keys the tools can use.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("Sectors API Key", cfg.API.Key, EnvSectorsAPIKey, EnvSectorsKey),
		checkKey("LLM API Key", cfg.LLM.APIKey, EnvGroqAPIKey, EnvLLMAPIKey),
	}
}

// checkKey checks if a key is set and whether any of envVars supplied it.
func checkKey(name, value string, envVars ...string) KeyStatus {
	status := KeyStatus{
		Name:   name,
		IsSet:  value != "",
		Source: KeySourceNone,
	}
	if value == "" {
		return status
	}

	status.Source = KeySourceConfig
	for _, e := range envVars {
		if os.Getenv(e) == value {
			status.Source = KeySourceEnv
			break
		}
	}
	status.Masked = maskKey(value)
	return status
}

// maskKey masks an API key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
