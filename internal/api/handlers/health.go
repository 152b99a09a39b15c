package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/fincopilot/internal/api/middleware"
)

// HealthInfo is the static part of the health response.
type HealthInfo struct {
	Storage     string `json:"storage"`
	LLMProvider string `json:"llm_provider"`
	LLMModel    string `json:"llm_model"`
}

// Health handles GET /health. It reports configuration only and never
// calls the model or the store.
func Health(info HealthInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"config": info,
		})
	}
}
