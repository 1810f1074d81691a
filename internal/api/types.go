package api

import (
	"github.com/botdash/botdash/internal/notify"
	"github.com/botdash/botdash/internal/registry"
)

// DashboardResponse is the combined view consumed by the dashboard UI and
// pushed over the WebSocket stream.
type DashboardResponse struct {
	Config        registry.Config `json:"config"`
	Notifications []notify.Event  `json:"notifications"`
	GeneratedAt   string          `json:"generated_at"` // RFC3339
}

// healthResponse is the payload for GET /healthz.
type healthResponse struct {
	Status string `json:"status"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
