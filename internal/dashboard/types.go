package dashboard

import (
	"time"

	"github.com/coal/valvegate/internal/pipeline"
	"github.com/coal/valvegate/internal/settings"
)

// DashboardEvent wraps a pipeline Event with a unique dashboard ID.
type DashboardEvent struct {
	ID string `json:"id"`
	pipeline.Event
}

// WSMessage is the envelope for all WebSocket messages.
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// StatsSnapshot is a point-in-time snapshot of accumulated statistics.
type StatsSnapshot struct {
	TotalRequests    uint64            `json:"total_requests"`
	AppliedCount     uint64            `json:"applied_count"`
	PassthroughCount uint64            `json:"passthrough_count"`
	RejectedCount    uint64            `json:"rejected_count"`
	AnonymousCount   uint64            `json:"anonymous_count"`
	MemoryOptOuts    uint64            `json:"memory_opt_outs"`
	UserCounts       map[string]uint64 `json:"user_counts"`
	TimeSeries       []TimeSeriesPoint `json:"time_series"`
}

// TimeSeriesPoint is a single point in the 60-minute time series.
type TimeSeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Count     uint64    `json:"count"`
	Anonymous uint64    `json:"anonymous"`
}

// InitialState is sent to clients on WebSocket connect.
type InitialState struct {
	Events   []*DashboardEvent     `json:"events"`
	Stats    *StatsSnapshot        `json:"stats"`
	Defaults settings.UserSettings `json:"defaults"`
}
