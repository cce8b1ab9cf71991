package pipeline

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coal/valvegate/internal/audit"
	"github.com/coal/valvegate/internal/filter"
	"github.com/coal/valvegate/internal/settings"
)

// EventObserver is a callback function that receives pipeline events.
type EventObserver func(event Event)

// Event represents a single inlet decision for observers.
type Event struct {
	Timestamp       time.Time              `json:"timestamp"`
	RequestID       string                 `json:"request_id"`
	UserID          string                 `json:"user_id,omitempty"`
	Filter          string                 `json:"filter"`
	Applied         bool                   `json:"applied"`
	Settings        *settings.UserSettings `json:"settings,omitempty"`
	MetadataCreated bool                   `json:"metadata_created"`
	Rejected        bool                   `json:"rejected"`
	Reason          string                 `json:"reason,omitempty"`
}

// Pipeline runs the inlet filter chain over outgoing chat payloads.
type Pipeline struct {
	filters     []filter.Inlet
	auditLogger *audit.Logger

	observerMu sync.RWMutex
	observers  []EventObserver
}

// New creates a Pipeline. With no filters given it runs the settings
// injector alone, the only filter shipped today.
func New(auditLogger *audit.Logger, filters ...filter.Inlet) *Pipeline {
	if len(filters) == 0 {
		filters = []filter.Inlet{filter.NewSettingsInjector()}
	}
	return &Pipeline{
		filters:     filters,
		auditLogger: auditLogger,
	}
}

// ProcessInlet runs body through the inlet chain on behalf of user. Both
// user and userSettings may be nil when the host could not attribute the
// call; the chain then passes the body through untouched.
func (p *Pipeline) ProcessInlet(body map[string]any, user *filter.User, userSettings *settings.UserSettings) (*Result, error) {
	reqID := uuid.NewString()
	ctx := &filter.Context{User: user, Settings: userSettings}

	var userID string
	if user != nil {
		userID = user.ID
	}

	hadMetadata := filter.HasMetadata(body)

	for _, f := range p.filters {
		out, err := f.Inlet(ctx, body)
		if err != nil {
			p.auditLogger.Log(audit.Entry{
				RequestID: reqID,
				Direction: "inlet",
				UserID:    userID,
				Filter:    f.Name(),
				Rejected:  true,
				Reason:    err.Error(),
			})
			p.notify(Event{
				Timestamp: time.Now().UTC(),
				RequestID: reqID,
				UserID:    userID,
				Filter:    f.Name(),
				Rejected:  true,
				Reason:    err.Error(),
			})
			return nil, fmt.Errorf("filter %s: %w", f.Name(), err)
		}
		body = out
	}

	applied := userSettings != nil
	result := &Result{
		RequestID:       reqID,
		Body:            body,
		User:            user,
		Settings:        userSettings,
		Applied:         applied,
		MetadataCreated: applied && !hadMetadata,
	}

	entry := audit.Entry{
		RequestID:       reqID,
		Direction:       "inlet",
		UserID:          userID,
		Filter:          p.filterNames(),
		Applied:         applied,
		MetadataCreated: result.MetadataCreated,
	}
	if userSettings != nil {
		entry.SaveMemories = &userSettings.SaveMemories
		entry.AnonymousMode = &userSettings.AnonymousMode
	}
	p.auditLogger.Log(entry)

	p.notify(Event{
		Timestamp:       time.Now().UTC(),
		RequestID:       reqID,
		UserID:          userID,
		Filter:          p.filterNames(),
		Applied:         applied,
		Settings:        userSettings,
		MetadataCreated: result.MetadataCreated,
	})

	return result, nil
}

// AddObserver registers a callback that will be invoked for every pipeline
// event.
func (p *Pipeline) AddObserver(fn EventObserver) {
	p.observerMu.Lock()
	defer p.observerMu.Unlock()
	p.observers = append(p.observers, fn)
}

// notify sends an event to all registered observers.
func (p *Pipeline) notify(event Event) {
	p.observerMu.RLock()
	observers := p.observers
	p.observerMu.RUnlock()

	for _, fn := range observers {
		fn(event)
	}
}

// filterNames joins the chain's filter names for audit entries.
func (p *Pipeline) filterNames() string {
	names := make([]string, len(p.filters))
	for i, f := range p.filters {
		names[i] = f.Name()
	}
	return strings.Join(names, ",")
}
