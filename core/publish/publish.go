// Package publish promotes the draft grid into the live grid. Only sections
// the draft touches are replaced; every other live section is left alone.
// The store performs the promotion in one transaction before memory follows.
package publish

import (
	"context"
	"sync"

	"github.com/kilianp07/timetable/core/engine"
	"github.com/kilianp07/timetable/core/events"
	"github.com/kilianp07/timetable/core/grid"
	"github.com/kilianp07/timetable/core/model"
)

const component = "publish"

// Session holds the editing mode of the single coordinating editor.
type Session struct {
	mu   sync.RWMutex
	mode model.Mode
}

// NewSession starts a session in mode.
func NewSession(mode model.Mode) *Session { return &Session{mode: mode} }

func (s *Session) Mode() model.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *Session) SetMode(m model.Mode) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
}

// Result describes a publish.
type Result struct {
	Sections []string `json:"sections"`
	Promoted int      `json:"promoted"`
	Replaced int      `json:"replaced"`
}

// Coordinator bridges draft and live.
type Coordinator struct {
	env     *engine.Env
	session *Session
}

// New returns a coordinator. session may be nil.
func New(env *engine.Env, session *Session) *Coordinator {
	if session == nil {
		session = NewSession(model.ModeDraft)
	}
	return &Coordinator{env: env, session: session}
}

// Session returns the session the coordinator flips.
func (c *Coordinator) Session() *Session { return c.session }

// Publish deletes the live entries of every section present in the draft,
// moves all draft entries to live and empties the draft. The session ends in
// live mode. An empty draft publishes nothing.
func (c *Coordinator) Publish(ctx context.Context) (Result, error) {
	sections := c.env.Grid.TouchedSections(model.ModeDraft)
	if len(sections) == 0 {
		c.session.SetMode(model.ModeLive)
		return Result{Sections: []string{}}, nil
	}
	res := Result{
		Sections: sections,
		Promoted: c.env.Grid.Len(model.ModeDraft),
		Replaced: len(c.env.Grid.Entries(model.ModeLive, grid.Filter{SectionIDs: sections})),
	}
	if err := c.env.Commit(component, "promote", func() error {
		return c.env.Store.Promote(ctx, sections)
	}); err != nil {
		return Result{}, err
	}
	c.env.Grid.Promote(sections)
	c.session.SetMode(model.ModeLive)
	c.env.Log.Infof("published %d entries for %d sections, %d live entries replaced", res.Promoted, len(sections), res.Replaced)
	c.env.Emit(events.PublishEvent{Sections: sections, Entries: res.Promoted})
	return res, nil
}

// Discard empties the draft without touching live and returns how many
// entries were dropped.
func (c *Coordinator) Discard(ctx context.Context) (int, error) {
	if err := c.env.Commit(component, "delete_where", func() error {
		return c.env.Store.DeleteWhere(ctx, model.ModeDraft, grid.Filter{})
	}); err != nil {
		return 0, err
	}
	n := len(c.env.Grid.RemoveWhere(model.ModeDraft, grid.Filter{}))
	c.env.Emit(events.PublishEvent{Entries: n, Discarded: true})
	return n, nil
}
