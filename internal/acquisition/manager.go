// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package acquisition

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// Manager runs one session per device concurrently. Sessions share nothing
// but the stop signal carried by the context given to Run.
type Manager struct {
	mu       sync.RWMutex
	sessions []*Session
	byName   map[string]*Session
}

func NewManager() *Manager {
	return &Manager{byName: make(map[string]*Session)}
}

func (m *Manager) Add(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.byName[s.Name()]; dup {
		return fmt.Errorf("acquisition: duplicate device %q", s.Name())
	}
	m.sessions = append(m.sessions, s)
	m.byName[s.Name()] = s
	return nil
}

func (m *Manager) Session(name string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byName[name]
	return s, ok
}

// Sessions returns the sessions in the order they were added.
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Session(nil), m.sessions...)
}

func (m *Manager) Infos() []Info {
	sessions := m.Sessions()
	out := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Info())
	}
	return out
}

// Run starts every session and waits for all of them to terminate.
// Cancelling ctx stops them all; each still flushes its own buffer.
func (m *Manager) Run(ctx context.Context) error {
	sessions := m.Sessions()
	if len(sessions) == 0 {
		return errors.New("acquisition: no devices configured")
	}

	errs := make([]error, len(sessions))
	var wg sync.WaitGroup
	for i, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Run(ctx); err != nil {
				log.Printf("acquisition[%s]: %v", s.Name(), err)
				errs[i] = err
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Close stops every session.
func (m *Manager) Close() error {
	for _, s := range m.Sessions() {
		s.Close()
	}
	return nil
}
