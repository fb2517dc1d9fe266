// Package settings owns config.json: loading, edits and reloading on
// external changes.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/fincache-tui/internal/config"
	"github.com/j-veylop/fincache-tui/internal/logger"
)

// EventType defines the type of settings event.
type EventType int

const (
	// EventLoaded is sent once the settings file has been read.
	EventLoaded EventType = iota
	// EventChanged is sent when settings change, by Update or on disk.
	EventChanged
	// EventError is sent when the file cannot be watched or parsed.
	EventError
)

// Event represents a settings service event.
type Event struct {
	Error    error
	Settings config.Settings
	Previous config.Settings
	Type     EventType
}

// Service manages the settings file with watching and change notifications.
type Service struct {
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	filePath      string
	current       config.Settings
	mu            sync.RWMutex
	closeOnce     sync.Once
}

// New loads the settings at filePath, writing defaults when the file is
// missing or malformed, and starts watching it.
func New(filePath string) (*Service, error) {
	if filePath == "" {
		filePath = config.DefaultSettingsPath
	}

	current, err := config.LoadSettings(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	s := &Service{
		filePath:  filePath,
		current:   current,
		eventChan: make(chan Event, 16),
		stopChan:  make(chan struct{}),
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	s.sendEvent(Event{Type: EventLoaded, Settings: current})
	return s, nil
}

// Events returns the event channel for subscribing to settings changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Path returns the settings file path.
func (s *Service) Path() string {
	return s.filePath
}

// Current returns a copy of the current settings.
func (s *Service) Current() config.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update validates and persists a single setting.
func (s *Service) Update(key, value string) error {
	s.mu.Lock()
	previous := s.current
	next := s.current
	if err := next.Set(key, value); err != nil {
		s.mu.Unlock()
		return err
	}
	if next == previous {
		s.mu.Unlock()
		return nil
	}
	if err := config.SaveSettings(s.filePath, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = next
	s.mu.Unlock()

	logger.Info("setting updated", "key", key, "value", value)
	s.sendEvent(Event{Type: EventChanged, Settings: next, Previous: previous})
	return nil
}

// startWatcher starts the file system watcher.
func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory to catch editors that replace the file.
	dir := filepath.Dir(s.filePath)
	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Service) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.mu.Lock()
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
				s.mu.Unlock()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads settings after an external change. A file that
// does not parse is reported and ignored so a half-saved edit is not
// overwritten.
func (s *Service) handleFileChange() {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}

	next, _, err := config.ParseSettings(data)
	if err != nil {
		logger.Warn("ignoring invalid settings file", "path", s.filePath, "error", err)
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}

	s.mu.Lock()
	previous := s.current
	if next == previous {
		s.mu.Unlock()
		return
	}
	s.current = next
	s.mu.Unlock()

	logger.Info("settings reloaded", "path", s.filePath)
	s.sendEvent(Event{Type: EventChanged, Settings: next, Previous: previous})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher and cleans up resources.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)

		s.mu.Lock()
		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
		}
		s.mu.Unlock()

		if s.watcher != nil {
			err = s.watcher.Close()
		}
	})
	return err
}
