package core

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/qdispatch/qdispatch/internal/events"
	"github.com/qdispatch/qdispatch/models"
	"go.uber.org/zap"
)

// Plane holds the active config behind an atomic reference. New
// admissions observe a reload the instant it swaps in; in-flight
// submissions keep whatever they already captured.
type Plane struct {
	path    string
	current atomic.Pointer[models.Config]
	logger  *zap.Logger
	watcher *fsnotify.Watcher

	writeMu     sync.Mutex
	lastWritten []byte
}

// Load reads and validates the document at path, then builds a Plane
// around it.
func Load(path string, logger *zap.Logger) (*Plane, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := ParseAndValidate(raw)
	if err != nil {
		return nil, err
	}
	p := &Plane{path: path, logger: logger, lastWritten: raw}
	p.current.Store(cfg)
	return p, nil
}

// Current returns the active config. Callers take their own snapshot at
// the start of an operation; the returned pointer is never mutated.
func (p *Plane) Current() *models.Config {
	return p.current.Load()
}

// Reload validates candidate, persists it to the backing file (write new
// then rename into place, so a crash mid-write never corrupts the live
// file), swaps the atomic reference, and publishes ConfigChanged so
// background loops pick up new descriptors without a restart.
func (p *Plane) Reload(raw []byte) (*models.Config, error) {
	cfg, err := ParseAndValidate(raw)
	if err != nil {
		return nil, err
	}
	if err := p.persist(cfg); err != nil {
		return nil, fmt.Errorf("persist config: %w", err)
	}
	p.current.Store(cfg)
	events.Publish(events.Event{Type: events.ConfigChanged, Version: time.Now().UnixNano(), Source: "reload", At: time.Now()})
	return cfg, nil
}

// ReloadJSON is Reload's counterpart for the JSON config surface: it
// accepts a JSON-encoded document, validates it with the same rules, and
// persists the normalized result as YAML so there is exactly one on-disk
// format regardless of which ingress edited it.
func (p *Plane) ReloadJSON(raw []byte) (*models.Config, error) {
	cfg, err := ParseAndValidateJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := p.persist(cfg); err != nil {
		return nil, fmt.Errorf("persist config: %w", err)
	}
	p.current.Store(cfg)
	events.Publish(events.Event{Type: events.ConfigChanged, Version: time.Now().UnixNano(), Source: "reload", At: time.Now()})
	return cfg, nil
}

// Raw returns the active config re-marshaled as YAML, for the text-form
// config surface.
func (p *Plane) Raw() ([]byte, error) {
	return marshalYAML(p.current.Load())
}

func (p *Plane) persist(cfg *models.Config) error {
	marshaled, err := marshalYAML(cfg)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p.path)
	tmp, err := os.CreateTemp(dir, ".config-*.yaml.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(marshaled); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	p.writeMu.Lock()
	p.lastWritten = marshaled
	p.writeMu.Unlock()
	if err := os.Rename(tmpPath, p.path); err != nil {
		return err
	}
	return nil
}

// WatchFile starts an fsnotify watch on the config file; out-of-band edits
// (someone hand-editing the YAML) feed the same validated reload path.
// Returns a stop function.
func (p *Plane) WatchFile() (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("build file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch config dir: %w", err)
	}
	p.watcher = watcher
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(p.path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				raw, err := os.ReadFile(p.path)
				if err != nil {
					p.logger.Warn("config watch: read failed", zap.Error(err))
					continue
				}
				p.writeMu.Lock()
				selfWrite := bytes.Equal(raw, p.lastWritten)
				p.writeMu.Unlock()
				if selfWrite {
					// This write was produced by our own persist() (a direct
					// Reload or a prior iteration of this same watch loop),
					// not an out-of-band edit. Applying it again would
					// re-persist the identical document, re-trigger this
					// same event, and loop forever.
					continue
				}
				if _, err := p.Reload(raw); err != nil {
					p.logger.Warn("config watch: reload rejected", zap.Error(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				p.logger.Warn("config watch error", zap.Error(err))
			}
		}
	}()
	return func() { watcher.Close() }, nil
}
