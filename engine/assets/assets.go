package assets

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/basalto/engine/core"
)

// Type classifies an indexed asset by what loads it.
type Type int

const (
	TypeNone Type = iota
	TypeImage
	TypeShaderSource
	TypeShaderBinary
	TypeFontAtlas
)

func (t Type) String() string {
	switch t {
	case TypeImage:
		return "image"
	case TypeShaderSource:
		return "shader-source"
	case TypeShaderBinary:
		return "shader-binary"
	case TypeFontAtlas:
		return "font-atlas"
	}
	return "none"
}

// Info is one entry of the asset index.
type Info struct {
	Path string
	Type Type
	Seen time.Time
}

// Event reports a change to an indexed asset. Consumers that fall
// behind lose events rather than stalling the watch loop.
type Event struct {
	Path string
	Type Type
	Op   fsnotify.Op
}

// Manager indexes an asset tree and keeps the index current through a
// recursive filesystem watch.
type Manager struct {
	index map[string]Info
	mutex sync.RWMutex

	watcher  *fsnotify.Watcher
	events   chan Event
	done     chan struct{}
	shutdown sync.Once
}

func NewManager() (*Manager, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Manager{
		index:   make(map[string]Info),
		watcher: watcher,
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
	}, nil
}

// Startup indexes every recognized file under root and begins
// watching the tree for changes.
func (m *Manager) Startup(root string) error {
	select {
	case <-m.done:
		return errors.New("asset manager already shut down")
	default:
	}
	go m.start()
	return m.watchRecursive(root, false)
}

// Shutdown stops the watch and closes the event feed. Safe to call
// more than once and from any goroutine.
func (m *Manager) Shutdown() {
	m.shutdown.Do(func() { close(m.done) })
}

// Events exposes the change feed. The channel closes on Shutdown.
func (m *Manager) Events() <-chan Event {
	return m.events
}

func (m *Manager) Lookup(path string) (Info, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	info, ok := m.index[path]
	return info, ok
}

// ByType returns the indexed assets of one type, ordered by path.
func (m *Manager) ByType(t Type) []Info {
	m.mutex.RLock()
	var out []Info
	for _, info := range m.index {
		if info.Type == t {
			out = append(out, info)
		}
	}
	m.mutex.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (m *Manager) start() {
	for {
		select {
		case e, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if st, err := os.Stat(e.Name); err == nil && st.IsDir() {
				// New directories join the watch; directory noise is
				// not an asset event.
				if e.Op&fsnotify.Create != 0 {
					if err := m.watchRecursive(e.Name, false); err != nil {
						core.LogWarn("failed to watch new directory %s: %s", e.Name, err)
					}
				}
				continue
			}
			assetType := determineAssetType(e.Name)
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				m.handleFileEvent(e.Name)
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				m.removeAsset(e.Name)
			}
			if assetType != TypeNone {
				m.publish(Event{Path: e.Name, Type: assetType, Op: e.Op})
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err.Error())

		case <-m.done:
			m.watcher.Close()
			close(m.events)
			return
		}
	}
}

func (m *Manager) publish(e Event) {
	select {
	case m.events <- e:
	default:
		core.LogWarn("asset event dropped, queue is full: %s", e.Path)
	}
}

// watchRecursive adds (or removes) every directory under path to the
// watch list and indexes the files it passes on the way.
func (m *Manager) watchRecursive(path string, unwatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unwatch {
				return m.watcher.Remove(walkPath)
			}
			return m.watcher.Add(walkPath)
		}
		m.handleFileEvent(walkPath)
		return nil
	})
}

func (m *Manager) handleFileEvent(path string) {
	assetType := determineAssetType(path)
	if assetType == TypeNone {
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.index[path] = Info{
		Path: path,
		Type: assetType,
		Seen: time.Now(),
	}
}

func (m *Manager) removeAsset(path string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.index, path)
}

func determineAssetType(path string) Type {
	switch filepath.Ext(path) {
	case ".png", ".jpg", ".jpeg", ".bmp":
		return TypeImage
	case ".wgsl":
		return TypeShaderSource
	case ".spv":
		return TypeShaderBinary
	case ".fnt":
		return TypeFontAtlas
	default:
		return TypeNone
	}
}
