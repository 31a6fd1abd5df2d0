package session

import "sync"

// MediaGate tracks which capture surfaces the client reported as live and
// holds the baseline face snapshot taken during camera setup. The server
// never touches device APIs; it only gates phase transitions on what the
// client acquired.
type MediaGate struct {
	mu          sync.Mutex
	cameraOn    bool
	screenOn    bool
	fullscreen  bool
	baselineB64 string
	released    bool
}

func NewMediaGate() *MediaGate {
	return &MediaGate{}
}

// SetCamera records that the camera stream is (or is no longer) live.
func (m *MediaGate) SetCamera(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cameraOn = on
}

// SetScreenShare records the screen share state reported by the client.
func (m *MediaGate) SetScreenShare(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.screenOn = on
}

// SetFullscreen records the fullscreen state reported by the client.
func (m *MediaGate) SetFullscreen(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fullscreen = on
}

// SetBaseline stores the reference snapshot used for face re-verification.
func (m *MediaGate) SetBaseline(imageB64 string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baselineB64 = imageB64
}

// Baseline returns the stored reference snapshot, empty if none was taken.
func (m *MediaGate) Baseline() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baselineB64
}

func (m *MediaGate) CameraOn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cameraOn
}

func (m *MediaGate) ScreenShareOn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.screenOn
}

func (m *MediaGate) Fullscreen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fullscreen
}

// Release clears all capture state. Idempotent; called on every terminal
// path so a session never finishes with streams marked live.
func (m *MediaGate) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return
	}
	m.released = true
	m.cameraOn = false
	m.screenOn = false
	m.fullscreen = false
	m.baselineB64 = ""
}
