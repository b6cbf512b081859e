package websocket

import (
	"errors"
	"sync"
	"time"
)

var (
	errMockClosed  = errors.New("mock connection closed")
	errNoMoreReads = errors.New("read queue drained")
)

// MockMessage is one frame recorded or replayed by MockConnection.
type MockMessage struct {
	Type int
	Data []byte
	Err  error
}

// MockConnection implements Connection for tests. ReadMessage replays
// frames queued with AddReadMessage and fails once the queue drains,
// which ends a client read pump the same way a dropped socket would.
type MockConnection struct {
	mu      sync.Mutex
	reads   []MockMessage
	written []MockMessage
	closed  bool

	readDeadline  time.Time
	writeDeadline time.Time
	readLimit     int64
	pongHandler   func(string) error
	remote        string
}

// NewMockConnection creates a mock connection with a loopback address.
func NewMockConnection() *MockConnection {
	return &MockConnection{remote: "127.0.0.1:8080"}
}

func (m *MockConnection) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errMockClosed
	}
	m.written = append(m.written, MockMessage{Type: messageType, Data: data})
	return nil
}

func (m *MockConnection) ReadMessage() (int, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, nil, errMockClosed
	}
	if len(m.reads) == 0 {
		return 0, nil, errNoMoreReads
	}
	msg := m.reads[0]
	m.reads = m.reads[1:]
	return msg.Type, msg.Data, msg.Err
}

func (m *MockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockConnection) SetReadDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readDeadline = t
	return nil
}

func (m *MockConnection) SetWriteDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeDeadline = t
	return nil
}

func (m *MockConnection) SetReadLimit(limit int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readLimit = limit
}

func (m *MockConnection) SetPongHandler(h func(string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pongHandler = h
}

func (m *MockConnection) RemoteAddr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remote
}

// IsClosed reports whether Close has been called.
func (m *MockConnection) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ReadDeadline returns the last deadline set via SetReadDeadline.
func (m *MockConnection) ReadDeadline() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readDeadline
}

// WriteDeadline returns the last deadline set via SetWriteDeadline.
func (m *MockConnection) WriteDeadline() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeDeadline
}

// AddReadMessage queues a frame for ReadMessage to return.
func (m *MockConnection) AddReadMessage(messageType int, data []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads = append(m.reads, MockMessage{Type: messageType, Data: data, Err: err})
}

// GetWrittenMessages returns a copy of everything written so far.
func (m *MockConnection) GetWrittenMessages() []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockMessage, len(m.written))
	copy(out, m.written)
	return out
}
