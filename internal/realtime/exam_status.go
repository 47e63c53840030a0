package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"
)

type ExamStatusOptions struct {
	URL           string
	Header        http.Header
	Backoff       Backoff
	PingInterval  time.Duration
	PongTimeout   time.Duration
	Logger        *slog.Logger
	OnMessage     func(Message)
	OnStateChange func(State)
}

// ExamStatusSnapshot is the latest exam state seen on the status channel.
type ExamStatusSnapshot struct {
	Status           string    `json:"status"`
	RemainingSeconds int       `json:"remaining_seconds"`
	SyncedAt         time.Time `json:"synced_at"`
	ActiveStudents   []UserRef `json:"active_students"`
	LastError        string    `json:"last_error,omitempty"`
	Connection       string    `json:"connection"`
}

type ExamStatusClient struct {
	conn      *Conn
	logger    *slog.Logger
	onMessage func(Message)

	mu       sync.RWMutex
	status   string
	remain   int
	syncedAt time.Time
	lastErr  string
	students map[string]UserRef
	now      func() time.Time
}

func NewExamStatusClient(opts ExamStatusOptions) *ExamStatusClient {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &ExamStatusClient{
		logger:    logger,
		onMessage: opts.OnMessage,
		students:  make(map[string]UserRef),
		now:       time.Now,
	}
	c.conn = NewConn(Options{
		URL:           opts.URL,
		Header:        opts.Header,
		Channel:       "exam_status",
		Backoff:       opts.Backoff,
		PingInterval:  opts.PingInterval,
		PongTimeout:   opts.PongTimeout,
		Logger:        logger,
		OnOpen:        c.onOpen,
		OnMessage:     c.handle,
		OnStateChange: opts.OnStateChange,
	})
	return c
}

func (c *ExamStatusClient) Run(ctx context.Context) error { return c.conn.Run(ctx) }

func (c *ExamStatusClient) State() State { return c.conn.State() }

func (c *ExamStatusClient) RequestStatus() error {
	return c.conn.Send(typeFrame{Type: "request_status"})
}

func (c *ExamStatusClient) onOpen() {
	if err := c.RequestStatus(); err != nil {
		c.logger.Warn("Failed to request exam status", "error", err)
	}
}

func (c *ExamStatusClient) handle(msg Message) {
	c.apply(msg)
	if c.onMessage != nil {
		c.onMessage(msg)
	}
}

func (c *ExamStatusClient) apply(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch msg.Type {
	case TypeExamStatus, TypeExamStatusUpdate:
		var st ExamStatus
		if err := msg.Decode(&st); err != nil {
			c.logger.Debug("Bad exam status frame", "error", err)
			return
		}
		if st.Status != "" {
			c.status = st.Status
		}
		if st.RemainingSeconds > 0 || st.Status != "" {
			c.remain = st.RemainingSeconds.Int()
			c.syncedAt = c.now()
		}
	case TypeTimerSync:
		var ts TimerSync
		if err := msg.Decode(&ts); err != nil {
			return
		}
		c.remain = ts.RemainingSeconds.Int()
		c.syncedAt = c.now()
	case TypeStudentJoined:
		var ev StudentEvent
		if err := msg.Decode(&ev); err == nil && ev.Student.ID != "" {
			c.students[ev.Student.ID.String()] = ev.Student
		}
	case TypeStudentLeft:
		var ev StudentEvent
		if err := msg.Decode(&ev); err == nil {
			delete(c.students, ev.Student.ID.String())
		}
	case TypeActiveStudents:
		var as ActiveStudents
		if err := msg.Decode(&as); err != nil {
			return
		}
		c.students = make(map[string]UserRef, len(as.Students))
		for _, s := range as.Students {
			if s.ID != "" {
				c.students[s.ID.String()] = s
			}
		}
	case TypeError:
		var em ErrorMessage
		if err := msg.Decode(&em); err == nil {
			c.lastErr = em.Message
		}
	}
}

// Snapshot returns the current view; remaining time is extrapolated from the last sync.
func (c *ExamStatusClient) Snapshot() ExamStatusSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	remaining := c.remain
	if !c.syncedAt.IsZero() && remaining > 0 {
		remaining -= int(c.now().Sub(c.syncedAt).Seconds())
		if remaining < 0 {
			remaining = 0
		}
	}

	students := make([]UserRef, 0, len(c.students))
	for _, s := range c.students {
		students = append(students, s)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })

	return ExamStatusSnapshot{
		Status:           c.status,
		RemainingSeconds: remaining,
		SyncedAt:         c.syncedAt,
		ActiveStudents:   students,
		LastError:        c.lastErr,
		Connection:       c.conn.State().String(),
	}
}
