package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/jobqueue/internal/clock"
	"github.com/viant/jobqueue/internal/idgen"
	"github.com/viant/jobqueue/service/messaging"
)

// MessageState represents the state of a journaled message
type MessageState string

const (
	MessageStatePending    MessageState = "pending"
	MessageStateProcessing MessageState = "processing"
	MessageStateCompleted  MessageState = "completed"
	MessageStateFailed     MessageState = "failed"
)

// Message is a journal entry; its file moves between state directories.
type Message[T any] struct {
	ID        string       `json:"id"`
	Data      T            `json:"data"`
	State     MessageState `json:"state"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Retries   int          `json:"retries"`

	name      string
	queue     *Queue[T]
	processed bool
	mu        sync.Mutex
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack moves the message to the completed directory.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.ID)
	}
	m.processed = true
	m.State = MessageStateCompleted
	m.UpdatedAt = clock.Now()
	return m.queue.settle(context.Background(), m, m.queue.completedDir)
}

// Nack returns the message to pending, or to the dead letter directory once
// MaxRetries is exhausted.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.ID)
	}
	m.processed = true
	m.Retries++
	m.UpdatedAt = clock.Now()
	if err != nil {
		m.Error = err.Error()
	}
	if m.Retries > m.queue.config.MaxRetries {
		m.State = MessageStateFailed
		return m.queue.settle(context.Background(), m, m.queue.dlqDir)
	}
	m.State = MessageStatePending
	return m.queue.settle(context.Background(), m, m.queue.pendingDir)
}

// QueueConfig holds configuration for the filesystem journal
type QueueConfig struct {
	BaseURL      string
	MaxRetries   int
	PollInterval time.Duration
}

// DefaultConfig returns a default journal configuration rooted at baseURL
func DefaultConfig(baseURL string) QueueConfig {
	return QueueConfig{
		BaseURL:      baseURL,
		MaxRetries:   3,
		PollInterval: 50 * time.Millisecond,
	}
}

// Queue is a messaging.Queue whose messages are JSON files on any afs
// storage. Messages are consumed in publication order.
type Queue[T any] struct {
	fs            afs.Service
	config        QueueConfig
	sequence      *idgen.Sequence
	pendingDir    string
	processingDir string
	completedDir  string
	dlqDir        string
	mu            sync.Mutex
}

// NewQueue creates the journal directories under config.BaseURL.
func NewQueue[T any](ctx context.Context, fs afs.Service, config QueueConfig) (*Queue[T], error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig("").PollInterval
	}
	q := &Queue[T]{
		fs:            fs,
		config:        config,
		sequence:      idgen.NewSequence(0),
		pendingDir:    url.Join(config.BaseURL, string(MessageStatePending)),
		processingDir: url.Join(config.BaseURL, string(MessageStateProcessing)),
		completedDir:  url.Join(config.BaseURL, string(MessageStateCompleted)),
		dlqDir:        url.Join(config.BaseURL, "dlq"),
	}
	for _, dir := range []string{q.pendingDir, q.processingDir, q.completedDir, q.dlqDir} {
		if exists, _ := fs.Exists(ctx, dir); exists {
			continue
		}
		if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return q, nil
}

// Publish writes t into the pending directory.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	now := clock.Now()
	message := &Message[T]{
		ID:        idgen.New(),
		Data:      *t,
		State:     MessageStatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	message.name = fmt.Sprintf("%019d-%08d.json", now.UnixNano(), q.sequence.Next())
	return q.write(ctx, url.Join(q.pendingDir, message.name), message)
}

// Consume waits for the oldest pending message and moves it to processing.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	for {
		message, err := q.next(ctx)
		if err != nil {
			return nil, err
		}
		if message != nil {
			return message, nil
		}
		if err = clock.Sleep(ctx, q.config.PollInterval); err != nil {
			return nil, err
		}
	}
}

// Pending returns the number of messages waiting to be consumed.
func (q *Queue[T]) Pending(ctx context.Context) (int, error) {
	names, err := q.list(ctx, q.pendingDir)
	return len(names), err
}

func (q *Queue[T]) next(ctx context.Context) (*Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	names, err := q.list(ctx, q.pendingDir)
	if err != nil || len(names) == 0 {
		return nil, err
	}
	name := names[0]
	source := url.Join(q.pendingDir, name)
	message, err := q.read(ctx, source)
	if err != nil {
		_ = q.fs.Move(ctx, source, url.Join(q.dlqDir, "invalid-"+name))
		return nil, err
	}
	message.name = name
	message.queue = q
	message.State = MessageStateProcessing
	message.UpdatedAt = clock.Now()
	if err = q.write(ctx, url.Join(q.processingDir, name), message); err != nil {
		return nil, err
	}
	if err = q.fs.Delete(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to delete pending message %s: %w", name, err)
	}
	return message, nil
}

// settle rewrites m into dir and removes its processing copy.
func (q *Queue[T]) settle(ctx context.Context, m *Message[T], dir string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.write(ctx, url.Join(dir, m.name), m); err != nil {
		return err
	}
	processing := url.Join(q.processingDir, m.name)
	if exists, _ := q.fs.Exists(ctx, processing); exists {
		if err := q.fs.Delete(ctx, processing); err != nil {
			return fmt.Errorf("failed to delete processing message %s: %w", m.name, err)
		}
	}
	return nil
}

func (q *Queue[T]) list(ctx context.Context, dir string) ([]string, error) {
	objects, err := q.fs.List(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var names []string
	for _, object := range objects {
		if !object.IsDir() && strings.HasSuffix(object.Name(), ".json") {
			names = append(names, path.Base(object.Name()))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (q *Queue[T]) write(ctx context.Context, URL string, message *Message[T]) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message %s: %w", message.ID, err)
	}
	return q.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data))
}

func (q *Queue[T]) read(ctx context.Context, URL string) (*Message[T], error) {
	data, err := q.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", URL, err)
	}
	message := &Message[T]{}
	if err := json.Unmarshal(data, message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", URL, err)
	}
	return message, nil
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
