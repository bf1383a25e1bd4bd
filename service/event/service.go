package event

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"github.com/viant/jobqueue/service/messaging"
	"github.com/viant/jobqueue/service/messaging/fs"
	"github.com/viant/jobqueue/service/messaging/memory"
)

const (
	// VendorMemory keeps events in bounded in-process queues.
	VendorMemory messaging.Vendor = "memory"
	// VendorFS journals events as JSON files under the journal URL.
	VendorFS messaging.Vendor = "fs"
)

type contextKey string

// ContextKey is used to attach the event service to a run context.
const ContextKey contextKey = "jobqueue.event"

type Service struct {
	publisher         *Publisher[any]
	listener          *Listener[any]
	typedPublishers   map[reflect.Type]any
	typedListeners    map[reflect.Type]any
	mux               sync.RWMutex
	queueVendor       messaging.Vendor
	memNewQueueConfig func(name string) memory.Config
	fs                afs.Service
	journalURL        string
	logger            logrus.FieldLogger
}

func New(queueVendor messaging.Vendor, opts ...Option) (*Service, error) {
	ret := &Service{
		queueVendor:     queueVendor,
		typedPublishers: make(map[reflect.Type]any),
		typedListeners:  make(map[reflect.Type]any),
		logger:          logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	switch queueVendor {
	case VendorMemory:
	case VendorFS:
		if ret.journalURL == "" {
			return nil, fmt.Errorf("journal URL is required for %s vendor", queueVendor)
		}
		if ret.fs == nil {
			ret.fs = afs.New()
		}
	default:
		return nil, fmt.Errorf("unsupported queue vendor: %s", queueVendor)
	}
	if ret.memNewQueueConfig == nil {
		ret.memNewQueueConfig = func(string) memory.Config {
			config := memory.DefaultConfig()
			config.DropOldest = true
			return config
		}
	}
	queue, err := QueueOf[Event[any]](ret, "any")
	if err != nil {
		return nil, err
	}
	ret.publisher = NewPublisher[any](queue)
	return ret, nil
}

// SetListener registers a handler for every event published through the service.
func (s *Service) SetListener(handler func(*Event[any])) {
	if s.listener != nil {
		s.listener.Stop()
	}
	s.listener = NewListener[any](s.publisher, handler, s.logger)
	s.listener.Start()
}

type stopper interface {
	Stop()
}

// Close stops the untyped listener and every typed listener.
func (s *Service) Close() {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.listener != nil {
		s.listener.Stop()
		s.listener = nil
	}
	for key, listener := range s.typedListeners {
		listener.(stopper).Stop()
		delete(s.typedListeners, key)
	}
}

// WithContext attaches the service to ctx.
func (s *Service) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextKey, s)
}

// FromContext returns the service attached to ctx, if any.
func FromContext(ctx context.Context) *Service {
	if ctx == nil {
		return nil
	}
	if s, ok := ctx.Value(ContextKey).(*Service); ok {
		return s
	}
	return nil
}

func QueueOf[T any](s *Service, name string) (messaging.Queue[T], error) {
	switch s.queueVendor {
	case VendorMemory:
		return memory.NewQueue[T](s.memNewQueueConfig(name)), nil
	case VendorFS:
		return fs.NewQueue[T](context.Background(), s.fs, fs.DefaultConfig(url.Join(s.journalURL, name)))
	}
	return nil, fmt.Errorf("unsupported queue vendor: %s", s.queueVendor)
}

func keyOf[T any]() reflect.Type {
	var t T
	rType := reflect.TypeOf(t)
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	return rType
}

// PublisherOf returns a publisher for the provided type
func PublisherOf[T any](s *Service) (*Publisher[T], error) {
	key := keyOf[T]()
	s.mux.RLock()
	ret, ok := s.typedPublishers[key]
	s.mux.RUnlock()
	if ok {
		return ret.(*Publisher[T]), nil
	}
	queue, err := QueueOf[Event[T]](s, key.String())
	if err != nil {
		return nil, err
	}
	publisher := NewPublisher[T](queue)
	publisher.anyQueue = s.publisher.queue
	s.mux.Lock()
	defer s.mux.Unlock()
	if existing, ok := s.typedPublishers[key]; ok {
		return existing.(*Publisher[T]), nil
	}
	s.typedPublishers[key] = publisher
	return publisher, nil
}

func SetListenerOf[T any](s *Service, handler func(*Event[T])) error {
	key := keyOf[T]()
	s.mux.RLock()
	ret, ok := s.typedListeners[key]
	s.mux.RUnlock()
	if ok {
		ret.(*Listener[T]).Stop()
	}
	publisher, err := PublisherOf[T](s)
	if err != nil {
		return err
	}
	listener := NewListener[T](publisher, handler, s.logger)
	s.mux.Lock()
	s.typedListeners[key] = listener
	s.mux.Unlock()
	listener.Start()
	return nil
}

// Emit publishes data with eCtx using the service attached to ctx. It is a
// no-op when the context carries no event service.
func Emit[T any](ctx context.Context, eCtx *Context, data T) {
	service := FromContext(ctx)
	if service == nil {
		return
	}
	publisher, err := PublisherOf[T](service)
	if err != nil {
		service.logger.WithError(err).Warn("failed to get event publisher")
		return
	}
	if err = publisher.Publish(ctx, NewEvent[T](eCtx, data)); err != nil {
		service.logger.WithError(err).WithField("event", eCtx.EventType).Warn("failed to publish event")
	}
}
