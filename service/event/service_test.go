package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

type machineView struct {
	ID   int
	Free int
}

func TestService_EmitAndListen(t *testing.T) {
	srv, err := New(VendorMemory)
	require.NoError(t, err)
	defer srv.Close()

	var mux sync.Mutex
	var received []string
	srv.SetListener(func(e *Event[any]) {
		mux.Lock()
		defer mux.Unlock()
		received = append(received, e.Context.EventType)
	})

	ctx := srv.WithContext(context.Background())
	Emit[*machineView](ctx, &Context{EventType: TypeMachineCreated, MachineID: 4}, &machineView{ID: 4, Free: 64})
	Emit[*machineView](ctx, &Context{EventType: TypeMachineTerminated, MachineID: 4}, &machineView{ID: 4, Free: 64})

	assert.Eventually(t, func() bool {
		mux.Lock()
		defer mux.Unlock()
		return len(received) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{TypeMachineCreated, TypeMachineTerminated}, received)
}

func TestService_TypedPublisher(t *testing.T) {
	srv, err := New(VendorMemory)
	require.NoError(t, err)

	publisher, err := PublisherOf[*machineView](srv)
	require.NoError(t, err)
	again, err := PublisherOf[*machineView](srv)
	require.NoError(t, err)
	assert.Same(t, publisher, again)

	ctx := context.Background()
	require.NoError(t, publisher.Publish(ctx, NewEvent[*machineView](&Context{EventType: TypeJobPlaced}, &machineView{ID: 1})))
	received, err := publisher.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, received.Data.ID)
}

func TestService_Journal(t *testing.T) {
	srv, err := New(VendorFS, WithJournal(afs.New(), t.TempDir()))
	require.NoError(t, err)
	defer srv.Close()

	var mux sync.Mutex
	var machines []int
	srv.SetListener(func(e *Event[any]) {
		mux.Lock()
		defer mux.Unlock()
		machines = append(machines, e.Context.MachineID)
	})
	ctx := srv.WithContext(context.Background())
	for _, id := range []int{3, 1, 2} {
		Emit[*machineView](ctx, &Context{EventType: TypeMachineCreated, MachineID: id}, &machineView{ID: id, Free: 64})
	}
	assert.Eventually(t, func() bool {
		mux.Lock()
		defer mux.Unlock()
		return len(machines) == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int{3, 1, 2}, machines)
}

func TestNew_UnsupportedVendor(t *testing.T) {
	_, err := New("kafka")
	assert.Error(t, err)
	_, err = New(VendorFS)
	assert.Error(t, err)
}

func TestEmit_WithoutService(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit[int](context.Background(), &Context{EventType: TypeJobFinished}, 1)
	})
}

func TestService_CloseStopsTypedListeners(t *testing.T) {
	srv, err := New(VendorMemory)
	require.NoError(t, err)
	require.NoError(t, SetListenerOf[*machineView](srv, func(*Event[*machineView]) {}))
	srv.SetListener(func(*Event[any]) {})

	listener := srv.typedListeners[keyOf[*machineView]()].(*Listener[*machineView])
	srv.Close()

	select {
	case <-listener.done:
	case <-time.After(time.Second):
		t.Fatal("typed listener still running")
	}
	assert.Empty(t, srv.typedListeners)
	assert.Nil(t, srv.listener)
}
