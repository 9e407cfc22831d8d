package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wallet-sentry/internal/helius"
)

// fakeSource returns a fixed address list.
type fakeSource struct {
	mu    sync.Mutex
	addrs []string
}

func (f *fakeSource) Addresses(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.addrs...), nil
}

func (f *fakeSource) set(addrs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addrs = addrs
}

// fakeClient records pushes and can fail on demand.
type fakeClient struct {
	mu       sync.Mutex
	hooks    []helius.Webhook
	creates  int
	updates  int
	deletes  int
	pushed   [][]string
	failPush error
	done     chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{done: make(chan struct{}, 16)}
}

func (f *fakeClient) WebhookURL() string { return "https://example.com/helius" }

func (f *fakeClient) List(context.Context) ([]helius.Webhook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]helius.Webhook(nil), f.hooks...), nil
}

func (f *fakeClient) Create(_ context.Context, addrs []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPush != nil {
		f.signal()
		return "", f.failPush
	}
	f.creates++
	f.hooks = append(f.hooks, helius.Webhook{WebhookID: "wh-1", WebhookURL: f.WebhookURL()})
	f.pushed = append(f.pushed, addrs)
	f.signal()
	return "wh-1", nil
}

func (f *fakeClient) Update(_ context.Context, id string, addrs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPush != nil {
		f.signal()
		return f.failPush
	}
	f.updates++
	f.pushed = append(f.pushed, addrs)
	f.signal()
	return nil
}

func (f *fakeClient) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	f.hooks = nil
	f.signal()
	return nil
}

func (f *fakeClient) signal() {
	select {
	case f.done <- struct{}{}:
	default:
	}
}

func (f *fakeClient) lastPush() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pushed) == 0 {
		return nil
	}
	return f.pushed[len(f.pushed)-1]
}

func waitSignal(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sync")
	}
}

func TestSyncer_CreatesWebhookOnFirstSync(t *testing.T) {
	source := &fakeSource{}
	source.set("addr1", "addr2")
	client := newFakeClient()
	s := New(source, client, zap.NewNop())

	require.NoError(t, s.syncOnce(context.Background()))

	assert.Equal(t, 1, client.creates)
	assert.Equal(t, []string{"addr1", "addr2"}, client.lastPush())
}

func TestSyncer_AdoptsExistingWebhook(t *testing.T) {
	source := &fakeSource{}
	source.set("addr1")
	client := newFakeClient()
	client.hooks = []helius.Webhook{
		{WebhookID: "other", WebhookURL: "https://unrelated.example.com"},
		{WebhookID: "wh-9", WebhookURL: client.WebhookURL()},
	}
	s := New(source, client, zap.NewNop())

	require.NoError(t, s.syncOnce(context.Background()))

	assert.Zero(t, client.creates)
	assert.Equal(t, 1, client.updates)
	assert.Equal(t, "wh-9", s.webhookID)
}

func TestSyncer_EmptyRegistryTearsDown(t *testing.T) {
	source := &fakeSource{}
	client := newFakeClient()
	client.hooks = []helius.Webhook{{WebhookID: "wh-1", WebhookURL: client.WebhookURL()}}
	s := New(source, client, zap.NewNop())

	require.NoError(t, s.syncOnce(context.Background()))
	assert.Equal(t, 1, client.deletes)
	assert.Empty(t, s.webhookID)
}

func TestSyncer_PushFailureDoesNotPropagate(t *testing.T) {
	source := &fakeSource{}
	source.set("addr1")
	client := newFakeClient()
	client.failPush = errors.New("network down")
	s := New(source, client, zap.NewNop(), WithReconcileInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// Trigger must not block or panic even though every push fails.
	s.Trigger()
	waitSignal(t, client.done)
	assert.Nil(t, client.lastPush())
}

func TestSyncer_TriggersCoalesce(t *testing.T) {
	source := &fakeSource{}
	source.set("addr1")
	client := newFakeClient()
	s := New(source, client, zap.NewNop())

	// Many triggers before the loop starts collapse into a single run.
	for i := 0; i < 10; i++ {
		s.Trigger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	waitSignal(t, client.done)
	// Allow any (incorrect) extra runs to surface.
	time.Sleep(50 * time.Millisecond)

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, 1, client.creates+client.updates)
}

func TestSyncer_MutationAfterSyncSchedulesFollowUp(t *testing.T) {
	source := &fakeSource{}
	source.set("addr1")
	client := newFakeClient()
	s := New(source, client, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Trigger()
	waitSignal(t, client.done)

	source.set("addr1", "addr2")
	s.Trigger()
	waitSignal(t, client.done)

	assert.Equal(t, []string{"addr1", "addr2"}, client.lastPush())
}
