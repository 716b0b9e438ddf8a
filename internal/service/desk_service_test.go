package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/quotedesk/quotedesk/internal/annotation"
	"github.com/quotedesk/quotedesk/internal/config"
	"github.com/quotedesk/quotedesk/internal/domain"
	"github.com/quotedesk/quotedesk/internal/events"
	"github.com/quotedesk/quotedesk/internal/service"
	"github.com/quotedesk/quotedesk/internal/view"
	"github.com/quotedesk/quotedesk/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeGateway is a controllable in-memory order store.
type fakeGateway struct {
	mu       sync.Mutex
	orders   []domain.Order
	partials []domain.PartialOrder
	statuses []string

	fetchErr   error
	persistErr error
	// persistGate blocks PersistStatus calls for blockStatus until released
	persistGate chan struct{}
	blockStatus string
	persisted   []string
}

func (g *fakeGateway) FetchAll(ctx context.Context) ([]domain.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	out := make([]domain.Order, len(g.orders))
	copy(out, g.orders)
	return out, nil
}

func (g *fakeGateway) FetchDetail(ctx context.Context, id int64) (*domain.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, o := range g.orders {
		if o.ID == id {
			detail := o
			return &detail, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (g *fakeGateway) PersistStatus(ctx context.Context, id int64, status string) error {
	g.mu.Lock()
	gate := g.persistGate
	blocked := g.blockStatus == status
	err := g.persistErr
	g.mu.Unlock()

	if gate != nil && blocked {
		<-gate
	}
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.persisted = append(g.persisted, status)
	g.mu.Unlock()
	return nil
}

func (g *fakeGateway) AvailableStatuses(ctx context.Context) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.statuses...), nil
}

func (g *fakeGateway) RecentlyChanged(ctx context.Context, since time.Duration) ([]domain.PartialOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.PartialOrder(nil), g.partials...), nil
}

func (g *fakeGateway) ActiveGroups(ctx context.Context) ([]domain.CustomGroup, error) {
	return []domain.CustomGroup{{ID: 1, Name: "Priority", Color: "#FF5722", IsActive: true}}, nil
}

func testOrder(id int64, status string) domain.Order {
	return domain.Order{
		ID:          id,
		Client:      domain.Client{ID: id, Name: "Client", Phone: "555"},
		Offers:      `[{"price": 1000}]`,
		Status:      status,
		SubmittedAt: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		ModifiedAt:  time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newDesk(t *testing.T, gw *fakeGateway) (*service.DeskService, *events.Bus) {
	t.Helper()
	return newDeskAt(t, gw, filepath.Join(t.TempDir(), "selected.json"))
}

func newDeskAt(t *testing.T, gw *fakeGateway, storePath string) (*service.DeskService, *events.Bus) {
	t.Helper()

	log := zap.NewNop()
	cfg := &config.RefreshConfig{
		FullInterval:   60,
		RecentInterval: 10,
		RecentWindow:   60,
		QueryTimeout:   5,
		Workers:        4,
		QueueSize:      32,
	}
	store := annotation.NewStore(storePath, log)
	bus := events.NewBus(log)
	pool := worker.NewPool(cfg.Workers, cfg.QueueSize, log)

	desk := service.NewDeskService(gw, store, bus, pool, cfg, log)
	desk.Start()
	t.Cleanup(func() {
		desk.Stop()
		pool.Stop()
		bus.Close()
	})
	return desk, bus
}

func statusOf(t *testing.T, desk *service.DeskService, id int64) string {
	t.Helper()
	row, err := desk.Order(id)
	require.NoError(t, err)
	return row.Order.Status
}

func waitForOrders(t *testing.T, desk *service.DeskService, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		rows, err := desk.View(view.State{})
		return err == nil && len(rows) == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStart_LoadsOrdersIntoView(t *testing.T) {
	gw := &fakeGateway{
		orders:   []domain.Order{testOrder(1, "Pending"), testOrder(2, "Accepted")},
		statuses: domain.FallbackStatuses(),
	}
	desk, _ := newDesk(t, gw)

	waitForOrders(t, desk, 2)
	assert.Equal(t, "Pending", statusOf(t, desk, 1))
}

func TestRefresh_FailureLeavesCacheUnchanged(t *testing.T) {
	gw := &fakeGateway{
		orders:   []domain.Order{testOrder(1, "Pending")},
		statuses: domain.FallbackStatuses(),
	}
	desk, _ := newDesk(t, gw)
	waitForOrders(t, desk, 1)

	gw.mu.Lock()
	gw.fetchErr = errors.New("connection refused")
	gw.mu.Unlock()

	desk.RefreshOrders()

	// Give the failed refresh time to land, then confirm nothing changed
	time.Sleep(50 * time.Millisecond)
	rows, err := desk.View(view.State{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestChangeStatus_PersistsAndConfirms(t *testing.T) {
	gw := &fakeGateway{
		orders:   []domain.Order{testOrder(1, "Pending")},
		statuses: domain.FallbackStatuses(),
	}
	desk, _ := newDesk(t, gw)
	waitForOrders(t, desk, 1)

	require.NoError(t, desk.ChangeStatus(1, "Accepted"))

	// Optimistic status is visible immediately
	assert.Equal(t, "Accepted", statusOf(t, desk, 1))

	require.Eventually(t, func() bool {
		row, err := desk.Order(1)
		return err == nil && !row.PendingWrite
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "Accepted", statusOf(t, desk, 1))
	gw.mu.Lock()
	defer gw.mu.Unlock()
	assert.Equal(t, []string{"Accepted"}, gw.persisted)
}

func TestChangeStatus_RollsBackOnPersistFailure(t *testing.T) {
	gw := &fakeGateway{
		orders:     []domain.Order{testOrder(1, "Pending")},
		statuses:   domain.FallbackStatuses(),
		persistErr: errors.New("write failed"),
	}
	desk, _ := newDesk(t, gw)
	waitForOrders(t, desk, 1)

	require.NoError(t, desk.ChangeStatus(1, "Accepted"))

	// The failed write reverts the displayed status
	require.Eventually(t, func() bool {
		row, err := desk.Order(1)
		return err == nil && !row.PendingWrite && row.Order.Status == "Pending"
	}, 2*time.Second, 10*time.Millisecond)

	// And the rollback is visible through the projection too
	rows, err := desk.View(view.State{Status: "Pending"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestChangeStatus_LateSupersededSuccessDoesNotClobber(t *testing.T) {
	gw := &fakeGateway{
		orders:   []domain.Order{testOrder(1, "Pending")},
		statuses: domain.FallbackStatuses(),
	}
	desk, _ := newDesk(t, gw)
	waitForOrders(t, desk, 1)

	// First write blocks inside the gateway
	gate := make(chan struct{})
	gw.mu.Lock()
	gw.persistGate = gate
	gw.blockStatus = "Accepted"
	gw.mu.Unlock()

	require.NoError(t, desk.ChangeStatus(1, "Accepted"))

	// Second write supersedes it and completes freely
	require.NoError(t, desk.ChangeStatus(1, "Rejected"))
	require.Eventually(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return len(gw.persisted) == 1 && gw.persisted[0] == "Rejected"
	}, 2*time.Second, 10*time.Millisecond)

	// Release the first write; its stale result must be discarded
	close(gate)

	require.Eventually(t, func() bool {
		row, err := desk.Order(1)
		return err == nil && !row.PendingWrite
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "Rejected", statusOf(t, desk, 1))
}

func TestChangeStatus_RejectsUnknownStatus(t *testing.T) {
	gw := &fakeGateway{
		orders:   []domain.Order{testOrder(1, "Pending")},
		statuses: domain.FallbackStatuses(),
	}
	desk, _ := newDesk(t, gw)
	waitForOrders(t, desk, 1)

	err := desk.ChangeStatus(1, "Archived")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	assert.Equal(t, "Pending", statusOf(t, desk, 1))
}

func TestChangeStatus_UnknownOrder(t *testing.T) {
	gw := &fakeGateway{statuses: domain.FallbackStatuses()}
	desk, _ := newDesk(t, gw)

	err := desk.ChangeStatus(99, "Accepted")
	assert.ErrorIs(t, err, service.ErrUnknownOrder)
}

func TestChangeStatus_SameStatusIsNoop(t *testing.T) {
	gw := &fakeGateway{
		orders:   []domain.Order{testOrder(1, "Pending")},
		statuses: domain.FallbackStatuses(),
	}
	desk, _ := newDesk(t, gw)
	waitForOrders(t, desk, 1)

	require.NoError(t, desk.ChangeStatus(1, "Pending"))

	time.Sleep(50 * time.Millisecond)
	gw.mu.Lock()
	defer gw.mu.Unlock()
	assert.Empty(t, gw.persisted)
}

func TestPollRecentChanges_AppliesServerChanges(t *testing.T) {
	gw := &fakeGateway{
		orders:   []domain.Order{testOrder(1, "Pending")},
		statuses: domain.FallbackStatuses(),
	}
	desk, _ := newDesk(t, gw)
	waitForOrders(t, desk, 1)

	gw.mu.Lock()
	gw.partials = []domain.PartialOrder{
		{ID: 1, Status: "Accepted", ModifiedAt: time.Now().UTC(), CustomerName: "Client"},
	}
	gw.mu.Unlock()

	desk.PollRecentChanges()

	require.Eventually(t, func() bool {
		return statusOf(t, desk, 1) == "Accepted"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCycleSelection_AdvancesAndPublishes(t *testing.T) {
	gw := &fakeGateway{
		orders:   []domain.Order{testOrder(1, "Pending")},
		statuses: domain.FallbackStatuses(),
	}
	desk, bus := newDesk(t, gw)
	waitForOrders(t, desk, 1)

	id, ch := bus.Subscribe(16)
	defer bus.Unsubscribe(id)

	ann, err := desk.CycleSelection(1)
	require.NoError(t, err)
	assert.Equal(t, 1, ann.SelectionLevel)
	require.NotNil(t, ann.ChangedAt)

	select {
	case ev := <-ch:
		assert.Equal(t, events.TypeAnnotationChanged, ev.Type)
		assert.Equal(t, int64(1), ev.OrderID)
		require.NotNil(t, ev.SelectionLevel)
		assert.Equal(t, 1, *ev.SelectionLevel)
	case <-time.After(2 * time.Second):
		t.Fatal("no annotation event received")
	}

	// The selection survives a refresh once its save has landed
	require.Eventually(t, func() bool {
		desk.RefreshOrders()
		rows, err := desk.View(view.State{SelectedOnly: true})
		return err == nil && len(rows) == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestCycleSelection_RapidCyclesPersistFinalLevel(t *testing.T) {
	gw := &fakeGateway{
		orders:   []domain.Order{testOrder(1, "Pending")},
		statuses: domain.FallbackStatuses(),
	}
	path := filepath.Join(t.TempDir(), "selected.json")
	desk, _ := newDeskAt(t, gw, path)
	waitForOrders(t, desk, 1)

	// Back-to-back cycles race their disk writes unless the service
	// sequences them; the file must end up at the last level, not at
	// whichever write happened to land last.
	var ann domain.Annotation
	for i := 0; i < 5; i++ {
		var err error
		ann, err = desk.CycleSelection(1)
		require.NoError(t, err)
	}
	require.Equal(t, 5, ann.SelectionLevel)

	// Stop drains the pending saves before returning
	desk.Stop()

	reopened := annotation.NewStore(path, zap.NewNop())
	assert.Equal(t, 5, reopened.Load(1).SelectionLevel)
}

func TestCycleSelection_UnknownOrder(t *testing.T) {
	gw := &fakeGateway{statuses: domain.FallbackStatuses()}
	desk, _ := newDesk(t, gw)

	_, err := desk.CycleSelection(42)
	assert.ErrorIs(t, err, service.ErrUnknownOrder)
}

func TestStop_RejectsFurtherCalls(t *testing.T) {
	gw := &fakeGateway{statuses: domain.FallbackStatuses()}
	desk, _ := newDesk(t, gw)

	desk.Stop()

	_, err := desk.View(view.State{})
	assert.ErrorIs(t, err, service.ErrStopped)
}
