package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quotedesk/quotedesk/internal/annotation"
	"github.com/quotedesk/quotedesk/internal/cache"
	"github.com/quotedesk/quotedesk/internal/config"
	"github.com/quotedesk/quotedesk/internal/domain"
	"github.com/quotedesk/quotedesk/internal/events"
	"github.com/quotedesk/quotedesk/internal/logger"
	"github.com/quotedesk/quotedesk/internal/view"
	"github.com/quotedesk/quotedesk/internal/worker"
	"go.uber.org/zap"
)

// OrderGateway is the data-access contract the desk depends on. The
// repository package provides the production implementation.
type OrderGateway interface {
	FetchAll(ctx context.Context) ([]domain.Order, error)
	FetchDetail(ctx context.Context, id int64) (*domain.Order, error)
	PersistStatus(ctx context.Context, id int64, status string) error
	AvailableStatuses(ctx context.Context) ([]string, error)
	RecentlyChanged(ctx context.Context, since time.Duration) ([]domain.PartialOrder, error)
	ActiveGroups(ctx context.Context) ([]domain.CustomGroup, error)
}

// DeskService owns the order cache and sequences every mutation through a
// single apply goroutine: gateway calls run on the worker pool and deliver
// their results as closures posted back to that goroutine, so the cache
// needs no locking. Results are applied in completion order; the per-write
// token recorded by the cache keeps a late completion from clobbering a
// newer intent.
type DeskService struct {
	gateway     OrderGateway
	annotations *annotation.Store
	cache       *cache.Cache
	bus         *events.Bus
	pool        *worker.Pool
	refreshCfg  *config.RefreshConfig
	logger      *zap.Logger

	apply    chan func()
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// saves feeds a dedicated goroutine that writes annotations to disk
	// one at a time. Enqueued only from the apply goroutine, so saves for
	// the same order land in the order the levels were cycled.
	saves     chan annotationSave
	savesDone chan struct{}

	// statuses is the last vocabulary fetched from the store; read and
	// written only on the apply goroutine.
	statuses []string
}

func NewDeskService(
	gateway OrderGateway,
	annotations *annotation.Store,
	bus *events.Bus,
	pool *worker.Pool,
	refreshCfg *config.RefreshConfig,
	logger *zap.Logger,
) *DeskService {
	return &DeskService{
		gateway:     gateway,
		annotations: annotations,
		cache:       cache.New(),
		bus:         bus,
		pool:        pool,
		refreshCfg:  refreshCfg,
		logger:      logger,
		apply:       make(chan func(), 128),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		saves:       make(chan annotationSave, 64),
		savesDone:   make(chan struct{}),
		statuses:    domain.FallbackStatuses(),
	}
}

type annotationSave struct {
	id  int64
	ann domain.Annotation
}

// Start launches the apply goroutine and kicks off the initial vocabulary
// fetch and order refresh.
func (s *DeskService) Start() {
	go s.run()
	go s.saveLoop()
	s.RefreshStatuses()
	s.RefreshOrders()
}

// Stop shuts the apply goroutine down and drains the pending annotation
// saves. In-flight gateway results arriving afterwards are abandoned; none
// of them has partial-commit side effects.
func (s *DeskService) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		<-s.done
		close(s.saves)
		<-s.savesDone
	})
}

func (s *DeskService) saveLoop() {
	defer close(s.savesDone)
	for req := range s.saves {
		if err := s.annotations.Save(req.id, req.ann); err != nil {
			logger.WithOrder(s.logger, req.id).Warn("annotation save failed", zap.Error(err))
		}
	}
}

func (s *DeskService) run() {
	defer close(s.done)
	for {
		select {
		case fn := <-s.apply:
			fn()
		case <-s.quit:
			return
		}
	}
}

// post delivers fn to the apply goroutine; after shutdown it is dropped.
func (s *DeskService) post(fn func()) {
	select {
	case s.apply <- fn:
	case <-s.quit:
	}
}

// call runs fn on the apply goroutine and waits for it. Returns false when
// the service stopped before fn could run.
func (s *DeskService) call(fn func()) bool {
	ran := make(chan struct{})
	s.post(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
		return true
	case <-s.quit:
		return false
	}
}

func (s *DeskService) queryCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.refreshCfg.QueryTimeoutDuration())
}

// RefreshOrders fetches the full order list off the interaction goroutine
// and replaces the cache wholesale when it succeeds. A gateway failure
// leaves the cache unchanged: stale-but-consistent data beats a cleared
// list.
func (s *DeskService) RefreshOrders() {
	err := s.pool.Submit(func() {
		ctx, cancel := s.queryCtx()
		defer cancel()

		orders, err := s.gateway.FetchAll(ctx)
		if err != nil {
			s.logger.Warn("order refresh failed, cache unchanged", zap.Error(err))
			return
		}

		annotations := s.annotations.LoadAll()
		s.post(func() {
			s.cache.Refresh(orders, func(id int64) domain.Annotation {
				return annotations[id]
			})
			s.bus.Publish(events.Event{
				Type:       events.TypeCacheRefreshed,
				OrderCount: len(orders),
			})
			s.logger.Debug("cache refreshed", zap.Int("orders", len(orders)))
		})
	})
	if err != nil {
		s.logger.Warn("could not dispatch order refresh", zap.Error(err))
	}
}

// RefreshStatuses re-reads the backend-defined status vocabulary. On
// failure the previous (or fallback) vocabulary stays in effect.
func (s *DeskService) RefreshStatuses() {
	err := s.pool.Submit(func() {
		ctx, cancel := s.queryCtx()
		defer cancel()

		values, err := s.gateway.AvailableStatuses(ctx)
		if err != nil {
			s.logger.Warn("status vocabulary fetch failed, keeping previous", zap.Error(err))
			return
		}
		if len(values) == 0 {
			return
		}
		s.post(func() {
			s.statuses = values
		})
	})
	if err != nil {
		s.logger.Warn("could not dispatch status vocabulary fetch", zap.Error(err))
	}
}

// PollRecentChanges applies server-side status changes observed within the
// configured window. Orders with a write in flight are left to their
// pending resolution.
func (s *DeskService) PollRecentChanges() {
	err := s.pool.Submit(func() {
		ctx, cancel := s.queryCtx()
		defer cancel()

		partials, err := s.gateway.RecentlyChanged(ctx, s.refreshCfg.RecentWindowDuration())
		if err != nil {
			s.logger.Warn("recent-changes poll failed", zap.Error(err))
			return
		}
		if len(partials) == 0 {
			return
		}

		s.post(func() {
			for _, p := range partials {
				if s.cache.UpdateStatus(p.ID, p.Status, p.ModifiedAt) {
					s.bus.Publish(events.Event{
						Type:    events.TypeOrderStatusChanged,
						OrderID: p.ID,
						Status:  p.Status,
					})
				}
			}
		})
	})
	if err != nil {
		s.logger.Warn("could not dispatch recent-changes poll", zap.Error(err))
	}
}

// View runs the projection over the current cache under the given filter
// state.
func (s *DeskService) View(state view.State) ([]domain.CachedOrder, error) {
	var rows []domain.CachedOrder
	if !s.call(func() {
		rows = view.Project(s.cache.Snapshot(), state)
	}) {
		return nil, ErrStopped
	}
	return rows, nil
}

// Order returns one cached order.
func (s *DeskService) Order(id int64) (domain.CachedOrder, error) {
	var (
		row   domain.CachedOrder
		found bool
	)
	if !s.call(func() {
		row, found = s.cache.Get(id)
	}) {
		return domain.CachedOrder{}, ErrStopped
	}
	if !found {
		return domain.CachedOrder{}, ErrUnknownOrder
	}
	return row, nil
}

// Statuses returns the current status vocabulary.
func (s *DeskService) Statuses() ([]string, error) {
	var values []string
	if !s.call(func() {
		values = append([]string(nil), s.statuses...)
	}) {
		return nil, ErrStopped
	}
	return values, nil
}

// OrderDetail fetches the full joined detail for one order directly from
// the gateway, with its annotation attached. Detail reads do not touch the
// cache.
func (s *DeskService) OrderDetail(ctx context.Context, id int64) (*domain.Order, domain.Annotation, error) {
	order, err := s.gateway.FetchDetail(ctx, id)
	if err != nil {
		return nil, domain.Annotation{}, err
	}
	return order, s.annotations.Load(id), nil
}

// ActiveGroups lists the active custom groups.
func (s *DeskService) ActiveGroups(ctx context.Context) ([]domain.CustomGroup, error) {
	return s.gateway.ActiveGroups(ctx)
}

// ChangeStatus applies a user-initiated status change: validate against
// the vocabulary, no-op on an equal status, apply optimistically, then
// persist in the background. On success the entry is confirmed; on failure
// it rolls back and the displayed status reverts. A newer request for the
// same order supersedes an in-flight one; the superseded persist completes
// and its result is discarded.
func (s *DeskService) ChangeStatus(id int64, newStatus string) error {
	var (
		opErr   error
		changed bool
		token   uuid.UUID
	)
	if !s.call(func() {
		valid := false
		for _, v := range s.statuses {
			if v == newStatus {
				valid = true
				break
			}
		}
		if !valid {
			opErr = fmt.Errorf("%w: %q", domain.ErrInvalidStatus, newStatus)
			return
		}

		row, found := s.cache.Get(id)
		if !found {
			opErr = ErrUnknownOrder
			return
		}
		if row.Order.Status == newStatus {
			return
		}

		token, _, _ = s.cache.ApplyOptimistic(id, newStatus)
		changed = true

		s.bus.Publish(events.Event{
			Type:    events.TypeOrderStatusChanged,
			OrderID: id,
			Status:  newStatus,
		})
	}) {
		return ErrStopped
	}
	if opErr != nil || !changed {
		return opErr
	}

	err := s.pool.Submit(func() {
		ctx, cancel := s.queryCtx()
		defer cancel()

		persistErr := s.gateway.PersistStatus(ctx, id, newStatus)
		s.post(func() {
			s.resolveWrite(id, token, newStatus, persistErr)
		})
	})
	if err != nil {
		// Could not even dispatch the persist: roll back right away.
		s.logger.Warn("could not dispatch status persist",
			zap.Int64("order_id", id),
			zap.Error(err))
		s.post(func() {
			s.resolveWrite(id, token, newStatus, err)
		})
	}
	return nil
}

// resolveWrite completes a pending status write on the apply goroutine.
// The cache's token check makes a superseded completion a silent no-op.
func (s *DeskService) resolveWrite(id int64, token uuid.UUID, newStatus string, persistErr error) {
	if persistErr == nil {
		if s.cache.Confirm(id, token, newStatus, time.Now().UTC()) {
			s.logger.Info("order status persisted",
				zap.Int64("order_id", id),
				zap.String("status", newStatus))
		}
		return
	}

	restored, ok := s.cache.Rollback(id, token)
	if !ok {
		// Superseded by a newer write; the failure no longer matters.
		return
	}

	logger.WithOrder(s.logger, id).Warn("status persist failed, rolled back",
		zap.String("attempted", newStatus),
		zap.String("restored", restored),
		zap.Error(persistErr))
	s.bus.Publish(events.Event{
		Type:    events.TypeOrderStatusChanged,
		OrderID: id,
		Status:  restored,
	})
}

// CycleSelection advances the order's selection level, persists the
// annotation and notifies subscribers. Persistence failures are logged;
// the in-memory level stays, surviving until the next successful save.
func (s *DeskService) CycleSelection(id int64) (domain.Annotation, error) {
	var (
		ann   domain.Annotation
		found bool
	)
	if !s.call(func() {
		ann, found = s.cache.CycleSelection(id, time.Now().UTC())
		if !found {
			return
		}

		level := ann.SelectionLevel
		ev := events.Event{
			Type:           events.TypeAnnotationChanged,
			OrderID:        id,
			SelectionLevel: &level,
		}
		if ann.ChangedAt != nil {
			ev.ChangedAt = ann.ChangedAt.UTC().Format(time.RFC3339)
		}
		s.bus.Publish(ev)

		select {
		case s.saves <- annotationSave{id: id, ann: ann}:
		case <-s.quit:
		}
	}) {
		return domain.Annotation{}, ErrStopped
	}
	if !found {
		return domain.Annotation{}, ErrUnknownOrder
	}
	return ann, nil
}
