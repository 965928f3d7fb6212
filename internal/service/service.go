package service

import (
	"catalog/storefront/internal/client"
	"catalog/storefront/internal/domain"
	"catalog/storefront/internal/domain/task"
	"catalog/storefront/internal/queue"
	"catalog/storefront/internal/repository"
	"catalog/storefront/internal/selector"
	"catalog/storefront/internal/state"
	"catalog/storefront/internal/view"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	log "github.com/sirupsen/logrus"
)

var ErrProductNotFound = errors.New("product not found")

const defaultMinIdleTime = 2 * time.Minute

type Service struct {
	client      client.CatalogClient
	store       state.SelectionStore
	queue       queue.Queue // nil when intents are saved directly
	repository  repository.OrderIntentRepository
	builder     *view.Builder
	minIdleTime time.Duration
	now         func() time.Time

	mutex   sync.RWMutex
	catalog *domain.Catalog
	loading bool
	loadErr error
}

func NewService(
	client client.CatalogClient,
	store state.SelectionStore,
	queue queue.Queue,
	repository repository.OrderIntentRepository,
	builder *view.Builder,
	minIdleTime int,
) *Service {
	idle := time.Duration(minIdleTime) * time.Second
	if idle <= 0 {
		idle = defaultMinIdleTime
	}

	return &Service{
		client:      client,
		store:       store,
		queue:       queue,
		repository:  repository,
		builder:     builder,
		minIdleTime: idle,
		now:         time.Now,
		loading:     true,
	}
}

// LoadCatalog performs the one catalog fetch of the process. A failure leaves
// the catalog unloaded and is kept for the error banner; it is not retried.
func (s *Service) LoadCatalog(ctx context.Context) error {
	log.Info("🔄 Loading product catalog...")

	catalog, err := s.client.FetchCatalog(ctx)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.loading = false

	if err != nil {
		s.loadErr = err
		log.Errorf("❌ Failed to load catalog: %v", err)
		return err
	}

	s.catalog = catalog
	if !catalog.HasFirstGroups() {
		log.Warnf("⚠️ %v", domain.ErrEmptyCatalog)
		return nil
	}

	log.Infof("✅ Catalog loaded: %d product types", len(catalog.FirstGroups))
	return nil
}

// Loading reports whether the startup fetch is still in flight.
func (s *Service) Loading() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.loading
}

func (s *Service) LoadErr() error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.loadErr
}

// Page renders the current selection of a session.
func (s *Service) Page(ctx context.Context, sessionID string) (view.Page, error) {
	sel, err := s.restore(ctx, sessionID)
	if err != nil {
		return view.Page{}, err
	}
	return s.page(sel), nil
}

// SelectFirst selects a product type for the session and stores the new position.
func (s *Service) SelectFirst(ctx context.Context, sessionID string, index int) (view.Page, error) {
	return s.update(ctx, sessionID, func(sel *selector.Selector) error {
		return sel.SelectFirst(index)
	})
}

// SelectSecond selects a region of the current product type.
func (s *Service) SelectSecond(ctx context.Context, sessionID string, index int) (view.Page, error) {
	return s.update(ctx, sessionID, func(sel *selector.Selector) error {
		return sel.SelectSecond(index)
	})
}

// Order records the intent to buy a product and returns it with its checkout URL.
func (s *Service) Order(ctx context.Context, sessionID string, productID int) (*domain.OrderIntent, error) {
	s.mutex.RLock()
	catalog := s.catalog
	s.mutex.RUnlock()

	if catalog == nil {
		return nil, selector.ErrNotLoaded
	}

	product, ok := catalog.ProductByID(productID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}

	intent := &domain.OrderIntent{
		ID:          ulid.Make().String(),
		ProductID:   product.ID,
		ProductName: product.Name,
		SessionID:   sessionID,
		CheckoutURL: s.builder.CheckoutURL(product.ID),
		CreatedAt:   s.now().UTC(),
	}

	if s.queue == nil {
		if err := s.repository.SaveOrderIntent(ctx, intent); err != nil {
			return nil, err
		}
		return intent, nil
	}

	messageID, err := s.queue.AddTask(ctx, &task.OrderIntentTask{Intent: *intent})
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue order intent: %w", err)
	}
	log.Debugf("Queued order intent for product %d as %s", product.ID, messageID)

	return intent, nil
}

func (s *Service) update(ctx context.Context, sessionID string, apply func(*selector.Selector) error) (view.Page, error) {
	sel, err := s.restore(ctx, sessionID)
	if err != nil {
		return view.Page{}, err
	}

	if err := apply(sel); err != nil {
		return view.Page{}, err
	}

	if err := s.store.SetSelection(ctx, sessionID, sel.Position()); err != nil {
		return view.Page{}, err
	}
	return s.page(sel), nil
}

// restore rebuilds the selector of a session from the loaded catalog and the
// stored position. A stored position that does not fit the catalog is reset.
func (s *Service) restore(ctx context.Context, sessionID string) (*selector.Selector, error) {
	s.mutex.RLock()
	catalog := s.catalog
	s.mutex.RUnlock()

	sel := selector.New()
	if catalog == nil {
		return sel, nil
	}
	sel.Load(catalog)

	pos, err := s.store.GetSelection(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := sel.Restore(pos); err != nil {
		log.Warnf("⚠️ Resetting stale selection %+v for session %s: %v", pos, sessionID, err)
		if err := s.store.SetSelection(ctx, sessionID, sel.Position()); err != nil {
			return nil, err
		}
	}
	return sel, nil
}

func (s *Service) page(sel *selector.Selector) view.Page {
	page := s.builder.Build(sel)

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	page.Loading = s.loading
	page.Banner = domain.BannerMessage(s.loadErr)
	return page
}

// RunWorkers consumes queued order intents until ctx is cancelled.
func (s *Service) RunWorkers(ctx context.Context, numWorkers int) error {
	if s.queue == nil {
		log.Info("No order queue configured, workers not started")
		return nil
	}

	var wg sync.WaitGroup
	s.runWorkersForStream(ctx, &wg, max(1, numWorkers), task.OrderIntentTaskType)
	wg.Wait()
	return nil
}

func (s *Service) runWorkersForStream(ctx context.Context, wg *sync.WaitGroup, numWorkers int, taskType string) {
	// Auto-claimer for this stream
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.minIdleTime)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				consumer := fmt.Sprintf("autoclaimer-%d", time.Now().UnixNano())
				claimedMessages, err := s.queue.AutoClaim(ctx, consumer, taskType, s.minIdleTime)
				if err != nil {
					log.Errorf("❌ Failed to auto-claim messages for %s: %v", taskType, err)
					continue
				}
				if len(claimedMessages) > 0 {
					log.Infof("🔄 Auto-claimed %d %s messages", len(claimedMessages), taskType)
					for _, msg := range claimedMessages {
						if err := s.processMessage(ctx, msg); err != nil {
							log.Errorf("❌ Failed to process auto-claimed message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}
	}()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consumer := fmt.Sprintf("order-worker-%d", workerID)
			log.Infof("🚀 Starting worker %d as consumer %s", workerID, consumer)
			for {
				select {
				case <-ctx.Done():
					log.Infof("🛑 Worker %d stopping", workerID)
					return
				default:
					msg, err := s.queue.GetTask(ctx, consumer, taskType)
					if err != nil {
						if ctx.Err() == nil {
							log.Errorf("❌ Failed to get %s: %v", taskType, err)
						}
						continue
					}

					if msg != nil {
						if err := s.processMessage(ctx, msg); err != nil {
							log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}(i + 1)
	}
}

func (s *Service) processMessage(ctx context.Context, msg *queue.Message) error {
	switch msg.TaskType {
	case task.OrderIntentTaskType:
		orderTask, err := task.UnmarshalTask[task.OrderIntentTask](msg.Data)
		if err != nil {
			return fmt.Errorf("failed to unmarshal order intent task: %w", err)
		}

		if err := s.repository.SaveOrderIntent(ctx, &orderTask.Intent); err != nil {
			// left pending, the auto-claimer picks it up again
			return err
		}

	default:
		return fmt.Errorf("unknown task type: %s", msg.TaskType)
	}

	if err := s.queue.AckTask(ctx, msg); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}

	return nil
}
