package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"catalog/storefront/internal/domain"
	"catalog/storefront/internal/domain/task"
	"catalog/storefront/internal/queue"
	"catalog/storefront/internal/selector"
	"catalog/storefront/internal/state"
	"catalog/storefront/internal/view"
)

const checkoutTemplate = "https://shop.example/cart?pid={pid}"

type fakeClient struct {
	catalog *domain.Catalog
	err     error
}

func (c *fakeClient) FetchCatalog(context.Context) (*domain.Catalog, error) {
	return c.catalog, c.err
}

func (c *fakeClient) Close() error { return nil }

type fakeRepository struct {
	mutex   sync.Mutex
	intents []domain.OrderIntent
	err     error
}

func (r *fakeRepository) SaveOrderIntent(_ context.Context, intent *domain.OrderIntent) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.err != nil {
		return r.err
	}
	// unique intent_id, ON CONFLICT DO NOTHING
	for _, saved := range r.intents {
		if saved.ID == intent.ID {
			return nil
		}
	}
	r.intents = append(r.intents, *intent)
	return nil
}

func (r *fakeRepository) saved() []domain.OrderIntent {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]domain.OrderIntent(nil), r.intents...)
}

type fakeQueue struct {
	mutex    sync.Mutex
	messages chan *queue.Message
	acked    []string
	ackFails int
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{messages: make(chan *queue.Message, 16)}
}

func (q *fakeQueue) AddTask(_ context.Context, t task.Task) (string, error) {
	data, err := t.TaskValue()
	if err != nil {
		return "", err
	}
	id := time.Now().Format("150405.000000000")
	q.messages <- &queue.Message{ID: id, Stream: queue.StreamPrefix + t.TaskType(), TaskType: t.TaskType(), Data: data}
	return id, nil
}

func (q *fakeQueue) GetTask(ctx context.Context, _, _ string) (*queue.Message, error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(10 * time.Millisecond):
		return nil, nil
	}
}

func (q *fakeQueue) AckTask(_ context.Context, msg *queue.Message) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if q.ackFails > 0 {
		q.ackFails--
		return errors.New("connection reset")
	}
	q.acked = append(q.acked, msg.ID)
	return nil
}

func (q *fakeQueue) AutoClaim(context.Context, string, string, time.Duration) ([]*queue.Message, error) {
	return nil, nil
}

func (q *fakeQueue) ackedIDs() []string {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return append([]string(nil), q.acked...)
}

func testCatalog() *domain.Catalog {
	return &domain.Catalog{
		FirstGroups: []domain.FirstGroup{
			{
				Name: "Cloud,Elastic servers",
				Groups: []domain.SecondGroup{
					{Name: "US^United States", Products: []domain.Product{{ID: 7, Name: "Starter", Price: "9.90"}}},
					{Name: "JP^Japan", Products: []domain.Product{{ID: 8, Name: "Tokyo", Price: "19"}}},
				},
			},
			{Name: "Dedicated,Bare metal"},
		},
	}
}

func newTestService(t *testing.T, c *fakeClient, q queue.Queue, repo *fakeRepository) *Service {
	t.Helper()
	svc := NewService(c, state.NewMemorySelectionStore(time.Hour), q, repo, view.NewBuilder(checkoutTemplate), 1)
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

func TestPageWhileLoading(t *testing.T) {
	svc := newTestService(t, &fakeClient{}, nil, &fakeRepository{})

	page, err := svc.Page(context.Background(), "s1")
	require.NoError(t, err)
	require.True(t, page.Loading)
	require.Equal(t, "uninitialized", page.State)
}

func TestLoadCatalogFailureShowsBanner(t *testing.T) {
	loadErr := domain.NewLoadError("maintenance", errors.New("status 500"))
	svc := newTestService(t, &fakeClient{err: loadErr}, nil, &fakeRepository{})

	err := svc.LoadCatalog(context.Background())
	require.ErrorIs(t, err, loadErr)

	page, err := svc.Page(context.Background(), "s1")
	require.NoError(t, err)
	require.False(t, page.Loading)
	require.Equal(t, "maintenance", page.Banner)
	require.Equal(t, "uninitialized", page.State)

	_, err = svc.SelectFirst(context.Background(), "s1", 0)
	require.ErrorIs(t, err, selector.ErrNotLoaded)
}

func TestSelectionIsKeptPerSession(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &fakeClient{catalog: testCatalog()}, nil, &fakeRepository{})
	require.NoError(t, svc.LoadCatalog(ctx))

	page, err := svc.Page(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "United States", page.Title)

	page, err = svc.SelectSecond(ctx, "s1", 1)
	require.NoError(t, err)
	require.Equal(t, "Japan", page.Title)

	page, err = svc.Page(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 1, page.SelectedSecond)
	require.Equal(t, 8, page.Products[0].ID)

	page, err = svc.Page(ctx, "s2")
	require.NoError(t, err)
	require.Equal(t, 0, page.SelectedSecond)

	page, err = svc.SelectFirst(ctx, "s1", 1)
	require.NoError(t, err)
	require.Equal(t, view.NoRegionsText, page.NoRegions)
	require.False(t, page.HasRegion)

	_, err = svc.SelectFirst(ctx, "s1", 5)
	require.ErrorIs(t, err, selector.ErrFirstGroupOutOfRange)

	page, err = svc.Page(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 1, page.SelectedFirst)
}

func TestStaleSelectionIsReset(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemorySelectionStore(time.Hour)
	require.NoError(t, store.SetSelection(ctx, "s1", domain.Position{First: 9, Second: 0}))

	svc := NewService(&fakeClient{catalog: testCatalog()}, store, nil, &fakeRepository{}, view.NewBuilder(checkoutTemplate), 1)
	require.NoError(t, svc.LoadCatalog(ctx))

	page, err := svc.Page(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 0, page.SelectedFirst)

	pos, err := store.GetSelection(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, domain.Position{First: 0, Second: 0}, pos)
}

func TestOrderWithoutQueueSavesDirectly(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepository{}
	svc := newTestService(t, &fakeClient{catalog: testCatalog()}, nil, repo)
	require.NoError(t, svc.LoadCatalog(ctx))

	intent, err := svc.Order(ctx, "s1", 8)
	require.NoError(t, err)
	require.Equal(t, "https://shop.example/cart?pid=8", intent.CheckoutURL)
	require.Equal(t, "Tokyo", intent.ProductName)
	require.Equal(t, []domain.OrderIntent{*intent}, repo.saved())

	_, err = svc.Order(ctx, "s1", 99)
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestOrderBeforeLoad(t *testing.T) {
	svc := newTestService(t, &fakeClient{}, nil, &fakeRepository{})

	_, err := svc.Order(context.Background(), "s1", 7)
	require.ErrorIs(t, err, selector.ErrNotLoaded)
}

func TestWorkersPersistQueuedIntents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := &fakeRepository{}
	q := newFakeQueue()
	svc := newTestService(t, &fakeClient{catalog: testCatalog()}, q, repo)
	require.NoError(t, svc.LoadCatalog(ctx))

	_, err := svc.Order(ctx, "s1", 7)
	require.NoError(t, err)
	require.Empty(t, repo.saved())

	done := make(chan error, 1)
	go func() { done <- svc.RunWorkers(ctx, 2) }()

	require.Eventually(t, func() bool { return len(repo.saved()) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, 7, repo.saved()[0].ProductID)
	require.Eventually(t, func() bool { return len(q.ackedIDs()) == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestProcessMessageLeavesFailedIntentPending(t *testing.T) {
	q := newFakeQueue()
	repo := &fakeRepository{err: errors.New("db down")}
	svc := newTestService(t, &fakeClient{}, q, repo)

	data, err := (&task.OrderIntentTask{Intent: domain.OrderIntent{ProductID: 1}}).TaskValue()
	require.NoError(t, err)

	err = svc.processMessage(context.Background(), &queue.Message{ID: "1-0", TaskType: task.OrderIntentTaskType, Data: data})
	require.Error(t, err)
	require.Empty(t, q.ackedIDs())

	err = svc.processMessage(context.Background(), &queue.Message{ID: "2-0", TaskType: "Other"})
	require.Error(t, err)
}

func TestOrderIntentsGetDistinctIDs(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepository{}
	svc := newTestService(t, &fakeClient{catalog: testCatalog()}, nil, repo)
	require.NoError(t, svc.LoadCatalog(ctx))

	first, err := svc.Order(ctx, "s1", 7)
	require.NoError(t, err)
	second, err := svc.Order(ctx, "s1", 7)
	require.NoError(t, err)

	require.NotEmpty(t, first.ID)
	require.NotEqual(t, first.ID, second.ID)
	require.Len(t, repo.saved(), 2)
}

func TestRedeliveredIntentIsSavedOnce(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepository{}
	q := newFakeQueue()
	q.ackFails = 1
	svc := newTestService(t, &fakeClient{catalog: testCatalog()}, q, repo)
	require.NoError(t, svc.LoadCatalog(ctx))

	intent, err := svc.Order(ctx, "s1", 8)
	require.NoError(t, err)
	msg := <-q.messages

	// ack fails after the save, the auto-claimer hands the same message out again
	require.Error(t, svc.processMessage(ctx, msg))
	require.NoError(t, svc.processMessage(ctx, msg))

	saved := repo.saved()
	require.Len(t, saved, 1)
	require.Equal(t, intent.ID, saved[0].ID)
	require.Equal(t, []string{msg.ID}, q.ackedIDs())
}
