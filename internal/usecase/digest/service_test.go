package digest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"industry-mailer/internal/adapters/repo"
	"industry-mailer/internal/domain"
	"industry-mailer/internal/infra/cache"
)

type fakeSource struct {
	mu       sync.Mutex
	calls    int
	articles []domain.Article
	err      error
	block    chan struct{}
}

func (f *fakeSource) Fetch(_ context.Context, keywords string, days, limit int) ([]domain.Article, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.articles, f.err
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []domain.Message
	fail  map[string]error
	panic map[string]bool
}

func (f *fakeMailer) Send(_ context.Context, msg domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panic[msg.To] {
		panic("smtp exploded")
	}
	if err := f.fail[msg.To]; err != nil {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fixture struct {
	store   *repo.Memory
	topic   domain.Topic
	subIDs  []int64
	source  *fakeSource
	mailer  *fakeMailer
	service *Service
}

func newFixture(t *testing.T, subscribers int) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repo.NewMemory()
	topic, err := store.CreateTopic(ctx, domain.Topic{Name: "Energy", Keywords: "oil,solar", IsActive: true})
	require.NoError(t, err)

	f := &fixture{
		store:  store,
		topic:  topic,
		source: &fakeSource{articles: []domain.Article{{Title: "Solar", URL: "https://x/1", Source: "Wire", Summary: "Sun."}}},
		mailer: &fakeMailer{},
	}
	for i := 0; i < subscribers; i++ {
		u, _, err := store.EnsureUser(ctx, fmt.Sprintf("user%d@example.com", i), "")
		require.NoError(t, err)
		sub, err := store.CreateSubscription(ctx, domain.Subscription{UserID: u.ID, TopicID: topic.ID})
		require.NoError(t, err)
		f.subIDs = append(f.subIDs, sub.ID)
	}
	f.service = NewService(store, store, f.source, f.mailer, cache.NewLocalLocker(), zerolog.Nop(), Options{})
	return f
}

func (f *fixture) lastSent(t *testing.T, id int64) *time.Time {
	t.Helper()
	sub, err := f.store.GetSubscription(context.Background(), id)
	require.NoError(t, err)
	return sub.LastSentAt
}

func TestDispatchDeliversToAllSubscribers(t *testing.T) {
	f := newFixture(t, 3)

	report, err := f.service.DispatchForTopic(context.Background(), f.topic.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, report.SubscriberCount)
	assert.Equal(t, 1, report.ArticleCount)
	assert.Equal(t, 3, report.Delivered)
	assert.Zero(t, report.Failed)
	assert.NotEmpty(t, report.RunID)
	require.Len(t, f.mailer.sent, 3)
	assert.Equal(t, "Energy Industry Newsletter - Top Stories", f.mailer.sent[0].Subject)
	assert.Equal(t, f.mailer.sent[0].HTML, f.mailer.sent[2].HTML, "письмо строится один раз для всех")
	for _, id := range f.subIDs {
		assert.NotNil(t, f.lastSent(t, id))
	}
}

func TestDispatchIsolatesDeliveryFailures(t *testing.T) {
	f := newFixture(t, 3)
	f.mailer.fail = map[string]error{"user1@example.com": errors.New("mailbox unavailable")}

	report, err := f.service.DispatchForTopic(context.Background(), f.topic.ID, 7)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Delivered)
	assert.Equal(t, 1, report.Failed)
	assert.NotNil(t, f.lastSent(t, f.subIDs[0]))
	assert.Nil(t, f.lastSent(t, f.subIDs[1]))
	assert.NotNil(t, f.lastSent(t, f.subIDs[2]))
	require.Len(t, report.Deliveries, 3)
	assert.False(t, report.Deliveries[1].Delivered)
	assert.Contains(t, report.Deliveries[1].Error, "mailbox unavailable")
}

func TestDispatchRecoversMailerPanic(t *testing.T) {
	f := newFixture(t, 2)
	f.mailer.panic = map[string]bool{"user0@example.com": true}

	report, err := f.service.DispatchForTopic(context.Background(), f.topic.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Delivered)
	assert.Equal(t, 1, report.Failed)
	assert.Nil(t, f.lastSent(t, f.subIDs[0]))
	assert.NotNil(t, f.lastSent(t, f.subIDs[1]))
}

func TestDispatchNoContent(t *testing.T) {
	f := newFixture(t, 2)
	f.source.articles = nil

	_, err := f.service.DispatchForTopic(context.Background(), f.topic.ID, 1)
	require.ErrorIs(t, err, domain.ErrNoContent)
	assert.Empty(t, f.mailer.sent)
	for _, id := range f.subIDs {
		assert.Nil(t, f.lastSent(t, id))
	}
}

func TestDispatchNoSubscribersSkipsFetch(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.service.DispatchForTopic(context.Background(), f.topic.ID, 1)
	require.ErrorIs(t, err, domain.ErrNoSubscribers)
	assert.Zero(t, f.source.calls)
}

func TestDispatchUnknownTopic(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.service.DispatchForTopic(context.Background(), 9999, 1)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDispatchRejectsWindow(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.service.DispatchForTopic(context.Background(), f.topic.ID, 2)
	require.ErrorIs(t, err, domain.ErrInvalidWindow)
	assert.Zero(t, f.source.calls)
}

func TestDispatchPropagatesFetchError(t *testing.T) {
	f := newFixture(t, 1)
	f.source.err = &domain.UpstreamError{Provider: "newsapi", Status: 429, Message: "rateLimited"}

	_, err := f.service.DispatchForTopic(context.Background(), f.topic.ID, 1)
	var upErr *domain.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "rateLimited", upErr.Message)
	assert.Empty(t, f.mailer.sent)
}

func TestDispatchConcurrentTriggerIsRejected(t *testing.T) {
	f := newFixture(t, 1)
	f.source.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.service.DispatchForTopic(context.Background(), f.topic.ID, 1)
		done <- err
	}()

	require.Eventually(t, func() bool {
		f.source.mu.Lock()
		defer f.source.mu.Unlock()
		return f.source.calls == 1
	}, time.Second, 5*time.Millisecond)

	_, err := f.service.DispatchForTopic(context.Background(), f.topic.ID, 1)
	require.ErrorIs(t, err, domain.ErrDispatchInProgress)

	close(f.source.block)
	require.NoError(t, <-done)
	assert.Len(t, f.mailer.sent, 1)
}

func TestPreviewDoesNotSend(t *testing.T) {
	f := newFixture(t, 2)

	preview, err := f.service.PreviewForTopic(context.Background(), f.topic.ID, 30)
	require.NoError(t, err)
	assert.Len(t, preview.Articles, 1)
	assert.Contains(t, preview.HTML, "Energy Industry Newsletter")
	assert.Empty(t, f.mailer.sent)
	assert.Nil(t, f.lastSent(t, f.subIDs[0]))
}

type cancelAfterFirstMailer struct {
	cancel context.CancelFunc
	sent   int
}

func (m *cancelAfterFirstMailer) Send(ctx context.Context, _ domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.sent++
	m.cancel()
	return nil
}

type ctxAwareSubs struct {
	domain.SubscriptionRepo
	marked []int64
}

func (s *ctxAwareSubs) MarkSent(ctx context.Context, ids []int64, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.marked = append(s.marked, ids...)
	return s.SubscriptionRepo.MarkSent(ctx, ids, at)
}

func TestDispatchMarksDeliveredAfterCancel(t *testing.T) {
	f := newFixture(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mailer := &cancelAfterFirstMailer{cancel: cancel}
	subs := &ctxAwareSubs{SubscriptionRepo: f.store}
	svc := NewService(f.store, subs, f.source, mailer, cache.NewLocalLocker(), zerolog.Nop(), Options{})

	report, err := svc.DispatchForTopic(ctx, f.topic.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Delivered)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []int64{f.subIDs[0]}, subs.marked)
	assert.NotNil(t, f.lastSent(t, f.subIDs[0]))
	assert.Nil(t, f.lastSent(t, f.subIDs[1]))
}
