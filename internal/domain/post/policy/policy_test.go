package policy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/linkbrand/internal/domain/post/dao"
	"github.com/vadim/linkbrand/internal/domain/post/entity"
)

type fakePublisher struct {
	receipt *entity.PublishReceipt
	err     error

	metrics    *entity.MetricsUpdate
	metricsErr error

	deleteErr error

	published []entity.PublishRequest
	fetched   []string
	deleted   []string
	keys      []string
}

func (f *fakePublisher) Publish(_ context.Context, apiKey string, req entity.PublishRequest) (*entity.PublishReceipt, error) {
	f.keys = append(f.keys, apiKey)
	f.published = append(f.published, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}

func (f *fakePublisher) Delete(_ context.Context, _ string, externalID string) (*entity.DeleteReceipt, error) {
	f.deleted = append(f.deleted, externalID)
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return &entity.DeleteReceipt{Response: json.RawMessage(`{"status":"success"}`)}, nil
}

func (f *fakePublisher) FetchMetrics(_ context.Context, _ string, externalID string) (*entity.MetricsUpdate, error) {
	f.fetched = append(f.fetched, externalID)
	if f.metricsErr != nil {
		return nil, f.metricsErr
	}
	return f.metrics, nil
}

// recordingStore counts writes and can fail selected operations
type recordingStore struct {
	*dao.PostMemory
	writes          int
	failUpsert      error
	failSetPublish  error
	failTrackingID  error
	failUpdateState error
}

func (s *recordingStore) Upsert(ctx context.Context, post *entity.Post) error {
	s.writes++
	if s.failUpsert != nil {
		return s.failUpsert
	}
	return s.PostMemory.Upsert(ctx, post)
}

func (s *recordingStore) UpdateStatus(ctx context.Context, id string, status entity.Status, errorLog string) error {
	s.writes++
	if s.failUpdateState != nil {
		return s.failUpdateState
	}
	return s.PostMemory.UpdateStatus(ctx, id, status, errorLog)
}

func (s *recordingStore) SetPublished(ctx context.Context, id, linkedInPostID, ayrshareID string, at time.Time) error {
	s.writes++
	if s.failSetPublish != nil {
		return s.failSetPublish
	}
	return s.PostMemory.SetPublished(ctx, id, linkedInPostID, ayrshareID, at)
}

func (s *recordingStore) SetTrackingID(ctx context.Context, id, ayrshareID string) error {
	s.writes++
	if s.failTrackingID != nil {
		return s.failTrackingID
	}
	return s.PostMemory.SetTrackingID(ctx, id, ayrshareID)
}

func (s *recordingStore) UpdateMetrics(ctx context.Context, id string, metrics entity.Metrics) error {
	s.writes++
	return s.PostMemory.UpdateMetrics(ctx, id, metrics)
}

func (s *recordingStore) Delete(ctx context.Context, id string) error {
	s.writes++
	return s.PostMemory.Delete(ctx, id)
}

type staticKeys map[string]string

func (k staticKeys) AyrshareKey(_ context.Context, userID string) (string, error) {
	return k[userID], nil
}

var testNow = time.Now().UTC().Truncate(time.Second)

func newTestPolicy(t *testing.T, pub *fakePublisher) (*Policy, *recordingStore) {
	t.Helper()
	store := &recordingStore{PostMemory: dao.NewPostMemory()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := New(store, pub, staticKeys{"u1": "key-1"}, logger, WithClock(func() time.Time { return testNow }))
	return p, store
}

func publishInput(postID string) PublishInput {
	return PublishInput{
		PostID:  postID,
		UserID:  "u1",
		Title:   "Launch",
		Content: "Hello world",
		APIKey:  "key-1",
	}
}

func TestPublishNow_EndToEnd(t *testing.T) {
	pub := &fakePublisher{receipt: &entity.PublishReceipt{ID: "li-1", RefID: "ay-1"}}
	p, store := newTestPolicy(t, pub)
	ctx := context.Background()

	id := uuid.NewString()
	require.NoError(t, store.Upsert(ctx, &entity.Post{ID: id, UserID: "u1", Content: "Hello world", Status: entity.StatusDraft}))

	res := p.PublishNow(ctx, publishInput(id))
	require.True(t, res.Success, res.Message)

	got, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPublished, got.Status)
	assert.Equal(t, "li-1", got.LinkedInPostID)
	assert.Equal(t, "ay-1", got.AyrshareID)
	require.NotNil(t, got.PublishedTime)
	assert.True(t, got.PublishedTime.Equal(testNow))
	assert.Empty(t, got.ErrorLog)

	require.Len(t, pub.published, 1)
	assert.Equal(t, "Hello world", pub.published[0].Content)
	assert.Nil(t, pub.published[0].ScheduleDate)
	assert.Equal(t, entity.VisibilityPublic, pub.published[0].Options.Visibility)
	assert.Equal(t, []string{"key-1"}, pub.keys)
}

func TestPublishNow_FallsBackToFirstPostID(t *testing.T) {
	pub := &fakePublisher{receipt: &entity.PublishReceipt{FirstPostID: "urn:li:share:1", RefID: "ref"}}
	p, store := newTestPolicy(t, pub)

	id := uuid.NewString()
	res := p.PublishNow(context.Background(), publishInput(id))
	require.True(t, res.Success)

	got, _ := store.GetByID(context.Background(), id)
	assert.Equal(t, "urn:li:share:1", got.LinkedInPostID)
	assert.Equal(t, "ref", got.AyrshareID)
}

func TestPublishNow_DefaultsTitle(t *testing.T) {
	pub := &fakePublisher{receipt: &entity.PublishReceipt{ID: "li"}}
	p, _ := newTestPolicy(t, pub)

	in := publishInput(uuid.NewString())
	in.Title = ""
	res := p.PublishNow(context.Background(), in)
	require.True(t, res.Success)
	assert.Equal(t, entity.DefaultPostTitle, res.Post.Title)
}

func TestPublishNow_AggregatorFailureLeavesFailed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("Duplicate post")}
	p, store := newTestPolicy(t, pub)

	id := uuid.NewString()
	res := p.PublishNow(context.Background(), publishInput(id))
	assert.False(t, res.Success)
	assert.Equal(t, "Duplicate post", res.Message)
	assert.EqualError(t, res.Err, "Duplicate post")

	got, _ := store.GetByID(context.Background(), id)
	assert.Equal(t, entity.StatusFailed, got.Status)
	assert.Equal(t, "Duplicate post", got.ErrorLog)
	assert.Nil(t, got.PublishedTime)
}

func TestPublishNow_MissingAPIKeyTouchesNothing(t *testing.T) {
	pub := &fakePublisher{receipt: &entity.PublishReceipt{ID: "li-1"}}
	p, store := newTestPolicy(t, pub)

	in := publishInput(uuid.NewString())
	in.APIKey = "  "
	res := p.PublishNow(context.Background(), in)

	assert.False(t, res.Success)
	assert.Equal(t, entity.ErrMissingAPIKey.Error(), res.Message)
	assert.Contains(t, res.Message, "ayrshare API key")
	assert.ErrorIs(t, res.Err, entity.ErrMissingAPIKey)
	assert.Zero(t, store.writes)
	assert.Empty(t, pub.published)
}

func TestPublishNow_RequiresIdempotencyKey(t *testing.T) {
	pub := &fakePublisher{receipt: &entity.PublishReceipt{ID: "li-1"}}
	p, store := newTestPolicy(t, pub)

	res := p.PublishNow(context.Background(), publishInput(""))
	assert.False(t, res.Success)
	assert.Equal(t, entity.ErrMissingIdempotencyKey.Error(), res.Message)

	res = p.PublishNow(context.Background(), publishInput("not-a-uuid"))
	assert.False(t, res.Success)
	assert.Equal(t, entity.ErrInvalidIdempotencyKey.Error(), res.Message)

	assert.Zero(t, store.writes)
	assert.Empty(t, pub.published)
}

func TestPublishNow_InitialWriteFailureSkipsAggregator(t *testing.T) {
	pub := &fakePublisher{receipt: &entity.PublishReceipt{ID: "li-1"}}
	p, store := newTestPolicy(t, pub)
	store.failUpsert = errors.New("connection refused")

	res := p.PublishNow(context.Background(), publishInput(uuid.NewString()))
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "connection refused")
	assert.Empty(t, pub.published)
}

func TestPublishNow_ConfirmationFailureStillReportsSuccess(t *testing.T) {
	pub := &fakePublisher{receipt: &entity.PublishReceipt{ID: "li-1", RefID: "ay-1"}}
	p, store := newTestPolicy(t, pub)
	store.failSetPublish = errors.New("disk full")

	id := uuid.NewString()
	res := p.PublishNow(context.Background(), publishInput(id))
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "disk full")
	assert.Equal(t, "li-1", res.Post.LinkedInPostID)

	got, _ := store.GetByID(context.Background(), id)
	assert.Equal(t, entity.StatusPublishing, got.Status)

	stuck, err := p.DetectStuck(context.Background(), -time.Hour)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, id, stuck[0].ID)
}

func TestPublishNow_ReplayOfPublishedPostDoesNotRepost(t *testing.T) {
	pub := &fakePublisher{receipt: &entity.PublishReceipt{ID: "li-1", RefID: "ay-1"}}
	p, _ := newTestPolicy(t, pub)

	id := uuid.NewString()
	require.True(t, p.PublishNow(context.Background(), publishInput(id)).Success)

	res := p.PublishNow(context.Background(), publishInput(id))
	assert.True(t, res.Success)
	assert.Equal(t, entity.StatusPublished, res.Post.Status)
	assert.Len(t, pub.published, 1)
}

func TestPublishNow_RetryAfterFailureReentersWorkflow(t *testing.T) {
	pub := &fakePublisher{err: errors.New("rate limited")}
	p, store := newTestPolicy(t, pub)

	id := uuid.NewString()
	require.False(t, p.PublishNow(context.Background(), publishInput(id)).Success)

	pub.err = nil
	pub.receipt = &entity.PublishReceipt{ID: "li-2", RefID: "ay-2"}
	res := p.PublishNow(context.Background(), publishInput(id))
	require.True(t, res.Success)

	got, _ := store.GetByID(context.Background(), id)
	assert.Equal(t, entity.StatusPublished, got.Status)
	assert.Empty(t, got.ErrorLog)
	assert.Len(t, pub.published, 2)
}

func TestPublishNow_RejectsForeignPost(t *testing.T) {
	pub := &fakePublisher{receipt: &entity.PublishReceipt{ID: "li-1"}}
	p, store := newTestPolicy(t, pub)

	id := uuid.NewString()
	require.NoError(t, store.PostMemory.Upsert(context.Background(), &entity.Post{ID: id, UserID: "u2", Content: "x"}))

	res := p.PublishNow(context.Background(), publishInput(id))
	assert.False(t, res.Success)
	assert.Equal(t, entity.ErrPostNotOwned.Error(), res.Message)
	assert.Empty(t, pub.published)
}

func TestSchedule_Success(t *testing.T) {
	pub := &fakePublisher{receipt: &entity.PublishReceipt{FirstPostID: "sched-1"}}
	p, store := newTestPolicy(t, pub)

	id := uuid.NewString()
	at := testNow.Add(24 * time.Hour)
	res := p.Schedule(context.Background(), ScheduleInput{PublishInput: publishInput(id), ScheduledTime: at})
	require.True(t, res.Success, res.Message)

	got, _ := store.GetByID(context.Background(), id)
	assert.Equal(t, entity.StatusScheduled, got.Status)
	assert.Equal(t, "sched-1", got.AyrshareID)
	assert.Nil(t, got.PublishedTime)
	require.NotNil(t, got.ScheduledTime)
	assert.True(t, got.ScheduledTime.Equal(at))

	require.Len(t, pub.published, 1)
	require.NotNil(t, pub.published[0].ScheduleDate)
	assert.True(t, pub.published[0].ScheduleDate.Equal(at))
}

func TestSchedule_FailureLeavesFailedWithoutPublishedTime(t *testing.T) {
	pub := &fakePublisher{err: errors.New("API Error: 500 Internal Server Error")}
	p, store := newTestPolicy(t, pub)

	id := uuid.NewString()
	res := p.Schedule(context.Background(), ScheduleInput{PublishInput: publishInput(id), ScheduledTime: testNow.Add(time.Hour)})
	assert.False(t, res.Success)

	got, _ := store.GetByID(context.Background(), id)
	assert.Equal(t, entity.StatusFailed, got.Status)
	assert.NotEmpty(t, got.ErrorLog)
	assert.Nil(t, got.PublishedTime)
}

func TestSchedule_RejectsPastOrMissingTime(t *testing.T) {
	pub := &fakePublisher{receipt: &entity.PublishReceipt{ID: "x"}}
	p, store := newTestPolicy(t, pub)

	res := p.Schedule(context.Background(), ScheduleInput{PublishInput: publishInput(uuid.NewString())})
	assert.Equal(t, entity.ErrScheduledTimeRequired.Error(), res.Message)

	res = p.Schedule(context.Background(), ScheduleInput{PublishInput: publishInput(uuid.NewString()), ScheduledTime: testNow.Add(-time.Minute)})
	assert.Equal(t, entity.ErrScheduledTimeInPast.Error(), res.Message)

	assert.Zero(t, store.writes)
	assert.Empty(t, pub.published)
}

func TestSchedule_ConfirmationFailureIsDetectedAsStuck(t *testing.T) {
	pub := &fakePublisher{receipt: &entity.PublishReceipt{ID: "sched-1"}}
	p, _ := newTestPolicy(t, pub)
	p.store.(*recordingStore).failTrackingID = errors.New("timeout")

	id := uuid.NewString()
	res := p.Schedule(context.Background(), ScheduleInput{PublishInput: publishInput(id), ScheduledTime: testNow.Add(time.Hour)})
	assert.True(t, res.Success)

	stuck, err := p.DetectStuck(context.Background(), -time.Hour)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, entity.StatusScheduled, stuck[0].Status)
}

func TestPublishNow_StatusAlwaysInLifecycle(t *testing.T) {
	outcomes := []*fakePublisher{
		{receipt: &entity.PublishReceipt{ID: "li"}},
		{err: errors.New("boom")},
	}
	for _, pub := range outcomes {
		p, store := newTestPolicy(t, pub)
		id := uuid.NewString()
		p.PublishNow(context.Background(), publishInput(id))

		got, _ := store.GetByID(context.Background(), id)
		_, err := entity.ParseStatus(string(got.Status))
		assert.NoError(t, err)
		assert.NotEqual(t, entity.StatusPublishing, got.Status)
	}
}

func TestDeletePost(t *testing.T) {
	ctx := context.Background()

	t.Run("published post is removed externally and locally", func(t *testing.T) {
		pub := &fakePublisher{receipt: &entity.PublishReceipt{ID: "li-1", RefID: "ay-1"}}
		p, store := newTestPolicy(t, pub)
		id := uuid.NewString()
		require.True(t, p.PublishNow(ctx, publishInput(id)).Success)

		res, err := p.DeletePost(ctx, DeleteInput{UserID: "u1", PostID: id, APIKey: "key-1"})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Empty(t, res.Warning)
		assert.JSONEq(t, `{"status":"success"}`, string(res.Response))
		assert.Equal(t, []string{"li-1"}, pub.deleted)

		got, _ := store.GetByID(ctx, id)
		assert.Nil(t, got)
	})

	t.Run("scheduled post is removed by its tracking id", func(t *testing.T) {
		pub := &fakePublisher{receipt: &entity.PublishReceipt{ID: "ay-sched"}}
		p, store := newTestPolicy(t, pub)
		id := uuid.NewString()
		in := ScheduleInput{PublishInput: publishInput(id), ScheduledTime: testNow.Add(time.Hour)}
		require.True(t, p.Schedule(ctx, in).Success)

		res, err := p.DeletePost(ctx, DeleteInput{UserID: "u1", PostID: id, APIKey: "key-1"})
		require.NoError(t, err)
		assert.Empty(t, res.Warning)
		assert.Equal(t, []string{"ay-sched"}, pub.deleted)

		got, _ := store.GetByID(ctx, id)
		assert.Nil(t, got)
	})

	t.Run("external failure becomes a warning", func(t *testing.T) {
		pub := &fakePublisher{receipt: &entity.PublishReceipt{ID: "li-1"}, deleteErr: errors.New("not found")}
		p, store := newTestPolicy(t, pub)
		id := uuid.NewString()
		require.True(t, p.PublishNow(ctx, publishInput(id)).Success)

		res, err := p.DeletePost(ctx, DeleteInput{UserID: "u1", PostID: id, APIKey: "key-1"})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Contains(t, res.Warning, "not found")
		assert.Equal(t, []string{"li-1"}, pub.deleted)

		got, _ := store.GetByID(ctx, id)
		assert.Nil(t, got)
	})

	t.Run("missing key skips the external call", func(t *testing.T) {
		pub := &fakePublisher{receipt: &entity.PublishReceipt{ID: "li-1"}}
		p, _ := newTestPolicy(t, pub)
		id := uuid.NewString()
		require.True(t, p.PublishNow(ctx, publishInput(id)).Success)

		res, err := p.DeletePost(ctx, DeleteInput{UserID: "u1", PostID: id})
		require.NoError(t, err)
		assert.Contains(t, res.Warning, "API key")
		assert.Empty(t, pub.deleted)
	})

	t.Run("draft is deleted locally only", func(t *testing.T) {
		pub := &fakePublisher{}
		p, store := newTestPolicy(t, pub)
		id := uuid.NewString()
		require.NoError(t, store.Upsert(ctx, &entity.Post{ID: id, UserID: "u1", Content: "x"}))

		res, err := p.DeletePost(ctx, DeleteInput{UserID: "u1", PostID: id, APIKey: "key-1"})
		require.NoError(t, err)
		assert.Empty(t, res.Warning)
		assert.Empty(t, pub.deleted)
	})

	t.Run("unknown and foreign posts", func(t *testing.T) {
		p, store := newTestPolicy(t, &fakePublisher{})
		_, err := p.DeletePost(ctx, DeleteInput{UserID: "u1", PostID: "missing"})
		assert.ErrorIs(t, err, entity.ErrPostNotFound)

		require.NoError(t, store.Upsert(ctx, &entity.Post{ID: "p2", UserID: "u2", Content: "x"}))
		_, err = p.DeletePost(ctx, DeleteInput{UserID: "u1", PostID: "p2"})
		assert.ErrorIs(t, err, entity.ErrPostNotOwned)
	})
}

func TestDeleteExternal(t *testing.T) {
	pub := &fakePublisher{}
	p, _ := newTestPolicy(t, pub)

	res := p.DeleteExternal(context.Background(), "", "ay-1")
	assert.False(t, res.Success)
	assert.Equal(t, entity.ErrMissingAPIKey.Error(), res.Error)

	res = p.DeleteExternal(context.Background(), "key", "ay-1")
	assert.True(t, res.Success)
	assert.Equal(t, []string{"ay-1"}, pub.deleted)
}
