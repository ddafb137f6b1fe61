package reminder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ms-calendar/internal/config"
	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListEventsByDate(ctx context.Context, date models.Date) ([]models.Event, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendReminder(ctx context.Context, event models.Event) error {
	return m.Called(ctx, event).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishReminderRun(ctx context.Context, result models.ReminderResult) error {
	return m.Called(ctx, result).Error(0)
}

type stubLock struct {
	err      error
	released int
}

func (l *stubLock) Acquire(ctx context.Context) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	return func() { l.released++ }, nil
}

// 2025-03-31 20:00 UTC is already 2025-04-01 in Kolkata.
var fixedNow = time.Date(2025, 3, 31, 20, 0, 0, 0, time.UTC)

func newJob(store *MockStore, mailer *MockMailer) *Job {
	return &Job{
		Store:    store,
		Mailer:   mailer,
		Logger:   logger.Discard(),
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	}
}

func booking(id, email string, status models.Status) models.Event {
	return models.Event{ID: id, Title: "Shoot " + id, Date: "2025-04-01", Status: status, CustomerName: "Client " + id, CustomerEmail: email}
}

func TestTomorrowUsesLocation(t *testing.T) {
	job := newJob(nil, nil)
	assert.Equal(t, models.Date("2025-04-01"), job.Tomorrow())

	kolkata := time.FixedZone("IST", 5*3600+1800)
	job.Location = kolkata
	assert.Equal(t, models.Date("2025-04-02"), job.Tomorrow())

	job.Now = func() time.Time { return time.Date(2024, 12, 31, 8, 0, 0, 0, time.UTC) }
	job.Location = nil
	assert.Equal(t, models.Date("2025-01-01"), job.Tomorrow())
}

func TestRunNoEvents(t *testing.T) {
	store := new(MockStore)
	mailer := new(MockMailer)
	pub := new(MockPublisher)
	job := newJob(store, mailer)
	job.Publisher = pub

	store.On("ListEventsByDate", mock.Anything, models.Date("2025-04-01")).Return([]models.Event{}, nil)

	result, err := job.Run(context.Background())

	require.NoError(t, err)
	assert.True(t, result.NoOp())
	mailer.AssertNotCalled(t, "SendReminder", mock.Anything, mock.Anything)
	pub.AssertNotCalled(t, "PublishReminderRun", mock.Anything, mock.Anything)
}

func TestRunCountsSentFailedSkipped(t *testing.T) {
	store := new(MockStore)
	mailer := new(MockMailer)
	pub := new(MockPublisher)
	lock := &stubLock{}
	job := newJob(store, mailer)
	job.Publisher = pub
	job.Lock = lock

	events := []models.Event{
		booking("1", "one@example.com", models.StatusConfirmed),
		booking("2", "", models.StatusPending),
		booking("3", "bounce@example.com", models.StatusPending),
		booking("4", "not-an-email", models.StatusPending),
		booking("5", "five@example.com", models.StatusCancelled),
		booking("6", " six@example.com ", models.StatusPending),
	}
	store.On("ListEventsByDate", mock.Anything, models.Date("2025-04-01")).Return(events, nil)
	mailer.On("SendReminder", mock.Anything, mock.MatchedBy(func(e models.Event) bool { return e.ID == "1" })).Return(nil).Once()
	mailer.On("SendReminder", mock.Anything, mock.MatchedBy(func(e models.Event) bool { return e.ID == "3" })).Return(errors.New("mailbox full")).Once()
	mailer.On("SendReminder", mock.Anything, mock.MatchedBy(func(e models.Event) bool {
		return e.ID == "6" && e.CustomerEmail == "six@example.com"
	})).Return(nil).Once()
	pub.On("PublishReminderRun", mock.Anything, mock.MatchedBy(func(r models.ReminderResult) bool {
		return r.Sent == 2 && r.Failed == 1 && r.Skipped == 3
	})).Return(errors.New("kafka down"))

	result, err := job.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.Date("2025-04-01"), result.Date)
	assert.Equal(t, 6, result.Matched)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 3, result.Skipped)
	assert.Equal(t, fixedNow, result.FinishedAt)
	assert.Equal(t, 1, lock.released)
	mailer.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestRunLocked(t *testing.T) {
	store := new(MockStore)
	job := newJob(store, new(MockMailer))
	job.Lock = &stubLock{err: models.ErrReminderRunning}

	_, err := job.Run(context.Background())

	assert.ErrorIs(t, err, models.ErrReminderRunning)
	store.AssertNotCalled(t, "ListEventsByDate", mock.Anything, mock.Anything)
}

func TestRunStoreError(t *testing.T) {
	store := new(MockStore)
	lock := &stubLock{}
	job := newJob(store, new(MockMailer))
	job.Lock = lock
	store.On("ListEventsByDate", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	_, err := job.Run(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 1, lock.released)
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name   string
		events []models.Event
		lock   error
		code   int
		want   map[string]interface{}
	}{
		{
			name:   "nothing tomorrow",
			events: []models.Event{},
			code:   http.StatusOK,
			want:   map[string]interface{}{"message": "No reminders today"},
		},
		{
			name:   "summary",
			events: []models.Event{booking("1", "one@example.com", models.StatusConfirmed), booking("2", "", models.StatusPending)},
			code:   http.StatusOK,
			want:   map[string]interface{}{"success": true, "date": "2025-04-01", "sent": float64(1), "failed": float64(0), "skipped": float64(1)},
		},
		{
			name: "already running",
			lock: models.ErrReminderRunning,
			code: http.StatusConflict,
			want: map[string]interface{}{"error": models.ErrReminderRunning.Error()},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			mailer := new(MockMailer)
			store.On("ListEventsByDate", mock.Anything, mock.Anything).Return(tt.events, nil)
			mailer.On("SendReminder", mock.Anything, mock.Anything).Return(nil)
			job := newJob(store, mailer)
			job.Lock = &stubLock{err: tt.lock}

			r := chi.NewRouter()
			NewHandler(job, logger.Discard()).RegisterRoutes(r)

			for _, path := range []string{"/reminders", "/api/calendar-reminder"} {
				rec := httptest.NewRecorder()
				r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

				assert.Equal(t, tt.code, rec.Code)
				var got map[string]interface{}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRenderReminder(t *testing.T) {
	ev := models.Event{Title: "Wedding <Reception>", Date: "2025-04-01", Location: "Lakeview Hall", CustomerName: "Arjun"}

	body, err := RenderReminder(ev, "Kalakruthi Photography")

	require.NoError(t, err)
	assert.Contains(t, body, "Event Reminder")
	assert.Contains(t, body, "Wedding &lt;Reception&gt;")
	assert.Contains(t, body, "2025-04-01")
	assert.Contains(t, body, "Lakeview Hall")
	assert.Contains(t, body, "Dear Arjun")

	ev.Location = ""
	body, err = RenderReminder(ev, "Kalakruthi Photography")
	require.NoError(t, err)
	assert.Contains(t, body, "To be confirmed")
}

func TestSMTPMailerBuildsMessage(t *testing.T) {
	m := NewSMTPMailer(config.EmailConfig{
		SMTPHost:     "smtp.example.com",
		SMTPPort:     "587",
		SMTPUsername: "studio@example.com",
		FromName:     "Kalakruthi Photography",
	})
	var sent *mail.Msg
	m.dial = func(ctx context.Context, msg *mail.Msg) error {
		sent = msg
		return nil
	}

	err := m.SendReminder(context.Background(), models.Event{
		Title: "Birthday", Date: "2025-04-01", CustomerName: "Kiran", CustomerEmail: "kiran@example.com",
	})

	require.NoError(t, err)
	require.NotNil(t, sent)
	assert.Equal(t, []string{"📸 Event Reminder – Birthday"}, sent.GetGenHeader(mail.HeaderSubject))
	assert.Equal(t, []string{"<kiran@example.com>"}, sent.GetToString())
	from := sent.GetFromString()
	require.Len(t, from, 1)
	assert.Contains(t, from[0], "Kalakruthi Photography")
	assert.Contains(t, from[0], "studio@example.com")

	var raw bytes.Buffer
	_, err = sent.WriteTo(&raw)
	require.NoError(t, err)
	assert.True(t, strings.Contains(raw.String(), "text/html"))
}

func TestSMTPMailerRejectsBadRecipient(t *testing.T) {
	m := NewSMTPMailer(config.EmailConfig{SMTPUsername: "studio@example.com", FromName: "Studio"})
	m.dial = func(ctx context.Context, msg *mail.Msg) error {
		t.Fatal("should not dial")
		return nil
	}

	err := m.SendReminder(context.Background(), models.Event{Title: "x", CustomerEmail: "@@"})
	assert.Error(t, err)
}

func TestSMTPMailerBadPort(t *testing.T) {
	m := NewSMTPMailer(config.EmailConfig{SMTPHost: "localhost", SMTPPort: "smtp", SMTPUsername: "studio@example.com"})
	err := m.SendReminder(context.Background(), models.Event{Title: "x", CustomerEmail: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SMTP port")
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	_, err := Schedule("every morning", newJob(new(MockStore), new(MockMailer)), time.UTC, time.Minute)
	assert.Error(t, err)

	c, err := Schedule("0 9 * * *", newJob(new(MockStore), new(MockMailer)), nil, time.Minute)
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)
	<-c.Stop().Done()
}
