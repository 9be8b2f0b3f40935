package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func approvedMessage() Message {
	return Message{
		Event:          EventRequestApproved,
		OrganizationID: "org-1",
		SubjectID:      "req-1",
		To:             []mail.Address{{Name: "Ana", Address: "ana@example.com"}},
		Subject:        "Your time off was approved",
		Body:           "2025-03-03 to 2025-03-05",
	}
}

type failing struct{}

func (failing) Dispatch(context.Context, Message) error { return errors.New("boom") }

func TestAsync_DeliversAndWaits(t *testing.T) {
	rec := &Recorder{}
	async := NewAsync(rec, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, async.Dispatch(context.Background(), approvedMessage()))
	}
	async.Wait()

	assert.Len(t, rec.Messages(), 5)
}

func TestAsync_LogsFailures(t *testing.T) {
	logger, hook := test.NewNullLogger()
	async := NewAsync(failing{}, logger)

	require.NoError(t, async.Dispatch(context.Background(), approvedMessage()))
	async.Wait()

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, log.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, EventRequestApproved, hook.LastEntry().Data["event"])
}

func TestAsync_SurvivesCancelledContext(t *testing.T) {
	rec := &Recorder{}
	async := NewAsync(rec, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, async.Dispatch(ctx, approvedMessage()))
	async.Wait()

	assert.Len(t, rec.Messages(), 1)
}

func TestLogDispatcher_WritesFields(t *testing.T) {
	logger, hook := test.NewNullLogger()

	require.NoError(t, LogDispatcher{Logger: logger}.Dispatch(context.Background(), approvedMessage()))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Your time off was approved", entry.Message)
	assert.Equal(t, "ana@example.com", entry.Data["to"])
}

func TestMulti_ReturnsFirstError(t *testing.T) {
	rec := &Recorder{}
	err := Multi{failing{}, rec}.Dispatch(context.Background(), approvedMessage())

	assert.Error(t, err)
	assert.Len(t, rec.Messages(), 1, "later dispatchers still run")
}

func TestSendgrid_PostsMail(t *testing.T) {
	var got map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	d := NewSendgrid("sg-key", "PeopleDear", "noreply@peopledear.test").WithHost(srv.URL)
	require.NoError(t, d.Dispatch(context.Background(), approvedMessage()))

	assert.Equal(t, "Bearer sg-key", auth)
	from := got["from"].(map[string]any)
	assert.Equal(t, "noreply@peopledear.test", from["email"])
	p := got["personalizations"].([]any)[0].(map[string]any)
	assert.Equal(t, "[PeopleDear] Your time off was approved", p["subject"])
}

func TestSendgrid_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	d := NewSendgrid("bad", "PeopleDear", "noreply@peopledear.test").WithHost(srv.URL)
	assert.Error(t, d.Dispatch(context.Background(), approvedMessage()))
}

func TestSendgrid_SkipsEmptyRecipients(t *testing.T) {
	d := NewSendgrid("k", "PeopleDear", "noreply@peopledear.test").WithHost("http://127.0.0.1:1")
	assert.NoError(t, d.Dispatch(context.Background(), Message{Subject: "nobody"}))
}
