package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"dern-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	events []Event
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, evt Event) error {
	r.events = append(r.events, evt)
	return r.err
}

type usersStub map[string]models.User

func (u usersStub) GetByID(_ context.Context, id string) (models.User, error) {
	user, ok := u[id]
	if !ok {
		return models.User{}, errors.New("not found")
	}
	return user, nil
}

func sampleAppointment() models.Appointment {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return models.Appointment{
		ID:          "a1",
		Client:      "c1",
		Technician:  "t1",
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		Status:      models.AppointmentStatusScheduled,
		ServiceType: models.ServiceRepair,
		Priority:    models.PriorityMedium,
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	ok := &recordingNotifier{}
	failing := &recordingNotifier{err: errors.New("boom")}
	evt := NewEvent(EventAppointmentCreated, "c1", sampleAppointment(), time.Now())

	err := Multi{ok, nil, failing}.Notify(context.Background(), evt)
	require.Error(t, err)
	assert.Len(t, ok.events, 1)
	assert.Len(t, failing.events, 1)
	assert.NotEmpty(t, evt.ID)
}

func TestBrevoNotifiesBothParticipants(t *testing.T) {
	var mu sync.Mutex
	var recipients []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req brevoSendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		recipients = append(recipients, req.To[0].Email)
		mu.Unlock()
		assert.Equal(t, "key", r.Header.Get("api-key"))
		assert.Equal(t, "Appointment canceled", req.Subject)
		_ = json.NewEncoder(w).Encode(brevoSendResponse{MessageID: "m1"})
	}))
	defer srv.Close()

	users := usersStub{
		"c1": {ID: "c1", Name: "Client", Email: "client@example.com"},
		"t1": {ID: "t1", Name: "Tech", Email: "tech@example.com"},
	}
	client := NewBrevoClient("key", "noreply@example.com", "", false, users)
	require.NotNil(t, client)
	client.endpoint = srv.URL

	appt := sampleAppointment()
	appt.Status = models.AppointmentStatusCanceled
	appt.CancellationReason = "customer request"
	err := client.Notify(context.Background(), NewEvent(EventAppointmentCanceled, "c1", appt, time.Now()))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"client@example.com", "tech@example.com"}, recipients)
}

func TestNewBrevoClientDisabledWithoutKey(t *testing.T) {
	assert.Nil(t, NewBrevoClient("", "noreply@example.com", "", false, usersStub{}))
}

func TestAppointmentEmailIncludesReason(t *testing.T) {
	appt := sampleAppointment()
	appt.CancellationReason = "rain"
	html, err := buildAppointmentEmailHTML(NewEvent(EventAppointmentCanceled, "c1", appt, time.Now()), models.User{Name: "Ada"})
	require.NoError(t, err)
	assert.Contains(t, html, "Hello Ada")
	assert.Contains(t, html, "Reason: rain")
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, SplitBrokers(" a:9092, ,b:9092"))
	assert.Nil(t, NewKafkaPublisher(nil, "appointments"))
}

func TestBuildMessageKeysByTechnician(t *testing.T) {
	evt := NewEvent(EventAppointmentCanceled, "c1", sampleAppointment(), time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))

	msg, err := buildMessage(evt)
	require.NoError(t, err)
	assert.Equal(t, []byte("t1"), msg.Key)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, evt.ID, headers["event_id"])
	assert.Equal(t, EventAppointmentCanceled, headers["event_type"])

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, evt.ID, decoded.ID)
	assert.Equal(t, "c1", decoded.ActorID)
	assert.Equal(t, "a1", decoded.Appointment.ID)
	assert.True(t, decoded.OccurredAt.Equal(evt.OccurredAt))
}
