package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// switchable credential source
type fakeCreds struct {
	mu    sync.Mutex
	token string
}

func (f *fakeCreds) set(tok string) {
	f.mu.Lock()
	f.token = tok
	f.mu.Unlock()
}

func (f *fakeCreds) AuthorizationHeader() http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := http.Header{}
	if f.token != "" {
		h.Set("Authorization", "Bearer "+f.token)
	}
	return h
}

func newTestClient(t *testing.T, h http.HandlerFunc, creds CredentialSource) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL + "/", Timeout: 2 * time.Second}, creds)
}

func TestClient_ReadsCredentialPerCall(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	creds := &fakeCreds{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`[]`))
	}, creds)

	_, err := c.Counselors(context.Background())
	require.NoError(t, err)
	creds.set("abc")
	_, err = c.Counselors(context.Background())
	require.NoError(t, err)
	creds.set("")
	_, err = c.Counselors(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer abc", ""}, seen)
}

func TestClient_NilCredentialSource(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"token":"t1","user":{"id":3,"email":"a@b.c","plan":"free"}}`))
	}, nil)

	res, err := c.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "t1", res.Token)
	require.NotNil(t, res.User)
	assert.Equal(t, int64(3), res.User.ID)
}

func TestClient_NonSuccessPassthrough(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"detail":"slot taken"}`))
	}, nil)

	_, err := c.BookSession(context.Background(), BookingRequest{CounselorID: 1, SlotID: 2})
	require.Error(t, err)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "/bookings", apiErr.Path)
	assert.JSONEq(t, `{"detail":"slot taken"}`, string(apiErr.Body))
	assert.True(t, IsStatus(err, http.StatusConflict))
	assert.False(t, IsUnauthorized(err))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)
	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_TransportErrorIsNotTimeout(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Options{BaseURL: url, Timeout: time.Second}, nil)
	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTimeout))
	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr))
}

func TestWhoami_UsesExplicitToken(t *testing.T) {
	creds := &fakeCreds{token: "ambient"}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me", r.URL.Path)
		assert.Equal(t, "Bearer explicit", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":1,"plan":"premium"}`))
	}, creds)

	raw, err := c.Whoami(context.Background(), "explicit")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"plan":"premium"}`, string(raw))
}

func TestWhoami_RejectsNonObject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1,2]`))
	}, nil)

	_, err := c.Whoami(context.Background(), "tok")
	require.Error(t, err)
}

func TestWrappers_NullListsAreEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}, nil)
	ctx := context.Background()

	sessions, err := c.ListChatSessions(ctx)
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)

	msgs, err := c.ListSessionMessages(ctx, 4)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	checkins, err := c.RecentCheckIns(ctx, 0)
	require.NoError(t, err)
	assert.NotNil(t, checkins)

	slots, err := c.Slots(ctx, 1, 0)
	require.NoError(t, err)
	assert.NotNil(t, slots)

	bookings, err := c.MyBookings(ctx)
	require.NoError(t, err)
	assert.NotNil(t, bookings)
}

func TestResources_NonArrayIsEmpty(t *testing.T) {
	var body atomic.Value
	body.Store(`{"items":[]}`)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body.Load().(string)))
	}, nil)

	res, err := c.Resources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Resource{}, res)

	body.Store(`[{"title":"Breathing","desc":"4-7-8","url":"https://x"}]`)
	res, err = c.Resources(context.Background())
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Breathing", res[0].Title)
}

func TestQueryDefaults(t *testing.T) {
	var mu sync.Mutex
	got := map[string]string{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got[r.URL.Path] = r.URL.RawQuery
		mu.Unlock()
		_, _ = w.Write([]byte(`[]`))
	}, nil)
	ctx := context.Background()

	_, err := c.RecentCheckIns(ctx, 0)
	require.NoError(t, err)
	_, err = c.Slots(ctx, 9, -1)
	require.NoError(t, err)
	_, err = c.CheckInTrends(ctx, 0)
	require.Error(t, err) // an array is not a trends object

	assert.Equal(t, "limit=7", got["/checkins"])
	assert.Equal(t, "days=14", got["/counselors/9/slots"])
	assert.Equal(t, "days=30", got["/analytics/checkins"])
}

func TestAnalyticsSummary_NilOnFailure(t *testing.T) {
	var ok atomic.Bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !ok.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"sessions_count":2,"messages_count":9,"checkins_count":1,"last_checkin":null}`))
	}, nil)

	assert.Nil(t, c.AnalyticsSummary(context.Background()))

	ok.Store(true)
	ov := c.AnalyticsSummary(context.Background())
	require.NotNil(t, ov)
	assert.Equal(t, int64(9), ov.MessagesCount)
	assert.Nil(t, ov.LastCheckIn)
}

func TestBookSession_AlwaysSendsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"counselor_id":5,"slot_id":11}`, string(b))
		_, _ = w.Write([]byte(`{"id":1,"status":"confirmed","counselor":{"id":5,"full_name":"Dr. A"},"slot":{"id":11,"start_time":"s","end_time":"e"}}`))
	}, nil)

	b, err := c.BookSession(context.Background(), BookingRequest{CounselorID: 5, SlotID: 11})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", b.Status)
	assert.Equal(t, "Dr. A", b.Counselor.FullName)
}

func TestChat_MissingReplyIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.JSONEq(t, `[]`, string(req["history"]))
		_, _ = w.Write([]byte(`{}`))
	}, nil)

	reply, err := c.Chat(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "", reply)

	reply, err = c.SendInSession(context.Background(), 3, "hi")
	require.NoError(t, err)
	assert.Equal(t, "", reply)
}

func TestCreateChatSession_OmitsZeroFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{}`, string(b))
		_, _ = w.Write([]byte(`{"id":8,"title":"New chat","checkin_id":null}`))
	}, nil)

	s, err := c.CreateChatSession(context.Background(), NewChatSession{})
	require.NoError(t, err)
	assert.Equal(t, int64(8), s.ID)
	assert.Nil(t, s.CheckInID)
}
