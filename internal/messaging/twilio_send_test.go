package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(t *testing.T, handler http.HandlerFunc) *TwilioSender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s := NewTwilioSender("AC123", "token", "+61499999999", nil, WithTwilioBaseURL(srv.URL))
	s.sleep = func(time.Duration) {}
	return s
}

func TestTwilioSenderPostsForm(t *testing.T) {
	var gotTo, gotFrom, gotBody, gotPath string
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "token", pass)
		gotPath = r.URL.Path
		gotTo, gotFrom, gotBody = r.PostForm.Get("To"), r.PostForm.Get("From"), r.PostForm.Get("Body")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	})

	require.NoError(t, s.SendSMS(context.Background(), "+61400000000", "hello"))
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "+61400000000", gotTo)
	assert.Equal(t, "+61499999999", gotFrom)
	assert.Equal(t, "hello", gotBody)
}

func TestTwilioSenderRetriesServerErrors(t *testing.T) {
	var calls int32
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, s.SendSMS(context.Background(), "+1", "hello"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestTwilioSenderDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number"}`))
	})

	err := s.SendSMS(context.Background(), "+1", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400 code 21211: Invalid 'To' Phone Number")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTwilioSenderValidatesInput(t *testing.T) {
	s := NewTwilioSender("", "", "", nil)
	assert.Error(t, s.SendSMS(context.Background(), "+1", "hi"))

	s = NewTwilioSender("AC", "tok", "+1", nil)
	assert.Error(t, s.SendSMS(context.Background(), "", "hi"))
	assert.Error(t, s.SendSMS(context.Background(), "+2", "  "))
}
