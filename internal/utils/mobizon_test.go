package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSMSDryRunSkipsNetwork(t *testing.T) {
	c := NewClientWithOptions("real-key", "Kalyana", true)
	c.BaseURL = "http://127.0.0.1:1" // unreachable

	resp, err := c.SendSMS(context.Background(), "9876543210", "hello")
	require.NoError(t, err)
	require.Equal(t, 0, resp.Code)
}

func TestSendSMSPostsForm(t *testing.T) {
	var gotRecipient, gotText, gotFrom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		gotRecipient = r.PostForm.Get("recipient")
		gotText = r.PostForm.Get("text")
		gotFrom = r.PostForm.Get("from")
		_, _ = w.Write([]byte(`{"code":0,"data":{"messageId":"m-1"}}`))
	}))
	defer srv.Close()

	c := NewClientWithOptions("key", "Kalyana", false)
	c.BaseURL = srv.URL

	resp, err := c.SendSMS(context.Background(), "9876543210", "code 123456")
	require.NoError(t, err)
	require.Equal(t, "m-1", resp.Data.MessageID)
	require.Equal(t, "9876543210", gotRecipient)
	require.Equal(t, "code 123456", gotText)
	require.Equal(t, "Kalyana", gotFrom)
}

func TestSendSMSProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":3}`))
	}))
	defer srv.Close()

	c := NewClientWithOptions("key", "", false)
	c.BaseURL = srv.URL

	_, err := c.SendSMS(context.Background(), "9876543210", "x")
	require.Error(t, err)
}
