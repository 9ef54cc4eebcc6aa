package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modeldto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithdraw(t *testing.T) {
	var got modeldto.NewWithdrawal
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user/balance/withdraw", r.URL.Path)
		assert.Equal(t, "Bearer t1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"w1","type":"withdrawal","amount":50.00,"status":"pending","method":"upi"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	cmd := NewRootCommand(&out)
	cmd.SetArgs([]string{"--url", srv.URL, "--token", "t1", "withdraw", "50", "--details", "demo@upi"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "50.00", got.Amount.StringFixed(2))
	assert.Equal(t, "upi", got.Method)
	var tx modeldto.Transaction
	require.NoError(t, json.Unmarshal(out.Bytes(), &tx))
	assert.Equal(t, "w1", tx.ID)
}

func TestWithdraw_InvalidAmount(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCommand(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--url", "http://127.0.0.1:1", "withdraw", "lots", "--details", "demo@upi"})
	assert.Error(t, cmd.Execute())
}

func TestAdminReview_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/admin/submissions/s1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"submission s1 already reviewed","reason":"already_reviewed"}`))
	}))
	defer srv.Close()

	cmd := NewRootCommand(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--url", srv.URL, "admin", "review", "s1", "approved"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already_reviewed")
}
