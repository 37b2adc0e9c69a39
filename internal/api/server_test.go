package api

import (
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/wonny/aegis-t1/backend/pkg/config"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

func TestServer_TimeoutsFromConfig(t *testing.T) {
	s := New("8123", config.ServerConfig{
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 4 * time.Minute,
		IdleTimeout:  time.Minute,
	}, logger.Nop(), http.NewServeMux())

	assert.Equal(t, ":8123", s.httpServer.Addr)
	assert.Equal(t, 5*time.Second, s.httpServer.ReadTimeout)
	assert.Equal(t, 4*time.Minute, s.httpServer.WriteTimeout)
	assert.Equal(t, time.Minute, s.httpServer.IdleTimeout)
	assert.Equal(t, 30*time.Second, s.shutdownTimeout, "zero shutdown timeout falls back")
}

func TestServer_ServeAndStop(t *testing.T) {
	router := newTestRouter(newFakeData(), nil)
	s := New("0", config.ServerConfig{
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}, logger.Nop(), router)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "aegis-t1-api", gjson.GetBytes(body, "service").String())

	require.NoError(t, s.Stop())
	select {
	case err := <-done:
		assert.NoError(t, err, "a stopped server is not an error")
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}
}
