package lifecycle

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/warehouse/pkg/logger"
)

type fakeService struct {
	startErr error
	started  atomic.Bool
	stopped  atomic.Bool
}

func (f *fakeService) Start(ctx context.Context) error {
	f.started.Store(true)

	if f.startErr != nil {
		return f.startErr
	}

	<-ctx.Done()

	return ctx.Err()
}

func (f *fakeService) Stop(context.Context) error {
	f.stopped.Store(true)
	return nil
}

func freeAddr(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return addr
}

func TestRunServerStopsOnCancel(t *testing.T) {
	svc := &fakeService{}
	addr := freeAddr(t)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- RunServer(ctx, &ServerOptions{
			ServiceName: "test",
			Service:     svc,
			ListenAddr:  addr,
			Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			}),
			Logger: logger.NewTestLogger(),
		})
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}

		_ = resp.Body.Close()

		return resp.StatusCode == http.StatusTeapot
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunServer did not return after cancel")
	}

	assert.True(t, svc.started.Load())
	assert.True(t, svc.stopped.Load())
}

func TestRunServerReturnsServiceFailure(t *testing.T) {
	boom := errors.New("boom")
	svc := &fakeService{startErr: boom}

	err := RunServer(context.Background(), &ServerOptions{
		ServiceName:     "test",
		Service:         svc,
		ShutdownTimeout: time.Second,
	})

	require.ErrorIs(t, err, boom)
	assert.True(t, svc.stopped.Load())
}

func TestCreateComponentLoggerDisabled(t *testing.T) {
	log, err := CreateComponentLogger(context.Background(), "poller", &logger.Config{Disabled: true})
	require.NoError(t, err)
	require.NotNil(t, log)

	assert.False(t, log.Info().Enabled())
	require.NoError(t, log.Shutdown(context.Background()))
}

func TestCreateComponentLoggerRejectsBadLevel(t *testing.T) {
	_, err := CreateComponentLogger(context.Background(), "poller", &logger.Config{Level: "loud"})
	require.Error(t, err)
}
