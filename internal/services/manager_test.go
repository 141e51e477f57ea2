package services

import (
	"context"
	"testing"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/opentracing/opentracing-go/mocktracer"
	"go.uber.org/zap/zaptest"

	"github.com/coinbase/cloudsession/internal/utils/testutil"
)

func TestManager(t *testing.T) {
	require := testutil.Require(t)

	logger := zaptest.NewLogger(t)
	tracer := mocktracer.New()
	manager := NewManager(WithLogger(logger), WithTracer(tracer), WithoutSignals())

	require.Equal(Running, manager.State())
	require.Same(logger, manager.Logger())
	require.Same(logger, ctxzap.Extract(manager.Context()))
	require.Equal(tracer, manager.Tracer())
	require.NoError(manager.ServiceContext().Err())

	var order []int
	manager.AddShutdownHook(func() { order = append(order, 1) })
	manager.AddShutdownHook(func() { order = append(order, 2) })

	manager.Shutdown()
	require.Equal([]int{2, 1}, order)
	require.Equal(Terminated, manager.State())
	require.ErrorIs(manager.ServiceContext().Err(), context.Canceled)
	require.NoError(manager.Context().Err())

	// Hooks run only once.
	manager.Shutdown()
	require.Equal([]int{2, 1}, order)
}

func TestManager_WithContext(t *testing.T) {
	require := testutil.Require(t)

	ctx, cancel := context.WithCancel(context.Background())
	manager := NewManager(WithLogger(zaptest.NewLogger(t)), WithContext(ctx))
	defer manager.Shutdown()

	cancel()
	<-manager.ServiceContext().Done()
	require.ErrorIs(manager.ServiceContext().Err(), context.Canceled)
}

func TestManager_DefaultTracer(t *testing.T) {
	require := testutil.Require(t)

	manager := NewManager(WithLogger(zaptest.NewLogger(t)), WithoutSignals())
	defer manager.Shutdown()
	require.NotNil(manager.Tracer())
}
