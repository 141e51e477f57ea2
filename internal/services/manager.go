package services

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"

	"github.com/coinbase/cloudsession/internal/utils/log"
)

type (
	// SystemManager owns the lifetime of a command: its root context, its logger,
	// and the hooks that release sessions when the command ends or the process is interrupted.
	SystemManager interface {
		Context() context.Context
		Logger() *zap.Logger
		Tracer() opentracing.Tracer
		// ServiceContext is canceled on the first SIGINT or SIGTERM, or by Shutdown.
		ServiceContext() context.Context
		State() ServiceState
		AddShutdownHook(ShutdownHook)
		Shutdown()
	}

	// ManagerOption allows the manager to be customized via options.
	ManagerOption func(*managerOpts)

	systemManager struct {
		mu    sync.RWMutex
		state ServiceState

		log    *zap.Logger
		tracer opentracing.Tracer

		ctx              context.Context
		serviceCtx       context.Context
		serviceCtxCancel context.CancelFunc
		shutdownHooks    []ShutdownHook
		shutdownOnce     sync.Once
		stopSignals      func()
	}

	managerOpts struct {
		logger      *zap.Logger
		tracer      opentracing.Tracer
		rootContext context.Context
		signals     bool
	}

	ServiceState int

	ShutdownHook func()
)

const (
	// termDelay specifies the timeout after which the process is forced to terminate.
	termDelay = time.Second * 20

	Running ServiceState = iota + 1
	Stopping
	Terminated
)

// NewManager creates a new system manager.
func NewManager(opts ...ManagerOption) SystemManager {
	mOpts := managerOpts{
		rootContext: context.Background(),
		signals:     true,
	}
	for _, o := range opts {
		o(&mOpts)
	}
	if mOpts.logger == nil {
		mOpts.logger = log.New()
	}
	if mOpts.tracer == nil {
		mOpts.tracer = opentracing.GlobalTracer()
	}

	manager := &systemManager{
		state:       Running,
		log:         mOpts.logger,
		tracer:      mOpts.tracer,
		stopSignals: func() {},
	}

	ctx := ctxzap.ToContext(mOpts.rootContext, manager.log)
	manager.ctx = ctx
	manager.serviceCtx, manager.serviceCtxCancel = context.WithCancel(ctx)

	if mOpts.signals {
		manager.stopSignals = GracefulShutdown(manager.serviceCtx, manager.serviceCtxCancel)
	}

	return manager
}

// WithLogger allows the logger to be injected into the manager.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(mOpts *managerOpts) {
		mOpts.logger = logger
	}
}

// WithTracer overrides the global opentracing tracer.
func WithTracer(tracer opentracing.Tracer) ManagerOption {
	return func(mOpts *managerOpts) {
		mOpts.tracer = tracer
	}
}

// WithContext allows to set root context instead of
// using context.Background() by default
func WithContext(ctx context.Context) ManagerOption {
	return func(mOpts *managerOpts) {
		mOpts.rootContext = ctx
	}
}

// WithoutSignals disables the SIGINT and SIGTERM handler.
func WithoutSignals() ManagerOption {
	return func(mOpts *managerOpts) {
		mOpts.signals = false
	}
}

// GracefulShutdown calls killFunc on the first SIGINT or SIGTERM. The second signal forces termination
// after termDelay and the third one terminates immediately. The returned function stops the handler.
func GracefulShutdown(ctx context.Context, killFunc func()) func() {
	logger := ctxzap.Extract(ctx)
	intCh := make(chan os.Signal, 1)
	signal.Notify(intCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	var sigCount int
	go func() {
		for {
			select {
			case <-done:
				return
			case sig := <-intCh:
				switch sigCount {
				case 0:
					logger.Info("Shutdown requested", zap.String("signal", sig.String()))
					killFunc()
				case 1:
					logger.Info("Delayed forced termination requested", zap.Duration("delay", termDelay), zap.String("signal", sig.String()))
					time.AfterFunc(termDelay, func() {
						os.Exit(2)
					})
				default:
					logger.Warn("Forced termination requested", zap.String("signal", sig.String()))
					_ = logger.Sync() // #nosec
					os.Exit(2)
				}
				sigCount++
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(intCh)
			close(done)
		})
	}
}

func (m *systemManager) Logger() *zap.Logger {
	return m.log
}

func (m *systemManager) Tracer() opentracing.Tracer {
	return m.tracer
}

// Context returns the root context, which carries the logger.
func (m *systemManager) Context() context.Context {
	return m.ctx
}

// ServiceContext returns a cancellable context derived from the root context.
func (m *systemManager) ServiceContext() context.Context {
	return m.serviceCtx
}

// State returns the current state of the manager.
func (m *systemManager) State() ServiceState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *systemManager) setState(state ServiceState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

// AddShutdownHook registers a hook run by Shutdown. Hooks run in reverse order of registration.
func (m *systemManager) AddShutdownHook(hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownHooks = append(m.shutdownHooks, hook)
}

// Shutdown cancels the service context and runs the shutdown hooks. Only the first call has an effect.
func (m *systemManager) Shutdown() {
	m.shutdownOnce.Do(func() {
		m.setState(Stopping)
		m.serviceCtxCancel()
		m.stopSignals()

		m.mu.RLock()
		hooks := m.shutdownHooks
		m.mu.RUnlock()

		m.log.Debug("Running shutdown hooks", zap.Int("hooks", len(hooks)))
		for i := len(hooks) - 1; i >= 0; i-- {
			hooks[i]()
		}
		_ = m.log.Sync()
		m.setState(Terminated)
	})
}
