package sdk

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	internalaws "github.com/coinbase/cloudsession/internal/aws"
	"github.com/coinbase/cloudsession/internal/catalog"
	"github.com/coinbase/cloudsession/internal/config"
	"github.com/coinbase/cloudsession/internal/tally"
	"github.com/coinbase/cloudsession/internal/utils/fxparams"
	"github.com/coinbase/cloudsession/internal/utils/log"
)

//go:generate mockgen -destination=mocks/mock_session.go -package=mocks github.com/coinbase/cloudsession/sdk Session

type (
	// Session holds the configuration and credentials of one AWS account and region,
	// and builds the clients and resources bound to them.
	Session interface {
		// Client returns a new low-level client, e.g. *s3.S3 for "s3".
		Client(service string) (interface{}, error)
		// Resource returns a new object-oriented resource, e.g. *S3Resource for "s3".
		Resource(service string) (ResourceHandle, error)
		AvailableServices() []string
		AvailableResources() []string
		RegionName() string
		ProfileName() string
		// Credentials resolves the credential chain of the session.
		Credentials() (credentials.Value, error)
		AWSSession() *session.Session
		// Close releases the session, flushing its metrics.
		Close() error
	}

	SessionParams struct {
		fx.In
		fxparams.Params
		Session *session.Session
		Catalog catalog.Catalog
	}

	sessionImpl struct {
		config    *config.Config
		logger    *zap.Logger
		session   *session.Session
		catalog   catalog.Catalog
		app       *fx.App
		closeOnce sync.Once
	}
)

// New creates a Session. A nil cfg is the same as an empty Config.
func New(cfg *Config) (Session, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("invalid config: %w", err)
	}

	internalCfg, err := config.New(cfg.options()...)
	if err != nil {
		return nil, xerrors.Errorf("failed to create config: %w", err)
	}

	var s Session
	app := fx.New(
		Module,
		catalog.Module,
		config.Module,
		config.WithCustomConfig(internalCfg),
		fxparams.Module,
		internalaws.Module,
		tally.Module,
		fx.NopLogger,
		fx.Provide(func() *zap.Logger { return log.Library() }),
		fx.Populate(&s),
	)
	if err := app.Start(context.Background()); err != nil {
		return nil, xerrors.Errorf("failed to start fx app: %w", err)
	}

	impl, ok := s.(*sessionImpl)
	if !ok {
		_ = app.Stop(context.Background())
		return nil, xerrors.Errorf("unexpected session type: %T", s)
	}
	impl.app = app

	return impl, nil
}

func newSession(params SessionParams) Session {
	return &sessionImpl{
		config:  params.Config,
		logger:  log.WithPackage(params.Logger),
		session: params.Session,
		catalog: params.Catalog,
	}
}

func (s *sessionImpl) Client(service string) (interface{}, error) {
	return s.catalog.Client(service)
}

func (s *sessionImpl) Resource(service string) (ResourceHandle, error) {
	return s.catalog.Resource(service)
}

func (s *sessionImpl) AvailableServices() []string {
	return s.catalog.AvailableServices()
}

func (s *sessionImpl) AvailableResources() []string {
	return s.catalog.AvailableResources()
}

func (s *sessionImpl) RegionName() string {
	return aws.StringValue(s.session.Config.Region)
}

func (s *sessionImpl) ProfileName() string {
	return s.config.AWS.EffectiveProfile()
}

func (s *sessionImpl) Credentials() (credentials.Value, error) {
	if s.session.Config.Credentials == nil {
		return credentials.Value{}, xerrors.New("session has no credentials")
	}

	value, err := s.session.Config.Credentials.Get()
	if err != nil {
		return credentials.Value{}, xerrors.Errorf("failed to resolve credentials: %w", err)
	}

	return value, nil
}

func (s *sessionImpl) AWSSession() *session.Session {
	return s.session
}

func (s *sessionImpl) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.app == nil {
			return
		}

		if stopErr := s.app.Stop(context.Background()); stopErr != nil {
			err = xerrors.Errorf("failed to stop fx app: %w", stopErr)
		}
		s.logger.Debug("closed session", zap.String("region", s.RegionName()))
	})
	return err
}
