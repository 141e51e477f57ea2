package catalog

import (
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/uber-go/tally/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/xerrors"

	"github.com/coinbase/cloudsession/internal/utils/fxparams"
	"github.com/coinbase/cloudsession/internal/utils/log"
)

type (
	// Resource is the object-oriented view of a service.
	Resource interface {
		ServiceName() string
	}

	// Catalog builds clients and resources bound to one AWS session.
	// Every call returns a new handle.
	Catalog interface {
		Client(name string) (interface{}, error)
		Resource(name string) (Resource, error)
		AvailableServices() []string
		AvailableResources() []string
	}

	Params struct {
		fx.In
		fxparams.Params
		Session *session.Session
	}

	// clientFactory returns the service client together with its embedded client.Client,
	// which carries the request handlers.
	clientFactory func(sess *session.Session) (interface{}, *client.Client)

	resourceFactory func(c *catalogImpl) (Resource, error)

	catalogImpl struct {
		session *session.Session
		logger  *zap.Logger
		metrics tally.Scope
	}
)

var (
	ErrUnknownService = xerrors.New("unknown service")
)

var _ Catalog = (*catalogImpl)(nil)

func New(params Params) Catalog {
	return &catalogImpl{
		session: params.Session,
		logger:  log.WithPackage(params.Logger),
		metrics: params.Metrics,
	}
}

func (c *catalogImpl) Client(name string) (interface{}, error) {
	factory, ok := clientFactories[normalize(name)]
	if !ok {
		return nil, xerrors.Errorf("service %q is not available, possible values are [%v]: %w",
			name, strings.Join(c.AvailableServices(), ", "), ErrUnknownService)
	}

	svc, cl := factory(c.session)
	addHandlers(cl)

	c.logger.Debug("created client", zap.String("service", normalize(name)))
	return svc, nil
}

func (c *catalogImpl) Resource(name string) (Resource, error) {
	factory, ok := resourceFactories[normalize(name)]
	if !ok {
		return nil, xerrors.Errorf("resource %q is not available, possible values are [%v]: %w",
			name, strings.Join(c.AvailableResources(), ", "), ErrUnknownService)
	}

	resource, err := factory(c)
	if err != nil {
		return nil, xerrors.Errorf("failed to create %v resource: %w", normalize(name), err)
	}

	c.logger.Debug("created resource", zap.String("service", resource.ServiceName()))
	return resource, nil
}

func (c *catalogImpl) AvailableServices() []string {
	return sortedKeys(clientFactories)
}

func (c *catalogImpl) AvailableResources() []string {
	return sortedKeys(resourceFactories)
}

func (c *catalogImpl) region() string {
	return aws.StringValue(c.session.Config.Region)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
