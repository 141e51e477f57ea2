package sdk

import (
	"sync"
)

type (
	// Factory constructs a Session from a config. New is the factory of the default registry.
	Factory func(cfg *Config) (Session, error)

	// Registry holds at most one Session and builds it lazily on first use.
	// It is safe for concurrent use.
	Registry struct {
		mu      sync.Mutex
		factory Factory
		session Session
	}
)

func NewRegistry(factory Factory) *Registry {
	return &Registry{
		factory: factory,
	}
}

// Setup constructs a new Session from cfg and replaces the current one.
// If construction fails, the current Session is kept and the error is returned unchanged.
// The replaced Session is not closed since callers may still hold it.
func (r *Registry) Setup(cfg *Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.factory(cfg)
	if err != nil {
		return err
	}

	r.session = session
	return nil
}

// Get returns the current Session, constructing one with the default config if there is none.
func (r *Registry) Get() (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		session, err := r.factory(nil)
		if err != nil {
			return nil, err
		}

		r.session = session
	}

	return r.session, nil
}

// Client returns a client of the current Session.
func (r *Registry) Client(service string) (interface{}, error) {
	session, err := r.Get()
	if err != nil {
		return nil, err
	}

	return session.Client(service)
}

// Resource returns a resource of the current Session.
func (r *Registry) Resource(service string) (ResourceHandle, error) {
	session, err := r.Get()
	if err != nil {
		return nil, err
	}

	return session.Resource(service)
}

// Reset empties the registry and returns the Session it held, if any.
func (r *Registry) Reset() Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := r.session
	r.session = nil
	return session
}
