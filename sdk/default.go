package sdk

import (
	"reflect"

	"golang.org/x/xerrors"
)

var (
	defaultRegistry = NewRegistry(New)

	// ErrUnexpectedHandleType is returned by ClientAs and ResourceAs when the handle is not a T.
	ErrUnexpectedHandleType = xerrors.New("unexpected handle type")
)

// SetupDefaultSession replaces the default Session with one built from cfg.
// A nil cfg builds a Session with the default config.
func SetupDefaultSession(cfg *Config) error {
	return defaultRegistry.Setup(cfg)
}

// DefaultSession returns the default Session, creating it with the default config on first use.
func DefaultSession() (Session, error) {
	return defaultRegistry.Get()
}

// Client returns a low-level client of the default Session.
//
//	client, err := sdk.Client("s3")
func Client(service string) (interface{}, error) {
	return defaultRegistry.Client(service)
}

// Resource returns a resource of the default Session.
//
//	resource, err := sdk.Resource("sqs")
func Resource(service string) (ResourceHandle, error) {
	return defaultRegistry.Resource(service)
}

// ClientAs returns a client of the default Session asserted to T.
//
//	client, err := sdk.ClientAs[s3iface.S3API]("s3")
func ClientAs[T any](service string) (T, error) {
	client, err := Client(service)
	if err != nil {
		var zero T
		return zero, err
	}

	return handleAs[T]("client", service, client)
}

// ResourceAs returns a resource of the default Session asserted to T.
//
//	bucket, err := sdk.ResourceAs[*sdk.S3Resource]("s3")
func ResourceAs[T any](service string) (T, error) {
	resource, err := Resource(service)
	if err != nil {
		var zero T
		return zero, err
	}

	return handleAs[T]("resource", service, resource)
}

func handleAs[T any](kind string, service string, handle interface{}) (T, error) {
	typed, ok := handle.(T)
	if !ok {
		expected := reflect.TypeOf((*T)(nil)).Elem()
		return typed, xerrors.Errorf("%v of %q is %T, not %v: %w", kind, service, handle, expected, ErrUnexpectedHandleType)
	}

	return typed, nil
}
