package sdk

// SwapDefaultRegistry installs r as the default registry and returns a function restoring the previous one.
func SwapDefaultRegistry(r *Registry) func() {
	previous := defaultRegistry
	defaultRegistry = r
	return func() {
		defaultRegistry = previous
	}
}
