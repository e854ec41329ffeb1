package enums

// AuthProvider records how an account was created.
type AuthProvider string

const (
	AuthProviderLocal  AuthProvider = "local"
	AuthProviderGoogle AuthProvider = "google"
)

// IsValid reports whether the value is a known AuthProvider.
func (a AuthProvider) IsValid() bool {
	return a == AuthProviderLocal || a == AuthProviderGoogle
}
