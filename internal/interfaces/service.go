package interfaces

// Service is an outer surface of the daemon, like the HTTP API, that can be
// started and gracefully stopped.
type Service interface {
	Start() error
	Stop()
}
