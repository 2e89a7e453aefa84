package web

// Config is the web server configuration.
type Config struct {
	// Address to listen on (e.g., "localhost:8080")
	ListenAddr string

	// BodyLimit caps request bodies in bytes. Zero means DefaultBodyLimit.
	BodyLimit int
}
