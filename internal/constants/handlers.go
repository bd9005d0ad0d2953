package constants

// Poster server constants
const (
	// DefaultServePort is the port the poster server listens on
	DefaultServePort = 8090

	// DefaultServeHost is the address the poster server binds to
	DefaultServeHost = "0.0.0.0"

	// PostersRoute is the URL path generated posters are served under
	PostersRoute = "posters"
)
