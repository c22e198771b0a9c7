package util

import (
	"fmt"
	"math/rand"
	"net"
	"net/http"
)

// GenerateRequestID produces a short, human-readable correlation ID for
// terminal/log output. It's deliberately not a UUID: request IDs appear in
// startup tables and access logs where a memorable token is easier to spot
// than a hex string.
func GenerateRequestID() string {
	actions := []string{
		"grazing", "trekking", "humming", "spitting", "prancing",
		"carrying", "leading", "following", "resting", "alerting",
		"browsing", "foraging", "wandering", "galloping", "ambling",
	}
	llamas := []string{
		"huacaya", "suri", "vicuna", "alpaca", "guanaco",
		"woolly", "silky", "fluffy", "curly", "shaggy",
		"noble", "gentle", "swift", "steady", "proud",
	}

	group := llamas[rand.Intn(len(llamas))]
	action := actions[rand.Intn(len(actions))]
	suffix := fmt.Sprintf("%04x", rand.Intn(65536))

	return fmt.Sprintf("%s_%s_%s", group, action, suffix)
}

// GetClientIP returns the remote address of r, stripped of its port. There's
// no trust-proxy configuration in this proxy's domain model, so forwarded-for
// headers are never consulted - a deployment fronted by a real reverse proxy
// should rely on that proxy's own access logs for the original client IP.
func GetClientIP(r *http.Request) string {
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}
