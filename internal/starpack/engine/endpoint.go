package engine

import (
	"strconv"
	"strings"
)

// Endpoint derives the engine address from a host and an optional port.
// A port of zero or less means none was given, and the host is returned
// verbatim so fully qualified external addresses pass through untouched.
func Endpoint(host string, port int) string {
	host = strings.TrimRight(host, "/")
	if port <= 0 {
		return host
	}
	return host + ":" + strconv.Itoa(port)
}
