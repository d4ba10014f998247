package config

import (
	"fmt"
	"net"
	"strconv"
)

// FindAvailablePort returns the first port in [start, start+attempts) that
// host can bind. The probe listener is closed before returning, so the port
// can still be taken by another process before the caller binds it.
func FindAvailablePort(host string, start, attempts int) (int, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for port := start; port < start+attempts && port <= 65535; port++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			lastErr = err
			continue
		}
		ln.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no free port in %d-%d on %s: %w", start, start+attempts-1, host, lastErr)
}
