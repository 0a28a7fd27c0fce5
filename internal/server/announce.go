package server

import (
	"fmt"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type the relay advertises as.
	ServiceType = "_ws._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."
)

// Announcer advertises the relay over mDNS so LAN clients can discover it
// without knowing the address up front.
type Announcer struct {
	server *zeroconf.Server
}

// Announce registers the relay as instance under ServiceType on all
// interfaces.
func Announce(instance string, port int) (*Announcer, error) {
	srv, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, []string{"path=/"}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return &Announcer{server: srv}, nil
}

// Shutdown withdraws the announcement.
func (a *Announcer) Shutdown() {
	a.server.Shutdown()
}
