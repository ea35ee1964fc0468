// ABOUTME: mDNS advertisement for the waveline receiver
// ABOUTME: Publishes the ingest endpoint so senders can find it
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"

	"github.com/hashicorp/mdns"
)

const serviceType = "_waveline._tcp"

// Config holds advertisement configuration
type Config struct {
	ServiceName string
	Port        int
}

// Manager handles mDNS advertisement of the receiver endpoint
type Manager struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Advertise publishes the receiver via mDNS
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		serviceType,
		"",
		"",
		m.config.Port,
		ips,
		[]string{"path=/waveline"},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)",
		m.config.ServiceName, m.config.Port, serviceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Stop shuts advertisement down
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns non-loopback local addresses
func getLocalIPs() ([]net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}

	var ips []net.IP
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ipnet.IP.To4() != nil {
			ips = append(ips, ipnet.IP)
		}
	}

	if len(ips) == 0 {
		return nil, fmt.Errorf("no usable network interfaces")
	}
	return ips, nil
}
