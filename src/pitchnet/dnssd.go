package pitchnet

/*------------------------------------------------------------------
 *
 * Purpose:	Announce the pitch-estimate TCP service using DNS-SD.
 *
 * Description:	Most people have typed in enough IP addresses and ports
 *		by now, and would rather just select an available tuner
 *		server that is automatically discovered on the local
 *		network — same motivation as the teacher's KISS-over-TCP
 *		announcement (dns_sd.go), reusing the same pure-Go
 *		github.com/brutella/dnssd package for cross-platform
 *		mDNS/DNS-SD without a system daemon or C library.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"os"
	"strings"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
)

// ServiceType is the DNS-SD service type this package advertises.
const ServiceType = "_pitchtune._tcp"

// DefaultServiceName returns "Tuner on <hostname>", or just "Tuner" if
// the hostname cannot be obtained.
func DefaultServiceName() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "Tuner"
	}
	hostname, _, _ = strings.Cut(hostname, ".")
	return "Tuner on " + hostname
}

// Announce publishes this server's TCP port via mDNS/DNS-SD under
// name (DefaultServiceName() if empty) and blocks responding to
// queries until ctx is done. Callers run it in its own goroutine.
func Announce(ctx context.Context, logger *log.Logger, name string, port int) error {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	}
	if name == "" {
		name = DefaultServiceName()
	}

	cfg := dnssd.Config{Name: name, Type: ServiceType, Port: port}
	sv, err := dnssd.NewService(cfg)
	if err != nil {
		return err
	}

	rp, err := dnssd.NewResponder()
	if err != nil {
		return err
	}
	if _, err := rp.Add(sv); err != nil {
		return err
	}

	logger.Info("pitchnet: announcing via DNS-SD", "name", name, "type", ServiceType, "port", port)
	return rp.Respond(ctx)
}
