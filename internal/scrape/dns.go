package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// DefaultNameservers are queried when none are configured
var DefaultNameservers = []string{"8.8.8.8:53", "1.1.1.1:53"}

// Resolver checks that a domain exists before it is scraped
type Resolver struct {
	client  *dns.Client
	servers []string
}

// NewResolver creates a resolver over host:port nameservers
func NewResolver(servers []string, timeout time.Duration) *Resolver {
	if len(servers) == 0 {
		servers = DefaultNameservers
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Resolver{client: &dns.Client{Timeout: timeout}, servers: servers}
}

// HasHost reports whether domain has an A, AAAA or MX record. An NXDOMAIN
// answer is a definite no. The error is set only when no nameserver answered.
func (r *Resolver) HasHost(ctx context.Context, domain string) (bool, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return false, nil
	}

	var lastErr error
	answered := false
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA, dns.TypeMX} {
		found, nx, err := r.query(ctx, domain, qtype)
		if err != nil {
			lastErr = err
			continue
		}
		answered = true
		if nx {
			return false, nil
		}
		if found {
			return true, nil
		}
	}

	if !answered {
		return false, fmt.Errorf("dns lookup for %s failed: %w", domain, lastErr)
	}
	return false, nil
}

func (r *Resolver) query(ctx context.Context, domain string, qtype uint16) (found, nxdomain bool, err error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), qtype)
	msg.RecursionDesired = true

	for _, server := range r.servers {
		resp, _, exErr := r.client.ExchangeContext(ctx, msg, server)
		if exErr != nil {
			err = exErr
			continue
		}
		switch resp.Rcode {
		case dns.RcodeNameError:
			return false, true, nil
		case dns.RcodeSuccess:
			return len(resp.Answer) > 0, false, nil
		default:
			err = fmt.Errorf("%s answered %s", server, dns.RcodeToString[resp.Rcode])
		}
	}
	return false, false, err
}
