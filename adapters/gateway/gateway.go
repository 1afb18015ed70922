// Package gateway resolves course content addresses to public gateway URLs.
package gateway

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/layer-3/learnchain/core"
)

// DefaultHost is the public gateway used when none is configured.
const DefaultHost = "ipfs.io"

// Resolver builds https://<host>/ipfs/<cid> links.
type Resolver struct {
	base *url.URL
}

// New accepts either a bare host ("ipfs.io") or a full base URL
// ("http://127.0.0.1:8080").
func New(gateway string) (*Resolver, error) {
	if gateway == "" {
		gateway = DefaultHost
	}
	if !strings.Contains(gateway, "://") {
		gateway = "https://" + gateway
	}

	base, err := url.Parse(gateway)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway %q: %w", gateway, err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("invalid gateway %q: missing host", gateway)
	}
	base.Path = strings.TrimRight(base.Path, "/")
	return &Resolver{base: base}, nil
}

// Resolve validates a content address and returns its gateway link.
func (r *Resolver) Resolve(contentID string) (core.ContentLink, error) {
	trimmed := strings.TrimSpace(contentID)
	if _, err := cid.Decode(trimmed); err != nil {
		return core.ContentLink{}, fmt.Errorf("%w: %q: %v", core.ErrInvalidContentID, contentID, err)
	}

	// The address is linked as given so it matches the course listing.
	u := *r.base
	u.Path = u.Path + "/ipfs/" + trimmed
	return core.ContentLink{CID: trimmed, URL: u.String()}, nil
}
