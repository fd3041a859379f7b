package client

import (
	"bytes"
	"fmt"
	"sync"

	"golang.org/x/net/context"

	"github.com/tsegismont/vertx-redis-client/pkg/utils/errors"
	"github.com/tsegismont/vertx-redis-client/pkg/utils/log"
)

// Resolver walks the configured endpoints in order until one of them
// answers a probe. The list is shared client-level state, the winner of
// a scan is swapped to the front so later scans try it first.
type Resolver struct {
	mu sync.Mutex

	endpoints []*Addr
}

func NewResolver(endpoints []string) (*Resolver, error) {
	r := &Resolver{}
	for _, s := range endpoints {
		ep, err := ParseAddr(s)
		if err != nil {
			return nil, err
		}
		r.endpoints = append(r.endpoints, ep)
	}
	return r, nil
}

func (r *Resolver) Endpoints() []*Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make([]*Addr, len(r.endpoints))
	copy(snapshot, r.endpoints)
	return snapshot
}

func (r *Resolver) promote(winner *Addr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, ep := range r.endpoints {
		if ep == winner {
			r.endpoints[i] = r.endpoints[0]
			r.endpoints[0] = winner
			return
		}
	}
}

// Resolve probes the endpoints one at a time, never two concurrently,
// and stops at the first success. When every endpoint fails the scan
// fails with all causes listed in order.
func (r *Resolver) Resolve(ctx context.Context, check checkFunc) (*Addr, error) {
	endpoints := r.Endpoints()

	var failures []error
	for _, ep := range endpoints {
		resolved, err := check(ctx, ep)
		if err != nil {
			if errors.Cause(err) == context.Canceled {
				return nil, err
			}
			log.InfoErrorf(err, "sentinel endpoint %s check failed", ep.Address())
			failures = append(failures, err)
			continue
		}
		r.promote(ep)
		return resolved, nil
	}

	var b bytes.Buffer
	b.WriteString("cannot connect to any of the provided endpoints")
	for _, e := range failures {
		fmt.Fprintf(&b, "\n- %s", e)
	}
	return nil, errors.New(b.String())
}
