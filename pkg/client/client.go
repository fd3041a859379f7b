package client

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/context"

	"github.com/tsegismont/vertx-redis-client/pkg/utils/errors"
	"github.com/tsegismont/vertx-redis-client/pkg/utils/log"
	"github.com/tsegismont/vertx-redis-client/pkg/utils/sync2/atomic2"
)

var ErrClosedClient = errors.New("use of closed client")

// Client resolves sentinel-monitored connections for one master group.
// All Connect calls share the endpoint list, the pool and the lazily
// armed failover monitor.
type Client struct {
	mu sync.Mutex

	config *Config
	role   Role

	resolver *Resolver
	pool     *Pool

	failover atomic.Pointer[Failover]

	online bool
	closed bool

	ladmin net.Listener

	stats struct {
		connect atomic2.Int64
		resolve struct {
			total atomic2.Int64
			fails atomic2.Int64
		}
	}
}

func New(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	role, err := ParseRole(config.Role)
	if err != nil {
		return nil, err
	}
	resolver, err := NewResolver(config.Sentinels)
	if err != nil {
		return nil, err
	}
	c := &Client{
		config: config, role: role,
		resolver: resolver,
		pool:     NewPool(config),
	}
	log.Infof("sentinel client [%p] create: master = %s, endpoints = %d",
		c, config.MasterName, len(config.Sentinels))
	return c, nil
}

// Connect resolves a live node of the configured role and returns a
// pooled connection to it. With role master and auto failover on, the
// returned conn keeps tracking the current master across failover.
func (c *Client) Connect(ctx context.Context) (Conn, error) {
	c.stats.connect.Incr()
	conn, err := c.createConnection(ctx, c.role)
	if err != nil {
		return nil, err
	}
	if c.role == RoleSentinel || c.role == RoleReplica {
		// a replica may later be promoted to master, that is acceptable
		return conn, nil
	}
	if !c.config.AutoFailover {
		return conn, nil
	}
	return newSentinelConn(conn, c.setupFailover()), nil
}

func (c *Client) createConnection(ctx context.Context, role Role) (*SharedBackendConn, error) {
	c.stats.resolve.total.Incr()
	addr, err := c.resolver.Resolve(ctx, c.checkFuncOf(role))
	if err != nil {
		c.stats.resolve.fails.Incr()
		return nil, err
	}
	// SELECT only applies outside sentinel nodes, replicas get no
	// READONLY setup either, that is a cluster-only command
	database := 0
	if role != RoleSentinel && addr.DB > 0 {
		database = addr.DB
	}
	return c.pool.Retain(addr, database)
}

func (c *Client) resolveSentinel(ctx context.Context) (*Addr, error) {
	return c.resolver.Resolve(ctx, c.checkSentinelOK)
}

// setupFailover arms the monitor exactly once per client, the loser of
// a concurrent first call adopts the winner's instance.
func (c *Client) setupFailover() *Failover {
	f := c.failover.Load()
	if f == nil {
		f = newFailover(c.config, c.createConnection, c.resolveSentinel)
		if c.failover.CompareAndSwap(nil, f) {
			f.start()
		} else {
			f = c.failover.Load()
		}
	}
	return f
}

// Start brings the admin API and the pool keepalive loop online.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosedClient
	}
	if c.online {
		return nil
	}
	if c.config.AdminAddr != "" {
		l, err := net.Listen("tcp", c.config.AdminAddr)
		if err != nil {
			return errors.Trace(err)
		}
		c.ladmin = l
		go func() {
			h := newApiServer(c)
			hs := &http.Server{Handler: h}
			if err := hs.Serve(l); err != nil && !c.IsClosed() {
				log.WarnErrorf(err, "sentinel client [%p] admin exit abnormally", c)
			}
		}()
		log.Warnf("sentinel client [%p] admin start service on %s", c, l.Addr())
	}
	go c.keepAlive()
	c.online = true
	return nil
}

func (c *Client) keepAlive() {
	var ticker = time.NewTicker(c.config.KeepAlivePeriod.Duration())
	defer ticker.Stop()
	for range ticker.C {
		if c.IsClosed() {
			return
		}
		c.pool.KeepAlive()
	}
}

func (c *Client) IsOnline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online && !c.closed
}

func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close stops the failover monitor, the admin listener and the pool.
// A closed client cannot re-arm failover.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if f := c.failover.Load(); f != nil {
		f.close()
	}
	if c.ladmin != nil {
		c.ladmin.Close()
	}
	c.pool.Close()
	log.Infof("sentinel client [%p] closed", c)
	return nil
}
