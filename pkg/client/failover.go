package client

import (
	"strings"
	"sync"
	"time"

	redigo "github.com/garyburd/redigo/redis"
	"golang.org/x/net/context"

	"github.com/tsegismont/vertx-redis-client/pkg/utils/errors"
	"github.com/tsegismont/vertx-redis-client/pkg/utils/log"
	"github.com/tsegismont/vertx-redis-client/pkg/utils/sync2/atomic2"
)

const switchMasterChannel = "+switch-master"

// Failover is the long-lived subscriber that listens for switch-master
// notifications and repoints every attached SentinelConn at the newly
// promoted master. One instance exists per client.
type Failover struct {
	masterName string
	config     *Config

	create  func(ctx context.Context, role Role) (*SharedBackendConn, error)
	resolve func(ctx context.Context) (*Addr, error)

	mu    sync.Mutex
	conns map[*SentinelConn]struct{}
	sub   redigo.Conn

	started   atomic2.Int64
	closed    atomic2.Bool
	exitC     chan struct{}
	delay     Delay
	failovers atomic2.Int64
}

func newFailover(config *Config,
	create func(ctx context.Context, role Role) (*SharedBackendConn, error),
	resolve func(ctx context.Context) (*Addr, error)) *Failover {
	f := &Failover{
		masterName: config.MasterName, config: config,
		create: create, resolve: resolve,
	}
	f.conns = make(map[*SentinelConn]struct{})
	f.exitC = make(chan struct{})
	f.delay = &DelayExp2{
		Min: 50, Max: 5000,
		Unit: time.Millisecond,
	}
	return f
}

func (f *Failover) start() {
	if f.started.CompareAndSwap(0, 1) {
		go f.run()
	}
}

func (f *Failover) attach(sc *SentinelConn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conns[sc] = struct{}{}
}

func (f *Failover) detach(sc *SentinelConn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.conns, sc)
}

func (f *Failover) run() {
	log.Warnf("sentinel failover [%p] start watching master %s", f, f.masterName)
	for f.closed.IsFalse() {
		err := f.listen()
		if f.closed.IsTrue() {
			break
		}
		log.WarnErrorf(err, "sentinel failover [%p] subscriber lost, resubscribe", f)
		select {
		case <-f.delay.After():
		case <-f.exitC:
		}
	}
	log.Warnf("sentinel failover [%p] stop and exit", f)
}

func (f *Failover) listen() error {
	addr, err := f.resolve(context.Background())
	if err != nil {
		return err
	}
	// the subscriber is dedicated and blocks in Receive, no read timeout
	c, err := redigo.Dial("tcp", addr.Address(),
		redigo.DialConnectTimeout(f.config.DialTimeout.Duration()),
		redigo.DialWriteTimeout(f.config.SendTimeout.Duration()),
		redigo.DialPassword(addr.Auth))
	if err != nil {
		return errors.Trace(err)
	}
	if !f.setSubscriber(c) {
		c.Close()
		return nil
	}
	psc := redigo.PubSubConn{Conn: c}
	if err := psc.Subscribe(switchMasterChannel); err != nil {
		c.Close()
		return errors.Trace(err)
	}
	f.delay.Reset()
	log.Warnf("sentinel failover [%p] subscribed on %s", f, addr.Address())

	for {
		switch v := psc.Receive().(type) {
		case redigo.Message:
			f.onSwitchMaster(v.Data)
		case error:
			c.Close()
			return errors.Trace(v)
		}
	}
}

func (f *Failover) setSubscriber(c redigo.Conn) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed.IsTrue() {
		return false
	}
	f.sub = c
	return true
}

// payload: "<master-name> <old-ip> <old-port> <new-ip> <new-port>"
func (f *Failover) onSwitchMaster(payload []byte) {
	fields := strings.Fields(string(payload))
	if len(fields) < 5 || fields[0] != f.masterName {
		return
	}
	log.Warnf("sentinel failover [%p] master %s moved %s:%s -> %s:%s",
		f, f.masterName, fields[1], fields[2], fields[3], fields[4])
	f.reestablish()
}

func (f *Failover) reestablish() {
	conn, err := f.create(context.Background(), RoleMaster)
	if err != nil {
		log.WarnErrorf(err, "sentinel failover [%p] master %s reconnect failed", f, f.masterName)
		return
	}
	if f.closed.IsTrue() {
		// result of an in-flight re-resolution after close is discarded
		conn.Release()
		return
	}
	f.failovers.Incr()

	f.mu.Lock()
	stale := make([]*SharedBackendConn, 0, len(f.conns))
	taken := false
	for sc := range f.conns {
		next := conn
		if taken {
			next = conn.Retain()
		}
		taken = true
		stale = append(stale, sc.swap(next))
	}
	f.mu.Unlock()

	if !taken {
		conn.Release()
		return
	}
	// stale conns go away only after every handle points at the new master
	for _, old := range stale {
		old.Release()
	}
}

func (f *Failover) close() {
	if !f.closed.CompareAndSwap(false, true) {
		return
	}
	close(f.exitC)
	f.mu.Lock()
	sub := f.sub
	f.sub = nil
	f.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}
