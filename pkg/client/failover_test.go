package client

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	redigo "github.com/garyburd/redigo/redis"
	"golang.org/x/net/context"

	"github.com/tsegismont/vertx-redis-client/pkg/utils/assert"
)

// fakeSentinel answers master-addr queries from a mutable address and
// lets the test push switch-master notifications to its subscribers.
type fakeSentinel struct {
	*fakeNode

	mu         sync.Mutex
	masterAddr string
	subs       []*bufio.Writer
}

func newFakeSentinel(masterAddr string) *fakeSentinel {
	s := &fakeSentinel{masterAddr: masterAddr}
	s.fakeNode = newFakeNode(func(cmd string, args []string, bw *bufio.Writer) bool {
		switch cmd {
		case "PING":
			bw.WriteString(respSimple("PONG"))
		case "SENTINEL":
			s.mu.Lock()
			host, port, _ := net.SplitHostPort(s.masterAddr)
			s.mu.Unlock()
			bw.WriteString(respArray(respBulk(host), respBulk(port)))
		case "SUBSCRIBE":
			bw.WriteString("*3\r\n" + respBulk("subscribe") + respBulk(args[0]) + ":1\r\n")
			s.mu.Lock()
			s.subs = append(s.subs, bw)
			s.mu.Unlock()
		default:
			bw.WriteString(respError("ERR unknown command '" + cmd + "'"))
		}
		return true
	})
	return s
}

func (s *fakeSentinel) setMaster(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masterAddr = addr
}

func (s *fakeSentinel) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *fakeSentinel) publishSwitchMaster(name, from, to string) {
	fh, fp, _ := net.SplitHostPort(from)
	th, tp, _ := net.SplitHostPort(to)
	payload := fmt.Sprintf("%s %s %s %s %s", name, fh, fp, th, tp)
	msg := "*3\r\n" + respBulk("message") + respBulk(switchMasterChannel) + respBulk(payload)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, bw := range s.subs {
		bw.WriteString(msg)
		bw.Flush()
	}
}

func newNamedNode(tag string) *fakeNode {
	return newFakeNode(func(cmd string, args []string, bw *bufio.Writer) bool {
		switch cmd {
		case "PING":
			bw.WriteString(respSimple("PONG"))
		case "GET":
			bw.WriteString(respBulk(tag))
		default:
			bw.WriteString(respError("ERR unknown command '" + cmd + "'"))
		}
		return true
	})
}

func newFailoverTestConfig(sentinel *fakeSentinel) *Config {
	config := newTestConfig(sentinel.Endpoint())
	config.Role = "master"
	config.AutoFailover = true
	config.PoolMaxSize = 1
	config.PoolMaxWaiting = 4
	return config
}

func TestFailoverSwitchMaster(t *testing.T) {
	master1 := newNamedNode("m1")
	defer master1.Close()
	master2 := newNamedNode("m2")
	defer master2.Close()

	sentinel := newFakeSentinel(master1.Addr())
	defer sentinel.Close()

	c := newTestClient(newFailoverTestConfig(sentinel))
	defer c.Close()

	conn, err := c.Connect(context.Background())
	assert.MustNoError(err)
	sc, ok := conn.(*SentinelConn)
	assert.Must(ok)
	assert.Must(sc.Addr() == master1.Addr())

	s, err := redigo.String(conn.Do("GET", "name"))
	assert.MustNoError(err)
	assert.Must(s == "m1")

	assert.Must(waitFor(timeout, func() bool { return sentinel.subscribers() == 1 }))

	// an event for another master group must be ignored
	sentinel.publishSwitchMaster("othermaster", master1.Addr(), master2.Addr())
	time.Sleep(time.Millisecond * 100)
	assert.Must(sc.Addr() == master1.Addr())

	sentinel.setMaster(master2.Addr())
	sentinel.publishSwitchMaster("mymaster", master1.Addr(), master2.Addr())

	assert.Must(waitFor(timeout, func() bool { return sc.Addr() == master2.Addr() }))

	s, err = redigo.String(conn.Do("GET", "name"))
	assert.MustNoError(err)
	assert.Must(s == "m2")

	// the stale conn leaves the pool only after the swap
	addr1, err := ParseAddr(master1.Endpoint())
	assert.MustNoError(err)
	assert.Must(waitFor(timeout, func() bool { return c.pool.Get(addr1, 0) == nil }))

	f := c.failover.Load()
	assert.Must(f != nil)
	assert.Must(f.failovers.Int64() == 1)
}

func TestFailoverSwapsEveryHandle(t *testing.T) {
	master1 := newNamedNode("m1")
	defer master1.Close()
	master2 := newNamedNode("m2")
	defer master2.Close()

	sentinel := newFakeSentinel(master1.Addr())
	defer sentinel.Close()

	c := newTestClient(newFailoverTestConfig(sentinel))
	defer c.Close()

	conns := make([]Conn, 4)
	for i := range conns {
		conn, err := c.Connect(context.Background())
		assert.MustNoError(err)
		conns[i] = conn
	}
	assert.Must(waitFor(timeout, func() bool { return sentinel.subscribers() == 1 }))

	sentinel.setMaster(master2.Addr())
	sentinel.publishSwitchMaster("mymaster", master1.Addr(), master2.Addr())

	for _, conn := range conns {
		conn := conn
		assert.Must(waitFor(timeout, func() bool { return conn.Addr() == master2.Addr() }))
	}

	for _, conn := range conns {
		assert.MustNoError(conn.Close())
	}
	addr2, err := ParseAddr(master2.Endpoint())
	assert.MustNoError(err)
	assert.Must(c.pool.Get(addr2, 0) == nil)
}

func TestSetupFailoverExactlyOnce(t *testing.T) {
	config := newTestConfig(closedEndpoint())
	config.Role = "master"
	config.AutoFailover = true

	c := newTestClient(config)
	defer c.Close()

	var wg sync.WaitGroup
	results := make([]*Failover, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.setupFailover()
		}(i)
	}
	wg.Wait()

	for _, f := range results {
		assert.Must(f == results[0])
	}
	assert.Must(results[0].started.Int64() == 1)
}

func TestFailoverCloseStopsSubscriber(t *testing.T) {
	master1 := newNamedNode("m1")
	defer master1.Close()

	sentinel := newFakeSentinel(master1.Addr())
	defer sentinel.Close()

	c := newTestClient(newFailoverTestConfig(sentinel))

	conn, err := c.Connect(context.Background())
	assert.MustNoError(err)
	assert.Must(waitFor(timeout, func() bool { return sentinel.subscribers() == 1 }))

	assert.MustNoError(conn.Close())
	assert.MustNoError(c.Close())

	f := c.failover.Load()
	assert.Must(f != nil && f.closed.IsTrue())
	assert.Must(waitFor(timeout, func() bool { return sentinel.live.Int64() == 0 }))
}
