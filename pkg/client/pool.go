package client

import (
	"strconv"
	"sync"
	"time"

	redigo "github.com/garyburd/redigo/redis"

	"github.com/tsegismont/vertx-redis-client/pkg/utils/errors"
	"github.com/tsegismont/vertx-redis-client/pkg/utils/log"
	"github.com/tsegismont/vertx-redis-client/pkg/utils/math2"
	"github.com/tsegismont/vertx-redis-client/pkg/utils/sync2/atomic2"
)

const (
	stateDisconnected = iota
	stateConnected
)

var (
	ErrRespIsRequired   = errors.New("resp is required")
	ErrBackendConnReset = errors.New("backend conn reset")
	ErrClosedBackend    = errors.New("use of closed backend conn")
	ErrClosedPool       = errors.New("use of closed pool")
)

// BackendConn is one long-lived pipelined connection to a redis node.
// Requests flow input -> loopWriter -> tasks -> loopReader, the writer
// reconnects with backoff when a round fails.
type BackendConn struct {
	stop sync.Once
	addr string
	auth string

	input chan *Request
	retry struct {
		fails int
		delay Delay
	}
	state atomic2.Int64

	closed atomic2.Bool
	config *Config

	database int
}

func NewBackendConn(addr string, auth string, database int, config *Config) *BackendConn {
	bc := &BackendConn{
		addr: addr, auth: auth, config: config, database: database,
	}
	bc.input = make(chan *Request, math2.MaxInt(config.PoolMaxWaiting, 1))
	bc.retry.delay = &DelayExp2{
		Min: 50, Max: 5000,
		Unit: time.Millisecond,
	}

	go bc.run()

	return bc
}

func (bc *BackendConn) Addr() string {
	return bc.addr
}

func (bc *BackendConn) Close() {
	bc.stop.Do(func() {
		bc.closed.Set(true)
		close(bc.input)
	})
}

func (bc *BackendConn) IsConnected() bool {
	return bc.state.Int64() == stateConnected
}

func (bc *BackendConn) PushBack(r *Request) {
	if r.Batch != nil {
		r.Batch.Add(1)
	}
	if bc.closed.IsTrue() {
		bc.setResponse(r, nil, ErrClosedBackend)
		return
	}
	bc.input <- r
}

// Do issues one command and waits for its reply.
func (bc *BackendConn) Do(cmd string, args ...interface{}) (interface{}, error) {
	r := NewRequest(cmd, args...)
	bc.PushBack(r)
	r.Batch.Wait()
	return r.Resp, r.Err
}

func (bc *BackendConn) KeepAlive() bool {
	if len(bc.input) != 0 {
		return false
	}
	m := &Request{Cmd: "PING"}
	bc.PushBack(m)
	return true
}

func (bc *BackendConn) newBackendReader(round int, config *Config) (redigo.Conn, chan<- *Request, error) {
	c, err := redigo.Dial("tcp", bc.addr,
		redigo.DialConnectTimeout(config.DialTimeout.Duration()),
		redigo.DialReadTimeout(config.RecvTimeout.Duration()),
		redigo.DialWriteTimeout(config.SendTimeout.Duration()),
		redigo.DialPassword(bc.auth),
		redigo.DialDatabase(bc.database))
	if err != nil {
		return nil, nil, errors.Trace(err)
	}

	tasks := make(chan *Request, math2.MaxInt(config.PoolMaxPipeline, 1))
	go bc.loopReader(tasks, c, round)

	return c, tasks, nil
}

func (bc *BackendConn) setResponse(r *Request, resp interface{}, err error) error {
	r.Resp, r.Err = resp, err
	if r.Batch != nil {
		r.Batch.Done()
	}
	return err
}

func (bc *BackendConn) run() {
	log.Warnf("backend conn [%p] to %s, db-%d start service",
		bc, bc.addr, bc.database)
	for round := 0; bc.closed.IsFalse(); round++ {
		if err := bc.loopWriter(round); err != nil {
			bc.delayBeforeRetry()
		}
	}
	log.Warnf("backend conn [%p] to %s, db-%d stop and exit",
		bc, bc.addr, bc.database)
}

func (bc *BackendConn) loopReader(tasks <-chan *Request, c redigo.Conn, round int) (err error) {
	defer func() {
		c.Close()
		for r := range tasks {
			bc.setResponse(r, nil, ErrBackendConnReset)
		}
		log.WarnErrorf(err, "backend conn [%p] to %s, db-%d reader-[%d] exit",
			bc, bc.addr, bc.database, round)
	}()
	for r := range tasks {
		resp, err := c.Receive()
		if err != nil {
			// a redis error reply belongs to the request, the conn is fine
			if v, ok := err.(redigo.Error); ok {
				bc.setResponse(r, nil, v)
				continue
			}
			return bc.setResponse(r, nil, errors.Errorf("backend conn failure, %s", err))
		}
		bc.setResponse(r, resp, nil)
	}
	return nil
}

func (bc *BackendConn) delayBeforeRetry() {
	bc.retry.fails += 1
	if bc.retry.fails <= 10 {
		return
	}
	timeout := bc.retry.delay.After()
	for bc.closed.IsFalse() {
		select {
		case <-timeout:
			return
		case r, ok := <-bc.input:
			if !ok {
				return
			}
			bc.setResponse(r, nil, ErrBackendConnReset)
		}
	}
}

func (bc *BackendConn) loopWriter(round int) (err error) {
	defer func() {
		for i := len(bc.input); i != 0; i-- {
			r := <-bc.input
			bc.setResponse(r, nil, ErrBackendConnReset)
		}
		log.WarnErrorf(err, "backend conn [%p] to %s, db-%d writer-[%d] exit",
			bc, bc.addr, bc.database, round)
	}()
	c, tasks, err := bc.newBackendReader(round, bc.config)
	if err != nil {
		return err
	}
	defer close(tasks)

	defer bc.state.Set(stateDisconnected)

	bc.state.Set(stateConnected)
	bc.retry.fails = 0
	bc.retry.delay.Reset()

	var pending int
	for r := range bc.input {
		if err := c.Send(r.Cmd, r.Args...); err != nil {
			return bc.setResponse(r, nil, errors.Errorf("backend conn failure, %s", err))
		}
		pending++
		if len(bc.input) == 0 || pending >= cap(tasks)/2 {
			if err := c.Flush(); err != nil {
				return bc.setResponse(r, nil, errors.Errorf("backend conn failure, %s", err))
			}
			pending = 0
		}
		tasks <- r
	}
	return nil
}

// SharedBackendConn multiplexes a fixed set of backend conns to one
// address and refcounts its users, the last Release tears it down.
type SharedBackendConn struct {
	key  string
	addr string

	owner *Pool
	conns []*BackendConn

	seed atomic2.Int64

	refcnt int
}

func newSharedBackendConn(key string, addr *Addr, database int, pool *Pool) *SharedBackendConn {
	s := &SharedBackendConn{
		key: key, addr: addr.Address(),
	}
	s.owner = pool
	s.conns = make([]*BackendConn, pool.parallel)
	for i := range s.conns {
		s.conns[i] = NewBackendConn(s.addr, addr.Auth, database, pool.config)
	}
	s.refcnt = 1
	return s
}

func (s *SharedBackendConn) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

func (s *SharedBackendConn) release() {
	if s.refcnt <= 0 {
		log.Panicf("shared backend conn has been closed, close too many times")
	} else {
		s.refcnt--
	}
	if s.refcnt != 0 {
		return
	}
	for _, bc := range s.conns {
		bc.Close()
	}
	delete(s.owner.pool, s.key)
}

func (s *SharedBackendConn) retain() *SharedBackendConn {
	if s.refcnt <= 0 {
		log.Panicf("shared backend conn has been closed")
	} else {
		s.refcnt++
	}
	return s
}

func (s *SharedBackendConn) Release() {
	if s == nil {
		return
	}
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.release()
}

func (s *SharedBackendConn) Retain() *SharedBackendConn {
	if s == nil {
		return nil
	}
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	return s.retain()
}

// Close implements Conn, it only drops this user's reference.
func (s *SharedBackendConn) Close() error {
	s.Release()
	return nil
}

func (s *SharedBackendConn) KeepAlive() {
	if s == nil {
		return
	}
	for _, bc := range s.conns {
		bc.KeepAlive()
	}
}

func (s *SharedBackendConn) BackendConn(seed uint, must bool) *BackendConn {
	if s == nil {
		return nil
	}

	var i = seed
	for range s.conns {
		i = (i + 1) % uint(len(s.conns))
		if bc := s.conns[i]; bc.IsConnected() {
			return bc
		}
	}
	if !must {
		return nil
	}
	return s.conns[0]
}

func (s *SharedBackendConn) Do(cmd string, args ...interface{}) (interface{}, error) {
	bc := s.BackendConn(uint(s.seed.Incr()), true)
	return bc.Do(cmd, args...)
}

func (s *SharedBackendConn) PushBack(r *Request) {
	bc := s.BackendConn(uint(s.seed.Incr()), true)
	bc.PushBack(r)
}

type Pool struct {
	mu sync.Mutex

	config   *Config
	parallel int

	pool map[string]*SharedBackendConn

	closed bool
}

func NewPool(config *Config) *Pool {
	p := &Pool{
		config: config, parallel: math2.MaxInt(1, config.PoolMaxSize),
	}
	p.pool = make(map[string]*SharedBackendConn)
	return p
}

func (p *Pool) KeepAlive() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, bc := range p.pool {
		bc.KeepAlive()
	}
}

func (p *Pool) Get(addr *Addr, database int) *SharedBackendConn {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pool[poolKey(addr, database)]
}

func (p *Pool) Retain(addr *Addr, database int) (*SharedBackendConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosedPool
	}
	key := poolKey(addr, database)
	if bc := p.pool[key]; bc != nil {
		return bc.retain(), nil
	}
	bc := newSharedBackendConn(key, addr, database, p)
	p.pool[key] = bc
	return bc, nil
}

func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for key, s := range p.pool {
		for _, bc := range s.conns {
			bc.Close()
		}
		delete(p.pool, key)
	}
}

func poolKey(addr *Addr, database int) string {
	return addr.Address() + "/" + strconv.Itoa(database)
}
