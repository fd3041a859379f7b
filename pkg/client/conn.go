package client

import (
	"sync/atomic"
)

// Conn is the user-facing connection surface. Connect returns either a
// plain pooled conn or a SentinelConn when auto failover is armed.
type Conn interface {
	Do(cmd string, args ...interface{}) (interface{}, error)
	PushBack(r *Request)
	Addr() string
	Close() error
}

// SentinelConn forwards every operation to the currently active master
// conn. The target is dereferenced fresh on each call, never cached, so
// a swap by the failover monitor is observed by the next operation.
type SentinelConn struct {
	failover *Failover
	current  atomic.Pointer[SharedBackendConn]
}

func newSentinelConn(conn *SharedBackendConn, failover *Failover) *SentinelConn {
	sc := &SentinelConn{failover: failover}
	sc.current.Store(conn)
	failover.attach(sc)
	return sc
}

func (sc *SentinelConn) Do(cmd string, args ...interface{}) (interface{}, error) {
	return sc.current.Load().Do(cmd, args...)
}

func (sc *SentinelConn) PushBack(r *Request) {
	sc.current.Load().PushBack(r)
}

func (sc *SentinelConn) Addr() string {
	return sc.current.Load().Addr()
}

// Close releases only this handle's target. The failover monitor is
// keyed off the client and keeps running for other handles.
func (sc *SentinelConn) Close() error {
	sc.failover.detach(sc)
	return sc.current.Load().Close()
}

func (sc *SentinelConn) swap(conn *SharedBackendConn) *SharedBackendConn {
	return sc.current.Swap(conn)
}
