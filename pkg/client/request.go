package client

import (
	"sync"
	"time"
)

// Request carries one command through a backend conn. Callers wait on
// Batch, Resp/Err are only valid once the wait returns.
type Request struct {
	Cmd  string
	Args []interface{}

	Resp interface{}
	Err  error

	Batch *sync.WaitGroup

	UnixNano int64
}

func NewRequest(cmd string, args ...interface{}) *Request {
	return &Request{
		Cmd: cmd, Args: args,
		Batch:    &sync.WaitGroup{},
		UnixNano: time.Now().UnixNano(),
	}
}
