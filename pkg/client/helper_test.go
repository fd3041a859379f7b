package client

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/tsegismont/vertx-redis-client/pkg/utils/assert"
	"github.com/tsegismont/vertx-redis-client/pkg/utils/sync2/atomic2"
)

const timeout = time.Second * 5

// fakeNode is a minimal resp-speaking server. The handler gets each
// decoded command and writes the raw reply, returning false closes the
// session.
type fakeNode struct {
	l net.Listener

	handler func(cmd string, args []string, bw *bufio.Writer) bool

	accepted atomic2.Int64
	live     atomic2.Int64
}

func newFakeNode(handler func(cmd string, args []string, bw *bufio.Writer) bool) *fakeNode {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.MustNoError(err)
	s := &fakeNode{l: l, handler: handler}
	go s.serve()
	return s
}

func (s *fakeNode) serve() {
	for {
		c, err := s.l.Accept()
		if err != nil {
			return
		}
		s.accepted.Incr()
		s.live.Incr()
		go s.serveConn(c)
	}
}

func (s *fakeNode) serveConn(c net.Conn) {
	defer func() {
		c.Close()
		s.live.Decr()
	}()
	br := bufio.NewReader(c)
	bw := bufio.NewWriter(c)
	for {
		cmd, args, err := readCommand(br)
		if err != nil {
			return
		}
		if !s.handler(cmd, args, bw) {
			bw.Flush()
			return
		}
		if err := bw.Flush(); err != nil {
			return
		}
	}
}

func (s *fakeNode) Addr() string {
	return s.l.Addr().String()
}

func (s *fakeNode) Endpoint() string {
	return "redis://" + s.Addr()
}

func (s *fakeNode) Close() {
	s.l.Close()
}

func readCommand(br *bufio.Reader) (string, []string, error) {
	line, err := readLine(br)
	if err != nil {
		return "", nil, err
	}
	if len(line) == 0 || line[0] != '*' {
		return "", nil, fmt.Errorf("bad command header %q", line)
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil || n <= 0 {
		return "", nil, fmt.Errorf("bad command header %q", line)
	}
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		bulk, err := readLine(br)
		if err != nil {
			return "", nil, err
		}
		if len(bulk) == 0 || bulk[0] != '$' {
			return "", nil, fmt.Errorf("bad bulk header %q", bulk)
		}
		blen, err := strconv.Atoi(bulk[1:])
		if err != nil || blen < 0 {
			return "", nil, fmt.Errorf("bad bulk header %q", bulk)
		}
		buf := make([]byte, blen+2)
		if _, err := io.ReadFull(br, buf); err != nil {
			return "", nil, err
		}
		parts = append(parts, string(buf[:blen]))
	}
	return strings.ToUpper(parts[0]), parts[1:], nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func respSimple(s string) string {
	return "+" + s + "\r\n"
}

func respError(s string) string {
	return "-" + s + "\r\n"
}

func respBulk(s string) string {
	return fmt.Sprintf("$%d\r\n%s\r\n", len(s), s)
}

func respArray(items ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%d\r\n", len(items))
	for _, item := range items {
		b.WriteString(item)
	}
	return b.String()
}

// closedEndpoint reserves a port and drops it, dialing it must fail.
func closedEndpoint() string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.MustNoError(err)
	addr := l.Addr().String()
	l.Close()
	return "redis://" + addr
}

func newTestConfig(endpoints ...string) *Config {
	config := NewDefaultConfig()
	config.Sentinels = endpoints
	config.DialTimeout.Set(time.Second)
	config.RecvTimeout.Set(time.Second * 5)
	config.SendTimeout.Set(time.Second * 5)
	return config
}

func newTestClient(config *Config) *Client {
	c, err := New(config)
	assert.MustNoError(err)
	return c
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond * 10)
	}
	return cond()
}
