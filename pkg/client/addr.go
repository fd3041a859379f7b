package client

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/tsegismont/vertx-redis-client/pkg/utils/errors"
)

// Addr is a parsed endpoint. Host is kept in display form, an IPv6
// literal is stored bracketed so Address() can be dialed directly.
type Addr struct {
	Scheme string
	Host   string
	Port   int
	Auth   string
	DB     int
}

func ParseAddr(endpoint string) (*Addr, error) {
	if !strings.Contains(endpoint, "://") {
		endpoint = "redis://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Trace(err)
	}
	switch u.Scheme {
	case "redis", "rediss", "redis-sentinel":
	default:
		return nil, errors.Errorf("bad endpoint scheme = %s", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return nil, errors.Errorf("bad endpoint, missing host: %s", endpoint)
	}
	port := 6379
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, errors.Errorf("bad endpoint port = %q", p)
		}
	}
	var auth string
	if u.User != nil {
		if pw, ok := u.User.Password(); ok {
			auth = pw
		} else {
			auth = u.User.Username()
		}
	}
	db := -1
	if path := strings.TrimPrefix(u.Path, "/"); path != "" {
		db, err = strconv.Atoi(path)
		if err != nil || db < 0 {
			return nil, errors.Errorf("bad endpoint database = %q", path)
		}
	}
	return &Addr{
		Scheme: u.Scheme,
		Host:   bracketed(host), Port: port,
		Auth: auth, DB: db,
	}, nil
}

func bracketed(host string) string {
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		return "[" + host + "]"
	}
	return host
}

// WithHostPort derives an Addr pointing at host:port while keeping the
// credentials and database selection of the original endpoint.
func (a *Addr) WithHostPort(host string, port int) *Addr {
	return &Addr{
		Scheme: a.Scheme,
		Host:   bracketed(host), Port: port,
		Auth: a.Auth, DB: a.DB,
	}
}

func (a *Addr) Address() string {
	return a.Host + ":" + strconv.Itoa(a.Port)
}

func (a *Addr) String() string {
	return a.Address()
}
