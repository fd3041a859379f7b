package client

import (
	"math/rand"

	redigo "github.com/garyburd/redigo/redis"
	"golang.org/x/net/context"

	"github.com/tsegismont/vertx-redis-client/pkg/utils/errors"
	"github.com/tsegismont/vertx-redis-client/pkg/utils/log"
)

// checkFunc probes one endpoint for a role and returns the address a
// real connection should be made to.
type checkFunc func(ctx context.Context, ep *Addr) (*Addr, error)

func (c *Client) checkFuncOf(role Role) checkFunc {
	switch role {
	case RoleMaster:
		return c.checkMasterAddr
	case RoleReplica:
		return c.checkReplicaAddr
	default:
		return c.checkSentinelOK
	}
}

// withEndpoint opens a transient conn to an endpoint, runs fn and always
// closes the conn again. Probes never select a database, sentinel nodes
// reject SELECT.
func (c *Client) withEndpoint(ctx context.Context, ep *Addr, fn func(conn redigo.Conn) error) error {
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	conn, err := redigo.Dial("tcp", ep.Address(),
		redigo.DialConnectTimeout(c.config.DialTimeout.Duration()),
		redigo.DialReadTimeout(c.config.RecvTimeout.Duration()),
		redigo.DialWriteTimeout(c.config.SendTimeout.Duration()),
		redigo.DialPassword(ep.Auth))
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.WarnErrorf(err, "probe conn to %s close failed", ep.Address())
		}
	}()
	return fn(conn)
}

func (c *Client) checkSentinelOK(ctx context.Context, ep *Addr) (*Addr, error) {
	err := c.withEndpoint(ctx, ep, func(conn redigo.Conn) error {
		if _, err := conn.Do("PING"); err != nil {
			return errors.Trace(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ep, nil
}

func (c *Client) checkMasterAddr(ctx context.Context, ep *Addr) (*Addr, error) {
	var resolved *Addr
	err := c.withEndpoint(ctx, ep, func(conn redigo.Conn) error {
		name := c.config.MasterName
		reply, err := redigo.Values(conn.Do("SENTINEL", "get-master-addr-by-name", name))
		if err != nil {
			if errors.Cause(err) == redigo.ErrNil {
				return errors.Errorf("failed to resolve master for %s", name)
			}
			return errors.Trace(err)
		}
		if len(reply) < 2 {
			return errors.Errorf("failed to resolve master for %s", name)
		}
		host, err := redigo.String(reply[0], nil)
		if err != nil {
			return errors.Trace(err)
		}
		port, err := redigo.Int(reply[1], nil)
		if err != nil {
			return errors.Trace(err)
		}
		resolved = ep.WithHostPort(host, port)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func (c *Client) checkReplicaAddr(ctx context.Context, ep *Addr) (*Addr, error) {
	var resolved *Addr
	err := c.withEndpoint(ctx, ep, func(conn redigo.Conn) error {
		name := c.config.MasterName
		reply, err := redigo.Values(conn.Do("SENTINEL", "slaves", name))
		if err != nil {
			return errors.Trace(err)
		}
		if len(reply) == 0 {
			return errors.Errorf("no replicas linked to master %s", name)
		}
		// randomness only spreads load across replicas
		entry, err := redigo.Values(reply[rand.Intn(len(reply))], nil)
		if err != nil {
			return errors.Trace(err)
		}
		if len(entry)%2 != 0 {
			return errors.Errorf("corrupted response from sentinel %s", ep.Address())
		}
		var ip string
		var port = 6379
		for i := 0; i < len(entry); i += 2 {
			key, err := redigo.String(entry[i], nil)
			if err != nil {
				return errors.Trace(err)
			}
			switch key {
			case "ip":
				if ip, err = redigo.String(entry[i+1], nil); err != nil {
					return errors.Trace(err)
				}
			case "port":
				if port, err = redigo.Int(entry[i+1], nil); err != nil {
					return errors.Trace(err)
				}
			}
		}
		if ip == "" {
			return errors.Errorf("no ip address found for replica of master %s", name)
		}
		resolved = ep.WithHostPort(ip, port)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}
