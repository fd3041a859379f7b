package client

import (
	"bytes"

	"github.com/BurntSushi/toml"

	"github.com/tsegismont/vertx-redis-client/pkg/models"
	"github.com/tsegismont/vertx-redis-client/pkg/utils/errors"
	"github.com/tsegismont/vertx-redis-client/pkg/utils/log"
	"github.com/tsegismont/vertx-redis-client/pkg/utils/timesize"
)

const DefaultConfig = `
##################################################
#                                                #
#              Sentinel - Resolver               #
#                                                #
##################################################

# Symbolic name of the monitored master group.
master_name = "mymaster"

# Ordered list of sentinel endpoints, tried front to back. The last
# reachable endpoint is promoted to the front after every resolution.
sentinels = ["redis://127.0.0.1:26379"]

# Target role: sentinel, master or replica.
role = "master"

# Keep master connections pointed at the current master across failover.
auto_failover = true

# Pool sizing, pool_max_waiting must not be lower than pool_max_size.
pool_max_size = 6
pool_max_waiting = 24
pool_max_pipeline = 128

# Network timeouts of probe and pooled connections.
dial_timeout = "5s"
recv_timeout = "30s"
send_timeout = "30s"

# PING period of idle pooled connections.
keepalive_period = "75s"

# Admin HTTP endpoint, disabled when empty.
admin_addr = ""
`

type Config struct {
	MasterName   string   `toml:"master_name" json:"master_name"`
	Sentinels    []string `toml:"sentinels" json:"sentinels"`
	Role         string   `toml:"role" json:"role"`
	AutoFailover bool     `toml:"auto_failover" json:"auto_failover"`

	PoolMaxSize     int `toml:"pool_max_size" json:"pool_max_size"`
	PoolMaxWaiting  int `toml:"pool_max_waiting" json:"pool_max_waiting"`
	PoolMaxPipeline int `toml:"pool_max_pipeline" json:"pool_max_pipeline"`

	DialTimeout     timesize.Duration `toml:"dial_timeout" json:"dial_timeout"`
	RecvTimeout     timesize.Duration `toml:"recv_timeout" json:"recv_timeout"`
	SendTimeout     timesize.Duration `toml:"send_timeout" json:"send_timeout"`
	KeepAlivePeriod timesize.Duration `toml:"keepalive_period" json:"keepalive_period"`

	AdminAddr string `toml:"admin_addr" json:"admin_addr"`
}

func NewDefaultConfig() *Config {
	c := &Config{}
	if _, err := toml.Decode(DefaultConfig, c); err != nil {
		log.PanicErrorf(err, "decode default config failed")
	}
	return c
}

func (c *Config) LoadFromFile(path string) error {
	_, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.Trace(err)
	}
	return c.Validate()
}

func (c *Config) String() string {
	var b bytes.Buffer
	e := toml.NewEncoder(&b)
	e.Indent = "    "
	if err := e.Encode(c); err != nil {
		log.PanicErrorf(err, "encode config failed")
	}
	return b.String()
}

func (c *Config) Validate() error {
	if err := models.ValidateMasterName(c.MasterName); err != nil {
		return err
	}
	if len(c.Sentinels) == 0 {
		return errors.New("no sentinel endpoints configured")
	}
	for _, s := range c.Sentinels {
		if _, err := ParseAddr(s); err != nil {
			return err
		}
	}
	if _, err := ParseRole(c.Role); err != nil {
		return err
	}
	if c.PoolMaxSize <= 0 {
		return errors.New("invalid pool_max_size")
	}
	if c.PoolMaxWaiting < c.PoolMaxSize {
		return errors.New("invalid pool options: pool_max_waiting < pool_max_size")
	}
	if c.PoolMaxPipeline <= 0 {
		return errors.New("invalid pool_max_pipeline")
	}
	if c.DialTimeout.Duration() <= 0 {
		return errors.New("invalid dial_timeout")
	}
	if c.KeepAlivePeriod.Duration() <= 0 {
		return errors.New("invalid keepalive_period")
	}
	return nil
}
