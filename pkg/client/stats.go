package client

import (
	"github.com/tsegismont/vertx-redis-client/pkg/models"
)

type Stats struct {
	Online bool `json:"online"`
	Closed bool `json:"closed"`

	Endpoints []string `json:"endpoints"`

	Connect struct {
		Total int64 `json:"total"`
	} `json:"connect"`

	Resolve struct {
		Total int64 `json:"total"`
		Fails int64 `json:"fails"`
	} `json:"resolve"`

	Failover struct {
		Armed bool  `json:"armed"`
		Total int64 `json:"total"`
	} `json:"failover"`
}

type Overview struct {
	Role   string           `json:"role"`
	Config *Config          `json:"config"`
	Model  *models.Sentinel `json:"model"`
	Stats  *Stats           `json:"stats"`
}

func (c *Client) Model() *models.Sentinel {
	var endpoints []string
	for _, ep := range c.resolver.Endpoints() {
		endpoints = append(endpoints, ep.Address())
	}
	return &models.Sentinel{
		MasterName:   c.config.MasterName,
		Endpoints:    endpoints,
		Role:         c.role.String(),
		AutoFailover: c.config.AutoFailover,
		AdminAddr:    c.config.AdminAddr,
	}
}

func (c *Client) Stats() *Stats {
	stats := &Stats{}
	stats.Online = c.IsOnline()
	stats.Closed = c.IsClosed()
	for _, ep := range c.resolver.Endpoints() {
		stats.Endpoints = append(stats.Endpoints, ep.Address())
	}
	stats.Connect.Total = c.stats.connect.Int64()
	stats.Resolve.Total = c.stats.resolve.total.Int64()
	stats.Resolve.Fails = c.stats.resolve.fails.Int64()
	if f := c.failover.Load(); f != nil {
		stats.Failover.Armed = true
		stats.Failover.Total = f.failovers.Int64()
	}
	return stats
}

func (c *Client) Overview() *Overview {
	return &Overview{
		Role:   c.role.String(),
		Config: c.config,
		Model:  c.Model(),
		Stats:  c.Stats(),
	}
}
