package client

import (
	"strings"

	"github.com/tsegismont/vertx-redis-client/pkg/utils/errors"
)

// Role selects which node type a connection should be resolved to.
type Role int

const (
	RoleSentinel Role = iota
	RoleMaster
	RoleReplica
)

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "sentinel":
		return RoleSentinel, nil
	case "master":
		return RoleMaster, nil
	case "replica", "slave":
		return RoleReplica, nil
	}
	return 0, errors.Errorf("bad role = %s", s)
}

func (r Role) String() string {
	switch r {
	case RoleSentinel:
		return "sentinel"
	case RoleMaster:
		return "master"
	case RoleReplica:
		return "replica"
	default:
		return "unknown"
	}
}
