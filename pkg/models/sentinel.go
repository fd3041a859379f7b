package models

import (
	"encoding/json"
)

// Sentinel is the serializable snapshot of a sentinel client,
// published by the admin API model endpoint.
type Sentinel struct {
	MasterName   string   `json:"master_name"`
	Endpoints    []string `json:"endpoints"`
	Role         string   `json:"role"`
	AutoFailover bool     `json:"auto_failover,omitempty"`
	AdminAddr    string   `json:"admin_addr,omitempty"`
}

func (s *Sentinel) Encode() []byte {
	return jsonEncode(s)
}

func (s *Sentinel) Decode(info []byte) error {
	return jsonDecode(s, info)
}

func ListSentinel(b []byte) ([]*Sentinel, error) {
	var ss []*Sentinel
	err := json.Unmarshal(b, &ss)
	return ss, err
}
