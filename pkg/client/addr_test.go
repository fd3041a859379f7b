package client

import (
	"testing"

	"github.com/tsegismont/vertx-redis-client/pkg/utils/assert"
)

func TestParseAddr(t *testing.T) {
	a, err := ParseAddr("127.0.0.1:26379")
	assert.MustNoError(err)
	assert.Must(a.Host == "127.0.0.1")
	assert.Must(a.Port == 26379)
	assert.Must(a.Auth == "")
	assert.Must(a.DB == -1)
	assert.Must(a.Address() == "127.0.0.1:26379")

	a, err = ParseAddr("redis://:secret@10.0.0.1:6380/2")
	assert.MustNoError(err)
	assert.Must(a.Host == "10.0.0.1")
	assert.Must(a.Port == 6380)
	assert.Must(a.Auth == "secret")
	assert.Must(a.DB == 2)

	a, err = ParseAddr("redis-sentinel://[::1]:26379")
	assert.MustNoError(err)
	assert.Must(a.Host == "[::1]")
	assert.Must(a.Address() == "[::1]:26379")

	a, err = ParseAddr("redis://host.local")
	assert.MustNoError(err)
	assert.Must(a.Port == 6379)

	_, err = ParseAddr("http://127.0.0.1:80")
	assert.Must(err != nil)

	_, err = ParseAddr("redis://127.0.0.1:6379/abc")
	assert.Must(err != nil)
}

func TestAddrWithHostPort(t *testing.T) {
	base, err := ParseAddr("redis://:secret@127.0.0.1:26379/3")
	assert.MustNoError(err)

	d := base.WithHostPort("10.0.0.5", 6380)
	assert.Must(d.Host == "10.0.0.5")
	assert.Must(d.Port == 6380)
	assert.Must(d.Auth == "secret")
	assert.Must(d.DB == 3)

	d = base.WithHostPort("::1", 6380)
	assert.Must(d.Host == "[::1]")
	assert.Must(d.Address() == "[::1]:6380")
}
