package client

import (
	"bufio"
	"testing"

	"github.com/tsegismont/vertx-redis-client/pkg/utils/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()
	assert.MustNoError(config.Validate())
	assert.Must(config.MasterName == "mymaster")
	assert.Must(config.PoolMaxWaiting >= config.PoolMaxSize)
	assert.Must(config.String() != "")
}

func TestConfigValidate(t *testing.T) {
	config := NewDefaultConfig()
	config.MasterName = "no spaces allowed"
	assert.Must(config.Validate() != nil)

	config = NewDefaultConfig()
	config.Sentinels = nil
	assert.Must(config.Validate() != nil)

	config = NewDefaultConfig()
	config.Sentinels = []string{"http://127.0.0.1:80"}
	assert.Must(config.Validate() != nil)

	config = NewDefaultConfig()
	config.Role = "observer"
	assert.Must(config.Validate() != nil)

	config = NewDefaultConfig()
	config.PoolMaxWaiting = config.PoolMaxSize - 1
	assert.Must(config.Validate() != nil)
}

func TestBadPoolOptionsFailFastWithoutNetwork(t *testing.T) {
	node := newFakeNode(func(cmd string, args []string, bw *bufio.Writer) bool {
		bw.WriteString(respSimple("PONG"))
		return true
	})
	defer node.Close()

	config := newTestConfig(node.Endpoint())
	config.PoolMaxSize = 8
	config.PoolMaxWaiting = 4

	_, err := New(config)
	assert.Must(err != nil)
	assert.Must(node.accepted.Int64() == 0)
}
