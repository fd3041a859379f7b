package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/context"

	"github.com/tsegismont/vertx-redis-client/pkg/client"
	"github.com/tsegismont/vertx-redis-client/pkg/utils/log"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config", "", "path of config file")
	flag.Parse()

	config := client.NewDefaultConfig()
	if configFile != "" {
		if err := config.LoadFromFile(configFile); err != nil {
			log.PanicErrorf(err, "load config file failed\n%s", config)
		}
	}

	c, err := client.New(config)
	if err != nil {
		log.PanicErrorf(err, "create sentinel client with config failed\n%s", config)
	}
	defer c.Close()

	if err := c.Start(); err != nil {
		log.PanicErrorf(err, "start sentinel client failed")
	}

	go func() {
		defer c.Close()
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

		sig := <-ch
		log.Warnf("[%p] client receive signal = '%v'", c, sig)
	}()

	conn, err := c.Connect(context.Background())
	if err != nil {
		log.PanicErrorf(err, "connect to %s of %s failed", config.Role, config.MasterName)
	}
	log.Warnf("[%p] connected to %s node of %s at %s",
		c, config.Role, config.MasterName, conn.Addr())

	last := conn.Addr()
	for !c.IsClosed() {
		if addr := conn.Addr(); addr != last {
			log.Warnf("[%p] %s moved %s -> %s", c, config.MasterName, last, addr)
			last = addr
		}
		time.Sleep(time.Second)
	}

	log.Warnf("[%p] client is exiting ...", c)
}
