package client

import (
	"net/http"
	"strings"

	"github.com/go-martini/martini"
	"github.com/martini-contrib/gzip"
	"github.com/martini-contrib/render"

	"github.com/tsegismont/vertx-redis-client/pkg/utils/log"
	"github.com/tsegismont/vertx-redis-client/pkg/utils/rpc"
)

type apiServer struct {
	client *Client
}

func newApiServer(c *Client) http.Handler {
	m := martini.New()
	m.Use(martini.Recovery())
	m.Use(render.Renderer())
	m.Use(func(w http.ResponseWriter, req *http.Request, c martini.Context) {
		path := req.URL.Path
		if req.Method != "GET" && strings.HasPrefix(path, "/api/") {
			var remoteAddr = req.RemoteAddr
			var headerAddr string
			for _, key := range []string{"X-Real-IP", "X-Forwarded-For"} {
				if val := req.Header.Get(key); val != "" {
					headerAddr = val
					break
				}
			}
			log.Warnf("API call %s from %s [%s]", path, remoteAddr, headerAddr)
		}
		c.Next()
	})
	m.Use(gzip.All())
	m.Use(func(c martini.Context, w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	})

	api := &apiServer{client: c}

	r := martini.NewRouter()
	r.Get("/", func(r render.Render) {
		r.Redirect("/sentinel")
	})
	r.Any("/debug/**", func(w http.ResponseWriter, req *http.Request) {
		http.DefaultServeMux.ServeHTTP(w, req)
	})

	r.Group("/sentinel", func(r martini.Router) {
		r.Get("", api.Overview)
		r.Get("/model", api.Model)
		r.Get("/stats", api.Stats)
	})

	m.MapTo(r, (*martini.Routes)(nil))
	m.Action(r.Handle)
	return m
}

func (s *apiServer) Overview() (int, string) {
	return rpc.ApiResponseJson(s.client.Overview())
}

func (s *apiServer) Model() (int, string) {
	return rpc.ApiResponseJson(s.client.Model())
}

func (s *apiServer) Stats() (int, string) {
	return rpc.ApiResponseJson(s.client.Stats())
}
