// Package admin exposes cache inspection and maintenance over HTTP.
//
//	GET  /caches               list every store
//	GET  /caches/:name         list stores with that name
//	POST /caches/clear         clear every store, or ?name=... only
//	POST /caches/collect       sweep stale entries from every store
package admin

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codewandler/typecache-go/core/cache"
)

// Registry is the part of *cache.Registry served by the admin API.
type Registry interface {
	ReportAll() []cache.Report
	ClearAll()
	ClearByName(name string) int
	CollectAll() int
	Len() int
}

type ListResponse struct {
	Caches []cache.Report `json:"caches"`
	Count  int            `json:"count"`
}

type ClearResponse struct {
	Cleared int `json:"cleared"`
}

type CollectResponse struct {
	Removed int `json:"removed"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	reg Registry
	log *slog.Logger
}

// Register mounts the admin routes on r.
func Register(r gin.IRouter, reg Registry, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	h := &handler{reg: reg, log: log.With(slog.String("component", "cache-admin"))}

	g := r.Group("/caches")
	{
		g.GET("", h.list)
		g.GET("/:name", h.get)
		g.POST("/clear", h.clear)
		g.POST("/collect", h.collect)
	}
}

// NewRouter returns an engine serving the admin routes and a health check.
func NewRouter(reg Registry, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	Register(r, reg, log)
	return r
}

func (h *handler) list(c *gin.Context) {
	reports := h.reg.ReportAll()
	c.JSON(http.StatusOK, ListResponse{Caches: reports, Count: len(reports)})
}

func (h *handler) get(c *gin.Context) {
	name := c.Param("name")

	var out []cache.Report
	for _, r := range h.reg.ReportAll() {
		if r.Name == name {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no cache named " + name})
		return
	}
	c.JSON(http.StatusOK, ListResponse{Caches: out, Count: len(out)})
}

func (h *handler) clear(c *gin.Context) {
	name, byName := c.GetQuery("name")
	if !byName {
		n := h.reg.Len()
		h.reg.ClearAll()
		h.log.Info("cleared all caches via admin api", slog.Int("stores", n))
		c.JSON(http.StatusOK, ClearResponse{Cleared: n})
		return
	}

	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name must not be empty"})
		return
	}

	n := h.reg.ClearByName(name)
	if n == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no cache named " + name})
		return
	}
	h.log.Info("cleared cache via admin api", slog.String("store", name), slog.Int("stores", n))
	c.JSON(http.StatusOK, ClearResponse{Cleared: n})
}

func (h *handler) collect(c *gin.Context) {
	removed := h.reg.CollectAll()
	h.log.Debug("collected caches via admin api", slog.Int("removed", removed))
	c.JSON(http.StatusOK, CollectResponse{Removed: removed})
}

var _ Registry = (*cache.Registry)(nil)
