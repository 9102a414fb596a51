// Package web is the HTTP surface: the public portfolio, the admin views and
// their JSON API.
package web

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/adminview"
	"github.com/Zachkp/folio/internal/auth"
	"github.com/Zachkp/folio/internal/contact"
	"github.com/Zachkp/folio/internal/keepalive"
	"github.com/Zachkp/folio/internal/media"
	"github.com/Zachkp/folio/internal/projects"
	"github.com/Zachkp/folio/internal/site"
	"github.com/Zachkp/folio/internal/store"
)

type Deps struct {
	ServiceName string
	Version     string
	Backend     string
	CORSOrigins []string
	// StaticDir is served under /static and /images when set.
	StaticDir string
	// MaxUploadBytes caps the upload request body.
	MaxUploadBytes int64

	Content   *site.Content
	Projects  *projects.Service
	Contact   *contact.Service
	Gate      *auth.Gate
	Views     *adminview.Registry
	Uploader  *media.Uploader
	KeepAlive *keepalive.Handler
	// Pinger may be nil when the data service is not configured.
	Pinger store.Pinger
}

type Server struct {
	deps Deps
}

func NewRouter(d Deps) *gin.Engine {
	s := &Server{deps: d}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID())
	r.HandleMethodNotAllowed = true
	r.SetHTMLTemplate(Templates())

	if d.StaticDir != "" {
		r.Static("/static", d.StaticDir+"/static")
		r.Static("/images", d.StaticDir+"/images")
	}

	NewHealthHandler(d.ServiceName, d.Version, d.Backend, d.Pinger).RegisterRoutes(r)

	// /api is the only surface meant for other origins
	d.KeepAlive.RegisterRoutes(r.Group("", corsMiddleware(d.CORSOrigins)))

	s.registerPublic(r)
	s.registerAdmin(r)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "OPTIONS"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
