package web

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/adminview"
	"github.com/Zachkp/folio/internal/auth"
	"github.com/Zachkp/folio/internal/domain"
)

func (s *Server) registerAdmin(r *gin.Engine) {
	// The page shells render for anyone and resolve the gate from their
	// panel request, showing a loading state until then.
	r.GET("/admin", func(c *gin.Context) { c.Redirect(http.StatusFound, "/admin/projects") })
	r.GET("/admin/projects", s.shell("Projects", "/admin/projects/panel"))
	r.GET("/admin/messages", s.shell("Messages", "/admin/messages/panel"))

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
			"next":  safeNext(c.Query("next")),
		})
	})
	r.POST("/admin/login", s.login)
	r.GET("/admin/logout", s.logout)
	r.POST("/admin/logout", s.logout)

	admin := r.Group("/admin", requireAdmin(s.deps.Gate, false))
	admin.GET("/projects/panel", s.projectsPanel)
	admin.POST("/projects/refresh", s.projectsAction(func(c *gin.Context, ctl *adminview.Controller) error {
		return ctl.Refresh(c.Request.Context())
	}))
	admin.GET("/projects/new", s.projectsAction(func(_ *gin.Context, ctl *adminview.Controller) error {
		ctl.StartCreate()
		return nil
	}))
	admin.GET("/projects/:id/edit", s.projectsAction(func(c *gin.Context, ctl *adminview.Controller) error {
		return ctl.StartEdit(domain.ID(c.Param("id")))
	}))
	admin.POST("/projects/cancel", s.projectsAction(func(_ *gin.Context, ctl *adminview.Controller) error {
		ctl.Cancel()
		return nil
	}))
	admin.POST("/projects", s.projectsAction(submitProject("")))
	admin.POST("/projects/:id", s.projectsAction(func(c *gin.Context, ctl *adminview.Controller) error {
		return submitProject(domain.ID(c.Param("id")))(c, ctl)
	}))
	admin.DELETE("/projects/:id", s.projectsAction(func(c *gin.Context, ctl *adminview.Controller) error {
		return ctl.Delete(c.Request.Context(), domain.ID(c.Param("id")), confirmed(c))
	}))

	admin.GET("/messages/panel", s.messagesPanel)
	admin.DELETE("/messages/:id", s.deleteMessage)

	s.registerAPI(r.Group("/admin/api", requireAdmin(s.deps.Gate, true)))
}

// submitProject creates when id is empty and updates project id otherwise.
func submitProject(id domain.ID) func(*gin.Context, *adminview.Controller) error {
	return func(c *gin.Context, ctl *adminview.Controller) error {
		var draft domain.ProjectDraft
		if err := c.ShouldBind(&draft); err != nil {
			return err
		}
		return ctl.Submit(c.Request.Context(), id, draft)
	}
}

func (s *Server) shell(title, panel string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-shell.html", gin.H{
			"title": title,
			"panel": panel,
		})
	}
}

// safeNext only allows redirects back into the admin area.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/admin/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return "/admin/projects"
}

func confirmed(c *gin.Context) bool {
	v := c.Query("confirmed")
	if v == "" {
		v = c.GetHeader("X-Confirmed")
	}
	return v == "true" || v == "1"
}

// Admin login handler
func (s *Server) login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	next := safeNext(c.PostForm("next"))

	_, err := s.deps.Gate.Login(c.Request.Context(), c.Writer, c.Request, email, password, c.ClientIP())
	if err != nil {
		status, msg := http.StatusUnauthorized, "Invalid credentials"
		switch {
		case errors.Is(err, auth.ErrTooManyAttempts):
			status, msg = http.StatusTooManyRequests, "Too many login attempts. Please wait a minute and try again."
		case errors.Is(err, domain.ErrInvalidCredentials):
		default:
			status, msg = http.StatusBadGateway, "Login is unavailable right now. Please try again later."
		}
		tmpl := "admin-login.html"
		if isHTMX(c) {
			// htmx only swaps 2xx responses
			status, tmpl = http.StatusOK, "login-form.html"
		}
		c.HTML(status, tmpl, gin.H{
			"title": "Admin Login",
			"error": msg,
			"email": email,
			"next":  next,
		})
		return
	}

	if isHTMX(c) {
		c.Header("HX-Redirect", next)
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusFound, next)
}

func (s *Server) logout(c *gin.Context) {
	if err := s.deps.Gate.Logout(c.Request.Context(), c.Writer, c.Request); err != nil {
		log.Printf("[admin] Error during logout: %v", err)
	}
	log.Printf("[admin] Admin logout from %s", auth.HashIP(c.ClientIP()))
	if isHTMX(c) {
		c.Header("HX-Redirect", "/admin/login")
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusFound, "/admin/login")
}

func (s *Server) views(c *gin.Context) *adminview.Session {
	return s.deps.Views.For(currentSession(c).ID)
}

func (s *Server) renderProjects(c *gin.Context, ctl *adminview.Controller, notice string) {
	c.HTML(http.StatusOK, "admin-projects.html", gin.H{
		"state":  ctl.State(),
		"user":   currentSession(c).User,
		"notice": notice,
	})
}

func (s *Server) projectsPanel(c *gin.Context) {
	ctl := s.views(c).Projects
	if err := ctl.Enter(c.Request.Context()); err != nil {
		log.Printf("[admin] Error loading projects: %v", err)
	}
	s.renderProjects(c, ctl, "")
}

// projectsAction runs one controller transition and re-renders the panel.
// Failures are already part of the controller state except for the guard
// errors, which are shown as a notice.
func (s *Server) projectsAction(fn func(*gin.Context, *adminview.Controller) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctl := s.views(c).Projects
		err := fn(c, ctl)

		notice := ""
		switch {
		case err == nil:
		case errors.Is(err, adminview.ErrBusy):
			notice = "Please wait for the current change to finish."
		case errors.Is(err, adminview.ErrNotConfirmed):
			notice = "Delete was not confirmed."
		case errors.Is(err, domain.ErrNotFound):
			notice = "That project no longer exists."
		default:
			log.Printf("[admin] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		}
		s.renderProjects(c, ctl, notice)
	}
}

func (s *Server) messagesPanel(c *gin.Context) {
	v := s.views(c).Messages
	if err := v.Load(c.Request.Context()); err != nil {
		log.Printf("[admin] Error fetching messages: %v", err)
	}
	c.HTML(http.StatusOK, "admin-messages.html", gin.H{
		"state": v.State(),
		"user":  currentSession(c).User,
	})
}

func (s *Server) deleteMessage(c *gin.Context) {
	v := s.views(c).Messages
	notice := ""
	if err := v.Delete(c.Request.Context(), domain.ID(c.Param("id")), confirmed(c)); err != nil {
		switch {
		case errors.Is(err, adminview.ErrNotConfirmed):
			notice = "Delete was not confirmed."
		case errors.Is(err, adminview.ErrBusy):
			notice = "Please wait for the current change to finish."
		default:
			notice = "Failed to delete message"
		}
	}
	c.HTML(http.StatusOK, "admin-messages.html", gin.H{
		"state":  v.State(),
		"user":   currentSession(c).User,
		"notice": notice,
	})
}
