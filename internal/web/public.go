package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/auth"
	"github.com/Zachkp/folio/internal/contact"
	"github.com/Zachkp/folio/internal/domain"
	"github.com/Zachkp/folio/internal/site"
)

const msgProjectsUnavailable = "Failed to load projects"

func (s *Server) registerPublic(r *gin.Engine) {
	r.GET("/", s.home)
	r.GET("/projects", s.projectsGrid)
	r.GET("/projects/:id", s.projectModal)
	r.GET("/experience-content", s.timeline("Experience", s.deps.Content.Experience))
	r.GET("/education-content", s.timeline("Education", s.deps.Content.Education))

	// HTMX contact form endpoint, returns just the form HTML
	r.GET("/contact-form", func(c *gin.Context) {
		c.HTML(http.StatusOK, "contact.html", gin.H{
			"title": "Contact Me",
		})
	})
	r.POST("/contact", s.submitContact)
}

func (s *Server) home(c *gin.Context) {
	res := s.deps.Projects.List(c.Request.Context())
	data := gin.H{
		"content":  s.deps.Content,
		"projects": res.Data,
	}
	if !res.OK() {
		data["projectsError"] = msgProjectsUnavailable
	}
	c.HTML(http.StatusOK, "index.html", data)
}

func (s *Server) projectsGrid(c *gin.Context) {
	res := s.deps.Projects.List(c.Request.Context())
	data := gin.H{"projects": res.Data}
	if !res.OK() {
		data["projectsError"] = msgProjectsUnavailable
	}
	c.HTML(http.StatusOK, "projects.html", data)
}

func (s *Server) projectModal(c *gin.Context) {
	res := s.deps.Projects.Get(c.Request.Context(), domain.ID(c.Param("id")))
	if !res.OK() {
		status := http.StatusInternalServerError
		msg := "Failed to load project"
		if errors.Is(res.Error, domain.ErrNotFound) {
			status, msg = http.StatusNotFound, "Project not found"
		}
		c.HTML(status, "error.html", gin.H{"error": msg})
		return
	}
	c.HTML(http.StatusOK, "project-modal.html", gin.H{"project": res.Data})
}

func (s *Server) timeline(heading string, entries []site.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "timeline.html", gin.H{
			"heading": heading,
			"entries": entries,
		})
	}
}

// Handle contact form submission with HTMX
func (s *Server) submitContact(c *gin.Context) {
	var msg domain.NewMessage
	if err := c.ShouldBind(&msg); err != nil {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{"error": contact.FailureMessage})
		return
	}

	_, err := s.deps.Contact.Submit(c.Request.Context(), auth.HashIP(c.ClientIP()), msg)
	var verr *domain.ValidationError
	switch {
	case err == nil:
		c.HTML(http.StatusOK, "contact-success.html", gin.H{
			"success": contact.SuccessMessage,
		})
	case errors.As(err, &verr):
		c.HTML(http.StatusOK, "contact.html", gin.H{
			"title":  "Contact Me",
			"error":  "Please fill in your name, email and message.",
			"values": msg,
		})
	case errors.Is(err, contact.ErrInFlight):
		c.HTML(http.StatusOK, "contact-error.html", gin.H{"error": "Your message is already being sent."})
	default:
		c.HTML(http.StatusOK, "contact-error.html", gin.H{"error": contact.FailureMessage})
	}
}
