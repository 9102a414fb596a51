package web

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/auth"
	"github.com/Zachkp/folio/internal/domain"
	"github.com/Zachkp/folio/internal/media"
	"github.com/Zachkp/folio/internal/projects"
)

// envelope is the { data, error } shape every admin API response takes.
type envelope struct {
	Data  any     `json:"data"`
	Error *string `json:"error"`
}

func strPtr(s string) *string { return &s }

const heartbeatInterval = 25 * time.Second

func (s *Server) registerAPI(api *gin.RouterGroup) {
	api.GET("/projects", s.apiListProjects)
	api.POST("/projects", s.apiCreateProject)
	api.GET("/projects/:id", s.apiGetProject)
	api.PUT("/projects/:id", s.apiUpdateProject)
	api.DELETE("/projects/:id", s.apiDeleteProject)

	api.GET("/messages", s.apiListMessages)
	api.DELETE("/messages/:id", s.apiDeleteMessage)

	api.POST("/upload", s.apiUpload)
	api.GET("/auth/events", s.apiAuthEvents)
}

func respond[T any](c *gin.Context, status int, res projects.Result[T]) {
	if res.OK() {
		c.JSON(status, envelope{Data: res.Data})
		return
	}
	code := http.StatusInternalServerError
	switch {
	case errors.Is(res.Error, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(res.Error, domain.ErrValidation):
		code = http.StatusUnprocessableEntity
	case errors.Is(res.Error, domain.ErrUnauthenticated):
		code = http.StatusUnauthorized
	}
	c.JSON(code, envelope{Error: strPtr(res.Message())})
}

func bindDraft(c *gin.Context) (domain.ProjectFields, bool) {
	var draft domain.ProjectDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Error: strPtr("Invalid request body")})
		return domain.ProjectFields{}, false
	}
	if err := draft.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, envelope{Error: strPtr(err.Error())})
		return domain.ProjectFields{}, false
	}
	return draft.Fields(), true
}

func (s *Server) apiListProjects(c *gin.Context) {
	respond(c, http.StatusOK, s.deps.Projects.List(c.Request.Context()))
}

func (s *Server) apiGetProject(c *gin.Context) {
	respond(c, http.StatusOK, s.deps.Projects.Get(c.Request.Context(), domain.ID(c.Param("id"))))
}

func (s *Server) apiCreateProject(c *gin.Context) {
	fields, ok := bindDraft(c)
	if !ok {
		return
	}
	respond(c, http.StatusCreated, s.deps.Projects.Create(c.Request.Context(), fields))
}

func (s *Server) apiUpdateProject(c *gin.Context) {
	fields, ok := bindDraft(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, s.deps.Projects.Update(c.Request.Context(), domain.ID(c.Param("id")), fields))
}

func (s *Server) apiDeleteProject(c *gin.Context) {
	res := s.deps.Projects.Delete(c.Request.Context(), domain.ID(c.Param("id")))
	if res.OK() {
		c.Status(http.StatusNoContent)
		return
	}
	respond(c, http.StatusOK, res)
}

func (s *Server) apiListMessages(c *gin.Context) {
	msgs, err := s.deps.Contact.List(c.Request.Context())
	if err != nil {
		log.Printf("[admin] Error fetching messages: %v", err)
		c.JSON(http.StatusInternalServerError, envelope{Error: strPtr("Failed to load messages")})
		return
	}
	c.JSON(http.StatusOK, envelope{Data: msgs})
}

func (s *Server) apiDeleteMessage(c *gin.Context) {
	err := s.deps.Contact.Delete(c.Request.Context(), domain.ID(c.Param("id")))
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, envelope{Error: strPtr("Message not found")})
	default:
		log.Printf("[admin] Error deleting message: %v", err)
		c.JSON(http.StatusInternalServerError, envelope{Error: strPtr("Failed to delete message")})
	}
}

// apiUpload checks the file locally and only then hands it to the CDN. The
// returned URL is what the project form stores in its image field.
func (s *Server) apiUpload(c *gin.Context) {
	limit := s.deps.MaxUploadBytes
	if limit <= 0 {
		limit = 2 * media.MaxImageBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		msg := media.UserMessage(media.ErrNotImage)
		if errors.As(err, &tooBig) {
			msg = media.UserMessage(media.ErrTooLarge)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": media.UserMessage(err)})
		return
	}
	defer f.Close()

	head := make([]byte, media.SniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": media.UserMessage(media.ErrNotImage)})
		return
	}
	head = head[:n]

	if err := media.Validate(fh.Size, head, fh.Header.Get("Content-Type")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": media.UserMessage(err)})
		return
	}

	url, err := s.deps.Uploader.Upload(c.Request.Context(), fh.Filename, io.MultiReader(bytes.NewReader(head), f))
	if err != nil {
		log.Printf("[media] Error uploading image: %v", err)
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrNotConfigured) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": media.UserMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// apiAuthEvents streams sign-in and sign-out events for the caller's session
// until it signs out or the client goes away.
func (s *Server) apiAuthEvents(c *gin.Context) {
	sess := currentSession(c)
	events, release := s.deps.Gate.Broker().Subscribe(sess.ID)
	defer release()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("state", gin.H{"event": auth.StateAuthenticated.String(), "user": sess.User})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("auth", ev)
			return ev.Kind != auth.SignedOut
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
