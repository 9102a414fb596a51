// Package keepalive pings the data service so that an idle hosted project is
// not paused.
package keepalive

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/Zachkp/folio/internal/store"
)

const pingTimeout = 10 * time.Second

type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Data      string `json:"data"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// Ping performs the single minimal read.
func Ping(ctx context.Context, p store.Pinger) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		log.Printf("[keepalive] Keep-alive error: %v", err)
		return nil, err
	}
	return &Response{
		Success:   true,
		Message:   "Supabase keep-alive successful",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Data:      "Database is active",
	}, nil
}

// Handler serves GET /api/keep-alive. A nil pinger means the data service
// credentials are missing.
type Handler struct {
	pinger store.Pinger
}

func NewHandler(p store.Pinger) *Handler {
	return &Handler{pinger: p}
}

func (h *Handler) Handle(c *gin.Context) {
	if c.Request.Method != http.MethodGet {
		c.JSON(http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[keepalive] Keep-alive exception: %v", r)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Details: fmt.Sprint(r)})
		}
	}()

	if h.pinger == nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Supabase credentials not configured",
			Message: "Make sure VITE_SUPABASE_URL and VITE_SUPABASE_ANON_KEY (or SUPABASE_URL and SUPABASE_ANON_KEY) are set",
		})
		return
	}

	resp, err := Ping(c.Request.Context(), h.pinger)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to ping Supabase", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.Any("/api/keep-alive", h.Handle)
}

// Scheduler runs the ping in-process on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	pinger store.Pinger
}

func NewScheduler(p store.Pinger) *Scheduler {
	return &Scheduler{cron: cron.New(), pinger: p}
}

// Start registers the job under a standard five-field spec and starts the
// cron runner.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("keep-alive schedule %q: %w", spec, err)
	}
	s.cron.Start()
	log.Printf("[keepalive] Cron scheduler started (%s)", spec)
	return nil
}

func (s *Scheduler) run() {
	if resp, err := Ping(context.Background(), s.pinger); err == nil {
		log.Printf("[keepalive] %s at %s", resp.Message, resp.Timestamp)
	}
}

// Stop waits for a running ping to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
