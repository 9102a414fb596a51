// Package bootstrap assembles the application from its configuration.
package bootstrap

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Zachkp/folio/internal/adminview"
	"github.com/Zachkp/folio/internal/auth"
	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/contact"
	"github.com/Zachkp/folio/internal/domain"
	"github.com/Zachkp/folio/internal/keepalive"
	"github.com/Zachkp/folio/internal/kv"
	"github.com/Zachkp/folio/internal/media"
	"github.com/Zachkp/folio/internal/projects"
	"github.com/Zachkp/folio/internal/site"
	"github.com/Zachkp/folio/internal/store"
	"github.com/Zachkp/folio/internal/store/sqlstore"
	"github.com/Zachkp/folio/internal/store/supastore"
	"github.com/Zachkp/folio/internal/supabase"
	"github.com/Zachkp/folio/internal/web"
)

const (
	ServiceName = "folio"
	redisPrefix = "folio:"

	sweepInterval = 5 * time.Minute

	defaultAdminUser     = "admin"
	defaultAdminPassword = "admin123"
)

// App owns every long-lived component. Close releases them in reverse order.
type App struct {
	Config  *config.Config
	Backend *store.Backend
	Contact *contact.Service
	Views   *adminview.Registry
	Router  *gin.Engine

	closers []func() error
}

// SetGinMode switches gin to release mode in production.
func SetGinMode(cfg *config.Config) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
}

// OpenBackend connects the configured store. SQL backends are migrated before
// they are returned. Missing hosted-service credentials are reported as
// domain.ErrNotConfigured.
func OpenBackend(ctx context.Context, cfg *config.Config) (*store.Backend, error) {
	switch cfg.DataService.Backend {
	case config.BackendSQLite:
		return openSQL(ctx, sqlstore.SQLite, cfg.DataService.SQLitePath)
	case config.BackendPostgres:
		return openSQL(ctx, sqlstore.Postgres, cfg.DataService.PostgresDSN)
	default:
		c, err := supabase.New(cfg.DataService.URL, cfg.DataService.AnonKey)
		if err != nil {
			return nil, err
		}
		return supastore.NewBackend(c), nil
	}
}

func openSQL(ctx context.Context, dialect sqlstore.Dialect, dsn string) (*store.Backend, error) {
	db, err := sqlstore.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate %s database: %w", dialect, err)
	}
	return db.Backend(), nil
}

// New wires the whole application. A hosted backend without credentials still
// starts; its pages show the load failure and the keep-alive reports the
// missing configuration.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	backend, err := OpenBackend(ctx, cfg)
	switch {
	case errors.Is(err, domain.ErrNotConfigured):
		log.Println("WARNING: Supabase credentials not configured. Set VITE_SUPABASE_URL and VITE_SUPABASE_ANON_KEY.")
		backend = store.Unavailable(cfg.DataService.Backend, err)
	case err != nil:
		return nil, err
	}
	a.Backend = backend
	a.closers = append(a.closers, backend.Close)

	tokens, err := a.openKV(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	provider, err := newProvider(cfg, tokens)
	if err != nil {
		a.Close()
		return nil, err
	}

	secret := []byte(cfg.Admin.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			a.Close()
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		log.Println("WARNING: SESSION_SECRET not set, sessions will not survive a restart")
	}

	broker := auth.NewBroker()
	sessions := auth.NewSessions(secret, cfg.IsProduction(), tokens, cfg.Admin.SessionTTL)
	gate := auth.NewGate(provider, sessions, broker, auth.NewLoginLimiter(time.Minute, 5))

	var notifier contact.Notifier
	if m := contact.NewMailer(cfg.Mail); m != nil {
		notifier = m
	} else {
		log.Println("Contact notifications disabled (SMTP_USER/SMTP_PASS not set)")
	}

	projectSvc := projects.NewService(backend.Projects)
	a.Contact = contact.NewService(backend.Messages, notifier)
	a.Views = adminview.NewRegistry(projectSvc, a.Contact, broker)

	uploader := media.NewUploader(cfg.Media.CloudName, cfg.Media.UploadPreset)
	if !uploader.Configured() {
		log.Println("WARNING: Cloudinary not configured, image upload is disabled")
	}

	content, err := site.Load(cfg.Site.ContentPath)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Router = web.NewRouter(web.Deps{
		ServiceName:    ServiceName,
		Version:        cfg.Server.Version,
		Backend:        backend.Name,
		CORSOrigins:    cfg.Server.CORSOrigins,
		StaticDir:      ".",
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
		Content:        content,
		Projects:       projectSvc,
		Contact:        a.Contact,
		Gate:           gate,
		Views:          a.Views,
		Uploader:       uploader,
		KeepAlive:      keepalive.NewHandler(backend.Pinger),
		Pinger:         backend.Pinger,
	})

	log.Printf("Admin access available at: /admin/login")
	return a, nil
}

func (a *App) openKV(ctx context.Context) (kv.Store, error) {
	if a.Config.Admin.SessionStore != config.SessionStoreRedis {
		m := kv.NewMemory()
		stop := m.StartSweeper(sweepInterval)
		a.closers = append(a.closers, func() error { stop(); return nil })
		return m, nil
	}

	client := redis.NewClient(&redis.Options{Addr: a.Config.Admin.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", a.Config.Admin.RedisAddr, err)
	}
	a.closers = append(a.closers, client.Close)
	return kv.NewRedis(client, redisPrefix), nil
}

// newProvider signs admins in against the hosted auth service when it is
// configured, and against the local credentials otherwise.
func newProvider(cfg *config.Config, tokens kv.Store) (auth.Provider, error) {
	if cfg.DataService.Backend == config.BackendSupabase && cfg.DataService.Configured() {
		return supabase.New(cfg.DataService.URL, cfg.DataService.AnonKey)
	}

	email, password := cfg.Admin.Email, cfg.Admin.Password
	if !cfg.IsProduction() {
		// Default credentials for development
		if email == "" {
			email = defaultAdminUser
			log.Println("WARNING: Using default admin username. Set ADMIN_EMAIL environment variable.")
		}
		if password == "" && cfg.Admin.PasswordHash == "" {
			password = defaultAdminPassword
			log.Println("WARNING: Using default admin password. Set ADMIN_PASSWORD environment variable.")
		}
	}

	p, err := auth.NewLocalProvider(email, password, cfg.Admin.PasswordHash, tokens, cfg.Admin.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("admin credentials: %w", err)
	}
	return p, nil
}

// Close stops the admin views, waits for pending notifications and closes
// the stores.
func (a *App) Close() error {
	if a.Views != nil {
		a.Views.Close()
	}
	if a.Contact != nil {
		a.Contact.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
