package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/desertthunder/foodgram/internal/metrics"
	"github.com/desertthunder/foodgram/internal/repositories"
	"github.com/desertthunder/foodgram/internal/shared"
)

// Options are the dependencies of the recipe API.
type Options struct {
	Store    *repositories.Store
	Media    *shared.MediaStore
	Logger   *log.Logger
	Registry *prometheus.Registry
	Server   shared.ServerConfig
	Auth     shared.AuthConfig
}

// deps is shared by every resource handler.
type deps struct {
	store    *repositories.Store
	media    *shared.MediaStore
	logger   *log.Logger
	present  *presenter
	activity *metrics.ActivityMetrics
	pageSize int
}

func (d *deps) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, d.logger, err)
}

// NewAPI builds the router serving /api, /metrics and media files.
func NewAPI(opts Options) *ChiRouter {
	if opts.Registry == nil {
		opts.Registry = metrics.NewRegistry()
	}
	if opts.Server.PageSize <= 0 {
		opts.Server.PageSize = 6
	}

	d := &deps{
		store:    opts.Store,
		media:    opts.Media,
		logger:   opts.Logger,
		present:  &presenter{store: opts.Store, media: opts.Media},
		activity: metrics.NewActivityMetrics(opts.Registry),
		pageSize: opts.Server.PageSize,
	}
	httpMetrics := metrics.NewHTTPMetrics(opts.Registry)

	r := NewChiRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		RequestLogger(opts.Logger),
		middleware.Recoverer,
		httpMetrics.Middleware,
		cors.Handler(cors.Options{
			AllowedOrigins: opts.Server.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"Content-Disposition"},
			MaxAge:         300,
		}),
	)
	if opts.Server.RateLimitRequests > 0 {
		r.Use(rateLimit(opts.Server.RateLimitRequests, opts.Server.RateLimitWindow.Duration))
	}
	r.Use(middleware.StripSlashes, TokenAuth(opts.Store, opts.Logger))

	r.Handler(&AuthHandler{deps: d, limiter: NewLoginLimiter(opts.Auth.LoginRate, opts.Auth.LoginBurst)})
	r.Handler(&UserHandler{deps: d, bcryptCost: opts.Auth.BcryptCost})
	r.Handler(&TagHandler{deps: d})
	r.Handler(&IngredientHandler{deps: d})
	r.Handler(&RecipeHandler{deps: d})
	r.Handler(&HealthHandler{deps: d})
	r.Handle(http.MethodGet, "/metrics", metrics.Handler(opts.Registry))

	if prefix, ok := mediaPrefix(opts.Media); ok {
		r.Mount(prefix, mediaHandler(prefix, opts.Media.Root()))
	}

	return r
}

func rateLimit(requests int, window time.Duration) Middleware {
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeDetail(w, http.StatusTooManyRequests, "Request was throttled.")
		}),
	)
}

// mediaPrefix returns the local path media is served under. Absolute URLs point elsewhere and are not mounted.
func mediaPrefix(media *shared.MediaStore) (string, bool) {
	if media == nil {
		return "", false
	}
	u, err := url.Parse(media.BaseURL())
	if err != nil || u.Host != "" {
		return "", false
	}
	prefix := strings.TrimSuffix(u.Path, "/")
	return prefix, prefix != ""
}

// mediaHandler serves uploaded files without directory listings.
func mediaHandler(prefix, root string) http.Handler {
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(root)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeDetail(w, http.StatusMethodNotAllowed, "Method \""+r.Method+"\" not allowed.")
			return
		}
		if strings.HasSuffix(r.URL.Path, "/") {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		files.ServeHTTP(w, r)
	})
}
