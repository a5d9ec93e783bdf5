package adapthttp

import (
	"net/http"

	"florist/internal/app"
	"florist/internal/domain"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	catalog *app.CatalogService
	shop    *app.Storefront
	authSvc *app.AuthService
	orders  domain.OrderRepository
	webDir  string
	log     *zap.Logger

	oidcConfig OIDCConfig
	render     *renderer
}

// New creates a Server wired to the given application services. orders may
// be nil, in which case order history is unavailable.
func New(catalog *app.CatalogService, shop *app.Storefront, authSvc *app.AuthService, orders domain.OrderRepository, webDir string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		catalog: catalog,
		shop:    shop,
		authSvc: authSvc,
		orders:  orders,
		webDir:  webDir,
		log:     log,
		render:  newRenderer(),
	}
}

// WithOIDC enables single sign-on.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(chimw.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Use(withNoCache)

		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})

		api.Get("/products", s.handleProducts)
		api.Get("/products/{id}", s.handleProduct)
		api.Get("/occasions", s.handleOccasions)
		api.Get("/collections", s.handleCollections)
		api.Get("/featured", s.handleFeatured)
		api.Get("/auth/config", s.handleConfig)

		api.Group(func(sr chi.Router) {
			sr.Use(s.sessionMiddleware)

			sr.Get("/cart", s.handleCart)
			sr.Delete("/cart", s.handleCartClear)
			sr.Post("/cart/items", s.handleCartAdd)
			sr.Patch("/cart/items/{id}", s.handleCartUpdate)
			sr.Delete("/cart/items/{id}", s.handleCartRemove)

			sr.Get("/checkout", s.handleCheckout)
			sr.Post("/checkout/mode", s.handleCheckoutMode)
			sr.Post("/checkout/signup", s.handleSignup)
			sr.Post("/checkout/login", s.handleLogin)
			sr.Post("/checkout/logout", s.handleLogout)
			sr.Post("/checkout/proceed", s.handleProceed)
			sr.Post("/checkout/back", s.handleBack)
			sr.Post("/checkout/payment", s.handlePayment)
			sr.Post("/checkout/new", s.handleNewOrder)

			sr.Get("/orders", s.handleOrders)

			sr.Get("/auth/sso/login", s.handleSSOLogin)
			sr.Get("/auth/sso/callback", s.handleSSOCallback)
		})
	})

	r.Handle("/*", spaFromDisk(s.webDir))
	return r
}
