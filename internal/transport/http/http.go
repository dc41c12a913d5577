package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/corray333/food-ordering/internal/service/models/menuitem"
	"github.com/corray333/food-ordering/internal/service/models/order"
	"github.com/corray333/food-ordering/internal/service/models/user"
	"github.com/corray333/food-ordering/internal/service/services/authsvc"
	getmenuitem "github.com/corray333/food-ordering/internal/transport/http/get_menu_item"
	getorder "github.com/corray333/food-ordering/internal/transport/http/get_order"
	"github.com/corray333/food-ordering/internal/transport/http/health"
	listcategories "github.com/corray333/food-ordering/internal/transport/http/list_categories"
	listmenu "github.com/corray333/food-ordering/internal/transport/http/list_menu"
	listorders "github.com/corray333/food-ordering/internal/transport/http/list_orders"
	"github.com/corray333/food-ordering/internal/transport/http/login"
	"github.com/corray333/food-ordering/internal/transport/http/me"
	authmw "github.com/corray333/food-ordering/internal/transport/http/middleware/auth"
	placeorder "github.com/corray333/food-ordering/internal/transport/http/place_order"
	"github.com/corray333/food-ordering/internal/transport/http/register"
	updatestatus "github.com/corray333/food-ordering/internal/transport/http/update_status"
	"github.com/corray333/food-ordering/pkg/http/middleware/trace"
	"github.com/corray333/food-ordering/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
)

type orderService interface {
	PlaceOrder(ctx context.Context, req order.PlaceRequest) (*order.Order, error)
	GetOrdersForUser(ctx context.Context, model order.QueryOrdersModel) ([]order.Order, error)
	GetOrderByID(ctx context.Context, userID, id int64) (*order.Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*order.StatusSnapshot, error)
}

type menuService interface {
	ListAvailable(ctx context.Context, filter menuitem.Filter) ([]menuitem.MenuItem, error)
	GetAvailableByID(ctx context.Context, id int64) (*menuitem.MenuItem, error)
	Categories(ctx context.Context) ([]string, error)
}

type authService interface {
	Register(ctx context.Context, req authsvc.RegisterRequest) (*user.User, string, error)
	Login(ctx context.Context, email, password string) (*user.User, string, error)
	Authenticate(token string) (user.Principal, error)
	Me(ctx context.Context, p user.Principal) (*user.User, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type HTTPTransport struct {
	server      *http.Server
	router      *chi.Mux
	orders      orderService
	menu        menuService
	auth        authService
	db          pinger
	statusRoles []user.Role
}

func NewHTTPTransport(orders orderService, menu menuService, auth authService, db pinger) *HTTPTransport {
	router := newRouter()
	server := newServer(router)

	roles := make([]user.Role, 0)
	for _, r := range viper.GetStringSlice("auth.status_update_roles") {
		roles = append(roles, user.Role(r))
	}
	if len(roles) == 0 {
		roles = append(roles, user.RoleAdmin)
	}

	return &HTTPTransport{
		server:      server,
		router:      router,
		orders:      orders,
		menu:        menu,
		auth:        auth,
		db:          db,
		statusRoles: roles,
	}
}

func (h *HTTPTransport) Run() error {
	slog.Info("Starting HTTP server", "address", h.server.Addr)

	return h.server.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(authmw.NewAuthMiddleware(h.auth))

			r.Get("/auth/me", h.me)

			r.Get("/menu", h.listMenu)
			r.Get("/menu/categories", h.listCategories)
			r.Get("/menu/{id}", h.getMenuItem)

			r.Post("/orders", h.placeOrder)
			r.Get("/orders", h.listOrders)
			r.Get("/orders/{id}", h.getOrder)
			r.With(authmw.RequireRole(h.statusRoles...)).Patch("/orders/{id}/status", h.updateStatus)
		})
	})
}

func (h *HTTPTransport) health(w http.ResponseWriter, r *http.Request) {
	health.Health(w, r, h.db)
}

func (h *HTTPTransport) register(w http.ResponseWriter, r *http.Request) {
	register.Register(w, r, h.auth)
}

func (h *HTTPTransport) login(w http.ResponseWriter, r *http.Request) {
	login.Login(w, r, h.auth)
}

func (h *HTTPTransport) me(w http.ResponseWriter, r *http.Request) {
	me.Me(w, r, h.auth)
}

func (h *HTTPTransport) listMenu(w http.ResponseWriter, r *http.Request) {
	listmenu.ListMenu(w, r, h.menu)
}

func (h *HTTPTransport) listCategories(w http.ResponseWriter, r *http.Request) {
	listcategories.ListCategories(w, r, h.menu)
}

func (h *HTTPTransport) getMenuItem(w http.ResponseWriter, r *http.Request) {
	getmenuitem.GetMenuItem(w, r, h.menu)
}

func (h *HTTPTransport) placeOrder(w http.ResponseWriter, r *http.Request) {
	placeorder.PlaceOrder(w, r, h.orders)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.orders)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.orders)
}

func (h *HTTPTransport) updateStatus(w http.ResponseWriter, r *http.Request) {
	updatestatus.UpdateStatus(w, r, h.orders)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(trace.NewTraceMiddleware("food-api/http"))
	router.Use(logger.NewLoggerMiddleware(slog.Default()))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
