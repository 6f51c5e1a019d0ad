package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domcart "example.com/framed-prints/internal/domain/cart"
	domcatalog "example.com/framed-prints/internal/domain/catalog"
	domorder "example.com/framed-prints/internal/domain/order"
	"example.com/framed-prints/internal/domain/pricing"
	domsession "example.com/framed-prints/internal/domain/session"
	authuc "example.com/framed-prints/internal/usecase/auth"
	cartuc "example.com/framed-prints/internal/usecase/cart"
	catalogsvc "example.com/framed-prints/internal/usecase/catalog"
	orderuc "example.com/framed-prints/internal/usecase/order"
	"example.com/framed-prints/pkg/logger"
)

type API struct {
	authSvc    *authuc.Service
	cartSvc    *cartuc.Service
	catalogSvc *catalogsvc.Service
	orderSvc   *orderuc.Service
	health     func(ctx context.Context) error
	log        *zap.Logger
	validator  *validator.Validate
}

type Dependencies struct {
	AuthService    *authuc.Service
	CartService    *cartuc.Service
	CatalogService *catalogsvc.Service
	OrderService   *orderuc.Service
	// HealthCheck pings the store; nil reports healthy.
	HealthCheck func(ctx context.Context) error
	Logger      *zap.Logger
}

func NewAPI(deps Dependencies) *API {
	validate := validator.New()
	return &API{
		authSvc:    deps.AuthService,
		cartSvc:    deps.CartService,
		catalogSvc: deps.CatalogService,
		orderSvc:   deps.OrderService,
		health:     deps.HealthCheck,
		log:        logger.OrNop(deps.Logger).Named("http"),
		validator:  validate,
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(a.requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.AllowContentType("application/json", "text/plain"))

	r.Get("/health", a.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", a.handleStartSession)
		r.Get("/pricing/options", a.handlePricingOptions)

		r.Route("/catalog", func(cr chi.Router) {
			cr.Get("/status", a.handleCatalogStatus)
			cr.Post("/reload", a.handleCatalogReload)
			cr.Get("/photos", a.handleListPhotos)
			cr.Get("/photos/{id}", a.handleGetPhoto)
			cr.Get("/photos/{id}/artist", a.handleGetPhotoArtist)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(a.authMiddleware)

			pr.Route("/me/cart", func(cr chi.Router) {
				cr.Get("/", a.handleGetCart)
				cr.Delete("/", a.handleClearCart)
				cr.Get("/events", a.handleCartEvents)
				cr.Post("/reload", a.handleReloadCart)
				cr.Post("/items", a.handleAddCartItem)
				cr.Post("/items/{id}/increase", a.handleIncreaseCartItem)
				cr.Post("/items/{id}/decrease", a.handleDecreaseCartItem)
				cr.Delete("/items/{id}", a.handleRemoveCartItem)
			})

			pr.Get("/me/selection", a.handleGetSelection)
			pr.Put("/me/selection", a.handleUpdateSelection)
			pr.Post("/me/selection/add", a.handleAddSelection)

			pr.Post("/me/order", a.handleSubmitOrder)
		})
	})

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health(r.Context()); err != nil {
			a.log.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) decodeAndValidate(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return a.validator.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func parseIDParam(r *http.Request, key string) (int64, error) {
	idStr := chi.URLParam(r, key)
	return strconv.ParseInt(idStr, 10, 64)
}

func mapLine(l domcart.Line) map[string]any {
	return map[string]any{
		"id":          l.ID,
		"photo_id":    l.PhotoID,
		"image_url":   l.ImageURL,
		"image_title": l.ImageTitle,
		"frame":       l.Frame,
		"size":        l.Size,
		"unit_price":  l.UnitPrice,
		"quantity":    l.Quantity,
		"subtotal":    l.Subtotal(),
	}
}

func mapState(st cartuc.State) map[string]any {
	lines := make([]map[string]any, 0, len(st.Lines))
	for _, l := range st.Lines {
		lines = append(lines, mapLine(l))
	}
	return map[string]any{
		"version":        st.Version,
		"lines":          lines,
		"total_quantity": st.Totals.Quantity,
		"total_price":    st.Totals.Price,
	}
}

func mapSelection(sel domcart.Selection) map[string]any {
	quote := sel.Quote()
	return map[string]any{
		"photo_id":    sel.PhotoID,
		"image_url":   sel.ImageURL,
		"image_title": sel.ImageTitle,
		"frame":       sel.Frame,
		"size":        sel.Size,
		"quantity":    sel.Quantity,
		"unit_price":  quote.UnitPrice,
		"order_price": quote.OrderPrice,
	}
}

func mapPhoto(p domcatalog.Photo) map[string]any {
	return map[string]any{
		"id":            p.ID,
		"album_id":      p.AlbumID,
		"title":         p.Title,
		"url":           p.URL,
		"thumbnail_url": p.ThumbnailURL,
	}
}

func mapOptions(opts pricing.Options) map[string]any {
	frames := make([]map[string]any, 0, len(opts.Frames))
	for _, f := range opts.Frames {
		frames = append(frames, map[string]any{"frame": f.Frame, "price": f.Price})
	}
	sizes := make([]map[string]any, 0, len(opts.Sizes))
	for _, s := range opts.Sizes {
		sizes = append(sizes, map[string]any{"size": s.Size, "price": s.Price})
	}
	return map[string]any{
		"base_price": opts.BasePrice,
		"frames":     frames,
		"sizes":      sizes,
	}
}

func mapSummary(s *domorder.Summary) map[string]any {
	entries := make([]map[string]any, 0, len(s.Entries))
	for _, e := range s.Entries {
		entries = append(entries, map[string]any{
			"photo_id":    e.PhotoID,
			"image_title": e.ImageTitle,
			"size":        e.Size,
			"frame":       e.Frame,
			"unit_price":  e.UnitPrice,
			"quantity":    e.Quantity,
			"subtotal":    e.Subtotal,
		})
	}
	return map[string]any{
		"reference":      s.Reference,
		"subject":        s.Subject,
		"created_at":     s.CreatedAt,
		"entries":        entries,
		"total_quantity": s.TotalQuantity,
		"total_price":    s.TotalPrice,
	}
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domcart.ErrInvalidQuantity),
		errors.Is(err, domcart.ErrInvalidLine),
		errors.Is(err, pricing.ErrUnknownFrame),
		errors.Is(err, pricing.ErrUnknownSize),
		errors.Is(err, domorder.ErrEmptyOrder),
		errors.Is(err, domsession.ErrInvalidDevice):
		respondError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, domcart.ErrNoSelection):
		respondError(w, http.StatusConflict, err)
	case errors.Is(err, domcart.ErrLineNotFound),
		errors.Is(err, domcatalog.ErrNotFound):
		respondError(w, http.StatusNotFound, err)
	case errors.Is(err, domsession.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, err)
	case errors.Is(err, domcatalog.ErrNetwork),
		errors.Is(err, domorder.ErrDelivery):
		respondError(w, http.StatusBadGateway, err)
	case errors.Is(err, domcart.ErrStorage),
		errors.Is(err, domcatalog.ErrNotReady):
		// Retryable: the store or the catalog may come back.
		respondError(w, http.StatusServiceUnavailable, err)
	default:
		respondError(w, http.StatusInternalServerError, err)
	}
}
