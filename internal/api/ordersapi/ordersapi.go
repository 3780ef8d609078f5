package ordersapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/BearBump/ParcelBox/internal/integrations/tracking"
	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/BearBump/ParcelBox/internal/services/orders"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

type Store interface {
	Load(ctx context.Context) []models.Order
	Add(ctx context.Context, trackingNumber, label, forcedCarrier string) (bool, error)
	UpdateLabel(ctx context.Context, trackingNumber, label, forcedCarrier string) (bool, error)
	Remove(ctx context.Context, trackingNumber string) (bool, error)
	RemoveAll(ctx context.Context) error
	Refresh(ctx context.Context, locale models.Locale) ([]models.Order, error)
	Detail(ctx context.Context, trackingNumber string, locale models.Locale) (*orders.Detail, error)
}

type OrdersAPI struct {
	store         Store
	carriers      tracking.CarrierLister
	defaultLocale models.Locale
}

// New builds the handlers. carriers may be nil, in which case GET /carriers is empty.
func New(store Store, carriers tracking.CarrierLister, defaultLocale models.Locale) *OrdersAPI {
	return &OrdersAPI{store: store, carriers: carriers, defaultLocale: defaultLocale}
}

func (a *OrdersAPI) Register(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", a.listOrders)
		r.Post("/", a.addOrder)
		r.Delete("/", a.removeAllOrders)
		r.Post("/refresh", a.refreshOrders)
		r.Patch("/{trackingNumber}", a.updateOrder)
		r.Delete("/{trackingNumber}", a.removeOrder)
		r.Get("/{trackingNumber}/tracking", a.getTracking)
	})

	r.Get("/carriers", a.listCarriers)
}

type OrderDTO struct {
	TrackingNumber        string     `json:"trackingNumber"`
	Label                 string     `json:"label,omitempty"`
	DisplayLabel          string     `json:"displayLabel"`
	ForcedCarrier         string     `json:"forcedCarrier,omitempty"`
	Status                string     `json:"status,omitempty"`
	Sublabel              string     `json:"sublabel,omitempty"`
	EstimatedDeliveryDate string     `json:"estimatedDeliveryDate,omitempty"`
	Carrier               string     `json:"carrier,omitempty"`
	CarrierSlug           string     `json:"carrierSlug,omitempty"`
	IconPath              string     `json:"iconPath,omitempty"`
	CheckedAt             *time.Time `json:"checkedAt,omitempty"`
}

type ListResponse struct {
	Orders  []OrderDTO     `json:"orders"`
	Counts  map[string]int `json:"counts"`
	Warning string         `json:"warning,omitempty"`
}

type TrackingResponse struct {
	Order    OrderDTO             `json:"order"`
	Progress float64              `json:"progress"`
	Tracking *models.TrackingData `json:"tracking"`
}

type addRequest struct {
	TrackingNumber string `json:"trackingNumber"`
	Label          string `json:"label"`
	ForcedCarrier  string `json:"forcedCarrier"`
}

type updateRequest struct {
	Label         string `json:"label"`
	ForcedCarrier string `json:"forcedCarrier"`
}

// listOrders filters by ?search= and ?status=; counts always cover the whole list.
func (a *OrdersAPI) listOrders(w http.ResponseWriter, r *http.Request) {
	all := a.store.Load(r.Context())
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, ListResponse{
		Orders: toDTOs(orders.Filter(all, q.Get("search"), q.Get("status"))),
		Counts: orders.Counts(all),
	})
}

func (a *OrdersAPI) addOrder(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	added, err := a.store.Add(r.Context(), req.TrackingNumber, req.Label, req.ForcedCarrier)
	if err != nil {
		a.writeStoreError(w, "add order", err)
		return
	}

	tn, _ := orders.NormalizeTrackingNumber(req.TrackingNumber)
	o := find(a.store.Load(r.Context()), tn)
	code := http.StatusOK
	if added {
		code = http.StatusCreated
	}
	writeJSON(w, code, toDTO(o))
}

func (a *OrdersAPI) updateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	tn := chi.URLParam(r, "trackingNumber")

	found, err := a.store.UpdateLabel(r.Context(), tn, req.Label, req.ForcedCarrier)
	if err != nil {
		a.writeStoreError(w, "update order", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, toDTO(find(a.store.Load(r.Context()), normalizeKey(tn))))
}

func (a *OrdersAPI) removeOrder(w http.ResponseWriter, r *http.Request) {
	found, err := a.store.Remove(r.Context(), chi.URLParam(r, "trackingNumber"))
	if err != nil {
		a.writeStoreError(w, "remove order", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *OrdersAPI) removeAllOrders(w http.ResponseWriter, r *http.Request) {
	if err := a.store.RemoveAll(r.Context()); err != nil {
		a.writeStoreError(w, "remove all orders", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *OrdersAPI) refreshOrders(w http.ResponseWriter, r *http.Request) {
	out, err := a.store.Refresh(r.Context(), a.locale(r))
	resp := ListResponse{Orders: toDTOs(out), Counts: orders.Counts(out)}
	if err != nil {
		// статусы свежие, но в хранилище не записались
		slog.Warn("refresh orders not saved", "count", len(out), "error", err.Error())
		resp.Warning = "refreshed orders could not be saved"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *OrdersAPI) getTracking(w http.ResponseWriter, r *http.Request) {
	d, err := a.store.Detail(r.Context(), chi.URLParam(r, "trackingNumber"), a.locale(r))
	switch {
	case err == nil:
	case errors.Is(err, orders.ErrNotFound):
		writeError(w, http.StatusNotFound, "tracking number not found")
		return
	case errors.Is(err, orders.ErrProviderUnavailable):
		writeError(w, http.StatusBadGateway, "tracking provider unavailable")
		return
	default:
		a.writeStoreError(w, "tracking detail", err)
		return
	}
	writeJSON(w, http.StatusOK, TrackingResponse{
		Order:    toDTO(d.Order),
		Progress: d.Progress,
		Tracking: d.Data,
	})
}

func (a *OrdersAPI) listCarriers(w http.ResponseWriter, r *http.Request) {
	if a.carriers == nil {
		writeJSON(w, http.StatusOK, []models.Carrier{})
		return
	}
	cs, err := a.carriers.ListCarriers(r.Context())
	if err != nil {
		slog.Warn("list carriers", "error", err.Error())
		writeError(w, http.StatusBadGateway, "tracking provider unavailable")
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (a *OrdersAPI) locale(r *http.Request) models.Locale {
	q := r.URL.Query()
	return orders.ResolveLocale(models.Locale{
		Language: q.Get("lang"),
		Timezone: q.Get("timezone"),
	}, a.defaultLocale)
}

func (a *OrdersAPI) writeStoreError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, orders.ErrInvalidTrackingNumber) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	slog.Error(op, "error", err.Error())
	writeError(w, http.StatusInternalServerError, "internal error")
}

func toDTO(o models.Order) OrderDTO {
	return OrderDTO{
		TrackingNumber:        o.TrackingNumber,
		Label:                 o.Label,
		DisplayLabel:          o.DisplayLabel(),
		ForcedCarrier:         o.ForcedCarrier,
		Status:                o.Status,
		Sublabel:              o.Sublabel,
		EstimatedDeliveryDate: o.EstimatedDeliveryDate,
		Carrier:               o.Carrier,
		CarrierSlug:           o.CarrierSlug,
		IconPath:              o.IconPath,
		CheckedAt:             o.CheckedAt,
	}
}

func toDTOs(in []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(in))
	for _, o := range in {
		out = append(out, toDTO(o))
	}
	return out
}

func find(in []models.Order, trackingNumber string) models.Order {
	for _, o := range in {
		if o.TrackingNumber == trackingNumber {
			return o
		}
	}
	return models.Order{TrackingNumber: trackingNumber}
}

func normalizeKey(tn string) string {
	if v, err := orders.NormalizeTrackingNumber(tn); err == nil {
		return v
	}
	return tn
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
