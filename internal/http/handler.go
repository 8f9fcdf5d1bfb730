package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/davidbz/waypost/internal/domain"
	"github.com/davidbz/waypost/internal/http/middleware"
	"github.com/davidbz/waypost/internal/observability"
	"github.com/davidbz/waypost/internal/profile"
)

const defaultLangCode = "en"

// Handler handles HTTP requests.
type Handler struct {
	resolver *domain.Resolver
	profiles *profile.CachedClient
}

// NewHandler creates a new HTTP handler (DI constructor). profiles may be
// nil when the profile service is disabled.
func NewHandler(resolver *domain.Resolver, profiles *profile.CachedClient) *Handler {
	return &Handler{
		resolver: resolver,
		profiles: profiles,
	}
}

// resolveResponse is the payload of a successful resolution. An empty
// locations list is the valid "no location found" outcome, never an
// error.
type resolveResponse struct {
	Locations []domain.Location `json:"locations"`
}

// HandleResolve processes location resolution requests.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "query parameter q is required", http.StatusBadRequest)
		return
	}

	langCode := r.URL.Query().Get("lang")
	bias := parseBias(r)

	// Fill missing hints from the user's saved profile when available.
	if stored := h.lookupProfile(r); stored != nil {
		if langCode == "" {
			langCode = stored.Language
		}
		if bias == nil {
			bias = stored.Location
		}
	}
	if langCode == "" {
		langCode = defaultLangCode
	}
	ctx = observability.WithLangCode(ctx, langCode)

	logger := observability.FromContext(ctx)
	logger.Info("resolve request received",
		zap.String("query", query),
		zap.Bool("biased", bias != nil),
	)

	locations := h.resolver.Resolve(ctx, query, langCode, bias)

	logger.Info("resolve request completed",
		zap.Int("locations", len(locations)),
	)

	writeJSON(w, logger, resolveResponse{Locations: locations})
}

// HandleSaveLocation stores the caller's location in their profile; it is
// used to bias subsequent resolutions.
func (h *Handler) HandleSaveLocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.profiles == nil {
		http.Error(w, "profile service is disabled", http.StatusServiceUnavailable)
		return
	}

	id, ok := identityFrom(r)
	if !ok {
		http.Error(w, "identity required", http.StatusBadRequest)
		return
	}

	var coords domain.Coordinates
	if err := json.NewDecoder(r.Body).Decode(&coords); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.profiles.SetLocation(ctx, id, coords.Latitude, coords.Longitude); err != nil {
		h.writeProfileError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSaveLanguage stores the caller's preferred language code.
func (h *Handler) HandleSaveLanguage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.profiles == nil {
		http.Error(w, "profile service is disabled", http.StatusServiceUnavailable)
		return
	}

	id, ok := identityFrom(r)
	if !ok {
		http.Error(w, "identity required", http.StatusBadRequest)
		return
	}

	var body struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Language == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.profiles.SetLanguage(ctx, id, body.Language); err != nil {
		h.writeProfileError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		// Already written status, can't change it, just log.
		return
	}
}

// lookupProfile fetches the caller's profile through the TTL cache.
// Unknown identities and an unreachable profile service both yield nil;
// the handler then falls back to request-supplied hints.
func (h *Handler) lookupProfile(r *http.Request) *domain.Profile {
	if h.profiles == nil {
		return nil
	}
	id, ok := identityFrom(r)
	if !ok {
		return nil
	}

	stored, err := h.profiles.Get(r.Context(), id)
	if err != nil {
		return nil
	}
	return stored
}

func (h *Handler) writeProfileError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	observability.FromContext(ctx).Error("profile update failed", zap.Error(err))
	http.Error(w, "profile update failed", http.StatusBadGateway)
}

func identityFrom(r *http.Request) (int64, bool) {
	raw := r.Header.Get(middleware.IdentityHeader)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func parseBias(r *http.Request) *domain.Coordinates {
	latRaw := r.URL.Query().Get("lat")
	lonRaw := r.URL.Query().Get("lon")
	if latRaw == "" || lonRaw == "" {
		return nil
	}

	lat, latErr := strconv.ParseFloat(latRaw, 64)
	lon, lonErr := strconv.ParseFloat(lonRaw, 64)
	if latErr != nil || lonErr != nil {
		return nil
	}

	return &domain.Coordinates{Latitude: lat, Longitude: lon}
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}
