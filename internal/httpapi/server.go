package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/arenawatch/internal/domain"
	apimw "github.com/hamed0406/arenawatch/internal/httpapi/middleware"
	"github.com/hamed0406/arenawatch/internal/repo"
	"github.com/hamed0406/arenawatch/internal/tracker"
)

// SubscriptionAdmin lists and upserts subscriptions.
type SubscriptionAdmin interface {
	repo.SubscriptionStore
	repo.SubscriptionWriter
}

// HistoryBuffer is the pending side of the history recorder.
type HistoryBuffer interface {
	Pending(p domain.Platform) int
	Flush(ctx context.Context, p domain.Platform) error
}

type Server struct {
	Logger  *zap.Logger
	Subs    SubscriptionAdmin
	Groups  repo.GroupFeatureWriter
	History repo.HistoryStore
	Cache   *tracker.Cache
	Buffer  HistoryBuffer
	Zone    *time.Location // "today" for up counts
	now     func() time.Time
}

func NewServer(l *zap.Logger, subs SubscriptionAdmin, groups repo.GroupFeatureWriter, hist repo.HistoryStore, cache *tracker.Cache, buf HistoryBuffer, zone *time.Location) *Server {
	if zone == nil {
		zone = time.UTC
	}
	return &Server{
		Logger:  l,
		Subs:    subs,
		Groups:  groups,
		History: hist,
		Cache:   cache,
		Buffer:  buf,
		Zone:    zone,
		now:     time.Now,
	}
}

// Router mounts the status API. Reads need any key, writes an admin key;
// each group has its own per-IP rate limit.
func (s *Server) Router(keys apimw.Keys, origins []string, publicRPM, publicBurst, adminRPM, adminBurst int) http.Handler {
	r := chi.NewRouter()
	if len(origins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/platforms/{platform}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(publicRPM, publicBurst))
			r.Use(apimw.RequireAny(keys))
			r.Get("/subscriptions", s.handleListSubscriptions)
			r.Get("/cache", s.handleCacheSnapshot)
			r.Get("/history/pending", s.handlePendingHistory)
			r.Get("/accounts/{account}/ups", s.handleUpCount)
		})
		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(adminRPM, adminBurst))
			r.Use(apimw.RequireAdmin(keys))
			r.Post("/subscriptions", s.handleUpsertSubscription)
			r.Put("/groups/{group}/feature", s.handleSetGroupFeature)
			r.Post("/history/flush", s.handleFlushHistory)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func platformParam(w http.ResponseWriter, r *http.Request) (domain.Platform, bool) {
	p, err := domain.ParsePlatform(chi.URLParam(r, "platform"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown platform")
		return 0, false
	}
	return p, true
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	p, ok := platformParam(w, r)
	if !ok {
		return
	}
	subs, err := s.Subs.ActiveSubscriptions(r.Context(), p)
	if err != nil {
		s.Logger.Warn("api_list_subscriptions_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list error")
		return
	}
	if subs == nil {
		subs = []domain.Subscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleUpsertSubscription(w http.ResponseWriter, r *http.Request) {
	p, ok := platformParam(w, r)
	if !ok {
		return
	}
	var sub domain.Subscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	sub.Platform = p
	if sub.AccountID <= 0 || sub.SubscriberID <= 0 || (!sub.Private && sub.GroupID <= 0) {
		writeError(w, http.StatusBadRequest, "account_id, subscriber_id and a destination are required")
		return
	}
	if sub.OnlineNotice < domain.OnlineOff || sub.OnlineNotice > domain.OnlineImmediate {
		writeError(w, http.StatusBadRequest, "online_notice must be 0-3")
		return
	}
	if err := s.Subs.UpsertSubscription(r.Context(), sub); err != nil {
		s.Logger.Warn("api_upsert_subscription_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save")
		return
	}
	s.Logger.Info("subscription_saved",
		zap.String("platform", p.String()),
		zap.Int64("account_id", sub.AccountID),
		zap.Int64("subscriber_id", sub.SubscriberID),
	)
	writeJSON(w, http.StatusOK, sub)
}

type featurePayload struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleSetGroupFeature(w http.ResponseWriter, r *http.Request) {
	p, ok := platformParam(w, r)
	if !ok {
		return
	}
	group, err := strconv.ParseInt(chi.URLParam(r, "group"), 10, 64)
	if err != nil || group <= 0 {
		writeError(w, http.StatusBadRequest, "bad group id")
		return
	}
	var body featurePayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	if err := s.Groups.SetGroupFeature(r.Context(), p, group, body.Enabled); err != nil {
		s.Logger.Warn("api_set_group_feature_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"platform": p.String(), "group_id": group, "enabled": body.Enabled})
}

func (s *Server) handleCacheSnapshot(w http.ResponseWriter, r *http.Request) {
	p, ok := platformParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Cache.Snapshot(p))
}

func (s *Server) handlePendingHistory(w http.ResponseWriter, r *http.Request) {
	p, ok := platformParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"platform": p.String(), "pending": s.Buffer.Pending(p)})
}

func (s *Server) handleFlushHistory(w http.ResponseWriter, r *http.Request) {
	p, ok := platformParam(w, r)
	if !ok {
		return
	}
	if err := s.Buffer.Flush(r.Context(), p); err != nil {
		writeError(w, http.StatusServiceUnavailable, "flush failed, records kept")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"platform": p.String(), "pending": s.Buffer.Pending(p)})
}

type upCount struct {
	AccountID  int64 `json:"account_id"`
	Since      int64 `json:"since"`
	Arena      int   `json:"arena"`
	GrandArena int   `json:"grand_arena"`
}

// handleUpCount reports how often the account improved its ranks today.
func (s *Server) handleUpCount(w http.ResponseWriter, r *http.Request) {
	p, ok := platformParam(w, r)
	if !ok {
		return
	}
	account, err := strconv.ParseInt(chi.URLParam(r, "account"), 10, 64)
	if err != nil || account <= 0 {
		writeError(w, http.StatusBadRequest, "bad account id")
		return
	}
	now := s.now().In(s.Zone)
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.Zone).Unix()

	arena, grand, err := s.History.UpCount(r.Context(), p, account, since)
	if err != nil {
		s.Logger.Warn("api_up_count_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "count error")
		return
	}
	writeJSON(w, http.StatusOK, upCount{AccountID: account, Since: since, Arena: arena, GrandArena: grand})
}
