package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/application"
	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
)

// ReservationAPI is what the HTTP layer needs from the lifecycle service.
type ReservationAPI interface {
	CreateReservation(ctx context.Context, in application.CreateReservationInput, requesterID uuid.UUID) (*domain.Reservation, error)
	UpdateReservation(ctx context.Context, id uuid.UUID, in application.UpdateReservationInput, requesterID uuid.UUID) (*domain.Reservation, error)
	CancelReservation(ctx context.Context, id, requesterID uuid.UUID, reason string, isAdmin bool) (*domain.Reservation, error)
	ApproveReservation(ctx context.Context, id, adminID uuid.UUID) (*domain.Reservation, error)
	RejectReservation(ctx context.Context, id, adminID uuid.UUID, reason string) (*domain.Reservation, error)
	GetReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	GetAreaAvailability(ctx context.Context, areaID uuid.UUID, from, to time.Time, slotMinutes *int) (*domain.Availability, error)
	QuoteReservation(ctx context.Context, areaID, requesterID uuid.UUID, startsAt, endsAt time.Time) (application.Quote, error)
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

// UserHeader carries the acting user. Authentication happens upstream.
const UserHeader = "X-User-Id"

// Server agrupa deps para la capa HTTP.
type Server struct {
	svc      ReservationAPI
	loc      *time.Location
	gatherer prometheus.Gatherer
	logger   zerolog.Logger
}

// NewServer builds the HTTP layer. loc is the club timezone used to read
// calendar dates in availability queries.
func NewServer(svc ReservationAPI, loc *time.Location, gatherer prometheus.Gatherer, logger zerolog.Logger) *Server {
	if loc == nil {
		loc = time.UTC
	}
	return &Server{
		svc:      svc,
		loc:      loc,
		gatherer: gatherer,
		logger:   logger.With().Str("component", "http").Logger(),
	}
}

// RegisterRoutes registra todas las rutas HTTP en el mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("POST /reservations", s.withUser(s.handleCreate))
	mux.HandleFunc("GET /reservations/{id}", s.withUser(s.handleGet))
	mux.HandleFunc("PATCH /reservations/{id}", s.withUser(s.handleUpdate))
	mux.HandleFunc("POST /reservations/{id}/cancel", s.withUser(s.handleCancel))
	mux.HandleFunc("POST /reservations/{id}/approve", s.withUser(s.handleApprove))
	mux.HandleFunc("POST /reservations/{id}/reject", s.withUser(s.handleReject))
	mux.HandleFunc("GET /areas/{id}/availability", s.handleAvailability)
	mux.HandleFunc("GET /areas/{id}/quote", s.withUser(s.handleQuote))
	mux.HandleFunc("GET /swagger.json", s.handleSwaggerJson)
}

// Respuesta de health.
type healthResponse struct {
	Status string `json:"status"`
}

type createReservationRequest struct {
	AreaID   uuid.UUID `json:"areaId"`
	StartsAt time.Time `json:"startsAt"`
	EndsAt   time.Time `json:"endsAt"`
	Title    string    `json:"title"`
	Notes    string    `json:"notes"`
}

type updateReservationRequest struct {
	StartsAt *time.Time `json:"startsAt"`
	EndsAt   *time.Time `json:"endsAt"`
	Title    *string    `json:"title"`
	Notes    *string    `json:"notes"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// Respuesta de reservacion.
type reservationResponse struct {
	domain.ReservationSnapshot
	AreaName      string `json:"areaName,omitempty"`
	RequesterName string `json:"requesterName,omitempty"`
}

func toReservationResponse(r *domain.Reservation) reservationResponse {
	resp := reservationResponse{ReservationSnapshot: r.Snapshot()}
	if r.Area != nil {
		resp.AreaName = r.Area.Name
	}
	if r.Requester != nil {
		resp.RequesterName = r.Requester.Name
	}
	return resp
}

type quoteResponse struct {
	BaseCost  string  `json:"baseCost"`
	Discount  string  `json:"discount"`
	FinalCost string  `json:"finalCost"`
	Currency  string  `json:"currency"`
	Hours     float64 `json:"hours"`
}

type userHandler func(w http.ResponseWriter, r *http.Request, userID uuid.UUID)

// withUser rejects requests without a valid acting user.
func (s *Server) withUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(UserHeader)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, errorResponse{Error: "missing " + UserHeader + " header", Code: "unauthenticated"})
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, errorResponse{Error: UserHeader + " is not a valid id", Code: "unauthenticated"})
			return
		}
		next(w, r, userID)
	}
}

// Handler GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// Handler POST /reservations
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	var req createReservationRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.svc.CreateReservation(r.Context(), application.CreateReservationInput{
		AreaID:   req.AreaID,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		Title:    req.Title,
		Notes:    req.Notes,
	}, userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationResponse(res))
}

// Handler GET /reservations/{id}
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := s.svc.GetReservation(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !res.IsOwnedBy(userID) {
		isAdmin, err := s.svc.IsAdmin(r.Context(), userID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if !isAdmin {
			s.fail(w, r, domain.NewAuthorizationFailure("not_owner", "you can only view your own reservations"))
			return
		}
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

// Handler PATCH /reservations/{id}
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateReservationRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.svc.UpdateReservation(r.Context(), id, application.UpdateReservationInput{
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		Title:    req.Title,
		Notes:    req.Notes,
	}, userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

// Handler POST /reservations/{id}/cancel
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req reasonRequest
	if !s.decodeOptional(w, r, &req) {
		return
	}
	isAdmin, err := s.svc.IsAdmin(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.CancelReservation(r.Context(), id, userID, req.Reason, isAdmin)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

// Handler POST /reservations/{id}/approve
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := s.svc.ApproveReservation(r.Context(), id, userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

// Handler POST /reservations/{id}/reject
func (s *Server) handleReject(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req reasonRequest
	if !s.decodeOptional(w, r, &req) {
		return
	}
	res, err := s.svc.RejectReservation(r.Context(), id, userID, req.Reason)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

// Handler GET /areas/{id}/availability?from&to&slot_minutes
func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	areaID, ok := pathID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	from, err := s.parseDate(q.Get("from"))
	if err != nil {
		s.fail(w, r, domain.NewValidationFailure("from", "invalid_date", "from must be YYYY-MM-DD"))
		return
	}
	to := from
	if raw := q.Get("to"); raw != "" {
		if to, err = s.parseDate(raw); err != nil {
			s.fail(w, r, domain.NewValidationFailure("to", "invalid_date", "to must be YYYY-MM-DD"))
			return
		}
	}
	var slot *int
	if raw := q.Get("slot_minutes"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.fail(w, r, domain.NewValidationFailure("slot_minutes", "invalid_number", "slot_minutes must be a number"))
			return
		}
		slot = &n
	}

	avail, err := s.svc.GetAreaAvailability(r.Context(), areaID, from, to, slot)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, avail)
}

// Handler GET /areas/{id}/quote?starts_at&ends_at
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	areaID, ok := pathID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	start, err := time.Parse(time.RFC3339, q.Get("starts_at"))
	if err != nil {
		s.fail(w, r, domain.NewValidationFailure("starts_at", "invalid_time", "starts_at must be RFC 3339"))
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("ends_at"))
	if err != nil {
		s.fail(w, r, domain.NewValidationFailure("ends_at", "invalid_time", "ends_at must be RFC 3339"))
		return
	}

	quote, err := s.svc.QuoteReservation(r.Context(), areaID, userID, start, end)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{
		BaseCost:  quote.BaseCost.StringFixed(2),
		Discount:  quote.Discount.StringFixed(2),
		FinalCost: quote.FinalCost.StringFixed(2),
		Currency:  quote.Currency,
		Hours:     quote.Hours,
	})
}

// Handler GET /swagger.json
func (s *Server) handleSwaggerJson(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(openAPISpec))
}

// parseDate reads a calendar date in the club timezone; full timestamps are also accepted.
func (s *Server) parseDate(raw string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", raw, s.loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "id is invalid", Code: "invalid_id", Field: "id"})
		return uuid.Nil, false
	}
	return id, true
}

const maxBodyBytes = 1 << 20

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error(), Code: "invalid_body"})
		return false
	}
	return true
}

// decodeOptional accepts an empty body.
func (s *Server) decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	return s.decode(w, r, v)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := mapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	} else if !errors.Is(err, domain.ErrValidation) {
		s.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("request rejected")
	}
	writeError(w, status, body)
}

// Util para escribir JSON
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("writeJSON error")
	}
}

func writeError(w http.ResponseWriter, status int, body errorResponse) {
	writeJSON(w, status, body)
}
