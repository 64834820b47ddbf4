package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"arena-ladder/internal/api"
	"arena-ladder/internal/auth"
	"arena-ladder/internal/constants"
	"arena-ladder/internal/domain"
	"arena-ladder/internal/middleware"
	"arena-ladder/internal/service"

	"github.com/rs/zerolog"
)

// LadderServer wires the REST surface to the services.
type LadderServer struct {
	playerSvc *service.PlayerService
	matchSvc  *service.MatchService
	authSvc   *auth.Service
	predict   *api.PredictClient
}

func NewLadderServer(
	playerSvc *service.PlayerService,
	matchSvc *service.MatchService,
	authSvc *auth.Service,
	predict *api.PredictClient,
) *LadderServer {
	return &LadderServer{
		playerSvc: playerSvc,
		matchSvc:  matchSvc,
		authSvc:   authSvc,
		predict:   predict,
	}
}

// Routes builds the API mux. Mutating routes sit behind the admin guard.
func (s *LadderServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	admin := middleware.RequireAdmin(s.authSvc)

	// public
	mux.HandleFunc("GET /api/players", s.handleListPlayers)
	mux.HandleFunc("GET /api/players/{id}", s.handleGetPlayer)
	mux.HandleFunc("GET /api/players/{id}/history", s.handlePlayerHistory)
	mux.HandleFunc("GET /api/matchups/{playerID}/{opponentID}", s.handleMatchup)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	// admin
	mux.Handle("POST /api/players", admin(http.HandlerFunc(s.handleCreatePlayer)))
	mux.Handle("PUT /api/players/{id}", admin(http.HandlerFunc(s.handleUpdatePlayer)))
	mux.Handle("DELETE /api/players/{id}", admin(http.HandlerFunc(s.handleDeletePlayer)))
	mux.Handle("POST /api/matches", admin(http.HandlerFunc(s.handleRecordMatch)))
	mux.Handle("POST /api/players/update-ranks", admin(http.HandlerFunc(s.handleUpdateRanks)))
	mux.Handle("GET /api/players/{id}/prediction", admin(http.HandlerFunc(s.handlePrediction)))

	return mux
}

func (s *LadderServer) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	dir, err := s.playerSvc.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dir)
}

func (s *LadderServer) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	player, err := s.playerSvc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (s *LadderServer) handlePlayerHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	records, err := s.playerSvc.History(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *LadderServer) handleMatchup(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathID(r, "playerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	opponentID, err := pathID(r, "opponentID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	matchup, err := s.matchSvc.Matchup(r.Context(), playerID, opponentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matchup)
}

func (s *LadderServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, badRequest("invalid request body"))
		return
	}

	token, err := s.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *LadderServer) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Points int    `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, badRequest("invalid request body"))
		return
	}

	player, err := s.playerSvc.Create(r.Context(), req.Name, req.Points)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

func (s *LadderServer) handleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var patch service.PlayerPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, r, badRequest("invalid request body"))
		return
	}

	player, err := s.playerSvc.Update(r.Context(), id, &patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (s *LadderServer) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	deleted, err := s.playerSvc.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "player not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *LadderServer) handleRecordMatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WinnerID    int64 `json:"winner_id"`
		LoserID     int64 `json:"loser_id"`
		WinnerKills int   `json:"winner_kills"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, badRequest("invalid request body"))
		return
	}

	if err := s.matchSvc.RecordMatch(r.Context(), req.WinnerID, req.LoserID, req.WinnerKills); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"recorded": true})
}

func (s *LadderServer) handleUpdateRanks(w http.ResponseWriter, r *http.Request) {
	if err := s.playerSvc.Rerank(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"reranked": true})
}

func (s *LadderServer) handlePrediction(w http.ResponseWriter, r *http.Request) {
	if !s.predict.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "predictions not configured"})
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	player, err := s.playerSvc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	history, err := s.playerSvc.History(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := contextWithAPITimeout(r)
	defer cancel()

	narrative, err := s.predict.Predict(ctx, player, history)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int64("player_id", id).Msg("prediction failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "prediction service failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]json.RawMessage{"prediction": narrative})
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid " + name)
	}
	return id, nil
}

func badRequest(msg string) error {
	return &domainError{status: http.StatusBadRequest, msg: msg}
}

type domainError struct {
	status int
	msg    string
}

func (e *domainError) Error() string { return e.msg }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the service error taxonomy onto HTTP status codes. Storage
// internals never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domainError
	switch {
	case errors.As(err, &de):
		writeJSON(w, de.status, map[string]string{"error": de.msg})
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "conflicting update in progress, retry"})
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("internal error")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func contextWithAPITimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), constants.ExternalAPITimeout)
}
