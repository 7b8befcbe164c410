package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/tractorstats/tractor-stats/internal/domain/gamerecord"
	"github.com/tractorstats/tractor-stats/internal/domain/leaderboard"
	"github.com/tractorstats/tractor-stats/internal/platform/logging"
	"github.com/tractorstats/tractor-stats/internal/usecase"
)

type Handler struct {
	statsService   *usecase.StatsService
	partnerService *usecase.PartnerService
	refreshService *usecase.RefreshService
	logger         *logging.Logger
	validator      *validator.Validate
}

func NewHandler(
	statsService *usecase.StatsService,
	partnerService *usecase.PartnerService,
	refreshService *usecase.RefreshService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		statsService:   statsService,
		partnerService: partnerService,
		refreshService: refreshService,
		logger:         logger,
		validator:      validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetGlobalStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGlobalStats")
	defer span.End()

	decks, err := parseDecksParam(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	global, err := h.statsService.GlobalStats(ctx, decks)
	if err != nil {
		h.logger.WarnContext(ctx, "get global stats failed", "decks", decks, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, globalStatsToDTO(ctx, global))
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers")
	defer span.End()

	decks, err := parseDecksParam(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	players, err := h.statsService.ListPlayers(ctx, decks)
	if err != nil {
		h.logger.WarnContext(ctx, "list players failed", "decks", decks, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]playerStatsDTO, 0, len(players))
	for _, stats := range players {
		items = append(items, playerStatsToDTO(ctx, stats))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerStats")
	defer span.End()

	decks, err := parseDecksParam(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	player := strings.TrimSpace(r.PathValue("player"))
	stats, err := h.statsService.PlayerStats(ctx, decks, player)
	if err != nil {
		h.logger.WarnContext(ctx, "get player stats failed", "player", player, "decks", decks, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playerStatsToDTO(ctx, stats))
}

func (h *Handler) GetPlayerPartners(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerPartners")
	defer span.End()

	decks, err := parseDecksParam(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	player := strings.TrimSpace(r.PathValue("player"))
	rankings, err := h.partnerService.Partners(ctx, decks, player)
	if err != nil {
		h.logger.WarnContext(ctx, "get player partners failed", "player", player, "decks", decks, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, partnerRankingsToDTO(ctx, rankings))
}

func (h *Handler) ListLeaderboards(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeaderboards")
	defer span.End()

	decks, err := parseDecksParam(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	boards, err := h.statsService.Leaderboards(ctx, decks)
	if err != nil {
		h.logger.WarnContext(ctx, "list leaderboards failed", "decks", decks, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]leaderboardDTO, 0, len(boards))
	for _, board := range boards {
		items = append(items, leaderboardToDTO(ctx, board))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard")
	defer span.End()

	decks, err := parseDecksParam(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	category := leaderboard.Category(strings.TrimSpace(r.PathValue("category")))
	board, err := h.statsService.Leaderboard(ctx, decks, category)
	if err != nil {
		h.logger.WarnContext(ctx, "get leaderboard failed", "category", category, "decks", decks, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leaderboardToDTO(ctx, board))
}

func (h *Handler) RunRefreshJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRefreshJob")
	defer span.End()

	if h.refreshService == nil {
		writeError(ctx, w, fmt.Errorf("%w: refresh service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req refreshJobRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.refreshService.Refresh(ctx, usecase.RefreshInput{
		DeckModes:  req.DeckModes,
		MaxWorkers: req.MaxWorkers,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "run refresh job failed", "deck_modes", req.DeckModes, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func parseDecksParam(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("decks"))
	if raw == "" {
		return gamerecord.DecksTwo, nil
	}

	decks, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: decks must be a number, got %q", usecase.ErrInvalidInput, raw)
	}
	return decks, nil
}

type refreshJobRequest struct {
	DeckModes  []int `json:"deckModes" validate:"max=4,dive,min=2,max=3"`
	MaxWorkers int   `json:"maxWorkers" validate:"min=0,max=8"`
}
