package service

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"breakout_bot/internal/book"
	"breakout_bot/internal/models"
	feed "breakout_bot/internal/modules/feed/service"
	journal "breakout_bot/internal/modules/journal/service"
	reservation "breakout_bot/internal/modules/reservation/service"
	settings "breakout_bot/internal/modules/settings/service"
	"breakout_bot/internal/runner"
	"breakout_bot/internal/runner/router"

	"github.com/bytedance/sonic"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxBody = 1 << 20

type TickSource interface {
	SubmitBatch(ticks []models.Tick)
	Stats() runner.TickStats
}

type CandleQueue interface {
	Stats() router.Stats
}

// API — дашборд: статистика, сканер, сделки, настройки сторон и управление.
type API struct {
	Book         *book.Book
	State        *State
	Ticks        TickSource
	Candles      CandleQueue
	Settings     settings.Store
	Reservations reservation.Service
	Journal      journal.Journal
	Log          *zap.Logger
}

func (a *API) Register(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stats", a.stats).Methods(http.MethodGet)
	api.HandleFunc("/scanner", a.scanner).Methods(http.MethodGet)
	api.HandleFunc("/orders", a.orders).Methods(http.MethodGet)
	api.HandleFunc("/journal", a.journal).Methods(http.MethodGet)
	api.HandleFunc("/settings/{side}", a.getSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings/{side}", a.putSettings).Methods(http.MethodPut)
	api.HandleFunc("/control", a.control).Methods(http.MethodPost)
	api.HandleFunc("/tick", a.tick).Methods(http.MethodPost)
}

type statsResponse struct {
	PnL          map[models.Side]float64 `json:"pnl"`
	TotalPnL     float64                 `json:"total_pnl"`
	Engines      map[models.Side]bool    `json:"engines"`
	OpenTrades   int                     `json:"open_trades"`
	Instruments  int                     `json:"instruments"`
	Reservations map[models.Side]int     `json:"reservations,omitempty"`
	Ticks        *runner.TickStats       `json:"ticks,omitempty"`
	Candles      *router.Stats           `json:"candles,omitempty"`
}

func (a *API) stats(w http.ResponseWriter, r *http.Request) {
	per, total := a.Book.PnL()
	resp := statsResponse{
		PnL:         per,
		TotalPnL:    total,
		Engines:     a.Book.EngineStatus(),
		Instruments: a.Book.Len(),
	}
	for _, list := range a.Book.Trades(true) {
		resp.OpenTrades += len(list)
	}
	if a.Ticks != nil {
		st := a.Ticks.Stats()
		resp.Ticks = &st
	}
	if a.Candles != nil {
		st := a.Candles.Stats()
		resp.Candles = &st
	}
	if a.Reservations != nil {
		resp.Reservations = make(map[models.Side]int, len(models.AllSides))
		for _, side := range models.AllSides {
			n, err := a.Reservations.SideCount(r.Context(), side)
			if err != nil {
				a.Log.Warn("[API] side count failed", zap.String("side", string(side)), zap.Error(err))
				continue
			}
			resp.Reservations[side] = n
		}
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) scanner(w http.ResponseWriter, _ *http.Request) {
	rows := a.Book.Scanner()
	if rows == nil {
		rows = []book.ScanRow{}
	}
	a.writeJSON(w, http.StatusOK, rows)
}

func (a *API) orders(w http.ResponseWriter, r *http.Request) {
	openOnly := isTrue(r.URL.Query().Get("open_only"))
	a.writeJSON(w, http.StatusOK, a.Book.Trades(openOnly))
}

func (a *API) journal(w http.ResponseWriter, r *http.Request) {
	if a.Journal == nil {
		a.writeError(w, http.StatusServiceUnavailable, "journal is disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	trades, err := a.Journal.Recent(r.Context(), limit)
	if err != nil {
		a.Log.Error("[API] journal read failed", zap.Error(err))
		a.writeError(w, http.StatusInternalServerError, "journal read failed")
		return
	}
	if trades == nil {
		trades = []models.Trade{}
	}
	a.writeJSON(w, http.StatusOK, trades)
}

func (a *API) side(w http.ResponseWriter, r *http.Request) (models.Side, bool) {
	side, ok := models.ParseSide(mux.Vars(r)["side"])
	if !ok {
		a.writeError(w, http.StatusNotFound, "unknown side")
	}
	return side, ok
}

func (a *API) getSettings(w http.ResponseWriter, r *http.Request) {
	side, ok := a.side(w, r)
	if !ok {
		return
	}
	a.writeJSON(w, http.StatusOK, a.Book.Settings(side))
}

func (a *API) putSettings(w http.ResponseWriter, r *http.Request) {
	side, ok := a.side(w, r)
	if !ok {
		return
	}
	var s models.StrategySettings
	if !a.readJSON(w, r, &s) {
		return
	}
	if err := settings.Validate(s); err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if a.Settings != nil {
		if err := a.Settings.Save(r.Context(), side, s); err != nil {
			a.Log.Error("[API] settings save failed", zap.String("side", string(side)), zap.Error(err))
			a.writeError(w, http.StatusInternalServerError, "settings save failed")
			return
		}
	}
	a.Book.SetSettings(side, s)
	a.Log.Info("[API] settings updated", zap.String("side", string(side)))
	a.writeJSON(w, http.StatusOK, s)
}

type controlRequest struct {
	Action  string `json:"action"`
	Side    string `json:"side"`
	Enabled *bool  `json:"enabled"`
	Symbol  string `json:"symbol"`
}

type controlResponse struct {
	OK      bool     `json:"ok"`
	Symbols []string `json:"symbols,omitempty"`
	Message string   `json:"message,omitempty"`
}

func (a *API) control(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if !a.readJSON(w, r, &req) {
		return
	}
	switch req.Action {
	case "toggle_engine":
		side, ok := models.ParseSide(req.Side)
		if !ok {
			a.writeError(w, http.StatusBadRequest, "unknown side")
			return
		}
		enabled := !a.Book.Enabled(side)
		if req.Enabled != nil {
			enabled = *req.Enabled
		}
		a.Book.SetEnabled(side, enabled)
		a.Log.Info("[CTL] engine toggled", zap.String("side", string(side)), zap.Bool("enabled", enabled))
		a.writeJSON(w, http.StatusOK, controlResponse{OK: true})
	case "manual_exit":
		sym := strings.ToUpper(strings.TrimSpace(req.Symbol))
		if sym == "" {
			a.writeError(w, http.StatusBadRequest, "symbol is required")
			return
		}
		if !a.Book.RequestExit(sym) {
			a.writeJSON(w, http.StatusOK, controlResponse{OK: false, Message: "no open trade for " + sym})
			return
		}
		a.Log.Info("[CTL] manual exit requested", zap.String("symbol", sym))
		a.writeJSON(w, http.StatusOK, controlResponse{OK: true, Symbols: []string{sym}})
	case "square_off_all":
		syms := a.Book.SquareOffAll()
		a.Log.Info("[CTL] square off all", zap.Strings("symbols", syms))
		a.writeJSON(w, http.StatusOK, controlResponse{OK: true, Symbols: syms})
	default:
		a.writeError(w, http.StatusBadRequest, "unknown action")
	}
}

// tick принимает кадр в формате фида и отдаёт тики диспетчеру.
func (a *API) tick(w http.ResponseWriter, r *http.Request) {
	if a.Ticks == nil {
		a.writeError(w, http.StatusServiceUnavailable, "tick dispatcher is not running")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "read body")
		return
	}
	ticks, err := feed.DecodeFrame(body)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.Ticks.SubmitBatch(ticks)
	if len(ticks) > 0 && a.State != nil {
		at := ticks[len(ticks)-1].At
		if at.IsZero() {
			at = time.Now()
		}
		a.State.TouchTick(at)
	}
	a.writeJSON(w, http.StatusAccepted, map[string]int{"accepted": len(ticks)})
}

func (a *API) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "read body")
		return false
	}
	if err := sonic.ConfigStd.Unmarshal(body, v); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	raw, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		a.Log.Error("[API] encode response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func (a *API) writeError(w http.ResponseWriter, status int, msg string) {
	a.writeJSON(w, status, map[string]string{"error": msg})
}

func isTrue(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
