package service

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gorilla/mux"
)

type healthResponse struct {
	Ready          bool  `json:"ready"`
	Instruments    int   `json:"instruments"`
	WSConnected    bool  `json:"wsConnected"`
	WSReconnects   int64 `json:"wsReconnects"`
	UptimeSec      int64 `json:"uptimeSec"`
	LastTickUnix   int64 `json:"lastTickUnix"`
	Candles        int64 `json:"candles"`
	LastCandleUnix int64 `json:"lastCandleUnix"`
}

// RegisterProbes вешает /livez, /readyz и /healthz.
func RegisterProbes(r *mux.Router, state *State) {
	r.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		// liveness: процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		// readiness: инструменты загружены, фид подключён
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		resp := healthResponse{
			Ready:        state.Ready(),
			Instruments:  state.Instruments(),
			WSConnected:  state.WSConnected(),
			WSReconnects: state.Reconnects(),
			UptimeSec:    int64(state.Uptime().Seconds()),
			Candles:      state.Candles(),
		}
		if t := state.LastTick(); !t.IsZero() {
			resp.LastTickUnix = t.Unix()
		}
		if t := state.LastCandle(); !t.IsZero() {
			resp.LastCandleUnix = t.Unix()
		}
		raw, _ := sonic.ConfigStd.Marshal(resp)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
	})
}
