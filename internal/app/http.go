package app

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"chatdb/pkg/logger"
	"chatdb/pkg/reports"
	"chatdb/pkg/store"
	"chatdb/pkg/utils"
)

// router builds the ops HTTP surface: health, metrics, docs and the
// read-only report endpoints. Report endpoints sit behind the per-client
// rate limiter since they run aggregations.
func (a *App) router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.readyzHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/docs/").Handler(httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	r.Handle("/openapi.yaml", http.FileServer(http.Dir("./docs")))

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(a.rateLimit)
	v1.HandleFunc("/rooms/{id}/messages", a.roomMessagesHandler).Methods(http.MethodGet)
	v1.HandleFunc("/reports/transfers", a.transfersHandler).Methods(http.MethodGet)
	v1.HandleFunc("/reports/messages-per-day", a.messagesPerDayHandler).Methods(http.MethodGet)
	return r
}

// startHTTP builds the handler, starts the HTTP server in a goroutine and
// returns a channel that will contain any server error.
func (a *App) startHTTP(_ context.Context) <-chan error {
	addr := a.eff.Addr
	if addr == "" {
		addr = a.eff.Config.Addr()
	}
	a.srv = &http.Server{
		Addr:         addr,
		Handler:      a.router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listening", "addr", addr)
		tls := a.eff.Config.Server.TLS
		var err error
		if tls.CertFile != "" && tls.KeyFile != "" {
			err = a.srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = a.srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (a *App) readyzHandler(w http.ResponseWriter, _ *http.Request) {
	if !store.Ready() {
		utils.JSONError(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	ver := a.version
	if ver == "" {
		ver = "dev"
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok", "version": ver})
}

// roomMessagesHandler returns a page of the visible history of one room,
// newest first.
func (a *App) roomMessagesHandler(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]
	q := r.URL.Query()

	before := time.Now().UTC()
	if v := q.Get("before"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			utils.JSONError(w, http.StatusBadRequest, "invalid before timestamp")
			return
		}
		before = t
	}
	limit := parseInt64(q.Get("limit"), 50)

	cur, err := a.msgs.FindVisibleByRoomIDNotContainingTypesBeforeTs(
		r.Context(), roomID, nil, before, true,
		options.Find().SetSort(bson.D{{Key: "ts", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		logger.Error("room_messages_failed", "room", roomID, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "query failed")
		return
	}
	out, err := cur.All(r.Context())
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "query failed")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, out)
}

// transfersHandler returns the transfer counts by department; with
// count_only=1 it returns only the number of grouped departments.
func (a *App) transfersHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end, err := parseRange(q.Get("start"), q.Get("end"))
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts := reports.TransferredRoomsOptions{
		Start:        start,
		End:          end,
		DepartmentID: q.Get("department"),
		Offset:       parseInt64(q.Get("offset"), 0),
		Limit:        parseInt64(q.Get("limit"), 0),
	}

	if q.Get("count_only") == "1" {
		total, err := a.engine.CountTransferredRooms(r.Context(), opts)
		if err != nil {
			logger.Error("transfer_count_failed", "error", err)
			utils.JSONError(w, http.StatusInternalServerError, "report failed")
			return
		}
		_ = utils.JSONWrite(w, http.StatusOK, map[string]int64{"total": total})
		return
	}

	rows, err := a.engine.TransferredRoomsByDepartment(r.Context(), opts)
	if err != nil {
		logger.Error("transfer_report_failed", "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "report failed")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, rows)
}

func (a *App) messagesPerDayHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end, err := parseRange(q.Get("start"), q.Get("end"))
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := a.engine.MessagesSentByDate(r.Context(), reports.MessagesByDateOptions{
		Start: start,
		End:   end,
		Limit: parseInt64(q.Get("limit"), 0),
	})
	if err != nil {
		logger.Error("messages_per_day_failed", "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "report failed")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, rows)
}

func parseInt64(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return def
	}
	return n
}
