package app

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"worklog-sync/internal/domain"
	"worklog-sync/internal/worklog"
)

const maxDocumentBytes = 1 << 20

type scheduleResponse struct {
	Days     []dayJSON          `json:"days"`
	Rejected []worklog.Rejected `json:"rejected"`
}

type dayJSON struct {
	Date       domain.Date `json:"date"`
	TotalHours float64     `json:"total_hours"`
	Entries    []entryJSON `json:"entries"`
}

type entryJSON struct {
	Index    int     `json:"index"`
	Kind     string  `json:"kind"`
	Project  string  `json:"project"`
	Subject  string  `json:"subject"`
	Activity string  `json:"activity"`
	Hours    float64 `json:"hours"`
	Start    string  `json:"start"`
	End      string  `json:"end"`
	TaskID   int64   `json:"work_package_id,omitempty"`
}

func toDayJSON(d domain.DaySchedule) dayJSON {
	out := dayJSON{Date: d.Date, TotalHours: d.TotalHours(), Entries: make([]entryJSON, 0, len(d.Entries))}
	for _, e := range d.Entries {
		out.Entries = append(out.Entries, entryJSON{
			Index:    e.Index,
			Kind:     e.Kind.String(),
			Project:  e.Project,
			Subject:  e.Subject,
			Activity: e.Activity,
			Hours:    e.Hours,
			Start:    e.Start.Format("15:04"),
			End:      e.End.Format("15:04"),
			TaskID:   e.TaskID,
		})
	}
	return out
}

// HTTPServer returns a server that computes day schedules for posted work
// log documents. It never contacts OpenProject.
// Call ListenAndServe on the returned server in a goroutine and Shutdown it on exit.
func (a *App) HTTPServer(addr string) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// POST /schedule?start=HH:MM with a work log document as the body.
	mux.HandleFunc("/schedule", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}

		var start *domain.Clock
		if s := r.URL.Query().Get("start"); s != "" {
			c, err := worklog.ParseClock(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			start = &c
		}

		batch, err := a.loader.Load(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
		if err != nil {
			status := http.StatusBadRequest
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			writeError(w, status, err)
			return
		}

		resp := scheduleResponse{Days: make([]dayJSON, 0, len(batch.Days)), Rejected: batch.Rejected}
		if resp.Rejected == nil {
			resp.Rejected = []worklog.Rejected{}
		}
		for _, day := range batch.Days {
			if start != nil {
				day = a.scheduler.Reanchor(day, *start)
			}
			resp.Days = append(resp.Days, toDayJSON(day))
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           loggingMiddleware(a.log, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.log.Info("http scheduling server configured", slog.String("addr", addr))
	return srv
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "error",
		"error":  err.Error(),
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware provides basic request logging.
func loggingMiddleware(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.String("remote", r.RemoteAddr),
			slog.Duration("dur", time.Since(start)),
		)
	})
}
