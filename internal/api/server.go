package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"jobhunt/internal/model"
	"jobhunt/internal/scheduler"
	"jobhunt/internal/storage"
)

// Store 抽象存储接口。
type Store interface {
	Stats(ctx context.Context) (storage.Stats, error)
	ListEnhancedJobs(ctx context.Context, limit, offset int) ([]model.EnhancedJob, error)
}

// Runner 抽象手动触发阶段的接口。
type Runner interface {
	RunOnce(ctx context.Context, name string) (any, error)
}

// JobView 是职位列表的响应项。
type JobView struct {
	JobID           string `json:"job_id"`
	Title           string `json:"title"`
	Company         string `json:"company"`
	Location        string `json:"location"`
	WorkArrangement string `json:"work_arrangement"`
	URL             string `json:"url"`
	Source          string `json:"source"`
	RelevanceScore  int    `json:"relevance_score"`
	Recommendation  string `json:"recommendation"`
	UploadedToSheet bool   `json:"uploaded_to_sheet"`
	FailCount       int    `json:"fail_count"`
}

// NewHandler 构造 HTTP 多路复用器。
func NewHandler(store Store, runner Runner) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.Stats(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, stats)
	})

	mux.HandleFunc("GET /api/jobs", func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if l := r.URL.Query().Get("limit"); l != "" {
			if v, err := strconv.Atoi(l); err == nil && v > 0 {
				if v > 100 {
					v = 100
				}
				limit = v
			}
		}
		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v
			}
		}
		offset := (page - 1) * limit

		jobs, err := store.ListEnhancedJobs(r.Context(), limit+1, offset)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		hasMore := false
		if len(jobs) > limit {
			hasMore = true
			jobs = jobs[:limit]
		}

		views := make([]JobView, 0, len(jobs))
		for _, j := range jobs {
			views = append(views, JobView{
				JobID:           j.JobID,
				Title:           j.Name,
				Company:         j.Company,
				Location:        j.Location,
				WorkArrangement: string(j.WorkArrangement),
				URL:             j.URL,
				Source:          string(j.Source),
				RelevanceScore:  j.RelevanceScore,
				Recommendation:  string(j.Recommendation),
				UploadedToSheet: j.UploadedToSheet,
				FailCount:       j.FailCount,
			})
		}

		w.Header().Set("X-Page", strconv.Itoa(page))
		w.Header().Set("X-Limit", strconv.Itoa(limit))
		w.Header().Set("X-Has-More", strconv.FormatBool(hasMore))
		writeJSON(w, http.StatusOK, views)
	})

	mux.HandleFunc("POST /api/run/{stage}", func(w http.ResponseWriter, r *http.Request) {
		out, err := runner.RunOnce(r.Context(), r.PathValue("stage"))
		switch {
		case errors.Is(err, scheduler.ErrUnknownTask):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, scheduler.ErrTaskRunning):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case err != nil:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusOK, out)
		}
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
