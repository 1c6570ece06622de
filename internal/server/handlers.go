package server

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/gatherer/respbuilder"
	"github.com/programme-lv/grader/internal/grading"
	"github.com/programme-lv/grader/internal/metrics"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q, err := s.store.Question(r.Context())
	if err != nil {
		s.internalError(w, "failed to load question", err)
		return
	}
	s.render(w, "index.html", pageData{Question: q, Language: s.grader.Language()})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	code := r.PostFormValue("code")

	q, err := s.store.Question(r.Context())
	if err != nil {
		s.internalError(w, "failed to load question", err)
		return
	}

	report := s.evaluate(r.Context(), uuid.NewString(), code, q.SampleInput)

	data := pageData{
		Question: q,
		Language: s.grader.Language(),
		Code:     code,
		Report:   &report,
	}
	if report.SampleOutput != nil {
		data.HasSample = true
		data.SampleOutput = *report.SampleOutput
	}
	s.render(w, "result.html", data)
}

func (s *Server) handleGradeAPI(w http.ResponseWriter, r *http.Request) {
	var req api.GradeReq
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.EvalUuid == "" {
		req.EvalUuid = uuid.NewString()
	}

	q, err := s.store.Question(r.Context())
	if err != nil {
		s.logger.Error("failed to load question", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load question"})
		return
	}

	report := s.evaluate(r.Context(), req.EvalUuid, req.Code, q.SampleInput)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) evaluate(ctx context.Context, evalUuid string, code string, sampleInput string) api.GradeReport {
	metrics.InFlightSubmissions.Inc()
	defer metrics.InFlightSubmissions.Dec()

	builder := respbuilder.New(evalUuid)
	var events grading.ResultGatherer
	if s.events != nil {
		events = s.events(evalUuid)
	}

	sub := grading.Submission{
		Code:        code,
		SampleInput: sampleInput,
		Tests:       s.store.Tests(),
	}
	allPassed, _ := s.grader.Evaluate(ctx, sub, grading.Multi(builder, events))

	metrics.SubmissionsTotal.WithLabelValues("http", metrics.Verdict(allPassed)).Inc()
	report := builder.Report()
	s.logger.Info("submission graded",
		"eval_uuid", evalUuid,
		"all_passed", allPassed,
		"passed", report.PassedCount,
		"total", report.TotalCount,
		"elapsed_ms", report.TotalTimeMs)
	if !allPassed {
		failed := report.FailedIDs().ToSlice()
		slices.Sort(failed)
		s.logger.Debug("failed tests", "eval_uuid", evalUuid, "test_ids", failed)
	}
	return report
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "error", err)
	http.Error(w, "Internal server error: "+msg, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
