package app

import (
	"LoraReport/internal/parser"
	"LoraReport/internal/store"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

const defaultListLimit = 20

type taskDoc struct {
	ID                int `json:"id"`
	ReportMessageSize int `json:"report_message_size"`
}

type templateDoc struct {
	ID    int   `json:"id"`
	Tasks []int `json:"tasks"`
}

type schemaDoc struct {
	Tasks     []taskDoc     `json:"tasks"`
	Templates []templateDoc `json:"templates"`
}

// handleLatest returns the most recently archived report.
func (a *App) handleLatest(w http.ResponseWriter, r *http.Request) {
	rec, err := a.Store.Latest()
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "no reports received", http.StatusNotFound)
		return
	}
	if err != nil {
		zap.L().Error("failed to read latest report", zap.Error(err))
		http.Error(w, "failed to read reports", http.StatusInternalServerError)
		return
	}
	writeJSON(w, parser.NewDocument(rec))
}

// handleList returns up to ?limit= reports, newest first.
func (a *App) handleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	recs, err := a.Store.List(limit)
	if err != nil {
		zap.L().Error("failed to list reports", zap.Error(err))
		http.Error(w, "failed to read reports", http.StatusInternalServerError)
		return
	}
	docs := make([]parser.Document, 0, len(recs))
	for _, rec := range recs {
		docs = append(docs, parser.NewDocument(rec))
	}
	writeJSON(w, docs)
}

// handleSchema returns the registered tasks and templates.
func (a *App) handleSchema(w http.ResponseWriter, r *http.Request) {
	doc := schemaDoc{Tasks: []taskDoc{}, Templates: []templateDoc{}}
	for _, t := range a.Schema.Tasks() {
		doc.Tasks = append(doc.Tasks, taskDoc{ID: int(t.ID), ReportMessageSize: t.ReportMessageSize})
	}
	for _, tpl := range a.Schema.Templates() {
		ids := make([]int, len(tpl.TaskOrder))
		for i, id := range tpl.TaskOrder {
			ids[i] = int(id)
		}
		doc.Templates = append(doc.Templates, templateDoc{ID: int(tpl.ID), Tasks: ids})
	}
	writeJSON(w, doc)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to write response", zap.Error(err))
	}
}
