// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/chronicle/internal/archive"
	"github.com/tomtom215/chronicle/internal/entity"
	"github.com/tomtom215/chronicle/internal/model"
	"github.com/tomtom215/chronicle/internal/store"
	"github.com/tomtom215/chronicle/internal/validation"
)

// EntityPath holds the path parameters naming one entity.
type EntityPath struct {
	Catalogue  string `validate:"required,max=128"`
	Collection string `validate:"required,max=128"`
	TID        string `validate:"required,max=512"`
}

// EntityResponse is an entity's current state.
type EntityResponse struct {
	Catalogue  string         `json:"catalogue"`
	Collection string         `json:"collection"`
	TID        string         `json:"tid"`
	LastEvent  *int64         `json:"last_event"`
	Deleted    bool           `json:"deleted"`
	Attributes map[string]any `json:"attributes"`
}

// HistoryResponse lists the applied events of one entity, oldest first.
type HistoryResponse struct {
	Catalogue  string           `json:"catalogue"`
	Collection string           `json:"collection"`
	TID        string           `json:"tid"`
	Count      int              `json:"count"`
	Events     []archive.Record `json:"events"`
}

// entityPath reads and validates the entity path parameters, writing the
// error response itself when they are invalid.
func (h *Handler) entityPath(w http.ResponseWriter, r *http.Request) (*model.Collection, EntityPath, bool) {
	p := EntityPath{
		Catalogue:  chi.URLParam(r, "catalogue"),
		Collection: chi.URLParam(r, "collection"),
		TID:        chi.URLParam(r, "tid"),
	}
	if verr := validation.ValidateStruct(&p); verr != nil {
		apiErr := verr.ToAPIError()
		respondAPIError(w, r, http.StatusBadRequest, &APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		})
		return nil, p, false
	}
	coll, err := h.model.Collection(p.Catalogue, p.Collection)
	if err != nil {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error(), nil)
		return nil, p, false
	}
	return coll, p, true
}

// GetEntity returns the current state of an entity with attribute values
// rendered as JSON. Deleted entities are returned with deleted=true.
func (h *Handler) GetEntity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	coll, p, ok := h.entityPath(w, r)
	if !ok {
		return
	}

	rec, err := h.store.Get(r.Context(), entity.Key{
		Catalogue:  coll.CatalogName,
		Collection: coll.Name,
		TID:        p.TID,
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Entity "+p.TID+" not found", nil)
		return
	case errors.Is(err, store.ErrClosed):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Entity store unavailable", err)
		return
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to load entity", err)
		return
	}

	values, err := h.codec.Values(rec)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to render entity", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, EntityResponse{
		Catalogue:  coll.CatalogName,
		Collection: coll.Name,
		TID:        p.TID,
		LastEvent:  rec.LastEvent(),
		Deleted:    rec.IsDeleted(),
		Attributes: values,
	}, start)
}

// GetEntityEvents returns the archived events applied to an entity.
func (h *Handler) GetEntityEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.archive == nil {
		respondError(w, r, http.StatusNotFound, ErrCodeArchiveDisabled, "Event archive is disabled", nil)
		return
	}
	coll, p, ok := h.entityPath(w, r)
	if !ok {
		return
	}

	records, err := h.archive.History(r.Context(), coll.CatalogName, coll.Name, p.TID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to query event history", err)
		return
	}
	if records == nil {
		records = []archive.Record{}
	}

	respondSuccess(w, r, http.StatusOK, HistoryResponse{
		Catalogue:  coll.CatalogName,
		Collection: coll.Name,
		TID:        p.TID,
		Count:      len(records),
		Events:     records,
	}, start)
}
