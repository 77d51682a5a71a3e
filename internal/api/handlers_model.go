// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// FieldInfo describes one field of a collection.
type FieldInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
	Attribute   bool   `json:"attribute"`
	Reference   bool   `json:"reference,omitempty"`
}

// CollectionInfo describes a collection at its live version.
type CollectionInfo struct {
	Catalogue    string      `json:"catalogue"`
	Collection   string      `json:"collection"`
	Abbreviation string      `json:"abbreviation"`
	Version      string      `json:"version"`
	Description  string      `json:"description,omitempty"`
	EntityID     string      `json:"entity_id"`
	HasStates    bool        `json:"has_states"`
	Fields       []FieldInfo `json:"fields"`
}

// CatalogueInfo lists a catalogue's collections.
type CatalogueInfo struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Collections []string `json:"collections"`
}

// ListCatalogues returns every catalogue and its collection names.
func (h *Handler) ListCatalogues(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	names := h.model.CatalogNames()
	out := make([]CatalogueInfo, 0, len(names))
	for _, name := range names {
		cat, err := h.model.Catalog(name)
		if err != nil {
			continue
		}
		out = append(out, CatalogueInfo{
			Name:        cat.Name,
			Version:     cat.Version,
			Collections: cat.CollectionNames(),
		})
	}
	respondSuccess(w, r, http.StatusOK, out, start)
}

// GetCollection returns field metadata and the live version of a
// collection.
func (h *Handler) GetCollection(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	coll, err := h.model.Collection(chi.URLParam(r, "catalogue"), chi.URLParam(r, "collection"))
	if err != nil {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error(), nil)
		return
	}

	refs := make(map[string]bool)
	for _, f := range coll.References() {
		refs[f.Name] = true
	}
	attrs := make(map[string]bool)
	for _, n := range coll.AttributeNames() {
		attrs[n] = true
	}

	names := coll.AllFieldNames()
	fields := make([]FieldInfo, 0, len(names))
	for _, name := range names {
		f, ok := coll.Field(name)
		if !ok {
			continue
		}
		fields = append(fields, FieldInfo{
			Name:        f.Name,
			Type:        f.Type,
			Kind:        f.Kind.String(),
			Description: f.Description,
			Attribute:   attrs[name],
			Reference:   refs[name],
		})
	}

	respondSuccess(w, r, http.StatusOK, CollectionInfo{
		Catalogue:    coll.CatalogName,
		Collection:   coll.Name,
		Abbreviation: coll.Abbreviation,
		Version:      coll.Version,
		Description:  coll.Description,
		EntityID:     coll.EntityID,
		HasStates:    coll.HasStates,
		Fields:       fields,
	}, start)
}
