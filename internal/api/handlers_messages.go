// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/chronicle/internal/eventprocessor"
	"github.com/tomtom215/chronicle/internal/logging"
	"github.com/tomtom215/chronicle/internal/store"
)

// SubmitResponse acknowledges a queued message.
type SubmitResponse struct {
	MessageID  string `json:"message_id"`
	Topic      string `json:"topic"`
	Catalogue  string `json:"catalogue"`
	Collection string `json:"collection"`
	Events     int    `json:"events"`
}

// SubmitMessage accepts an import message.
//
// The message is decoded and its header checked before anything is
// queued, so a malformed message is a 400 and never reaches the dead
// letter topic. By default the message is published to the import topic
// and 202 is returned with its id. With ?sync=true it is processed inline:
// 200 when every event applied, 422 with the Result when some failed.
func (h *Handler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge,
				"Message exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes", nil)
			return
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Failed to read request body", err)
		return
	}

	msg, err := eventprocessor.DecodeMessage(body)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if err := msg.Header.Validate(); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error(), nil)
		return
	}
	coll, err := h.model.Collection(msg.Header.Catalogue, msg.Header.Collection)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error(), nil)
		return
	}

	ctx := logging.ContextWithProcessID(r.Context(), msg.Header.ProcessID)

	if sync, _ := strconv.ParseBool(r.URL.Query().Get("sync")); sync {
		result, err := h.processor.Process(ctx, msg)
		switch {
		case err == nil && result.OK():
			respondSuccess(w, r, http.StatusOK, result, start)
		case err == nil:
			respondJSON(w, r, http.StatusUnprocessableEntity, &APIResponse{
				Status: "error",
				Data:   result,
				Error: &APIError{
					Code:    ErrCodeUnprocessable,
					Message: strconv.Itoa(len(result.Failures)) + " of " + strconv.Itoa(result.Received) + " events failed",
				},
			})
		case errors.Is(err, eventprocessor.ErrInvalidHeader):
			respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error(), nil)
		case errors.Is(err, store.ErrClosed):
			respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Entity store unavailable", err)
		default:
			respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to process message", err)
		}
		return
	}

	id, err := h.publisher.PublishMessage(ctx, h.importTopic, msg)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, eventprocessor.ErrPublisherClosed) {
			respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Message transport unavailable", err)
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to queue message", err)
		return
	}

	logging.CtxInfo(ctx).
		Str("message_id", id).
		Str("catalogue", coll.CatalogName).
		Str("collection", coll.Name).
		Int("events", len(msg.Contents)).
		Msg("Message queued")

	respondSuccess(w, r, http.StatusAccepted, SubmitResponse{
		MessageID:  id,
		Topic:      h.importTopic,
		Catalogue:  coll.CatalogName,
		Collection: coll.Name,
		Events:     len(msg.Contents),
	}, start)
}
