package server

import (
	"encoding/json"
	"io"
	"net/http"

	"revendo/pkg/domain"
)

type ratePurchaseRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

func (s *Server) handlePurchases(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	purchases, err := s.app.ListMyPurchases(user)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": purchases,
		"count": len(purchases),
	})
}

func (s *Server) handlePurchaseAction(w http.ResponseWriter, r *http.Request, user domain.User) {
	segments := pathSegments(r, "/purchases/")
	if len(segments) != 2 {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	purchaseID := segments[0]
	switch segments[1] {
	case "complete":
		purchase, err := s.app.CompletePurchase(r.Context(), user, purchaseID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, purchase)
	case "cancel":
		purchase, err := s.app.CancelPurchase(r.Context(), user, purchaseID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, purchase)
	case "rate":
		var req ratePurchaseRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		rating, err := s.app.RatePurchase(r.Context(), user, purchaseID, req.Score, req.Comment)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, rating)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request, _ domain.User) {
	segments := pathSegments(r, "/users/")
	if len(segments) != 2 || segments[1] != "ratings" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	ratings, err := s.app.ListUserRatings(segments[0])
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": ratings,
		"count": len(ratings),
	})
}
