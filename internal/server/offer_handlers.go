package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"revendo/pkg/domain"
)

type submitOfferRequest struct {
	ProductID string `json:"productId"`
	Price     string `json:"price"`
}

type counterOfferRequest struct {
	Price string `json:"price"`
}

type acceptOfferResponse struct {
	Message  domain.Message  `json:"message"`
	Purchase domain.Purchase `json:"purchase"`
}

func (s *Server) handleSubmitOffer(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req submitOfferRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price")
		return
	}
	msg, err := s.app.SubmitOffer(r.Context(), user, req.ProductID, price)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleOfferAction(w http.ResponseWriter, r *http.Request, user domain.User) {
	segments := pathSegments(r, "/offers/")
	if len(segments) != 2 {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	offerID := segments[0]
	switch segments[1] {
	case "counter":
		var req counterOfferRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid price")
			return
		}
		msg, err := s.app.CounterOffer(r.Context(), user, offerID, price)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	case "accept":
		msg, purchase, err := s.app.AcceptOffer(r.Context(), user, offerID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, acceptOfferResponse{Message: msg, Purchase: purchase})
	case "reject":
		msg, err := s.app.RejectOffer(r.Context(), user, offerID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	default:
		http.NotFound(w, r)
	}
}
