package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"revendo/internal/app"
	"revendo/pkg/domain"
)

const defaultMaxImageUploadBytes = 10 << 20

type createProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Condition   string   `json:"condition"`
	Price       string   `json:"price"`
	Tags        []string `json:"tags"`
}

type tagProductRequest struct {
	Tags []string `json:"tags"`
}

type addCommentRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		limit, _ := strconv.Atoi(query.Get("limit"))
		products, err := s.app.ListProducts(r.Context(), query.Get("owner"), domain.ProductStatus(query.Get("status")), limit)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": products,
			"count": len(products),
		})
	case http.MethodPost:
		var req createProductRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid price")
			return
		}
		product, err := s.app.CreateProduct(r.Context(), user, app.CreateProductInput{
			Name:        req.Name,
			Description: req.Description,
			Condition:   req.Condition,
			Price:       price,
			Tags:        req.Tags,
		})
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, product)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleProductByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	segments := pathSegments(r, "/products/")
	switch {
	case len(segments) == 1:
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		product, err := s.app.GetProduct(r.Context(), segments[0])
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	case len(segments) == 2 && segments[1] == "images":
		s.handleProductImageUpload(w, r, user, segments[0])
	case len(segments) == 2 && segments[1] == "buy":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		purchase, err := s.app.BuyNow(r.Context(), user, segments[0])
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, purchase)
	case len(segments) == 2 && segments[1] == "tags":
		if r.Method != http.MethodPut {
			methodNotAllowed(w)
			return
		}
		var req tagProductRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		product, err := s.app.TagProduct(user, segments[0], req.Tags)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	case len(segments) == 2 && segments[1] == "comments":
		s.handleProductComments(w, r, user, segments[0])
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleProductImageUpload(w http.ResponseWriter, r *http.Request, user domain.User, productID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if r.ContentLength <= 0 || r.ContentLength > s.maxUploadBytes {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("image body required, at most %d bytes", s.maxUploadBytes))
		return
	}
	contentType := r.Header.Get("Content-Type")
	body := io.LimitReader(r.Body, s.maxUploadBytes)
	product, err := s.app.UploadProductImage(r.Context(), user, productID, body, r.ContentLength, contentType)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (s *Server) handleProductComments(w http.ResponseWriter, r *http.Request, user domain.User, productID string) {
	switch r.Method {
	case http.MethodGet:
		comments, err := s.app.ListProductComments(user, productID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": comments,
			"count": len(comments),
		})
	case http.MethodPost:
		var req addCommentRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		comment, err := s.app.AddComment(r.Context(), user, productID, req.Text)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, comment)
	default:
		methodNotAllowed(w)
	}
}
