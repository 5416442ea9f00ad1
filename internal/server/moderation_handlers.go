package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"revendo/internal/app"
	"revendo/pkg/domain"
)

type fileReportRequest struct {
	Kind           string `json:"kind"`
	Category       string `json:"category"`
	Reason         string `json:"reason"`
	ProductID      string `json:"productId"`
	CommentID      string `json:"commentId"`
	ReportedUserID string `json:"reportedUserId"`
}

type createTagRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCommentAction(w http.ResponseWriter, r *http.Request, user domain.User) {
	segments := pathSegments(r, "/comments/")
	switch {
	case len(segments) == 1:
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		comment, err := s.app.DeactivateComment(r.Context(), user, segments[0])
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, comment)
	case len(segments) == 2 && segments[1] == "restore":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		comment, err := s.app.RestoreComment(user, segments[0])
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, comment)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req fileReportRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	report, err := s.app.FileReport(user, app.FileReportInput{
		Kind:           domain.ReportKind(req.Kind),
		Category:       req.Category,
		Reason:         req.Reason,
		ProductID:      req.ProductID,
		CommentID:      req.CommentID,
		ReportedUserID: req.ReportedUserID,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleMyReports(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	reports, err := s.app.ListMyReports(user)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": reports,
		"count": len(reports),
	})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		tags, err := s.app.PopularTags(limit)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": tags,
			"count": len(tags),
		})
	case http.MethodPost:
		var req createTagRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		tag, err := s.app.CreateTag(req.Name)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, tag)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleTagSearch(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	tags, err := s.app.SearchTags(query.Get("q"), limit)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": tags,
		"count": len(tags),
	})
}
