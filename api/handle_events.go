package api

import (
	"net/http"
	"strconv"

	"github.com/wlvchandler/rollup-settlement-core/database/models"
)

func (s *Server) handleEventsGet(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.ParseInt(r.URL.Query().Get("pageSize"), 10, 64)
	if err != nil || pageSize < 1 {
		pageSize = 10
	}

	filter := models.EventFilter{
		Kind:     r.URL.Query().Get("kind"),
		User:     r.URL.Query().Get("user"),
		Operator: r.URL.Query().Get("operator"),
	}

	result, err := s.db.GetEvents(r.Context(), filter, page, pageSize)
	if err != nil {
		ERROR(w, http.StatusInternalServerError, err)
		return
	}

	JSON(w, http.StatusOK, result)
}
