package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"voxchat/internal/service"
)

func handleDirectHistory(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		offset, limit := pageParams(r)

		page, err := msgSvc.DirectHistory(r.Context(), user.ID, chi.URLParam(r, "userID"), offset, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func handleGroupHistory(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		offset, limit := pageParams(r)

		page, err := msgSvc.GroupHistory(r.Context(), user.ID, chi.URLParam(r, "groupID"), offset, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func handleGetMessage(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		msg, err := msgSvc.Get(r.Context(), user.ID, chi.URLParam(r, "messageID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	}
}
