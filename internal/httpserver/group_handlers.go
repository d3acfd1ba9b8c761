package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"voxchat/internal/service"
)

type createGroupRequest struct {
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	GroupPicture *string `json:"group_picture"`
}

type updateGroupRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	GroupPicture *string `json:"group_picture"`
}

type addMemberRequest struct {
	UserID  string `json:"user_id"`
	IsAdmin bool   `json:"is_admin"`
}

func handleCreateGroup(groupSvc *service.GroupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		var req createGroupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		group, err := groupSvc.Create(r.Context(), user.ID, service.CreateGroupInput{
			Name:         req.Name,
			Description:  req.Description,
			GroupPicture: req.GroupPicture,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, group)
	}
}

func handleListGroups(groupSvc *service.GroupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		offset, limit := pageParams(r)

		groups, total, err := groupSvc.ListForUser(r.Context(), user.ID, offset, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"groups": groups,
			"total":  total,
		})
	}
}

func handleGetGroup(groupSvc *service.GroupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		group, err := groupSvc.Get(r.Context(), user.ID, chi.URLParam(r, "groupID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, group)
	}
}

func handleUpdateGroup(groupSvc *service.GroupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		var req updateGroupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		group, err := groupSvc.Update(r.Context(), user.ID, chi.URLParam(r, "groupID"), service.UpdateGroupInput{
			Name:         req.Name,
			Description:  req.Description,
			GroupPicture: req.GroupPicture,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, group)
	}
}

func handleListGroupMembers(groupSvc *service.GroupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		members, err := groupSvc.ListMembers(r.Context(), user.ID, chi.URLParam(r, "groupID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, members)
	}
}

func handleAddGroupMember(groupSvc *service.GroupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		var req addMemberRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		member, err := groupSvc.AddMember(r.Context(), user.ID, chi.URLParam(r, "groupID"), req.UserID, req.IsAdmin)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, member)
	}
}

func handleRemoveGroupMember(groupSvc *service.GroupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		err := groupSvc.RemoveMember(r.Context(), user.ID, chi.URLParam(r, "groupID"), chi.URLParam(r, "memberID"))
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
