package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/adiwicaksana/tanisubur-backend/api/middleware"
	"github.com/adiwicaksana/tanisubur-backend/api/responses"
	"github.com/adiwicaksana/tanisubur-backend/api/validators"
	"github.com/adiwicaksana/tanisubur-backend/internal/chat"
	"github.com/adiwicaksana/tanisubur-backend/pkg/enums"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
	"github.com/adiwicaksana/tanisubur-backend/pkg/logger"
	"github.com/adiwicaksana/tanisubur-backend/pkg/pagination"
)

type sendMessageRequest struct {
	RoomID *uuid.UUID `json:"room_id,omitempty"`
	Body   string     `json:"body" validate:"required,max=2000"`
}

func chatRequester(r *http.Request) (chat.Requester, error) {
	userID := middleware.UserUUIDFromContext(r.Context())
	if userID == uuid.Nil {
		return chat.Requester{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return chat.Requester{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "unknown role")
	}
	return chat.Requester{UserID: userID, Role: role}, nil
}

// GetChatRoom returns the caller's support room, creating it on first contact.
func GetChatRoom(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requester, err := chatRequester(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		room, err := svc.GetRoom(r.Context(), requester)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, room)
	}
}

// ListChatRooms is the admin inbox, most recently active first.
func ListChatRooms(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requester, err := chatRequester(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rooms, err := svc.ListRooms(r.Context(), requester)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rooms)
	}
}

// SendChatMessage persists a message and queues its fan-out event.
func SendChatMessage(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requester, err := chatRequester(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body sendMessageRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		message, err := svc.SendMessage(r.Context(), requester, chat.SendMessageInput{
			RoomID: body.RoomID,
			Body:   body.Body,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, message)
	}
}

// ListChatMessages pages a room's history, newest first.
func ListChatMessages(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requester, err := chatRequester(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		roomID, err := parseUUIDParam(r, "roomId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMessages(r.Context(), requester, roomID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// MarkChatRead marks the other party's messages in a room as read.
func MarkChatRead(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requester, err := chatRequester(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		roomID, err := parseUUIDParam(r, "roomId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkRead(r.Context(), requester, roomID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "read"})
	}
}
