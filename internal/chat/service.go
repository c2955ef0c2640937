package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
	"github.com/adiwicaksana/tanisubur-backend/pkg/enums"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
	"github.com/adiwicaksana/tanisubur-backend/pkg/outbox"
	"github.com/adiwicaksana/tanisubur-backend/pkg/outbox/payloads"
	"github.com/adiwicaksana/tanisubur-backend/pkg/pagination"
)

const maxMessageLen = 2000

const eventVersion = 1

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Requester identifies who is calling a chat operation.
type Requester struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// SendMessageInput carries one outgoing message. RoomID is required for admin
// senders; customers always post into their own room.
type SendMessageInput struct {
	RoomID *uuid.UUID
	Body   string
}

// Service is customer support chat. Delivery to connected clients happens off
// the outbox; these operations only own the durable record.
type Service interface {
	GetRoom(ctx context.Context, requester Requester) (*models.ChatRoom, error)
	ListRooms(ctx context.Context, requester Requester) ([]models.ChatRoom, error)
	SendMessage(ctx context.Context, requester Requester, input SendMessageInput) (*models.ChatMessage, error)
	ListMessages(ctx context.Context, requester Requester, roomID uuid.UUID, params pagination.Params) (*MessageList, error)
	MarkRead(ctx context.Context, requester Requester, roomID uuid.UUID) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	now    func() time.Time
}

// NewService builds the chat service.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher) (Service, error) {
	if repo == nil || tx == nil || publisher == nil {
		return nil, fmt.Errorf("chat service dependencies incomplete")
	}
	return &service{repo: repo, tx: tx, outbox: publisher, now: time.Now}, nil
}

// GetRoom returns the requester's room, creating it on first contact.
// Admins have no room of their own.
func (s *service) GetRoom(ctx context.Context, requester Requester) (*models.ChatRoom, error) {
	if requester.Role == enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admins address rooms by id")
	}
	return s.roomForCustomer(ctx, requester.UserID)
}

func (s *service) ListRooms(ctx context.Context, requester Requester) ([]models.ChatRoom, error) {
	if requester.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	return s.repo.ListRooms(ctx)
}

func (s *service) SendMessage(ctx context.Context, requester Requester, input SendMessageInput) (*models.ChatMessage, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body required")
	}
	if len(body) > maxMessageLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body too long")
	}

	room, err := s.resolveRoom(ctx, requester, input.RoomID)
	if err != nil {
		return nil, err
	}

	message := &models.ChatMessage{
		ID:       uuid.New(),
		RoomID:   room.ID,
		SenderID: requester.UserID,
		Body:     body,
	}
	sentAt := s.now()

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateMessage(ctx, message); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventChatMessageSent,
			AggregateType: enums.AggregateChatMessage,
			AggregateID:   message.ID.String(),
			Actor:         &outbox.ActorRef{UserID: requester.UserID, Role: requester.Role.String()},
			Data: payloads.ChatMessageSentEvent{
				RoomID:    room.ID,
				MessageID: message.ID,
				SenderID:  requester.UserID,
				SentAt:    sentAt,
			},
			Version:    eventVersion,
			OccurredAt: sentAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (s *service) ListMessages(ctx context.Context, requester Requester, roomID uuid.UUID, params pagination.Params) (*MessageList, error) {
	if _, err := s.authorizedRoom(ctx, requester, roomID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, roomID, params)
}

func (s *service) MarkRead(ctx context.Context, requester Requester, roomID uuid.UUID) error {
	if _, err := s.authorizedRoom(ctx, requester, roomID); err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, roomID, requester.UserID, s.now())
}

// resolveRoom maps a sender to the room they may post into. Customers always
// get their own room regardless of any RoomID in the input.
func (s *service) resolveRoom(ctx context.Context, requester Requester, roomID *uuid.UUID) (*models.ChatRoom, error) {
	if requester.Role == enums.UserRoleAdmin {
		if roomID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "room id required")
		}
		room, err := s.repo.FindRoom(ctx, *roomID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "chat room not found")
		}
		return room, err
	}
	return s.roomForCustomer(ctx, requester.UserID)
}

func (s *service) authorizedRoom(ctx context.Context, requester Requester, roomID uuid.UUID) (*models.ChatRoom, error) {
	room, err := s.repo.FindRoom(ctx, roomID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "chat room not found")
	}
	if err != nil {
		return nil, err
	}
	if requester.Role != enums.UserRoleAdmin && room.UserID != requester.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your chat room")
	}
	return room, nil
}

func (s *service) roomForCustomer(ctx context.Context, userID uuid.UUID) (*models.ChatRoom, error) {
	room, err := s.repo.FindRoomByUser(ctx, userID)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	room = &models.ChatRoom{ID: uuid.New(), UserID: userID}
	err = s.repo.CreateRoom(ctx, room)
	if err == nil {
		return room, nil
	}
	// Lost the race to a concurrent first message, reuse the winner's row.
	existing, findErr := s.repo.FindRoomByUser(ctx, userID)
	if findErr == nil {
		return existing, nil
	}
	return nil, err
}
