package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
	"github.com/adiwicaksana/tanisubur-backend/pkg/pagination"
)

// MessageList is one page of messages, newest first.
type MessageList struct {
	Messages   []models.ChatMessage
	NextCursor string
}

// Repository persists chat rooms and messages.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindRoomByUser(ctx context.Context, userID uuid.UUID) (*models.ChatRoom, error)
	CreateRoom(ctx context.Context, room *models.ChatRoom) error
	FindRoom(ctx context.Context, roomID uuid.UUID) (*models.ChatRoom, error)
	ListRooms(ctx context.Context) ([]models.ChatRoom, error)
	CreateMessage(ctx context.Context, message *models.ChatMessage) error
	ListMessages(ctx context.Context, roomID uuid.UUID, params pagination.Params) (*MessageList, error)
	MarkRead(ctx context.Context, roomID uuid.UUID, readerID uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed chat repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) FindRoomByUser(ctx context.Context, userID uuid.UUID) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *repository) CreateRoom(ctx context.Context, room *models.ChatRoom) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *repository) FindRoom(ctx context.Context, roomID uuid.UUID) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.WithContext(ctx).Where("id = ?", roomID).First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *repository) ListRooms(ctx context.Context) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := r.db.WithContext(ctx).Order("updated_at DESC").Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *repository) CreateMessage(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *repository) ListMessages(ctx context.Context, roomID uuid.UUID, params pagination.Params) (*MessageList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("room_id = ?", roomID)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			r.db.Where("created_at < ?", cursor.CreatedAt).
				Or("created_at = ? AND id < ?", cursor.CreatedAt, cursor.ID),
		)
	}

	var rows []models.ChatMessage
	err = query.Order("created_at DESC").Order("id DESC").Limit(limit + 1).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &MessageList{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID.String(),
		})
	}
	list.Messages = rows
	return list, nil
}

func (r *repository) MarkRead(ctx context.Context, roomID uuid.UUID, readerID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("room_id = ? AND sender_id <> ? AND read_at IS NULL", roomID, readerID).
		Update("read_at", at).Error
}
