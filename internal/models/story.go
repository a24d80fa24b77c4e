package models

import (
	"time"

	"github.com/google/uuid"
)

// Story - комната совместного повествования.
// PasswordHash заполняется только для публичных историй, защищенных паролем;
// сам пароль нигде не хранится (bcrypt-хеш, см. StoryService).
type Story struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Title        string     `db:"title" json:"title"`
	Description  *string    `db:"description" json:"description,omitempty"`
	CreatorID    uuid.UUID  `db:"creator_id" json:"creatorId"`
	ConfigID     *uuid.UUID `db:"config_id" json:"configId,omitempty"`
	IsPublic     bool       `db:"is_public" json:"isPublic"`
	PasswordHash *string    `db:"password_hash" json:"-"`
	AutoNarrator bool       `db:"auto_narrator" json:"autoNarrator"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

// HasPassword сообщает, защищена ли история паролем.
func (s *Story) HasPassword() bool {
	return s.PasswordHash != nil && *s.PasswordHash != ""
}

// StoryParticipant - запись о членстве пользователя в истории.
type StoryParticipant struct {
	ID       uuid.UUID `db:"id" json:"id"`
	StoryID  uuid.UUID `db:"story_id" json:"storyId"`
	UserID   uuid.UUID `db:"user_id" json:"userId"`
	JoinedAt time.Time `db:"joined_at" json:"joinedAt"`
}

// AccessDecision - результат проверки доступа к истории.
type AccessDecision int

const (
	// AccessGranted - доступ разрешен (создатель, участник или открытая история).
	AccessGranted AccessDecision = iota
	// AccessPasswordRequired - история публичная, но требует пароль.
	AccessPasswordRequired
	// AccessDenied - приватная история, пользователь не участник.
	AccessDenied
)

func (d AccessDecision) String() string {
	switch d {
	case AccessGranted:
		return "granted"
	case AccessPasswordRequired:
		return "password_required"
	case AccessDenied:
		return "denied"
	default:
		return "unknown"
	}
}
