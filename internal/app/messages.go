package app

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"shelfmark/internal/util"
	"shelfmark/pkg/domain"
)

const (
	maxSubjectLen = 50
	maxMessageLen = 500
)

type MessageInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SubmitMessage stores a contact-form submission. No account is needed.
func (a *App) SubmitMessage(ctx context.Context, in MessageInput) (domain.Message, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	if in.Name == "" || in.Email == "" || in.Subject == "" || in.Message == "" {
		return domain.Message{}, ErrMessageFields
	}
	if !strings.Contains(in.Email, "@") {
		return domain.Message{}, ErrInvalidEmail
	}
	if utf8.RuneCountInString(in.Subject) > maxSubjectLen {
		return domain.Message{}, ErrSubjectTooLong
	}
	if utf8.RuneCountInString(in.Message) > maxMessageLen {
		return domain.Message{}, ErrMessageTooLong
	}
	msg := domain.Message{
		ID:        util.NewID(),
		Name:      in.Name,
		Email:     in.Email,
		Subject:   in.Subject,
		Message:   in.Message,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.SaveMessage(msg); err != nil {
		return domain.Message{}, fmt.Errorf("save message: %w", err)
	}
	return msg, nil
}

// ListMessages returns all submissions, newest first.
func (a *App) ListMessages(ctx context.Context) ([]domain.Message, error) {
	msgs, err := a.store.ListMessages()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// ToggleMessageRead flips the read flag and returns the updated message.
func (a *App) ToggleMessageRead(ctx context.Context, id string) (domain.Message, error) {
	msg, ok, err := a.store.GetMessage(id)
	if err != nil {
		return domain.Message{}, fmt.Errorf("lookup message: %w", err)
	}
	if !ok {
		return domain.Message{}, ErrMessageNotFound
	}
	msg.IsRead = !msg.IsRead
	if err := a.store.SaveMessage(msg); err != nil {
		return domain.Message{}, fmt.Errorf("save message: %w", err)
	}
	return msg, nil
}

// DeleteMessage removes a submission.
func (a *App) DeleteMessage(ctx context.Context, id string) error {
	_, ok, err := a.store.GetMessage(id)
	if err != nil {
		return fmt.Errorf("lookup message: %w", err)
	}
	if !ok {
		return ErrMessageNotFound
	}
	if err := a.store.DeleteMessage(id); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
