package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/orbitos/operations/internal/domain"
)

// CreateConversation persists the conversation and its participant rows in
// one transaction so ParticipantCount can never disagree with the rows.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create conversation: %w", err)
	}
	defer rollback(tx, "create conversation")

	query := `INSERT INTO conversations (id, org_id, title, mode, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query,
		conv.ID, conv.OrgID, conv.Title, conv.Mode, conv.CreatedBy,
		conv.CreatedAt.Unix(), conv.UpdatedAt.Unix()); err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}

	for _, p := range conv.Participants {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO conversation_participants (conversation_id, participant_type, participant_id, name)
			VALUES (?, ?, ?, ?)`,
			conv.ID, p.Type, p.ID, p.Name); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create conversation: %w", err)
	}
	return nil
}

// GetConversation retrieves a conversation with its participants.
func (s *SQLiteStore) GetConversation(ctx context.Context, orgID, id string) (*domain.Conversation, error) {
	query := `SELECT id, org_id, title, mode, created_by, created_at, updated_at
		FROM conversations WHERE org_id = ? AND id = ?`
	conv, err := scanConversation(s.db.QueryRowContext(ctx, query, orgID, id))
	if err != nil || conv == nil {
		return conv, err
	}
	if err := s.loadParticipants(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// ListConversations returns the organization's conversations, newest first,
// with participants loaded so list views can show counts.
func (s *SQLiteStore) ListConversations(ctx context.Context, orgID string) ([]*domain.Conversation, error) {
	query := `SELECT id, org_id, title, mode, created_by, created_at, updated_at
		FROM conversations WHERE org_id = ? ORDER BY created_at DESC, id`
	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer closeRows(rows, "conversations")

	var convs []*domain.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}

	for _, conv := range convs {
		if err := s.loadParticipants(ctx, conv); err != nil {
			return nil, err
		}
	}
	return convs, nil
}

// DeleteConversation removes a conversation, its participants and messages.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, orgID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete conversation: %w", err)
	}
	defer rollback(tx, "delete conversation")

	result, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE org_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if err := requireRow(result, "conversation"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversation_participants WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("delete participants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete conversation: %w", err)
	}
	return nil
}

// CreateMessage appends a message to a conversation transcript.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *domain.Message) error {
	query := `INSERT INTO messages (id, conversation_id, author_type, author_id, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		msg.ID, msg.ConversationID, msg.AuthorType, msg.AuthorID, msg.Body, msg.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages returns a conversation's transcript in chronological order.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	query := `SELECT id, conversation_id, author_type, author_id, body, created_at
		FROM messages WHERE conversation_id = ? ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer closeRows(rows, "messages")

	var msgs []*domain.Message
	for rows.Next() {
		var msg domain.Message
		var createdAt int64
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.AuthorType, &msg.AuthorID, &msg.Body, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		msg.CreatedAt = time.Unix(createdAt, 0)
		msgs = append(msgs, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

func (s *SQLiteStore) loadParticipants(ctx context.Context, conv *domain.Conversation) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT participant_type, participant_id, name FROM conversation_participants
		WHERE conversation_id = ? ORDER BY participant_type DESC, name`, conv.ID)
	if err != nil {
		return fmt.Errorf("query participants: %w", err)
	}
	defer closeRows(rows, "conversation_participants")

	conv.Participants = []domain.Participant{}
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.Type, &p.ID, &p.Name); err != nil {
			return fmt.Errorf("scan participant row: %w", err)
		}
		conv.Participants = append(conv.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate participants: %w", err)
	}
	conv.ParticipantCount = len(conv.Participants)
	return nil
}

func scanConversation(row rowScanner) (*domain.Conversation, error) {
	var conv domain.Conversation
	var createdAt, updatedAt int64
	err := row.Scan(&conv.ID, &conv.OrgID, &conv.Title, &conv.Mode, &conv.CreatedBy, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation row: %w", err)
	}
	conv.CreatedAt = time.Unix(createdAt, 0)
	conv.UpdatedAt = time.Unix(updatedAt, 0)
	return &conv, nil
}
