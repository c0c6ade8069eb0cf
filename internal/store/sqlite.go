package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aislecart-ai/shopping-assistant/internal/model"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL for concurrent readers; FKs on so message cascade works.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id INTEGER NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
		content TEXT NOT NULL CHECK (length(content) > 0),
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);

	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		price TEXT NOT NULL,
		image_url TEXT,
		stock INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// CreateConversation inserts a conversation owned by userID.
func (s *SQLiteStore) CreateConversation(ctx context.Context, userID string) (*model.Conversation, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: conversation owner is required", model.ErrValidation)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (user_id, created_at) VALUES (?, ?)`,
		userID, now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert conversation: %v", model.ErrPersistence, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: conversation id: %v", model.ErrPersistence, err)
	}

	return &model.Conversation{ID: id, UserID: userID, CreatedAt: now}, nil
}

// LatestConversation returns the user's most recently created conversation,
// or nil when the user has none.
func (s *SQLiteStore) LatestConversation(ctx context.Context, userID string) (*model.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at FROM conversations
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID,
	)

	conv, err := scanConversation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: latest conversation: %v", model.ErrPersistence, err)
	}
	return conv, nil
}

// ListConversations returns the user's conversations, most recent first.
func (s *SQLiteStore) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, created_at FROM conversations
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list conversations: %v", model.ErrPersistence, err)
	}
	defer rows.Close()

	conversations := []model.Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan conversation: %v", model.ErrPersistence, err)
		}
		conversations = append(conversations, *conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list conversations: %v", model.ErrPersistence, err)
	}
	return conversations, nil
}

// AppendMessage inserts one message with server-assigned id and timestamp.
func (s *SQLiteStore) AppendMessage(ctx context.Context, conversationID int64, role model.Role, content string) (*model.Message, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: invalid role %q", model.ErrValidation, role)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: message content cannot be empty", model.ErrValidation)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		conversationID, string(role), content, now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: append message: %v", model.ErrPersistence, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: message id: %v", model.ErrPersistence, err)
	}

	return &model.Message{
		ID:             id,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}, nil
}

// ListMessages returns a conversation's messages in creation order.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID int64) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, created_at FROM messages
		 WHERE conversation_id = ? ORDER BY created_at ASC, id ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", model.ErrPersistence, err)
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var msg model.Message
		var role string
		var createdAt int64
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scan message: %v", model.ErrPersistence, err)
		}
		msg.Role = model.Role(role)
		msg.CreatedAt = time.Unix(0, createdAt).UTC()
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", model.ErrPersistence, err)
	}
	return messages, nil
}

// DeleteConversation removes a conversation; messages cascade.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: delete conversation: %v", model.ErrPersistence, err)
	}
	return nil
}

// ListProducts returns the full catalog.
func (s *SQLiteStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, price, image_url, stock, created_at
		 FROM products ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list products: %v", model.ErrPersistence, err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		var imageURL sql.NullString
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &imageURL, &p.Stock, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scan product: %v", model.ErrPersistence, err)
		}
		p.ImageURL = imageURL.String
		p.CreatedAt = time.Unix(0, createdAt).UTC()
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list products: %v", model.ErrPersistence, err)
	}
	return products, nil
}

// CreateProduct inserts a catalog item.
func (s *SQLiteStore) CreateProduct(ctx context.Context, p *model.Product) error {
	now := time.Now().UTC()
	var imageURL any
	if p.ImageURL != "" {
		imageURL = p.ImageURL
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO products (name, description, price, image_url, stock, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.Price, imageURL, p.Stock, now.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("%w: insert product: %v", model.ErrPersistence, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: product id: %v", model.ErrPersistence, err)
	}
	p.ID = id
	p.CreatedAt = now
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*model.Conversation, error) {
	var conv model.Conversation
	var createdAt int64
	if err := row.Scan(&conv.ID, &conv.UserID, &createdAt); err != nil {
		return nil, err
	}
	conv.CreatedAt = time.Unix(0, createdAt).UTC()
	return &conv, nil
}
