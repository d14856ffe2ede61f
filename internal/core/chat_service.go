package core

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/ragstack/chat-api/internal/llm"
	"github.com/ragstack/chat-api/internal/store"
)

const historyWindow = 5 // prior messages carried into generation

type ChatService struct {
	dbStore    *store.SQLiteStore
	ragService *RAGService

	chatLocks sync.Map // chat id -> *sync.Mutex
}

func NewChatService(db *store.SQLiteStore, rag *RAGService) *ChatService {
	return &ChatService{
		dbStore:    db,
		ragService: rag,
	}
}

func (s *ChatService) CreateChat(ctx context.Context, title string, description *string) (*store.Chat, error) {
	chat, err := s.dbStore.CreateChat(ctx, title, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat in DB: %w", err)
	}
	return chat, nil
}

func (s *ChatService) ListChats(ctx context.Context, limit, offset int) ([]store.Chat, error) {
	return s.dbStore.ListChats(ctx, limit, offset)
}

func (s *ChatService) GetChatMessages(ctx context.Context, chatID string, limit, offset int) ([]store.Message, error) {
	chat, err := s.dbStore.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify chat: %w", err)
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	return s.dbStore.GetMessagesByChatID(ctx, chatID, limit, offset)
}

// AddMessage appends the caller's message, generates an assistant reply,
// and appends that too. A generation failure never fails the request: the
// error text lands in the chat as the assistant's message instead. The
// returned message is the caller's, not the assistant's; the reply shows
// up on the next GetChatMessages.
func (s *ChatService) AddMessage(ctx context.Context, chatID, content, role string) (*store.Message, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if role == "" {
		role = store.RoleUser
	}
	if role != store.RoleUser && role != store.RoleAssistant {
		return nil, ErrInvalidRole
	}

	chat, err := s.dbStore.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify chat: %w", err)
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}

	// Serialize appends per chat so the user/assistant pair is not
	// interleaved with another request's.
	lock := s.lockFor(chatID)
	lock.Lock()
	defer lock.Unlock()

	history, err := s.dbStore.GetLastNMessagesByChatID(ctx, chatID, historyWindow)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("Failed to load chat history, proceeding without it")
		history = nil
	}

	userMsg := store.Message{
		ChatID:  chatID,
		Role:    role,
		Content: content,
	}
	if err := s.dbStore.CreateMessage(ctx, &userMsg); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	turns := make([]llm.Turn, 0, len(history))
	for _, msg := range history {
		turns = append(turns, llm.Turn{Role: msg.Role, Content: msg.Content})
	}

	assistantContent, err := s.ragService.Answer(ctx, turns, content)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Failed to generate assistant response")
		assistantContent = fmt.Sprintf("Error: %s", err)
	}

	assistantMsg := store.Message{
		ChatID:  chatID,
		Role:    store.RoleAssistant,
		Content: assistantContent,
	}
	if err := s.dbStore.CreateMessage(ctx, &assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}

	if err := s.dbStore.TouchChat(ctx, chatID); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("Failed to bump chat updated_at")
	}

	return &userMsg, nil
}

func (s *ChatService) lockFor(chatID string) *sync.Mutex {
	lock, _ := s.chatLocks.LoadOrStore(chatID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
