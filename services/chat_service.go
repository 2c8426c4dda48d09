package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"touchline_server/models"
)

// MessageStore persists conversation messages.
type MessageStore interface {
	// LatestMessages returns up to limit messages, newest first.
	LatestMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
	PutMessage(ctx context.Context, message models.Message) error
}

// ChatService lets the two participants of a conversation read and post
// messages. It never touches the match.
type ChatService struct {
	Messages      MessageStore
	Conversations ConversationStore
	Logger        *zap.Logger
}

const defaultMessageLimit = 50

func (s *ChatService) authorize(ctx context.Context, conversationID, userID string) error {
	conv, err := s.Conversations.GetConversation(ctx, conversationID)
	if err != nil {
		return storeError(err)
	}
	if !conv.HasParticipant(userID) {
		return fmt.Errorf("%w: %s is not a participant of conversation %s", ErrUnauthorized, userID, conversationID)
	}
	return nil
}

// ListMessages fetches the latest messages for a conversation, then reverses
// the order before returning so the latest message appears at the bottom in UI.
func (s *ChatService) ListMessages(ctx context.Context, conversationID, userID string, limit int) ([]models.Message, error) {
	if err := s.authorize(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMessageLimit
	}

	messages, err := s.Messages.LatestMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, storeError(err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// PostMessage stores a new unread message from senderID.
func (s *ChatService) PostMessage(ctx context.Context, conversationID, senderID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message content is empty", ErrInvalidArgument)
	}
	if err := s.authorize(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	message := models.Message{
		ConversationID: conversationID,
		CreatedAt:      time.Now().UTC().Format(models.MessageTimeLayout),
		Content:        content,
		IsUnread:       true,
		MessageID:      uuid.NewString(),
		SenderID:       senderID,
	}
	if err := s.Messages.PutMessage(ctx, message); err != nil {
		if s.Logger != nil {
			s.Logger.Error("failed to store message", zap.String("conversationId", conversationID), zap.Error(err))
		}
		return nil, storeError(err)
	}
	return &message, nil
}

// DynamoMessageStore keeps messages in DynamoDB, partitioned by
// conversationId and sorted by createdAt.
type DynamoMessageStore struct {
	Dynamo    *DynamoService
	TableName string
}

func (s *DynamoMessageStore) table() string {
	if s.TableName == "" {
		return models.MessagesTable
	}
	return s.TableName
}

func (s *DynamoMessageStore) LatestMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	keyCondition := "#conversationId = :conversationId"
	values := map[string]types.AttributeValue{
		":conversationId": &types.AttributeValueMemberS{Value: conversationID},
	}
	names := map[string]string{
		"#conversationId": "conversationId",
	}

	messages := []models.Message{}
	if err := s.Dynamo.QueryItemsWithOptions(ctx, s.table(), keyCondition, values, names, int32(limit), true, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *DynamoMessageStore) PutMessage(ctx context.Context, message models.Message) error {
	return s.Dynamo.PutItem(ctx, s.table(), message, "", nil, nil)
}

// MemoryMessageStore keeps messages in process memory.
type MemoryMessageStore struct {
	mu       sync.RWMutex
	messages map[string][]models.Message
}

func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{messages: make(map[string][]models.Message)}
}

func (s *MemoryMessageStore) LatestMessages(_ context.Context, conversationID string, limit int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := append([]models.Message(nil), s.messages[conversationID]...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt > all[j].CreatedAt })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryMessageStore) PutMessage(_ context.Context, message models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[message.ConversationID] = append(s.messages[message.ConversationID], message)
	return nil
}
