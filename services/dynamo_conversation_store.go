package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"touchline_server/models"
)

// DynamoConversationStore keeps conversation bindings in DynamoDB.
type DynamoConversationStore struct {
	Dynamo    *DynamoService
	TableName string
}

func (s *DynamoConversationStore) table() string {
	if s.TableName == "" {
		return models.ConversationsTable
	}
	return s.TableName
}

func conversationKey(conversationID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"conversationId": &types.AttributeValueMemberS{Value: conversationID},
	}
}

func (s *DynamoConversationStore) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.Dynamo.GetItem(ctx, s.table(), conversationKey(conversationID), &conv); err != nil {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, err)
	}
	return &conv, nil
}

func (s *DynamoConversationStore) CreateConversation(ctx context.Context, conversation *models.Conversation) error {
	return s.Dynamo.PutItem(ctx, s.table(), conversation, "attribute_not_exists(conversationId)", nil, nil)
}

// UpdateMatchProgressStage only touches the mirror and updatedAt fields.
func (s *DynamoConversationStore) UpdateMatchProgressStage(ctx context.Context, conversationID string, stage models.Stage, at time.Time) error {
	updateExpression := "SET #stage = :stage, #updatedAt = :updatedAt"
	values := map[string]types.AttributeValue{
		":stage":     &types.AttributeValueMemberS{Value: string(stage)},
		":updatedAt": &types.AttributeValueMemberS{Value: at.Format(time.RFC3339Nano)},
	}
	names := map[string]string{
		"#stage":     "matchProgressStage",
		"#updatedAt": "updatedAt",
	}
	return s.Dynamo.UpdateItem(ctx, s.table(), conversationKey(conversationID), updateExpression, "attribute_exists(conversationId)", values, names)
}

func (s *DynamoConversationStore) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	conversations := []models.Conversation{}
	if err := s.Dynamo.ScanAll(ctx, s.table(), &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}
