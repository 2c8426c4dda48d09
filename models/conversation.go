package models

import "time"

// Conversation is the message thread bound 1:1 to a Match. The engine only
// ever writes MatchProgressStage, a display mirror of the match's stage.
type Conversation struct {
	ConversationID     string    `dynamodbav:"conversationId" json:"conversationId"`         // Partition key
	MatchID            string    `dynamodbav:"matchId" json:"matchId"`                       // Bound match
	ParticipantIDs     []string  `dynamodbav:"participantIds" json:"participantIds"`         // Exactly two users
	MatchProgressStage Stage     `dynamodbav:"matchProgressStage" json:"matchProgressStage"` // Mirror of Match.Stage
	CreatedAt          time.Time `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time `dynamodbav:"updatedAt" json:"updatedAt"`
}

// ConversationsTable is the default DynamoDB table name for conversations
const ConversationsTable = "Conversations"

// HasParticipant reports whether userID takes part in the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.ParticipantIDs {
		if p == userID {
			return true
		}
	}
	return false
}
