package models

type Message struct {
	ConversationID string `dynamodbav:"conversationId" json:"conversationId"` // Partition key
	CreatedAt      string `dynamodbav:"createdAt" json:"createdAt"`           // Sort key (MessageTimeLayout)
	Content        string `dynamodbav:"content" json:"content"`
	IsUnread       bool   `dynamodbav:"isUnread" json:"isUnread"`
	MessageID      string `dynamodbav:"messageId" json:"messageId"`
	SenderID       string `dynamodbav:"senderId" json:"senderId"`
}

// MessagesTable is the default DynamoDB table name for conversation messages
const MessagesTable = "Messages"

// MessageTimeLayout is fixed width so createdAt sort keys order correctly.
const MessageTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"
