package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"touchline_server/models"
)

// DynamoMatchRepository stores matches in DynamoDB, one item per match keyed
// by matchId. Writes are conditioned on the stored version so that writers
// in different processes cannot overwrite each other.
type DynamoMatchRepository struct {
	Dynamo    *DynamoService
	TableName string
}

func (r *DynamoMatchRepository) table() string {
	if r.TableName == "" {
		return models.MatchesTable
	}
	return r.TableName
}

func matchKey(matchID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"matchId": &types.AttributeValueMemberS{Value: matchID},
	}
}

func (r *DynamoMatchRepository) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	var match models.Match
	if err := r.Dynamo.GetItem(ctx, r.table(), matchKey(matchID), &match); err != nil {
		return nil, fmt.Errorf("match %s: %w", matchID, err)
	}
	return &match, nil
}

func (r *DynamoMatchRepository) CreateMatch(ctx context.Context, match *models.Match) error {
	return r.Dynamo.PutItem(ctx, r.table(), match, "attribute_not_exists(matchId)", nil, nil)
}

func (r *DynamoMatchRepository) SaveMatch(ctx context.Context, match *models.Match, expectedVersion int64) error {
	values := map[string]types.AttributeValue{
		":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedVersion)},
	}
	names := map[string]string{"#version": "version"}
	return r.Dynamo.PutItem(ctx, r.table(), match, "attribute_exists(matchId) AND #version = :expected", values, names)
}

func (r *DynamoMatchRepository) ListMatchesByCoach(ctx context.Context, coachID string) ([]models.Match, error) {
	return r.queryIndex(ctx, models.CoachIDIndex, "coachId = :id", coachID)
}

func (r *DynamoMatchRepository) ListMatchesByCounterparty(ctx context.Context, counterpartyID string) ([]models.Match, error) {
	return r.queryIndex(ctx, models.CounterpartyIDIndex, "counterpartyId = :id", counterpartyID)
}

func (r *DynamoMatchRepository) queryIndex(ctx context.Context, index, condition, id string) ([]models.Match, error) {
	values := map[string]types.AttributeValue{
		":id": &types.AttributeValueMemberS{Value: id},
	}
	matches := []models.Match{}
	if err := r.Dynamo.QueryItemsWithIndex(ctx, r.table(), index, condition, values, &matches); err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	return matches, nil
}
