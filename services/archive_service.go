package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"touchline_server/models"
)

// S3API is the subset of the S3 client used for archiving.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Presigner signs read URLs for archived snapshots.
type S3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// InitializeS3Client builds an S3 client for region.
func InitializeS3Client(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// ArchiveService keeps a JSON snapshot of every match that reaches a terminal
// stage, for the success-story and history collaborators. It is wired in as a
// notification sink.
type ArchiveService struct {
	Client    S3API
	Presigner S3Presigner
	Bucket    string
	// Timeout bounds a single snapshot upload; zero means 10s.
	Timeout time.Duration
}

// ArchiveKey is the object key of a match snapshot.
func ArchiveKey(matchID string) string {
	return "matches/" + matchID + ".json"
}

func (ArchiveService) Name() string { return "archive" }

// Notify archives event.Match when the event left it in a terminal stage.
func (s *ArchiveService) Notify(ctx context.Context, event models.MatchEvent) error {
	if event.Match == nil || !event.NewStage.Terminal() {
		return nil
	}
	return s.Archive(ctx, event.Match)
}

// Archive writes the snapshot of match.
func (s *ArchiveService) Archive(ctx context.Context, match *models.Match) error {
	body, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("failed to encode match %s: %w", match.MatchID, err)
	}

	timeout := s.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err = s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(ArchiveKey(match.MatchID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"stage": string(match.Stage),
			"kind":  string(match.Kind),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to archive match %s: %w", match.MatchID, err)
	}
	return nil
}

// GenerateReadURL generates a presigned URL for reading a match snapshot.
func (s *ArchiveService) GenerateReadURL(ctx context.Context, matchID string) (string, error) {
	if s.Presigner == nil {
		return "", fmt.Errorf("%w: archive presigner not configured", ErrStoreUnavailable)
	}
	params := &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(ArchiveKey(matchID)),
	}
	req, err := s.Presigner.PresignGetObject(ctx, params, s3.WithPresignExpires(5*time.Minute))
	if err != nil {
		return "", fmt.Errorf("failed to presign archive of match %s: %w", matchID, err)
	}
	return req.URL, nil
}
