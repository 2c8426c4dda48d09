package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"touchline_server/models"
)

// MatchService owns match records. Every mutation of one match runs under
// that match's lock, so confirmations and stage moves on the same match are
// linearized while different matches proceed in parallel.
type MatchService struct {
	Repo          MatchRepository
	Conversations *ConversationService
	Notifier      *MultiNotifier
	Logger        *zap.Logger
	Metrics       *Metrics

	// Now defaults to time.Now().UTC().
	Now func() time.Time
	// ConflictRetries bounds read-modify-write attempts when a concurrent
	// writer in another process wins a conditional write. Zero means 5.
	ConflictRetries uint

	locks *recordLocks
}

// NewMatchService wires a MatchService around repo.
func NewMatchService(repo MatchRepository, conversations *ConversationService, notifier *MultiNotifier, logger *zap.Logger, metrics *Metrics) *MatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchService{
		Repo:          repo,
		Conversations: conversations,
		Notifier:      notifier,
		Logger:        logger,
		Metrics:       metrics,
		locks:         newRecordLocks(),
	}
}

// NewMatch carries the fields needed to open a match.
type NewMatch struct {
	Kind           models.MatchKind `json:"kind"`
	CoachID        string           `json:"coachId"`
	CounterpartyID string           `json:"counterpartyId"`
	AdvertID       string           `json:"advertId"`
}

func (s *MatchService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Get returns the match with matchID or ErrNotFound.
func (s *MatchService) Get(ctx context.Context, matchID string) (*models.Match, error) {
	m, err := s.Repo.GetMatch(ctx, matchID)
	if err != nil {
		return nil, storeError(err)
	}
	return m, nil
}

// Create opens a match at initial_interest and binds its conversation. The
// actor must be the coach or the counterparty named in req.
func (s *MatchService) Create(ctx context.Context, actor models.ActingParty, req NewMatch) (*models.Match, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown match kind %q", ErrInvalidArgument, req.Kind)
	}
	if req.CoachID == "" || req.CounterpartyID == "" || req.CoachID == req.CounterpartyID {
		return nil, fmt.Errorf("%w: coachId and counterpartyId must be two different users", ErrInvalidArgument)
	}
	switch {
	case actor.Role == models.PartyCoach && actor.UserID == req.CoachID:
	case actor.Role == req.Kind.CounterpartyRole() && actor.UserID == req.CounterpartyID:
	default:
		return nil, fmt.Errorf("%w: %s %s is not a party to this match", ErrUnauthorized, actor.Role, actor.UserID)
	}

	now := s.now()
	match := &models.Match{
		MatchID:        uuid.NewString(),
		Kind:           req.Kind,
		Stage:          models.StageInitialInterest,
		CoachID:        req.CoachID,
		CounterpartyID: req.CounterpartyID,
		AdvertID:       req.AdvertID,
		ConversationID: uuid.NewString(),
		CreatedAt:      now,
		LastActivityAt: now,
		Version:        1,
	}
	// The conversation goes first: a match row must never point at a
	// conversation that was not written. A conversation left behind by a
	// failed match write is reported as orphaned by the reconciler.
	if s.Conversations != nil {
		if _, err := s.Conversations.Bind(ctx, match); err != nil {
			return nil, storeError(err)
		}
	}
	if err := s.Repo.CreateMatch(ctx, match); err != nil {
		return nil, storeError(err)
	}

	s.Logger.Info("match created",
		zap.String("matchId", match.MatchID),
		zap.String("kind", string(match.Kind)),
		zap.String("conversationId", match.ConversationID))
	return match, nil
}

// ApplyStageTransition moves the match to target when the stage table allows
// it, persists the change, refreshes the conversation mirror and notifies.
// Mirror and notification run before the match lock is released, so events
// of one match are dispatched in commit order.
func (s *MatchService) ApplyStageTransition(ctx context.Context, matchID string, target models.Stage, actor models.ActingParty) (*models.Match, error) {
	var previous models.Stage

	unlock := s.locks.lock(matchID)
	updated, changed, err := s.commit(ctx, matchID, func(current *models.Match) (*models.Match, bool, error) {
		if err := authorizeParticipant(current, actor); err != nil {
			return nil, false, err
		}
		previous = current.Stage
		return ApplyTransition(current, target, actor, s.now())
	})
	if err == nil && changed {
		s.mirror(ctx, updated)
		s.notify(ctx, updated, models.EventForStage(updated.Stage), previous, actor)
	}
	unlock()

	if err != nil {
		s.Metrics.recordRejection("stage_transition", err)
		return nil, err
	}
	if !changed {
		return updated, nil
	}

	s.Metrics.recordTransition(string(previous), string(updated.Stage))
	s.Logger.Info("match stage changed",
		zap.String("matchId", matchID),
		zap.String("from", string(previous)),
		zap.String("to", string(updated.Stage)),
		zap.String("actorId", actor.UserID))
	return updated, nil
}

// ApplyConfirmation records a confirm or decline by actor. When the call
// reaches consensus or declines the match, the forced stage change is
// mirrored to the conversation.
func (s *MatchService) ApplyConfirmation(ctx context.Context, matchID string, actor models.ActingParty, confirmed bool) (*ConfirmResult, error) {
	var result *ConfirmResult

	unlock := s.locks.lock(matchID)
	_, changed, err := s.commit(ctx, matchID, func(current *models.Match) (*models.Match, bool, error) {
		if err := authorizeParticipant(current, actor); err != nil {
			return nil, false, err
		}
		r, err := Confirm(current, actor, confirmed, s.now())
		if err != nil {
			return nil, false, err
		}
		result = r
		return r.Match, r.Changed, nil
	})
	if err == nil && changed {
		event := models.EventConfirmationRecorded
		if result.StageChanged {
			s.mirror(ctx, result.Match)
			event = models.EventForStage(result.Match.Stage)
		}
		s.notify(ctx, result.Match, event, result.PreviousStage, actor)
	}
	unlock()

	if err != nil {
		s.Metrics.recordRejection("confirmation", err)
		return nil, err
	}
	if !changed {
		return result, nil
	}

	s.Metrics.recordConfirmation(string(actor.Role), confirmed)
	if result.StageChanged {
		s.Metrics.recordTransition(string(result.PreviousStage), string(result.Match.Stage))
	}
	s.Logger.Info("match confirmation recorded",
		zap.String("matchId", matchID),
		zap.String("role", string(actor.Role)),
		zap.Bool("confirmed", confirmed),
		zap.Bool("allConfirmed", result.AllConfirmed),
		zap.String("stage", string(result.Match.Stage)))
	return result, nil
}

// ListForParty returns the matches partyID takes part in under role. It
// never mutates.
func (s *MatchService) ListForParty(ctx context.Context, partyID string, role models.Party) ([]models.Match, error) {
	if partyID == "" {
		return nil, fmt.Errorf("%w: partyId is required", ErrInvalidArgument)
	}
	switch role {
	case models.PartyCoach:
		matches, err := s.Repo.ListMatchesByCoach(ctx, partyID)
		if err != nil {
			return nil, storeError(err)
		}
		return matches, nil
	case models.PartyPlayer, models.PartyParent:
		all, err := s.Repo.ListMatchesByCounterparty(ctx, partyID)
		if err != nil {
			return nil, storeError(err)
		}
		out := make([]models.Match, 0, len(all))
		for _, m := range all {
			if m.Kind.CounterpartyRole() == role {
				out = append(out, m)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, role)
}

// commit runs a read-modify-write of one match. apply sees the latest stored
// record and returns the next one; changed == false skips the write. A lost
// conditional write is retried from a fresh read. The mutation is detached
// from ctx cancellation so an accepted action either fully applies or fully
// fails.
func (s *MatchService) commit(ctx context.Context, matchID string, apply func(*models.Match) (*models.Match, bool, error)) (*models.Match, bool, error) {
	ctx = context.WithoutCancel(ctx)

	type outcome struct {
		match   *models.Match
		changed bool
	}

	tries := s.ConflictRetries
	if tries == 0 {
		tries = 5
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond

	out, err := backoff.Retry(ctx, func() (outcome, error) {
		current, err := s.Repo.GetMatch(ctx, matchID)
		if err != nil {
			return outcome{}, backoff.Permanent(storeError(err))
		}
		next, changed, err := apply(current)
		if err != nil {
			return outcome{}, backoff.Permanent(err)
		}
		if !changed {
			return outcome{match: next}, nil
		}
		next.Version = current.Version + 1
		if err := s.Repo.SaveMatch(ctx, next, current.Version); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				s.Logger.Debug("match write conflict, retrying", zap.String("matchId", matchID))
				return outcome{}, err
			}
			return outcome{}, backoff.Permanent(storeError(err))
		}
		return outcome{match: next, changed: true}, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(tries))
	if err != nil {
		if errors.Is(err, ErrVersionConflict) {
			err = fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		return nil, false, err
	}
	return out.match, out.changed, nil
}

func (s *MatchService) mirror(ctx context.Context, match *models.Match) {
	if s.Conversations == nil {
		return
	}
	s.Conversations.MirrorStage(context.WithoutCancel(ctx), match.ConversationID, match.Stage)
}

func (s *MatchService) notify(ctx context.Context, match *models.Match, event models.EventKind, previous models.Stage, actor models.ActingParty) {
	s.Notifier.Dispatch(context.WithoutCancel(ctx), models.MatchEvent{
		MatchID:        match.MatchID,
		ConversationID: match.ConversationID,
		Event:          event,
		PreviousStage:  previous,
		NewStage:       match.Stage,
		Version:        match.Version,
		ActorID:        actor.UserID,
		OccurredAt:     s.now(),
		Match:          match.Clone(),
	})
}

// authorizeParticipant checks that actor holds the side of the match its role
// claims: the coach role must be the match's coach, any other role its
// counterparty.
func authorizeParticipant(match *models.Match, actor models.ActingParty) error {
	if !match.IsParticipant(actor.UserID) {
		return fmt.Errorf("%w: %s is not a participant of match %s", ErrUnauthorized, actor.UserID, match.MatchID)
	}
	holder := match.CounterpartyID
	if actor.Role == models.PartyCoach {
		holder = match.CoachID
	}
	if actor.UserID != holder {
		return fmt.Errorf("%w: %s does not act as %s in match %s", ErrUnauthorized, actor.UserID, actor.Role, match.MatchID)
	}
	return nil
}

// storeError passes engine sentinels through and marks anything else as a
// store failure the caller may retry.
func storeError(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
