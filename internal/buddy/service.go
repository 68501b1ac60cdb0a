// internal/buddy/service.go
// Service layer owns the matching pipeline and the connection/block
// state transitions

package buddy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrCannotLikeSelf  = errors.New("cannot like yourself")
	ErrAlreadyLiked    = errors.New("already sent like to this user")
	ErrCannotBlockSelf = errors.New("cannot block yourself")
	ErrAlreadyBlocked  = errors.New("user already blocked")
	ErrInvalidStatus   = errors.New("invalid connection status")
)

// Service is the buddy matching API consumed by the HTTP layer
type Service interface {
	DiscoverBuddies(ctx context.Context, userID int64, limit int) ([]*ScoredMatch, error)
	SendLike(ctx context.Context, fromUserID, toUserID int64) (*LikeResult, error)
	GetConnections(ctx context.Context, userID int64, status ConnectionStatus) ([]*ConnectionView, error)
	BlockUser(ctx context.Context, blockerID, blockedID int64, reason string) error
	GetPreferences(ctx context.Context, userID int64) (*PreferencesView, error)
	UpsertPreferences(ctx context.Context, userID int64, req *UpsertPreferencesRequest) (*PreferencesView, error)
}

// Config holds service tunables
type Config struct {
	DefaultLimit  int
	MinMatchScore float64
	CacheTTL      time.Duration
}

type service struct {
	repo   Repository
	engine MatchingEngine
	redis  *redis.Client
	config *Config
}

// NewService creates a new buddy service. The redis client is optional;
// without it discovery simply runs uncached.
func NewService(repo Repository, engine MatchingEngine, redisClient *redis.Client, config *Config) Service {
	return &service{
		repo:   repo,
		engine: engine,
		redis:  redisClient,
		config: config,
	}
}

// DiscoverBuddies returns candidates ranked by compatibility. A missing
// user or preference record yields an empty result, not an error: there is
// simply nothing to show.
func (s *service) DiscoverBuddies(ctx context.Context, userID int64, limit int) ([]*ScoredMatch, error) {
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}

	RecordDiscoverRequest()

	if cached := s.cachedDiscovery(ctx, userID, limit); cached != nil {
		return cached, nil
	}

	user, err := s.repo.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []*ScoredMatch{}, nil
	}

	pref, err := s.repo.GetPreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		return []*ScoredMatch{}, nil
	}

	candidates, err := s.repo.ListCandidates(ctx, userID)
	if err != nil {
		return nil, err
	}

	matches := make([]*ScoredMatch, 0, len(candidates))
	for _, candidate := range candidates {
		score, _ := s.engine.CalculateCompatibility(user, pref, &candidate.User, &candidate.Preference)
		RecordCompatibilityScore(score)

		if score <= s.config.MinMatchScore {
			continue
		}

		matches = append(matches, &ScoredMatch{
			UserID:             candidate.User.ID,
			Username:           candidate.User.Username,
			Age:                candidate.User.Age,
			Gender:             candidate.User.Gender,
			CompatibilityScore: round2(score),
			FitnessLevel:       candidate.Preference.FitnessLevel,
			GymLocation:        candidate.Preference.GymLocation,
			WorkoutTypes:       candidate.Preference.WorkoutTypeList(),
		})
	}

	// Stable sort keeps the repository's id ordering among equal scores
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CompatibilityScore > matches[j].CompatibilityScore
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	s.cacheDiscovery(ctx, userID, limit, matches)

	return matches, nil
}

// SendLike creates a like edge and reports whether it completed a mutual
// pair. The repository performs the edge mutations atomically.
func (s *service) SendLike(ctx context.Context, fromUserID, toUserID int64) (*LikeResult, error) {
	if fromUserID == toUserID {
		return nil, ErrCannotLikeSelf
	}

	existing, err := s.repo.FindConnection(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyLiked
	}

	mutual, err := s.repo.SaveLike(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}

	RecordLike(mutual)
	s.invalidateDiscovery(ctx, fromUserID, toUserID)

	message := "Like sent successfully"
	if mutual {
		message = "Mutual connection established!"
	}

	return &LikeResult{Mutual: mutual, Message: message}, nil
}

// GetConnections lists a user's connections by status. Mutual pairs
// produce two stored edges, so the result is deduplicated by counterpart.
func (s *service) GetConnections(ctx context.Context, userID int64, status ConnectionStatus) ([]*ConnectionView, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	views, err := s.repo.ListConnectionsForUser(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	if status != StatusMutual {
		return views, nil
	}

	seen := make(map[int64]bool, len(views))
	deduped := make([]*ConnectionView, 0, len(views))
	for _, view := range views {
		if seen[view.UserID] {
			continue
		}
		seen[view.UserID] = true
		deduped = append(deduped, view)
	}

	return deduped, nil
}

// BlockUser records the block and severs any connection between the pair
func (s *service) BlockUser(ctx context.Context, blockerID, blockedID int64, reason string) error {
	if blockerID == blockedID {
		return ErrCannotBlockSelf
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}

	if err := s.repo.CreateBlock(ctx, blockerID, blockedID, reasonPtr); err != nil {
		return err
	}

	RecordBlock()
	s.invalidateDiscovery(ctx, blockerID, blockedID)

	return nil
}

// GetPreferences returns the user's decoded preference record, or nil when
// none has been saved yet
func (s *service) GetPreferences(ctx context.Context, userID int64) (*PreferencesView, error) {
	user, err := s.repo.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	pref, err := s.repo.GetPreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		return nil, nil
	}

	return preferencesView(pref), nil
}

// UpsertPreferences creates or updates the user's preference record.
// Fields omitted from the request keep their current value; on first save
// they fall back to defaults.
func (s *service) UpsertPreferences(ctx context.Context, userID int64, req *UpsertPreferencesRequest) (*PreferencesView, error) {
	user, err := s.repo.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	pref, err := s.repo.GetPreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		pref = &BuddyPreference{
			UserID:           userID,
			GenderPreference: PreferenceNoPreference,
			MinAge:           18,
			MaxAge:           65,
		}
	}

	if req.GenderPreference != nil {
		pref.GenderPreference = *req.GenderPreference
	}
	if req.MinAge != nil {
		pref.MinAge = *req.MinAge
	}
	if req.MaxAge != nil {
		pref.MaxAge = *req.MaxAge
	}
	if req.WorkoutTypes != nil {
		pref.WorkoutTypes = encodeList(req.WorkoutTypes)
	}
	if req.AvailabilityDays != nil {
		pref.AvailabilityDays = encodeList(req.AvailabilityDays)
	}
	if req.FitnessLevel != nil {
		pref.FitnessLevel = req.FitnessLevel
	}
	if req.Goals != nil {
		pref.Goals = encodeList(req.Goals)
	}
	if req.GymLocation != nil {
		pref.GymLocation = req.GymLocation
	}

	if err := s.repo.UpsertPreference(ctx, pref); err != nil {
		return nil, err
	}

	s.invalidateDiscovery(ctx, userID)

	return preferencesView(pref), nil
}

// preferencesView decodes a stored preference row for API responses
func preferencesView(pref *BuddyPreference) *PreferencesView {
	return &PreferencesView{
		GenderPreference: pref.GenderPreference,
		MinAge:           pref.MinAge,
		MaxAge:           pref.MaxAge,
		WorkoutTypes:     orEmpty(pref.WorkoutTypeList()),
		AvailabilityDays: orEmpty(pref.AvailabilityDayList()),
		FitnessLevel:     pref.FitnessLevel,
		Goals:            orEmpty(pref.GoalList()),
		GymLocation:      pref.GymLocation,
	}
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

// round2 rounds a score to two decimal places for API responses
func round2(score float64) float64 {
	return math.Round(score*100) / 100
}

// Discovery cache. Only the default limit is cached so invalidation stays
// a single key per user.

func (s *service) discoveryCacheKey(userID int64) string {
	return fmt.Sprintf("buddy:discover:%d", userID)
}

func (s *service) cachedDiscovery(ctx context.Context, userID int64, limit int) []*ScoredMatch {
	if s.redis == nil || limit != s.config.DefaultLimit {
		return nil
	}

	data, err := s.redis.Get(ctx, s.discoveryCacheKey(userID)).Bytes()
	if err != nil {
		return nil
	}

	var matches []*ScoredMatch
	if err := json.Unmarshal(data, &matches); err != nil {
		return nil
	}

	return matches
}

func (s *service) cacheDiscovery(ctx context.Context, userID int64, limit int, matches []*ScoredMatch) {
	if s.redis == nil || limit != s.config.DefaultLimit || s.config.CacheTTL <= 0 {
		return
	}

	data, err := json.Marshal(matches)
	if err != nil {
		return
	}

	s.redis.Set(ctx, s.discoveryCacheKey(userID), data, s.config.CacheTTL)
}

func (s *service) invalidateDiscovery(ctx context.Context, userIDs ...int64) {
	if s.redis == nil {
		return
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, s.discoveryCacheKey(id))
	}

	s.redis.Del(ctx, keys...)
}
