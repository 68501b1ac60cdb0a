package buddy

import (
	"math"
	"strings"
)

// Factor weights. They sum to 1.0, so the weighted sum is already
// normalized; the engine still divides by the total applied weight as a
// guard against drift if a factor is ever added or removed.
const (
	genderWeight       = 0.30
	ageWeight          = 0.20
	workoutWeight      = 0.25
	availabilityWeight = 0.15
	fitnessWeight      = 0.10
)

// neutralScore is assigned to a factor when there is not enough data to
// judge compatibility either way
const neutralScore = 0.5

// fitnessLevels maps free-text fitness levels to ordinals. Unrecognized
// text falls back to intermediate rather than failing.
var fitnessLevels = map[string]int{
	"beginner":     1,
	"intermediate": 2,
	"advanced":     3,
}

// CompatibilityFactors breaks a score down into its five sub-scores
type CompatibilityFactors struct {
	GenderMatch       float64 `json:"gender_match"`
	AgeMatch          float64 `json:"age_match"`
	WorkoutMatch      float64 `json:"workout_match"`
	AvailabilityMatch float64 `json:"availability_match"`
	FitnessMatch      float64 `json:"fitness_match"`
}

// MatchingEngine computes compatibility scores between users
type MatchingEngine interface {
	CalculateCompatibility(user1 *UserProfile, pref1 *BuddyPreference, user2 *UserProfile, pref2 *BuddyPreference) (float64, *CompatibilityFactors)
}

type matchingEngine struct{}

// NewMatchingEngine returns the stateless scoring engine
func NewMatchingEngine() MatchingEngine {
	return &matchingEngine{}
}

// CalculateCompatibility returns a score in [0, 1] for the pair. A user
// without a preference record is unmatchable, so the score is 0.
func (m *matchingEngine) CalculateCompatibility(user1 *UserProfile, pref1 *BuddyPreference, user2 *UserProfile, pref2 *BuddyPreference) (float64, *CompatibilityFactors) {
	if pref1 == nil || pref2 == nil {
		return 0.0, nil
	}

	factors := &CompatibilityFactors{
		GenderMatch:       m.calculateGenderScore(user1, user2, pref1, pref2),
		AgeMatch:          m.calculateAgeScore(user1, user2, pref1, pref2),
		WorkoutMatch:      m.calculateWorkoutScore(pref1, pref2),
		AvailabilityMatch: m.calculateAvailabilityScore(pref1, pref2),
		FitnessMatch:      m.calculateFitnessScore(pref1, pref2),
	}

	score := factors.GenderMatch*genderWeight +
		factors.AgeMatch*ageWeight +
		factors.WorkoutMatch*workoutWeight +
		factors.AvailabilityMatch*availabilityWeight +
		factors.FitnessMatch*fitnessWeight

	totalWeight := genderWeight + ageWeight + workoutWeight + availabilityWeight + fitnessWeight
	if totalWeight == 0 {
		return 0.0, factors
	}

	return score / totalWeight, factors
}

// calculateGenderScore checks each user's gender preference against the
// other's gender: 1.0 if both match, 0.5 if exactly one does, 0.0 otherwise
func (m *matchingEngine) calculateGenderScore(user1, user2 *UserProfile, pref1, pref2 *BuddyPreference) float64 {
	user1Match := pref1.GenderPreference == PreferenceNoPreference ||
		pref1.GenderPreference == user2.Gender
	user2Match := pref2.GenderPreference == PreferenceNoPreference ||
		pref2.GenderPreference == user1.Gender

	switch {
	case user1Match && user2Match:
		return 1.0
	case user1Match || user2Match:
		return 0.5
	default:
		return 0.0
	}
}

// calculateAgeScore checks whether each user falls within the other's age
// range. Ranges are treated as literal inclusive intervals; an inverted
// range simply matches nobody.
func (m *matchingEngine) calculateAgeScore(user1, user2 *UserProfile, pref1, pref2 *BuddyPreference) float64 {
	user1InRange := pref2.MinAge <= user1.Age && user1.Age <= pref2.MaxAge
	user2InRange := pref1.MinAge <= user2.Age && user2.Age <= pref1.MaxAge

	switch {
	case user1InRange && user2InRange:
		return 1.0
	case user1InRange || user2InRange:
		return 0.5
	default:
		return 0.0
	}
}

// calculateWorkoutScore is the Jaccard similarity of the two workout-type
// sets, neutral when either set is empty or unparsable
func (m *matchingEngine) calculateWorkoutScore(pref1, pref2 *BuddyPreference) float64 {
	workouts1, ok1 := decodeList(pref1.WorkoutTypes)
	workouts2, ok2 := decodeList(pref2.WorkoutTypes)
	if !ok1 || !ok2 || len(workouts1) == 0 || len(workouts2) == 0 {
		return neutralScore
	}

	intersection, union := setOverlap(workouts1, workouts2)
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}

// calculateAvailabilityScore is intersection size over the larger day-set
// size (not Jaccard), neutral when either set is empty or unparsable
func (m *matchingEngine) calculateAvailabilityScore(pref1, pref2 *BuddyPreference) float64 {
	days1, ok1 := decodeList(pref1.AvailabilityDays)
	days2, ok2 := decodeList(pref2.AvailabilityDays)
	if !ok1 || !ok2 || len(days1) == 0 || len(days2) == 0 {
		return neutralScore
	}

	intersection, _ := setOverlap(days1, days2)
	larger := len(uniq(days1))
	if l2 := len(uniq(days2)); l2 > larger {
		larger = l2
	}
	if larger == 0 {
		return 0.0
	}

	return float64(intersection) / float64(larger)
}

// calculateFitnessScore compares fitness level ordinals: identical 1.0,
// adjacent 0.7, further apart 0.3. Missing levels are neutral.
func (m *matchingEngine) calculateFitnessScore(pref1, pref2 *BuddyPreference) float64 {
	if pref1.FitnessLevel == nil || *pref1.FitnessLevel == "" ||
		pref2.FitnessLevel == nil || *pref2.FitnessLevel == "" {
		return neutralScore
	}

	level1 := fitnessOrdinal(*pref1.FitnessLevel)
	level2 := fitnessOrdinal(*pref2.FitnessLevel)

	switch diff := int(math.Abs(float64(level1 - level2))); diff {
	case 0:
		return 1.0
	case 1:
		return 0.7
	default:
		return 0.3
	}
}

// fitnessOrdinal maps a free-text level to its ordinal, defaulting
// unrecognized text to intermediate
func fitnessOrdinal(level string) int {
	if ordinal, ok := fitnessLevels[strings.ToLower(level)]; ok {
		return ordinal
	}
	return fitnessLevels["intermediate"]
}

// setOverlap returns the intersection and union sizes of two string lists
// treated as sets
func setOverlap(list1, list2 []string) (intersection, union int) {
	set1 := uniq(list1)
	set2 := uniq(list2)

	for item := range set2 {
		if set1[item] {
			intersection++
		}
	}
	union = len(set1) + len(set2) - intersection

	return intersection, union
}

func uniq(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, item := range list {
		set[item] = true
	}
	return set
}
