package buddy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func testUser(id int64, gender string, age int) *UserProfile {
	return &UserProfile{ID: id, Username: "user", Gender: gender, Age: age}
}

func testPref(genderPref string, minAge, maxAge int, workouts, days []string, fitness string) *BuddyPreference {
	pref := &BuddyPreference{
		GenderPreference: genderPref,
		MinAge:           minAge,
		MaxAge:           maxAge,
		WorkoutTypes:     encodeList(workouts),
		AvailabilityDays: encodeList(days),
	}
	if fitness != "" {
		pref.FitnessLevel = strPtr(fitness)
	}
	return pref
}

func TestCalculateCompatibility_MissingPreferenceScoresZero(t *testing.T) {
	engine := NewMatchingEngine()
	user1 := testUser(1, GenderMale, 25)
	user2 := testUser(2, GenderFemale, 28)
	pref := testPref(PreferenceNoPreference, 18, 65, nil, nil, "")

	score, _ := engine.CalculateCompatibility(user1, nil, user2, pref)
	assert.Equal(t, 0.0, score)

	score, _ = engine.CalculateCompatibility(user1, pref, user2, nil)
	assert.Equal(t, 0.0, score)

	score, _ = engine.CalculateCompatibility(user1, nil, user2, nil)
	assert.Equal(t, 0.0, score)
}

func TestCalculateCompatibility_PerfectMatchScoresOne(t *testing.T) {
	engine := NewMatchingEngine()
	user1 := testUser(1, GenderMale, 25)
	user2 := testUser(2, GenderMale, 30)
	workouts := []string{"weightlifting", "cardio"}
	days := []string{"mon", "wed", "fri"}
	pref1 := testPref(PreferenceNoPreference, 18, 65, workouts, days, "intermediate")
	pref2 := testPref(PreferenceNoPreference, 18, 65, workouts, days, "intermediate")

	score, factors := engine.CalculateCompatibility(user1, pref1, user2, pref2)
	require.NotNil(t, factors)
	assert.InDelta(t, 1.0, score, 1e-9)
	assert.Equal(t, 1.0, factors.GenderMatch)
	assert.Equal(t, 1.0, factors.AgeMatch)
	assert.Equal(t, 1.0, factors.WorkoutMatch)
	assert.Equal(t, 1.0, factors.AvailabilityMatch)
	assert.Equal(t, 1.0, factors.FitnessMatch)
}

func TestGenderScore(t *testing.T) {
	engine := NewMatchingEngine()
	male := testUser(1, GenderMale, 25)
	female := testUser(2, GenderFemale, 25)

	tests := []struct {
		name  string
		pref1 string
		pref2 string
		want  float64
	}{
		{"both no preference", PreferenceNoPreference, PreferenceNoPreference, 1.0},
		{"both match", PreferenceFemale, PreferenceMale, 1.0},
		{"one matches", PreferenceFemale, PreferenceFemale, 0.5},
		{"neither matches", PreferenceMale, PreferenceFemale, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pref1 := testPref(tt.pref1, 18, 65, nil, nil, "")
			pref2 := testPref(tt.pref2, 18, 65, nil, nil, "")
			_, factors := engine.CalculateCompatibility(male, pref1, female, pref2)
			require.NotNil(t, factors)
			assert.Equal(t, tt.want, factors.GenderMatch)
		})
	}
}

func TestAgeScore(t *testing.T) {
	engine := NewMatchingEngine()

	tests := []struct {
		name       string
		age1, age2 int
		min1, max1 int
		min2, max2 int
		want       float64
	}{
		{"both in range", 25, 30, 18, 65, 18, 65, 1.0},
		{"only one in range", 25, 70, 18, 65, 18, 65, 0.5},
		{"neither in range", 17, 70, 18, 65, 18, 65, 0.0},
		{"boundary ages are inclusive", 18, 65, 18, 65, 18, 65, 1.0},
		{"inverted range matches nobody", 25, 30, 40, 20, 18, 65, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user1 := testUser(1, GenderMale, tt.age1)
			user2 := testUser(2, GenderMale, tt.age2)
			pref1 := testPref(PreferenceNoPreference, tt.min1, tt.max1, nil, nil, "")
			pref2 := testPref(PreferenceNoPreference, tt.min2, tt.max2, nil, nil, "")
			_, factors := engine.CalculateCompatibility(user1, pref1, user2, pref2)
			require.NotNil(t, factors)
			assert.Equal(t, tt.want, factors.AgeMatch)
		})
	}
}

func TestWorkoutScore_Jaccard(t *testing.T) {
	engine := NewMatchingEngine()
	user1 := testUser(1, GenderMale, 25)
	user2 := testUser(2, GenderMale, 25)

	tests := []struct {
		name      string
		workouts1 []string
		workouts2 []string
		want      float64
	}{
		{"identical sets", []string{"yoga", "cardio"}, []string{"yoga", "cardio"}, 1.0},
		{"disjoint sets", []string{"yoga"}, []string{"cardio"}, 0.0},
		{"partial overlap", []string{"yoga", "cardio"}, []string{"cardio", "hiit"}, 1.0 / 3.0},
		{"either empty is neutral", nil, []string{"cardio"}, 0.5},
		{"both empty is neutral", nil, nil, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pref1 := testPref(PreferenceNoPreference, 18, 65, tt.workouts1, nil, "")
			pref2 := testPref(PreferenceNoPreference, 18, 65, tt.workouts2, nil, "")
			_, factors := engine.CalculateCompatibility(user1, pref1, user2, pref2)
			require.NotNil(t, factors)
			assert.InDelta(t, tt.want, factors.WorkoutMatch, 1e-9)
		})
	}
}

func TestWorkoutScore_MalformedJSONIsNeutral(t *testing.T) {
	engine := NewMatchingEngine()
	user1 := testUser(1, GenderMale, 25)
	user2 := testUser(2, GenderMale, 25)

	pref1 := testPref(PreferenceNoPreference, 18, 65, []string{"yoga"}, nil, "")
	pref2 := testPref(PreferenceNoPreference, 18, 65, []string{"yoga"}, nil, "")
	pref2.WorkoutTypes = strPtr("{not json")

	_, factors := engine.CalculateCompatibility(user1, pref1, user2, pref2)
	require.NotNil(t, factors)
	assert.Equal(t, 0.5, factors.WorkoutMatch)
}

func TestAvailabilityScore_IntersectionOverMax(t *testing.T) {
	engine := NewMatchingEngine()
	user1 := testUser(1, GenderMale, 25)
	user2 := testUser(2, GenderMale, 25)

	tests := []struct {
		name  string
		days1 []string
		days2 []string
		want  float64
	}{
		// {"mon"} vs {"mon","tue"}: intersection 1 / max(1,2), not Jaccard's 1/3
		{"denominator is larger set", []string{"mon"}, []string{"mon", "tue"}, 0.5},
		{"identical sets", []string{"mon", "tue"}, []string{"mon", "tue"}, 1.0},
		{"disjoint sets", []string{"mon"}, []string{"tue"}, 0.0},
		{"either empty is neutral", []string{"mon"}, nil, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pref1 := testPref(PreferenceNoPreference, 18, 65, nil, tt.days1, "")
			pref2 := testPref(PreferenceNoPreference, 18, 65, nil, tt.days2, "")
			_, factors := engine.CalculateCompatibility(user1, pref1, user2, pref2)
			require.NotNil(t, factors)
			assert.InDelta(t, tt.want, factors.AvailabilityMatch, 1e-9)
		})
	}
}

func TestFitnessScore(t *testing.T) {
	engine := NewMatchingEngine()
	user1 := testUser(1, GenderMale, 25)
	user2 := testUser(2, GenderMale, 25)

	tests := []struct {
		name     string
		fitness1 string
		fitness2 string
		want     float64
	}{
		{"same level", "intermediate", "intermediate", 1.0},
		{"adjacent levels", "intermediate", "advanced", 0.7},
		{"two levels apart", "beginner", "advanced", 0.3},
		{"case insensitive", "Beginner", "BEGINNER", 1.0},
		{"unrecognized text defaults to intermediate", "expert", "advanced", 0.7},
		{"missing level is neutral", "", "advanced", 0.5},
		{"both missing is neutral", "", "", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pref1 := testPref(PreferenceNoPreference, 18, 65, nil, nil, tt.fitness1)
			pref2 := testPref(PreferenceNoPreference, 18, 65, nil, nil, tt.fitness2)
			_, factors := engine.CalculateCompatibility(user1, pref1, user2, pref2)
			require.NotNil(t, factors)
			assert.Equal(t, tt.want, factors.FitnessMatch)
		})
	}
}

func TestCalculateCompatibility_ScoreStaysInRange(t *testing.T) {
	engine := NewMatchingEngine()

	genders := []string{GenderMale, GenderFemale, GenderOther}
	prefs := []string{PreferenceMale, PreferenceFemale, PreferenceOther, PreferenceNoPreference}
	workoutSets := [][]string{nil, {"yoga"}, {"yoga", "cardio"}, {"powerlifting"}}
	fitnessLevels := []string{"", "beginner", "intermediate", "advanced", "garbage"}

	for _, g1 := range genders {
		for _, g2 := range genders {
			for _, p1 := range prefs {
				for _, w := range workoutSets {
					for _, f := range fitnessLevels {
						user1 := testUser(1, g1, 22)
						user2 := testUser(2, g2, 48)
						pref1 := testPref(p1, 30, 20, w, []string{"sat"}, f)
						pref2 := testPref(PreferenceNoPreference, 18, 65, []string{"yoga"}, nil, "advanced")

						score, _ := engine.CalculateCompatibility(user1, pref1, user2, pref2)
						assert.GreaterOrEqual(t, score, 0.0)
						assert.LessOrEqual(t, score, 1.0)
					}
				}
			}
		}
	}
}

// Three users: P1 shares workout types, gender and age compatibility with
// P3, while P2 wants a male buddy but overlaps less. P1-P3 must outrank
// P1-P2.
func TestCalculateCompatibility_RanksCloserProfilesHigher(t *testing.T) {
	engine := NewMatchingEngine()

	p1 := testUser(1, GenderMale, 25)
	p1Pref := testPref(PreferenceNoPreference, 18, 65, []string{"weightlifting", "cardio"}, []string{"mon", "wed"}, "intermediate")

	p2 := testUser(2, GenderFemale, 28)
	p2Pref := testPref(PreferenceMale, 18, 65, []string{"yoga", "cardio"}, []string{"tue"}, "beginner")

	p3 := testUser(3, GenderMale, 30)
	p3Pref := testPref(PreferenceNoPreference, 18, 65, []string{"weightlifting", "powerlifting"}, []string{"mon", "wed"}, "advanced")

	scoreP1P2, _ := engine.CalculateCompatibility(p1, p1Pref, p2, p2Pref)
	scoreP1P3, _ := engine.CalculateCompatibility(p1, p1Pref, p3, p3Pref)

	assert.Greater(t, scoreP1P3, scoreP1P2)
}
