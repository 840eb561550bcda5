package classifier_test

import (
	"testing"

	"github.com/hindsight-journal/hindsight/pkg/domain/types"
	"github.com/hindsight-journal/hindsight/pkg/utils/classifier"
	"github.com/m-mizutani/gt"
)

func TestContextType(t *testing.T) {
	tests := []struct {
		name string
		text string
		want types.ContextType
	}{
		{
			name: "emotional dominates",
			text: "Had a great day with my sister Julia, feeling really happy",
			want: types.ContextTypeEmotional,
		},
		{
			name: "thematic dominates",
			text: "Project meeting with colleagues at the office, then worked on the book",
			want: types.ContextTypeThematic,
		},
		{
			name: "temporal dominates",
			text: "Yesterday morning and this evening, tomorrow night again",
			want: types.ContextTypeTemporal,
		},
		{
			name: "no keywords",
			text: "The quarterly report lists numbers",
			want: types.ContextTypeGeneral,
		},
		{
			name: "case insensitive",
			text: "HAPPY and EXCITED",
			want: types.ContextTypeEmotional,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, classifier.ContextType(tt.text)).Equal(tt.want)
		})
	}
}

func TestContextTypeTieBreakPriority(t *testing.T) {
	// two emotional and two temporal keywords
	gt.Value(t, classifier.ContextType("I feel happy today and tomorrow")).Equal(types.ContextTypeEmotional)
	// one temporal and one thematic keyword
	gt.Value(t, classifier.ContextType("This morning at work")).Equal(types.ContextTypeTemporal)
	// one of each
	gt.Value(t, classifier.ContextType("sad morning at work")).Equal(types.ContextTypeEmotional)

	gt.Value(t, classifier.Priority).Equal([]types.ContextType{
		types.ContextTypeEmotional,
		types.ContextTypeTemporal,
		types.ContextTypeThematic,
	})
}

func TestEmotionalTags(t *testing.T) {
	gt.Value(t, classifier.EmotionalTags("Had a great day, feeling really happy")).Equal([]string{"positive"})
	gt.Value(t, classifier.EmotionalTags("Stressful meeting at work, felt anxious")).Equal([]string{"negative"})
	gt.Value(t, classifier.EmotionalTags("Happy but tired, overall fine")).Equal([]string{"negative", "neutral", "positive"})
	gt.Array(t, classifier.EmotionalTags("The train left at noon")).Length(0)

	// substring semantics: "sad" inside "crusade"
	gt.Value(t, classifier.EmotionalTags("a crusade")).Equal([]string{"negative"})
}

func TestThematicTags(t *testing.T) {
	gt.Value(t, classifier.ThematicTags("Stressful meeting at work")).Equal([]string{"work"})
	gt.Value(t, classifier.ThematicTags("Dinner with my sister, then a walk and a book")).Equal([]string{"learning", "leisure", "personal"})
	gt.Array(t, classifier.ThematicTags("zzz")).Length(0)
}

func TestTemporalMarkers(t *testing.T) {
	got := classifier.TemporalMarkers("Yesterday at 14:30 I met Tom. Last week was rough, 3 days ago worse. Monday MORNING again, yesterday too.")
	gt.Value(t, got).Equal([]string{"14:30", "3 days ago", "last week", "monday", "morning", "yesterday"})
	gt.Array(t, classifier.TemporalMarkers("nothing here")).Length(0)
}

func TestEmotionCategory(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"happy", "positive", true},
		{"Stressed", "negative", true},
		{"negative", "negative", true},
		{"okay", "neutral", true},
		{"", "", false},
		{"xyzzy", "", false},
	}
	for _, tt := range tests {
		got, ok := classifier.EmotionCategory(tt.in)
		gt.Value(t, ok).Equal(tt.wantOK)
		gt.Value(t, got).Equal(tt.want)
	}
}

func TestClassify(t *testing.T) {
	r := classifier.Classify("Stressful meeting at work this morning, felt anxious")
	gt.Value(t, r.ContextType).Equal(types.ContextTypeEmotional)
	gt.Value(t, r.EmotionalTags).Equal([]string{"negative"})
	gt.Value(t, r.ThematicTags).Equal([]string{"work"})
	gt.Value(t, r.TemporalMarkers).Equal([]string{"morning"})
	gt.Array(t, classifier.Themes()).Has("creativity")
}
