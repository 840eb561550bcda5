// Package classifier assigns a context type and tags to note chunks from keyword vocabularies.
package classifier

import (
	"regexp"
	"slices"
	"strings"

	"github.com/hindsight-journal/hindsight/pkg/domain/types"
)

// Priority breaks ties between classes with the same keyword count, first wins.
var Priority = []types.ContextType{
	types.ContextTypeEmotional,
	types.ContextTypeTemporal,
	types.ContextTypeThematic,
}

var vocabularies = map[types.ContextType]*regexp.Regexp{
	types.ContextTypeEmotional: regexp.MustCompile(`(?i)\b(feel\w*|felt|happ(y|iness)|sad\w*|ang(ry|er)|anxi\w*|stress\w*|worr\w*|excit\w*|gratef\w*|gratitude|lov(e|ed|ing)|lonel\w*|afraid|fear\w*|joy\w*|upset|frustrat\w*|calm|peaceful|proud|tired|overwhelm\w*|hop(e|ed|eful)|depress\w*|emotion\w*|mood)\b`),
	types.ContextTypeTemporal:  regexp.MustCompile(`(?i)\b(today|tonight|yesterday|tomorrow|morning|afternoon|evening|night|weeks?|weekend|months?|years?|days?|ago|monday|tuesday|wednesday|thursday|friday|saturday|sunday|recently|lately|soon|later|earlier)\b`),
	types.ContextTypeThematic:  regexp.MustCompile(`(?i)\b(work\w*|jobs?|career|projects?|meetings?|office|colleagues?|boss|famil\w*|friends?|sisters?|brothers?|mother|father|parents?|partner|relationships?|health\w*|exercis\w*|sleep\w*|doctor|gym|diet|learn\w*|stud(y|ied|ying)|books?|reading|courses?|writ(e|ing)|creat\w*|music|painting|travel\w*|hobb(y|ies)|vacation|games?)\b`),
}

// ContextType returns the class with the most keyword matches in text. Ties go to the class
// listed first in Priority; no match at all yields general.
func ContextType(text string) types.ContextType {
	best := types.ContextTypeGeneral
	bestCount := 0
	for _, ct := range Priority {
		n := len(vocabularies[ct].FindAllStringIndex(text, -1))
		if n > bestCount {
			best, bestCount = ct, n
		}
	}
	return best
}

type category struct {
	name     string
	keywords []string
}

// Keyword membership is a plain substring test on the lowercased text, so "stress" also
// matches "stressful" and short keywords can match inside unrelated words.
var emotionalCategories = []category{
	{"positive", []string{"happy", "joy", "great", "grateful", "excited", "love", "calm", "proud", "peaceful", "wonderful", "glad", "content", "relieved"}},
	{"negative", []string{"sad", "angry", "anxious", "stress", "worried", "upset", "tired", "lonely", "afraid", "frustrat", "depress", "overwhelm", "scared"}},
	{"neutral", []string{"okay", "fine", "normal", "usual", "neutral", "meh"}},
}

var thematicCategories = []category{
	{"work", []string{"work", "job", "meeting", "project", "office", "colleague", "boss", "deadline", "career"}},
	{"personal", []string{"family", "friend", "sister", "brother", "mother", "father", "partner", "relationship", "home", "kids"}},
	{"health", []string{"health", "sleep", "exercise", "doctor", "sick", "gym", "diet", "run", "yoga"}},
	{"learning", []string{"learn", "study", "book", "read", "course", "lesson", "class"}},
	{"creativity", []string{"write", "writing", "draw", "paint", "music", "create", "idea", "design"}},
	{"leisure", []string{"travel", "movie", "game", "vacation", "weekend", "relax", "walk", "hike"}},
}

func matchCategories(text string, table []category) []string {
	lower := strings.ToLower(text)
	var tags []string
	for _, c := range table {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, c.name)
				break
			}
		}
	}
	slices.Sort(tags)
	return tags
}

// EmotionalTags returns the subset of {positive, negative, neutral} whose keywords occur in text.
func EmotionalTags(text string) []string {
	return matchCategories(text, emotionalCategories)
}

// ThematicTags returns the themes whose keywords occur in text.
func ThematicTags(text string) []string {
	return matchCategories(text, thematicCategories)
}

// EmotionCategory maps an emotion word such as "happy" or "stressed" to its emotional
// category. Category names map to themselves.
func EmotionCategory(emotion string) (string, bool) {
	e := strings.ToLower(strings.TrimSpace(emotion))
	if e == "" {
		return "", false
	}
	for _, c := range emotionalCategories {
		if e == c.name {
			return c.name, true
		}
	}
	for _, c := range emotionalCategories {
		for _, kw := range c.keywords {
			if strings.Contains(e, kw) {
				return c.name, true
			}
		}
	}
	return "", false
}

// Themes returns every known theme name.
func Themes() []string {
	names := make([]string, len(thematicCategories))
	for i, c := range thematicCategories {
		names[i] = c.name
	}
	return names
}

var temporalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(today|tonight|yesterday|tomorrow)\b`),
	regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
	regexp.MustCompile(`\b(this|last|next) (week|weekend|month|year)\b`),
	regexp.MustCompile(`\b([01]?\d|2[0-3]):[0-5]\d\b`),
	regexp.MustCompile(`\b(morning|afternoon|evening|night)\b`),
	regexp.MustCompile(`\b\d+ (days?|weeks?|months?|years?) ago\b`),
}

// TemporalMarkers returns the distinct time expressions found in text, lowercased.
func TemporalMarkers(text string) []string {
	lower := strings.ToLower(text)
	var markers []string
	for _, p := range temporalPatterns {
		for _, m := range p.FindAllString(lower, -1) {
			if !slices.Contains(markers, m) {
				markers = append(markers, m)
			}
		}
	}
	slices.Sort(markers)
	return markers
}

// Result bundles all classification outputs of one chunk.
type Result struct {
	ContextType     types.ContextType
	EmotionalTags   []string
	ThematicTags    []string
	TemporalMarkers []string
}

// Classify runs every classifier over text.
func Classify(text string) Result {
	return Result{
		ContextType:     ContextType(text),
		EmotionalTags:   EmotionalTags(text),
		ThematicTags:    ThematicTags(text),
		TemporalMarkers: TemporalMarkers(text),
	}
}
