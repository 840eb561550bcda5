package types

import "github.com/m-mizutani/goerr/v2"

// Sentiment is the overall polarity of a mood.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
)

var ErrInvalidSentiment = goerr.New("invalid sentiment")

func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed:
		return true
	default:
		return false
	}
}

func (s Sentiment) String() string {
	return string(s)
}

// ParseSentiment parses a string into a Sentiment. An empty string yields the zero value.
func ParseSentiment(s string) (Sentiment, error) {
	if s == "" {
		return "", nil
	}
	v := Sentiment(s)
	if !v.IsValid() {
		return "", goerr.Wrap(ErrInvalidSentiment, "unknown sentiment", goerr.V("value", s))
	}
	return v, nil
}
