package ranking

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/flagquiz/flagquiz-api/internal/session"
)

const (
	maxNicknameLength = 20
	maxScore          = 1_000_000
	maxQuestions      = 1000
)

var (
	markupPattern  = regexp.MustCompile(`(?i)[<>]|&lt;|&gt;|<script|javascript:|on\w+=`)
	controlPattern = regexp.MustCompile(`[\x00-\x1F\x7F-\x9F]`)
)

// NormalizeNickname trims the nickname and rejects markup, control characters
// and lengths outside 1..20 characters.
func NormalizeNickname(raw string) (string, error) {
	nickname := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(nickname)
	switch {
	case n == 0:
		return "", &ValidationError{Field: "nickname", Message: "nickname is required"}
	case n > maxNicknameLength:
		return "", &ValidationError{Field: "nickname", Message: "nickname must be at most 20 characters"}
	case markupPattern.MatchString(nickname):
		return "", &ValidationError{Field: "nickname", Message: "nickname contains forbidden characters"}
	case controlPattern.MatchString(nickname):
		return "", &ValidationError{Field: "nickname", Message: "nickname must not contain control characters"}
	}
	return nickname, nil
}

func normalizeRegion(region string) string {
	if region == "" {
		return DefaultRegion
	}
	return region
}

func normalizeFormat(format string) (string, error) {
	if format == "" {
		return session.FormatFlagToName, nil
	}
	if !session.IsValidFormat(format) {
		return "", &ValidationError{Field: "format", Message: "format must be flag-to-name or name-to-flag"}
	}
	return format, nil
}

func validateQuestionCount(n int) error {
	if n < 1 || n > maxQuestions {
		return &ValidationError{Field: "numberOfQuestions", Message: "numberOfQuestions must be between 1 and 1000"}
	}
	return nil
}

func validateStart(req *StartRequest) error {
	if err := validateQuestionCount(req.NumberOfQuestions); err != nil {
		return err
	}
	if len(req.QuestionIDs) != req.NumberOfQuestions {
		return &ValidationError{Field: "questionIds", Message: "questionIds must contain numberOfQuestions entries"}
	}
	for _, id := range req.QuestionIDs {
		if id == "" {
			return &ValidationError{Field: "questionIds", Message: "questionIds must not contain empty ids"}
		}
	}
	format, err := normalizeFormat(req.Format)
	if err != nil {
		return err
	}
	req.Format = format
	req.Region = normalizeRegion(req.Region)
	return nil
}

func validateSubmit(req *SubmitRequest) error {
	if req.SessionToken == "" {
		return &ValidationError{Field: "sessionToken", Message: "sessionToken is required"}
	}
	nickname, err := NormalizeNickname(req.Nickname)
	if err != nil {
		return err
	}
	req.Nickname = nickname

	if req.Score < 0 || req.Score > maxScore {
		return &ValidationError{Field: "score", Message: "score must be between 0 and 1000000"}
	}
	if req.CorrectAnswers < 0 {
		return &ValidationError{Field: "correctAnswers", Message: "correctAnswers must not be negative"}
	}
	if req.TimeInSeconds < 0 {
		return &ValidationError{Field: "timeInSeconds", Message: "timeInSeconds must not be negative"}
	}
	if err := validateQuestionCount(req.NumberOfQuestions); err != nil {
		return err
	}
	format, err := normalizeFormat(req.Format)
	if err != nil {
		return err
	}
	req.Format = format
	req.Region = normalizeRegion(req.Region)
	return nil
}
