package session

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Quiz presentation formats.
const (
	FormatFlagToName = "flag-to-name"
	FormatNameToFlag = "name-to-flag"
)

// ErrMalformedToken is returned by Decode when a token cannot be parsed or lacks a field.
var ErrMalformedToken = errors.New("session: malformed token")

// Payload is the immutable state bound into a session token at quiz start.
type Payload struct {
	StartTime         int64    `json:"startTime"`
	NumberOfQuestions int      `json:"numberOfQuestions"`
	Region            string   `json:"region"`
	Format            string   `json:"format"`
	QuestionIDs       []string `json:"questionIds"`
}

// SignedToken is a decoded token: the payload and the signature it arrived with.
type SignedToken struct {
	Payload
	Signature string `json:"signature"`
}

// IsValidFormat reports whether f names a supported quiz format.
func IsValidFormat(f string) bool {
	return f == FormatFlagToName || f == FormatNameToFlag
}

// Canonical returns the byte encoding that is signed: a JSON object with the payload
// fields in fixed order, without HTML escaping and without a trailing newline.
func (p Payload) Canonical() ([]byte, error) {
	if p.QuestionIDs == nil {
		p.QuestionIDs = []string{}
	}
	return marshalJSON(p)
}

// Encode signs the payload and packs payload and signature into an opaque string.
func Encode(p Payload, signer *Signer) (string, error) {
	canonical, err := p.Canonical()
	if err != nil {
		return "", fmt.Errorf("encode canonical payload: %w", err)
	}
	if p.QuestionIDs == nil {
		p.QuestionIDs = []string{}
	}

	raw, err := marshalJSON(SignedToken{
		Payload:   p,
		Signature: signer.Sign(canonical),
	})
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// wireToken mirrors SignedToken with pointer fields so absent and null values can be told
// apart from present ones.
type wireToken struct {
	StartTime         *int64   `json:"startTime"`
	NumberOfQuestions *int     `json:"numberOfQuestions"`
	Region            *string  `json:"region"`
	Format            *string  `json:"format"`
	QuestionIDs       []string `json:"questionIds"`
	Signature         *string  `json:"signature"`
}

// Decode parses a token produced by Encode. It does not check the signature.
func Decode(token string) (SignedToken, error) {
	raw, err := decodeBase64(token)
	if err != nil {
		return SignedToken{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	var w wireToken
	if err := json.Unmarshal(raw, &w); err != nil {
		return SignedToken{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	switch {
	case w.StartTime == nil || *w.StartTime == 0:
		return SignedToken{}, fmt.Errorf("%w: missing startTime", ErrMalformedToken)
	case w.NumberOfQuestions == nil || *w.NumberOfQuestions == 0:
		return SignedToken{}, fmt.Errorf("%w: missing numberOfQuestions", ErrMalformedToken)
	case w.Region == nil || *w.Region == "":
		return SignedToken{}, fmt.Errorf("%w: missing region", ErrMalformedToken)
	case w.Format == nil || *w.Format == "":
		return SignedToken{}, fmt.Errorf("%w: missing format", ErrMalformedToken)
	case len(w.QuestionIDs) == 0:
		return SignedToken{}, fmt.Errorf("%w: missing questionIds", ErrMalformedToken)
	case w.Signature == nil || *w.Signature == "":
		return SignedToken{}, fmt.Errorf("%w: missing signature", ErrMalformedToken)
	}

	return SignedToken{
		Payload: Payload{
			StartTime:         *w.StartTime,
			NumberOfQuestions: *w.NumberOfQuestions,
			Region:            *w.Region,
			Format:            *w.Format,
			QuestionIDs:       w.QuestionIDs,
		},
		Signature: *w.Signature,
	}, nil
}

// decodeBase64 accepts standard base64 with or without padding.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty token")
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
