package session

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload() Payload {
	return Payload{
		StartTime:         1_700_000_000_000,
		NumberOfQuestions: 5,
		Region:            "all",
		Format:            FormatFlagToName,
		QuestionIDs:       []string{"jpn", "usa", "fra", "deu", "gbr"},
	}
}

func TestPayload_Canonical(t *testing.T) {
	p := testPayload()
	p.Region = "Europe & <Asia>"

	got, err := p.Canonical()
	require.NoError(t, err)
	assert.Equal(t,
		`{"startTime":1700000000000,"numberOfQuestions":5,"region":"Europe & <Asia>","format":"flag-to-name","questionIds":["jpn","usa","fra","deu","gbr"]}`,
		string(got))
}

func TestPayload_CanonicalNilQuestions(t *testing.T) {
	got, err := Payload{StartTime: 1, NumberOfQuestions: 1, Region: "all", Format: FormatNameToFlag}.Canonical()
	require.NoError(t, err)
	assert.Contains(t, string(got), `"questionIds":[]`)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	signer, err := NewSigner([]byte("secret"))
	require.NoError(t, err)

	p := testPayload()
	token, err := Encode(p, signer)
	require.NoError(t, err)

	decoded, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, p, decoded.Payload)

	canonical, err := decoded.Payload.Canonical()
	require.NoError(t, err)
	assert.True(t, signer.Verify(canonical, decoded.Signature))
}

func TestEncode_WireShape(t *testing.T) {
	signer, err := NewSigner([]byte("secret"))
	require.NoError(t, err)

	token, err := Encode(testPayload(), signer)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(token)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Len(t, fields, 6)
	assert.Equal(t, "all", fields["region"])
	assert.Len(t, fields["signature"], 64)
}

func TestDecode_AcceptsUnpaddedBase64(t *testing.T) {
	signer, err := NewSigner([]byte("secret"))
	require.NoError(t, err)

	p := testPayload()
	p.Region = "Asia"
	token, err := Encode(p, signer)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(token)
	require.NoError(t, err)

	decoded, err := Decode(base64.RawStdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, p, decoded.Payload)
}

func TestDecode_Malformed(t *testing.T) {
	encode := func(s string) string {
		return base64.StdEncoding.EncodeToString([]byte(s))
	}

	tests := map[string]string{
		"empty":                 "",
		"not base64":            "invalid-token",
		"not json":              encode("hello"),
		"json array":            encode(`[1,2,3]`),
		"missing startTime":     encode(`{"numberOfQuestions":1,"region":"all","format":"flag-to-name","questionIds":["a"],"signature":"ab"}`),
		"zero startTime":        encode(`{"startTime":0,"numberOfQuestions":1,"region":"all","format":"flag-to-name","questionIds":["a"],"signature":"ab"}`),
		"string startTime":      encode(`{"startTime":"1700000000000","numberOfQuestions":1,"region":"all","format":"flag-to-name","questionIds":["a"],"signature":"ab"}`),
		"fractional startTime":  encode(`{"startTime":1.5,"numberOfQuestions":1,"region":"all","format":"flag-to-name","questionIds":["a"],"signature":"ab"}`),
		"zero questions":        encode(`{"startTime":1,"numberOfQuestions":0,"region":"all","format":"flag-to-name","questionIds":["a"],"signature":"ab"}`),
		"null region":           encode(`{"startTime":1,"numberOfQuestions":1,"region":null,"format":"flag-to-name","questionIds":["a"],"signature":"ab"}`),
		"empty region":          encode(`{"startTime":1,"numberOfQuestions":1,"region":"","format":"flag-to-name","questionIds":["a"],"signature":"ab"}`),
		"missing format":        encode(`{"startTime":1,"numberOfQuestions":1,"region":"all","questionIds":["a"],"signature":"ab"}`),
		"empty questionIds":     encode(`{"startTime":1,"numberOfQuestions":1,"region":"all","format":"flag-to-name","questionIds":[],"signature":"ab"}`),
		"questionIds of ints":   encode(`{"startTime":1,"numberOfQuestions":1,"region":"all","format":"flag-to-name","questionIds":[1],"signature":"ab"}`),
		"missing signature":     encode(`{"startTime":1,"numberOfQuestions":1,"region":"all","format":"flag-to-name","questionIds":["a"]}`),
		"numeric signature":     encode(`{"startTime":1,"numberOfQuestions":1,"region":"all","format":"flag-to-name","questionIds":["a"],"signature":42}`),
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(token)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestSigner(t *testing.T) {
	_, err := NewSigner(nil)
	assert.ErrorIs(t, err, ErrEmptySecret)

	a, err := NewSigner([]byte("secret-a"))
	require.NoError(t, err)
	b, err := NewSigner([]byte("secret-b"))
	require.NoError(t, err)

	data := []byte(`{"startTime":1}`)
	assert.Equal(t, a.Sign(data), a.Sign(data))
	assert.NotEqual(t, a.Sign(data), b.Sign(data))
	assert.True(t, a.Verify(data, a.Sign(data)))
	assert.False(t, a.Verify(data, b.Sign(data)))
	assert.False(t, a.Verify([]byte(`{"startTime":2}`), a.Sign(data)))
	assert.False(t, a.Verify(data, ""))
}
