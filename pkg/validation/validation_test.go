package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reading struct {
	LotID       string   `json:"lotId" validate:"required_without=LotPublicID"`
	LotPublicID string   `json:"lotPublicId"`
	Temp        *float64 `json:"temp" validate:"required,gte=-50,lte=100"`
	Hum         *float64 `json:"hum" validate:"omitempty,gte=0,lte=100"`
	At          string   `json:"at" validate:"omitempty,isotime"`
}

type stampedReading struct {
	At string `json:"at" validate:"omitempty,rfc3339"`
}

func fields(vs []Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Field)
	}
	return out
}

func TestDecodeJSON(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		fields []string
		codes  []string
	}{
		{name: "valid", body: `{"lotPublicId":"DEMOLOT","temp":24,"hum":70}`},
		{name: "zero temperature is a reading", body: `{"lotId":"1","temp":0}`},
		{name: "missing selector", body: `{"temp":24}`, fields: []string{"lotId"}, codes: []string{"required_without"}},
		{name: "temp too hot", body: `{"lotId":"1","temp":150}`, fields: []string{"temp"}, codes: []string{"lte"}},
		{name: "temp missing", body: `{"lotId":"1"}`, fields: []string{"temp"}, codes: []string{"required"}},
		{name: "humidity negative", body: `{"lotId":"1","temp":3,"hum":-1}`, fields: []string{"hum"}, codes: []string{"gte"}},
		{name: "bad timestamp", body: `{"lotId":"1","temp":3,"at":"yesterday"}`, fields: []string{"at"}, codes: []string{"isotime"}},
		{name: "wrong type", body: `{"lotId":"1","temp":"hot"}`, fields: []string{"temp"}, codes: []string{"invalid_type"}},
		{name: "not json", body: `{`, fields: []string{"body"}, codes: []string{"invalid_json"}},
		{name: "empty", body: ``, fields: []string{"body"}, codes: []string{"required"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := DecodeJSON[reading]([]byte(tc.body))
			if len(tc.fields) == 0 {
				require.True(t, res.OK(), "unexpected violations: %+v", res.Violations)
				assert.NoError(t, res.Err())
				return
			}
			require.False(t, res.OK())
			assert.Equal(t, tc.fields, fields(res.Violations))
			for i, code := range tc.codes {
				assert.Equal(t, code, res.Violations[i].Code)
			}

			vErr, ok := AsErrors(res.Err())
			require.True(t, ok)
			assert.Len(t, vErr.Violations, len(tc.fields))
		})
	}
}

func TestRequiredWithoutNamesSibling(t *testing.T) {
	res := DecodeJSON[reading]([]byte(`{"temp":1}`))
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "either lotId or lotPublicId is required", res.Violations[0].Message)
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("2024-03-01T10:15:30.250+07:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 3, 15, 30, 250_000_000, time.UTC), got)

	got, err = ParseTime("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseTime("03/01/2024")
	assert.Error(t, err)
}

func TestParseTimestampRejectsBareDates(t *testing.T) {
	got, err := ParseTimestamp("2024-03-01T10:15:30Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 15, 30, 0, time.UTC), got)

	_, err = ParseTimestamp("2024-03-01")
	assert.Error(t, err)

	res := DecodeJSON[stampedReading]([]byte(`{"at":"2024-03-01"}`))
	require.False(t, res.OK())
	assert.Equal(t, []string{"at"}, fields(res.Violations))
	assert.Equal(t, "rfc3339", res.Violations[0].Code)
	assert.Equal(t, "at must be an ISO-8601 datetime", res.Violations[0].Message)

	assert.True(t, DecodeJSON[stampedReading]([]byte(`{"at":"2024-03-01T00:00:00+07:00"}`)).OK())
}
