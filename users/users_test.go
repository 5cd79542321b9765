package users_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/go-swipe-client/users"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
}

func TestAge(t *testing.T) {
	now := fixedNow()

	tests := []struct {
		name  string
		birth string
		want  string
	}{
		{"birthday passed this year", "01.03.2000", "25"},
		{"birthday later this year", "20.11.2000", "24"},
		{"birthday today", "15.06.2000", "25"},
		{"day before birthday", "16.06.2000", "24"},
		{"leap day", "29.02.2004", "21"},
		{"empty", "", ""},
		{"iso instead of display", "2000-03-01", ""},
		{"single digit day", "1.03.2000", ""},
		{"two digit year", "01.03.00", ""},
		{"impossible date", "31.02.2000", ""},
		{"garbage", "yesterday", ""},
		{"future", "01.01.2030", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, users.Age(tt.birth, now))
		})
	}
}

func TestFormatBirthDate(t *testing.T) {
	require.Equal(t, "07.09.1999", users.FormatBirthDate("1999-09-07"))
	require.Equal(t, "07.09.1999", users.FormatBirthDate("1999-09-07T00:00:00Z"))
	require.Equal(t, "07.09.1999", users.FormatBirthDate("1999-09-07T10:11:12"))
	require.Equal(t, "07.09.1999", users.FormatBirthDate("07.09.1999"))
	require.Empty(t, users.FormatBirthDate(""))
	require.Empty(t, users.FormatBirthDate("not a date"))
}

func TestParseGender(t *testing.T) {
	require.Equal(t, users.GenderMale, users.ParseGender("MALE"))
	require.Equal(t, users.GenderFemale, users.ParseGender("female"))
	require.Equal(t, users.GenderUnspecified, users.ParseGender(""))
	require.Equal(t, users.GenderUnspecified, users.ParseGender("OTHER"))

	require.Equal(t, "М", users.GenderMale.Label())
	require.Equal(t, "Ж", users.GenderFemale.Label())
	require.Empty(t, users.GenderUnspecified.Label())
}

func TestMerge(t *testing.T) {
	rec := users.Record{
		ID:         "u-1",
		Name:       "Anna",
		Gender:     "FEMALE",
		BirthDate:  "2000-03-01",
		JungResult: "",
	}
	photos := []users.Photo{{ID: "p1", URL: "https://img/1"}}
	tags := []users.RawTag{{ID: "t1", UserID: "u-1", Value: "hiking"}}

	p := users.Merge(rec, photos, tags, fixedNow)

	require.Equal(t, "u-1", p.ID)
	require.Equal(t, users.GenderFemale, p.Gender)
	require.Equal(t, "01.03.2000", p.BirthDate)
	require.Equal(t, "25", p.Age)
	require.Equal(t, users.DefaultPersonality, p.Personality)
	require.Equal(t, photos, p.Photos)
	require.Equal(t, []users.Tag{{ID: "t1", UserID: "u-1", Name: "hiking"}}, p.Tags)

	t.Run("missing sub-resources serialise as empty arrays", func(t *testing.T) {
		p := users.Merge(rec, nil, nil, fixedNow)
		raw, err := json.Marshal(p)
		require.NoError(t, err)
		require.Contains(t, string(raw), `"photos":[]`)
		require.Contains(t, string(raw), `"tags":[]`)
	})

	t.Run("tag value becomes name", func(t *testing.T) {
		var raw []users.RawTag
		require.NoError(t, json.Unmarshal([]byte(`[{"id":"t9","user_id":"u-1","value":"jazz"}]`), &raw))
		out, err := json.Marshal(users.ConvertTags(raw))
		require.NoError(t, err)
		require.JSONEq(t, `[{"id":"t9","user_id":"u-1","name":"jazz"}]`, string(out))
	})
}

func TestDefaultProfile(t *testing.T) {
	p := users.DefaultProfile()
	require.Equal(t, users.GenderUnspecified, p.Gender)
	require.Equal(t, "INTP", p.Personality)
	require.Empty(t, p.Age)
	require.NotNil(t, p.Photos)
	require.NotNil(t, p.Tags)
}
