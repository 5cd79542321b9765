package users

import "strings"

// Gender is the display vocabulary for a user's gender.
type Gender string

const (
	GenderUnspecified Gender = "unspecified"
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
)

// DefaultPersonality is shown when a user has not taken the personality test.
const DefaultPersonality = "INTP"

// ParseGender maps the API vocabulary (MALE/FEMALE) onto Gender. Display
// values and labels are accepted too; anything else is unspecified.
func ParseGender(code string) Gender {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "MALE", "М":
		return GenderMale
	case "FEMALE", "Ж":
		return GenderFemale
	default:
		return GenderUnspecified
	}
}

// Label is the short form shown next to the age on a profile card.
func (g Gender) Label() string {
	switch g {
	case GenderMale:
		return "М"
	case GenderFemale:
		return "Ж"
	default:
		return ""
	}
}

// Record is the core user record served by GET /users/{id}.
type Record struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Surname     string `json:"surname,omitempty"`
	Gender      string `json:"gender,omitempty"`      // MALE, FEMALE or empty
	BirthDate   string `json:"birth_date,omitempty"`  // ISO date or timestamp
	JungResult  string `json:"jung_result,omitempty"` // personality-type code, e.g. INTJ
	AboutMyself string `json:"about_myself,omitempty"`
}

// NewProfile is the body of POST /users.
type NewProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
}

// Photo is one entry of GET /users/{id}/photos.
type Photo struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// RawTag is one entry of GET /users/{id}/tags as the API sends it.
type RawTag struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Value  string `json:"value"`
}

// Tag is the client view of a tag; the API's value field becomes Name.
type Tag struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// Profile is the merged read view of a user: core record, photos and tags.
type Profile struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Surname     string  `json:"surname,omitempty"`
	Gender      Gender  `json:"gender"`
	BirthDate   string  `json:"birth_date,omitempty"` // DD.MM.YYYY
	Age         string  `json:"age"`                  // whole years, empty when unknown
	Personality string  `json:"personality"`
	About       string  `json:"about_myself"`
	Photos      []Photo `json:"photos"`
	Tags        []Tag   `json:"tags"`
}

// DefaultProfile is displayed when neither the server nor the local cache
// can provide one.
func DefaultProfile() Profile {
	return Profile{
		Gender:      GenderUnspecified,
		Personality: DefaultPersonality,
		Photos:      []Photo{},
		Tags:        []Tag{},
	}
}

// ConvertTags renames the API's value field to Name.
func ConvertTags(raw []RawTag) []Tag {
	tags := make([]Tag, 0, len(raw))
	for _, t := range raw {
		tags = append(tags, Tag{ID: t.ID, UserID: t.UserID, Name: t.Value})
	}
	return tags
}

// Merge builds the read view from the three API resources. Nil photo or tag
// slices become empty ones so the view always serialises as arrays.
func Merge(rec Record, photos []Photo, tags []RawTag, now Clock) Profile {
	if photos == nil {
		photos = []Photo{}
	}
	birth := FormatBirthDate(rec.BirthDate)
	personality := rec.JungResult
	if personality == "" {
		personality = DefaultPersonality
	}
	return Profile{
		ID:          rec.ID,
		Name:        rec.Name,
		Surname:     rec.Surname,
		Gender:      ParseGender(rec.Gender),
		BirthDate:   birth,
		Age:         Age(birth, now()),
		Personality: personality,
		About:       rec.AboutMyself,
		Photos:      photos,
		Tags:        ConvertTags(tags),
	}
}
