package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// TopicID is a value object representing a unique topic identifier
// Value objects are immutable and have no identity beyond their value
type TopicID struct {
	value string
}

// NewTopicID creates a new random TopicID
func NewTopicID() TopicID {
	return TopicID{value: uuid.New().String()}
}

// NewTopicIDFromString creates a TopicID from an existing string
func NewTopicIDFromString(id string) (TopicID, error) {
	if id == "" {
		return TopicID{}, errors.New("topic ID cannot be empty")
	}
	if !isValidUUID(id) {
		return TopicID{}, errors.New("topic ID must be a valid UUID")
	}
	return TopicID{value: id}, nil
}

// String returns the string representation of the TopicID
func (id TopicID) String() string {
	return id.value
}

// Equals checks if two TopicIDs are equal
func (id TopicID) Equals(other TopicID) bool {
	return id.value == other.value
}

// IsZero checks if the TopicID is the zero value
func (id TopicID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id TopicID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *TopicID) UnmarshalJSON(data []byte) error {
	s, err := unquoteID(data, "TopicID")
	if err != nil {
		return err
	}
	id.value = s
	return nil
}

// ThemeID is a value object representing a unique theme identifier
type ThemeID struct {
	value string
}

// NewThemeID creates a new random ThemeID
func NewThemeID() ThemeID {
	return ThemeID{value: uuid.New().String()}
}

// NewThemeIDFromString creates a ThemeID from an existing string
func NewThemeIDFromString(id string) (ThemeID, error) {
	if id == "" {
		return ThemeID{}, errors.New("theme ID cannot be empty")
	}
	if !isValidUUID(id) {
		return ThemeID{}, errors.New("theme ID must be a valid UUID")
	}
	return ThemeID{value: id}, nil
}

// String returns the string representation of the ThemeID
func (id ThemeID) String() string {
	return id.value
}

// Equals checks if two ThemeIDs are equal
func (id ThemeID) Equals(other ThemeID) bool {
	return id.value == other.value
}

// IsZero checks if the ThemeID is the zero value
func (id ThemeID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id ThemeID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *ThemeID) UnmarshalJSON(data []byte) error {
	s, err := unquoteID(data, "ThemeID")
	if err != nil {
		return err
	}
	id.value = s
	return nil
}

// AttemptID is a value object representing a unique attempt identifier
type AttemptID struct {
	value string
}

// NewAttemptID creates a new random AttemptID
func NewAttemptID() AttemptID {
	return AttemptID{value: uuid.New().String()}
}

// NewAttemptIDFromString creates an AttemptID from an existing string
func NewAttemptIDFromString(id string) (AttemptID, error) {
	if id == "" {
		return AttemptID{}, errors.New("attempt ID cannot be empty")
	}
	if !isValidUUID(id) {
		return AttemptID{}, errors.New("attempt ID must be a valid UUID")
	}
	return AttemptID{value: id}, nil
}

// String returns the string representation of the AttemptID
func (id AttemptID) String() string {
	return id.value
}

// Equals checks if two AttemptIDs are equal
func (id AttemptID) Equals(other AttemptID) bool {
	return id.value == other.value
}

// IsZero checks if the AttemptID is the zero value
func (id AttemptID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id AttemptID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *AttemptID) UnmarshalJSON(data []byte) error {
	s, err := unquoteID(data, "AttemptID")
	if err != nil {
		return err
	}
	id.value = s
	return nil
}

// FeedbackID identifies a feedback payload. The identifier is assigned by
// the model that produced the feedback, so it is an opaque non-empty string
// rather than a UUID.
type FeedbackID struct {
	value string
}

// NewFeedbackIDFromString creates a FeedbackID from a model-assigned string
func NewFeedbackIDFromString(id string) (FeedbackID, error) {
	if id == "" {
		return FeedbackID{}, errors.New("feedback ID cannot be empty")
	}
	return FeedbackID{value: id}, nil
}

// String returns the string representation of the FeedbackID
func (id FeedbackID) String() string {
	return id.value
}

// Equals checks if two FeedbackIDs are equal
func (id FeedbackID) Equals(other FeedbackID) bool {
	return id.value == other.value
}

// IsZero checks if the FeedbackID is the zero value
func (id FeedbackID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id FeedbackID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *FeedbackID) UnmarshalJSON(data []byte) error {
	s, err := unquoteID(data, "FeedbackID")
	if err != nil {
		return err
	}
	id.value = s
	return nil
}

// ExerciseID identifies a generated follow-up exercise. Like FeedbackID it
// is assigned by the model and treated as an opaque non-empty string.
type ExerciseID struct {
	value string
}

// NewExerciseIDFromString creates an ExerciseID from a model-assigned string
func NewExerciseIDFromString(id string) (ExerciseID, error) {
	if id == "" {
		return ExerciseID{}, errors.New("exercise ID cannot be empty")
	}
	return ExerciseID{value: id}, nil
}

// String returns the string representation of the ExerciseID
func (id ExerciseID) String() string {
	return id.value
}

// Equals checks if two ExerciseIDs are equal
func (id ExerciseID) Equals(other ExerciseID) bool {
	return id.value == other.value
}

// IsZero checks if the ExerciseID is the zero value
func (id ExerciseID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id ExerciseID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *ExerciseID) UnmarshalJSON(data []byte) error {
	s, err := unquoteID(data, "ExerciseID")
	if err != nil {
		return err
	}
	id.value = s
	return nil
}

// unquoteID strips the surrounding quotes from a JSON string token
func unquoteID(data []byte, typeName string) (string, error) {
	if string(data) == "null" {
		return "", nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return "", errors.New(typeName + " must be a string")
	}
	return string(data[1 : len(data)-1]), nil
}

// isValidUUID validates if a string is a valid UUID
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
