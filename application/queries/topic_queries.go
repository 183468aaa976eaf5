// Package queries defines the read operations of the learning loop and
// their result shapes. Results are plain DTOs ready for JSON encoding.
package queries

import "errors"

// GetTopicQuery fetches one topic with its themes
type GetTopicQuery struct {
	UserID  string
	TopicID string
}

// Validate validates the GetTopicQuery
func (q GetTopicQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.TopicID == "" {
		return errors.New("topic ID is required")
	}
	return nil
}

// ListTopicsQuery lists a user's topics
type ListTopicsQuery struct {
	UserID string
}

// Validate validates the ListTopicsQuery
func (q ListTopicsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// ExportTopicQuery builds the depth-complete snapshot of a topic
type ExportTopicQuery struct {
	UserID  string
	TopicID string
}

// Validate validates the ExportTopicQuery
func (q ExportTopicQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.TopicID == "" {
		return errors.New("topic ID is required")
	}
	return nil
}

// ThemeResult is one theme inside a topic result
type ThemeResult struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// TopicResult is the read shape of a topic
type TopicResult struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	Subject   string        `json:"subject"`
	Themes    []ThemeResult `json:"themes"`
	CreatedAt string        `json:"createdAt"`
	UpdatedAt string        `json:"updatedAt"`
}

// ListTopicsResult wraps the topic list
type ListTopicsResult struct {
	Topics []TopicResult `json:"topics"`
	Total  int           `json:"total"`
}
