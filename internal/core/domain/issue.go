package domain

import (
	"errors"
	"time"
)

// IssueStatus is the lifecycle state of a civic issue.
type IssueStatus string

const (
	IssuePending    IssueStatus = "pending"
	IssueInProgress IssueStatus = "in_progress"
	IssueResolved   IssueStatus = "resolved"
)

// Priority ranks an issue for municipal triage.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var issueTransitions = map[IssueStatus][]IssueStatus{
	IssuePending:    {IssueInProgress, IssueResolved},
	IssueInProgress: {IssueResolved},
}

var (
	ErrIssueNotFound      = errors.New("issue not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrDepartmentNotFound = errors.New("department not found")
)

// Valid reports whether s is a known status.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssuePending, IssueInProgress, IssueResolved:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s IssueStatus) CanTransitionTo(next IssueStatus) bool {
	for _, allowed := range issueTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// CivicIssue is a problem reported by a citizen.
type CivicIssue struct {
	ID           string      `json:"id"            bson:"_id"`
	Type         string      `json:"type"          bson:"type"`
	Location     string      `json:"location"      bson:"location"`
	Description  string      `json:"description"   bson:"description,omitempty"`
	Latitude     *float64    `json:"latitude"      bson:"latitude,omitempty"`
	Longitude    *float64    `json:"longitude"     bson:"longitude,omitempty"`
	Status       IssueStatus `json:"status"        bson:"status"`
	Priority     Priority    `json:"priority"      bson:"priority"`
	ReportedBy   string      `json:"reported_by"   bson:"reported_by,omitempty"`
	AssignedTo   string      `json:"assigned_to"   bson:"assigned_to,omitempty"`
	DateReported time.Time   `json:"date_reported" bson:"date_reported"`
	LastUpdate   time.Time   `json:"last_update"   bson:"last_update"`
}
