package service

import "errors"

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrNoTextExtracted     = errors.New("could not read file content")
	ErrKnowledgeBaseLocked = errors.New("the knowledge base unlocks once at least one topic is complete")
	ErrTopicsIncomplete    = errors.New("every topic must be complete before the final summary can be generated")
	ErrSummaryNotFound     = errors.New("no summary has been generated for this session yet")
)
