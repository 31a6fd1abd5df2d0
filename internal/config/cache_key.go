package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateSessionKey returns the cache key for a candidate's login session.
func (r *CacheKeyStruct) CandidateSessionKey(candidateID int) string {
	return fmt.Sprintf("login:%d", candidateID)
}

// PrepSessionStateKey returns the cache key for a prep session's state snapshot.
func (r *CacheKeyStruct) PrepSessionStateKey(sessionID string) string {
	return fmt.Sprintf("prep:%s:state", sessionID)
}

// PrepSessionAnswersKey returns the cache key for a session's autosaved answers.
func (r *CacheKeyStruct) PrepSessionAnswersKey(sessionID string) string {
	return fmt.Sprintf("prep:%s:answers", sessionID)
}

// CandidateActiveSessionKey returns the cache key for a candidate's currently
// running prep session (at most one per candidate).
func (r *CacheKeyStruct) CandidateActiveSessionKey(candidateID int) string {
	return fmt.Sprintf("candidate:%d:active_session", candidateID)
}

// CandidateHistoryKey returns the cache key for a candidate's attempt history
// list. Invalidated after every successful attempt insert.
func (r *CacheKeyStruct) CandidateHistoryKey(candidateID int) string {
	return fmt.Sprintf("candidate:%d:history", candidateID)
}

var CacheKey = NewCacheKeyStruct()
