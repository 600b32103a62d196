package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamQuestionsKey returns the cache key for an exam's question set in one language.
// An empty language caches the unfiltered set.
func (r *CacheKeyStruct) ExamQuestionsKey(examID, language string) string {
	if language == "" {
		language = "all"
	}
	return fmt.Sprintf("exam:%s:questions:%s", examID, language)
}

// ExamQuestionsPattern matches every cached question set of an exam.
func (r *CacheKeyStruct) ExamQuestionsPattern(examID string) string {
	return fmt.Sprintf("exam:%s:questions:*", examID)
}

// BundlerLockKey guards the package auto-bundler against concurrent runs.
func (r *CacheKeyStruct) BundlerLockKey() string {
	return "lock:package_bundler"
}

// RevokedTokenKey marks a logged-out JWT id until the token would expire.
func (r *CacheKeyStruct) RevokedTokenKey(jti string) string {
	return fmt.Sprintf("auth:revoked:%s", jti)
}

var CacheKey = NewCacheKeyStruct()
