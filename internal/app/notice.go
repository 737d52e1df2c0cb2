package app

import (
	"time"

	"go.uber.org/zap"
)

// NoticeKind classifies a transient user message
type NoticeKind int

const (
	NoticeRejection NoticeKind = iota // a refused precondition
	NoticeError                       // a failed persistence call
	NoticeInfo
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeRejection:
		return "rejection"
	case NoticeError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a short-lived, auto-dismissing message
type Notice struct {
	Kind    NoticeKind
	Message string
	Expires time.Time
}

// Notices returns the unexpired notices, oldest first
func (s *Session) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return append([]Notice(nil), s.notices...)
}

func (s *Session) noticeLocked(kind NoticeKind, message string) {
	s.pruneLocked()
	s.notices = append(s.notices, Notice{
		Kind:    kind,
		Message: message,
		Expires: s.now().Add(s.cfg.Notices.TTL),
	})
}

// rejectLocked reports a refused action to the user
func (s *Session) rejectLocked(message string, err error) {
	s.logger.Debug("action rejected", zap.String("reason", message), zap.Error(err))
	s.noticeLocked(NoticeRejection, message)
}

// failLocked reports a failed persistence call to the user
func (s *Session) failLocked(message string, err error, fields ...zap.Field) {
	s.logger.Warn(message, append(fields, zap.Error(err))...)
	s.noticeLocked(NoticeError, message)
}

func (s *Session) pruneLocked() {
	now := s.now()
	kept := s.notices[:0]
	for _, n := range s.notices {
		if now.Before(n.Expires) {
			kept = append(kept, n)
		}
	}
	s.notices = kept
}
