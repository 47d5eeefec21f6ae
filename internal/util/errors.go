package util

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailRegistered   = errors.New("该邮箱已被注册")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrCourseNotFound    = errors.New("course not found")
	ErrLessonNotFound    = errors.New("lesson not found")
	ErrQuizNotFound      = errors.New("quiz not found")
	ErrAttemptNotFound   = errors.New("attempt not found")
	ErrEnrollmentClosed  = errors.New("enrollment window closed or course full")
	ErrAlreadyEnrolled   = errors.New("already enrolled in this course")

	// competition engine policy violations, surfaced synchronously, never retried
	ErrQuizNotPublished         = errors.New("quiz not published")
	ErrAttemptLimitExceeded     = errors.New("attempt limit exceeded")
	ErrAttemptAlreadyInProgress = errors.New("an attempt is already in progress")
	ErrAttemptAlreadyFinalized  = errors.New("attempt already finalized")
	ErrInvalidSubmission        = errors.New("invalid submission")
	ErrStudentNotEnrolled       = errors.New("student not actively enrolled in this course")

	// infrastructure exhaustion, fatal for the operation
	ErrStorageUnavailable = errors.New("storage unavailable")
)
