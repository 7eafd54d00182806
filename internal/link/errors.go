package link

import "codeberg.org/mutker/rangefinder/internal/errors"

const (
	ErrResumeDiscoverable = errors.ErrorCode("link_resume_discoverable_failed")
	ErrUnknownEvent       = errors.ErrorCode("link_unknown_event")
)
