package tiktok

import "errors"

var (
	ErrRateLimited     = errors.New("tiktok: rate limited")
	ErrNotFound        = errors.New("tiktok: not found")
	ErrEmptyPage       = errors.New("tiktok: empty page")
	ErrSigningFailed   = errors.New("tiktok: url signing failed")
	ErrBrowserNotReady = errors.New("tiktok: browser not initialized")
	ErrInvalidResponse = errors.New("tiktok: invalid response")
)
