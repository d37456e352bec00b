package retrieval

import "errors"

var (
	ErrRequestFailed    = errors.New("request failed")
	ErrCaptchaIncorrect = errors.New("captcha incorrect")
	ErrCaptchaExpired   = errors.New("captcha expired")

	ErrCaptchaAttemptsExhausted = errors.New("captcha attempts exhausted")
	ErrPageAttemptsExhausted    = errors.New("page attempts exhausted")

	errInvalidRange  = errors.New("invalid date range")
	errInvalidPolicy = errors.New("invalid retry policy")
)
