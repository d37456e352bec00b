package retrieval

import "context"

// CaptchaSource issues captcha challenges
type CaptchaSource interface {
	// Challenge fetches a new captcha image, and the token bound to it
	Challenge(context.Context) (*Challenge, error)
}

// Recognizer guesses the text on a captcha image.
// There is no correctness guarantee, the portal is the judge
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Portal submits queries to the query endpoint
type Portal interface {
	// Submit sends the query and returns the raw response markup
	Submit(context.Context, *Query) ([]byte, error)
}

// Parser extracts a page from the query endpoint markup.
// Captcha rejections are reported as ErrCaptchaIncorrect / ErrCaptchaExpired
type Parser interface {
	Parse(markup []byte) (*Page, error)
}
