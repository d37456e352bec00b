package retrieval

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// captchaArtifact is the on-disk copy of the current captcha image.
// It lives for the duration of a single retrieval
type captchaArtifact struct {
	path string
}

// newCaptchaArtifact reserves a new captcha image file in the given dir
func newCaptchaArtifact(dir string) (*captchaArtifact, error) {
	f, err := os.CreateTemp(dir, "captcha-*.png")
	if err != nil {
		return nil, fmt.Errorf("unable to create captcha file: %w", err)
	}

	if err = f.Close(); err != nil {
		_ = os.Remove(f.Name())

		return nil, fmt.Errorf("unable to close captcha file: %w", err)
	}

	return &captchaArtifact{
		path: f.Name(),
	}, nil
}

// write replaces the stored image
func (a *captchaArtifact) write(image []byte) error {
	return os.WriteFile(a.path, image, 0o600)
}

// close removes the image file
func (a *captchaArtifact) close() error {
	if err := os.Remove(a.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}
