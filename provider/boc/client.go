package boc

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sig-0/bocfx/retrieval"
)

const (
	DefaultBaseURL   = "https://srh.bankofchina.com/search/whpj/"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36 Edg/133.0.0.0"

	captchaPath = "/CaptchaServlet.jsp"
	searchPath  = "/search_cn.jsp"

	// The portal query filters, fixed for the USD table
	currencyName = "美元"
	headScript   = "head_620.js"
	bottomScript = "bottom_591.js"
)

var (
	errMissingToken = errors.New("missing captcha token header")
	errEmptyImage   = errors.New("empty captcha image")
)

// Client is the BOC rate portal client.
// It serves both the captcha endpoint and the query endpoint
type Client struct {
	http *resty.Client
}

// NewClient creates a new instance of the BOC portal client
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("User-Agent", userAgent)
	client.SetTimeout(timeout)

	return &Client{
		http: client,
	}
}

// Challenge fetches a new captcha image, along with the session token bound to it
func (c *Client) Challenge(ctx context.Context) (*retrieval.Challenge, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(captchaPath)
	if err != nil {
		return nil, fmt.Errorf("unable to execute GET request: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("invalid status code received: %d", resp.StatusCode())
	}

	token := strings.TrimSpace(resp.Header().Get("token"))
	if token == "" {
		return nil, errMissingToken
	}

	image, err := decodeCaptchaImage(resp.Body())
	if err != nil {
		return nil, err
	}

	return &retrieval.Challenge{
		Token: token,
		Image: image,
	}, nil
}

// Submit posts the query form, and returns the raw response markup
func (c *Client) Submit(ctx context.Context, q *retrieval.Query) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(queryForm(q)).
		Post(searchPath)
	if err != nil {
		return nil, fmt.Errorf("unable to execute POST request: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("invalid status code received: %d", resp.StatusCode())
	}

	return resp.Body(), nil
}

// queryForm builds the query endpoint form.
// The captcha text is only sent with the first page, the continuation token only with follow-ups
func queryForm(q *retrieval.Query) map[string]string {
	form := map[string]string{
		"erectDate": q.Start.Format(time.DateOnly),
		"nothing":   q.End.Format(time.DateOnly),
		"pjname":    currencyName,
		"head":      headScript,
		"bottom":    bottomScript,
		"token":     q.CaptchaToken,
	}

	if q.First() {
		form["first"] = "1"
		form["captcha"] = q.CaptchaText

		return form
	}

	form["page"] = strconv.Itoa(q.Page)
	form["paramtk"] = q.ContinuationToken

	return form
}

// decodeCaptchaImage decodes the base64 captcha payload
func decodeCaptchaImage(body []byte) ([]byte, error) {
	payload := strings.Join(strings.Fields(string(body)), "")

	// Tolerate data URLs
	if strings.HasPrefix(payload, "data:") {
		if _, data, ok := strings.Cut(payload, ","); ok {
			payload = data
		}
	}

	if payload == "" {
		return nil, errEmptyImage
	}

	image, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("unable to decode captcha image: %w", err)
	}

	return image, nil
}
