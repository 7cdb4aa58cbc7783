// Package ocr talks to the handwriting recognition service and judges recognized text
// against the expected answer.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultServiceMessage is reported when the service fails without an error message.
const DefaultServiceMessage = "Đã xảy ra lỗi từ dịch vụ xử lý ảnh."

// Result is the normalized answer of the recognition service.
type Result struct {
	Text      string `json:"ocr_text"`
	ModelUsed string `json:"model_used,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ServiceError is an answer from the service that reports a failure, as opposed to a
// transport failure reaching it.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("recognition service error (status %d): %s", e.StatusCode, e.Message)
}

type Recognizer interface {
	Recognize(ctx context.Context, filename string, image []byte) (*Result, error)
}

type Client struct {
	http *resty.Client
}

// NewClient targets baseURL + "/predict". A zero timeout means no client-side timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &Client{http: c}
}

// predictResponse covers every response shape the service and its proxies have used.
type predictResponse struct {
	Success       *bool   `json:"success"`
	Message       string  `json:"message"`
	Error         string  `json:"error"`
	ModelUsed     string  `json:"model_used"`
	OCRText       *string `json:"ocr_text"`
	Text          *string `json:"text"`
	PredictedText *string `json:"predicted_text"`
	Data          *struct {
		Message   string `json:"message"`
		ModelUsed string `json:"model_used"`
		OCRText   string `json:"ocr_text"`
	} `json:"data"`
}

func firstNonEmpty(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

// Recognize uploads image as the multipart field "image".
func (c *Client) Recognize(ctx context.Context, filename string, image []byte) (*Result, error) {
	if filename == "" {
		filename = "drawing.png"
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("image", filename, bytes.NewReader(image)).
		Post("/predict")
	if err != nil {
		return nil, fmt.Errorf("call recognition service: %w", err)
	}

	var body predictResponse
	decodeErr := json.Unmarshal(resp.Body(), &body)

	if !resp.IsSuccess() || body.Error != "" || (body.Success != nil && !*body.Success) {
		msg := body.Error
		if msg == "" && decodeErr == nil && body.Message != "" {
			msg = body.Message
		}
		if msg == "" {
			msg = DefaultServiceMessage
		}
		return nil, &ServiceError{StatusCode: resp.StatusCode(), Message: msg}
	}
	if decodeErr != nil {
		return nil, &ServiceError{StatusCode: resp.StatusCode(), Message: "invalid response from recognition service"}
	}

	out := &Result{ModelUsed: body.ModelUsed, Message: body.Message}
	var nested *string
	if body.Data != nil {
		nested = &body.Data.OCRText
		if out.ModelUsed == "" {
			out.ModelUsed = body.Data.ModelUsed
		}
	}
	out.Text = firstNonEmpty(body.OCRText, nested, body.Text, body.PredictedText)
	return out, nil
}
