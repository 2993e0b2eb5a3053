package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/louisbranch/parley/internal/platform/timeouts"
	apperrors "github.com/louisbranch/parley/internal/services/web/platform/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// User-facing messages the gateway produces itself.
const (
	MessageServerError  = "Server error."
	MessageSignupFailed = "Error signing up"
	MessageVerified     = "Account verified successfully!"
	MessageInvalidOTP   = "Invalid OTP. Please try again."
	MessageLoginFailed  = "Login failed."
	MessageOTPResent    = "OTP resent successfully!"
	MessageResendFailed = "Failed to resend OTP. Please try again."
)

const (
	maxResponseBodyBytes  = 1 << 20
	tracerName            = "github.com/louisbranch/parley/internal/services/web/gateway"
	contentTypeJSON       = "application/json"
	operationAttributeKey = "parley.auth.operation"
)

// Backend endpoint paths. The trailing slash is part of the contract.
const (
	PathSignup    = "/signup/"
	PathVerifyOTP = "/verify-otp/"
	PathResendOTP = "/resend-otp/"
	PathLogin     = "/login/"
)

// SignupRequest is the signup payload.
type SignupRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Reply is a completed backend answer.
type Reply struct {
	Message string
	// Token is only set by Login.
	Token string
	// StatusCode is the backend HTTP status.
	StatusCode int
}

// OK reports whether the backend answered with a 2xx status.
func (r Reply) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Gateway is the auth backend surface used by the flow controller.
type Gateway interface {
	Signup(ctx context.Context, req SignupRequest) (Reply, error)
	VerifyOTP(ctx context.Context, email, otp string) (Reply, error)
	// ResendOTP returns a Reply for any completed response, including non-2xx.
	ResendOTP(ctx context.Context, email string) (Reply, error)
	Login(ctx context.Context, email, password string) (Reply, error)
}

// HTTPGateway calls the auth backend over JSON HTTP.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewHTTPGateway creates a gateway rooted at baseURL. A nil client uses
// http.DefaultClient; a non-positive timeout uses the default backend timeout.
func NewHTTPGateway(baseURL string, client *http.Client, timeout time.Duration) (*HTTPGateway, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q must be http or https", baseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("backend url %q has no host", baseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = timeouts.BackendRequest
	}
	return &HTTPGateway{baseURL: baseURL, client: client, timeout: timeout}, nil
}

// responseBody is the union of every backend response shape.
type responseBody struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Signup registers a new account.
func (g *HTTPGateway) Signup(ctx context.Context, req SignupRequest) (Reply, error) {
	status, body, err := g.post(ctx, "signup", PathSignup, req)
	if err != nil {
		return Reply{}, apperrors.Wrap(apperrors.KindUnavailable, MessageServerError, err)
	}
	if !isSuccess(status) {
		return Reply{}, rejected(status, body.Message, MessageSignupFailed)
	}
	return Reply{Message: strings.TrimSpace(body.Message), StatusCode: status}, nil
}

// VerifyOTP confirms the code mailed to email. The success message is fixed
// regardless of the response body.
func (g *HTTPGateway) VerifyOTP(ctx context.Context, email, otp string) (Reply, error) {
	payload := struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}{Email: email, OTP: otp}
	status, body, err := g.post(ctx, "verify_otp", PathVerifyOTP, payload)
	if err != nil {
		return Reply{}, apperrors.Wrap(apperrors.KindUnavailable, MessageServerError, err)
	}
	if !isSuccess(status) {
		return Reply{}, rejected(status, body.Message, MessageInvalidOTP)
	}
	return Reply{Message: MessageVerified, StatusCode: status}, nil
}

// ResendOTP asks the backend to send a fresh code. The backend message is
// returned for any completed response; only transport failures error.
func (g *HTTPGateway) ResendOTP(ctx context.Context, email string) (Reply, error) {
	payload := struct {
		Email string `json:"email"`
	}{Email: email}
	status, body, err := g.post(ctx, "resend_otp", PathResendOTP, payload)
	if err != nil {
		return Reply{}, apperrors.Wrap(apperrors.KindUnavailable, MessageResendFailed, err)
	}
	message := strings.TrimSpace(body.Message)
	if message == "" {
		message = MessageOTPResent
	}
	return Reply{Message: message, StatusCode: status}, nil
}

// Login exchanges credentials for a session token.
func (g *HTTPGateway) Login(ctx context.Context, email, password string) (Reply, error) {
	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}
	status, body, err := g.post(ctx, "login", PathLogin, payload)
	if err != nil {
		return Reply{}, apperrors.Wrap(apperrors.KindUnavailable, MessageServerError, err)
	}
	if !isSuccess(status) {
		return Reply{}, rejected(status, body.Message, MessageLoginFailed)
	}
	if strings.TrimSpace(body.Token) == "" {
		return Reply{}, apperrors.Wrap(apperrors.KindUnavailable, MessageServerError, fmt.Errorf("login response has no token"))
	}
	return Reply{Message: strings.TrimSpace(body.Message), Token: body.Token, StatusCode: status}, nil
}

// post sends one JSON request. A non-nil error means no usable response was
// obtained; otherwise status and the decoded body are returned for any code.
func (g *HTTPGateway) post(ctx context.Context, operation, path string, payload any) (int, responseBody, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "auth."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(operationAttributeKey, operation),
			attribute.String("http.request.method", http.MethodPost),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	status, body, err := g.do(ctx, path, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return 0, responseBody{}, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", status))
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
	return status, body, nil
}

func (g *HTTPGateway) do(ctx context.Context, path string, payload any) (int, responseBody, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	encoded, err := json.Marshal(payload)
	if err != nil {
		return 0, responseBody{}, fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return 0, responseBody{}, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, responseBody{}, fmt.Errorf("%s request: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return 0, responseBody{}, fmt.Errorf("read %s response: %w", path, err)
	}
	var body responseBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return 0, responseBody{}, fmt.Errorf("decode %s response (status %d): %w", path, resp.StatusCode, err)
	}
	return resp.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func rejected(status int, message, fallback string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		message = fallback
	}
	return apperrors.Wrap(apperrors.KindRejected, message, fmt.Errorf("backend returned status %d", status))
}

// Unavailable fails every call as a transport failure. It stands in when no
// backend is configured.
type Unavailable struct{}

func (Unavailable) Signup(context.Context, SignupRequest) (Reply, error) {
	return Reply{}, unavailable(MessageServerError)
}

func (Unavailable) VerifyOTP(context.Context, string, string) (Reply, error) {
	return Reply{}, unavailable(MessageServerError)
}

func (Unavailable) ResendOTP(context.Context, string) (Reply, error) {
	return Reply{}, unavailable(MessageResendFailed)
}

func (Unavailable) Login(context.Context, string, string) (Reply, error) {
	return Reply{}, unavailable(MessageServerError)
}

func unavailable(message string) error {
	return apperrors.Wrap(apperrors.KindUnavailable, message, fmt.Errorf("auth backend is not configured"))
}

var (
	_ Gateway = (*HTTPGateway)(nil)
	_ Gateway = Unavailable{}
)
