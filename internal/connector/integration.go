package connector

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Header is one outbound request header. Masked values are never logged.
type Header struct {
	Name   string
	Value  string
	Masked bool
}

// Request is a fully built outbound call to a connector.
type Request struct {
	Method  string
	URL     string
	Headers []Header
	Body    []byte
}

// Response is what came back from the connector.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// IsSuccess checks if the response indicates success (2xx status code)
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Sender performs outbound connector calls.
type Sender interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// Integration is one connector's implementation of one flow.
//
// BuildRequest returns a nil request when no call is needed. ErrorResponse classifies
// 4xx replies and ServerErrorResponse classifies 5xx replies.
type Integration[Req, Resp any] interface {
	Headers(rd *RouterData[Req, Resp]) ([]Header, error)
	URL(rd *RouterData[Req, Resp]) (string, error)
	RequestBody(rd *RouterData[Req, Resp]) ([]byte, error)
	BuildRequest(rd *RouterData[Req, Resp]) (*Request, error)
	HandleResponse(rd *RouterData[Req, Resp], res *Response) (*Resp, error)
	ErrorResponse(res *Response) (*ErrorResponse, error)
	ServerErrorResponse(res *Response) (*ErrorResponse, error)
}

// BuildDefault assembles a request from an integration's Headers, URL and RequestBody.
func BuildDefault[Req, Resp any](integ Integration[Req, Resp], rd *RouterData[Req, Resp], method string) (*Request, error) {
	headers, err := integ.Headers(rd)
	if err != nil {
		return nil, err
	}
	url, err := integ.URL(rd)
	if err != nil {
		return nil, err
	}
	var body []byte
	if method != http.MethodGet {
		if body, err = integ.RequestBody(rd); err != nil {
			return nil, err
		}
	}
	return &Request{Method: method, URL: url, Headers: headers, Body: body}, nil
}

// Execute runs one flow: build, send, classify the reply by status code.
// On a 2xx reply rd.Response is set, and HandleResponse may also set rd.Error for a
// decline reported inside a successful reply. On a 4xx or 5xx reply rd.Error is set.
// Transport failures are returned as ErrProcessingStepFailed.
func Execute[Req, Resp any](ctx context.Context, s Sender, integ Integration[Req, Resp], rd *RouterData[Req, Resp]) error {
	req, err := integ.BuildRequest(rd)
	if err != nil {
		return err
	}
	if req == nil {
		log.Debug().
			Str("connector", rd.Connector).
			Str("flow", string(rd.Flow)).
			Msg("connector call skipped")
		return nil
	}

	res, err := s.Send(ctx, req)
	if err != nil {
		return &Error{Code: CodeProcessingStepFailed, Message: "connector call failed", ConnectorErr: rd.Connector, Err: err}
	}

	switch {
	case res.IsSuccess():
		out, err := integ.HandleResponse(rd, res)
		if err != nil {
			return err
		}
		rd.Response = out
	case res.StatusCode >= 500:
		er, err := integ.ServerErrorResponse(res)
		if err != nil {
			return err
		}
		rd.Error = er
	default:
		er, err := integ.ErrorResponse(res)
		if err != nil {
			return err
		}
		rd.Error = er
	}
	return nil
}

// Unsupported is the explicit no-op implementation of a flow.
type Unsupported[Req, Resp any] struct {
	Flow Flow
}

func (u Unsupported[Req, Resp]) err() error { return NotImplemented(string(u.Flow)) }

func (u Unsupported[Req, Resp]) Headers(*RouterData[Req, Resp]) ([]Header, error) {
	return nil, u.err()
}

func (u Unsupported[Req, Resp]) URL(*RouterData[Req, Resp]) (string, error) { return "", u.err() }

func (u Unsupported[Req, Resp]) RequestBody(*RouterData[Req, Resp]) ([]byte, error) {
	return nil, u.err()
}

func (u Unsupported[Req, Resp]) BuildRequest(*RouterData[Req, Resp]) (*Request, error) {
	return nil, u.err()
}

func (u Unsupported[Req, Resp]) HandleResponse(*RouterData[Req, Resp], *Response) (*Resp, error) {
	return nil, u.err()
}

func (u Unsupported[Req, Resp]) ErrorResponse(*Response) (*ErrorResponse, error) {
	return nil, u.err()
}

func (u Unsupported[Req, Resp]) ServerErrorResponse(*Response) (*ErrorResponse, error) {
	return nil, u.err()
}
