// Package s3test provides an in-process fake S3 endpoint for tests. It sits
// behind the SDK's HTTP client so that the real SDK request signing and error
// deserialization run against it.
package s3test

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Endpoint is the base URL the fake answers on.
const Endpoint = "http://s3.fake.local"

// Object is a stored object.
type Object struct {
	Body        []byte
	ContentType string
}

// Fault overrides the response for one object key.
type Fault struct {
	Status    int    // HTTP status to return
	Code      string // S3 error code written in the XML body; empty means no body
	RequestID string
	HostID    string
	Err       error // transport error; takes precedence over Status
}

// Request records one call seen by the fake.
type Request struct {
	Method string
	Bucket string
	Key    string
}

// Server is an http.RoundTripper emulating a subset of S3:
// HeadBucket, PutObject and GetObject.
type Server struct {
	mu       sync.Mutex
	buckets  map[string]bool
	objects  map[string]Object
	faults   map[string]Fault
	requests []Request
}

// New creates a fake with the given buckets.
func New(buckets ...string) *Server {
	s := &Server{
		buckets: make(map[string]bool),
		objects: make(map[string]Object),
		faults:  make(map[string]Fault),
	}
	for _, b := range buckets {
		s.buckets[b] = true
	}
	return s
}

// Options points an S3 client at the fake, with retries and optional checksums disabled.
func (s *Server) Options() func(*s3.Options) {
	return func(o *s3.Options) {
		o.HTTPClient = &http.Client{
			Transport: s,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
		o.BaseEndpoint = aws.String(Endpoint)
		o.UsePathStyle = true
		o.Retryer = aws.NopRetryer{}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	}
}

// SetFault makes every request for key return f.
func (s *Server) SetFault(key string, f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[key] = f
}

// Put stores an object directly.
func (s *Server) Put(bucket, key string, obj Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = obj
}

// Object returns a stored object.
func (s *Server) Object(bucket, key string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[bucket+"/"+key]
	return obj, ok
}

// Requests returns the calls seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RoundTrip implements http.RoundTripper.
func (s *Server) RoundTrip(req *http.Request) (*http.Response, error) {
	bucket, key, _ := strings.Cut(strings.TrimPrefix(req.URL.Path, "/"), "/")

	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		_ = req.Body.Close()
		if dec, ok := decodeChunked(b); ok {
			b = dec
		}
		body = b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{Method: req.Method, Bucket: bucket, Key: key})

	if f, ok := s.faults[key]; ok && key != "" {
		if f.Err != nil {
			return nil, f.Err
		}
		return errorResponse(req, f), nil
	}

	if !s.buckets[bucket] {
		return errorResponse(req, Fault{Status: http.StatusNotFound, Code: "NoSuchBucket"}), nil
	}

	switch {
	case req.Method == http.MethodHead && key == "":
		return response(req, http.StatusOK, nil, nil), nil
	case req.Method == http.MethodPut && key != "":
		s.objects[bucket+"/"+key] = Object{Body: body, ContentType: req.Header.Get("Content-Type")}
		return response(req, http.StatusOK, nil, http.Header{"Etag": {`"etag"`}}), nil
	case req.Method == http.MethodGet && key != "":
		obj, ok := s.objects[bucket+"/"+key]
		if !ok {
			return errorResponse(req, Fault{Status: http.StatusNotFound, Code: "NoSuchKey"}), nil
		}
		return response(req, http.StatusOK, obj.Body, http.Header{
			"Content-Type":   {obj.ContentType},
			"Content-Length": {fmt.Sprintf("%d", len(obj.Body))},
		}), nil
	}
	return response(req, http.StatusNotImplemented, nil, nil), nil
}

func response(req *http.Request, status int, body []byte, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode:    status,
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

func errorResponse(req *http.Request, f Fault) *http.Response {
	header := http.Header{}
	if f.RequestID != "" {
		header.Set("X-Amz-Request-Id", f.RequestID)
	}
	if f.HostID != "" {
		header.Set("X-Amz-Id-2", f.HostID)
	}
	if f.Code == "" || req.Method == http.MethodHead {
		return response(req, f.Status, nil, header)
	}
	header.Set("Content-Type", "application/xml")
	body := fmt.Sprintf(
		`<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message>`+
			`<RequestId>%s</RequestId><HostId>%s</HostId></Error>`,
		f.Code, http.StatusText(f.Status), f.RequestID, f.HostID,
	)
	return response(req, f.Status, []byte(body), header)
}

// decodeChunked unwraps a single-chunk aws-chunked payload: <hex>\r\n<body>\r\n0\r\n...
func decodeChunked(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 {
		return nil, false
	}
	var size int64
	if _, err := fmt.Sscanf(parts[0], "%x", &size); err != nil {
		return nil, false
	}
	if int64(len(parts[1])) != size || !strings.HasPrefix(parts[2], "0") {
		return nil, false
	}
	return []byte(parts[1]), true
}
