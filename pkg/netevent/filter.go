package netevent

import (
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/ohler55/ojg/jp"
)

// Content-type buckets recognized by Filter.ContentTypes. Anything that
// matches none of the known buckets falls into ContentTypeOther.
const (
	ContentTypeJSON   = "json"
	ContentTypeXML    = "xml"
	ContentTypeHTML   = "html"
	ContentTypeText   = "text"
	ContentTypeImage  = "image"
	ContentTypeBinary = "binary"
	ContentTypeOther  = "other"
)

// Filter defines criteria for selecting events. All present criteria are
// ANDed; zero values mean "no constraint". A Filter is a transient query
// spec, never persisted.
type Filter struct {
	// Methods is an allow-list of HTTP methods (case-insensitive).
	Methods []string

	// Outcome selects one outcome bucket: success, error or pending.
	Outcome string

	// Query is a case-insensitive substring matched against url, method,
	// path, host and error.
	Query string

	// Host filters by exact host (case-insensitive).
	Host string

	// ContentTypes is an allow-list of content-type buckets.
	ContentTypes []string

	// Expr is an optional boolean expression evaluated against each event
	// (fields: method, url, host, path, status, error, outcome,
	// durationMs, requestSize, responseSize). An expression that does not
	// compile is ignored rather than failing the query.
	Expr string

	// BodyPath is an optional JSONPath; the event matches when the path
	// yields at least one value in the decoded request or response body.
	BodyPath string
}

// FilterEvents returns the events matching every present criterion of the
// filter. The input is never mutated; a nil filter matches everything.
func FilterEvents(events []*Event, f *Filter) []*Event {
	if f == nil {
		out := make([]*Event, len(events))
		copy(out, events)
		return out
	}

	var prog *vm.Program
	if f.Expr != "" {
		prog, _ = CompileExpr(f.Expr)
	}
	var bodyPath jp.Expr
	if f.BodyPath != "" {
		bodyPath, _ = jp.ParseString(f.BodyPath)
	}

	out := make([]*Event, 0, len(events))
	for _, e := range events {
		if e == nil {
			continue
		}
		if !matchesMethods(e, f.Methods) {
			continue
		}
		if f.Outcome != "" && e.Outcome() != f.Outcome {
			continue
		}
		if f.Query != "" && !matchesQuery(e, f.Query) {
			continue
		}
		if f.Host != "" && !strings.EqualFold(e.Host, f.Host) {
			continue
		}
		if len(f.ContentTypes) > 0 && !matchesContentTypes(e, f.ContentTypes) {
			continue
		}
		if prog != nil && !evalExpr(prog, e) {
			continue
		}
		if bodyPath != nil && !matchesBodyPath(e, bodyPath) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// CompileExpr compiles a filter expression against the event environment.
// Useful for validating user input before running a query.
func CompileExpr(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.Env(exprEnv(&Event{})), expr.AsBool())
}

func exprEnv(e *Event) map[string]any {
	return map[string]any{
		"method":       e.Method,
		"url":          e.URL,
		"host":         e.Host,
		"path":         e.Path,
		"status":       e.Status,
		"error":        e.Error,
		"outcome":      e.Outcome(),
		"durationMs":   e.DurationMs,
		"requestSize":  e.RequestSize,
		"responseSize": e.ResponseSize,
	}
}

func evalExpr(prog *vm.Program, e *Event) bool {
	out, err := expr.Run(prog, exprEnv(e))
	if err != nil {
		return false
	}
	b, ok := out.(bool)
	return ok && b
}

func matchesMethods(e *Event, methods []string) bool {
	if len(methods) == 0 {
		return true
	}
	for _, m := range methods {
		if strings.EqualFold(e.Method, m) {
			return true
		}
	}
	return false
}

func matchesQuery(e *Event, query string) bool {
	q := strings.ToLower(query)
	for _, field := range []string{e.URL, e.Method, e.Path, e.Host, e.Error} {
		if field != "" && strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func matchesContentTypes(e *Event, buckets []string) bool {
	bucket := ClassifyContentType(e.ContentType())
	for _, b := range buckets {
		if strings.EqualFold(b, bucket) {
			return true
		}
	}
	return false
}

func matchesBodyPath(e *Event, path jp.Expr) bool {
	for _, body := range []any{e.ResponseBody, e.RequestBody} {
		if body == nil {
			continue
		}
		if len(path.Get(body)) > 0 {
			return true
		}
	}
	return false
}

// ClassifyContentType maps a raw content-type header value to one of the
// known buckets. Missing and unrecognized types classify as "other".
func ClassifyContentType(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case ct == "":
		return ContentTypeOther
	case strings.Contains(ct, "json"):
		return ContentTypeJSON
	case strings.Contains(ct, "xml"):
		return ContentTypeXML
	case strings.Contains(ct, "html"):
		return ContentTypeHTML
	case strings.HasPrefix(ct, "text/"), strings.Contains(ct, "urlencoded"):
		return ContentTypeText
	case strings.HasPrefix(ct, "image/"):
		return ContentTypeImage
	case strings.Contains(ct, "octet-stream"), strings.Contains(ct, "protobuf"),
		strings.Contains(ct, "grpc"), strings.HasPrefix(ct, "application/zip"),
		strings.HasPrefix(ct, "application/pdf"):
		return ContentTypeBinary
	default:
		return ContentTypeOther
	}
}
