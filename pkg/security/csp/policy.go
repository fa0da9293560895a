// Package csp builds Content-Security-Policy header values.
package csp

import "strings"

// Policy is an ordered set of CSP directives. It is not safe for concurrent
// mutation; build it once at startup.
type Policy struct {
	order      []string
	directives map[string][]string
	reportOnly bool
}

// New returns an empty policy.
func New() *Policy {
	return &Policy{directives: make(map[string][]string)}
}

// Directive sets name to sources, replacing any earlier value. Directives are
// rendered in the order they were first set.
func (p *Policy) Directive(name string, sources ...string) *Policy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return p
	}
	if _, ok := p.directives[name]; !ok {
		p.order = append(p.order, name)
	}
	p.directives[name] = sources
	return p
}

// ReportOnly switches the header to the report-only variant.
func (p *Policy) ReportOnly(enabled bool) *Policy {
	p.reportOnly = enabled
	return p
}

// Build renders the header value. Directives without sources are skipped
// except for valueless ones such as upgrade-insecure-requests.
func (p *Policy) Build() string {
	parts := make([]string, 0, len(p.order))
	for _, name := range p.order {
		sources := p.directives[name]
		if len(sources) == 0 {
			if valueless[name] {
				parts = append(parts, name)
			}
			continue
		}
		parts = append(parts, name+" "+strings.Join(sources, " "))
	}
	return strings.Join(parts, "; ")
}

var valueless = map[string]bool{
	"upgrade-insecure-requests": true,
	"block-all-mixed-content":   true,
}

// HeaderName returns the header the policy is sent under.
func (p *Policy) HeaderName() string {
	if p.reportOnly {
		return "Content-Security-Policy-Report-Only"
	}
	return "Content-Security-Policy"
}

// APIPolicy is the policy for JSON responses: nothing may load, frame or
// submit anywhere.
func APIPolicy() *Policy {
	return New().
		Directive("default-src", "'none'").
		Directive("frame-ancestors", "'none'").
		Directive("base-uri", "'none'").
		Directive("form-action", "'none'")
}
