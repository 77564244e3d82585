package btscan

import (
	"context"
	"time"
)

type resolverFunc func(string) string

func (f resolverFunc) Resolve(mac string) string { return f(mac) }

var acme = resolverFunc(func(string) string { return "Acme" })

// scriptedScanner replays a fixed list of sightings, then either fails with
// err or waits for the scan window to close.
type scriptedScanner struct {
	sightings []Sighting
	err       error
}

func (s *scriptedScanner) Scan(ctx context.Context, out chan<- Sighting) error {
	for _, sg := range s.sightings {
		select {
		case out <- sg:
		case <-ctx.Done():
			return nil
		}
	}
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return nil
}

type scriptedInquirer struct {
	results []InquiryResult
	err     error
	got     time.Duration
}

func (s *scriptedInquirer) Inquiry(_ context.Context, d time.Duration) ([]InquiryResult, error) {
	s.got = d
	return s.results, s.err
}

func boolRef(b bool) *bool { return &b }
