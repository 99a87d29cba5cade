package monitoring

import (
	"errors"
	"testing"
	"time"
)

type recorder struct {
	errs    []error
	tags    []map[string]string
	flushed bool
}

func (r *recorder) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recorder) Recover()            {}
func (r *recorder) Flush(time.Duration) { r.flushed = true }

func TestInitAndCapture(t *testing.T) {
	prev := Current()
	t.Cleanup(func() { current = prev })

	rec := &recorder{}
	Init(rec)
	Init(nil)
	if Current() != rec {
		t.Fatalf("nil monitor replaced the current one")
	}

	CaptureException(nil, nil)
	CaptureException(errors.New("boom"), map[string]string{"portfolio_id": "p1"})
	Flush(time.Second)

	if len(rec.errs) != 1 {
		t.Fatalf("expected 1 captured error, got %d", len(rec.errs))
	}
	if rec.tags[0]["portfolio_id"] != "p1" {
		t.Fatalf("tags not forwarded: %v", rec.tags[0])
	}
	if !rec.flushed {
		t.Fatalf("flush not forwarded")
	}
}
