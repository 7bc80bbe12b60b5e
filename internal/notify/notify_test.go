package notify

import (
	"context"
	"errors"
	"testing"
)

type recorder struct {
	n   int
	err error
}

func (r *recorder) Send(ctx context.Context, title, text string) error {
	r.n++
	return r.err
}

func TestMulti_SendsToAllAndJoinsErrors(t *testing.T) {
	ok := &recorder{}
	bad := &recorder{err: errors.New("down")}
	err := Multi{bad, nil, ok}.Send(context.Background(), "t", "x")
	if ok.n != 1 || bad.n != 1 {
		t.Fatalf("want every notifier called, got ok=%d bad=%d", ok.n, bad.n)
	}
	if !errors.Is(err, bad.err) {
		t.Fatalf("want joined error, got %v", err)
	}
}
