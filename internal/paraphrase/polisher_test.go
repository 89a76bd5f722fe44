package paraphrase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/toradrage/mct-trener/internal/rules"
)

type slowParaphraser struct{}

func (slowParaphraser) Paraphrase(ctx context.Context, _ Request) (Response, error) {
	<-ctx.Done()
	return Response{}, ctx.Err()
}

func newPolisher(t *testing.T, p Paraphraser, budget time.Duration) *Polisher {
	return NewPolisher(p, nil, rules.MCTRulesV2(), budget, zaptest.NewLogger(t))
}

func TestPolishTimeoutKeepsRuleReply(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	pl := newPolisher(t, slowParaphraser{}, 20*time.Millisecond)
	req := sampleRequest()

	start := time.Now()
	res := pl.Polish(context.Background(), req)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("polish blocked for %v", elapsed)
	}
	if res.Source != SourceRules || res.Reply != req.RuleReply || res.Reason != "timeout" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestPolishAcceptsCleanParaphrase(t *testing.T) {
	pl := newPolisher(t, &fixedParaphraser{resp: Response{OK: true, Reply: "Det var rart, men jeg klarte å se litt på bekymringstrangen."}}, time.Second)
	res := pl.Polish(context.Background(), sampleRequest())
	if res.Source != SourceParaphrase {
		t.Fatalf("expected paraphrase, got %+v", res)
	}
	if res.Reply != "Det var rart, men jeg klarte å se litt på bekymringstrangen." {
		t.Errorf("reply %q", res.Reply)
	}
}

func TestPolishVetoKeepsRuleReply(t *testing.T) {
	cases := map[string]Paraphraser{
		"jargon":  &fixedParaphraser{resp: Response{OK: true, Reply: "Jeg merker at CAS går ned."}},
		"we":      &fixedParaphraser{resp: Response{OK: true, Reply: "Vi klarer det nok."}},
		"insight": &fixedParaphraser{resp: Response{OK: true, Reply: "Jeg innser at det er ufarlig."}},
		"error":   &fixedParaphraser{err: errors.New("boom")},
		"empty":   &fixedParaphraser{resp: Response{OK: true}},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			req := sampleRequest()
			res := newPolisher(t, p, time.Second).Polish(context.Background(), req)
			if res.Source != SourceRules || res.Reply != req.RuleReply {
				t.Fatalf("expected rule reply, got %+v", res)
			}
		})
	}
}

func TestPolishDisabled(t *testing.T) {
	req := sampleRequest()
	res := newPolisher(t, nil, 0).Polish(context.Background(), req)
	if res.Source != SourceRules || res.Reply != req.RuleReply {
		t.Fatalf("unexpected result %+v", res)
	}
}
