// Package behavior perturbs drafted outbound messages with persona quirks.
//
// Apply is a pure function of its inputs plus the supplied random source, so
// a fixed seed reproduces the same output byte for byte.
package behavior

import (
	"math/rand"
	"strings"
	"time"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
)

// FollowUp is an extra outbound action a quirk asked the scheduler to add:
// a corrective message amending what the persona just sent.
type FollowUp struct {
	Intent model.Intent
	Delay  time.Duration
}

// Result is the injector's output: the final text and an optional scheduled
// follow-up.
type Result struct {
	Body     string
	FollowUp *FollowUp
}

// typoTable mirrors the classic slips real clients make.
var typoTable = [][2]string{
	{"the", "teh"},
	{"and", "adn"},
	{"family", "familly"},
	{"would", "woudl"},
	{"Chile", "Chlie"},
}

// interjections by trait, prepended under the emotional framing quirk.
var interjections = map[string]string{
	"enthusiastic":     "Oh wow, ",
	"adventure-seeking": "Exciting! ",
	"cautious":          "I do have to ask, ",
	"needs reassurance": "I hope this is not a silly question, but ",
	"skeptical":         "To be honest, ",
}

// Apply transforms a drafted outbound body according to the persona's
// quirks. Each quirk activation is an independent Bernoulli draw on rng.
func Apply(p *model.Persona, draft string, session *model.Session, rng *rand.Rand) Result {
	res := Result{Body: draft}

	if q, ok := p.Quirk(model.QuirkEmotionalFraming); ok && rng.Float64() < q.Probability {
		res.Body = frame(p, res.Body)
	}

	if q, ok := p.Quirk(model.QuirkTypos); ok && rng.Float64() < q.Probability {
		res.Body = injectTypo(res.Body, q.Rate, rng)
	}

	if q, ok := p.Quirk(model.QuirkCorrectiveFollowUp); ok && rng.Float64() < q.Probability {
		if detail, found := forgottenDetail(p, session); found {
			res.FollowUp = &FollowUp{
				Intent: model.Intent{
					Kind:   model.IntentForgottenDetail,
					Detail: detail,
				},
				Delay: followUpDelay(q, rng),
			}
		}
	}

	return res
}

// frame prepends a trait-conditioned interjection when the body does not
// already open with one.
func frame(p *model.Persona, body string) string {
	for _, trait := range p.Traits {
		if phrase, ok := interjections[trait]; ok {
			if strings.HasPrefix(body, phrase) {
				return body
			}
			return phrase + lowerFirst(body)
		}
	}
	return body
}

// injectTypo replaces the first occurrence of a table word, each word an
// independent draw at the configured rate.
func injectTypo(body string, rate float64, rng *rand.Rand) string {
	if rate <= 0 {
		rate = 0.3
	}
	for _, pair := range typoTable {
		if !strings.Contains(body, pair[0]) {
			continue
		}
		if rng.Float64() < rate {
			return strings.Replace(body, pair[0], pair[1], 1)
		}
	}
	return body
}

// forgottenDetail picks the next requirement the persona has not yet
// mentioned. Sessions track the pending list so a detail is only forgotten
// once.
func forgottenDetail(p *model.Persona, session *model.Session) (string, bool) {
	if session == nil || len(session.PendingDetails) == 0 {
		return "", false
	}
	return session.PendingDetails[0], true
}

func followUpDelay(q model.Quirk, rng *rand.Rand) time.Duration {
	min, max := q.MinDelay, q.MaxDelay
	if min <= 0 {
		min = 2 * time.Minute
	}
	if max <= min {
		max = min + 8*time.Minute
	}
	return min + time.Duration(rng.Int63n(int64(max-min)))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
