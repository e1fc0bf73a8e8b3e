package core

import (
	"github.com/rs/zerolog/log"
)

// Target is one addressed member of a fan-out.
type Target struct {
	SID     SessionID
	Session MemberSession
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Skipped int
	Dropped []Target
}

// Broadcast hands data to every target's transport without blocking.
// When from is non-empty that session is skipped.
func Broadcast(targets []Target, from SessionID, data Frame) PublishResult {
	res := PublishResult{}
	for _, t := range targets {
		if from != "" && t.SID == from {
			res.Skipped++
			continue
		}
		if t.Session == nil || t.Session.Signal() == nil {
			continue
		}
		if err := t.Session.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, t)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.broadcast").Str("from", string(from)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
