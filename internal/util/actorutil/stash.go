package actorutil

import (
	"github.com/asynkron/protoactor-go/actor"
)

// Stash holds messages an actor cannot handle in its current behavior.
// Unstashed messages are re-sent to self with their original sender.
type Stash struct {
	elems []stashElem
}

type stashElem struct {
	msg    any
	sender *actor.PID
}

func (s *Stash) Stash(ctx actor.Context, msg any) {
	s.elems = append(s.elems, stashElem{
		msg:    msg,
		sender: ctx.Sender(),
	})
}

func (s *Stash) Len() int {
	return len(s.elems)
}

func (s *Stash) UnstashAll(ctx actor.Context) {
	pending := s.elems
	s.elems = nil
	for _, elem := range pending {
		resend(ctx, elem)
	}
}

func (s *Stash) UnstashOldest(ctx actor.Context) {
	if len(s.elems) == 0 {
		return
	}
	first := s.elems[0]
	s.elems = s.elems[1:]
	resend(ctx, first)
}

// Clear drops every stashed message, e.g. before a restart.
func (s *Stash) Clear() {
	s.elems = nil
}

func resend(ctx actor.Context, elem stashElem) {
	if elem.sender != nil {
		ctx.RequestWithCustomSender(ctx.Self(), elem.msg, elem.sender)
	} else {
		ctx.Send(ctx.Self(), elem.msg)
	}
}
