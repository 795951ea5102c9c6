// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"container/heap"
	"sync"

	"github.com/luxfi/log"

	"github.com/luxfi/xcm/types"
)

// Inbox releases envelopes from each source in nonce order, exactly once.
// Envelopes arriving ahead of their turn are buffered; envelopes at or
// below the last released nonce are dropped.
type Inbox struct {
	log  log.Logger
	lock sync.Mutex
	// released is the last nonce handed out per source
	released map[types.ChainID]uint64
	pending  map[types.ChainID]*entryHeap
}

func NewInbox(logger log.Logger) *Inbox {
	return &Inbox{
		log:      logger,
		released: make(map[types.ChainID]uint64),
		pending:  make(map[types.ChainID]*entryHeap),
	}
}

// Admit stages env and returns every envelope from its source that is now
// ready, in nonce order.
func (i *Inbox) Admit(env *Envelope) []*Envelope {
	return i.stage(env.Source, inboxEntry{nonce: env.Nonce, env: env})
}

// Skip marks nonce from source as never arriving, so that later envelopes
// are not held behind it. It returns the envelopes that are now ready.
func (i *Inbox) Skip(source types.ChainID, nonce uint64) []*Envelope {
	return i.stage(source, inboxEntry{nonce: nonce})
}

func (i *Inbox) stage(source types.ChainID, entry inboxEntry) []*Envelope {
	i.lock.Lock()
	defer i.lock.Unlock()

	released := i.released[source]
	if entry.nonce <= released {
		i.log.Debug("dropping duplicate envelope",
			log.Stringer("source", source),
			log.Uint64("nonce", entry.nonce),
			log.Uint64("released", released),
		)
		return nil
	}

	h, ok := i.pending[source]
	if !ok {
		h = &entryHeap{}
		heap.Init(h)
		i.pending[source] = h
	}
	if h.contains(entry.nonce) {
		return nil
	}
	heap.Push(h, entry)

	var ready []*Envelope
	for h.Len() > 0 && h.Peek().nonce == released+1 {
		next := heap.Pop(h).(inboxEntry)
		released = next.nonce
		if next.env == nil {
			i.log.Debug("skipping lost envelope",
				log.Stringer("source", source),
				log.Uint64("nonce", next.nonce),
			)
			continue
		}
		ready = append(ready, next.env)
	}
	i.released[source] = released
	if h.Len() == 0 {
		delete(i.pending, source)
	}
	return ready
}

// Released returns the last nonce released for source
func (i *Inbox) Released(source types.ChainID) uint64 {
	i.lock.Lock()
	defer i.lock.Unlock()

	return i.released[source]
}

// Pending returns the number of buffered envelopes from source
func (i *Inbox) Pending(source types.ChainID) int {
	i.lock.Lock()
	defer i.lock.Unlock()

	if h, ok := i.pending[source]; ok {
		return h.Len()
	}
	return 0
}

// inboxEntry is a staged nonce. A nil env marks a skipped nonce.
type inboxEntry struct {
	nonce uint64
	env   *Envelope
}

// entryHeap is a min-heap of staged entries ordered by nonce
type entryHeap []inboxEntry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return h[i].nonce < h[j].nonce }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(inboxEntry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = inboxEntry{}
	*h = old[:n-1]
	return x
}

func (h entryHeap) Peek() inboxEntry {
	return h[0]
}

func (h entryHeap) contains(nonce uint64) bool {
	for _, entry := range h {
		if entry.nonce == nonce {
			return true
		}
	}
	return false
}
