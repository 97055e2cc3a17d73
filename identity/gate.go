// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package identity

import (
	"sync"
	"time"

	"github.com/luxfi/conclave/coreerrors"
	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
)

// record is the gate's internal bookkeeping for one actor_id: its current
// lease (if any), its current epoch, and the signing key valid under that
// epoch.
type record struct {
	lease *Lease
	epoch uint32
	key   *bls.SecretKey
}

// Gate is the Agent Identity Gate (spec §4.2). The only shared mutable
// state it protects is the lease table itself — generalized from
// validators.manager's keyed-map-of-state idiom (one map entry per
// identity, one mutex for the whole table, since lease churn is low-rate
// compared to event append traffic).
type Gate struct {
	mu      sync.Mutex
	records map[ids.NodeID]*record
}

// NewGate returns an empty gate. Call RegisterKey for every actor_id before
// its first Acquire.
func NewGate() *Gate {
	return &Gate{records: make(map[ids.NodeID]*record)}
}

// RegisterKey installs the BLS secret key an actor_id signs with. Epoch 0
// has no lease; the first successful Acquire moves it to epoch 1.
func (g *Gate) RegisterKey(actorID ids.NodeID, sk *bls.SecretKey) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.recordFor(actorID)
	r.key = sk
}

func (g *Gate) recordFor(actorID ids.NodeID) *record {
	r, ok := g.records[actorID]
	if !ok {
		r = &record{}
		g.records[actorID] = r
	}
	return r
}

// Acquire implements spec §4.2's acquire(actor_id, ttl) -> Lease | Conflict.
// A lease is granted only if no live lease currently exists; an expired
// lease is reclaimed silently (a missed heartbeat already means the prior
// instance is presumed gone) and the epoch is incremented, fencing out any
// write still in flight under the old epoch at C1.
func (g *Gate) Acquire(actorID ids.NodeID, ttl time.Duration, now time.Time) (Lease, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := g.recordFor(actorID)
	if r.lease != nil && !r.lease.Expired(now) {
		return Lease{}, &coreerrors.IdentityConflict{ActorID: actorID.String()}
	}

	r.epoch++
	lease := Lease{ActorID: actorID, Epoch: r.epoch, ExpiresAt: now.Add(ttl)}
	r.lease = &lease
	return lease, nil
}

// Heartbeat implements spec §4.2's renewal: it must land strictly before
// expires_at - safety_margin or the caller should treat the lease as
// already lost (the gate itself does not reject a late heartbeat outright —
// it is the next Acquire, from any instance, that reclaims an expired
// lease — but a heartbeat presented for a stale epoch is always rejected,
// since the lease it would renew is no longer the live one).
func (g *Gate) Heartbeat(actorID ids.NodeID, epoch uint32, ttl time.Duration, now time.Time) (Lease, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := g.recordFor(actorID)
	if r.lease == nil || r.lease.Epoch != epoch || r.lease.Expired(now) {
		return Lease{}, &coreerrors.IdentityConflict{ActorID: actorID.String()}
	}
	r.lease.ExpiresAt = now.Add(ttl)
	return *r.lease, nil
}

// Release implements spec §4.2's explicit release: it bumps the epoch so
// that any write still in flight under the released epoch is rejected by
// C1's epoch-fencing, even if it arrives before the lease would otherwise
// have expired.
func (g *Gate) Release(actorID ids.NodeID, epoch uint32) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := g.recordFor(actorID)
	if r.lease == nil || r.lease.Epoch != epoch {
		return &coreerrors.IdentityConflict{ActorID: actorID.String()}
	}
	r.lease = nil
	r.epoch++
	return nil
}

// Revoke is the authorized force-revocation path tied to the override
// ritual (spec §4.2, §4.5): it clears any live lease regardless of who
// holds it and bumps the epoch, returning the new epoch so the caller can
// embed it in the OverrideInvoked event that authorizes the revocation.
func (g *Gate) Revoke(actorID ids.NodeID) uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := g.recordFor(actorID)
	r.lease = nil
	r.epoch++
	return r.epoch
}

// CurrentEpoch reports the epoch a live lease for actorID would need to
// have been acquired under. Callers that submit events on an actor's
// behalf compare this against the event's declared epoch before calling
// event.Store.Append, since Append itself has no notion of leases.
func (g *Gate) CurrentEpoch(actorID ids.NodeID) (epoch uint32, held bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := g.recordFor(actorID)
	if r.lease == nil {
		return r.epoch, false, nil
	}
	return r.epoch, true, nil
}

// SecretKey implements event.SigningKeys: it returns actorID's registered
// key only if epoch matches the actor's current epoch, so a stale-epoch
// caller (a partitioned instance whose lease was already reclaimed) can
// never obtain a usable signature — the fencing the spec requires happens
// here, not just at read time.
func (g *Gate) SecretKey(actorID ids.NodeID, epoch uint32) (*bls.SecretKey, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := g.recordFor(actorID)
	if r.key == nil {
		return nil, &coreerrors.IdentityConflict{ActorID: actorID.String()}
	}
	if r.lease == nil || r.lease.Epoch != epoch {
		return nil, &coreerrors.IdentityConflict{ActorID: actorID.String()}
	}
	return r.key, nil
}

// PublicKey implements event.PublicKeyResolver.
func (g *Gate) PublicKey(actorID ids.NodeID, _ uint32) (*bls.PublicKey, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := g.recordFor(actorID)
	if r.key == nil {
		return nil, &coreerrors.IdentityConflict{ActorID: actorID.String()}
	}
	return bls.PublicKeyFromSecretKey(r.key), nil
}
