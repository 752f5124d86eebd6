package main

import "time"

// The tick loop is the only timed operation a session runs. It exists only
// while the aggregate production rate is positive: ensureTickerLocked starts
// it when production comes online, and the loop retires itself once the rate
// drops back to zero (prestige reset) or the session closes. No drift
// compensation; a late tick pays out one tick.

func (s *Session) ensureTickerLocked() {
	if s.closed || s.tickStop != nil {
		return
	}
	effect := CalculatePrestigeEffect(s.prestige)
	if TotalCps(s.buildings, effect.ProductionMultiplier) <= 0 {
		return
	}
	stop := make(chan struct{})
	s.tickStop = stop
	go s.runTickLoop(stop)
}

func (s *Session) stopTickerLocked() {
	if s.tickStop != nil {
		close(s.tickStop)
		s.tickStop = nil
	}
}

func (s *Session) runTickLoop(stop chan struct{}) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !s.tick(stop) {
				return
			}
		}
	}
}

// tick accrues one interval of production. Returns false when the loop
// should retire. stop identifies the calling loop so a retiring loop never
// drops the handle of a newer one.
func (s *Session) tick(stop chan struct{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	effect := CalculatePrestigeEffect(s.prestige)
	cps := TotalCps(s.buildings, effect.ProductionMultiplier)
	if cps <= 0 {
		// Nothing produces anymore; drop the handle so a later purchase
		// starts a fresh loop.
		if s.tickStop == stop {
			s.tickStop = nil
		}
		return false
	}

	s.coins += cps
	s.lifetimeCoins += cps
	return true
}
