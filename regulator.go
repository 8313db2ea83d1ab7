package superdense

/*
Regulator lets a Pool consult a control component before accepting work.
The CircuitBreaker guarding a remote backend is the regulator used in
practice: while it is open, scheduling a transmission fails fast instead of
queueing work that cannot complete.
*/
type Regulator interface {
	// Observe hands the regulator the pool's current metrics.
	Observe(metrics *Metrics)

	// Limit returns true when new work should be refused.
	Limit() bool

	// Renormalize gives the regulator a chance to return to normal operation.
	Renormalize()
}

// QuotaRegulator is a Regulator whose Limit takes a unit of quota when it
// admits work. Release hands that unit back.
type QuotaRegulator interface {
	Regulator
	Release()
}
