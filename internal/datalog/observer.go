package datalog

import (
	"sync"
	"time"
)

// DataPoint is the payload delivered to observers for one logged row.
type DataPoint struct {
	SessionID string
	// Sequence is the 1-based row number within the session.
	Sequence uint64
	At       time.Time
	// Header is the frozen header of the row's session, shared between
	// data points; observers must not modify it.
	Header []string
	// Values maps each column name, excluding Date and Time, to its value.
	Values map[string]string
}

// Observer receives every logged data point. Callbacks run on the sampler
// goroutine, in subscription order, and delay the next sample while they
// run.
type Observer interface {
	OnDataPoint(dp DataPoint)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(dp DataPoint)

func (f ObserverFunc) OnDataPoint(dp DataPoint) { f(dp) }

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	mu     sync.Mutex
	active bool
	obs    Observer
	owner  *dispatcher
}

// Unsubscribe detaches the observer. No callback starts after it returns;
// it must not be called from the observer's own callback.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
	s.owner.remove(s)
}

func (s *Subscription) deliver(dp DataPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.obs.OnDataPoint(dp)
	}
}

type dispatcher struct {
	mu   sync.Mutex
	subs []*Subscription
}

func (d *dispatcher) add(o Observer) *Subscription {
	s := &Subscription{active: true, obs: o, owner: d}
	d.mu.Lock()
	d.subs = append(d.subs, s)
	d.mu.Unlock()
	return s
}

func (d *dispatcher) remove(s *Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, sub := range d.subs {
		if sub == s {
			d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
			return
		}
	}
}

func (d *dispatcher) dispatch(dp DataPoint) {
	d.mu.Lock()
	subs := append([]*Subscription(nil), d.subs...)
	d.mu.Unlock()

	for _, s := range subs {
		s.deliver(dp)
	}
}

// valuesByColumn pairs header with row, dropping Date and Time.
func valuesByColumn(header, row []string) map[string]string {
	values := make(map[string]string, len(header))
	for i := 2; i < len(header) && i < len(row); i++ {
		values[header[i]] = row[i]
	}
	return values
}
