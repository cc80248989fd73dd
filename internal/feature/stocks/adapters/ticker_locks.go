package adapters

import "sync"

// tickerLocks hands out one mutex per ticker so that read-modify-write
// cycles on the same stock serialize in-process while unrelated tickers
// never contend. The database row lock covers other processes.
// Entries live only while some caller holds or waits for them.
type tickerLocks struct {
	mu    sync.Mutex
	locks map[string]*tickerLock
}

type tickerLock struct {
	mu   sync.Mutex
	refs int
}

func newTickerLocks() *tickerLocks {
	return &tickerLocks{locks: make(map[string]*tickerLock)}
}

// lock blocks until ticker is free and returns its unlock func.
func (l *tickerLocks) lock(ticker string) func() {
	e := l.acquire(ticker)
	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.release(ticker, e)
	}
}

// tryLock is lock without waiting; ok is false when ticker is held.
func (l *tickerLocks) tryLock(ticker string) (unlock func(), ok bool) {
	e := l.acquire(ticker)
	if !e.mu.TryLock() {
		l.release(ticker, e)
		return nil, false
	}
	return func() {
		e.mu.Unlock()
		l.release(ticker, e)
	}, true
}

// size は保持中のエントリ数を返します。
func (l *tickerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (l *tickerLocks) acquire(ticker string) *tickerLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[ticker]
	if !ok {
		e = &tickerLock{}
		l.locks[ticker] = e
	}
	e.refs++
	return e
}

func (l *tickerLocks) release(ticker string, e *tickerLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, ticker)
	}
}
