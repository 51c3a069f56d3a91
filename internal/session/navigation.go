package session

import "sync"

// PendingRedirect records the navigation requested during one request so the
// HTTP layer can answer with a redirect once the handler is done.
type PendingRedirect struct {
	mu     sync.Mutex
	target string
}

// Navigate implements Navigator. The latest request wins.
func (p *PendingRedirect) Navigate(route string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.target = route
}

// Target returns the requested route, if any.
func (p *PendingRedirect) Target() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target, p.target != ""
}
