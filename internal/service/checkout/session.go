package checkout

import (
	"sync"

	"github.com/mamadbah2/swiftcheckout/internal/domain/ledger"
)

// Session is the open bill of one register. Its mutex serialises every operation on the register.
type Session struct {
	mu       sync.Mutex
	id       string
	tx       *ledger.Transaction
	warnings []string
	// renderSeq identifies the receipt render whose result may still be attached
	renderSeq uint64
	// closed is set once the session has been evicted; holders must fetch a fresh one
	closed bool
}

func (s *Session) warn(msg string) {
	s.warnings = append(s.warnings, msg)
}

// idle reports whether the session holds nothing a fresh bill would not.
func (s *Session) idle(defaultCurrency string) bool {
	tx := s.tx
	return tx.State() == ledger.StateBuilding &&
		len(tx.Items()) == 0 &&
		len(s.warnings) == 0 &&
		tx.DiscountPercentage() == 0 &&
		tx.TaxPercentage() == 0 &&
		tx.CurrencyCode() == defaultCurrency
}

func (s *Session) drainWarnings() []string {
	out := s.warnings
	s.warnings = nil
	return out
}

// SessionManager hands out one session per register id.
type SessionManager struct {
	sessions        map[string]*Session
	defaultCurrency string
	mu              sync.RWMutex
}

// NewSessionManager creates a new session manager whose bills start in defaultCurrency.
func NewSessionManager(defaultCurrency string) *SessionManager {
	return &SessionManager{
		sessions:        make(map[string]*Session),
		defaultCurrency: defaultCurrency,
	}
}

// GetSession retrieves the session of a register, opening an empty bill on first use.
func (sm *SessionManager) GetSession(registerID string) *Session {
	sm.mu.RLock()
	sess, ok := sm.sessions[registerID]
	sm.mu.RUnlock()
	if ok {
		return sess
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sess, ok := sm.sessions[registerID]; ok {
		return sess
	}
	sess = &Session{id: registerID, tx: ledger.NewTransaction(sm.defaultCurrency)}
	sm.sessions[registerID] = sess
	return sess
}

// ClearSession removes the session of a register.
func (sm *SessionManager) ClearSession(registerID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, registerID)
}

// Len reports how many registers have an open session.
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}
