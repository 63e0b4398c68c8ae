// =================================
// File: internal/ledger/registry.go
// =================================
package ledger

import (
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Registry — арена леджеров, ключ — mint токена. Единица изоляции —
// токен: сделки по одному токену сериализуются через версионный коммит,
// сделки по разным токенам полностью независимы.
type Registry struct {
	mu     sync.RWMutex
	tokens map[solana.PublicKey]*entry
	logger *zap.Logger
}

type entry struct {
	mu     sync.Mutex
	ledger *TokenLedger
}

// NewRegistry создаёт пустую арену.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		tokens: make(map[solana.PublicKey]*entry),
		logger: logger.Named("ledger"),
	}
}

// Create регистрирует леджер нового токена.
func (r *Registry) Create(l *TokenLedger) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[l.Token]; ok {
		return ErrTokenExists
	}
	r.tokens[l.Token] = &entry{ledger: l}

	r.logger.Info("Token ledger created",
		zap.String("mint", l.Token.String()),
		zap.String("symbol", l.Symbol),
		zap.String("curve", string(l.Curve.Kind())))
	return nil
}

func (r *Registry) get(mint solana.PublicKey) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tokens[mint]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return e, nil
}

// Snapshot возвращает глубокую копию леджера вместе с его версией.
// Вызывающий мутирует копию и коммитит её через Commit.
func (r *Registry) Snapshot(mint solana.PublicKey) (*TokenLedger, error) {
	e, err := r.get(mint)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Clone(), nil
}

// Commit атомарно заменяет леджер мутированным снимком. Если с момента
// чтения версия изменилась, возвращается ErrVersionConflict и снимок
// отбрасывается — вызывающий перечитывает и повторяет.
func (r *Registry) Commit(mutated *TokenLedger) error {
	e, err := r.get(mutated.Token)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ledger.Version != mutated.Version {
		return ErrVersionConflict
	}
	mutated.Version++
	e.ledger = mutated
	return nil
}

// Update выполняет fn над леджером под пер-токенным замком — для
// операций, которым не нужен оптимистичный цикл (модерация, градуация).
func (r *Registry) Update(mint solana.PublicKey, fn func(*TokenLedger) error) error {
	e, err := r.get(mint)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := fn(e.ledger); err != nil {
		return err
	}
	e.ledger.Version++
	return nil
}

// View выполняет fn над леджером только для чтения.
func (r *Registry) View(mint solana.PublicKey, fn func(*TokenLedger) error) error {
	e, err := r.get(mint)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.ledger)
}

// Mints возвращает список зарегистрированных токенов.
func (r *Registry) Mints() []solana.PublicKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mints := make([]solana.PublicKey, 0, len(r.tokens))
	for mint := range r.tokens {
		mints = append(mints, mint)
	}
	return mints
}

// Len возвращает количество зарегистрированных токенов.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens)
}

// SetTokenBan реализует platform.TokenModerator.
func (r *Registry) SetTokenBan(mint solana.PublicKey, banned bool) error {
	return r.Update(mint, func(l *TokenLedger) error {
		l.Banned = banned
		return nil
	})
}

// SetTokenPause реализует platform.TokenModerator.
func (r *Registry) SetTokenPause(mint solana.PublicKey, paused bool) error {
	return r.Update(mint, func(l *TokenLedger) error {
		l.Paused = paused
		return nil
	})
}
