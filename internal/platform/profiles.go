// =================================
// File: internal/platform/profiles.go
// =================================
package platform

import (
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Profile — профиль создателя токенов: счётчики, репутация и флаги
// верификации. Используется проверками создания токена и KYC-эвристикой.
type Profile struct {
	User          solana.PublicKey
	TokensCreated uint32
	LastCreatedAt time.Time
	Reputation    uint32 // 0..1000, новые пользователи начинают с 500
	KycVerified   bool
	Banned        bool
}

const defaultReputation = 500

// Profiles — реестр профилей в памяти. Профиль заводится лениво при
// первом обращении.
type Profiles struct {
	mu       sync.RWMutex
	profiles map[solana.PublicKey]*Profile
}

// NewProfiles создаёт пустой реестр профилей.
func NewProfiles() *Profiles {
	return &Profiles{profiles: make(map[solana.PublicKey]*Profile)}
}

// Get возвращает копию профиля пользователя (ленивое создание).
func (r *Profiles) Get(user solana.PublicKey) Profile {
	r.mu.RLock()
	p, ok := r.profiles[user]
	r.mu.RUnlock()
	if ok {
		return *p
	}
	return Profile{User: user, Reputation: defaultReputation}
}

func (r *Profiles) getOrCreate(user solana.PublicKey) *Profile {
	if p, ok := r.profiles[user]; ok {
		return p
	}
	p := &Profile{User: user, Reputation: defaultReputation}
	r.profiles[user] = p
	return p
}

// RecordTokenCreated фиксирует создание токена пользователем.
func (r *Profiles) RecordTokenCreated(user solana.PublicKey, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.getOrCreate(user)
	p.TokensCreated++
	p.LastCreatedAt = now
}

// SetKycVerified выставляет флаг прохождения KYC.
func (r *Profiles) SetKycVerified(user solana.PublicKey, verified bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getOrCreate(user).KycVerified = verified
}

// SetBanned банит или разбанивает пользователя.
func (r *Profiles) SetBanned(user solana.PublicKey, banned bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getOrCreate(user).Banned = banned
}

// SetReputation выставляет репутацию пользователя (обрезается до 1000).
func (r *Profiles) SetReputation(user solana.PublicKey, score uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if score > 1000 {
		score = 1000
	}
	r.getOrCreate(user).Reputation = score
}
