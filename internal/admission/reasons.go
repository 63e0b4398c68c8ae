// =================================
// File: internal/admission/reasons.go
// =================================
package admission

// Reason — стабильный код отказа. Порядок проверок фиксирован, поэтому
// одно и то же состояние всегда даёт один и тот же код.
type Reason string

const (
	ReasonPlatformPaused      Reason = "PLATFORM_PAUSED"
	ReasonTokenPausedOrBanned Reason = "TOKEN_PAUSED_OR_BANNED"
	ReasonAlreadyGraduated    Reason = "ALREADY_GRADUATED"
	ReasonMaxTradeSize        Reason = "MAX_TRADE_SIZE_EXCEEDED"
	ReasonWalletConcentration Reason = "WALLET_CONCENTRATION_EXCEEDED"
	ReasonDailyVolumeLimit    Reason = "DAILY_VOLUME_LIMIT_EXCEEDED"
	ReasonHourlyTradeLimit    Reason = "HOURLY_TRADE_LIMIT_EXCEEDED"
	ReasonTradeCooldown       Reason = "TRADE_COOLDOWN_ACTIVE"
	ReasonMinHoldTime         Reason = "MIN_HOLD_TIME_NOT_MET"
	ReasonCircuitBreaker      Reason = "CIRCUIT_BREAKER_TRIPPED"
	ReasonPriceImpact         Reason = "PRICE_IMPACT_TOO_HIGH"
	ReasonBotPattern          Reason = "BOT_PATTERN_DETECTED"
	ReasonHoneypot            Reason = "HONEYPOT_SUSPECTED"
	ReasonKycRequired         Reason = "KYC_REQUIRED"
	ReasonRateLimited         Reason = "RATE_LIMITED"
)

// Result — решение контроллера допуска.
type Result struct {
	Admitted bool
	Reason   Reason
}

func accept() Result         { return Result{Admitted: true} }
func reject(r Reason) Result { return Result{Reason: r} }
