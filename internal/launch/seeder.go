// =============================================
// File: internal/launch/seeder.go
// =============================================
package launch

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-core/internal/engine"
)

// Seeder прогоняет запуски из файла через движок при старте процесса.
// Запуски проходят обычный путь CreateToken, со всеми его проверками.
type Seeder struct {
	service *engine.Service
	logger  *zap.Logger

	// defaultCreator подставляется в запуски без явного creator
	defaultCreator solana.PublicKey
}

// NewSeeder создаёт сеятель запусков.
func NewSeeder(service *engine.Service, defaultCreator solana.PublicKey, logger *zap.Logger) *Seeder {
	return &Seeder{
		service:        service,
		logger:         logger.Named("launch"),
		defaultCreator: defaultCreator,
	}
}

// Seed выпускает каждый запуск из списка. Ошибочные запуски
// пропускаются с предупреждением, остальные сеются дальше.
func (s *Seeder) Seed(ctx context.Context, launches []Launch) []solana.PublicKey {
	minted := make([]solana.PublicKey, 0, len(launches))

	for i := range launches {
		l := &launches[i]

		params, err := l.CurveParams()
		if err != nil {
			s.logger.Warn("Skipping launch with invalid curve",
				zap.String("symbol", l.Symbol), zap.Error(err))
			continue
		}

		mint, err := s.service.CreateToken(ctx, &engine.CreateTokenRequest{
			Creator:             l.CreatorKey(s.defaultCreator),
			Name:                l.Name,
			Symbol:              l.Symbol,
			URI:                 l.URI,
			Params:              params,
			GraduationThreshold: l.GraduationThreshold,
		})
		if err != nil {
			s.logger.Warn("Failed to seed launch",
				zap.String("symbol", l.Symbol), zap.Error(err))
			continue
		}

		minted = append(minted, mint)
		s.logger.Info("Launch seeded",
			zap.String("symbol", l.Symbol),
			zap.String("mint", mint.String()),
			zap.String("curve", l.Curve.Kind))
	}

	s.logger.Info("Launches seeded", zap.Int("count", len(minted)))
	return minted
}
