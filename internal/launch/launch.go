// =============================================
// File: internal/launch/launch.go
// =============================================
// Package launch загружает декларативные описания выпусков токенов из
// YAML и сеет их в движок при старте процесса.
package launch

import (
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"

	"github.com/rovshanmuradov/pump-core/internal/curve"
)

// CurveSpec — описание кривой в YAML. Заполняются только поля,
// относящиеся к выбранному kind.
type CurveSpec struct {
	Kind string `yaml:"kind"`

	// linear, exponential, logarithmic
	BasePrice uint64 `yaml:"base_price"`
	Slope     uint64 `yaml:"slope"`
	Growth    uint64 `yaml:"growth_factor"`
	Scale     uint64 `yaml:"scale"`
	MaxSupply uint64 `yaml:"max_supply"`

	// sigmoid
	MinPrice  uint64 `yaml:"min_price"`
	MaxPrice  uint64 `yaml:"max_price"`
	Steepness uint64 `yaml:"steepness"`
	Midpoint  uint64 `yaml:"midpoint"`

	// constant_product
	VirtualSolReserves   uint64 `yaml:"virtual_sol_reserves"`
	VirtualTokenReserves uint64 `yaml:"virtual_token_reserves"`
}

// Launch — один выпуск токена из файла запусков.
type Launch struct {
	Name                string    `yaml:"name"`
	Symbol              string    `yaml:"symbol"`
	URI                 string    `yaml:"uri"`
	Creator             string    `yaml:"creator"`
	GraduationThreshold uint64    `yaml:"graduation_threshold"`
	Curve               CurveSpec `yaml:"curve"`
}

// File — корневой документ файла запусков.
type File struct {
	Launches []Launch `yaml:"launches"`
}

// Load читает и валидирует файл запусков.
func Load(path string) ([]Launch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open launches file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse launches file: %w", err)
	}

	for i := range f.Launches {
		if err := f.Launches[i].validate(); err != nil {
			return nil, fmt.Errorf("launch %d (%s): %w", i, f.Launches[i].Symbol, err)
		}
	}
	return f.Launches, nil
}

func (l *Launch) validate() error {
	if l.Name == "" || l.Symbol == "" {
		return fmt.Errorf("name and symbol are required")
	}
	if l.Creator != "" {
		if _, err := solana.PublicKeyFromBase58(l.Creator); err != nil {
			return fmt.Errorf("invalid creator address: %w", err)
		}
	}
	if _, err := l.CurveParams(); err != nil {
		return err
	}
	return nil
}

// CreatorKey возвращает адрес создателя или fallback, если поле пусто.
func (l *Launch) CreatorKey(fallback solana.PublicKey) solana.PublicKey {
	if l.Creator == "" {
		return fallback
	}
	key, err := solana.PublicKeyFromBase58(l.Creator)
	if err != nil {
		return fallback
	}
	return key
}

// CurveParams переводит YAML-описание кривой в параметры движка.
func (l *Launch) CurveParams() (curve.Params, error) {
	c := l.Curve
	switch curve.Kind(c.Kind) {
	case curve.KindLinear:
		return &curve.LinearParams{
			BasePrice: c.BasePrice,
			Slope:     c.Slope,
			Max:       c.MaxSupply,
		}, nil
	case curve.KindExponential:
		return &curve.ExponentialParams{
			BasePrice:    c.BasePrice,
			GrowthFactor: c.Growth,
			Max:          c.MaxSupply,
		}, nil
	case curve.KindLogarithmic:
		return &curve.LogarithmicParams{
			BasePrice: c.BasePrice,
			Scale:     c.Scale,
			Max:       c.MaxSupply,
		}, nil
	case curve.KindSigmoid:
		return &curve.SigmoidParams{
			MinPrice:  c.MinPrice,
			MaxPrice:  c.MaxPrice,
			Steepness: c.Steepness,
			Midpoint:  c.Midpoint,
			Max:       c.MaxSupply,
		}, nil
	case curve.KindConstantProduct:
		return &curve.ConstantProductParams{
			VirtualSolReserves:   c.VirtualSolReserves,
			VirtualTokenReserves: c.VirtualTokenReserves,
		}, nil
	default:
		return nil, fmt.Errorf("unknown curve kind %q", c.Kind)
	}
}
