// cmd/seed provisions a user row and prints a bearer token for it, for local
// development without the identity provider. With -demo it also adds a few
// devices and products.
//
// Usage: go run ./cmd/seed -email admin@playzone.local -role admin -demo
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"playzone/internal/config"
	"playzone/internal/infra"
	"playzone/internal/middleware"
	"playzone/internal/model"
	"playzone/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	email := flag.String("email", "admin@playzone.local", "user email")
	role := flag.String("role", model.RoleAdmin, "admin | staff")
	id := flag.String("id", "", "user id (default: new uuid)")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	demo := flag.Bool("demo", false, "also create demo devices and products")
	flag.Parse()

	if *role != model.RoleAdmin && *role != model.RoleStaff {
		log.Fatal().Str("role", *role).Msg("role must be admin or staff")
	}
	userID := uuid.New()
	if *id != "" {
		parsed, err := uuid.Parse(*id)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid -id")
		}
		userID = parsed
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is empty")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx := context.Background()
	if err := repository.NewUserRepository(db).Upsert(ctx, &model.User{ID: userID, Email: *email, Role: *role}); err != nil {
		log.Fatal().Err(err).Msg("upsert user failed")
	}

	if *demo {
		if err := seedDemo(ctx, repository.NewDeviceRepository(db), repository.NewProductRepository(db)); err != nil {
			log.Fatal().Err(err).Msg("demo seed failed")
		}
	}

	now := time.Now()
	claims := middleware.JWTClaims{
		UserID: userID.String(),
		Email:  *email,
		Role:   *role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		log.Fatal().Err(err).Msg("sign token failed")
	}

	log.Info().Str("user_id", userID.String()).Str("email", *email).Str("role", *role).Msg("user ready")
	fmt.Println(token)
}

func seedDemo(ctx context.Context, devices repository.DeviceRepository, products repository.ProductRepository) error {
	for i, d := range []struct {
		name, kind  string
		rate, extra string
	}{
		{"PS5 Front 1", model.DeviceTypeExternal, "3.00", "0.50"},
		{"PS5 Front 2", model.DeviceTypeExternal, "3.00", "0.50"},
		{"Xbox Lounge", model.DeviceTypeInternal, "2.50", "0.50"},
		{"VIP Room", model.DeviceTypeVIP, "6.00", "1.00"},
	} {
		err := devices.Create(ctx, &model.Device{
			ID:                  uuid.New(),
			Name:                d.name,
			Type:                d.kind,
			Status:              model.DeviceAvailable,
			HourlyRate:          decimal.RequireFromString(d.rate),
			ExtraControllerRate: decimal.RequireFromString(d.extra),
		})
		if err != nil {
			return fmt.Errorf("device %d: %w", i, err)
		}
	}
	for _, p := range []model.Product{
		{Name: "Cola 330ml", Price: decimal.RequireFromString("1.50"), Stock: 48, Category: model.ProductMarket},
		{Name: "Chips", Price: decimal.RequireFromString("1.20"), Stock: 30, Category: model.ProductMarket},
		{Name: "Espresso", Price: decimal.RequireFromString("2.00"), Stock: 200, Category: model.ProductCoffee},
	} {
		p.ID = uuid.New()
		if err := products.Create(ctx, &p); err != nil {
			return fmt.Errorf("product %s: %w", p.Name, err)
		}
	}
	log.Info().Msg("demo devices and products created")
	return nil
}
