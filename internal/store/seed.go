package store

import (
	"context"
	"errors"
	"fmt"

	"minepanel/internal/models"
)

// SampleServers are the demo entries shown on a fresh development dashboard.
func SampleServers() []models.Server {
	return []models.Server{
		{Name: "Survival Server", Identifier: "survival", Address: "mc.example.com:25565", Status: models.StatusOnline, Players: 24, MaxPlayers: 50, Memory: "2.1 GB", Uptime: "3d 7h 22m"},
		{Name: "Creative Server", Identifier: "creative", Address: "creative.example.com:25565", Status: models.StatusOnline, Players: 12, MaxPlayers: 30, Memory: "1.5 GB", Uptime: "5d 12h 47m"},
		{Name: "SkyBlock Server", Identifier: "skyblock", Address: "skyblock.example.com:25565", Status: models.StatusOffline, Players: 0, MaxPlayers: 40, Memory: "2.0 GB", Uptime: "0d 0h 0m"},
	}
}

// SeedSampleServers inserts the sample servers whose identifier is not taken yet.
// It returns how many were created.
func SeedSampleServers(ctx context.Context, s ServerStore) (int, error) {
	created := 0
	for _, srv := range SampleServers() {
		_, err := s.GetServerByIdentifier(ctx, srv.Identifier)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return created, err
		}
		srv := srv
		if err := s.CreateServer(ctx, &srv); err != nil {
			return created, fmt.Errorf("seed server %q: %w", srv.Identifier, err)
		}
		created++
	}
	return created, nil
}
