package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"minepanel/internal/crypto"
	"minepanel/internal/db"
	"minepanel/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemory(t *testing.T) Store {
	return NewMemoryStore(models.DefaultSettings("", ""))
}

func newSQLite(t *testing.T) Store {
	cipher, err := crypto.NewCipher("test-encryption-key")
	require.NoError(t, err)
	return openSQLiteAt(t, filepath.Join(t.TempDir(), "minepanel_test.db"), cipher)
}

// openSQLiteAt opens a gorm store on an existing file so a test can reopen it
// with a different cipher.
func openSQLiteAt(t *testing.T, path string, cipher *crypto.Cipher) *GormStore {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	conn, err := db.Open(db.DriverSQLite, path, log)
	require.NoError(t, err)

	s, err := NewGormStore(conn, cipher, models.DefaultSettings("", ""))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var backends = map[string]func(t *testing.T) Store{
	"memory": newMemory,
	"sqlite": newSQLite,
}

func ptr[T any](v T) *T { return &v }

func TestUsernameLookupIgnoresCase(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			u := &models.User{Username: "Notch", PasswordHash: "hash"}
			require.NoError(t, s.CreateUser(ctx, u))
			assert.Equal(t, uint(1), u.ID)

			for _, variant := range []string{"notch", "NOTCH", "nOtCh", "Notch"} {
				got, err := s.GetUserByUsername(ctx, variant)
				require.NoError(t, err, variant)
				assert.Equal(t, u.ID, got.ID)
				assert.Equal(t, "Notch", got.Username)
			}

			err := s.CreateUser(ctx, &models.User{Username: "NOTCH"})
			assert.ErrorIs(t, err, ErrDuplicate)

			_, err = s.GetUserByUsername(ctx, "jeb")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestDiscordIDIsUniqueAndExact(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			require.NoError(t, s.CreateUser(ctx, &models.User{Username: "alex", DiscordID: ptr("1234")}))
			require.NoError(t, s.CreateUser(ctx, &models.User{Username: "steve"}))
			require.NoError(t, s.CreateUser(ctx, &models.User{Username: "herobrine"}))

			got, err := s.GetUserByDiscordID(ctx, "1234")
			require.NoError(t, err)
			assert.Equal(t, "alex", got.Username)

			_, err = s.GetUserByDiscordID(ctx, "123")
			assert.ErrorIs(t, err, ErrNotFound)

			err = s.CreateUser(ctx, &models.User{Username: "other", DiscordID: ptr("1234")})
			assert.ErrorIs(t, err, ErrDuplicate)
		})
	}
}

func TestUpdateUserMergesAndReportsMissing(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			u := &models.User{Username: "alex", Email: "alex@example.com", PasswordHash: "hash"}
			require.NoError(t, s.CreateUser(ctx, u))

			got, err := s.UpdateUser(ctx, u.ID, models.UserPatch{IsAdmin: ptr(true)})
			require.NoError(t, err)
			assert.True(t, got.IsAdmin)
			assert.Equal(t, "alex@example.com", got.Email)
			assert.Equal(t, "hash", got.PasswordHash)

			_, err = s.UpdateUser(ctx, 99, models.UserPatch{IsAdmin: ptr(true)})
			assert.ErrorIs(t, err, ErrNotFound)

			users, err := s.ListUsers(ctx)
			require.NoError(t, err)
			require.Len(t, users, 1)
			assert.True(t, users[0].IsAdmin)
		})
	}
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			settings, err := s.GetSettings(ctx)
			require.NoError(t, err)
			assert.Equal(t, uint(models.SettingsID), settings.ID)
			assert.Equal(t, "MinePanel", settings.DashboardName)
			assert.Equal(t, models.DefaultSkyportAPIURL, settings.SkyportAPIURL)
			assert.Empty(t, settings.SkyportAPIKey)

			updated, err := s.UpdateSettings(ctx, models.SettingsPatch{SkyportAPIKey: ptr("ptla_key")})
			require.NoError(t, err)
			assert.Equal(t, "ptla_key", updated.SkyportAPIKey)
			assert.Equal(t, "MinePanel", updated.DashboardName)

			settings, err = s.GetSettings(ctx)
			require.NoError(t, err)
			assert.Equal(t, "ptla_key", settings.SkyportAPIKey)
		})
	}
}

func TestServerCreateAssignsIDAndLastSeen(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			a := &models.Server{Name: "Lobby", Identifier: "lobby", Address: "a:1", Status: models.StatusOffline}
			b := &models.Server{Name: "Games", Identifier: "games", Address: "b:1", Status: models.StatusOffline}
			require.NoError(t, s.CreateServer(ctx, a))
			require.NoError(t, s.CreateServer(ctx, b))
			assert.Equal(t, uint(1), a.ID)
			assert.Equal(t, uint(2), b.ID)
			require.NotNil(t, a.LastSeen)

			err := s.CreateServer(ctx, &models.Server{Name: "Dup", Identifier: "lobby", Address: "c:1", Status: models.StatusOffline})
			assert.ErrorIs(t, err, ErrDuplicate)

			got, err := s.GetServerByIdentifier(ctx, "games")
			require.NoError(t, err)
			assert.Equal(t, b.ID, got.ID)

			updated, err := s.UpdateServer(ctx, a.ID, models.ServerPatch{Players: ptr(7)})
			require.NoError(t, err)
			assert.Equal(t, 7, updated.Players)
			assert.Equal(t, "Lobby", updated.Name)

			_, err = s.UpdateServer(ctx, 42, models.ServerPatch{Players: ptr(1)})
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.GetServer(ctx, 42)
			assert.ErrorIs(t, err, ErrNotFound)

			list, err := s.ListServers(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "lobby", list[0].Identifier)
		})
	}
}

func TestSeedSampleServersIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newMemory(t)

	n, err := SeedSampleServers(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = SeedSampleServers(ctx, s)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryStoreConcurrentCreatesNeverShareIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(models.DefaultSettings("", ""))

	const workers = 64
	ids := make(chan uint, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			srv := &models.Server{Name: "srv", Identifier: fmt.Sprintf("srv-%d", i), Address: "x:1"}
			if err := s.CreateServer(ctx, srv); err == nil {
				ids <- srv.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[uint]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(models.DefaultSettings("", ""))
	srv := &models.Server{Name: "Lobby", Identifier: "lobby", Address: "a:1"}
	require.NoError(t, s.CreateServer(ctx, srv))

	got, _ := s.GetServer(ctx, srv.ID)
	got.Name = "mutated"

	again, _ := s.GetServer(ctx, srv.ID)
	assert.Equal(t, "Lobby", again.Name)
}

func TestGormStoreEncryptsAPIKeyAtRest(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t).(*GormStore)

	_, err := s.UpdateSettings(ctx, models.SettingsPatch{SkyportAPIKey: ptr("ptla_plain")})
	require.NoError(t, err)

	var row settingsRow
	require.NoError(t, s.db.First(&row, models.SettingsID).Error)
	assert.NotContains(t, row.SkyportAPIKey, "ptla_plain")
	assert.True(t, row.SkyportAPIKeySealed)

	got, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ptla_plain", got.SkyportAPIKey)
}

func TestGormStorePlainKeyThatLooksSealed(t *testing.T) {
	ctx := context.Background()
	s := openSQLiteAt(t, filepath.Join(t.TempDir(), "plain.db"), nil)

	_, err := s.UpdateSettings(ctx, models.SettingsPatch{SkyportAPIKey: ptr("enc:abc")})
	require.NoError(t, err)

	got, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "enc:abc", got.SkyportAPIKey)

	_, err = s.UpdateSettings(ctx, models.SettingsPatch{DashboardName: ptr("Renamed")})
	require.NoError(t, err)
	got, err = s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "enc:abc", got.SkyportAPIKey)
	assert.Equal(t, "Renamed", got.DashboardName)
}

func TestGormStoreSealedKeyWithoutCipherCanBeReplaced(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sealed.db")

	cipher, err := crypto.NewCipher("test-encryption-key")
	require.NoError(t, err)
	sealed := openSQLiteAt(t, path, cipher)
	_, err = sealed.UpdateSettings(ctx, models.SettingsPatch{SkyportAPIKey: ptr("ptla_secret")})
	require.NoError(t, err)
	require.NoError(t, sealed.Close())

	s := openSQLiteAt(t, path, nil)
	_, err = s.GetSettings(ctx)
	assert.ErrorContains(t, err, "ENCRYPTION_KEY")

	_, err = s.UpdateSettings(ctx, models.SettingsPatch{DashboardName: ptr("Renamed")})
	assert.Error(t, err)

	_, err = s.UpdateSettings(ctx, models.SettingsPatch{SkyportAPIKey: ptr("ptla_fresh")})
	require.NoError(t, err)

	got, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ptla_fresh", got.SkyportAPIKey)

	var row settingsRow
	require.NoError(t, s.db.First(&row, models.SettingsID).Error)
	assert.False(t, row.SkyportAPIKeySealed)
}
