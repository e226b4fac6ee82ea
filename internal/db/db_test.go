package db

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   uint
	Name string
}

func TestOpenSQLite(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	conn, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "minepanel.db"), log)
	require.NoError(t, err)
	require.NoError(t, Migrate(conn, &row{}))
	require.NoError(t, conn.Create(&row{Name: "a"}).Error)

	var count int64
	require.NoError(t, conn.Model(&row{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	sqlDB.Close()
}

func TestOpenRejectsBadInput(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	_, err := Open(DriverPostgres, "", log)
	assert.Error(t, err)

	_, err = Open("oracle", "dsn", log)
	assert.ErrorContains(t, err, "unsupported driver")
}
