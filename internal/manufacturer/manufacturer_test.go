package manufacturer

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"pcshop/internal/redisx"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "name", "slug", "logo_url", "country", "created_at", "updated_at"}

func TestRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("ListWithCountry", func(t *testing.T) {
		country := "Taiwan"
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM manufacturers WHERE country = \$1`).
			WithArgs("Taiwan").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT .* FROM manufacturers WHERE country = \$1 ORDER BY name ASC LIMIT \$2 OFFSET \$3`).
			WithArgs("Taiwan", 20, 0).
			WillReturnRows(sqlmock.NewRows(cols).AddRow("m1", "ASUS", "asus", "", "Taiwan", now, now))

		list, total, err := repo.List(ctx, ListOptions{Country: &country})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "asus", list[0].Slug)
	})

	t.Run("Create", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO manufacturers`).
			WithArgs(sqlmock.AnyArg(), "MSI", "msi", "https://i.ibb.co/msi.png", "Taiwan").
			WillReturnRows(sqlmock.NewRows(cols).AddRow("m2", "MSI", "msi", "https://i.ibb.co/msi.png", "Taiwan", now, now))

		m, err := repo.Create(ctx, &Manufacturer{Name: "MSI", Slug: "msi", LogoURL: "https://i.ibb.co/msi.png", Country: "Taiwan"})
		require.NoError(t, err)
		assert.Equal(t, "m2", m.ID)
	})

	t.Run("GetBySlugNotFound", func(t *testing.T) {
		mock.ExpectQuery(`FROM manufacturers WHERE slug = \$1`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetBySlug(ctx, "nope")
		assert.ErrorIs(t, err, ErrManufacturerNotFound)
	})

	t.Run("DeleteNotFound", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM manufacturers`).WithArgs("m9").WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, "m9"), ErrManufacturerNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewService(NewRepository(db), nil)
	ctx := context.Background()
	now := time.Now()

	t.Run("CreateWithCollision", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs("gigabyte").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs("gigabyte-2").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(`INSERT INTO manufacturers`).
			WithArgs(sqlmock.AnyArg(), "Gigabyte", "gigabyte-2", "", "").
			WillReturnRows(sqlmock.NewRows(cols).AddRow("m3", "Gigabyte", "gigabyte-2", "", "", now, now))

		m, err := svc.Create(ctx, CreateInput{Name: " Gigabyte "})
		require.NoError(t, err)
		assert.Equal(t, "gigabyte-2", m.Slug)
	})

	t.Run("CreateEmptyName", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateInput{Name: "  "})
		assert.ErrorIs(t, err, ErrNameRequired)
	})

	t.Run("GetByUUID", func(t *testing.T) {
		id := "0b7e7c5a-3f8d-4d8e-9a51-2fd1d6a7e001"
		mock.ExpectQuery(`FROM manufacturers WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(id, "AMD", "amd", "", "USA", now, now))

		m, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "AMD", m.Name)
	})

	t.Run("UpdateCountry", func(t *testing.T) {
		id := "0b7e7c5a-3f8d-4d8e-9a51-2fd1d6a7e001"
		country := "United States"
		mock.ExpectQuery(`FROM manufacturers WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(id, "AMD", "amd", "", "USA", now, now))
		mock.ExpectQuery(`UPDATE manufacturers`).
			WithArgs("AMD", "amd", "", "United States", id).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(id, "AMD", "amd", "", "United States", now, now))

		m, err := svc.Update(ctx, id, UpdateInput{Country: &country})
		require.NoError(t, err)
		assert.Equal(t, "United States", m.Country)
	})

	t.Run("UpdateNothing", func(t *testing.T) {
		_, err := svc.Update(ctx, "x", UpdateInput{})
		assert.ErrorIs(t, err, ErrNoFieldsToUpdate)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_DeleteDropsCachedProducts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	rdb := redisx.New(mr.Addr(), "")
	defer rdb.Close()
	key := fmt.Sprintf(redisx.KeyProductSlug, "rtx-4070")
	require.NoError(t, mr.Set(key, `{"manufacturerId":"m1"}`))

	mock.ExpectExec(`DELETE FROM manufacturers`).WithArgs("m1").WillReturnResult(sqlmock.NewResult(0, 1))

	svc := NewService(NewRepository(db), redisx.NewCache(rdb, time.Minute))
	require.NoError(t, svc.Delete(context.Background(), "m1"))
	assert.False(t, mr.Exists(key))
	assert.NoError(t, mock.ExpectationsWereMet())
}
