// Package storagetest tiene el contrato que tiene que cumplir cada adapter de storage.
// Lo corren los tests de memory, sqlite y postgres.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"farm-registry/internal/domain/activity"
	"farm-registry/internal/domain/farms"
	"farm-registry/internal/domain/shares"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Stores agrupa los repos de un mismo backend (comparten la base).
type Stores struct {
	Farms    farms.Repository
	Shares   shares.Repository
	Activity activity.Repository
}

var base = time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)

func at(sec int) time.Time { return base.Add(time.Duration(sec) * time.Second) }

func farm(id, owner, email string, sec int) farms.Farm {
	return farms.Farm{ID: id, OwnerUserID: owner, Name: "Farm " + id, Email: email, CreatedAt: at(sec), UpdatedAt: at(sec)}
}

func animal(id, farmID, number string, sec int) farms.Animal {
	years := 3
	return farms.Animal{ID: id, FarmID: farmID, AnimalNumber: number, TypeName: "Cow", Years: &years, CreatedAt: at(sec), UpdatedAt: at(sec)}
}

func seed(t *testing.T, s Stores, fs []farms.Farm, as []farms.Animal) {
	t.Helper()
	err := s.Farms.WithinTx(context.Background(), func(tx farms.Tx) error {
		for _, f := range fs {
			if err := tx.CreateFarm(context.Background(), f); err != nil {
				return err
			}
		}
		for _, a := range as {
			if err := tx.CreateAnimal(context.Background(), a); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

// Run corre el contrato completo. newStores tiene que devolver un backend vacío.
func Run(t *testing.T, newStores func(t *testing.T) Stores) {
	t.Run("commit and rollback", func(t *testing.T) { testCommitRollback(t, newStores(t)) })
	t.Run("unique constraints", func(t *testing.T) { testUnique(t, newStores(t)) })
	t.Run("ownership lookups", func(t *testing.T) { testOwnership(t, newStores(t)) })
	t.Run("listings", func(t *testing.T) { testListings(t, newStores(t)) })
	t.Run("delete cascades", func(t *testing.T) { testCascade(t, newStores(t)) })
	t.Run("activity", func(t *testing.T) { testActivity(t, newStores(t)) })
	t.Run("shares", func(t *testing.T) { testShares(t, newStores(t)) })
	t.Run("concurrent creates keep capacity", func(t *testing.T) { testConcurrentCreates(t, newStores(t)) })
	t.Run("concurrent moves keep capacity", func(t *testing.T) { testConcurrentMoves(t, newStores(t)) })
}

func testCommitRollback(t *testing.T, s Stores) {
	ctx := context.Background()
	seed(t, s, []farms.Farm{farm("f1", "u1", "f1@x.io", 0)}, nil)

	boom := errors.New("boom")
	err := s.Farms.WithinTx(ctx, func(tx farms.Tx) error {
		require.NoError(t, tx.CreateAnimal(ctx, animal("a1", "f1", "101", 1)))
		n, err := tx.CountAnimals(ctx, "f1")
		require.NoError(t, err)
		assert.Equal(t, 1, n, "writes are visible inside the tx")
		return boom
	})
	require.ErrorIs(t, err, boom)

	f, err := s.Farms.GetFarm(ctx, "f1")
	require.NoError(t, err)
	assert.Empty(t, f.Animals)

	err = s.Farms.WithinTx(ctx, func(tx farms.Tx) error {
		return tx.CreateAnimal(ctx, animal("a1", "f1", "101", 1))
	})
	require.NoError(t, err)

	f, err = s.Farms.GetFarm(ctx, "f1")
	require.NoError(t, err)
	require.Len(t, f.Animals, 1)
	assert.Equal(t, "101", f.Animals[0].AnimalNumber)
	require.NotNil(t, f.Animals[0].Years)
	assert.Equal(t, 3, *f.Animals[0].Years)
	assert.True(t, f.CreatedAt.Equal(at(0)))
}

func testUnique(t *testing.T, s Stores) {
	ctx := context.Background()
	seed(t, s,
		[]farms.Farm{farm("f1", "u1", "f1@x.io", 0), farm("f2", "u1", "f2@x.io", 1)},
		[]farms.Animal{animal("a1", "f1", "101", 2)})

	err := s.Farms.WithinTx(ctx, func(tx farms.Tx) error {
		taken, err := tx.EmailTaken(ctx, "f1@x.io", "")
		require.NoError(t, err)
		assert.True(t, taken)

		taken, err = tx.EmailTaken(ctx, "f1@x.io", "f1")
		require.NoError(t, err)
		assert.False(t, taken, "a farm does not collide with itself")

		taken, err = tx.AnimalNumberTaken(ctx, "101", "a1")
		require.NoError(t, err)
		assert.False(t, taken)
		return nil
	})
	require.NoError(t, err)

	// Sin pre-check: el constraint del store tiene que salir como DuplicateKeyError.
	err = s.Farms.WithinTx(ctx, func(tx farms.Tx) error {
		return tx.CreateFarm(ctx, farm("f3", "u2", "f1@x.io", 3))
	})
	var dup *farms.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "email", dup.Field)

	err = s.Farms.WithinTx(ctx, func(tx farms.Tx) error {
		return tx.CreateAnimal(ctx, animal("a2", "f2", "101", 3))
	})
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "animal_number", dup.Field)

	err = s.Farms.WithinTx(ctx, func(tx farms.Tx) error {
		return tx.CreateAnimal(ctx, animal("a3", "missing", "555", 3))
	})
	assert.ErrorIs(t, err, farms.ErrNotFound)
}

func testOwnership(t *testing.T, s Stores) {
	ctx := context.Background()
	seed(t, s, []farms.Farm{farm("f1", "u1", "f1@x.io", 0)}, []farms.Animal{animal("a1", "f1", "101", 1)})

	owner, err := s.Farms.FarmOwner(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)

	_, err = s.Farms.FarmOwner(ctx, "nope")
	assert.ErrorIs(t, err, farms.ErrNotFound)

	own, err := s.Farms.AnimalOwner(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, farms.AnimalOwnership{AnimalID: "a1", FarmID: "f1", OwnerUserID: "u1"}, own)

	_, err = s.Farms.AnimalOwner(ctx, "nope")
	assert.ErrorIs(t, err, farms.ErrNotFound)

	err = s.Farms.WithinTx(ctx, func(tx farms.Tx) error {
		owner, err := tx.FarmOwner(ctx, "f1")
		require.NoError(t, err)
		assert.Equal(t, "u1", owner)
		return nil
	})
	require.NoError(t, err)
}

func testListings(t *testing.T, s Stores) {
	ctx := context.Background()
	seed(t, s,
		[]farms.Farm{
			farm("f1", "u1", "f1@x.io", 0),
			farm("f2", "u1", "f2@x.io", 1),
			farm("f3", "u1", "f3@x.io", 2),
			farm("other", "u2", "o@x.io", 3),
		},
		[]farms.Animal{
			animal("a1", "f1", "101", 10),
			animal("a2", "f1", "102", 11),
			animal("a3", "f1", "103", 12),
			animal("a4", "f2", "201", 13),
			animal("a5", "other", "301", 14),
		})

	page, err := s.Farms.ListFarmsByOwner(ctx, "u1", farms.Page{Number: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "f1", page.Items[0].ID)
	assert.Len(t, page.Items[0].Animals, 3)
	assert.Equal(t, []string{"101", "102", "103"}, numbers(page.Items[0].Animals))

	page, err = s.Farms.ListFarmsByOwner(ctx, "u1", farms.Page{Number: 2, Size: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "f3", page.Items[0].ID)

	open, err := s.Farms.ListOpenFarms(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"f2", "f3"}, farmIDs(open))

	animals, err := s.Farms.ListAnimalsByOwner(ctx, "u1", farms.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, animals.Total)
	require.Len(t, animals.Items, 4)
	assert.Equal(t, "f1", animals.Items[0].Farm.ID)
	assert.Equal(t, "Farm f1", animals.Items[0].Farm.Name)

	a, err := s.Farms.GetAnimal(ctx, "a4")
	require.NoError(t, err)
	assert.Equal(t, "201", a.AnimalNumber)
	assert.Equal(t, farms.FarmSummary{ID: "f2", Name: "Farm f2", OwnerUserID: "u1"}, a.Farm)

	_, err = s.Farms.GetAnimal(ctx, "nope")
	assert.ErrorIs(t, err, farms.ErrNotFound)
}

func testCascade(t *testing.T, s Stores) {
	ctx := context.Background()
	seed(t, s,
		[]farms.Farm{farm("f1", "u1", "f1@x.io", 0), farm("f2", "u1", "f2@x.io", 1)},
		[]farms.Animal{animal("a1", "f1", "101", 2), animal("a2", "f1", "102", 3), animal("a3", "f2", "201", 4)})

	require.NoError(t, s.Shares.Create(ctx, shares.Share{
		ID: "s1", FarmID: "f1", OwnerUserID: "u1", GranteeUserID: "u2",
		Scopes: []shares.Scope{shares.ScopeFarmRead}, Status: shares.StatusActive,
		CreatedAt: at(5), UpdatedAt: at(5),
	}))
	require.NoError(t, s.Farms.WithinTx(ctx, func(tx farms.Tx) error {
		return tx.AppendActivity(ctx, activity.NewEntry("f1", activity.EntryFarmUpdated, "u1", "", "x", at(6)))
	}))

	require.NoError(t, s.Farms.WithinTx(ctx, func(tx farms.Tx) error {
		return tx.DeleteFarm(ctx, "f1")
	}))

	_, err := s.Farms.GetFarm(ctx, "f1")
	assert.ErrorIs(t, err, farms.ErrNotFound)
	_, err = s.Farms.AnimalOwner(ctx, "a1")
	assert.ErrorIs(t, err, farms.ErrNotFound)
	_, err = s.Shares.GetByID(ctx, "s1")
	assert.ErrorIs(t, err, shares.ErrNotFound)

	entries, err := s.Activity.ListByFarm(ctx, "f1", activity.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)

	f2, err := s.Farms.GetFarm(ctx, "f2")
	require.NoError(t, err)
	assert.Len(t, f2.Animals, 1, "other farms are untouched")

	err = s.Farms.WithinTx(ctx, func(tx farms.Tx) error {
		return tx.DeleteFarm(ctx, "f1")
	})
	assert.ErrorIs(t, err, farms.ErrNotFound)
}

func testActivity(t *testing.T, s Stores) {
	ctx := context.Background()
	seed(t, s, []farms.Farm{farm("f1", "u1", "f1@x.io", 0)}, nil)

	types := []activity.EntryType{
		activity.EntryFarmCreated,
		activity.EntryAnimalAdded,
		activity.EntryAnimalAdded,
		activity.EntryAnimalRemoved,
	}
	require.NoError(t, s.Farms.WithinTx(ctx, func(tx farms.Tx) error {
		for i, typ := range types {
			e := activity.NewEntry("f1", typ, "u1", "", fmt.Sprintf("entry %d", i), at(i))
			if err := tx.AppendActivity(ctx, e); err != nil {
				return err
			}
		}
		return nil
	}))

	all, err := s.Activity.ListByFarm(ctx, "f1", activity.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "entry 3", all[0].Summary, "newest first")

	added, err := s.Activity.ListByFarm(ctx, "f1", activity.ListFilter{Types: []activity.EntryType{activity.EntryAnimalAdded}, Limit: 1})
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, "entry 2", added[0].Summary)

	// Rollback también se lleva la actividad.
	_ = s.Farms.WithinTx(ctx, func(tx farms.Tx) error {
		_ = tx.AppendActivity(ctx, activity.NewEntry("f1", activity.EntryFarmUpdated, "u1", "", "lost", at(10)))
		return errors.New("rollback")
	})
	all, err = s.Activity.ListByFarm(ctx, "f1", activity.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func testShares(t *testing.T, s Stores) {
	ctx := context.Background()
	seed(t, s, []farms.Farm{farm("f1", "u1", "f1@x.io", 0)}, nil)

	sh := shares.Share{
		ID: "s1", FarmID: "f1", OwnerUserID: "u1", GranteeUserID: "u2",
		Scopes: []shares.Scope{shares.ScopeFarmRead}, Status: shares.StatusInvited,
		CreatedAt: at(1), UpdatedAt: at(1),
	}
	require.NoError(t, s.Shares.Create(ctx, sh))

	visible, err := s.Farms.HasReadShare(ctx, "f1", "u2")
	require.NoError(t, err)
	assert.False(t, visible, "an invitation is not access yet")

	sh.Status = shares.StatusActive
	sh.UpdatedAt = at(2)
	require.NoError(t, s.Shares.Update(ctx, sh))

	visible, err = s.Farms.HasReadShare(ctx, "f1", "u2")
	require.NoError(t, err)
	assert.True(t, visible)

	got, err := s.Shares.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []shares.Scope{shares.ScopeFarmRead}, got.Scopes)
	assert.Nil(t, got.RevokedAt)

	revokedAt := at(3)
	sh.Status = shares.StatusRevoked
	sh.UpdatedAt = revokedAt
	sh.RevokedAt = &revokedAt
	require.NoError(t, s.Shares.Update(ctx, sh))

	visible, err = s.Farms.HasReadShare(ctx, "f1", "u2")
	require.NoError(t, err)
	assert.False(t, visible)

	mine, err := s.Shares.ListByGrantee(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].RevokedAt)
	assert.True(t, mine[0].RevokedAt.Equal(revokedAt))

	byFarm, err := s.Shares.ListByFarm(ctx, "f1")
	require.NoError(t, err)
	assert.Len(t, byFarm, 1)

	err = s.Shares.Update(ctx, shares.Share{ID: "missing"})
	assert.ErrorIs(t, err, shares.ErrNotFound)
}

const writers = 10

var errFull = errors.New("farm full")

// race arranca n escritores a la vez y devuelve cuántos terminaron ok y cuántos con errFull.
func race(t *testing.T, n int, write func(i int) error) (ok, full int) {
	t.Helper()

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = write(i)
		}(i)
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, errFull):
			full++
		default:
			t.Errorf("writer %d: unexpected error: %v", i, err)
		}
	}
	return ok, full
}

// Mismo patrón que el servicio: bloquear la granja, contar y recién ahí escribir.
func testConcurrentCreates(t *testing.T, s Stores) {
	ctx := context.Background()
	seed(t, s, []farms.Farm{farm("f1", "u1", "f1@x.io", 0)}, nil)

	ok, full := race(t, writers, func(i int) error {
		return s.Farms.WithinTx(ctx, func(tx farms.Tx) error {
			if _, err := tx.FarmOwner(ctx, "f1"); err != nil {
				return err
			}
			n, err := tx.CountAnimals(ctx, "f1")
			if err != nil {
				return err
			}
			if n >= farms.MaxAnimalsPerFarm {
				return errFull
			}
			return tx.CreateAnimal(ctx, animal(fmt.Sprintf("a%d", i), "f1", fmt.Sprintf("%d", 100+i), i))
		})
	})
	assert.Equal(t, farms.MaxAnimalsPerFarm, ok)
	assert.Equal(t, writers-farms.MaxAnimalsPerFarm, full)

	f, err := s.Farms.GetFarm(ctx, "f1")
	require.NoError(t, err)
	assert.Len(t, f.Animals, farms.MaxAnimalsPerFarm)
}

func testConcurrentMoves(t *testing.T, s Stores) {
	ctx := context.Background()

	// dst arranca con 2: entra uno solo de los que se mudan.
	fs := []farms.Farm{farm("dst", "u1", "dst@x.io", 0)}
	as := []farms.Animal{animal("d1", "dst", "901", 1), animal("d2", "dst", "902", 2)}
	for i := 0; i < writers; i++ {
		id := fmt.Sprintf("src%d", i)
		fs = append(fs, farm(id, "u1", id+"@x.io", 3+i))
		as = append(as, animal(fmt.Sprintf("m%d", i), id, fmt.Sprintf("%d", 500+i), 20+i))
	}
	seed(t, s, fs, as)

	ok, full := race(t, writers, func(i int) error {
		return s.Farms.WithinTx(ctx, func(tx farms.Tx) error {
			animalID := fmt.Sprintf("m%d", i)
			if _, err := tx.AnimalOwner(ctx, animalID); err != nil {
				return err
			}
			if _, err := tx.FarmOwner(ctx, "dst"); err != nil {
				return err
			}
			n, err := tx.CountAnimals(ctx, "dst")
			if err != nil {
				return err
			}
			if n >= farms.MaxAnimalsPerFarm {
				return errFull
			}
			a, err := tx.GetAnimal(ctx, animalID)
			if err != nil {
				return err
			}
			a.FarmID = "dst"
			a.UpdatedAt = at(100 + i)
			return tx.UpdateAnimal(ctx, a)
		})
	})
	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, full)

	dst, err := s.Farms.GetFarm(ctx, "dst")
	require.NoError(t, err)
	assert.Len(t, dst.Animals, farms.MaxAnimalsPerFarm)

	// Los que no entraron siguen en su granja.
	stayed := 0
	for i := 0; i < writers; i++ {
		src, err := s.Farms.GetFarm(ctx, fmt.Sprintf("src%d", i))
		require.NoError(t, err)
		stayed += len(src.Animals)
	}
	assert.Equal(t, writers-1, stayed)
}

func numbers(as []farms.Animal) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.AnimalNumber)
	}
	return out
}

func farmIDs(fs []farms.Farm) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.ID)
	}
	return out
}
