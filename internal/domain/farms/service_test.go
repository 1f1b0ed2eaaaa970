package farms_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"farm-registry/internal/adapters/storage/memory"
	"farm-registry/internal/domain/activity"
	"farm-registry/internal/domain/farms"
	"farm-registry/internal/domain/shares"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func years(n int) *int { return &n }

type fixture struct {
	store *memory.Store
	svc   *farms.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	return fixture{store: store, svc: farms.NewService(store, farms.Options{})}
}

func sunnyInput() farms.CreateFarmInput {
	return farms.CreateFarmInput{
		Name:    "Sunny Farm",
		Email:   "sunny@farm.test",
		Website: "https://sunny.farm",
		Animals: []farms.AnimalInput{
			{TypeName: "Cow", AnimalNumber: "101", Years: years(5)},
			{TypeName: "Sheep", AnimalNumber: "102", Years: years(3)},
		},
	}
}

func (fx fixture) fullFarm(t *testing.T, owner string) farms.Farm {
	t.Helper()
	f, err := fx.svc.CreateFarm(context.Background(), owner, farms.CreateFarmInput{
		Name:  "Full Farm",
		Email: owner + "-full@farm.test",
		Animals: []farms.AnimalInput{
			{TypeName: "Cow", AnimalNumber: "901"},
			{TypeName: "Pig", AnimalNumber: "902"},
			{TypeName: "Horse", AnimalNumber: "903"},
		},
	})
	require.NoError(t, err)
	return f
}

func TestCreateFarm_SunnyFarm(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	f, err := fx.svc.CreateFarm(ctx, "u1", sunnyInput())
	require.NoError(t, err)
	assert.Equal(t, "u1", f.OwnerUserID)
	require.Len(t, f.Animals, 2)

	got, err := fx.svc.GetFarm(ctx, "u1", f.ID)
	require.NoError(t, err)
	require.Len(t, got.Animals, 2)
	assert.Equal(t, "101", got.Animals[0].AnimalNumber)
	assert.Equal(t, "Cow", got.Animals[0].TypeName)
	assert.Equal(t, 5, *got.Animals[0].Years)
	assert.Equal(t, "102", got.Animals[1].AnimalNumber)

	entries, err := fx.store.Activity().ListByFarm(ctx, f.ID, activity.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 3, "farm created + two animals added")
}

func TestCreateFarm_Validation(t *testing.T) {
	fx := newFixture(t)

	in := sunnyInput()
	in.Name = "  "
	in.Email = "not-an-email"
	in.Website = "sunny farm"
	in.Animals[0].Years = years(21)
	in.Animals[1].AnimalNumber = "10a"
	in.Animals[1].TypeName = ""

	_, err := fx.svc.CreateFarm(context.Background(), "u1", in)

	var verrs farms.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.ErrorIs(t, err, farms.ErrInvalidInput)
	assert.Contains(t, verrs, "name")
	assert.Contains(t, verrs, "email")
	assert.Contains(t, verrs, "website")
	assert.Contains(t, verrs, "animals.0.years")
	assert.Contains(t, verrs, "animals.1.animal_number")
	assert.Contains(t, verrs, "animals.1.type_name")
	assert.Equal(t, "The name field is required.", verrs["name"])
}

func TestCreateFarm_BatchOverCapacityIsRejected(t *testing.T) {
	fx := newFixture(t)

	in := sunnyInput()
	in.Animals = append(in.Animals,
		farms.AnimalInput{TypeName: "Pig", AnimalNumber: "103"},
		farms.AnimalInput{TypeName: "Horse", AnimalNumber: "104"},
	)

	_, err := fx.svc.CreateFarm(context.Background(), "u1", in)
	var verrs farms.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "animals")

	list, err := fx.svc.ListFarms(context.Background(), "u1", 1)
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestCreateFarm_DuplicateEmail(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.CreateFarm(ctx, "u1", sunnyInput())
	require.NoError(t, err)

	in := sunnyInput()
	in.Email = "SUNNY@farm.test"
	in.Animals = nil
	_, err = fx.svc.CreateFarm(ctx, "u2", in)

	var dup *farms.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "email", dup.Field)
}

func TestCreateFarm_DuplicateAnimalNumberRollsBackEverything(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.CreateFarm(ctx, "u1", sunnyInput())
	require.NoError(t, err)

	_, err = fx.svc.CreateFarm(ctx, "u2", farms.CreateFarmInput{
		Name:  "Rainy Farm",
		Email: "rainy@farm.test",
		Animals: []farms.AnimalInput{
			{TypeName: "Cow", AnimalNumber: "555"},
			{TypeName: "Cow", AnimalNumber: "101"},
		},
	})
	var dup *farms.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "animals.1.animal_number", dup.Field)

	list, err := fx.svc.ListFarms(ctx, "u2", 1)
	require.NoError(t, err)
	assert.Zero(t, list.Total, "the farm insert is rolled back too")
}

func TestCreateAnimal_Capacity(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	full := fx.fullFarm(t, "u1")

	_, err := fx.svc.CreateAnimal(ctx, "u1", farms.CreateAnimalInput{FarmID: full.ID, TypeName: "Chicken", AnimalNumber: "904"})

	var capErr *farms.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, full.ID, capErr.FarmID)

	got, err := fx.svc.GetFarm(ctx, "u1", full.ID)
	require.NoError(t, err)
	assert.Len(t, got.Animals, farms.MaxAnimalsPerFarm)
}

func TestCreateAnimal_DuplicateNumber(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	f, err := fx.svc.CreateFarm(ctx, "u1", sunnyInput())
	require.NoError(t, err)

	_, err = fx.svc.CreateAnimal(ctx, "u1", farms.CreateAnimalInput{FarmID: f.ID, TypeName: "Pig", AnimalNumber: "101"})
	assert.ErrorIs(t, err, farms.ErrDuplicateKey)

	got, err := fx.svc.GetFarm(ctx, "u1", f.ID)
	require.NoError(t, err)
	assert.Len(t, got.Animals, 2)
}

func TestCreateAnimal_ConcurrentNeverExceedsCapacity(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	f, err := fx.svc.CreateFarm(ctx, "u1", farms.CreateFarmInput{Name: "Busy", Email: "busy@farm.test"})
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, full int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := fx.svc.CreateAnimal(ctx, "u1", farms.CreateAnimalInput{
				FarmID:       f.ID,
				TypeName:     "Chicken",
				AnimalNumber: fmt.Sprintf("7%03d", i),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, farms.ErrCapacityExceeded):
				full++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, farms.MaxAnimalsPerFarm, ok)
	assert.Equal(t, 12-farms.MaxAnimalsPerFarm, full)

	got, err := fx.svc.GetFarm(ctx, "u1", f.ID)
	require.NoError(t, err)
	assert.Len(t, got.Animals, farms.MaxAnimalsPerFarm)
}

func TestUpdateFarm_InsertsAndUpdates(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	f, err := fx.svc.CreateFarm(ctx, "u1", sunnyInput())
	require.NoError(t, err)
	cow := f.Animals[0]

	out, err := fx.svc.UpdateFarm(ctx, "u1", f.ID, farms.UpdateFarmInput{
		Name:  "Sunny Farm II",
		Email: "sunny@farm.test",
		Animals: []farms.AnimalInput{
			{ID: cow.ID, TypeName: "Cow", AnimalNumber: "101", Years: years(6)},
			{TypeName: "Horse", AnimalNumber: "103"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Sunny Farm II", out.Name)
	require.Len(t, out.Animals, 3, "one insert, the sheep stays")

	byNumber := map[string]farms.Animal{}
	for _, a := range out.Animals {
		byNumber[a.AnimalNumber] = a
	}
	assert.Equal(t, cow.ID, byNumber["101"].ID)
	assert.Equal(t, 6, *byNumber["101"].Years)
	assert.Equal(t, "Horse", byNumber["103"].TypeName)

	entries, err := fx.store.Activity().ListByFarm(ctx, f.ID, activity.ListFilter{
		Types: []activity.EntryType{activity.EntryAnimalAdded, activity.EntryAnimalUpdated},
	})
	require.NoError(t, err)
	assert.Len(t, entries, 4, "two initial adds, one update, one add")
}

func TestUpdateFarm_MidBatchFailureChangesNothing(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	f, err := fx.svc.CreateFarm(ctx, "u1", sunnyInput())
	require.NoError(t, err)

	_, err = fx.svc.UpdateFarm(ctx, "u1", f.ID, farms.UpdateFarmInput{
		Name:  "Renamed",
		Email: "sunny@farm.test",
		Animals: []farms.AnimalInput{
			{ID: f.Animals[0].ID, TypeName: "Cow", AnimalNumber: "101", Years: years(9)},
			{TypeName: "Horse", AnimalNumber: "102"}, // duplicado con la oveja
		},
	})
	assert.ErrorIs(t, err, farms.ErrDuplicateKey)

	got, err := fx.svc.GetFarm(ctx, "u1", f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sunny Farm", got.Name)
	require.Len(t, got.Animals, 2)
	assert.Equal(t, 5, *got.Animals[0].Years)
}

// failingRepo simula una caída del store a mitad de la transacción.
type failingRepo struct {
	farms.Repository
	failOnCreate int
}

type failingTx struct {
	farms.Tx
	creates, failOn int
}

func (r failingRepo) WithinTx(ctx context.Context, fn func(tx farms.Tx) error) error {
	return r.Repository.WithinTx(ctx, func(tx farms.Tx) error {
		return fn(&failingTx{Tx: tx, failOn: r.failOnCreate})
	})
}

func (t *failingTx) CreateAnimal(ctx context.Context, a farms.Animal) error {
	t.creates++
	if t.creates == t.failOn {
		return errors.New("connection reset by peer")
	}
	return t.Tx.CreateAnimal(ctx, a)
}

func TestUpdateFarm_StoreFailureIsTransientAndRollsBack(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	f, err := farms.NewService(store, farms.Options{}).CreateFarm(ctx, "u1", farms.CreateFarmInput{
		Name: "Sunny Farm", Email: "sunny@farm.test",
		Animals: []farms.AnimalInput{{TypeName: "Cow", AnimalNumber: "101"}},
	})
	require.NoError(t, err)

	svc := farms.NewService(failingRepo{Repository: store, failOnCreate: 2}, farms.Options{})
	_, err = svc.UpdateFarm(ctx, "u1", f.ID, farms.UpdateFarmInput{
		Name:  "Renamed",
		Email: "sunny@farm.test",
		Animals: []farms.AnimalInput{
			{TypeName: "Sheep", AnimalNumber: "102"},
			{TypeName: "Pig", AnimalNumber: "103"},
		},
	})
	assert.ErrorIs(t, err, farms.ErrTransient)

	got, err := store.GetFarm(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sunny Farm", got.Name)
	assert.Len(t, got.Animals, 1)
}

func TestUpdateFarm_EmptyRosterAndForeignIDs(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	f, err := fx.svc.CreateFarm(ctx, "u1", sunnyInput())
	require.NoError(t, err)
	other, err := fx.svc.CreateFarm(ctx, "u1", farms.CreateFarmInput{
		Name: "Other", Email: "other@farm.test",
		Animals: []farms.AnimalInput{{TypeName: "Pig", AnimalNumber: "301"}},
	})
	require.NoError(t, err)

	_, err = fx.svc.UpdateFarm(ctx, "u1", f.ID, farms.UpdateFarmInput{Name: "X", Email: "sunny@farm.test"})
	assert.ErrorIs(t, err, farms.ErrEmptyRoster)

	// Un id de otra granja se ignora; el animal no cambia.
	_, err = fx.svc.UpdateFarm(ctx, "u1", f.ID, farms.UpdateFarmInput{
		Name:  "Sunny Farm",
		Email: "sunny@farm.test",
		Animals: []farms.AnimalInput{
			{ID: other.Animals[0].ID, TypeName: "Cow", AnimalNumber: "999"},
			{ID: "does-not-exist", TypeName: "Cow", AnimalNumber: "998"},
		},
	})
	require.NoError(t, err)

	got, err := fx.svc.GetFarm(ctx, "u1", other.ID)
	require.NoError(t, err)
	assert.Equal(t, "301", got.Animals[0].AnimalNumber)

	sunny, err := fx.svc.GetFarm(ctx, "u1", f.ID)
	require.NoError(t, err)
	assert.Len(t, sunny.Animals, 2)
}

func TestUpdateFarm_EmailExcludingItself(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	f, err := fx.svc.CreateFarm(ctx, "u1", sunnyInput())
	require.NoError(t, err)
	_, err = fx.svc.CreateFarm(ctx, "u1", farms.CreateFarmInput{Name: "Other", Email: "other@farm.test"})
	require.NoError(t, err)

	in := farms.UpdateFarmInput{
		Name:    "Sunny",
		Email:   "sunny@farm.test",
		Animals: []farms.AnimalInput{{ID: f.Animals[0].ID, TypeName: "Cow", AnimalNumber: "101"}},
	}
	_, err = fx.svc.UpdateFarm(ctx, "u1", f.ID, in)
	require.NoError(t, err)

	in.Email = "other@farm.test"
	_, err = fx.svc.UpdateFarm(ctx, "u1", f.ID, in)
	assert.ErrorIs(t, err, farms.ErrDuplicateKey)
}

func TestNonOwner_CannotMutate(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	f, err := fx.svc.CreateFarm(ctx, "owner", sunnyInput())
	require.NoError(t, err)
	animalID := f.Animals[0].ID

	err = fx.svc.DeleteFarm(ctx, "stranger", f.ID)
	assert.ErrorIs(t, err, farms.ErrNotFound, "strangers don't learn the farm exists")

	_, err = fx.svc.CreateAnimal(ctx, "stranger", farms.CreateAnimalInput{FarmID: f.ID, TypeName: "Pig", AnimalNumber: "555"})
	assert.ErrorIs(t, err, farms.ErrNotFound)

	err = fx.svc.DeleteAnimal(ctx, "stranger", animalID)
	assert.ErrorIs(t, err, farms.ErrNotFound)

	_, err = fx.svc.GetFarm(ctx, "stranger", f.ID)
	assert.ErrorIs(t, err, farms.ErrNotFound)

	got, err := fx.svc.GetFarm(ctx, "owner", f.ID)
	require.NoError(t, err)
	assert.Len(t, got.Animals, 2)
}

func TestShareHolder_CanReadButNotMutate(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	f, err := fx.svc.CreateFarm(ctx, "owner", sunnyInput())
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, fx.store.Shares().Create(ctx, shares.Share{
		ID: "s1", FarmID: f.ID, OwnerUserID: "owner", GranteeUserID: "vet",
		Scopes: []shares.Scope{shares.ScopeFarmRead}, Status: shares.StatusActive,
		CreatedAt: now, UpdatedAt: now,
	}))

	got, err := fx.svc.GetFarm(ctx, "vet", f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)

	a, err := fx.svc.GetAnimal(ctx, "vet", f.Animals[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Sunny Farm", a.Farm.Name)

	ok, err := fx.svc.CanView(ctx, "vet", f.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	err = fx.svc.DeleteFarm(ctx, "vet", f.ID)
	assert.ErrorIs(t, err, farms.ErrForbidden)

	_, err = fx.svc.UpdateAnimal(ctx, "vet", f.Animals[0].ID, farms.UpdateAnimalInput{FarmID: f.ID, TypeName: "Cow", AnimalNumber: "101"})
	assert.ErrorIs(t, err, farms.ErrForbidden)

	assert.ErrorIs(t, fx.svc.Authorize(ctx, "vet", farms.ResourceFarm, f.ID, farms.ActionModify), farms.ErrForbidden)
	assert.NoError(t, fx.svc.Authorize(ctx, "vet", farms.ResourceAnimal, f.Animals[0].ID, farms.ActionView))
}

func TestDeleteFarm_Cascades(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	f, err := fx.svc.CreateFarm(ctx, "u1", sunnyInput())
	require.NoError(t, err)

	require.NoError(t, fx.svc.DeleteFarm(ctx, "u1", f.ID))

	for _, a := range f.Animals {
		_, err := fx.svc.GetAnimal(ctx, "u1", a.ID)
		assert.ErrorIs(t, err, farms.ErrNotFound)
	}
	animals, err := fx.svc.ListAnimals(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Zero(t, animals.Total)

	// Los números quedan libres.
	_, err = fx.svc.CreateFarm(ctx, "u1", sunnyInput())
	assert.NoError(t, err)
}

func TestUpdateAnimal_Move(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	sunny, err := fx.svc.CreateFarm(ctx, "u1", sunnyInput())
	require.NoError(t, err)
	empty, err := fx.svc.CreateFarm(ctx, "u1", farms.CreateFarmInput{Name: "Empty", Email: "empty@farm.test"})
	require.NoError(t, err)
	full := fx.fullFarm(t, "u1")
	foreign, err := fx.svc.CreateFarm(ctx, "u2", farms.CreateFarmInput{Name: "Foreign", Email: "foreign@farm.test"})
	require.NoError(t, err)

	cow := sunny.Animals[0]
	in := farms.UpdateAnimalInput{TypeName: "Cow", AnimalNumber: cow.AnimalNumber, Years: years(7)}

	in.FarmID = full.ID
	_, err = fx.svc.UpdateAnimal(ctx, "u1", cow.ID, in)
	assert.ErrorIs(t, err, farms.ErrCapacityExceeded)

	in.FarmID = foreign.ID
	_, err = fx.svc.UpdateAnimal(ctx, "u1", cow.ID, in)
	assert.ErrorIs(t, err, farms.ErrNotFound)

	in.FarmID = empty.ID
	moved, err := fx.svc.UpdateAnimal(ctx, "u1", cow.ID, in)
	require.NoError(t, err)
	assert.Equal(t, empty.ID, moved.FarmID)
	assert.Equal(t, 7, *moved.Years)

	out, err := fx.store.Activity().ListByFarm(ctx, sunny.ID, activity.ListFilter{Types: []activity.EntryType{activity.EntryAnimalMovedOut}})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	in2, err := fx.store.Activity().ListByFarm(ctx, empty.ID, activity.ListFilter{Types: []activity.EntryType{activity.EntryAnimalMovedIn}})
	require.NoError(t, err)
	assert.Len(t, in2, 1)
}

func TestUpdateAnimal_NumberUniqueExcludingSelf(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	f, err := fx.svc.CreateFarm(ctx, "u1", sunnyInput())
	require.NoError(t, err)
	cow := f.Animals[0]

	_, err = fx.svc.UpdateAnimal(ctx, "u1", cow.ID, farms.UpdateAnimalInput{FarmID: f.ID, TypeName: "Cow", AnimalNumber: "101", Years: years(6)})
	require.NoError(t, err)

	_, err = fx.svc.UpdateAnimal(ctx, "u1", cow.ID, farms.UpdateAnimalInput{FarmID: f.ID, TypeName: "Cow", AnimalNumber: "102"})
	assert.ErrorIs(t, err, farms.ErrDuplicateKey)
}

func TestDeleteAnimal_Twice(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	f, err := fx.svc.CreateFarm(ctx, "u1", sunnyInput())
	require.NoError(t, err)
	id := f.Animals[0].ID

	require.NoError(t, fx.svc.DeleteAnimal(ctx, "u1", id))
	assert.ErrorIs(t, fx.svc.DeleteAnimal(ctx, "u1", id), farms.ErrNotFound)

	open, err := fx.svc.ListOpenFarms(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Len(t, open[0].Animals, 1)
}

func TestListings_Paged(t *testing.T) {
	store := memory.NewStore()
	svc := farms.NewService(store, farms.Options{PageSize: 2})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateFarm(ctx, "u1", farms.CreateFarmInput{
			Name:    fmt.Sprintf("Farm %d", i),
			Email:   fmt.Sprintf("farm%d@farm.test", i),
			Animals: []farms.AnimalInput{{TypeName: "Cow", AnimalNumber: fmt.Sprintf("%d00", i+1)}},
		})
		require.NoError(t, err)
	}

	p1, err := svc.ListFarms(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, p1.Total)
	assert.Equal(t, 2, p1.PerPage)
	assert.Len(t, p1.Items, 2)

	p2, err := svc.ListAnimals(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, p2.Page)
	require.Len(t, p2.Items, 1)
	assert.NotEmpty(t, p2.Items[0].Farm.Name)
}

func TestListings_PageBeyondRangeIsEmpty(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	_, err := fx.svc.CreateFarm(ctx, "u1", sunnyInput())
	require.NoError(t, err)

	for _, n := range []int{2, math.MaxInt / 2, math.MaxInt} {
		fp, err := fx.svc.ListFarms(ctx, "u1", n)
		require.NoError(t, err, "page %d", n)
		assert.Empty(t, fp.Items)
		assert.Equal(t, 1, fp.Total)

		ap, err := fx.svc.ListAnimals(ctx, "u1", n)
		require.NoError(t, err, "page %d", n)
		assert.Empty(t, ap.Items)
		assert.Equal(t, 2, ap.Total)
	}
}

func TestPage_OffsetSaturates(t *testing.T) {
	assert.Equal(t, 0, farms.Page{Number: 1, Size: 10}.Offset())
	assert.Equal(t, 20, farms.Page{Number: 3, Size: 10}.Offset())
	assert.Equal(t, math.MaxInt, farms.Page{Number: math.MaxInt, Size: 10}.Offset())
}

type recordedWrite struct{ op, outcome string }

type fakeMetrics struct {
	mu     sync.Mutex
	writes []recordedWrite
}

func (m *fakeMetrics) ObserveWrite(op, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, recordedWrite{op, outcome})
}

func TestMetrics_Outcomes(t *testing.T) {
	m := &fakeMetrics{}
	svc := farms.NewService(memory.NewStore(), farms.Options{Metrics: m})
	ctx := context.Background()

	f, err := svc.CreateFarm(ctx, "u1", sunnyInput())
	require.NoError(t, err)
	_, err = svc.CreateAnimal(ctx, "u1", farms.CreateAnimalInput{FarmID: f.ID, TypeName: "Pig", AnimalNumber: "101"})
	require.Error(t, err)
	_, err = svc.CreateAnimal(ctx, "u1", farms.CreateAnimalInput{FarmID: f.ID, TypeName: "Pig", AnimalNumber: "103"})
	require.NoError(t, err)
	_, err = svc.CreateAnimal(ctx, "u1", farms.CreateAnimalInput{FarmID: f.ID, TypeName: "Pig", AnimalNumber: "104"})
	require.Error(t, err)

	assert.Equal(t, []recordedWrite{
		{"create_farm", "ok"},
		{"create_animal", "duplicate"},
		{"create_animal", "ok"},
		{"create_animal", "capacity"},
	}, m.writes)
}
