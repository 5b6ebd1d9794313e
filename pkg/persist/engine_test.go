package persist_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/shelf/pkg/persist"
	"github.com/mesh-intelligence/shelf/pkg/query"
	"github.com/mesh-intelligence/shelf/pkg/schema"
)

type person struct {
	ID        int64     `db:"id,pk,auto"`
	Name      string    `db:"name,notnull"`
	Email     string    `db:"email"`
	Age       int       `db:"age"`
	Bio       *string   `db:"bio"`
	CreatedAt time.Time `db:"created_at"`
}

type note struct {
	Key  string `db:"key,pk,gen"`
	Body string `db:"body"`
}

var (
	personTable = schema.MustRegister[person]("person")
	noteTable   = schema.MustRegister[note]("note")
)

func newTestConn(t *testing.T, opts ...persist.Option) *persist.Connection {
	t.Helper()
	conn, err := persist.Open(persist.Config{
		Driver:  "sqlite",
		DSN:     filepath.Join(t.TempDir(), "shelf.db"),
		Dialect: "sqlite",
	}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	for _, tbl := range []*schema.Table{personTable, noteTable} {
		_, err = conn.Exec(schema.CreateTableSQL(tbl, schema.DialectSQLite))
		require.NoError(t, err)
	}
	return conn
}

func newPersonRepo(t *testing.T, opts ...persist.Option) *persist.Repository[person] {
	t.Helper()
	repo, err := persist.NewRepository[person](newTestConn(t, opts...))
	require.NoError(t, err)
	return repo
}

func seedPeople(t *testing.T, repo *persist.Repository[person], people ...person) {
	t.Helper()
	for i := range people {
		_, err := repo.Insert(&people[i], false)
		require.NoError(t, err)
	}
}

func strptr(s string) *string { return &s }

func TestInsertAndFindRoundTrip(t *testing.T) {
	repo := newPersonRepo(t)

	created := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	alice := person{
		Name:      "Alice",
		Email:     "a@x.com",
		Age:       30,
		Bio:       strptr("likes databases"),
		CreatedAt: created,
	}
	_, err := repo.Insert(&alice, false)
	require.NoError(t, err)
	require.NotZero(t, alice.ID, "auto key backfilled from the insert")

	var got person
	require.NoError(t, repo.Find(&got, alice.ID))
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, 30, got.Age)
	require.NotNil(t, got.Bio)
	assert.Equal(t, "likes databases", *got.Bio)
	assert.True(t, got.CreatedAt.Equal(created), "timestamp survives the round trip")
}

func TestInsertFillsGeneratedKey(t *testing.T) {
	conn := newTestConn(t)
	repo, err := persist.NewRepository[note](conn)
	require.NoError(t, err)

	n := note{Body: "hello"}
	_, err = repo.Insert(&n, false)
	require.NoError(t, err)
	require.NotEmpty(t, n.Key)
	assert.Len(t, n.Key, 36, "UUID text form")

	var got note
	require.NoError(t, repo.Find(&got, n.Key))
	assert.Equal(t, "hello", got.Body)
}

func TestUpdateIsIdempotent(t *testing.T) {
	repo := newPersonRepo(t)
	p := person{Name: "Alice", Email: "a@x.com", Age: 30}
	seedPeople(t, repo, p)

	var stored person
	require.NoError(t, repo.FindIfExists(&stored, int64(1)))
	stored.Age = 31

	for i := 0; i < 2; i++ {
		res, err := repo.Update(&stored, false)
		require.NoError(t, err)
		n, err := res.RowsAffected()
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	}

	var got person
	require.NoError(t, repo.Find(&got, int64(1)))
	assert.Equal(t, 31, got.Age)
	assert.EqualValues(t, 1, repo.CountAll(nil), "no extra rows created")
}

func TestUpdateRequiresPrimaryKey(t *testing.T) {
	repo := newPersonRepo(t)

	p := person{Name: "NoKey"}
	_, err := repo.Update(&p, false)
	assert.ErrorIs(t, err, persist.ErrMissingPrimaryKey)
	_, err = repo.Delete(&p)
	assert.ErrorIs(t, err, persist.ErrMissingPrimaryKey)
	assert.ErrorIs(t, repo.Select(&p), persist.ErrMissingPrimaryKey)
}

func TestSaveInsertsWhenKeyUnset(t *testing.T) {
	repo := newPersonRepo(t)

	p := person{Name: "Alice"}
	_, err := repo.Save(&p, false)
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.EqualValues(t, 1, repo.CountAll(nil))
}

func TestSaveUpdatesExistingRow(t *testing.T) {
	repo := newPersonRepo(t)
	seedPeople(t, repo, person{Name: "Alice", Age: 30})

	var p person
	require.NoError(t, repo.Find(&p, int64(1)))
	p.Age = 40
	_, err := repo.Save(&p, false)
	require.NoError(t, err)

	var got person
	require.NoError(t, repo.Find(&got, int64(1)))
	assert.Equal(t, 40, got.Age)
	assert.EqualValues(t, 1, repo.CountAll(nil), "save of an existing key stays an update")
}

func TestSaveFallsBackToInsert(t *testing.T) {
	repo := newPersonRepo(t)

	// Key set but no such row: the update matches nothing and the save
	// falls through to an insert keeping the explicit key.
	p := person{ID: 42, Name: "Ghost"}
	_, err := repo.Save(&p, false)
	require.NoError(t, err)

	var got person
	require.NoError(t, repo.Find(&got, int64(42)))
	assert.Equal(t, "Ghost", got.Name)
}

func TestDeleteRemovesRow(t *testing.T) {
	repo := newPersonRepo(t)
	seedPeople(t, repo, person{Name: "Alice"}, person{Name: "Bob"})

	var p person
	require.NoError(t, repo.Find(&p, int64(1)))
	res, err := repo.Delete(&p)
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	assert.ErrorIs(t, repo.Find(&p, int64(1)), persist.ErrNotFound)
	assert.EqualValues(t, 1, repo.CountAll(nil))
}

func TestFindNotFound(t *testing.T) {
	repo := newPersonRepo(t)

	var p person
	assert.ErrorIs(t, repo.Find(&p, int64(99)), persist.ErrNotFound)

	// The IfExists variant swallows the miss and leaves the instance alone.
	probe := person{Name: "untouched"}
	require.NoError(t, repo.FindIfExists(&probe, int64(99)))
	assert.Equal(t, "untouched", probe.Name)
}

func TestSelectReloadsEntity(t *testing.T) {
	repo := newPersonRepo(t)
	seedPeople(t, repo, person{Name: "Alice", Age: 30})

	var p person
	require.NoError(t, repo.Find(&p, int64(1)))
	p.Age = 99 // local drift, not written back
	require.NoError(t, repo.Select(&p))
	assert.Equal(t, 30, p.Age)

	gone := person{ID: 77}
	assert.ErrorIs(t, repo.Select(&gone), persist.ErrNotFound)
	require.NoError(t, repo.SelectIfExists(&gone))
}

func TestInsertExcludesNilFieldsByDefault(t *testing.T) {
	repo := newPersonRepo(t)
	seedPeople(t, repo, person{Name: "Alice", Bio: nil})

	var got person
	require.NoError(t, repo.Find(&got, int64(1)))
	assert.Nil(t, got.Bio)
}

func TestUpdateIncludeNullClearsColumn(t *testing.T) {
	repo := newPersonRepo(t)
	seedPeople(t, repo, person{Name: "Alice", Bio: strptr("old bio")})

	var p person
	require.NoError(t, repo.Find(&p, int64(1)))
	p.Bio = nil

	// Without includeNull the nil field is simply skipped.
	_, err := repo.Update(&p, false)
	require.NoError(t, err)
	var got person
	require.NoError(t, repo.Find(&got, int64(1)))
	require.NotNil(t, got.Bio)
	assert.Equal(t, "old bio", *got.Bio)

	// With includeNull the column is written as an explicit NULL.
	_, err = repo.Update(&p, true)
	require.NoError(t, err)
	require.NoError(t, repo.Find(&got, int64(1)))
	assert.Nil(t, got.Bio)
}

func TestInsertDuplicateKeyReportsQueryError(t *testing.T) {
	repo := newPersonRepo(t)

	p := person{ID: 1, Name: "Alice"}
	_, err := repo.Insert(&p, false)
	require.NoError(t, err)

	dup := person{ID: 1, Name: "Imposter"}
	_, err = repo.Insert(&dup, false)
	require.Error(t, err)
	var qe *persist.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "Repository.Insert", qe.Op)
	assert.NotEmpty(t, qe.SQL)
}

func TestFindAllSpecification(t *testing.T) {
	repo := newPersonRepo(t)
	seedPeople(t, repo,
		person{Name: "Alice", Email: "a@x.com"},
		person{Name: "Bob", Email: "alice@x.com"},
		person{Name: "Carl", Email: "c@x.com"},
	)

	// name = 'Alice' OR email = 'alice@x.com' matches the first two rows.
	spec := query.Where("name", query.OpEq, "Alice").
		AddOr("email", query.OpEq, "alice@x.com")
	page, err := repo.FindAll(spec, nil, query.NewSortable("id", query.Asc))
	require.NoError(t, err)

	entities := page.Entities()
	require.Len(t, entities, 2)
	assert.Equal(t, "Alice", entities[0].Name)
	assert.Equal(t, "Bob", entities[1].Name)
}

func TestFindAllNestedGroup(t *testing.T) {
	repo := newPersonRepo(t)
	seedPeople(t, repo,
		person{Name: "Alice", Age: 30},
		person{Name: "Alice", Age: 15},
		person{Name: "Bob", Age: 30},
		person{Name: "Alice", Age: 70},
	)

	// name = 'Alice' AND (age < 18 OR age >= 65): the group must bind
	// tighter than the leading AND.
	spec := query.Where("name", query.OpEq, "Alice").
		AddAndGroup(query.Where("age", query.OpLt, 18).
			AddOr("age", query.OpGtOrEq, 65))
	page, err := repo.FindAll(spec, nil, query.NewSortable("age", query.Asc))
	require.NoError(t, err)

	entities := page.Entities()
	require.Len(t, entities, 2)
	assert.Equal(t, 15, entities[0].Age)
	assert.Equal(t, 70, entities[1].Age)
}

func TestFindAllEmptySpecificationMatchesEverything(t *testing.T) {
	repo := newPersonRepo(t)
	seedPeople(t, repo, person{Name: "A"}, person{Name: "B"}, person{Name: "C"})

	page, err := repo.FindAll(nil, nil, nil)
	require.NoError(t, err)
	assert.Len(t, page.Entities(), 3)
	assert.EqualValues(t, 3, page.TotalMatches(), "unpaginated total is the fetched length")
}

func TestFindByFamily(t *testing.T) {
	repo := newPersonRepo(t)
	seedPeople(t, repo,
		person{Name: "Dup", Age: 10},
		person{Name: "Dup", Age: 20},
		person{Name: "Solo", Age: 30},
	)

	page, err := repo.FindBy("name", "Dup")
	require.NoError(t, err)
	assert.Len(t, page.Entities(), 2)

	one, err := repo.FindOneBy("name", "Solo")
	require.NoError(t, err)
	assert.Equal(t, 30, one.Age)

	_, err = repo.FindOneBy("name", "Nobody")
	assert.ErrorIs(t, err, persist.ErrNotFound)

	none, err := repo.FindOneByIfExists("name", "Nobody")
	require.NoError(t, err)
	assert.Nil(t, none)

	first, err := repo.FindFirstBy("name", "Dup")
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.ID)

	last, err := repo.FindLastBy("name", "Dup")
	require.NoError(t, err)
	assert.EqualValues(t, 2, last.ID)

	assert.EqualValues(t, 2, repo.CountBy("name", "Dup"))

	ok, err := repo.ExistsBy("name", "Solo")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.ExistsBy("name", "Nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	removed, err := repo.DeleteBy("name", "Dup")
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
	assert.EqualValues(t, 1, repo.CountAll(nil))
}

func TestCountAllWithSpecification(t *testing.T) {
	repo := newPersonRepo(t)
	seedPeople(t, repo,
		person{Name: "Alice", Age: 30},
		person{Name: "Bob", Age: 15},
		person{Name: "Carl", Age: 40},
	)

	assert.EqualValues(t, 3, repo.CountAll(nil))
	assert.EqualValues(t, 2, repo.CountAll(query.Where("age", query.OpGtOrEq, 18)))
}

func TestCountAllLenientOnFailure(t *testing.T) {
	repo := newPersonRepo(t)
	require.NoError(t, repo.Connection().Close())
	assert.Equal(t, persist.CountUnknown, repo.CountAll(nil))
}

func TestPassiveRecordsAreDetached(t *testing.T) {
	repo := newPersonRepo(t)
	seedPeople(t, repo, person{Name: "Alice"}, person{Name: "Bob"})

	page, err := repo.FindAll(nil, nil, query.NewSortable("id", query.Asc), query.Passive)
	require.NoError(t, err)
	records := page.Records()
	require.Len(t, records, 2)

	for _, rec := range records {
		assert.False(t, rec.Attached())
		_, err := rec.Save(false)
		assert.ErrorIs(t, err, persist.ErrNoConnection)
		_, err = rec.Update(false)
		assert.ErrorIs(t, err, persist.ErrNoConnection)
		_, err = rec.Delete()
		assert.ErrorIs(t, err, persist.ErrNoConnection)
	}
}

func TestAttachedRecordsWriteBack(t *testing.T) {
	repo := newPersonRepo(t)
	seedPeople(t, repo, person{Name: "Alice", Age: 30})

	page, err := repo.FindAll(nil, nil, nil)
	require.NoError(t, err)
	records := page.Records()
	require.Len(t, records, 1)
	require.True(t, records[0].Attached())

	records[0].Entity().Age = 44
	_, err = records[0].Update(false)
	require.NoError(t, err)

	var got person
	require.NoError(t, repo.Find(&got, int64(1)))
	assert.Equal(t, 44, got.Age)
}

func TestOperationsAfterClose(t *testing.T) {
	repo := newPersonRepo(t)
	require.NoError(t, repo.Connection().Close())

	p := person{ID: 1, Name: "Alice"}
	_, err := repo.Insert(&p, false)
	assert.ErrorIs(t, err, persist.ErrNoConnection)
	_, err = repo.Update(&p, false)
	assert.ErrorIs(t, err, persist.ErrNoConnection)
	_, err = repo.Save(&p, false)
	assert.ErrorIs(t, err, persist.ErrNoConnection)
	_, err = repo.Delete(&p)
	assert.ErrorIs(t, err, persist.ErrNoConnection)
	assert.ErrorIs(t, repo.Find(&p, int64(1)), persist.ErrNoConnection)
	_, err = repo.FindAll(nil, nil, nil)
	assert.ErrorIs(t, err, persist.ErrNoConnection)
}

func TestNewRepositoryErrors(t *testing.T) {
	_, err := persist.NewRepository[person](nil)
	assert.ErrorIs(t, err, persist.ErrNoConnection)

	type unregistered struct {
		ID int64 `db:"id,pk"`
	}
	conn := newTestConn(t)
	_, err = persist.NewRepository[unregistered](conn)
	assert.ErrorIs(t, err, schema.ErrNotRegistered)
}

func TestFindAllRejectsBadSpecification(t *testing.T) {
	repo := newPersonRepo(t)

	_, err := repo.FindAll(query.Where("ghost", query.OpEq, 1), nil, nil)
	assert.ErrorIs(t, err, query.ErrInvalidSpecification)

	_, err = repo.FindAll(nil, nil, query.NewSortable("ghost", query.Asc))
	assert.ErrorIs(t, err, query.ErrInvalidArgument)
}

func TestTransactionRollbackAndCommit(t *testing.T) {
	repo := newPersonRepo(t)
	conn := repo.Connection()

	require.NoError(t, conn.Begin())
	assert.ErrorIs(t, conn.Begin(), persist.ErrTxActive)
	seedPeople(t, repo, person{Name: "Alice"})
	require.NoError(t, conn.Rollback())
	assert.EqualValues(t, 0, repo.CountAll(nil), "rolled-back insert leaves no row")

	require.NoError(t, conn.Begin())
	seedPeople(t, repo, person{Name: "Bob"})
	require.NoError(t, conn.Commit())
	assert.EqualValues(t, 1, repo.CountAll(nil))

	assert.ErrorIs(t, conn.Commit(), persist.ErrNoTx)
	assert.ErrorIs(t, conn.Rollback(), persist.ErrNoTx)
}
