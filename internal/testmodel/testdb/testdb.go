// Package testdb creates in-memory SQLite databases holding the storage
// tables and views of a model, seeded with the library fixture.
package testdb

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/relmap/dialect"
	sqlschema "github.com/syssam/relmap/dialect/sql/schema"
	"github.com/syssam/relmap/internal/testmodel"
	"github.com/syssam/relmap/schema"
)

// Ids of the seeded objects and groups.
var (
	Ann  = uuid.MustParse("00000000-0000-0000-0000-00000000a001") // Person
	Carl = uuid.MustParse("00000000-0000-0000-0000-00000000a002") // Person
	Bob  = uuid.MustParse("00000000-0000-0000-0000-00000000a003") // Author

	XFiles  = uuid.MustParse("00000000-0000-0000-0000-00000000b001") // Tag "x-files"
	Classic = uuid.MustParse("00000000-0000-0000-0000-00000000b002") // Tag "classic"

	GoBook  = uuid.MustParse("00000000-0000-0000-0000-00000000c001") // Book, 2015
	OldBook = uuid.MustParse("00000000-0000-0000-0000-00000000c002") // Book, 1990, Closed
	NetBook = uuid.MustParse("00000000-0000-0000-0000-00000000c003") // Ebook, 2020
	Monthly = uuid.MustParse("00000000-0000-0000-0000-00000000c004") // Magazine

	GoodReview = uuid.MustParse("00000000-0000-0000-0000-00000000d001") // Review

	Staff  = uuid.MustParse("00000000-0000-0000-0000-00000000e001") // Group
	Public = uuid.MustParse("00000000-0000-0000-0000-00000000e002") // Group
)

// Open returns an empty database holding the tables and views of the snapshot.
func Open(t testing.TB, snap *schema.Snapshot) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Each connection of an in-memory database is a distinct database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	Create(t, db, snap)
	return db
}

// Create creates the tables and views of the snapshot in a SQLite database.
func Create(t testing.TB, db *sql.DB, snap *schema.Snapshot) {
	t.Helper()
	for _, tbl := range sqlschema.Tables(snap) {
		stmt, err := sqlschema.CreateTableSQL(dialect.SQLite, tbl)
		require.NoError(t, err)
		_, err = db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	views, err := sqlschema.BuildViews(snap)
	require.NoError(t, err)
	for _, v := range views.All() {
		stmt, err := sqlschema.CreateViewSQL(dialect.SQLite, v)
		require.NoError(t, err)
		_, err = db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
}

// Library returns a database holding the library model and its fixture:
//
//	People:   Ann, Carl          Authors: Bob (pseudonym "B.")
//	Tags:     x-files (red, owned by Ann), classic (owned by Bob)
//	Books:    Go (2015, Open, by Ann, tagged x-files and classic, readable by Staff)
//	          Old (1990, Closed, by Bob, edited by Carl)
//	Ebooks:   Net (2020, Open, by Ann, tagged classic, readable by Public)
//	Magazines: Monthly (issue 7, published by Bob, readable by Staff and Public)
//	Reviews:  Good (rating 5, on Go by Ann)
func Library(t testing.TB) *sql.DB {
	t.Helper()
	db := Open(t, testmodel.Library())
	Seed(t, db)
	return db
}

// Seed inserts the library fixture.
func Seed(t testing.TB, db *sql.DB) {
	t.Helper()
	exec := func(query string, args ...any) {
		t.Helper()
		_, err := db.Exec(query, args...)
		require.NoError(t, err, query)
	}
	exec(`INSERT INTO People (Id, Name) VALUES (?, ?), (?, ?)`,
		Ann.String(), "Ann", Carl.String(), "Carl")
	exec(`INSERT INTO Authors (Id, Name, Pseudonym) VALUES (?, ?, ?)`,
		Bob.String(), "Bob", "B.")
	exec(`INSERT INTO Tags (Id, Name, Color, Owner, Owner_TypeName) VALUES (?, ?, ?, ?, ?), (?, ?, NULL, ?, ?)`,
		XFiles.String(), "x-files", "red", Ann.String(), testmodel.Person,
		Classic.String(), "classic", Bob.String(), testmodel.Author)
	exec(`INSERT INTO Books (Id, Title, Status, Price, Available, PublishedYear, Author, Author_TypeName) VALUES
		(?, 'Go', 'Open', 30.0, 1, 2015, ?, ?),
		(?, 'Old', 'Closed', 10.0, 0, 1990, ?, ?)`,
		GoBook.String(), Ann.String(), testmodel.Person,
		OldBook.String(), Bob.String(), testmodel.Author)
	exec(`INSERT INTO Ebooks (Id, Title, Status, Price, Available, PublishedYear, Author, Author_TypeName, Format) VALUES
		(?, 'Net', 'Open', 5.0, 1, 2020, ?, ?, 'pdf')`,
		NetBook.String(), Ann.String(), testmodel.Person)
	exec(`INSERT INTO Magazines (Id, Title, Status, Price, Available, Issue, Publisher, Publisher_TypeName) VALUES
		(?, 'Monthly', 'Open', 3.5, 1, 7, ?, ?)`,
		Monthly.String(), Bob.String(), testmodel.Author)
	exec(`INSERT INTO Reviews (Id, Rating, Subject, Subject_TypeName, Reviewer, Reviewer_TypeName) VALUES (?, 5, ?, ?, ?, ?)`,
		GoodReview.String(), GoBook.String(), testmodel.Book, Ann.String(), testmodel.Person)
	exec(`INSERT INTO Books_Keywords (ParentId, Position, Value) VALUES (?, 0, 'golang'), (?, 1, '50%_off')`,
		GoBook.String(), GoBook.String())
	exec(`INSERT INTO Ebooks_Keywords (ParentId, Position, Value) VALUES (?, 0, 'network')`,
		NetBook.String())
	exec(`INSERT INTO Books_AllowedReadGroups (ParentId, Position, Value) VALUES (?, 0, ?)`,
		GoBook.String(), Staff.String())
	exec(`INSERT INTO Ebooks_AllowedReadGroups (ParentId, Position, Value) VALUES (?, 0, ?)`,
		NetBook.String(), Public.String())
	exec(`INSERT INTO Magazines_AllowedReadGroups (ParentId, Position, Value) VALUES (?, 0, ?), (?, 1, ?)`,
		Monthly.String(), Staff.String(), Monthly.String(), Public.String())
	exec(`INSERT INTO Relations (ParentTable, ParentId, ParentField, ChildTable, ChildId, Position) VALUES
		('Books', ?, 'Tags', 'Tags', ?, 0),
		('Books', ?, 'Tags', 'Tags', ?, 1),
		('Ebooks', ?, 'Tags', 'Tags', ?, 0),
		('Books', ?, 'Editor', 'People', ?, 0)`,
		GoBook.String(), XFiles.String(),
		GoBook.String(), Classic.String(),
		NetBook.String(), Classic.String(),
		OldBook.String(), Carl.String())
}

// IDs reads the first column of every row returned by the query.
func IDs(t testing.TB, db *sql.DB, query string, args ...any) []string {
	t.Helper()
	rows, err := db.Query(query, args...)
	require.NoError(t, err, query)
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id sql.NullString
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id.String)
	}
	require.NoError(t, rows.Err())
	return ids
}
