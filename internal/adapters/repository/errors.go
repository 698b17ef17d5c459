package repository

import "errors"

var (
	// ErrConnect indicates the database could not be opened or pinged.
	ErrConnect = errors.New("failed to connect to database")

	// ErrInsert indicates a batch write failed; the transaction is rolled
	// back and the table is left as it was.
	ErrInsert = errors.New("failed to insert batch")

	// ErrQuery indicates a read or update against the warehouse failed.
	ErrQuery = errors.New("query failed")

	// ErrUnsafeIdentifier indicates a table or column name failed the
	// identifier allow-list and was never interpolated into SQL.
	ErrUnsafeIdentifier = errors.New("unsafe SQL identifier")
)
