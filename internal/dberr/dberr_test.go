package dberr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reactivedb/sqlcore/internal/dberr"
)

func TestDbErrorUnwrap(t *testing.T) {
	sentinel := errors.New("disk I/O error")
	err := dberr.Db("Failed to execute statement", dberr.PhaseExec, sentinel)
	assert.ErrorIs(t, err, sentinel)
}

func TestArgMismatchMessage(t *testing.T) {
	err := dberr.ArgMismatch("select * from t where id = ?", 1, 2)
	assert.Contains(t, err.Error(), "expected 1, got 2")
}

func TestMigrationPreconditionMessage(t *testing.T) {
	err := dberr.MigrationPrecondition(3, 1)
	assert.Contains(t, err.Error(), "expected user_version=3")
	assert.Contains(t, err.Error(), "found 1")
}
