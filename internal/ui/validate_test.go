package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/autoumpire/internal/model"
)

func TestValidateText(t *testing.T) {
	c := Text{ID: "t", Required: true}
	assert.ErrorIs(t, Validate(c, "  "), ErrRequired)
	assert.NoError(t, Validate(c, "x"))

	bad := errors.New("bad")
	c.Validate = func(string) error { return bad }
	assert.ErrorIs(t, Validate(Searchable{c}, "x"), bad)
}

func TestValidatePseudonymList(t *testing.T) {
	now := time.Now()
	c := PseudonymList{ID: "p"}
	assert.ErrorIs(t, Validate(c, []PseudonymEntry{{Name: ""}}), model.ErrBlankPseudonym)
	assert.ErrorIs(t, Validate(c, []PseudonymEntry{{Name: "a", ValidFrom: &now}}), model.ErrInitialPseudonym)
	assert.NoError(t, Validate(c, []PseudonymEntry{{Name: "a"}, {Name: "b", ValidFrom: &now}}))
}

func TestParsers(t *testing.T) {
	d, err := ParseDatetime("2024-01-08 09:30", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 8, 9, 30, 0, 0, time.UTC), *d)
	assert.Equal(t, "2024-01-08 09:30", FormatDatetime(d, time.UTC))

	_, err = ParseDatetime("yesterday", time.UTC)
	assert.ErrorIs(t, err, model.ErrInvalidDatetime)

	blank, err := ParseDatetime(" ", time.UTC)
	require.NoError(t, err)
	assert.Nil(t, blank)

	n, err := ParseInteger("42")
	require.NoError(t, err)
	assert.Equal(t, 42, *n)
	_, err = ParseInteger("4.2")
	assert.ErrorIs(t, err, model.ErrInvalidInteger)

	f, err := ParseFloat("2.5")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, f, 1e-9)
	_, err = ParseFloat("x")
	assert.ErrorIs(t, err, model.ErrInvalidFloat)
}
