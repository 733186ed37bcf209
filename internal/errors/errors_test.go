package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type classified struct{ class error }

func (c *classified) Error() string        { return "classified" }
func (c *classified) Is(target error) bool { return target == c.class }

func TestClassesSurviveWrapping(t *testing.T) {
	err := Wrapf(&classified{class: ErrSyntax}, "library %s", "cells.lef")

	assert.True(t, Is(err, ErrSyntax))
	assert.False(t, Is(err, ErrMissingInput))
	assert.True(t, IsFileScoped(err))
	assert.False(t, IsFatalForRun(err))
	assert.Contains(t, err.Error(), "library cells.lef")
}

func TestMissingInputIsFatal(t *testing.T) {
	err := WithHint(&classified{class: ErrMissingInput}, "set PDK_ROOT")

	assert.True(t, IsFatalForRun(err))
	assert.False(t, IsFileScoped(err))
	assert.Equal(t, []string{"set PDK_ROOT"}, GetAllHints(err))
}

func TestNilIsNeverClassified(t *testing.T) {
	assert.False(t, IsFatalForRun(nil))
	assert.False(t, IsFileScoped(nil))
}
