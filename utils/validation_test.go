package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("+54 9 341 555-0000"))
	assert.True(t, ValidatePhone("(341) 5550000"))
	assert.False(t, ValidatePhone("0341"))
	assert.False(t, ValidatePhone("phone"))
	assert.False(t, ValidatePhone(""))
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("ana@example.com"))
	assert.False(t, ValidateEmail("ana@example"))
	assert.False(t, ValidateEmail("ana example@x.com"))
}

func TestCleanPhone(t *testing.T) {
	assert.Equal(t, "+5493415550000", CleanPhone("+54 9 (341) 555-0000"))
}
