package controllers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDisplayName(t *testing.T) {
	assert.Equal(t, "El nombre es requerido", ValidateDisplayName("   "))
	assert.Equal(t, "El nombre debe tener al menos 2 caracteres", ValidateDisplayName("A"))
	assert.Equal(t, "El nombre no puede tener más de 50 caracteres", ValidateDisplayName(strings.Repeat("ñ", 51)))
	assert.Empty(t, ValidateDisplayName("Ana"))
	assert.Empty(t, ValidateDisplayName(strings.Repeat("ñ", 50)))
}
