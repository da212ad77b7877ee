package ptrx_test

import (
	"testing"

	"github.com/Abraxas-365/sentinel/pkg/ptrx"
	"github.com/stretchr/testify/assert"
)

func TestPtr(t *testing.T) {
	p := ptrx.Ptr("hello")
	assert.Equal(t, "hello", *p)
}

func TestDerefOr(t *testing.T) {
	assert.Equal(t, "set", ptrx.DerefOr(ptrx.Ptr("set"), "fallback"))
	assert.Equal(t, "fallback", ptrx.DerefOr[string](nil, "fallback"))
}
