package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepNames(t *testing.T) {
	var names []string
	Given(t, "a pool", func(t *testing.T) {
		names = append(names, t.Name())
		When(t, "a deposit", func(t *testing.T) {
			names = append(names, t.Name())
			Then(t, "owed grows", func(t *testing.T) {
				names = append(names, t.Name())
			})
		})
	})

	assert.Len(t, names, 3)
	assert.True(t, strings.HasSuffix(names[2], "/Given_a_pool/When_a_deposit/Then_owed_grows"), names[2])
}
