package fixtures

import (
	"testing"

	"github.com/malivvan/emvcap/apdu"
	"github.com/malivvan/emvcap/cap"
	"github.com/stretchr/testify/assert"
)

func TestFixturesProduceExpectedCAPValues(t *testing.T) {
	r1, err := apdu.Unmarshal(GACResponseRMTF1, 0x90, 0x00)
	assert.NoError(t, err)
	v1, err := cap.ComputeCAPValue(r1, BarclaysIPB, nil)
	assert.NoError(t, err)
	assert.Equal(t, GACResponseRMTF1CAPCode, v1)

	r2, err := apdu.Unmarshal(GACResponseRMTF2, 0x90, 0x00)
	assert.NoError(t, err)
	v2, err := cap.ComputeCAPValue(r2, BarclaysIPB, nil)
	assert.NoError(t, err)
	assert.Equal(t, GACResponseRMTF2CAPCode, v2)
}
