package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebots/station/controller"
)

func TestVirtualPotsStartCentered(t *testing.T) {
	pots := NewVirtualPots(4095)

	x, err := pots.Sample(controller.AxisX)
	require.NoError(t, err)
	y, err := pots.Sample(controller.AxisY)
	require.NoError(t, err)

	assert.Equal(t, uint16(2047), x)
	assert.Equal(t, uint16(2047), y)
}

func TestVirtualPotsSetAndCenter(t *testing.T) {
	pots := NewVirtualPots(4095)

	pots.set(controller.AxisX, 4095)
	pots.set(controller.AxisY, 0)

	x, _ := pots.Sample(controller.AxisX)
	y, _ := pots.Sample(controller.AxisY)
	assert.Equal(t, uint16(4095), x)
	assert.Equal(t, uint16(0), y)

	pots.Center()
	x, _ = pots.Sample(controller.AxisX)
	y, _ = pots.Sample(controller.AxisY)
	assert.Equal(t, uint16(2047), x)
	assert.Equal(t, uint16(2047), y)
}
