package socketcan

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.einride.tech/can"
)

func TestBufferToCANFrame(t *testing.T) {
	canFrame := new(can.Frame)
	rawBuffer := []byte{1, 4, 0, 0, 6, 0, 0, 0, 6, 0, 53, 154, 238, 89, 0, 0}

	require.NoError(t, BufferToCANFrame(rawBuffer, canFrame))

	assert.Equal(t, uint32(0x401), canFrame.ID, "CAN frame ID was not equal")
	assert.Equal(t, uint8(6), canFrame.Length, "CAN frame length was not equal")
	assert.Equal(t, can.Data{6, 0, 53, 154, 238, 89, 0, 0}, canFrame.Data)
	assert.False(t, canFrame.IsExtended)
}

func TestBufferToCANFrameExtended(t *testing.T) {
	canFrame := new(can.Frame)
	rawBuffer := []byte{0x78, 0x56, 0x34, 0x92, 8, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8}

	require.NoError(t, BufferToCANFrame(rawBuffer, canFrame))
	assert.True(t, canFrame.IsExtended)
	assert.Equal(t, uint32(0x12345678), canFrame.ID)
}

func TestBufferToCANFrameErrors(t *testing.T) {
	canFrame := new(can.Frame)

	assert.Error(t, BufferToCANFrame([]byte{1, 2, 3}, canFrame))
	assert.Error(t, BufferToCANFrame([]byte{1, 4, 0, 0, 9, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, canFrame))
	assert.Equal(t, ErrErrorFrame, BufferToCANFrame([]byte{0, 0, 0, 0x20, 8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, canFrame))
}

func TestFrameIdentity(t *testing.T) {
	frame := can.Frame{ID: 0x5F3, Length: 8, Data: can.Data{1, 2, 3, 4, 5, 6, 7, 8}}
	buffer := make([]byte, FrameSize)

	FrameToBuffer(&frame, buffer)

	var decoded can.Frame
	require.NoError(t, BufferToCANFrame(buffer, &decoded))
	assert.Equal(t, frame, decoded)
}

func TestReader(t *testing.T) {
	var capture bytes.Buffer
	buffer := make([]byte, FrameSize)

	FrameToBuffer(&can.Frame{ID: 0x5F0, Length: 8, Data: can.Data{0, 1}}, buffer)
	capture.Write(buffer)
	capture.Write([]byte{0, 0, 0, 0x20, 8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	FrameToBuffer(&can.Frame{ID: 0x5F1, Length: 8, Data: can.Data{0, 2}}, buffer)
	capture.Write(buffer)
	capture.Write([]byte{1, 2, 3})

	r := NewReader(&capture)

	frame, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x5F0), frame.ID)

	frame, err = r.Next()
	require.NoError(t, err, "error frames are skipped")
	assert.Equal(t, uint32(0x5F1), frame.ID)

	_, err = r.Next()
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)

	_, err = NewReader(bytes.NewReader(nil)).Next()
	assert.Equal(t, io.EOF, err)
}
