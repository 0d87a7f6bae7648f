package socketcan

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
	"go.einride.tech/can"
)

// Constants taken from Linux kernel C headers

// ExtendedFrameFormatFlag EFF/SFF is set in the MSB
const ExtendedFrameFormatFlag uint32 = uint32(0x80000000)

// RemoteTransmissionRequestFlag remote transmission request
const RemoteTransmissionRequestFlag uint32 = uint32(0x40000000)

// ErrorFlag error message frame
const ErrorFlag uint32 = uint32(0x20000000)

// StandardFrameFormatMask is a mask for standard frame format (SFF)
const StandardFrameFormatMask uint32 = uint32(0x000007FF)

// ExtendedFrameFormatMask is a mask for extended frame format (EFF)
const ExtendedFrameFormatMask uint32 = uint32(0x1FFFFFFF)

// FrameSize is the size of a struct can_frame record
const FrameSize = 16

// ErrErrorFrame is returned for error frames, which carry no message data
var ErrErrorFrame = errors.New("error frame")

// BufferToCANFrame converts a raw struct can_frame record, as captured from a
// SocketCAN interface, to a frame
func BufferToCANFrame(buffer []byte, frame *can.Frame) error {
	// Taken from the Linux kernel source:
	//   include/uapi/linux/can.h
	//
	// struct can_frame {
	//   canid_t can_id;  [> 32 bit CAN_ID + EFF/RTR/ERR flags <]
	//   __u8    can_dlc; [> frame payload length in byte (0 .. CAN_MAX_DLEN) <]
	//   __u8    __pad;   [> padding <]
	//   __u8    __res0;  [> reserved / padding <]
	//   __u8    __res1;  [> reserved / padding <]
	//   __u8    data[CAN_MAX_DLEN] __attribute__((aligned(8)));
	// };
	if len(buffer) < FrameSize {
		return errors.Newf("short can_frame: %d bytes", len(buffer))
	}

	canID := binary.LittleEndian.Uint32(buffer[0:4])
	if canID&ErrorFlag != 0 {
		return ErrErrorFrame
	}

	frame.IsExtended = canID&ExtendedFrameFormatFlag != 0
	frame.IsRemote = canID&RemoteTransmissionRequestFlag != 0
	if frame.IsExtended {
		frame.ID = canID & ExtendedFrameFormatMask
	} else {
		frame.ID = canID & StandardFrameFormatMask
	}

	frame.Length = buffer[4]
	if int(frame.Length) > len(frame.Data) {
		return errors.Newf("frame 0x%X: invalid length %d", frame.ID, frame.Length)
	}

	frame.Data = can.Data{}
	copy(frame.Data[:], buffer[8:8+int(frame.Length)])
	return nil
}

// FrameToBuffer converts a frame to a struct can_frame record
func FrameToBuffer(frame *can.Frame, buffer []byte) {
	canID := frame.ID
	if frame.IsExtended {
		canID |= ExtendedFrameFormatFlag
	}
	if frame.IsRemote {
		canID |= RemoteTransmissionRequestFlag
	}
	binary.LittleEndian.PutUint32(buffer[0:4], canID)
	buffer[4] = frame.Length
	buffer[5], buffer[6], buffer[7] = 0, 0, 0

	copy(buffer[8:FrameSize], frame.Data[:])
}

// Reader reads consecutive can_frame records from a capture
type Reader struct {
	r   io.Reader
	buf [FrameSize]byte
}

// NewReader creates a Reader over r
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next returns the next data frame, skipping error frames. It returns io.EOF
// at the end of the capture.
func (r *Reader) Next() (can.Frame, error) {
	for {
		var frame can.Frame
		if _, err := io.ReadFull(r.r, r.buf[:]); err != nil {
			if err == io.ErrUnexpectedEOF {
				return frame, errors.Wrap(err, "truncated can_frame record")
			}
			return frame, err
		}

		err := BufferToCANFrame(r.buf[:], &frame)
		if err == ErrErrorFrame {
			continue
		}
		return frame, err
	}
}
