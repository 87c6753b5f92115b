// Package codec implements the Slacker wire codec: pure functions that
// parse a byte buffer into at most one packet, and serialize a packet back
// into bytes. Grounded on protocol.Encode/protocol.Decode from the teacher
// repo, but restructured around a []byte buffer instead of io.ReadFull so
// that decoding is restartable: repeatedly calling Decode on the same
// buffer as bytes arrive yields each packet exactly once, in wire order,
// with no duplication and no loss (spec §4.1, §8).
package codec

import (
	"encoding/binary"

	"slacker/packet"
	"slacker/slackererrors"
)

// headerSize is the fixed 6-byte Slacker header: version(1) + serial_id(4) + packet_type(1).
const headerSize = 6

// Decode attempts to parse exactly one packet from the front of buf.
//
// It returns (nil, 0, nil) when buf does not yet hold a complete packet —
// "incomplete", not an error — and consumes nothing in that case, so the
// caller can safely append more bytes and call Decode again. It returns a
// non-nil error only when the wire format itself is malformed (an unknown
// packet_type); that is fatal to the connection per spec §7. On success it
// returns the decoded packet and the number of bytes consumed from the
// front of buf; the returned packet never retains a reference into buf —
// all variable-length fields are copied into owned slices.
func Decode(buf []byte) (*packet.Packet, int, error) {
	if len(buf) < headerSize {
		return nil, 0, nil
	}

	hdr := packet.Header{
		Version:    buf[0],
		SerialID:   int32(binary.BigEndian.Uint32(buf[1:5])),
		PacketType: packet.Type(buf[5]),
	}

	body := buf[headerSize:]

	switch hdr.PacketType {
	case packet.TypeRequest:
		return decodeRequest(hdr, body)
	case packet.TypeResponse:
		return decodeResponse(hdr, body)
	case packet.TypePing:
		return &packet.Packet{Header: hdr}, headerSize, nil
	case packet.TypePong:
		return &packet.Packet{Header: hdr}, headerSize, nil
	case packet.TypeError:
		return decodeError(hdr, body)
	case packet.TypeInspectRequest:
		return decodeInspectRequest(hdr, body)
	case packet.TypeInspectResponse:
		return decodeInspectResponse(hdr, body)
	case packet.TypeInterrupt:
		return decodeInterrupt(hdr, body)
	default:
		return nil, 0, slackererrors.ErrUnknownPacketType
	}
}

func decodeRequest(hdr packet.Header, body []byte) (*packet.Packet, int, error) {
	// content_type:u8, fname_len:u16, fname:bytes, args_len:u32, args:bytes
	if len(body) < 3 {
		return nil, 0, nil
	}
	contentType := body[0]
	fnameLen := int(binary.BigEndian.Uint16(body[1:3]))
	rest := body[3:]
	if len(rest) < fnameLen {
		return nil, 0, nil
	}
	fname := string(rest[:fnameLen])
	rest = rest[fnameLen:]

	if len(rest) < 4 {
		return nil, 0, nil
	}
	argsLen := int(binary.BigEndian.Uint32(rest[:4]))
	rest = rest[4:]
	if len(rest) < argsLen {
		return nil, 0, nil
	}
	args := append([]byte(nil), rest[:argsLen]...)

	consumed := headerSize + 3 + fnameLen + 4 + argsLen
	return &packet.Packet{
		Header:  hdr,
		Request: &packet.RequestBody{ContentType: contentType, Fname: fname, Args: args},
	}, consumed, nil
}

func decodeResponse(hdr packet.Header, body []byte) (*packet.Packet, int, error) {
	// content_type:u8, result_code:u8, data_len:u32, data:bytes
	if len(body) < 6 {
		return nil, 0, nil
	}
	contentType := body[0]
	resultCode := body[1]
	dataLen := int(binary.BigEndian.Uint32(body[2:6]))
	rest := body[6:]
	if len(rest) < dataLen {
		return nil, 0, nil
	}
	data := append([]byte(nil), rest[:dataLen]...)

	consumed := headerSize + 6 + dataLen
	return &packet.Packet{
		Header:   hdr,
		Response: &packet.ResponseBody{ContentType: contentType, ResultCode: resultCode, Data: data},
	}, consumed, nil
}

func decodeError(hdr packet.Header, body []byte) (*packet.Packet, int, error) {
	// result_code:u8
	if len(body) < 1 {
		return nil, 0, nil
	}
	consumed := headerSize + 1
	return &packet.Packet{
		Header: hdr,
		Error:  &packet.ErrorBody{ResultCode: body[0]},
	}, consumed, nil
}

func decodeInspectRequest(hdr packet.Header, body []byte) (*packet.Packet, int, error) {
	// inspect_type:u8, data_len:u16, data:bytes
	if len(body) < 3 {
		return nil, 0, nil
	}
	inspectType := body[0]
	dataLen := int(binary.BigEndian.Uint16(body[1:3]))
	rest := body[3:]
	if len(rest) < dataLen {
		return nil, 0, nil
	}
	data := append([]byte(nil), rest[:dataLen]...)

	consumed := headerSize + 3 + dataLen
	return &packet.Packet{
		Header:         hdr,
		InspectRequest: &packet.InspectRequestBody{InspectType: inspectType, Data: data},
	}, consumed, nil
}

func decodeInspectResponse(hdr packet.Header, body []byte) (*packet.Packet, int, error) {
	// data_len:u16, data:bytes
	if len(body) < 2 {
		return nil, 0, nil
	}
	dataLen := int(binary.BigEndian.Uint16(body[0:2]))
	rest := body[2:]
	if len(rest) < dataLen {
		return nil, 0, nil
	}
	data := append([]byte(nil), rest[:dataLen]...)

	consumed := headerSize + 2 + dataLen
	return &packet.Packet{
		Header:          hdr,
		InspectResponse: &packet.InspectResponseBody{Data: data},
	}, consumed, nil
}

func decodeInterrupt(hdr packet.Header, body []byte) (*packet.Packet, int, error) {
	// target_serial_id:i32
	if len(body) < 4 {
		return nil, 0, nil
	}
	target := int32(binary.BigEndian.Uint32(body[0:4]))
	consumed := headerSize + 4
	return &packet.Packet{
		Header:    hdr,
		Interrupt: &packet.InterruptBody{TargetSerialID: target},
	}, consumed, nil
}

// Encode serializes pkt into a freshly allocated byte slice. It never
// fails on a structurally valid packet built through the packet package's
// constructors; an unrecognized PacketType is a programmer error and
// panics rather than returning a silently corrupt frame.
func Encode(pkt *packet.Packet) []byte {
	var buf []byte
	buf = appendHeader(buf, pkt.Header)

	switch pkt.Header.PacketType {
	case packet.TypeRequest:
		r := pkt.Request
		buf = append(buf, r.ContentType)
		buf = appendUint16Prefixed(buf, []byte(r.Fname))
		buf = appendUint32Prefixed(buf, r.Args)
	case packet.TypeResponse:
		r := pkt.Response
		buf = append(buf, r.ContentType, r.ResultCode)
		buf = appendUint32Prefixed(buf, r.Data)
	case packet.TypePing, packet.TypePong:
		// empty body
	case packet.TypeError:
		buf = append(buf, pkt.Error.ResultCode)
	case packet.TypeInspectRequest:
		r := pkt.InspectRequest
		buf = append(buf, r.InspectType)
		buf = appendUint16Prefixed(buf, r.Data)
	case packet.TypeInspectResponse:
		buf = appendUint16Prefixed(buf, pkt.InspectResponse.Data)
	case packet.TypeInterrupt:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(pkt.Interrupt.TargetSerialID))
		buf = append(buf, b[:]...)
	default:
		panic("slacker/codec: Encode: unrecognized packet type")
	}

	return buf
}

func appendHeader(buf []byte, hdr packet.Header) []byte {
	var b [headerSize]byte
	b[0] = hdr.Version
	binary.BigEndian.PutUint32(b[1:5], uint32(hdr.SerialID))
	b[5] = byte(hdr.PacketType)
	return append(buf, b[:]...)
}

func appendUint16Prefixed(buf, data []byte) []byte {
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(data)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, data...)
}

func appendUint32Prefixed(buf, data []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, data...)
}
