// Package packet defines the Slacker wire types: the fixed header, the
// tagged-union body variants, and the numeric codes that select between them.
//
// Frame format:
//
//	0      1           5  6
//	┌──────┬────────────┬──────┬─────────────────┐
//	│ver(1)│serial_id(4)│type:1│   body ...       │
//	└──────┴────────────┴──────┴─────────────────┘
//
// The header is always exactly 6 bytes, including on Ping/Pong where the
// body is empty. All multi-byte integers are big-endian.
package packet

// ProtocolVersion is the current Slacker wire version.
const ProtocolVersion byte = 5

// Result codes carried on Response and Error packets.
const (
	ResultCodeSuccess byte = 0
	// ResultCodeInvalidData marks a request whose payload could not be
	// parsed as its declared content_type, or a handler result that could
	// not be re-encoded for the wire; the connection stays open.
	ResultCodeInvalidData byte = 12
	ResultCodeNotFound    byte = 11
)

// JSONContentType is the only content type defined by this implementation.
const JSONContentType byte = 1

// Type tags the body variant that follows the header.
type Type byte

const (
	TypeRequest         Type = 0
	TypeResponse        Type = 1
	TypePing            Type = 2
	TypePong            Type = 3
	TypeError           Type = 4
	TypeInspectRequest  Type = 7
	TypeInspectResponse Type = 8
	TypeInterrupt       Type = 9
)

// Header is the fixed 6-byte frame header shared by every packet.
type Header struct {
	Version    byte
	SerialID   int32
	PacketType Type
}

// Packet is a decoded Slacker frame: a header plus exactly one body variant.
// Exactly one of the body fields below is meaningful, selected by
// Header.PacketType; the others are left at their zero value.
type Packet struct {
	Header

	Request         *RequestBody
	Response        *ResponseBody
	Error           *ErrorBody
	InspectRequest  *InspectRequestBody
	InspectResponse *InspectResponseBody
	Interrupt       *InterruptBody
	// Ping and Pong carry no body; Header.PacketType alone distinguishes them.
}

// RequestBody is the body of a type-0 Request packet.
type RequestBody struct {
	ContentType byte
	Fname       string // "namespace/function"
	Args        []byte // opaque to the codec; interpreted via ContentType
}

// ResponseBody is the body of a type-1 Response packet.
type ResponseBody struct {
	ContentType byte
	ResultCode  byte
	Data        []byte
}

// ErrorBody is the body of a type-4 Error packet.
type ErrorBody struct {
	ResultCode byte
}

// InspectRequestBody is the body of a type-7 InspectRequest packet.
type InspectRequestBody struct {
	InspectType byte
	Data        []byte
}

// InspectResponseBody is the body of a type-8 InspectResponse packet.
type InspectResponseBody struct {
	Data []byte
}

// InterruptBody is the body of a type-9 Interrupt packet.
type InterruptBody struct {
	TargetSerialID int32
}

// NewRequest builds a Request packet with a freshly chosen header.
func NewRequest(serialID int32, contentType byte, fname string, args []byte) *Packet {
	return &Packet{
		Header:  Header{Version: ProtocolVersion, SerialID: serialID, PacketType: TypeRequest},
		Request: &RequestBody{ContentType: contentType, Fname: fname, Args: args},
	}
}

// NewResponse builds a Response packet that echoes the request header's
// version and serial_id, per the invariant that a response's serial_id
// equals the originating request's serial_id.
func NewResponse(req Header, contentType byte, data []byte) *Packet {
	return &Packet{
		Header: Header{Version: req.Version, SerialID: req.SerialID, PacketType: TypeResponse},
		Response: &ResponseBody{
			ContentType: contentType,
			ResultCode:  ResultCodeSuccess,
			Data:        data,
		},
	}
}

// NewError builds an Error packet echoing the originating header.
func NewError(req Header, resultCode byte) *Packet {
	return &Packet{
		Header: Header{Version: req.Version, SerialID: req.SerialID, PacketType: TypeError},
		Error:  &ErrorBody{ResultCode: resultCode},
	}
}

// NewPing builds a Ping packet with a caller-chosen serial_id.
func NewPing(serialID int32) *Packet {
	return &Packet{Header: Header{Version: ProtocolVersion, SerialID: serialID, PacketType: TypePing}}
}

// NewPong echoes a Ping header back as a Pong.
func NewPong(req Header) *Packet {
	return &Packet{Header: Header{Version: req.Version, SerialID: req.SerialID, PacketType: TypePong}}
}

// NewInspectResponse echoes an InspectRequest header back with response data.
func NewInspectResponse(req Header, data []byte) *Packet {
	return &Packet{
		Header:          Header{Version: req.Version, SerialID: req.SerialID, PacketType: TypeInspectResponse},
		InspectResponse: &InspectResponseBody{Data: data},
	}
}
