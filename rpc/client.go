package unitconvrpc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"unitconv"
)

// ClientProcessor collects response packets and hands them out by request
// UUID. Transports feed it whatever PacketBuffer decoded.
type ClientProcessor struct {
	mu        sync.Mutex
	responses map[uuid.UUID]*Packet
}

func NewClientProcessor() *ClientProcessor {
	return &ClientProcessor{
		responses: map[uuid.UUID]*Packet{},
	}
}

func (p *ClientProcessor) HandleResponse(pkt *Packet) {
	id, err := uuid.FromBytes(pkt.UUID)
	if err != nil {
		return
	}
	p.mu.Lock()
	p.responses[id] = pkt
	p.mu.Unlock()
}

// Take removes and returns the response for a request id, if it arrived.
func (p *ClientProcessor) Take(id uuid.UUID) (*Packet, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pkt, ok := p.responses[id]
	if ok {
		delete(p.responses, id)
	}
	return pkt, ok
}

// NewRequest builds a request packet for a server function. arg may be nil
// for functions without an argument.
func NewRequest(function string, arg any) (*Packet, uuid.UUID, error) {
	id := uuid.New()
	body := map[string][]byte{"function": []byte(function)}
	if arg != nil {
		b, err := msgpack.Marshal(arg)
		if err != nil {
			return nil, uuid.Nil, err
		}
		body["arg"] = b
	}
	return &Packet{UUID: id[:], Body: body}, id, nil
}

func NewFactorRequest(from, to int64, productIDs ...int64) (*Packet, uuid.UUID, error) {
	return NewRequest("GetFactor", FactorRequest{
		FromUnitID: from,
		ToUnitID:   to,
		ProductIDs: productIDs,
	})
}

func NewUnitRequest(unitID int64) (*Packet, uuid.UUID, error) {
	return NewRequest("GetUnit", UnitRequest{UnitID: unitID})
}

func NewUnitsRequest(productID *int64) (*Packet, uuid.UUID, error) {
	return NewRequest("GetUnits", UnitsRequest{ProductID: productID})
}

func NewGenericConversionsRequest() (*Packet, uuid.UUID, error) {
	return NewRequest("GetGenericDirectConversions", nil)
}

func NewUnitOptionRequest(unitID int64) (*Packet, uuid.UUID, error) {
	return NewRequest("GetUnitOption", UnitRequest{UnitID: unitID})
}

func NewOptionsForProductRequest(productID int64) (*Packet, uuid.UUID, error) {
	return NewRequest("GetUnitOptionsForProduct", OptionsForProductRequest{ProductID: productID})
}

// RespError turns a non-ok response into an error carrying the server's
// message.
func RespError(pkt *Packet) error {
	if pkt.Code == CodeOK {
		return nil
	}
	if msg, ok := pkt.Body["error"]; ok {
		return fmt.Errorf("rpc code %d: %s", pkt.Code, msg)
	}
	return fmt.Errorf("rpc code %d", pkt.Code)
}

var errMissingPayload = errors.New("response payload missing")

func ParseFactorResponse(pkt *Packet) (float64, bool, error) {
	if err := RespError(pkt); err != nil {
		return 0, false, err
	}
	b, ok := pkt.Body["factor"]
	if !ok {
		return 0, false, errMissingPayload
	}
	var resp FactorResponse
	if err := msgpack.Unmarshal(b, &resp); err != nil {
		return 0, false, err
	}
	return resp.Factor, resp.Found, nil
}

func ParseUnitResponse(pkt *Packet) (*unitconv.Unit, error) {
	if err := RespError(pkt); err != nil {
		return nil, err
	}
	b, ok := pkt.Body["unit"]
	if !ok {
		return nil, errMissingPayload
	}
	var wire Unit
	if err := msgpack.Unmarshal(b, &wire); err != nil {
		return nil, err
	}
	u := ToCatalogUnit(wire)
	return &u, nil
}

func ParseUnitsResponse(pkt *Packet) ([]unitconv.Unit, error) {
	if err := RespError(pkt); err != nil {
		return nil, err
	}
	b, ok := pkt.Body["units"]
	if !ok {
		return nil, errMissingPayload
	}
	var list UnitList
	if err := msgpack.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	out := make([]unitconv.Unit, 0, len(list.Units))
	for _, u := range list.Units {
		out = append(out, ToCatalogUnit(u))
	}
	return out, nil
}

func ParseConversionsResponse(pkt *Packet) ([]unitconv.UnitConversion, error) {
	if err := RespError(pkt); err != nil {
		return nil, err
	}
	b, ok := pkt.Body["conversions"]
	if !ok {
		return nil, errMissingPayload
	}
	var list ConversionList
	if err := msgpack.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	out := make([]unitconv.UnitConversion, 0, len(list.Conversions))
	for _, c := range list.Conversions {
		out = append(out, ToCatalogConversion(c))
	}
	return out, nil
}

func ParseOptionResponse(pkt *Packet) (*unitconv.UnitOption, error) {
	if err := RespError(pkt); err != nil {
		return nil, err
	}
	b, ok := pkt.Body["option"]
	if !ok {
		return nil, errMissingPayload
	}
	var wire UnitOption
	if err := msgpack.Unmarshal(b, &wire); err != nil {
		return nil, err
	}
	return &unitconv.UnitOption{Label: wire.Label, Value: wire.Value}, nil
}

func ParseOptionsResponse(pkt *Packet) ([]unitconv.UnitOption, error) {
	if err := RespError(pkt); err != nil {
		return nil, err
	}
	b, ok := pkt.Body["options"]
	if !ok {
		return nil, errMissingPayload
	}
	var list OptionList
	if err := msgpack.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	out := make([]unitconv.UnitOption, 0, len(list.Options))
	for _, o := range list.Options {
		out = append(out, unitconv.UnitOption{Label: o.Label, Value: o.Value})
	}
	return out, nil
}
