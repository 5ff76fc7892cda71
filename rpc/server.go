package unitconvrpc

import (
	"context"
	"errors"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"unitconv"
)

// Response codes. 0 means ok; everything else classifies the failure.
const (
	CodeOK         int32 = 0
	CodeNoFunc     int32 = -201
	CodeNoSuchFunc int32 = -202
	CodeNotReady   int32 = -203
	CodeNoArg      int32 = -204
	CodeBadArg     int32 = -205
	CodeExecFailed int32 = -206
	CodeNotFound   int32 = -207
)

var ServerFuncs = []string{
	"GetUnit",
	"GetUnits",
	"GetGenericDirectConversions",
	"GetUnitOption",
	"GetUnitOptionsForProduct",
	"GetFactor",
}

var (
	ErrReqHasNoFunc  = errors.New("request has no function")
	ErrNoSuchFunc    = errors.New("no such function")
	ErrCatalogNil    = errors.New("catalog not attached")
	ErrProductsNil   = errors.New("product lookup not attached")
	ErrReqHasNoArg   = errors.New("request has no argument")
	ErrNoSuchUnit    = errors.New("no such unit")
	ErrNoSuchProduct = errors.New("no such product")
)

// ProductGetter resolves product metadata for the option-list function.
// unitconv.SQLiteSource implements it.
type ProductGetter interface {
	GetProduct(ctx context.Context, productID int64) (*unitconv.Product, error)
}

type ServerProcessor struct {
	Catalog  *unitconv.Catalog
	Products ProductGetter
	log      *zap.Logger
}

func NewServerProcessor(catalog *unitconv.Catalog, products ProductGetter, log *zap.Logger) *ServerProcessor {
	if log == nil {
		log = zap.NewNop()
	}
	return &ServerProcessor{Catalog: catalog, Products: products, log: log}
}

// CreateRespPkt builds a response packet correlated to the request UUID. The
// cause, when set, also lands in the body so clients can surface it.
func CreateRespPkt(reqUUID []byte, code int32, payload map[string][]byte, cause error) *Packet {
	if payload == nil {
		payload = map[string][]byte{}
	}
	if cause != nil {
		payload["error"] = []byte(cause.Error())
	}
	return &Packet{UUID: reqUUID, Code: code, Body: payload}
}

// ProcessPkt dispatches one request packet and always returns a response
// packet; failures are encoded in its Code and "error" body entry.
func (p *ServerProcessor) ProcessPkt(ctx context.Context, pkt *Packet) *Packet {
	// layer 0, check func
	funcBytes, ok := pkt.Body["function"]
	if !ok {
		return CreateRespPkt(pkt.UUID, CodeNoFunc, nil, ErrReqHasNoFunc)
	}
	funcStr := string(funcBytes)
	if !strsContains(ServerFuncs, funcStr) {
		return CreateRespPkt(pkt.UUID, CodeNoSuchFunc, nil, ErrNoSuchFunc)
	}

	// layer 1, check catalog
	if p.Catalog == nil {
		return CreateRespPkt(pkt.UUID, CodeNotReady, nil, ErrCatalogNil)
	}

	// layer 2, check arg
	argBytes, argOk := pkt.Body["arg"]
	if argOk && len(argBytes) == 0 {
		argOk = false
	}
	switch funcStr {
	case "GetUnit", "GetUnitOption", "GetUnitOptionsForProduct", "GetFactor":
		if !argOk {
			return CreateRespPkt(pkt.UUID, CodeNoArg, nil, ErrReqHasNoArg)
		}
	}

	payload := map[string][]byte{}

	// layer last
	switch funcStr {
	case "GetUnit":
		var req UnitRequest
		if err := msgpack.Unmarshal(argBytes, &req); err != nil {
			return CreateRespPkt(pkt.UUID, CodeBadArg, nil, err)
		}
		unit, err := p.Catalog.GetUnit(ctx, req.UnitID)
		if err != nil {
			return p.execFailed(pkt, funcStr, err)
		}
		if unit == nil {
			return CreateRespPkt(pkt.UUID, CodeNotFound, nil, ErrNoSuchUnit)
		}
		b, err := msgpack.Marshal(NewUnit(*unit))
		if err != nil {
			return p.execFailed(pkt, funcStr, err)
		}
		payload["unit"] = b

	case "GetUnits":
		var req UnitsRequest
		if argOk {
			if err := msgpack.Unmarshal(argBytes, &req); err != nil {
				return CreateRespPkt(pkt.UUID, CodeBadArg, nil, err)
			}
		}
		units, err := p.Catalog.GetUnits(ctx, req.ProductID)
		if err != nil {
			return p.execFailed(pkt, funcStr, err)
		}
		b, err := msgpack.Marshal(NewUnitList(units))
		if err != nil {
			return p.execFailed(pkt, funcStr, err)
		}
		payload["units"] = b

	case "GetGenericDirectConversions":
		convs, err := p.Catalog.GetGenericDirectConversions(ctx)
		if err != nil {
			return p.execFailed(pkt, funcStr, err)
		}
		b, err := msgpack.Marshal(NewConversionList(convs))
		if err != nil {
			return p.execFailed(pkt, funcStr, err)
		}
		payload["conversions"] = b

	case "GetUnitOption":
		var req UnitRequest
		if err := msgpack.Unmarshal(argBytes, &req); err != nil {
			return CreateRespPkt(pkt.UUID, CodeBadArg, nil, err)
		}
		opt, err := p.Catalog.GetUnitOption(ctx, req.UnitID)
		if err != nil {
			return p.execFailed(pkt, funcStr, err)
		}
		if opt == nil {
			return CreateRespPkt(pkt.UUID, CodeNotFound, nil, ErrNoSuchUnit)
		}
		b, err := msgpack.Marshal(UnitOption{Label: opt.Label, Value: opt.Value})
		if err != nil {
			return p.execFailed(pkt, funcStr, err)
		}
		payload["option"] = b

	case "GetUnitOptionsForProduct":
		if p.Products == nil {
			return CreateRespPkt(pkt.UUID, CodeNotReady, nil, ErrProductsNil)
		}
		var req OptionsForProductRequest
		if err := msgpack.Unmarshal(argBytes, &req); err != nil {
			return CreateRespPkt(pkt.UUID, CodeBadArg, nil, err)
		}
		product, err := p.Products.GetProduct(ctx, req.ProductID)
		if err != nil {
			return p.execFailed(pkt, funcStr, err)
		}
		if product == nil {
			return CreateRespPkt(pkt.UUID, CodeNotFound, nil, ErrNoSuchProduct)
		}
		options, err := p.Catalog.GetUnitOptionsForProduct(ctx, *product)
		if err != nil {
			return p.execFailed(pkt, funcStr, err)
		}
		b, err := msgpack.Marshal(NewOptionList(options))
		if err != nil {
			return p.execFailed(pkt, funcStr, err)
		}
		payload["options"] = b

	case "GetFactor":
		var req FactorRequest
		if err := msgpack.Unmarshal(argBytes, &req); err != nil {
			return CreateRespPkt(pkt.UUID, CodeBadArg, nil, err)
		}
		factor, found, err := p.Catalog.GetFactor(ctx, req.FromUnitID, req.ToUnitID, req.ProductIDs...)
		if err != nil {
			return p.execFailed(pkt, funcStr, err)
		}
		b, err := msgpack.Marshal(FactorResponse{Factor: factor, Found: found})
		if err != nil {
			return p.execFailed(pkt, funcStr, err)
		}
		payload["factor"] = b
	}

	return CreateRespPkt(pkt.UUID, CodeOK, payload, nil)
}

func (p *ServerProcessor) execFailed(pkt *Packet, funcStr string, err error) *Packet {
	p.log.Warn("rpc function failed", zap.String("function", funcStr), zap.Error(err))
	return CreateRespPkt(pkt.UUID, CodeExecFailed, nil, err)
}

func strsContains(strs []string, searchVal string) bool {
	for i := range strs {
		if strs[i] == searchVal {
			return true
		}
	}
	return false
}
