package pool

import "strings"

// ExchangerType is the closed set of exchanges an adapter exists for.
type ExchangerType string

const (
	Beefy       ExchangerType = "BEEFY"
	Curve       ExchangerType = "CURVE"
	Convex      ExchangerType = "CONVEX"
	Balancer    ExchangerType = "BALANCER"
	Velodrome   ExchangerType = "VELODROME"
	Thena       ExchangerType = "THENA"
	Lynex       ExchangerType = "LYNEX"
	Camelot     ExchangerType = "CAMELOT"
	Maverick    ExchangerType = "MAVERICK"
	SyncSwap    ExchangerType = "SYNCSWAP"
	Pancake     ExchangerType = "PANCAKE"
	Uniswap     ExchangerType = "UNISWAP"
	BaseSwap    ExchangerType = "BASESWAP"
	DefiLlama   ExchangerType = "DEFILLAMA"
	Aerodrome   ExchangerType = "AERODROME"
	SwapBased   ExchangerType = "SWAPBASED"
	Velocore    ExchangerType = "VELOCORE"
	Ramses      ExchangerType = "RAMSES"
	Chronos     ExchangerType = "CHRONOS"
	AlienBase   ExchangerType = "ALIENBASE"
	Pearl       ExchangerType = "PEARL"
	SolidLizard ExchangerType = "SOLIDLIZARD"
	Xfai        ExchangerType = "XFAI"
	Vesync      ExchangerType = "VESYNC"
	SpaceFi     ExchangerType = "SPACEFI"
	Arbidex     ExchangerType = "ARBIDEX"
	KyberSwap   ExchangerType = "KYBERSWAP"
	Sushiswap   ExchangerType = "SUSHISWAP"
	Wombat      ExchangerType = "WOMBAT"
	Equalizer   ExchangerType = "EQUALIZER"
	Sommelier   ExchangerType = "SOMMELIER"
)

// ExchangerTypes lists every exchanger in registration order.
var ExchangerTypes = []ExchangerType{
	Beefy, Curve, Convex, Balancer, Velodrome, Thena, Lynex, Camelot,
	Maverick, SyncSwap, Pancake, Uniswap, BaseSwap, DefiLlama,
	Aerodrome, SwapBased, Velocore, Ramses, Chronos, AlienBase,
	Pearl, SolidLizard, Xfai, Vesync, SpaceFi, Arbidex,
	KyberSwap, Sushiswap, Wombat, Equalizer, Sommelier,
}

// ParseExchanger accepts any casing of a known exchanger name.
func ParseExchanger(s string) (ExchangerType, bool) {
	t := ExchangerType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range ExchangerTypes {
		if known == t {
			return t, true
		}
	}
	return "", false
}

var displayNames = map[ExchangerType]string{
	DefiLlama:   "DefiLlama",
	SyncSwap:    "SyncSwap",
	BaseSwap:    "BaseSwap",
	SwapBased:   "SwapBased",
	AlienBase:   "AlienBase",
	SolidLizard: "SolidLizard",
	SpaceFi:     "SpaceFi",
	KyberSwap:   "KyberSwap",
}

// DisplayName is the human-readable exchange name, e.g. "Velodrome".
func (t ExchangerType) DisplayName() string {
	if n, ok := displayNames[t]; ok {
		return n
	}
	s := strings.ToLower(string(t))
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
